// Package collab is the synchronization adapter between an index-addressed
// editor view and the position-addressed document model. It owns the
// translation contract in both directions: accepted editor batches become
// op batches other replicas can replay, and replayed op batches become the
// minimal editor update that brings the local view in line.
//
// The document model is the source of truth; the view is a derived
// projection of it. Everything here runs on one goroutine, driven to
// completion per batch: the only shared state between the two directions
// is the replay latch that stops a replayed editor update from being
// re-translated as local input.
//
// Op is the unit of exchange. One local editor action yields at most one
// op batch, grouped so that bunch metadata always precedes the positions
// that depend on it. Replay is idempotent: redelivered sets, deletes, and
// marks change nothing.
package collab
