// Package richtext implements the shared document model: a sequence of
// characters addressed by stable positions, with formatting carried by
// anchored marks.
//
// Characters never move once placed. Local edits allocate fresh positions
// ordered relative to their neighbors; deletion tombstones a character
// rather than removing it, so positions referenced by concurrent edits
// stay resolvable forever. The visible document is the walk over all
// allocated slots, filtered to characters that exist and are not deleted.
//
// Formatting is not stored on characters. A Mark pairs a key and value
// with two anchors, each a position plus a side. Whether text typed at a
// mark boundary inherits the format is decided by which side the anchors
// bind to, which the per-key expansion policy chooses at mark creation.
// Marks with the same key layer by last-writer-wins: the mark with the
// highest stamp decides, and a nil value clears the key.
//
// The model is driven from a single goroutine; it contains no locking.
package richtext
