// Package delta implements the index-addressed change vocabulary used by the
// editor surface. A Delta is an ordered list of operations that either
// describe a document (insert-only ops) or describe a change to one (retain,
// insert, and delete ops addressed from the document start).
//
// The three operations are:
//
//   - retain n: skip over n items, optionally restyling them with an
//     attribute map. A nil attribute value removes that attribute.
//   - insert: add text (or a single embed object) with optional attributes.
//   - delete n: remove the next n items.
//
// All lengths count runes, not bytes, so multi-byte characters occupy one
// position each. Embeds always occupy exactly one position.
//
// Deltas are built through the chainable constructor methods, which keep the
// op list canonical: adjacent ops of the same kind with equal attributes are
// merged, and an insert adjacent to a delete is ordered before it, since the
// two address the same point and the swap makes equal changes compare equal.
//
// Compose merges two consecutive changes into one. An op list composed with
// a change yields the op list that would result from applying both in turn,
// which is also how document contents are maintained: a document is a delta
// of inserts, and applying an edit is composition.
package delta
