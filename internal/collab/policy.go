package collab

import "github.com/dshills/richsync/internal/richtext"

// ExpandRule decides how a mark minted for the given model attribute grows
// when text is inserted at its edges.
//
// Inline styles expand after: typing at the end of a bold run stays bold,
// typing at the start does not drag the style backward. Line formats and
// the other structural keys never expand, since they bind to terminators
// rather than spans of prose. Links are the odd one out: a live link stays
// closed on both edges so adjacent typing never joins it, while a link
// clear expands both ways so the cleared region swallows boundary typing
// instead of resurrecting the link.
func ExpandRule(key string, value any) richtext.Expand {
	if key == BlockKey {
		return richtext.ExpandNone
	}
	k, ok := LookupKey(key)
	if !ok {
		return richtext.ExpandAfter
	}
	switch {
	case k == KeyLink && value == nil:
		return richtext.ExpandBoth
	case k == KeyLink:
		return richtext.ExpandNone
	case k.Structural():
		return richtext.ExpandNone
	}
	return richtext.ExpandAfter
}
