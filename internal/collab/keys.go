package collab

// Key enumerates the formatting keys with dedicated codec or policy
// behavior. Attribute names outside the enum pass through both directions
// as plain inline formats.
type Key int

const (
	KeyBold Key = iota
	KeyItalic
	KeyLink
	KeyHeader
	KeyList
	KeyBlockquote
	KeyCodeBlock
	KeyIndent
	KeyAlign
	KeyDirection
)

// BlockKey is the synthetic model key carrying the one active exclusive
// line format of a paragraph.
const BlockKey = "block"

// keyInfo drives codec and policy dispatch for one key.
type keyInfo struct {
	name       string // editor-side attribute name
	exclusive  bool   // collapses into BlockKey
	structural bool   // paragraph-level; marks never expand
}

var keyTable = [...]keyInfo{
	KeyBold:       {name: "bold"},
	KeyItalic:     {name: "italic"},
	KeyLink:       {name: "link"},
	KeyHeader:     {name: "header", exclusive: true, structural: true},
	KeyList:       {name: "list", exclusive: true, structural: true},
	KeyBlockquote: {name: "blockquote", exclusive: true, structural: true},
	KeyCodeBlock:  {name: "code-block", exclusive: true, structural: true},
	KeyIndent:     {name: "indent", structural: true},
	KeyAlign:      {name: "align", structural: true},
	KeyDirection:  {name: "direction", structural: true},
}

var keyByName = func() map[string]Key {
	m := make(map[string]Key, len(keyTable))
	for k := range keyTable {
		m[keyTable[k].name] = Key(k)
	}
	return m
}()

// LookupKey resolves an editor attribute name to its key.
func LookupKey(name string) (Key, bool) {
	k, ok := keyByName[name]
	return k, ok
}

// Name returns the editor-side attribute name.
func (k Key) Name() string { return keyTable[k].name }

// Exclusive reports whether the key belongs to the exclusive line-format
// group.
func (k Key) Exclusive() bool { return keyTable[k].exclusive }

// Structural reports whether the key formats paragraphs rather than inline
// text.
func (k Key) Structural() bool { return keyTable[k].structural }

// ExclusiveKeys lists the exclusive group in declaration order.
func ExclusiveKeys() []Key {
	out := make([]Key, 0, 4)
	for k := range keyTable {
		if keyTable[k].exclusive {
			out = append(out, Key(k))
		}
	}
	return out
}
