package collab

import (
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// BlockKind enumerates the exclusive line formats.
type BlockKind int

const (
	BlockNone BlockKind = iota
	BlockHeading
	BlockList
	BlockQuote
	BlockCode
)

// BlockFormat is the single active line format of a paragraph. The zero
// value means no format. It exists in decoded form everywhere inside the
// adapter; the wire pair only appears in payload and parseBlockPayload at
// the protocol boundary.
type BlockFormat struct {
	Kind  BlockKind
	Level int    // heading level when Kind is BlockHeading
	List  string // list kind when Kind is BlockList
}

// blockFromEditor builds a BlockFormat from one exclusive editor
// attribute.
func blockFromEditor(k Key, value any) (BlockFormat, error) {
	switch k {
	case KeyHeader:
		lvl, ok := intValue(value)
		if !ok || lvl < 1 {
			return BlockFormat{}, fmt.Errorf("%w: header level %v", ErrBadAttr, value)
		}
		return BlockFormat{Kind: BlockHeading, Level: lvl}, nil
	case KeyList:
		kind, ok := value.(string)
		if !ok || kind == "" {
			return BlockFormat{}, fmt.Errorf("%w: list kind %v", ErrBadAttr, value)
		}
		return BlockFormat{Kind: BlockList, List: kind}, nil
	case KeyBlockquote:
		return BlockFormat{Kind: BlockQuote}, nil
	case KeyCodeBlock:
		return BlockFormat{Kind: BlockCode}, nil
	}
	return BlockFormat{}, fmt.Errorf("%w: %s is not an exclusive key", ErrBadAttr, k.Name())
}

// editorAttr returns the editor attribute pair for the block format.
func (b BlockFormat) editorAttr() (string, any) {
	switch b.Kind {
	case BlockHeading:
		return KeyHeader.Name(), b.Level
	case BlockList:
		return KeyList.Name(), b.List
	case BlockQuote:
		return KeyBlockquote.Name(), true
	case BlockCode:
		return KeyCodeBlock.Name(), true
	}
	return "", nil
}

// payload serializes the block format as the two-element wire pair the
// synthetic block key carries, such as ["header",2].
func (b BlockFormat) payload() string {
	key, value := b.editorAttr()
	s, _ := sjson.Set("[]", "-1", key)
	s, _ = sjson.Set(s, "-1", value)
	return s
}

// parseBlockPayload decodes a wire pair back into a BlockFormat.
func parseBlockPayload(v any) (BlockFormat, error) {
	s, ok := v.(string)
	if !ok {
		return BlockFormat{}, fmt.Errorf("%w: block payload is %T, want string", ErrBadAttr, v)
	}
	parsed := gjson.Parse(s)
	if !parsed.IsArray() {
		return BlockFormat{}, fmt.Errorf("%w: block payload %q", ErrBadAttr, s)
	}
	pair := parsed.Array()
	if len(pair) != 2 {
		return BlockFormat{}, fmt.Errorf("%w: block payload %q", ErrBadAttr, s)
	}
	k, ok := LookupKey(pair[0].String())
	if !ok || !k.Exclusive() {
		return BlockFormat{}, fmt.Errorf("%w: block payload key %q", ErrBadAttr, pair[0].String())
	}
	return blockFromEditor(k, pair[1].Value())
}

func intValue(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n == float64(int(n)) {
			return int(n), true
		}
	}
	return 0, false
}
