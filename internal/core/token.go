package core

import "github.com/scigolib/fdt/internal/utils"

// TokenKind discriminates a structure-block token.
type TokenKind uint8

// Token kinds, named after their FDT tag values.
const (
	TokenBeginNode TokenKind = iota
	TokenEndNode
	TokenProp
	TokenNop
	TokenEnd
)

const (
	tagBeginNode uint32 = 1
	tagEndNode   uint32 = 2
	tagProp      uint32 = 3
	tagNop       uint32 = 4
	tagEnd       uint32 = 9
)

// Token is one decoded structure-block token. Name is set for
// BeginNode; Name and Value are set for Prop.
type Token struct {
	Kind  TokenKind
	Name  string
	Value []byte
}

// Decoder walks the structure block buf[0:size], resolving Prop name
// offsets against the strings pool. Both slices are borrows into the
// caller's buffer — the decoder allocates nothing but its own cursor
// state.
type Decoder struct {
	structure []byte
	strings   []byte
	pos       int
}

// NewDecoder builds a Decoder over the given structure and strings
// blocks, both already sliced from the full input buffer by the caller.
func NewDecoder(structure, strings []byte) *Decoder {
	return &Decoder{structure: structure, strings: strings}
}

// Pos returns the decoder's current byte offset within the structure
// block, useful for error context.
func (d *Decoder) Pos() int { return d.pos }

// Next decodes and returns the next token. Callers should stop calling
// Next once they receive a Token{Kind: TokenEnd} or a non-nil error.
func (d *Decoder) Next() (Token, error) {
	if d.pos%4 != 0 {
		return Token{}, utils.Wrap(utils.InvalidToken, "cursor not 4-byte aligned", nil)
	}
	tag, err := utils.ReadU32(d.structure, d.pos)
	if err != nil {
		return Token{}, utils.Wrap(utils.UnexpectedEOF, "token tag", err)
	}
	d.pos += 4

	switch tag {
	case tagBeginNode:
		return d.decodeBeginNode()
	case tagEndNode:
		return Token{Kind: TokenEndNode}, nil
	case tagProp:
		return d.decodeProp()
	case tagNop:
		return Token{Kind: TokenNop}, nil
	case tagEnd:
		return Token{Kind: TokenEnd}, nil
	default:
		return Token{}, utils.Wrap(utils.InvalidToken, "unknown tag", nil)
	}
}

func (d *Decoder) decodeBeginNode() (Token, error) {
	name, n, err := utils.ReadCString(d.structure, d.pos)
	if err != nil {
		return Token{}, utils.Wrap(utils.TruncatedToken, "BeginNode name", err)
	}
	d.pos += utils.Align4(n)
	if d.pos > len(d.structure) {
		return Token{}, utils.Wrap(utils.TruncatedToken, "BeginNode padding", nil)
	}
	return Token{Kind: TokenBeginNode, Name: name}, nil
}

func (d *Decoder) decodeProp() (Token, error) {
	length, err := utils.ReadU32(d.structure, d.pos)
	if err != nil {
		return Token{}, utils.Wrap(utils.TruncatedToken, "Prop length", err)
	}
	nameOff, err := utils.ReadU32(d.structure, d.pos+4)
	if err != nil {
		return Token{}, utils.Wrap(utils.TruncatedToken, "Prop name offset", err)
	}
	d.pos += 8

	name, _, err := utils.ReadCString(d.strings, int(nameOff))
	if err != nil {
		return Token{}, utils.Wrap(utils.TruncatedToken, "Prop name in strings block", err)
	}

	end := d.pos + int(length)
	if length > 0 && (end < d.pos || end > len(d.structure)) {
		return Token{}, utils.Wrap(utils.TruncatedToken, "Prop payload runs past structure block", nil)
	}
	value := d.structure[d.pos:end]
	d.pos = utils.Align4(end)
	if d.pos > len(d.structure) {
		return Token{}, utils.Wrap(utils.TruncatedToken, "Prop padding", nil)
	}

	return Token{Kind: TokenProp, Name: name, Value: value}, nil
}
