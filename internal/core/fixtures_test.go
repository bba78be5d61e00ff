package core

import "github.com/scigolib/fdt/internal/fdttest"

func minimalRootDTB() []byte {
	return fdttest.MinimalRoot()
}

func fixtureWithProp() []byte {
	return fdttest.New().
		BeginNode("").
		PropU32("#address-cells", 2).
		EndNode().
		Build()
}

// fixtureWithBadTag builds a minimal DTB and then corrupts the first
// structure-block tag (the root BeginNode's tag word) to an
// unrecognised value, exercising the decoder's tag-validation path.
func fixtureWithBadTag() []byte {
	buf := fdttest.MinimalRoot()
	h, err := ParseHeader(buf)
	if err != nil {
		panic(err)
	}
	// Corrupt the tag word at the start of the structure block.
	buf[h.OffDTStruct] = 0xFF
	buf[h.OffDTStruct+1] = 0xFF
	buf[h.OffDTStruct+2] = 0xFF
	buf[h.OffDTStruct+3] = 0xFF
	return buf
}

// fixtureWithTruncatedProp builds a node whose single Prop token claims
// a payload length that runs past the end of the structure block.
func fixtureWithTruncatedProp() []byte {
	buf := fdttest.New().
		BeginNode("").
		PropU32("compatible", 0).
		Build()
	h, err := ParseHeader(buf)
	if err != nil {
		panic(err)
	}
	// The Prop token is the second token (after BeginNode's tag+pad).
	// Its length field is the word after the Prop tag: for
	// an empty name, BeginNode occupies 4 (tag) + 4 (name+pad) = 8
	// bytes, so the Prop tag starts at structOff+8 and its length field
	// at structOff+12.
	lenOff := h.OffDTStruct + 12
	buf[lenOff] = 0x7F
	buf[lenOff+1] = 0xFF
	buf[lenOff+2] = 0xFF
	buf[lenOff+3] = 0xFF
	return buf
}
