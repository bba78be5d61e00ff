// Package fdttest builds synthetic DTB blobs for tests across the
// module: a tiny, dependency-free test fixture helper, kept in its own
// internal package so every _test.go in the module can share it.
package fdttest

import (
	"bytes"
	"encoding/binary"
)

const (
	magic          = 0xD00D_FEED
	tagBeginNode   = 1
	tagEndNode     = 2
	tagProp        = 3
	tagEnd         = 9
	headerVersion  = 17
	headerLastComp = 16
)

// Builder assembles a structure block, a strings pool, and an optional
// memory-reservation list into a complete DTB blob.
type Builder struct {
	structure    bytes.Buffer
	strings      bytes.Buffer
	stringOffset map[string]uint32
	reservations []reservation
}

type reservation struct {
	addr, size uint64
}

// New returns an empty Builder.
func New() *Builder {
	return &Builder{stringOffset: make(map[string]uint32)}
}

func (b *Builder) putU32(v uint32) {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	b.structure.Write(buf[:])
}

func (b *Builder) pad4() {
	for b.structure.Len()%4 != 0 {
		b.structure.WriteByte(0)
	}
}

func (b *Builder) internString(s string) uint32 {
	if off, ok := b.stringOffset[s]; ok {
		return off
	}
	off := uint32(b.strings.Len())
	b.strings.WriteString(s)
	b.strings.WriteByte(0)
	b.stringOffset[s] = off
	return off
}

// Reserve adds a memory-reservation entry.
func (b *Builder) Reserve(addr, size uint64) *Builder {
	b.reservations = append(b.reservations, reservation{addr, size})
	return b
}

// BeginNode opens a node with the given name.
func (b *Builder) BeginNode(name string) *Builder {
	b.putU32(tagBeginNode)
	b.structure.WriteString(name)
	b.structure.WriteByte(0)
	b.pad4()
	return b
}

// EndNode closes the most recently opened node.
func (b *Builder) EndNode() *Builder {
	b.putU32(tagEndNode)
	return b
}

func (b *Builder) prop(name string, payload []byte) *Builder {
	b.putU32(tagProp)
	b.putU32(uint32(len(payload)))
	b.putU32(b.internString(name))
	b.structure.Write(payload)
	b.pad4()
	return b
}

// PropEmpty adds a zero-length (flag) property.
func (b *Builder) PropEmpty(name string) *Builder { return b.prop(name, nil) }

// PropU32 adds a 4-byte property.
func (b *Builder) PropU32(name string, v uint32) *Builder {
	var payload [4]byte
	binary.BigEndian.PutUint32(payload[:], v)
	return b.prop(name, payload[:])
}

// PropU64 adds an 8-byte property.
func (b *Builder) PropU64(name string, v uint64) *Builder {
	var payload [8]byte
	binary.BigEndian.PutUint64(payload[:], v)
	return b.prop(name, payload[:])
}

// PropU32Array adds a property whose payload is a sequence of
// big-endian u32 cells (used for reg/ranges payloads too).
func (b *Builder) PropU32Array(name string, cells ...uint32) *Builder {
	payload := make([]byte, 4*len(cells))
	for i, c := range cells {
		binary.BigEndian.PutUint32(payload[i*4:], c)
	}
	return b.prop(name, payload)
}

// PropString adds a single null-terminated string property.
func (b *Builder) PropString(name, value string) *Builder {
	payload := append([]byte(value), 0)
	return b.prop(name, payload)
}

// PropStringList adds a property whose payload is the concatenation of
// null-terminated strings.
func (b *Builder) PropStringList(name string, values ...string) *Builder {
	var payload bytes.Buffer
	for _, v := range values {
		payload.WriteString(v)
		payload.WriteByte(0)
	}
	return b.prop(name, payload.Bytes())
}

// PropBytes adds a raw-bytes property.
func (b *Builder) PropBytes(name string, data []byte) *Builder {
	return b.prop(name, data)
}

// RawStructure appends raw pre-encoded token bytes directly to the
// structure block, for tests that need to construct malformed streams
// (bad tags, misaligned lengths) the high-level helpers can't express.
func (b *Builder) RawStructure(raw ...byte) *Builder {
	b.structure.Write(raw)
	return b
}

// Build finalizes and returns the complete DTB blob.
func (b *Builder) Build() []byte {
	b.putU32(tagEnd)
	for b.strings.Len()%4 != 0 {
		b.strings.WriteByte(0)
	}

	const headerSize = 40
	rsvmapOff := uint32(headerSize)
	rsvmapSize := uint32(16 * (len(b.reservations) + 1))
	structOff := rsvmapOff + rsvmapSize
	structSize := uint32(b.structure.Len())
	stringsOff := structOff + structSize
	stringsSize := uint32(b.strings.Len())
	totalSize := stringsOff + stringsSize

	var header bytes.Buffer
	put := func(v uint32) {
		var buf [4]byte
		binary.BigEndian.PutUint32(buf[:], v)
		header.Write(buf[:])
	}
	put(magic)
	put(totalSize)
	put(structOff)
	put(stringsOff)
	put(rsvmapOff)
	put(headerVersion)
	put(headerLastComp)
	put(0) // boot_cpuid_phys
	put(stringsSize)
	put(structSize)

	var rsvmap bytes.Buffer
	for _, r := range b.reservations {
		var entry [16]byte
		binary.BigEndian.PutUint64(entry[0:8], r.addr)
		binary.BigEndian.PutUint64(entry[8:16], r.size)
		rsvmap.Write(entry[:])
	}
	rsvmap.Write(make([]byte, 16)) // (0,0) sentinel

	out := make([]byte, totalSize)
	copy(out[0:], header.Bytes())
	copy(out[rsvmapOff:], rsvmap.Bytes())
	copy(out[structOff:], b.structure.Bytes())
	copy(out[stringsOff:], b.strings.Bytes())
	return out
}

// MinimalRoot returns the minimum valid DTB: header, empty reservation
// sentinel, an unnamed root BeginNode/EndNode pair, and End.
func MinimalRoot() []byte {
	return New().BeginNode("").EndNode().Build()
}

// BadMagic returns a buffer whose first four bytes are not the FDT
// magic.
func BadMagic() []byte {
	buf := MinimalRoot()
	buf[0], buf[1], buf[2], buf[3] = 0xDE, 0xAD, 0xBE, 0xEF
	return buf
}
