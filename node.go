// Package fdt parses Flattened Device Tree (FDT / DTB) blobs: the
// compact binary hardware description consumed by firmware and
// operating-system kernels on embedded platforms. It materialises the
// node/property tree and answers structural queries, most importantly
// translating device-bus addresses into CPU-visible physical addresses
// across nested `ranges` mappings.
//
// The tree and every property value it exposes borrow directly from
// the input buffer passed to Open — the buffer must outlive the Parser
// and any Node or Value derived from it.
package fdt

import (
	"strings"

	"github.com/scigolib/fdt/internal/utils"
)

// ValueKind discriminates a Property's payload interpretation.
type ValueKind uint8

// Value kinds. classify tries them in the order Empty, U32, U64,
// String/StringList, U32Array, U64Array, Bytes.
const (
	KindEmpty ValueKind = iota
	KindU32
	KindU64
	KindU32Array
	KindU64Array
	KindString
	KindStringList
	KindBytes
)

// String returns a short label for the kind, used in error messages.
func (k ValueKind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindU32:
		return "u32"
	case KindU64:
		return "u64"
	case KindU32Array:
		return "u32array"
	case KindU64Array:
		return "u64array"
	case KindString:
		return "string"
	case KindStringList:
		return "stringlist"
	case KindBytes:
		return "bytes"
	default:
		return "unknown"
	}
}

// Value is a property payload tagged with its classified Kind. The raw
// bytes are always retained so callers can re-interpret a value under a
// different accessor — conversion is attempted by re-examining the
// raw bytes, not treated as an error.
type Value struct {
	Kind ValueKind
	raw  []byte
}

// classify implements the classification heuristic, evaluated in
// priority order: a 4-byte payload is always U32 even if printable,
// and a non-multiple-of-4 non-string payload is always Bytes.
func classify(payload []byte) ValueKind {
	switch {
	case len(payload) == 0:
		return KindEmpty
	case len(payload) == 4:
		return KindU32
	case len(payload) == 8:
		return KindU64
	}

	if sk, ok := classifyString(payload); ok {
		return sk
	}

	switch {
	case len(payload)%4 == 0:
		return KindU32Array
	case len(payload)%8 == 0:
		return KindU64Array
	default:
		return KindBytes
	}
}

// classifyString recognizes a string or string-list payload: it must
// be non-empty, end with a null byte, and every non-null byte must be
// printable ASCII or tab.
func classifyString(payload []byte) (ValueKind, bool) {
	if len(payload) == 0 || payload[len(payload)-1] != 0 {
		return 0, false
	}
	nulls := 0
	runStart := 0
	runs := 0
	for i, b := range payload {
		if b == 0 {
			nulls++
			if i > runStart {
				runs++
			}
			runStart = i + 1
			continue
		}
		if b == '\t' {
			continue
		}
		if b < 0x20 || b > 0x7E {
			return 0, false
		}
	}
	switch {
	case nulls == 1:
		return KindString, true
	case nulls >= 2 && runs >= 2:
		return KindStringList, true
	default:
		return 0, false
	}
}

// Bytes returns the raw backing payload of the value, regardless of
// Kind.
func (v Value) Bytes() []byte { return v.raw }

// AsU32 interprets the value as a single big-endian u32. It accepts
// KindU32 directly and KindU32Array/KindBytes payloads of length 4.
func (v Value) AsU32() (uint32, error) {
	switch v.Kind {
	case KindU32, KindU32Array, KindBytes:
		if len(v.raw) != 4 {
			return 0, utils.Wrap(utils.TypeMismatch, "value is not 4 bytes", nil)
		}
		return utils.ReadU32(v.raw, 0)
	default:
		return 0, utils.Wrap(utils.TypeMismatch, "value kind "+v.Kind.String()+" is not u32-convertible", nil)
	}
}

// AsU64 interprets the value as a single big-endian u64, accepting
// KindU64 directly or an 8-byte KindU64Array/KindBytes payload,
// treating it as two concatenated u32s. Other kinds are a TypeMismatch.
func (v Value) AsU64() (uint64, error) {
	switch v.Kind {
	case KindU64, KindU64Array, KindBytes:
		if len(v.raw) != 8 {
			return 0, utils.Wrap(utils.TypeMismatch, "value is not 8 bytes", nil)
		}
		return utils.ReadU64(v.raw, 0)
	default:
		return 0, utils.Wrap(utils.TypeMismatch, "value kind "+v.Kind.String()+" is not u64-convertible", nil)
	}
}

// AsString returns the value's string content. String returns its sole
// entry; StringList returns its first entry.
func (v Value) AsString() (string, error) {
	switch v.Kind {
	case KindString:
		return string(v.raw[:len(v.raw)-1]), nil
	case KindStringList:
		entries := v.StringListEntries()
		if len(entries) == 0 {
			return "", utils.Wrap(utils.TypeMismatch, "empty string list", nil)
		}
		return entries[0], nil
	default:
		return "", utils.Wrap(utils.TypeMismatch, "value kind "+v.Kind.String()+" is not string-convertible", nil)
	}
}

// StringListEntries splits a KindString or KindStringList payload into
// its null-terminated entries, discarding empty runs between
// consecutive nulls. Returns nil for any other
// kind.
func (v Value) StringListEntries() []string {
	switch v.Kind {
	case KindString, KindStringList:
	default:
		return nil
	}
	parts := strings.Split(string(v.raw), "\x00")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// U32Elements iterates the value as a sequence of big-endian u32
// elements. Works on
// KindU32Array directly, and as a convenience on single KindU32 values
// and on KindBytes whose length is a multiple of 4.
func (v Value) U32Elements() ([]uint32, error) {
	switch v.Kind {
	case KindU32Array, KindU32, KindBytes:
	default:
		return nil, utils.Wrap(utils.TypeMismatch, "value kind "+v.Kind.String()+" has no u32 elements", nil)
	}
	if len(v.raw)%4 != 0 {
		return nil, utils.Wrap(utils.InvalidArrayLength, "length not a multiple of 4", nil)
	}
	out := make([]uint32, len(v.raw)/4)
	for i := range out {
		elem, err := utils.ReadU32(v.raw, i*4)
		if err != nil {
			return nil, err
		}
		out[i] = elem
	}
	return out, nil
}

// U64Elements iterates the value as a sequence of big-endian u64
// elements, analogous to U32Elements.
func (v Value) U64Elements() ([]uint64, error) {
	switch v.Kind {
	case KindU64Array, KindU64, KindBytes:
	default:
		return nil, utils.Wrap(utils.TypeMismatch, "value kind "+v.Kind.String()+" has no u64 elements", nil)
	}
	if len(v.raw)%8 != 0 {
		return nil, utils.Wrap(utils.InvalidArrayLength, "length not a multiple of 8", nil)
	}
	out := make([]uint64, len(v.raw)/8)
	for i := range out {
		elem, err := utils.ReadU64(v.raw, i*8)
		if err != nil {
			return nil, err
		}
		out[i] = elem
	}
	return out, nil
}

// Property is a name/value pair attached to a Node.
type Property struct {
	Name  string
	Value Value
}

// Node is a single point in the device tree: a name, an ordered list of
// properties, and an ordered list of children. Nodes do not reference
// their parent; address translation and other recursive walkers pass
// parent context explicitly.
type Node struct {
	Name       string
	Properties []Property
	Children   []Node
}

// FindProperty returns the first property with the given name
// (first-wins lookup when a name is duplicated), and false if none
// matches.
func (n *Node) FindProperty(name string) (Value, bool) {
	for _, p := range n.Properties {
		if p.Name == name {
			return p.Value, true
		}
	}
	return Value{}, false
}

// FindChild returns the first direct child whose name matches either
// the full "base@unit" name or just "base".
func (n *Node) FindChild(name string) (*Node, bool) {
	for i := range n.Children {
		c := &n.Children[i]
		if c.Name == name || baseName(c.Name) == name {
			return c, true
		}
	}
	return nil, false
}

func baseName(name string) string {
	if i := strings.IndexByte(name, '@'); i >= 0 {
		return name[:i]
	}
	return name
}

// CompatibleList returns the fully split compatible property of a
// node, handling both the String and StringList variants.
func (n *Node) CompatibleList() []string {
	v, ok := n.FindProperty("compatible")
	if !ok {
		return nil
	}
	switch v.Kind {
	case KindString, KindStringList:
		return v.StringListEntries()
	default:
		return nil
	}
}

// Status is the parsed form of a node's standard `status` property.
type Status struct {
	// Okay, Disabled, Fail, or FailWithReason.
	Kind   StatusKind
	Reason string // set only for FailWithReason
}

// StatusKind enumerates the standard `status` property values.
type StatusKind uint8

const (
	StatusOkay StatusKind = iota
	StatusDisabled
	StatusFail
	StatusFailWithReason
)

// String returns the status keyword as it appears in the `status`
// property, used when formatting a Status for display.
func (k StatusKind) String() string {
	switch k {
	case StatusOkay:
		return "okay"
	case StatusDisabled:
		return "disabled"
	case StatusFail:
		return "fail"
	case StatusFailWithReason:
		return "fail-*"
	default:
		return "unknown"
	}
}

// Status returns the node's parsed status, defaulting to StatusOkay
// when the property is absent (FDT convention: no status means
// enabled).
func (n *Node) Status() Status {
	v, ok := n.FindProperty("status")
	if !ok {
		return Status{Kind: StatusOkay}
	}
	s, err := v.AsString()
	if err != nil {
		return Status{Kind: StatusOkay}
	}
	switch {
	case s == "okay":
		return Status{Kind: StatusOkay}
	case s == "disabled":
		return Status{Kind: StatusDisabled}
	case s == "fail":
		return Status{Kind: StatusFail}
	case strings.HasPrefix(s, "fail-"):
		return Status{Kind: StatusFailWithReason, Reason: strings.TrimPrefix(s, "fail-")}
	default:
		return Status{Kind: StatusOkay}
	}
}

// InterruptCells returns the node's own #interrupt-cells property.
// Unlike #address-cells and #size-cells, this is declared by the
// interrupt-controller node itself and is never inherited from a
// parent.
func (n *Node) InterruptCells() (uint32, bool) {
	v, ok := n.FindProperty("#interrupt-cells")
	if !ok {
		return 0, false
	}
	c, err := v.AsU32()
	if err != nil {
		return 0, false
	}
	return c, true
}
