package fdt

import (
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/require"
)

func TestClassify_Empty(t *testing.T) {
	require.Equal(t, KindEmpty, classify(nil))
	require.Equal(t, KindEmpty, classify([]byte{}))
}

func TestClassify_U32Exact(t *testing.T) {
	require.Equal(t, KindU32, classify([]byte{0, 0, 0, 1}))
}

func TestClassify_U32PrintableButStillU32(t *testing.T) {
	// A 4-byte payload classifies as U32 even if its bytes happen to be
	// printable ASCII with no terminating null.
	require.Equal(t, KindU32, classify([]byte("abcd")))
}

func TestClassify_U64Exact(t *testing.T) {
	require.Equal(t, KindU64, classify([]byte{0, 0, 0, 0, 0, 0, 0, 1}))
}

func TestClassify_U64TakesPrecedenceOverString(t *testing.T) {
	// An 8-byte null-terminated printable run still classifies as U64,
	// since the length-based rules (1-3) precede the string heuristic.
	require.Equal(t, KindU64, classify([]byte("ranges\x00\x00")))
}

func TestClassify_SingleString(t *testing.T) {
	require.Equal(t, KindString, classify([]byte("ns16550a\x00")))
}

func TestClassify_StringList(t *testing.T) {
	require.Equal(t, KindStringList, classify([]byte("arm,pl011\x00ns16550\x00")))
}

func TestClassify_U32ArrayNotAString(t *testing.T) {
	// 12 bytes, not printable/null-terminated -> multiple of 4 -> U32Array.
	require.Equal(t, KindU32Array, classify([]byte{0, 0, 0, 1, 0, 0, 0, 2, 0, 0, 0, 3}))
}

func TestClassify_U32ArrayTakesPrecedenceOverU64Array(t *testing.T) {
	// 24 bytes is a multiple of both 4 and 8; the 4-byte grouping wins.
	payload := make([]byte, 24)
	payload[0] = 0xFF
	require.Equal(t, KindU32Array, classify(payload))
}

func TestClassify_MultipleOf4NotOf8IsU32Array(t *testing.T) {
	// Length 20 is a multiple of 4 but not of 8, so it lands on
	// U32Array. A payload that is a multiple of 8 but NOT of 4 cannot
	// exist (8 is itself a multiple of 4), so classify never returns
	// U64Array; that kind only appears on a Value constructed directly.
	payload := make([]byte, 20)
	payload[0] = 0xFF
	require.Equal(t, KindU32Array, classify(payload))
}

func TestClassify_BytesFallback(t *testing.T) {
	// Length 5: not 0/4/8, not a valid string, not a multiple of 4 or 8.
	require.Equal(t, KindBytes, classify([]byte{1, 2, 3, 4, 5}))
}

func TestClassify_NonPrintableNotString(t *testing.T) {
	require.Equal(t, KindBytes, classify([]byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x00, 0x00}))
}

func TestValue_AsU32(t *testing.T) {
	v := Value{Kind: KindU32, raw: []byte{0, 0, 0x10, 0}}
	got, err := v.AsU32()
	require.NoError(t, err)
	require.Equal(t, uint32(0x1000), got)
}

func TestValue_AsU32_TypeMismatch(t *testing.T) {
	v := Value{Kind: KindString, raw: []byte("x\x00")}
	_, err := v.AsU32()
	require.Error(t, err)
}

func TestValue_AsU64_FromConcatenatedU32s(t *testing.T) {
	v := Value{Kind: KindBytes, raw: []byte{0, 0, 0, 0, 0, 0, 0x10, 0}}
	got, err := v.AsU64()
	require.NoError(t, err)
	require.Equal(t, uint64(0x1000), got)
}

func TestValue_AsString_List(t *testing.T) {
	v := Value{Kind: KindStringList, raw: []byte("arm,pl011\x00ns16550\x00")}
	s, err := v.AsString()
	require.NoError(t, err)
	require.Equal(t, "arm,pl011", s)
}

func TestValue_StringListEntries_DiscardsEmptyRuns(t *testing.T) {
	v := Value{Kind: KindStringList, raw: []byte("a\x00\x00b\x00")}
	require.Equal(t, []string{"a", "b"}, v.StringListEntries())
}

func TestValue_U32Elements(t *testing.T) {
	v := Value{Kind: KindU32Array, raw: []byte{0, 0, 0, 1, 0, 0, 0, 2}}
	got, err := v.U32Elements()
	require.NoError(t, err)
	require.Equal(t, []uint32{1, 2}, got)
}

func TestValue_U32Elements_InvalidLength(t *testing.T) {
	v := Value{Kind: KindU32Array, raw: []byte{0, 0, 1}}
	_, err := v.U32Elements()
	require.Error(t, err)
}

func TestValue_Bytes_AlwaysSucceeds(t *testing.T) {
	v := Value{Kind: KindU32, raw: []byte{1, 2, 3, 4}}
	require.Equal(t, []byte{1, 2, 3, 4}, v.Bytes())
}

func TestNode_DuplicateProperties(t *testing.T) {
	// FindProperty resolves duplicates first-wins; the full
	// insertion-order list is still preserved on the node.
	n := &Node{
		Properties: []Property{
			{Name: "status", Value: Value{Kind: KindString, raw: []byte("okay\x00")}},
			{Name: "status", Value: Value{Kind: KindString, raw: []byte("disabled\x00")}},
		},
	}
	require.Len(t, n.Properties, 2, "both duplicates kept in order: %s", spew.Sdump(n.Properties))

	v, ok := n.FindProperty("status")
	require.True(t, ok)
	s, err := v.AsString()
	require.NoError(t, err)
	require.Equal(t, "okay", s, "first-wins lookup")
}

func TestNode_FindChild_ByBaseOrFullName(t *testing.T) {
	n := &Node{Children: []Node{{Name: "uart@10000000"}, {Name: "cpus"}}}

	c, ok := n.FindChild("uart@10000000")
	require.True(t, ok)
	require.Equal(t, "uart@10000000", c.Name)

	c, ok = n.FindChild("uart")
	require.True(t, ok)
	require.Equal(t, "uart@10000000", c.Name)

	_, ok = n.FindChild("missing")
	require.False(t, ok)
}

func TestNode_CompatibleList(t *testing.T) {
	n := &Node{Properties: []Property{
		{Name: "compatible", Value: Value{Kind: KindStringList, raw: []byte("sifive,clint0\x00riscv,clint0\x00")}},
	}}
	require.Equal(t, []string{"sifive,clint0", "riscv,clint0"}, n.CompatibleList())
}

func TestNode_Status(t *testing.T) {
	tests := []struct {
		name   string
		raw    []byte
		absent bool
		want   StatusKind
		reason string
	}{
		{name: "absent defaults to okay", absent: true, want: StatusOkay},
		{name: "okay", raw: []byte("okay\x00"), want: StatusOkay},
		{name: "disabled", raw: []byte("disabled\x00"), want: StatusDisabled},
		{name: "fail", raw: []byte("fail\x00"), want: StatusFail},
		{name: "fail with reason", raw: []byte("fail-sss\x00"), want: StatusFailWithReason, reason: "sss"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := &Node{}
			if !tt.absent {
				n.Properties = []Property{{Name: "status", Value: Value{Kind: classify(tt.raw), raw: tt.raw}}}
			}
			got := n.Status()
			require.Equal(t, tt.want, got.Kind)
			require.Equal(t, tt.reason, got.Reason)
		})
	}
}

func TestNode_InterruptCells(t *testing.T) {
	n := &Node{Properties: []Property{
		{Name: "#interrupt-cells", Value: Value{Kind: KindU32, raw: []byte{0, 0, 0, 1}}},
	}}
	c, ok := n.InterruptCells()
	require.True(t, ok)
	require.Equal(t, uint32(1), c)

	empty := &Node{}
	_, ok = empty.InterruptCells()
	require.False(t, ok)
}
