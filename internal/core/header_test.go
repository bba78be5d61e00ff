package core

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scigolib/fdt/internal/fdttest"
	"github.com/scigolib/fdt/internal/utils"
)

func TestParseHeader_MinimalValid(t *testing.T) {
	buf := fdttest.MinimalRoot()
	h, err := ParseHeader(buf)
	require.NoError(t, err)
	require.Equal(t, Magic, h.Magic)
	require.Equal(t, uint32(len(buf)), h.TotalSize)
	require.LessOrEqual(t, h.LastCompVersion, h.Version)
}

func TestParseHeader_BadMagic(t *testing.T) {
	buf := fdttest.BadMagic()
	_, err := ParseHeader(buf)
	require.ErrorIs(t, err, utils.InvalidMagic)
}

func TestParseHeader_TruncatedBuffer(t *testing.T) {
	_, err := ParseHeader(make([]byte, 10))
	require.ErrorIs(t, err, utils.TruncatedBuffer)
}

func TestParseHeader_TotalSizeExceedsBuffer(t *testing.T) {
	buf := fdttest.MinimalRoot()
	// Claim a totalsize far larger than the actual buffer.
	buf[4], buf[5], buf[6], buf[7] = 0x7F, 0xFF, 0xFF, 0xFF
	_, err := ParseHeader(buf)
	require.ErrorIs(t, err, utils.TruncatedBuffer)
}

func TestParseHeader_StructOffsetMisaligned(t *testing.T) {
	buf := fdttest.MinimalRoot()
	// off_dt_struct lives at byte offset 8; bump it by one to break
	// 4-byte alignment while keeping it in-bounds.
	structOff := uint32(buf[8])<<24 | uint32(buf[9])<<16 | uint32(buf[10])<<8 | uint32(buf[11])
	misaligned := structOff + 1
	buf[8], buf[9], buf[10], buf[11] = byte(misaligned>>24), byte(misaligned>>16), byte(misaligned>>8), byte(misaligned)
	_, err := ParseHeader(buf)
	require.ErrorIs(t, err, utils.InvalidHeader)
}

func TestParseHeader_LastCompVersionExceedsVersion(t *testing.T) {
	buf := fdttest.MinimalRoot()
	// version and last_comp_version occupy bytes 20-23 / 24-27.
	buf[27] = 99 // last_comp_version = 99, version stays at 17.
	_, err := ParseHeader(buf)
	require.ErrorIs(t, err, utils.InvalidHeader)
}

func BenchmarkParseHeader(b *testing.B) {
	buf := fdttest.MinimalRoot()
	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _ = ParseHeader(buf)
	}
}
