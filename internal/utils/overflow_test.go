package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddOverflows(t *testing.T) {
	tests := []struct {
		name     string
		a, b     uint64
		overflow bool
	}{
		{"small values", 10, 20, false},
		{"zero plus max", 0, math.MaxUint64, false},
		{"max plus zero", math.MaxUint64, 0, false},
		{"max plus one", math.MaxUint64, 1, true},
		{"max minus one plus two", math.MaxUint64 - 1, 2, true},
		{"typical mmio region", 0x1000_0000, 0x1000, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.overflow, AddOverflows(tt.a, tt.b))
		})
	}
}

func TestCheckedAdd(t *testing.T) {
	sum, err := CheckedAdd(0x4000_0000, 0x10)
	require.NoError(t, err)
	require.Equal(t, uint64(0x4000_0010), sum)

	_, err = CheckedAdd(math.MaxUint64, 1)
	require.ErrorIs(t, err, AddressOverflow)
}

func BenchmarkCheckedAdd(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _ = CheckedAdd(0x1000, 0x10)
	}
}
