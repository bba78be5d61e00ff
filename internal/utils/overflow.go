package utils

import "math"

// AddOverflows reports whether a+b would wrap a uint64. Address
// translation only ever adds an offset to a base address or a size to
// an address, so addition is the one operation that needs guarding
// here.
func AddOverflows(a, b uint64) bool {
	return a > math.MaxUint64-b
}

// CheckedAdd adds a and b, returning AddressOverflow if the sum would
// wrap.
func CheckedAdd(a, b uint64) (uint64, error) {
	if AddOverflows(a, b) {
		return 0, Wrap(AddressOverflow, "address+size overflow", nil)
	}
	return a + b, nil
}
