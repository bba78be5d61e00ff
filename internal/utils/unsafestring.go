package utils

import "unsafe"

// unsafeString borrows b as a string without copying. The caller must
// guarantee b is not mutated afterward — true here because every
// borrowed slice comes from the caller-owned, immutable input buffer.
func unsafeString(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(&b[0], len(b))
}
