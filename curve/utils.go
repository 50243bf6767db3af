package curve

import (
	"crypto/subtle"
)

// SecureCompare performs constant-time comparison of byte slices
func SecureCompare(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}

// ZeroizeBytes securely clears a byte slice
func ZeroizeBytes(data []byte) {
	for i := range data {
		data[i] = 0
	}
}
