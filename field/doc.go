// Package field implements constant-time arithmetic in 256-bit prime fields.
//
// A [Field] is built once from its modulus and precomputes the Montgomery
// constants. [Element] values are always reduced into [0, p) and every
// operation returns a new value.
//
// # Constant time
//
// Limb arithmetic uses math/bits carries and borrows. Conditional
// subtraction and [Select] are mask based, and there are no lookups indexed
// by element values. Exponentiation (used by Invert and Sqrt) branches only
// on the public exponent. Invert reports zero input as an
// [cvcerr.ErrNotInvertible] error, which is the only value-dependent branch.
//
// # Encoding
//
// Elements encode as 32-byte big-endian integers. [Field.SetBytes] is strict
// and rejects values that are not below the modulus; [Field.Reduce] accepts up
// to 64 bytes and reduces them, which is what hash-to-scalar needs.
package field
