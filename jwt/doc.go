// Package jwt encodes and verifies compact JWS tokens signed with EdDSA,
// ES256, ES256K or HS256.
//
// Decoding is driven by a caller-owned Policy. The header's alg must be in
// the policy's allow-list before the KeyResolver is consulted, "none" is
// never implemented, and the signature is checked over the token's original
// segments. Time claims are compared with a caller-supplied time; the
// package never reads the clock during verification.
package jwt
