// Package edwards provides the Ed25519 twisted-Edwards group, RFC 8032
// signatures and X25519-style key agreement on top of
// filippo.io/edwards25519.
//
// Point decoding is strict: only the canonical encoding of a point is
// accepted, and public keys of small order are rejected before they are
// used for verification or key agreement.
package edwards
