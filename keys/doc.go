// Package keys provides curve-independent key pairs, signatures and raw key
// agreement over Ed25519, P-256 and secp256k1.
//
// Private keys are created from a caller-supplied random source or imported
// from bytes, never logged and wiped by Zeroize (with a finalizer as a
// backup). Public keys are validated when they are constructed, so a
// *PublicKey is always a usable point.
package keys
