// Package weierstrass implements prime-order short-Weierstrass curves with
// 256-bit fields: NIST P-256 and secp256k1.
//
// Points use homogeneous projective coordinates and the complete addition
// formula of Renes, Costello and Batina, so the identity and doubling are
// handled by the same branch-free code path. Scalar multiplication is a
// double-and-add-always ladder with constant-time selection.
//
// Encodings follow SEC1: 65-byte uncompressed, 33-byte compressed and the
// one-byte identity. Decode is strict: coordinates must be below the field
// prime and the curve equation is checked before a point is returned.
//
// The package also provides ECDSA with RFC 6979 nonces and raw ECDH, which
// the keys package exposes behind its curve-independent API.
package weierstrass
