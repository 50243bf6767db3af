// Package cvc is the public entry point of an elliptic-curve signing, key
// agreement and JWT library over Ed25519, P-256 and secp256k1.
//
// Every byte slice and token passed to this package is treated as untrusted.
// Keys, points and signatures are decoded by validating constructors before
// any secret-dependent work starts, and every failure comes back as a
// *cvcerr.Error that can be matched with errors.Is against the values
// re-exported here.
//
// The package is a thin layer over keys and jwt; use those directly for
// JWKs, key sets, audit handlers and the lower-level curve packages.
package cvc
