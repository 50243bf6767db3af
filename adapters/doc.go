// Package adapters converts keys and signatures between this module and
// other Go crypto stacks: the standard library (crypto/ed25519,
// crypto/ecdsa, crypto/ecdh), btcec/v2 and Ethereum-style addresses.
//
// Every conversion into this module goes through the validating
// constructors in package keys.
package adapters
