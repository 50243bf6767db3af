package cvc

import (
	"context"
	"io"
	"time"

	"github.com/moatus/cvc/curve"
	"github.com/moatus/cvc/cvcerr"
	"github.com/moatus/cvc/jwt"
	"github.com/moatus/cvc/keys"
)

type (
	Curve        = curve.Type
	KeyPair      = keys.KeyPair
	PrivateKey   = keys.PrivateKey
	PublicKey    = keys.PublicKey
	Signature    = keys.Signature
	SharedSecret = keys.SharedSecret

	Algorithm   = jwt.Algorithm
	Header      = jwt.Header
	Claims      = jwt.Claims
	Policy      = jwt.Policy
	KeyResolver = jwt.KeyResolver
)

const (
	Ed25519   = curve.Ed25519
	P256      = curve.P256
	Secp256k1 = curve.Secp256k1
)

// GenerateKeyPair draws a key pair on c from rng, normally crypto/rand.Reader.
func GenerateKeyPair(c Curve, rng io.Reader) (*KeyPair, error) {
	return keys.GenerateKeyPair(c, rng)
}

// ParsePrivateKey imports a raw private key: a 32-byte seed for Ed25519, a
// 32-byte big-endian scalar otherwise.
func ParsePrivateKey(c Curve, b []byte) (*PrivateKey, error) {
	return keys.NewPrivateKey(c, b)
}

// ParsePublicKey decodes and validates a public key.
func ParsePublicKey(c Curve, b []byte) (*PublicKey, error) {
	return keys.ParsePublicKey(c, b)
}

// HashAndSign signs message with k. Ed25519 signs the message itself;
// P-256 and secp256k1 sign its SHA-256 digest.
func HashAndSign(message []byte, k *PrivateKey) (Signature, error) {
	if k == nil {
		return nil, cvcerr.ErrInvalidPrivateKey.WithDetails("private key is missing")
	}
	return k.Sign(message)
}

// Verify checks sig over message with pub.
func Verify(message, sig []byte, pub *PublicKey) error {
	if pub == nil {
		return cvcerr.ErrInvalidPublicKey.WithDetails("public key is missing")
	}
	return pub.Verify(message, sig)
}

// SignSchnorr signs message with k using the deterministic EdDSA-style
// Schnorr scheme. On Ed25519 it is plain EdDSA.
func SignSchnorr(message []byte, k *PrivateKey) (Signature, error) {
	if k == nil {
		return nil, cvcerr.ErrInvalidPrivateKey.WithDetails("private key is missing")
	}
	return k.SignSchnorr(message)
}

// VerifySchnorr checks a SignSchnorr signature over message with pub.
func VerifySchnorr(message, sig []byte, pub *PublicKey) error {
	if pub == nil {
		return cvcerr.ErrInvalidPublicKey.WithDetails("public key is missing")
	}
	return pub.VerifySchnorr(message, sig)
}

// DeriveSharedSecret runs ECDH between k and peer and returns the raw
// shared secret. Pass it through a KDF such as keys.DeriveKey before use.
func DeriveSharedSecret(k *PrivateKey, peer *PublicKey) (SharedSecret, error) {
	if k == nil {
		return nil, cvcerr.ErrInvalidPrivateKey.WithDetails("private key is missing")
	}
	return k.ECDH(peer)
}

// EncodeJWT signs claims into a compact JWS with the algorithm named in
// header.
func EncodeJWT(header Header, claims *Claims, key interface{}) (string, error) {
	return jwt.Encode(header, claims, key)
}

// DecodeJWT verifies token against policy at time now and returns its
// claims. Only algorithms in policy.AllowedAlgorithms are accepted.
func DecodeJWT(ctx context.Context, token string, resolver KeyResolver, policy Policy, now time.Time) (*Claims, error) {
	tok, err := jwt.Decode(ctx, token, policy, resolver, now)
	if err != nil {
		return nil, err
	}
	return tok.Claims, nil
}
