package adapters

import (
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/sha512"
	"math/big"

	"github.com/moatus/cvc/curve"
	"github.com/moatus/cvc/cvcerr"
	"github.com/moatus/cvc/field"
	"github.com/moatus/cvc/keys"
)

func requireCurve(have, want curve.Type) error {
	if have != want {
		return cvcerr.ErrKeyMismatch.WithDetails("need a %s key, got %s", want, have)
	}
	return nil
}

// Ed25519PrivateKey exports k as a crypto/ed25519 key.
func Ed25519PrivateKey(k *keys.PrivateKey) (ed25519.PrivateKey, error) {
	if err := requireCurve(k.Type(), curve.Ed25519); err != nil {
		return nil, err
	}
	seed, err := k.Bytes()
	if err != nil {
		return nil, err
	}
	defer curve.ZeroizeBytes(seed)
	return ed25519.NewKeyFromSeed(seed), nil
}

// FromEd25519PrivateKey imports a crypto/ed25519 key by its seed.
func FromEd25519PrivateKey(priv ed25519.PrivateKey) (*keys.PrivateKey, error) {
	if len(priv) != ed25519.PrivateKeySize {
		return nil, cvcerr.ErrInvalidPrivateKey.WithDetails("ed25519 private key needs %d bytes, got %d", ed25519.PrivateKeySize, len(priv))
	}
	return keys.NewPrivateKey(curve.Ed25519, priv.Seed())
}

// Ed25519PublicKey exports p as a crypto/ed25519 key.
func Ed25519PublicKey(p *keys.PublicKey) (ed25519.PublicKey, error) {
	if err := requireCurve(p.Type(), curve.Ed25519); err != nil {
		return nil, err
	}
	return ed25519.PublicKey(p.Bytes()), nil
}

// FromEd25519PublicKey imports and validates a crypto/ed25519 key.
func FromEd25519PublicKey(pub ed25519.PublicKey) (*keys.PublicKey, error) {
	return keys.ParsePublicKey(curve.Ed25519, pub)
}

// ECDSAPublicKey exports a P-256 key as a crypto/ecdsa key.
func ECDSAPublicKey(p *keys.PublicKey) (*ecdsa.PublicKey, error) {
	if err := requireCurve(p.Type(), curve.P256); err != nil {
		return nil, err
	}
	raw := p.Bytes()
	return &ecdsa.PublicKey{
		Curve: elliptic.P256(),
		X:     new(big.Int).SetBytes(raw[1 : 1+field.ByteSize]),
		Y:     new(big.Int).SetBytes(raw[1+field.ByteSize:]),
	}, nil
}

// ECDSAPrivateKey exports a P-256 key as a crypto/ecdsa key.
func ECDSAPrivateKey(k *keys.PrivateKey) (*ecdsa.PrivateKey, error) {
	pub, err := ECDSAPublicKey(k.Public())
	if err != nil {
		return nil, err
	}
	d, err := k.Bytes()
	if err != nil {
		return nil, err
	}
	defer curve.ZeroizeBytes(d)
	return &ecdsa.PrivateKey{PublicKey: *pub, D: new(big.Int).SetBytes(d)}, nil
}

// FromECDSAPublicKey imports and validates a P-256 crypto/ecdsa key.
func FromECDSAPublicKey(pub *ecdsa.PublicKey) (*keys.PublicKey, error) {
	if pub == nil || pub.Curve != elliptic.P256() {
		return nil, cvcerr.ErrUnsupportedCurve.WithDetails("only P-256 ECDSA keys are supported")
	}
	if pub.X == nil || pub.Y == nil || pub.X.Sign() < 0 || pub.Y.Sign() < 0 ||
		pub.X.BitLen() > 8*field.ByteSize || pub.Y.BitLen() > 8*field.ByteSize {
		return nil, cvcerr.ErrInvalidPublicKey.WithDetails("coordinates out of range")
	}
	raw := make([]byte, 1+2*field.ByteSize)
	raw[0] = 0x04
	pub.X.FillBytes(raw[1 : 1+field.ByteSize])
	pub.Y.FillBytes(raw[1+field.ByteSize:])
	return keys.ParsePublicKey(curve.P256, raw)
}

// FromECDSAPrivateKey imports a P-256 crypto/ecdsa key.
func FromECDSAPrivateKey(priv *ecdsa.PrivateKey) (*keys.PrivateKey, error) {
	if priv == nil || priv.Curve != elliptic.P256() {
		return nil, cvcerr.ErrUnsupportedCurve.WithDetails("only P-256 ECDSA keys are supported")
	}
	if priv.D == nil || priv.D.Sign() <= 0 || priv.D.BitLen() > 8*field.ByteSize {
		return nil, cvcerr.ErrInvalidPrivateKey.WithDetails("scalar out of range")
	}
	d := make([]byte, field.ByteSize)
	defer curve.ZeroizeBytes(d)
	priv.D.FillBytes(d)
	return keys.NewPrivateKey(curve.P256, d)
}

// ECDHPublicKey exports p for crypto/ecdh. Ed25519 keys map to X25519 by
// their Montgomery u-coordinate. secp256k1 has no crypto/ecdh curve.
func ECDHPublicKey(p *keys.PublicKey) (*ecdh.PublicKey, error) {
	switch pt := p.Point().(type) {
	case *curve.Ed25519Point:
		return ecdh.X25519().NewPublicKey(pt.Inner().BytesMontgomery())
	default:
		if err := requireCurve(p.Type(), curve.P256); err != nil {
			return nil, err
		}
		return ecdh.P256().NewPublicKey(p.Bytes())
	}
}

// ECDHPrivateKey exports k for crypto/ecdh. An Ed25519 key becomes the
// X25519 key that keys.PrivateKey.ECDH uses, so both sides agree on the
// shared secret.
func ECDHPrivateKey(k *keys.PrivateKey) (*ecdh.PrivateKey, error) {
	raw, err := k.Bytes()
	if err != nil {
		return nil, err
	}
	defer curve.ZeroizeBytes(raw)

	switch k.Type() {
	case curve.Ed25519:
		h := sha512.Sum512(raw)
		defer curve.ZeroizeBytes(h[:])
		return ecdh.X25519().NewPrivateKey(h[:32])
	case curve.P256:
		return ecdh.P256().NewPrivateKey(raw)
	default:
		return nil, cvcerr.ErrUnsupportedCurve.WithDetails("crypto/ecdh has no %s", k.Type())
	}
}
