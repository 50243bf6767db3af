package keys

import (
	"crypto/sha256"

	"github.com/moatus/cvc/curve"
	"github.com/moatus/cvc/cvcerr"
	"github.com/moatus/cvc/edwards"
	"github.com/moatus/cvc/weierstrass"
)

// SchnorrSignatureSize is the length of a Schnorr signature from a P-256 or
// secp256k1 key: compressed R followed by S. Ed25519 Schnorr signatures are
// plain EdDSA and SignatureSize long.
const SchnorrSignatureSize = weierstrass.SchnorrSignatureSize

// Sign signs message. Ed25519 keys produce deterministic RFC 8032 EdDSA
// signatures over the raw message. P-256 and secp256k1 keys hash the message
// with SHA-256 and produce RFC 6979 deterministic, low-S ECDSA signatures.
func (k *PrivateKey) Sign(message []byte) (Signature, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if k.destroyed {
		return nil, cvcerr.ErrKeyDestroyed
	}

	if k.ed != nil {
		return Signature(k.ed.Sign(message)), nil
	}
	g, d, ok := k.group()
	if !ok {
		return nil, cvcerr.ErrUnsupportedCurve.WithDetails("no signer for %s", k.typ)
	}
	digest := sha256.Sum256(message)
	sig, err := g.Sign(d, digest[:])
	if err != nil {
		return nil, err
	}
	return Signature(sig), nil
}

// SignSchnorr produces a deterministic EdDSA-style Schnorr signature over
// the raw message. On P-256 and secp256k1 the nonce and challenge are
// SHA-512 based as in Ed25519; Ed25519 keys return the EdDSA signature.
func (k *PrivateKey) SignSchnorr(message []byte) (Signature, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if k.destroyed {
		return nil, cvcerr.ErrKeyDestroyed
	}

	if k.ed != nil {
		return Signature(k.ed.Sign(message)), nil
	}
	g, d, ok := k.group()
	if !ok {
		return nil, cvcerr.ErrUnsupportedCurve.WithDetails("no Schnorr signer for %s", k.typ)
	}
	sig, err := g.SignSchnorr(d, message)
	if err != nil {
		return nil, err
	}
	return Signature(sig), nil
}

// Verify checks sig over message. It returns nil on success,
// ErrMalformedSignature when the signature cannot be a valid signature for
// this curve and ErrSignatureMismatch when it is well formed but wrong.
func (p *PublicKey) Verify(message []byte, sig []byte) error {
	if len(sig) != SignatureSize {
		return cvcerr.ErrMalformedSignature.WithDetails("%s signature needs %d bytes, got %d", p.typ, SignatureSize, len(sig))
	}

	switch pt := p.point.(type) {
	case *curve.Ed25519Point:
		return edwards.Verify(pt.Inner(), message, sig)
	case *curve.WeierstrassPoint:
		digest := sha256.Sum256(message)
		return pt.Inner().Curve().Verify(pt.Inner(), digest[:], sig)
	default:
		return cvcerr.ErrInvalidPublicKey.WithDetails("unsupported public key type %T", p.point)
	}
}

// VerifySchnorr checks a signature from SignSchnorr with the same error
// split as Verify.
func (p *PublicKey) VerifySchnorr(message []byte, sig []byte) error {
	switch pt := p.point.(type) {
	case *curve.Ed25519Point:
		return edwards.Verify(pt.Inner(), message, sig)
	case *curve.WeierstrassPoint:
		return pt.Inner().Curve().VerifySchnorr(pt.Inner(), message, sig)
	default:
		return cvcerr.ErrInvalidPublicKey.WithDetails("unsupported public key type %T", p.point)
	}
}
