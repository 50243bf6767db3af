package adapters

import (
	"github.com/btcsuite/btcd/btcec/v2"
	btcecdsa "github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"

	"github.com/moatus/cvc/curve"
	"github.com/moatus/cvc/cvcerr"
	"github.com/moatus/cvc/field"
	"github.com/moatus/cvc/keys"
)

// BtcecPrivateKey exports a secp256k1 key for btcec/v2.
func BtcecPrivateKey(k *keys.PrivateKey) (*btcec.PrivateKey, error) {
	if err := requireCurve(k.Type(), curve.Secp256k1); err != nil {
		return nil, err
	}
	d, err := k.Bytes()
	if err != nil {
		return nil, err
	}
	defer curve.ZeroizeBytes(d)
	priv, _ := btcec.PrivKeyFromBytes(d)
	return priv, nil
}

// FromBtcecPrivateKey imports a btcec/v2 private key.
func FromBtcecPrivateKey(priv *btcec.PrivateKey) (*keys.PrivateKey, error) {
	if priv == nil {
		return nil, cvcerr.ErrInvalidPrivateKey.WithDetails("private key is missing")
	}
	d := priv.Serialize()
	defer curve.ZeroizeBytes(d)
	return keys.NewPrivateKey(curve.Secp256k1, d)
}

// BtcecPublicKey exports a secp256k1 key for btcec/v2.
func BtcecPublicKey(p *keys.PublicKey) (*btcec.PublicKey, error) {
	if err := requireCurve(p.Type(), curve.Secp256k1); err != nil {
		return nil, err
	}
	return btcec.ParsePubKey(p.Bytes())
}

// FromBtcecPublicKey imports and validates a btcec/v2 public key.
func FromBtcecPublicKey(pub *btcec.PublicKey) (*keys.PublicKey, error) {
	if pub == nil {
		return nil, cvcerr.ErrInvalidPublicKey.WithDetails("public key is missing")
	}
	return keys.ParsePublicKey(curve.Secp256k1, pub.SerializeUncompressed())
}

// XOnlyPublicKey returns the 32-byte BIP 340 encoding of a secp256k1 key.
// The y parity is dropped, so the key is interpreted with even y.
func XOnlyPublicKey(p *keys.PublicKey) ([]byte, error) {
	pub, err := BtcecPublicKey(p)
	if err != nil {
		return nil, err
	}
	return schnorr.SerializePubKey(pub), nil
}

// HasEvenY reports whether a secp256k1 key is its own BIP 340 x-only
// interpretation.
func HasEvenY(p *keys.PublicKey) bool {
	return p.Type() == curve.Secp256k1 && p.CompressedBytes()[0] == 0x02
}

// BtcecSignature converts an r||s ES256K signature to a btcec/v2 ECDSA
// signature.
func BtcecSignature(sig keys.Signature) (*btcecdsa.Signature, error) {
	if len(sig) != keys.SignatureSize {
		return nil, cvcerr.ErrMalformedSignature.WithDetails("signature needs %d bytes, got %d", keys.SignatureSize, len(sig))
	}
	var r, s btcec.ModNScalar
	if overflow := r.SetByteSlice(sig[:field.ByteSize]); overflow || r.IsZero() {
		return nil, cvcerr.ErrMalformedSignature.WithDetails("r out of range")
	}
	if overflow := s.SetByteSlice(sig[field.ByteSize:]); overflow || s.IsZero() {
		return nil, cvcerr.ErrMalformedSignature.WithDetails("s out of range")
	}
	return btcecdsa.NewSignature(&r, &s), nil
}

// SignBtcec signs a 32-byte digest with btcec/v2 and returns an r||s
// signature that keys.PublicKey.Verify accepts for the message the digest
// was computed over.
func SignBtcec(priv *btcec.PrivateKey, digest []byte) (keys.Signature, error) {
	if priv == nil {
		return nil, cvcerr.ErrInvalidPrivateKey.WithDetails("private key is missing")
	}
	if len(digest) != 32 {
		return nil, cvcerr.ErrInvalidLength.WithDetails("digest needs 32 bytes, got %d", len(digest))
	}
	compact := btcecdsa.SignCompact(priv, digest, true)
	// compact is recovery byte || r || s
	return keys.Signature(compact[1:]), nil
}
