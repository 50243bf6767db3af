package adapters

import (
	"math/big"

	"golang.org/x/crypto/cryptobyte"
	"golang.org/x/crypto/cryptobyte/asn1"

	"github.com/moatus/cvc/cvcerr"
	"github.com/moatus/cvc/field"
	"github.com/moatus/cvc/keys"
)

// SignatureToASN1 converts a 64-byte r||s ECDSA signature to the DER
// encoding used by crypto/ecdsa.VerifyASN1 and X.509.
func SignatureToASN1(sig keys.Signature) ([]byte, error) {
	if len(sig) != keys.SignatureSize {
		return nil, cvcerr.ErrMalformedSignature.WithDetails("signature needs %d bytes, got %d", keys.SignatureSize, len(sig))
	}
	r := new(big.Int).SetBytes(sig[:field.ByteSize])
	s := new(big.Int).SetBytes(sig[field.ByteSize:])

	var b cryptobyte.Builder
	b.AddASN1(asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1BigInt(r)
		b.AddASN1BigInt(s)
	})
	return b.Bytes()
}

// SignatureFromASN1 parses a DER ECDSA signature into r||s form. Range
// checks against the group order happen at verification time.
func SignatureFromASN1(der []byte) (keys.Signature, error) {
	var (
		r, s  = new(big.Int), new(big.Int)
		inner cryptobyte.String
	)
	input := cryptobyte.String(der)
	if !input.ReadASN1(&inner, asn1.SEQUENCE) || !input.Empty() ||
		!inner.ReadASN1Integer(r) || !inner.ReadASN1Integer(s) || !inner.Empty() {
		return nil, cvcerr.ErrMalformedSignature.WithDetails("invalid ASN.1 ECDSA signature")
	}
	if r.Sign() <= 0 || s.Sign() <= 0 || r.BitLen() > 8*field.ByteSize || s.BitLen() > 8*field.ByteSize {
		return nil, cvcerr.ErrMalformedSignature.WithDetails("signature component out of range")
	}

	sig := make(keys.Signature, keys.SignatureSize)
	r.FillBytes(sig[:field.ByteSize])
	s.FillBytes(sig[field.ByteSize:])
	return sig, nil
}
