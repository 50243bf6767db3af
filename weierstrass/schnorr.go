package weierstrass

import (
	"crypto/sha512"

	"github.com/moatus/cvc/cvcerr"
	"github.com/moatus/cvc/field"
)

// SchnorrSignatureSize is the length of an EdDSA-style signature: the
// compressed nonce point R followed by the 32-byte big-endian scalar S.
const SchnorrSignatureSize = CompressedSize + field.ByteSize

const schnorrDomain = "cvc-schnorr-v1"

// SignSchnorr produces a deterministic EdDSA-style signature of message
// under d. With H = SHA-512 reduced modulo n and A = [d]G:
//
//	r = H(prefix || M), R = [r]G, S = r + H(R || A || M)*d
//
// where prefix is derived from d, and points are SEC1 compressed.
func (c *Curve) SignSchnorr(d field.Element, message []byte) ([]byte, error) {
	if d.Field() != c.n || d.IsZero() {
		return nil, cvcerr.ErrInvalidPrivateKey.WithDetails("%s signing scalar is out of range", c.name)
	}
	A := c.ScalarBaseMult(d).BytesCompressed()

	prefix := c.schnorrPrefix(d)
	defer zeroBytes(prefix)
	r := c.hashToScalarWide(prefix, message)
	defer r.Zeroize()
	if r.IsZero() {
		return nil, cvcerr.ErrInvalidPrivateKey.WithDetails("%s Schnorr nonce is zero", c.name)
	}

	R := c.ScalarBaseMult(r).BytesCompressed()
	h := c.hashToScalarWide(R, A, message)
	S := r.Add(h.Mul(d))

	sig := make([]byte, 0, SchnorrSignatureSize)
	sig = append(sig, R...)
	return append(sig, S.Bytes()...), nil
}

// VerifySchnorr checks [S]G = R + [H(R || A || M)]A. R must be a
// compressed point and S must be below n; anything else is
// ErrMalformedSignature.
func (c *Curve) VerifySchnorr(pub *Point, message, sig []byte) error {
	if err := c.ValidatePublicKey(pub); err != nil {
		return err
	}
	if len(sig) != SchnorrSignatureSize {
		return cvcerr.ErrMalformedSignature.WithDetails("%s Schnorr signature needs %d bytes, got %d", c.name, SchnorrSignatureSize, len(sig))
	}
	R, err := c.Decode(sig[:CompressedSize])
	if err != nil {
		return cvcerr.ErrMalformedSignature.WithDetails("%s Schnorr R does not decode", c.name).WithCause(err)
	}
	S, err := c.n.SetBytes(sig[CompressedSize:])
	if err != nil {
		return cvcerr.ErrMalformedSignature.WithDetails("%s Schnorr S is not below the order", c.name).WithCause(err)
	}

	h := c.hashToScalarWide(sig[:CompressedSize], pub.BytesCompressed(), message)
	if !c.ScalarBaseMult(S).Equal(R.Add(pub.ScalarMult(h))) {
		return cvcerr.ErrSignatureMismatch
	}
	return nil
}

// schnorrPrefix derives the 32-byte nonce key from d, playing the role of
// the upper half of the expanded EdDSA secret.
func (c *Curve) schnorrPrefix(d field.Element) []byte {
	x := d.Bytes()
	defer zeroBytes(x)

	h := sha512.New()
	h.Write([]byte(schnorrDomain))
	h.Write([]byte(c.name))
	h.Write(x)
	sum := h.Sum(nil)
	defer zeroBytes(sum)
	return append([]byte(nil), sum[field.ByteSize:]...)
}

// hashToScalarWide reduces SHA-512 of the parts modulo n.
func (c *Curve) hashToScalarWide(parts ...[]byte) field.Element {
	h := sha512.New()
	for _, p := range parts {
		h.Write(p)
	}
	var digest [sha512.Size]byte
	e, _ := c.n.Reduce(h.Sum(digest[:0]))
	zeroBytes(digest[:])
	return e
}
