package weierstrass

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"

	"github.com/moatus/cvc/cvcerr"
	"github.com/moatus/cvc/field"
)

// SignatureSize is the length of an ECDSA signature in the fixed r || s
// layout used by JOSE.
const SignatureSize = 2 * field.ByteSize

const maxNonceAttempts = 32

// Sign produces a deterministic ECDSA signature of digest under the private
// scalar d. The nonce follows RFC 6979 with HMAC-SHA256, and s is
// normalized to the lower half of the order.
func (c *Curve) Sign(d field.Element, digest []byte) ([]byte, error) {
	if d.Field() != c.n || d.IsZero() {
		return nil, cvcerr.ErrInvalidPrivateKey.WithDetails("%s signing scalar is out of range", c.name)
	}
	e := c.hashToScalar(digest)

	k, err := c.nonceRFC6979(d, e)
	if err != nil {
		return nil, err
	}
	defer k.Zeroize()

	kInv, err := k.Invert()
	if err != nil {
		return nil, err
	}
	defer kInv.Zeroize()

	rx, err := c.ScalarBaseMult(k).XBytes()
	if err != nil {
		return nil, err
	}
	r, _ := c.n.Reduce(rx)
	if r.IsZero() {
		return nil, cvcerr.ErrInvalidPrivateKey.WithDetails("%s nonce produced r = 0", c.name)
	}

	s := kInv.Mul(e.Add(r.Mul(d)))
	if s.IsZero() {
		return nil, cvcerr.ErrInvalidPrivateKey.WithDetails("%s nonce produced s = 0", c.name)
	}
	if s.IsHigh() {
		s = s.Neg()
	}

	sig := make([]byte, 0, SignatureSize)
	sig = append(sig, r.Bytes()...)
	return append(sig, s.Bytes()...), nil
}

// Verify checks an r || s signature of digest against pub. Both high and low
// s values are accepted.
func (c *Curve) Verify(pub *Point, digest, sig []byte) error {
	if pub == nil || pub.c != c || pub.IsIdentity() || !pub.IsOnCurve() {
		return cvcerr.ErrInvalidPublicKey.WithDetails("%s verification key is not a valid curve point", c.name)
	}
	if len(sig) != SignatureSize {
		return cvcerr.ErrMalformedSignature.WithDetails("%s signature needs %d bytes, got %d", c.name, SignatureSize, len(sig))
	}
	r, err := c.n.SetBytes(sig[:field.ByteSize])
	if err != nil || r.IsZero() {
		return cvcerr.ErrMalformedSignature.WithDetails("%s signature r is out of range", c.name)
	}
	s, err := c.n.SetBytes(sig[field.ByteSize:])
	if err != nil || s.IsZero() {
		return cvcerr.ErrMalformedSignature.WithDetails("%s signature s is out of range", c.name)
	}

	e := c.hashToScalar(digest)
	w, err := s.Invert()
	if err != nil {
		return cvcerr.ErrMalformedSignature.WithCause(err)
	}
	u1 := e.Mul(w)
	u2 := r.Mul(w)

	R := c.ScalarBaseMult(u1).Add(pub.ScalarMult(u2))
	if R.IsIdentity() {
		return cvcerr.ErrSignatureMismatch
	}
	rx, err := R.XBytes()
	if err != nil {
		return cvcerr.ErrSignatureMismatch
	}
	v, _ := c.n.Reduce(rx)
	if !v.Equal(r) {
		return cvcerr.ErrSignatureMismatch
	}
	return nil
}

// nonceRFC6979 derives the per-message nonce from the private scalar and the
// reduced digest (RFC 6979 section 3.2). qlen and hlen are both 256 bits.
func (c *Curve) nonceRFC6979(d, e field.Element) (field.Element, error) {
	x := d.Bytes()
	defer zeroBytes(x)
	h1 := e.Bytes()

	K := make([]byte, sha256.Size)
	V := bytes.Repeat([]byte{0x01}, sha256.Size)
	defer func() {
		zeroBytes(K)
		zeroBytes(V)
	}()

	K = hmacSHA256(K, V, []byte{0x00}, x, h1)
	V = hmacSHA256(K, V)
	K = hmacSHA256(K, V, []byte{0x01}, x, h1)
	V = hmacSHA256(K, V)

	for i := 0; i < maxNonceAttempts; i++ {
		V = hmacSHA256(K, V)
		k, err := c.n.SetBytes(V)
		if err == nil && !k.IsZero() {
			return k, nil
		}
		K = hmacSHA256(K, V, []byte{0x00})
		V = hmacSHA256(K, V)
	}
	return field.Element{}, cvcerr.ErrInvalidPrivateKey.WithDetails("%s RFC 6979 produced no nonce", c.name)
}

func hmacSHA256(key []byte, parts ...[]byte) []byte {
	mac := hmac.New(sha256.New, key)
	for _, p := range parts {
		mac.Write(p)
	}
	return mac.Sum(nil)
}
