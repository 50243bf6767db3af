package edwards

import (
	"crypto/sha512"

	"filippo.io/edwards25519"
	"golang.org/x/crypto/curve25519"

	"github.com/moatus/cvc/cvcerr"
)

const (
	// SeedSize is the length of an RFC 8032 private key.
	SeedSize = 32
	// SignatureSize is the length of an R || S signature.
	SignatureSize = 64
)

// SigningKey is an expanded Ed25519 private key: the clamped secret scalar,
// the nonce prefix and the public point, all derived from the seed.
type SigningKey struct {
	seed   [SeedSize]byte
	scalar *edwards25519.Scalar
	prefix [32]byte
	public *Point
}

// NewSigningKey expands a 32-byte seed as in RFC 8032 section 5.1.5.
func NewSigningKey(seed []byte) (*SigningKey, error) {
	if len(seed) != SeedSize {
		return nil, cvcerr.ErrInvalidPrivateKey.WithDetails("ed25519 seed needs %d bytes, got %d", SeedSize, len(seed))
	}
	h := sha512.Sum512(seed)
	defer zeroBytes(h[:])

	s, err := edwards25519.NewScalar().SetBytesWithClamping(h[:32])
	if err != nil {
		return nil, cvcerr.ErrInvalidPrivateKey.WithCause(err)
	}

	k := &SigningKey{scalar: s}
	copy(k.seed[:], seed)
	copy(k.prefix[:], h[32:])
	k.public = newPoint(new(edwards25519.Point).ScalarBaseMult(s))
	return k, nil
}

// Seed returns a copy of the private seed.
func (k *SigningKey) Seed() []byte {
	out := make([]byte, SeedSize)
	copy(out, k.seed[:])
	return out
}

// Public returns the public point A = s*B.
func (k *SigningKey) Public() *Point { return k.public }

// Scalar returns a copy of the clamped secret scalar s, reduced modulo l.
func (k *SigningKey) Scalar() *Scalar {
	return &Scalar{inner: edwards25519.NewScalar().Set(k.scalar)}
}

// Sign produces a deterministic RFC 8032 Ed25519 signature of message.
func (k *SigningKey) Sign(message []byte) []byte {
	mh := sha512.New()
	mh.Write(k.prefix[:])
	mh.Write(message)
	var digest [64]byte
	mh.Sum(digest[:0])
	r, _ := edwards25519.NewScalar().SetUniformBytes(digest[:])
	defer r.Set(edwards25519.NewScalar())
	zeroBytes(digest[:])

	R := new(edwards25519.Point).ScalarBaseMult(r)
	encodedR := R.Bytes()

	c := challenge(encodedR, k.public.Bytes(), message)
	S := edwards25519.NewScalar().MultiplyAdd(c, k.scalar, r)

	sig := make([]byte, 0, SignatureSize)
	sig = append(sig, encodedR...)
	return append(sig, S.Bytes()...)
}

// SharedSecret returns X25519(s, u(peer)): the Montgomery u-coordinate of the
// clamped secret scalar times the peer point. The peer must be a valid
// public key.
func (k *SigningKey) SharedSecret(peer *Point) ([]byte, error) {
	if err := ValidatePublicKey(peer); err != nil {
		return nil, err
	}
	h := sha512.Sum512(k.seed[:])
	defer zeroBytes(h[:])

	out, err := curve25519.X25519(h[:32], peer.BytesMontgomery())
	if err != nil {
		return nil, cvcerr.ErrInvalidPublicKey.WithCause(err)
	}
	return out, nil
}

// Zeroize wipes the seed, scalar and prefix. The key is unusable afterwards.
func (k *SigningKey) Zeroize() {
	zeroBytes(k.seed[:])
	zeroBytes(k.prefix[:])
	if k.scalar != nil {
		k.scalar.Set(edwards25519.NewScalar())
	}
}

// Verify checks an RFC 8032 signature of message under pub. It uses the
// cofactorless equation [S]B = R + [k]A, as crypto/ed25519 does, and
// requires canonical R and S.
func Verify(pub *Point, message, sig []byte) error {
	if err := ValidatePublicKey(pub); err != nil {
		return err
	}
	if len(sig) != SignatureSize {
		return cvcerr.ErrMalformedSignature.WithDetails("ed25519 signature needs %d bytes, got %d", SignatureSize, len(sig))
	}
	R, err := Decode(sig[:32])
	if err != nil {
		return cvcerr.ErrMalformedSignature.WithDetails("ed25519 signature R does not decode").WithCause(err)
	}
	S, err := edwards25519.NewScalar().SetCanonicalBytes(sig[32:])
	if err != nil {
		return cvcerr.ErrMalformedSignature.WithDetails("ed25519 signature S is not reduced").WithCause(err)
	}

	c := challenge(sig[:32], pub.Bytes(), message)
	minusA := new(edwards25519.Point).Negate(pub.inner)
	check := new(edwards25519.Point).VarTimeDoubleScalarBaseMult(c, minusA, S)
	if check.Equal(R.inner) != 1 {
		return cvcerr.ErrSignatureMismatch
	}
	return nil
}

// challenge computes SHA-512(R || A || M) reduced modulo l.
func challenge(R, A, message []byte) *edwards25519.Scalar {
	h := sha512.New()
	h.Write(R)
	h.Write(A)
	h.Write(message)
	var digest [64]byte
	c, _ := edwards25519.NewScalar().SetUniformBytes(h.Sum(digest[:0]))
	return c
}
