package edwards

import (
	"io"

	"filippo.io/edwards25519"

	"github.com/moatus/cvc/cvcerr"
)

// ScalarSize is the length of a canonical little-endian scalar.
const ScalarSize = 32

// Scalar is an integer modulo the prime subgroup order
// l = 2^252 + 27742317777372353535851937790883648493.
type Scalar struct {
	inner *edwards25519.Scalar
}

// NewScalar returns the zero scalar.
func NewScalar() *Scalar {
	return &Scalar{inner: edwards25519.NewScalar()}
}

// ScalarFromUint64 returns x as a scalar.
func ScalarFromUint64(x uint64) *Scalar {
	var b [ScalarSize]byte
	for i := 0; i < 8; i++ {
		b[i] = byte(x >> (8 * i))
	}
	s, _ := edwards25519.NewScalar().SetCanonicalBytes(b[:])
	return &Scalar{inner: s}
}

// ScalarFromBytes decodes a canonical 32-byte little-endian scalar.
func ScalarFromBytes(b []byte) (*Scalar, error) {
	if len(b) != ScalarSize {
		return nil, cvcerr.ErrInvalidLength.WithDetails("ed25519 scalar needs %d bytes, got %d", ScalarSize, len(b))
	}
	s, err := edwards25519.NewScalar().SetCanonicalBytes(b)
	if err != nil {
		return nil, cvcerr.ErrNonCanonical.WithCause(err)
	}
	return &Scalar{inner: s}, nil
}

// ScalarFromUniformBytes reduces a 64-byte string modulo l.
func ScalarFromUniformBytes(b []byte) (*Scalar, error) {
	s, err := edwards25519.NewScalar().SetUniformBytes(b)
	if err != nil {
		return nil, cvcerr.ErrInvalidLength.WithCause(err)
	}
	return &Scalar{inner: s}, nil
}

// RandomScalar samples a uniform non-zero scalar from 64 bytes of rng.
func RandomScalar(rng io.Reader) (*Scalar, error) {
	var buf [64]byte
	defer zeroBytes(buf[:])

	if _, err := io.ReadFull(rng, buf[:]); err != nil {
		return nil, cvcerr.ErrInsufficientEntropy.WithCause(err)
	}
	s, err := ScalarFromUniformBytes(buf[:])
	if err != nil {
		return nil, err
	}
	if s.IsZero() {
		return nil, cvcerr.ErrInsufficientEntropy.WithDetails("ed25519 scalar sample reduced to zero")
	}
	return s, nil
}

func (s *Scalar) Bytes() []byte { return s.inner.Bytes() }

func (s *Scalar) Add(t *Scalar) *Scalar {
	return &Scalar{inner: edwards25519.NewScalar().Add(s.inner, t.inner)}
}

func (s *Scalar) Sub(t *Scalar) *Scalar {
	return &Scalar{inner: edwards25519.NewScalar().Subtract(s.inner, t.inner)}
}

func (s *Scalar) Mul(t *Scalar) *Scalar {
	return &Scalar{inner: edwards25519.NewScalar().Multiply(s.inner, t.inner)}
}

func (s *Scalar) Negate() *Scalar {
	return &Scalar{inner: edwards25519.NewScalar().Negate(s.inner)}
}

// Invert returns 1/s, or ErrNotInvertible for zero.
func (s *Scalar) Invert() (*Scalar, error) {
	if s.IsZero() {
		return nil, cvcerr.ErrNotInvertible.WithDetails("ed25519 scalar is zero")
	}
	return &Scalar{inner: edwards25519.NewScalar().Invert(s.inner)}, nil
}

func (s *Scalar) Equal(t *Scalar) bool {
	return s.inner.Equal(t.inner) == 1
}

func (s *Scalar) IsZero() bool {
	return s.inner.Equal(edwards25519.NewScalar()) == 1
}

// Zeroize overwrites the scalar with zero.
func (s *Scalar) Zeroize() {
	if s.inner != nil {
		s.inner.Set(edwards25519.NewScalar())
	}
}

func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
