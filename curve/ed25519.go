package curve

import (
	"io"
	"runtime"

	"github.com/moatus/cvc/cvcerr"
	"github.com/moatus/cvc/edwards"
)

// Ed25519Curve implements the Curve interface for Ed25519. Private keys are
// RFC 8032 seeds; the signing scalar is derived from the seed.
type Ed25519Curve struct{}

// NewEd25519Curve creates a new Ed25519 curve instance
func NewEd25519Curve() *Ed25519Curve {
	return &Ed25519Curve{}
}

func (c *Ed25519Curve) Name() string    { return "Ed25519" }
func (c *Ed25519Curve) Type() Type      { return Ed25519 }
func (c *Ed25519Curve) SecretSize() int { return edwards.SeedSize }

// RandomSecret reads a fresh seed from rng.
func (c *Ed25519Curve) RandomSecret(rng io.Reader) ([]byte, error) {
	seed := make([]byte, edwards.SeedSize)
	if _, err := io.ReadFull(rng, seed); err != nil {
		ZeroizeBytes(seed)
		return nil, cvcerr.ErrInsufficientEntropy.WithCause(err)
	}
	return seed, nil
}

// ValidateScalar checks an RFC 8032 seed. Any 32 bytes are a valid seed.
func (c *Ed25519Curve) ValidateScalar(data []byte) error {
	if len(data) != edwards.SeedSize {
		return cvcerr.ErrInvalidPrivateKey.WithDetails("ed25519 seed needs %d bytes, got %d", edwards.SeedSize, len(data))
	}
	return nil
}

// SecretScalar expands a seed to its clamped secret scalar.
func (c *Ed25519Curve) SecretScalar(seed []byte) (Scalar, error) {
	if err := c.ValidateScalar(seed); err != nil {
		return nil, err
	}
	sk, err := edwards.NewSigningKey(seed)
	if err != nil {
		return nil, err
	}
	defer sk.Zeroize()
	return NewEd25519Scalar(sk.Scalar()), nil
}

func (c *Ed25519Curve) ScalarFromBytes(data []byte) (Scalar, error) {
	s, err := edwards.ScalarFromBytes(data)
	if err != nil {
		return nil, err
	}
	return NewEd25519Scalar(s), nil
}

func (c *Ed25519Curve) ScalarRandom(rng io.Reader) (Scalar, error) {
	s, err := edwards.RandomScalar(rng)
	if err != nil {
		return nil, err
	}
	return NewEd25519Scalar(s), nil
}

// PointFromBytes decodes a canonical point encoding. Invalid points cannot
// be constructed.
func (c *Ed25519Curve) PointFromBytes(data []byte) (Point, error) {
	p, err := edwards.Decode(data)
	if err != nil {
		return nil, err
	}
	return &Ed25519Point{inner: p}, nil
}

func (c *Ed25519Curve) BasePoint() Point {
	return &Ed25519Point{inner: edwards.Generator()}
}

func (c *Ed25519Curve) ValidatePublicKey(p Point) error {
	ep, ok := p.(*Ed25519Point)
	if !ok {
		return cvcerr.ErrInvalidPublicKey.WithDetails("key is not an Ed25519 point")
	}
	return edwards.ValidatePublicKey(ep.inner)
}

// Ed25519Scalar implements the Scalar interface
type Ed25519Scalar struct {
	inner *edwards.Scalar
}

// NewEd25519Scalar creates a new Ed25519Scalar with automatic cleanup via finalizer
func NewEd25519Scalar(inner *edwards.Scalar) *Ed25519Scalar {
	s := &Ed25519Scalar{inner: inner}
	runtime.SetFinalizer(s, (*Ed25519Scalar).finalize)
	return s
}

func (s *Ed25519Scalar) finalize() {
	if s.inner != nil {
		s.inner.Zeroize()
	}
}

func (s *Ed25519Scalar) Bytes() []byte {
	return s.inner.Bytes()
}

func (s *Ed25519Scalar) IsZero() bool {
	return s.inner.IsZero()
}

func (s *Ed25519Scalar) Zeroize() {
	s.inner.Zeroize()
	runtime.SetFinalizer(s, nil)
}

// Ed25519Point implements the Point interface
type Ed25519Point struct {
	inner *edwards.Point
}

// Inner returns the underlying group element.
func (p *Ed25519Point) Inner() *edwards.Point { return p.inner }

func (p *Ed25519Point) Bytes() []byte {
	return p.inner.Bytes()
}

func (p *Ed25519Point) CompressedBytes() []byte {
	return p.Bytes() // Ed25519 points are already compressed
}

func (p *Ed25519Point) String() string {
	return p.inner.String()
}

func (p *Ed25519Point) Mul(scalar Scalar) Point {
	return &Ed25519Point{inner: p.inner.ScalarMult(scalar.(*Ed25519Scalar).inner)}
}

func (p *Ed25519Point) Equal(other Point) bool {
	o, ok := other.(*Ed25519Point)
	return ok && p.inner.Equal(o.inner)
}

func (p *Ed25519Point) IsIdentity() bool {
	return p.inner.IsIdentity()
}
