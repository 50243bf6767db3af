package curve

import (
	"io"

	"github.com/moatus/cvc/cvcerr"
	"github.com/moatus/cvc/field"
	"github.com/moatus/cvc/weierstrass"
)

// WeierstrassCurve implements the Curve interface for the short-Weierstrass
// curves P-256 and secp256k1. Private keys are big-endian scalars in
// [1, n-1].
type WeierstrassCurve struct {
	typ Type
	c   *weierstrass.Curve
}

// NewP256Curve creates a new P-256 curve instance
func NewP256Curve() *WeierstrassCurve {
	return &WeierstrassCurve{typ: P256, c: weierstrass.P256()}
}

// NewSecp256k1Curve creates a new secp256k1 curve instance
func NewSecp256k1Curve() *WeierstrassCurve {
	return &WeierstrassCurve{typ: Secp256k1, c: weierstrass.Secp256k1()}
}

func (c *WeierstrassCurve) Name() string    { return c.c.Name() }
func (c *WeierstrassCurve) Type() Type      { return c.typ }
func (c *WeierstrassCurve) SecretSize() int { return field.ByteSize }

// Group returns the underlying group implementation.
func (c *WeierstrassCurve) Group() *weierstrass.Curve { return c.c }

// RandomSecret samples a private scalar with ScalarRandom and returns its
// encoding.
func (c *WeierstrassCurve) RandomSecret(rng io.Reader) ([]byte, error) {
	s, err := c.ScalarRandom(rng)
	if err != nil {
		return nil, err
	}
	defer s.Zeroize()
	return s.Bytes(), nil
}

// ValidateScalar accepts canonical non-zero private scalars.
func (c *WeierstrassCurve) ValidateScalar(data []byte) error {
	s, err := c.c.ScalarFromBytes(data)
	if err != nil {
		return cvcerr.ErrInvalidPrivateKey.WithDetails("%s private key is not a scalar below the group order", c.typ).WithCause(err)
	}
	defer s.Zeroize()
	if s.IsZero() {
		return cvcerr.ErrInvalidPrivateKey.WithDetails("%s private key is zero", c.typ)
	}
	return nil
}

// SecretScalar validates a private key and returns it as a scalar.
func (c *WeierstrassCurve) SecretScalar(data []byte) (Scalar, error) {
	if err := c.ValidateScalar(data); err != nil {
		return nil, err
	}
	return c.ScalarFromBytes(data)
}

func (c *WeierstrassCurve) ScalarFromBytes(data []byte) (Scalar, error) {
	s, err := c.c.ScalarFromBytes(data)
	if err != nil {
		return nil, err
	}
	return &WeierstrassScalar{inner: s}, nil
}

func (c *WeierstrassCurve) ScalarRandom(rng io.Reader) (Scalar, error) {
	s, err := c.c.RandomScalar(rng)
	if err != nil {
		return nil, err
	}
	return &WeierstrassScalar{inner: s}, nil
}

func (c *WeierstrassCurve) PointFromBytes(data []byte) (Point, error) {
	p, err := c.c.Decode(data)
	if err != nil {
		return nil, err
	}
	return &WeierstrassPoint{inner: p}, nil
}

func (c *WeierstrassCurve) BasePoint() Point {
	return &WeierstrassPoint{inner: c.c.Generator()}
}

func (c *WeierstrassCurve) ValidatePublicKey(p Point) error {
	wp, ok := p.(*WeierstrassPoint)
	if !ok {
		return cvcerr.ErrInvalidPublicKey.WithDetails("key is not a %s point", c.c.Name())
	}
	return c.c.ValidatePublicKey(wp.inner)
}

// WeierstrassScalar implements the Scalar interface
type WeierstrassScalar struct {
	inner field.Element
}

// Element returns the underlying field element.
func (s *WeierstrassScalar) Element() field.Element { return s.inner }

func (s *WeierstrassScalar) Bytes() []byte {
	return s.inner.Bytes()
}

func (s *WeierstrassScalar) IsZero() bool {
	return s.inner.IsZero()
}

func (s *WeierstrassScalar) Zeroize() {
	s.inner.Zeroize()
}

// WeierstrassPoint implements the Point interface
type WeierstrassPoint struct {
	inner *weierstrass.Point
}

// Inner returns the underlying group element.
func (p *WeierstrassPoint) Inner() *weierstrass.Point { return p.inner }

func (p *WeierstrassPoint) Bytes() []byte {
	return p.inner.Bytes()
}

func (p *WeierstrassPoint) CompressedBytes() []byte {
	return p.inner.BytesCompressed()
}

func (p *WeierstrassPoint) String() string {
	return p.inner.String()
}

func (p *WeierstrassPoint) Mul(scalar Scalar) Point {
	return &WeierstrassPoint{inner: p.inner.ScalarMult(scalar.(*WeierstrassScalar).inner)}
}

func (p *WeierstrassPoint) Equal(other Point) bool {
	o, ok := other.(*WeierstrassPoint)
	return ok && p.inner.Curve() == o.inner.Curve() && p.inner.Equal(o.inner)
}

func (p *WeierstrassPoint) IsIdentity() bool {
	return p.inner.IsIdentity()
}
