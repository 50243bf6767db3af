package edwards

import (
	"bytes"
	"encoding/hex"

	"filippo.io/edwards25519"
	"filippo.io/edwards25519/field"

	"github.com/moatus/cvc/cvcerr"
)

// PointSize is the length of a compressed Ed25519 point.
const PointSize = 32

// d is the twisted-Edwards curve constant -121665/121666.
var d = func() *field.Element {
	num := new(field.Element).Mult32(new(field.Element).One(), 121665)
	den := new(field.Element).Mult32(new(field.Element).One(), 121666)
	num.Negate(num)
	return num.Multiply(num, new(field.Element).Invert(den))
}()

// Point is an Ed25519 group element in extended coordinates. Points are
// immutable: every operation returns a new Point.
type Point struct {
	inner *edwards25519.Point
}

func newPoint(p *edwards25519.Point) *Point {
	return &Point{inner: p}
}

// Identity returns the neutral element (0, 1).
func Identity() *Point {
	return newPoint(edwards25519.NewIdentityPoint())
}

// Generator returns the RFC 8032 base point.
func Generator() *Point {
	return newPoint(edwards25519.NewGeneratorPoint())
}

// Decode parses a 32-byte RFC 8032 point encoding. Unlike the permissive
// decoding used by most Ed25519 verifiers, it rejects unreduced y values and
// x = 0 with the sign bit set: the encoding must be the one Bytes produces.
func Decode(b []byte) (*Point, error) {
	if len(b) != PointSize {
		return nil, cvcerr.ErrInvalidLength.WithDetails("ed25519 point needs %d bytes, got %d", PointSize, len(b))
	}
	p, err := new(edwards25519.Point).SetBytes(b)
	if err != nil {
		return nil, cvcerr.ErrNotOnCurve.WithCause(err)
	}
	if !bytes.Equal(p.Bytes(), b) {
		return nil, cvcerr.ErrNonCanonical.WithDetails("ed25519 point encoding is not canonical")
	}
	return newPoint(p), nil
}

// Bytes returns the canonical 32-byte encoding of p.
func (p *Point) Bytes() []byte {
	return p.inner.Bytes()
}

// BytesMontgomery returns the u-coordinate of the birationally equivalent
// Curve25519 point, as used by X25519.
func (p *Point) BytesMontgomery() []byte {
	return p.inner.BytesMontgomery()
}

func (p *Point) String() string {
	return hex.EncodeToString(p.Bytes())
}

// Add returns p + q.
func (p *Point) Add(q *Point) *Point {
	return newPoint(new(edwards25519.Point).Add(p.inner, q.inner))
}

// Double returns 2p. The extended-coordinate addition law is unified, so
// doubling goes through Add.
func (p *Point) Double() *Point {
	return p.Add(p)
}

// Negate returns -p.
func (p *Point) Negate() *Point {
	return newPoint(new(edwards25519.Point).Negate(p.inner))
}

// ScalarMult returns k*p in constant time.
func (p *Point) ScalarMult(k *Scalar) *Point {
	return newPoint(new(edwards25519.Point).ScalarMult(k.inner, p.inner))
}

// ScalarBaseMult returns k*B in constant time.
func ScalarBaseMult(k *Scalar) *Point {
	return newPoint(new(edwards25519.Point).ScalarBaseMult(k.inner))
}

// Equal reports whether p and q are the same group element.
func (p *Point) Equal(q *Point) bool {
	return p.inner.Equal(q.inner) == 1
}

// IsIdentity reports whether p is the neutral element.
func (p *Point) IsIdentity() bool {
	return p.inner.Equal(edwards25519.NewIdentityPoint()) == 1
}

// IsOnCurve checks the extended-coordinate curve equation
// -X^2 + Y^2 = Z^2 + d*T^2 together with XY = ZT.
func (p *Point) IsOnCurve() bool {
	X, Y, Z, T := p.inner.ExtendedCoordinates()
	if Z.Equal(new(field.Element).Zero()) == 1 {
		return false
	}

	XX := new(field.Element).Square(X)
	YY := new(field.Element).Square(Y)
	ZZ := new(field.Element).Square(Z)
	TT := new(field.Element).Square(T)

	lhs := new(field.Element).Subtract(YY, XX)
	rhs := new(field.Element).Multiply(d, TT)
	rhs.Add(rhs, ZZ)
	if lhs.Equal(rhs) != 1 {
		return false
	}

	lhs.Multiply(X, Y)
	rhs.Multiply(Z, T)
	return lhs.Equal(rhs) == 1
}

// IsSmallOrder reports whether p lies in the torsion subgroup of order 8,
// which includes the identity.
func (p *Point) IsSmallOrder() bool {
	return newPoint(new(edwards25519.Point).MultByCofactor(p.inner)).IsIdentity()
}

// ValidatePublicKey checks that p is usable as a public key: on the curve
// and not of small order.
func ValidatePublicKey(p *Point) error {
	if p == nil || p.inner == nil {
		return cvcerr.ErrInvalidPublicKey.WithDetails("ed25519 key is missing")
	}
	if !p.IsOnCurve() {
		return cvcerr.ErrInvalidPublicKey.WithDetails("ed25519 key is not on the curve")
	}
	if p.IsSmallOrder() {
		return cvcerr.ErrInvalidPublicKey.WithDetails("ed25519 key has small order")
	}
	return nil
}
