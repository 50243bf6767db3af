package weierstrass

import (
	"encoding/hex"

	"github.com/moatus/cvc/cvcerr"
	"github.com/moatus/cvc/field"
)

// Point is a curve point in homogeneous projective coordinates (X:Y:Z),
// representing the affine point (X/Z, Y/Z). The identity is any point with
// Z = 0; the canonical identity is (0:1:0). Points are immutable: every
// operation returns a new Point.
type Point struct {
	c       *Curve
	x, y, z field.Element
}

// Curve returns the curve p lives on.
func (p *Point) Curve() *Curve { return p.c }

func (p *Point) check(q *Point) {
	if p.c != q.c {
		panic("weierstrass: points belong to different curves")
	}
}

// Add returns p + q using the complete addition formula of Renes, Costello
// and Batina (2016, algorithm 1). The formula is valid for all inputs,
// including the identity and p == q, so it has no data-dependent branches.
func (p *Point) Add(q *Point) *Point {
	p.check(q)
	c := p.c

	t0 := p.x.Mul(q.x)
	t1 := p.y.Mul(q.y)
	t2 := p.z.Mul(q.z)
	t3 := p.x.Add(p.y)
	t4 := q.x.Add(q.y)
	t3 = t3.Mul(t4)
	t4 = t0.Add(t1)
	t3 = t3.Sub(t4)
	t4 = p.x.Add(p.z)
	t5 := q.x.Add(q.z)
	t4 = t4.Mul(t5)
	t5 = t0.Add(t2)
	t4 = t4.Sub(t5)
	t5 = p.y.Add(p.z)
	x3 := q.y.Add(q.z)
	t5 = t5.Mul(x3)
	x3 = t1.Add(t2)
	t5 = t5.Sub(x3)
	z3 := c.a.Mul(t4)
	x3 = c.b3.Mul(t2)
	z3 = x3.Add(z3)
	x3 = t1.Sub(z3)
	z3 = t1.Add(z3)
	y3 := x3.Mul(z3)
	t1 = t0.Add(t0)
	t1 = t1.Add(t0)
	t2 = c.a.Mul(t2)
	t4 = c.b3.Mul(t4)
	t1 = t1.Add(t2)
	t2 = t0.Sub(t2)
	t2 = c.a.Mul(t2)
	t4 = t4.Add(t2)
	t0 = t1.Mul(t4)
	y3 = y3.Add(t0)
	t0 = t5.Mul(t4)
	x3 = t3.Mul(x3)
	x3 = x3.Sub(t0)
	t0 = t3.Mul(t1)
	z3 = t5.Mul(z3)
	z3 = z3.Add(t0)

	return &Point{c: c, x: x3, y: y3, z: z3}
}

// Double returns 2p. The complete addition formula covers doubling.
func (p *Point) Double() *Point {
	return p.Add(p)
}

// Negate returns -p.
func (p *Point) Negate() *Point {
	return &Point{c: p.c, x: p.x, y: p.y.Neg(), z: p.z}
}

// ScalarMult returns k*p. It runs a double-and-add-always ladder over all
// 256 scalar bits and picks the sum with a constant-time select, so the
// sequence of field operations does not depend on k.
func (p *Point) ScalarMult(k field.Element) *Point {
	if k.Field() != p.c.n {
		panic("weierstrass: scalar does not belong to the curve order")
	}
	kb := k.Bytes()
	defer zeroBytes(kb)

	r := p.c.Identity()
	for i := 0; i < 8*len(kb); i++ {
		bit := int(kb[i/8]>>(7-uint(i%8))) & 1
		r = r.Double()
		sum := r.Add(p)
		r = selectPoint(bit, sum, r)
	}
	return r
}

func selectPoint(cond int, a, b *Point) *Point {
	return &Point{
		c: a.c,
		x: field.Select(cond, a.x, b.x),
		y: field.Select(cond, a.y, b.y),
		z: field.Select(cond, a.z, b.z),
	}
}

// IsIdentity reports whether p is the point at infinity.
func (p *Point) IsIdentity() bool {
	return p.z.IsZero()
}

// IsOnCurve reports whether p satisfies Y^2*Z = X^3 + a*X*Z^2 + b*Z^3.
// The identity is on the curve.
func (p *Point) IsOnCurve() bool {
	if p.IsIdentity() {
		return p.x.IsZero() && !p.y.IsZero()
	}
	zz := p.z.Square()
	lhs := p.y.Square().Mul(p.z)
	rhs := p.x.Square().Mul(p.x)
	rhs = rhs.Add(p.c.a.Mul(p.x).Mul(zz))
	rhs = rhs.Add(p.c.b.Mul(zz).Mul(p.z))
	return lhs.Equal(rhs)
}

// Equal reports whether p and q are the same point.
func (p *Point) Equal(q *Point) bool {
	p.check(q)
	// (X1:Y1:Z1) == (X2:Y2:Z2) iff X1*Z2 == X2*Z1 and Y1*Z2 == Y2*Z1.
	xEq := p.x.Mul(q.z).Equal(q.x.Mul(p.z))
	yEq := p.y.Mul(q.z).Equal(q.y.Mul(p.z))
	return xEq && yEq
}

// Affine returns the affine coordinates of p.
func (p *Point) Affine() (x, y field.Element, err error) {
	zInv, err := p.z.Invert()
	if err != nil {
		return field.Element{}, field.Element{}, cvcerr.ErrInvalidEncoding.WithDetails("identity has no affine coordinates")
	}
	return p.x.Mul(zInv), p.y.Mul(zInv), nil
}

// XBytes returns the 32-byte big-endian affine x-coordinate of p.
func (p *Point) XBytes() ([]byte, error) {
	x, _, err := p.Affine()
	if err != nil {
		return nil, err
	}
	return x.Bytes(), nil
}

// String returns the compressed SEC1 encoding in hex.
func (p *Point) String() string {
	return hex.EncodeToString(p.BytesCompressed())
}
