package weierstrass

import (
	"io"
	"sync"

	"github.com/moatus/cvc/cvcerr"
	"github.com/moatus/cvc/field"
)

// maxScalarAttempts bounds rejection sampling. For both supported orders a
// single 32-byte draw is rejected with probability below 2^-32.
const maxScalarAttempts = 64

// Curve holds the parameters of a prime-order short-Weierstrass curve
// y^2 = x^3 + a*x + b over the field p, with a base point of order n.
type Curve struct {
	name string
	p    *field.Field // coordinates
	n    *field.Field // scalars

	a, b, b3 field.Element
	gx, gy   field.Element
}

var (
	p256Once sync.Once
	p256     *Curve

	secp256k1Once sync.Once
	secp256k1     *Curve
)

// P256 returns the NIST P-256 curve (secp256r1).
func P256() *Curve {
	p256Once.Do(func() {
		p256 = newCurve("P-256",
			"ffffffff00000001000000000000000000000000ffffffffffffffffffffffff",
			"ffffffff00000000ffffffffffffffffbce6faada7179e84f3b9cac2fc632551",
			"ffffffff00000001000000000000000000000000fffffffffffffffffffffffc",
			"5ac635d8aa3a93e7b3ebbd55769886bc651d06b0cc53b0f63bce3c3e27d2604b",
			"6b17d1f2e12c4247f8bce6e563a440f277037d812deb33a0f4a13945d898c296",
			"4fe342e2fe1a7f9b8ee7eb4a7c0f9e162bce33576b315ececbb6406837bf51f5",
		)
	})
	return p256
}

// Secp256k1 returns the secp256k1 curve used by the ES256K JOSE algorithm.
func Secp256k1() *Curve {
	secp256k1Once.Do(func() {
		secp256k1 = newCurve("secp256k1",
			"fffffffffffffffffffffffffffffffffffffffffffffffffffffffefffffc2f",
			"fffffffffffffffffffffffffffffffebaaedce6af48a03bbfd25e8cd0364141",
			"0000000000000000000000000000000000000000000000000000000000000000",
			"0000000000000000000000000000000000000000000000000000000000000007",
			"79be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798",
			"483ada7726a3c4655da4fbfc0e1108a8fd17b448a68554199c47d08ffb10d4b8",
		)
	})
	return secp256k1
}

func newCurve(name, pHex, nHex, aHex, bHex, gxHex, gyHex string) *Curve {
	c := &Curve{
		name: name,
		p:    field.MustNew(name+" base field", pHex),
		n:    field.MustNew(name+" scalar field", nHex),
	}
	c.a = mustElement(c.p, aHex)
	c.b = mustElement(c.p, bHex)
	c.b3 = c.b.Add(c.b).Add(c.b)
	c.gx = mustElement(c.p, gxHex)
	c.gy = mustElement(c.p, gyHex)
	return c
}

func mustElement(f *field.Field, h string) field.Element {
	e, err := f.Reduce(mustHex(h))
	if err != nil {
		panic(err)
	}
	return e
}

// Name returns the curve name, e.g. "P-256".
func (c *Curve) Name() string { return c.name }

// BaseField returns the coordinate field.
func (c *Curve) BaseField() *field.Field { return c.p }

// ScalarField returns the field of integers modulo the group order.
func (c *Curve) ScalarField() *field.Field { return c.n }

// Identity returns the point at infinity.
func (c *Curve) Identity() *Point {
	return &Point{c: c, x: c.p.Zero(), y: c.p.One(), z: c.p.Zero()}
}

// Generator returns the standard base point.
func (c *Curve) Generator() *Point {
	return &Point{c: c, x: c.gx, y: c.gy, z: c.p.One()}
}

// ScalarBaseMult returns k*G.
func (c *Curve) ScalarBaseMult(k field.Element) *Point {
	return c.Generator().ScalarMult(k)
}

// ScalarFromBytes decodes a canonical 32-byte big-endian scalar.
func (c *Curve) ScalarFromBytes(b []byte) (field.Element, error) {
	return c.n.SetBytes(b)
}

// RandomScalar samples a uniform scalar in [1, n-1] from rng.
func (c *Curve) RandomScalar(rng io.Reader) (field.Element, error) {
	buf := make([]byte, field.ByteSize)
	defer zeroBytes(buf)

	for i := 0; i < maxScalarAttempts; i++ {
		if _, err := io.ReadFull(rng, buf); err != nil {
			return field.Element{}, cvcerr.ErrInsufficientEntropy.WithCause(err)
		}
		k, err := c.n.SetBytes(buf)
		if err == nil && !k.IsZero() {
			return k, nil
		}
	}
	return field.Element{}, cvcerr.ErrInsufficientEntropy.WithDetails("no scalar below the %s order after %d draws", c.name, maxScalarAttempts)
}

// hashToScalar converts a message digest to a scalar as ECDSA's bits2int
// followed by reduction; both supported orders are 256 bits long.
func (c *Curve) hashToScalar(digest []byte) field.Element {
	if len(digest) > field.ByteSize {
		digest = digest[:field.ByteSize]
	}
	e, _ := c.n.Reduce(digest)
	return e
}

func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
