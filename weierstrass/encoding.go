package weierstrass

import (
	"encoding/hex"

	"github.com/moatus/cvc/cvcerr"
	"github.com/moatus/cvc/field"
)

// SEC1 encoding prefixes.
const (
	prefixIdentity       = 0x00
	prefixCompressedEven = 0x02
	prefixCompressedOdd  = 0x03
	prefixUncompressed   = 0x04
)

// Encoded sizes for 256-bit curves.
const (
	UncompressedSize = 1 + 2*field.ByteSize
	CompressedSize   = 1 + field.ByteSize
)

// Bytes returns the SEC1 uncompressed encoding 0x04 || X || Y, or the single
// byte 0x00 for the identity.
func (p *Point) Bytes() []byte {
	x, y, err := p.Affine()
	if err != nil {
		return []byte{prefixIdentity}
	}
	out := make([]byte, 0, UncompressedSize)
	out = append(out, prefixUncompressed)
	out = append(out, x.Bytes()...)
	return append(out, y.Bytes()...)
}

// BytesCompressed returns the SEC1 compressed encoding 0x02/0x03 || X, or
// the single byte 0x00 for the identity.
func (p *Point) BytesCompressed() []byte {
	x, y, err := p.Affine()
	if err != nil {
		return []byte{prefixIdentity}
	}
	prefix := byte(prefixCompressedEven)
	if y.IsOdd() {
		prefix = prefixCompressedOdd
	}
	out := make([]byte, 0, CompressedSize)
	out = append(out, prefix)
	return append(out, x.Bytes()...)
}

// Decode parses a SEC1 point encoding. It accepts the uncompressed and
// compressed forms and the one-byte identity, rejects hybrid encodings,
// coordinates that are not below p and points that are not on the curve.
func (c *Curve) Decode(b []byte) (*Point, error) {
	if len(b) == 0 {
		return nil, cvcerr.ErrInvalidLength.WithDetails("empty %s point encoding", c.name)
	}

	switch {
	case len(b) == 1 && b[0] == prefixIdentity:
		return c.Identity(), nil

	case len(b) == UncompressedSize && b[0] == prefixUncompressed:
		x, err := c.p.SetBytes(b[1 : 1+field.ByteSize])
		if err != nil {
			return nil, err
		}
		y, err := c.p.SetBytes(b[1+field.ByteSize:])
		if err != nil {
			return nil, err
		}
		p := &Point{c: c, x: x, y: y, z: c.p.One()}
		if !p.IsOnCurve() {
			return nil, cvcerr.ErrNotOnCurve.WithDetails("%s point fails the curve equation", c.name)
		}
		return p, nil

	case len(b) == CompressedSize && (b[0] == prefixCompressedEven || b[0] == prefixCompressedOdd):
		x, err := c.p.SetBytes(b[1:])
		if err != nil {
			return nil, err
		}
		y, err := c.rhs(x).Sqrt()
		if err != nil {
			return nil, cvcerr.ErrNotOnCurve.WithDetails("%s x-coordinate has no matching y", c.name).WithCause(err)
		}
		if y.IsOdd() != (b[0] == prefixCompressedOdd) {
			y = y.Neg()
		}
		return &Point{c: c, x: x, y: y, z: c.p.One()}, nil

	case len(b) != 1 && len(b) != UncompressedSize && len(b) != CompressedSize:
		return nil, cvcerr.ErrInvalidLength.WithDetails("%s point encoding has %d bytes", c.name, len(b))

	default:
		return nil, cvcerr.ErrInvalidEncoding.WithDetails("%s point prefix 0x%02x is not allowed", c.name, b[0])
	}
}

// rhs returns x^3 + a*x + b.
func (c *Curve) rhs(x field.Element) field.Element {
	return x.Square().Mul(x).Add(c.a.Mul(x)).Add(c.b)
}

func mustHex(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(err)
	}
	return b
}
