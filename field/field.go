package field

import (
	"encoding/binary"
	"math/big"
	"math/bits"

	"github.com/moatus/cvc/cvcerr"
)

// ByteSize is the length of the canonical big-endian encoding of an element.
const ByteSize = 32

// Field holds the precomputed Montgomery constants of a 256-bit prime field.
// A Field is immutable after New returns and safe for concurrent use.
type Field struct {
	name    string
	modulus *big.Int

	p       [4]uint64 // little-endian limbs of the modulus
	inv     uint64    // -p^-1 mod 2^64
	one     [4]uint64 // R mod p
	rr      [4]uint64 // R^2 mod p
	rrr     [4]uint64 // R^3 mod p
	pm2     [4]uint64 // p - 2, exponent for inversion
	half    [4]uint64 // (p - 1) / 2
	sqrtExp [4]uint64 // (p + 1) / 4
	hasSqrt bool
}

// New builds a field for the odd prime given in hex. The modulus must be
// exactly 256 bits long so that every 256-bit value is below 2p.
func New(name, modulusHex string) (*Field, error) {
	p, ok := new(big.Int).SetString(modulusHex, 16)
	if !ok {
		return nil, cvcerr.ErrInvalidConfiguration.WithDetails("field %s: modulus is not hex", name)
	}
	if p.BitLen() != 256 || p.Bit(0) == 0 {
		return nil, cvcerr.ErrInvalidConfiguration.WithDetails("field %s: modulus must be an odd 256-bit integer", name)
	}

	one := big.NewInt(1)
	r := new(big.Int).Lsh(one, 256)
	word := new(big.Int).Lsh(one, 64)

	f := &Field{name: name, modulus: p}
	f.p = limbsOf(p)
	f.one = limbsOf(new(big.Int).Mod(r, p))
	f.rr = limbsOf(new(big.Int).Exp(r, big.NewInt(2), p))
	f.rrr = limbsOf(new(big.Int).Exp(r, big.NewInt(3), p))
	f.pm2 = limbsOf(new(big.Int).Sub(p, big.NewInt(2)))
	f.half = limbsOf(new(big.Int).Rsh(p, 1))

	inv := new(big.Int).ModInverse(p, word)
	f.inv = new(big.Int).Sub(word, inv).Uint64()

	if p.Bit(1) == 1 {
		e := new(big.Int).Add(p, one)
		f.sqrtExp = limbsOf(e.Rsh(e, 2))
		f.hasSqrt = true
	}
	return f, nil
}

// MustNew is like New but panics on invalid parameters. It is meant for
// package-level curve constants.
func MustNew(name, modulusHex string) *Field {
	f, err := New(name, modulusHex)
	if err != nil {
		panic(err)
	}
	return f
}

// Name returns the field's descriptive name.
func (f *Field) Name() string { return f.name }

// Modulus returns a copy of the field prime.
func (f *Field) Modulus() *big.Int { return new(big.Int).Set(f.modulus) }

// Zero returns the additive identity.
func (f *Field) Zero() Element { return Element{f: f} }

// One returns the multiplicative identity.
func (f *Field) One() Element { return Element{f: f, v: f.one} }

// FromUint64 returns x mod p.
func (f *Field) FromUint64(x uint64) Element {
	raw := [4]uint64{x, 0, 0, 0}
	return Element{f: f, v: f.montMul(&raw, &f.rr)}
}

// SetBytes decodes a 32-byte big-endian value. Values that are not fully
// reduced are rejected rather than silently reduced.
func (f *Field) SetBytes(b []byte) (Element, error) {
	if len(b) != ByteSize {
		return Element{}, cvcerr.ErrInvalidLength.WithDetails("%s element needs %d bytes, got %d", f.name, ByteSize, len(b))
	}
	raw := limbsFromBytes(b)
	_, borrow := sub256(&raw, &f.p)
	if borrow == 0 {
		return Element{}, cvcerr.ErrNonCanonical.WithDetails("%s element is not below the modulus", f.name)
	}
	return Element{f: f, v: f.montMul(&raw, &f.rr)}, nil
}

// Reduce interprets up to 64 big-endian bytes as an integer and reduces it
// modulo p. It is used for hash-to-scalar and RFC 6979 style conversions.
func (f *Field) Reduce(b []byte) (Element, error) {
	if len(b) > 2*ByteSize {
		return Element{}, cvcerr.ErrInvalidLength.WithDetails("%s reduce accepts at most %d bytes, got %d", f.name, 2*ByteSize, len(b))
	}
	var buf [2 * ByteSize]byte
	copy(buf[len(buf)-len(b):], b)
	hi := limbsFromBytes(buf[:ByteSize])
	lo := limbsFromBytes(buf[ByteSize:])

	// value = hi*R + lo; in Montgomery form that is hi*R^2 + lo*R.
	h := f.montMul(&hi, &f.rrr)
	l := f.montMul(&lo, &f.rr)
	return Element{f: f, v: f.add(&h, &l)}, nil
}

// Select returns a if cond == 1 and b if cond == 0, without branching.
func Select(cond int, a, b Element) Element {
	a.check(b)
	mask := -uint64(cond & 1)
	var out Element
	out.f = a.f
	for i := range out.v {
		out.v[i] = (a.v[i] & mask) | (b.v[i] &^ mask)
	}
	return out
}

func limbsOf(x *big.Int) [4]uint64 {
	var b [ByteSize]byte
	x.FillBytes(b[:])
	return limbsFromBytes(b[:])
}

func limbsFromBytes(b []byte) (l [4]uint64) {
	for i := 0; i < 4; i++ {
		l[i] = binary.BigEndian.Uint64(b[ByteSize-8*(i+1) : ByteSize-8*i])
	}
	return l
}

func bytesFromLimbs(l *[4]uint64) []byte {
	out := make([]byte, ByteSize)
	for i := 0; i < 4; i++ {
		binary.BigEndian.PutUint64(out[ByteSize-8*(i+1):ByteSize-8*i], l[i])
	}
	return out
}

func sub256(a, b *[4]uint64) (d [4]uint64, borrow uint64) {
	d[0], borrow = bits.Sub64(a[0], b[0], 0)
	d[1], borrow = bits.Sub64(a[1], b[1], borrow)
	d[2], borrow = bits.Sub64(a[2], b[2], borrow)
	d[3], borrow = bits.Sub64(a[3], b[3], borrow)
	return d, borrow
}

// reduceOnce maps a 257-bit value t < 2p into [0, p).
func (f *Field) reduceOnce(t0, t1, t2, t3, t4 uint64) [4]uint64 {
	var b uint64
	var d [4]uint64
	d[0], b = bits.Sub64(t0, f.p[0], 0)
	d[1], b = bits.Sub64(t1, f.p[1], b)
	d[2], b = bits.Sub64(t2, f.p[2], b)
	d[3], b = bits.Sub64(t3, f.p[3], b)
	_, b = bits.Sub64(t4, 0, b)

	// b == 1 means t < p and t is kept.
	keep := -b
	return [4]uint64{
		(t0 & keep) | (d[0] &^ keep),
		(t1 & keep) | (d[1] &^ keep),
		(t2 & keep) | (d[2] &^ keep),
		(t3 & keep) | (d[3] &^ keep),
	}
}

func (f *Field) add(a, b *[4]uint64) [4]uint64 {
	var c uint64
	var s [4]uint64
	s[0], c = bits.Add64(a[0], b[0], 0)
	s[1], c = bits.Add64(a[1], b[1], c)
	s[2], c = bits.Add64(a[2], b[2], c)
	s[3], c = bits.Add64(a[3], b[3], c)
	return f.reduceOnce(s[0], s[1], s[2], s[3], c)
}

func (f *Field) sub(a, b *[4]uint64) [4]uint64 {
	d, borrow := sub256(a, b)
	mask := -borrow
	var c uint64
	d[0], c = bits.Add64(d[0], f.p[0]&mask, 0)
	d[1], c = bits.Add64(d[1], f.p[1]&mask, c)
	d[2], c = bits.Add64(d[2], f.p[2]&mask, c)
	d[3], _ = bits.Add64(d[3], f.p[3]&mask, c)
	return d
}

// montMul computes a*b*R^-1 mod p with the CIOS method. Inputs may be any
// 256-bit values as long as a*b < R*p.
func (f *Field) montMul(a, b *[4]uint64) [4]uint64 {
	var t [6]uint64
	for i := 0; i < 4; i++ {
		var c, carry uint64
		for j := 0; j < 4; j++ {
			hi, lo := bits.Mul64(a[j], b[i])
			lo, carry = bits.Add64(lo, t[j], 0)
			hi += carry
			lo, carry = bits.Add64(lo, c, 0)
			hi += carry
			t[j] = lo
			c = hi
		}
		t[4], carry = bits.Add64(t[4], c, 0)
		t[5] = carry

		m := t[0] * f.inv
		hi, lo := bits.Mul64(m, f.p[0])
		_, carry = bits.Add64(lo, t[0], 0)
		c = hi + carry
		for j := 1; j < 4; j++ {
			hi, lo = bits.Mul64(m, f.p[j])
			lo, carry = bits.Add64(lo, t[j], 0)
			hi += carry
			lo, carry = bits.Add64(lo, c, 0)
			hi += carry
			t[j-1] = lo
			c = hi
		}
		t[3], carry = bits.Add64(t[4], c, 0)
		t[4] = t[5] + carry
	}
	return f.reduceOnce(t[0], t[1], t[2], t[3], t[4])
}
