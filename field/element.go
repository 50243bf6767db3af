package field

import (
	"github.com/moatus/cvc/cvcerr"
)

// Element is a value of a prime field, kept in Montgomery form and always
// fully reduced. Elements have value semantics: arithmetic never modifies
// the receiver and returns a new Element. The zero Element is not usable;
// obtain elements from a Field.
type Element struct {
	f *Field
	v [4]uint64
}

func (e Element) check(o Element) {
	if e.f == nil || e.f != o.f {
		panic("field: operands belong to different fields")
	}
}

// Field returns the field e belongs to.
func (e Element) Field() *Field { return e.f }

// Add returns e + o.
func (e Element) Add(o Element) Element {
	e.check(o)
	return Element{f: e.f, v: e.f.add(&e.v, &o.v)}
}

// Sub returns e - o.
func (e Element) Sub(o Element) Element {
	e.check(o)
	return Element{f: e.f, v: e.f.sub(&e.v, &o.v)}
}

// Mul returns e * o.
func (e Element) Mul(o Element) Element {
	e.check(o)
	return Element{f: e.f, v: e.f.montMul(&e.v, &o.v)}
}

// Square returns e * e.
func (e Element) Square() Element {
	return e.Mul(e)
}

// Neg returns -e.
func (e Element) Neg() Element {
	var zero [4]uint64
	return Element{f: e.f, v: e.f.sub(&zero, &e.v)}
}

// Invert returns e^-1 computed as e^(p-2). Zero has no inverse.
func (e Element) Invert() (Element, error) {
	if e.IsZero() {
		return Element{}, cvcerr.ErrNotInvertible.WithDetails("zero in %s", e.f.name)
	}
	return e.pow(&e.f.pm2), nil
}

// Sqrt returns a square root of e for fields with p = 3 mod 4.
func (e Element) Sqrt() (Element, error) {
	if !e.f.hasSqrt {
		return Element{}, cvcerr.ErrInvalidConfiguration.WithDetails("%s has no fast square root", e.f.name)
	}
	r := e.pow(&e.f.sqrtExp)
	if !r.Square().Equal(e) {
		return Element{}, cvcerr.ErrNoSquareRoot
	}
	return r, nil
}

// pow raises e to a public exponent. The exponent bits drive the control
// flow, so it must never be secret.
func (e Element) pow(exp *[4]uint64) Element {
	r := e.f.one
	for i := 255; i >= 0; i-- {
		r = e.f.montMul(&r, &r)
		if (exp[i/64]>>(uint(i)%64))&1 == 1 {
			r = e.f.montMul(&r, &e.v)
		}
	}
	return Element{f: e.f, v: r}
}

// Equal reports whether e == o in constant time.
func (e Element) Equal(o Element) bool {
	e.check(o)
	var acc uint64
	for i := range e.v {
		acc |= e.v[i] ^ o.v[i]
	}
	return acc == 0
}

// IsZero reports whether e == 0 in constant time.
func (e Element) IsZero() bool {
	return (e.v[0] | e.v[1] | e.v[2] | e.v[3]) == 0
}

// IsOdd reports the parity of the canonical value of e.
func (e Element) IsOdd() bool {
	return e.canonical()[0]&1 == 1
}

// IsHigh reports whether the canonical value of e exceeds (p-1)/2.
func (e Element) IsHigh() bool {
	c := e.canonical()
	_, borrow := sub256(&e.f.half, &c)
	return borrow == 1
}

// Bytes returns the 32-byte big-endian canonical encoding of e.
func (e Element) Bytes() []byte {
	c := e.canonical()
	return bytesFromLimbs(&c)
}

func (e Element) canonical() [4]uint64 {
	one := [4]uint64{1, 0, 0, 0}
	return e.f.montMul(&e.v, &one)
}

// Zeroize clears the limbs of e. It exists for secret scalars that must not
// outlive their use; the element reads as zero afterwards.
func (e *Element) Zeroize() {
	for i := range e.v {
		e.v[i] = 0
	}
}
