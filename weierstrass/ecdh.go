package weierstrass

import (
	"github.com/moatus/cvc/cvcerr"
	"github.com/moatus/cvc/field"
)

// ValidatePublicKey checks that pub is a usable public key on c: on the
// curve and not the identity. Both supported curves have cofactor 1, so
// there are no other small-order points to exclude.
func (c *Curve) ValidatePublicKey(pub *Point) error {
	if pub == nil || pub.c != c {
		return cvcerr.ErrInvalidPublicKey.WithDetails("key is not a %s point", c.name)
	}
	if pub.IsIdentity() {
		return cvcerr.ErrInvalidPublicKey.WithDetails("%s key is the identity", c.name)
	}
	if !pub.IsOnCurve() {
		return cvcerr.ErrInvalidPublicKey.WithDetails("%s key is not on the curve", c.name)
	}
	return nil
}

// SharedSecret returns the affine x-coordinate of d*peer, the raw ECDH
// output. It performs no key derivation.
func (c *Curve) SharedSecret(d field.Element, peer *Point) ([]byte, error) {
	if err := c.ValidatePublicKey(peer); err != nil {
		return nil, err
	}
	if d.Field() != c.n || d.IsZero() {
		return nil, cvcerr.ErrInvalidPrivateKey.WithDetails("%s ECDH scalar is out of range", c.name)
	}
	shared := peer.ScalarMult(d)
	if shared.IsIdentity() {
		return nil, cvcerr.ErrInvalidPublicKey.WithDetails("%s shared point is the identity", c.name)
	}
	return shared.XBytes()
}
