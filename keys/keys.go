package keys

import (
	"encoding/hex"
	"io"
	"runtime"
	"sync"

	"github.com/moatus/cvc/curve"
	"github.com/moatus/cvc/cvcerr"
	"github.com/moatus/cvc/edwards"
	"github.com/moatus/cvc/field"
	"github.com/moatus/cvc/weierstrass"
)

// SignatureSize is the length of every supported signature: R || S for
// EdDSA and r || s for ECDSA.
const SignatureSize = 64

// Signature is a fixed-size signature in the JOSE layout.
type Signature []byte

// KeyPair holds a private key and its public key.
type KeyPair struct {
	Private *PrivateKey
	Public  *PublicKey
}

// Zeroize wipes the private half of the pair.
func (kp *KeyPair) Zeroize() {
	if kp != nil && kp.Private != nil {
		kp.Private.Zeroize()
	}
}

// PrivateKey is a secret key on one of the supported curves. It has no
// String method and no exported fields; the secret only leaves through
// Bytes.
type PrivateKey struct {
	typ    curve.Type
	c      curve.Curve
	scalar curve.Scalar

	// Ed25519 signing needs the expanded key, not only the scalar.
	ed *edwards.SigningKey

	public *PublicKey

	mu        sync.RWMutex
	destroyed bool
}

// PublicKey is a validated public point. A PublicKey value is never the
// identity, off the curve or of small order.
type PublicKey struct {
	typ   curve.Type
	point curve.Point
}

// GenerateKeyPair creates a key pair on the given curve using rng as the
// only entropy source. A short read from rng fails with
// ErrInsufficientEntropy.
func GenerateKeyPair(typ curve.Type, rng io.Reader) (*KeyPair, error) {
	c, err := curve.NewCurve(typ)
	if err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, cvcerr.ErrInsufficientEntropy.WithDetails("no random source")
	}

	secret, err := c.RandomSecret(rng)
	if err != nil {
		return nil, err
	}
	defer curve.ZeroizeBytes(secret)

	priv, err := newPrivateKey(c, secret)
	if err != nil {
		return nil, err
	}
	return &KeyPair{Private: priv, Public: priv.public}, nil
}

// NewPrivateKey imports a private key. Ed25519 keys are 32-byte RFC 8032
// seeds; P-256 and secp256k1 keys are 32-byte big-endian scalars in
// [1, n-1].
func NewPrivateKey(typ curve.Type, b []byte) (*PrivateKey, error) {
	c, err := curve.NewCurve(typ)
	if err != nil {
		return nil, err
	}
	if err := c.ValidateScalar(b); err != nil {
		return nil, err
	}
	return newPrivateKey(c, b)
}

// ParsePublicKey decodes and validates a public key. Weierstrass keys accept
// SEC1 uncompressed or compressed encodings; Ed25519 keys are 32 bytes.
func ParsePublicKey(typ curve.Type, b []byte) (*PublicKey, error) {
	c, err := curve.NewCurve(typ)
	if err != nil {
		return nil, err
	}
	p, err := c.PointFromBytes(b)
	if err != nil {
		return nil, cvcerr.ErrInvalidPublicKey.WithDetails("%s public key does not decode", typ).WithCause(err)
	}
	if err := c.ValidatePublicKey(p); err != nil {
		return nil, err
	}
	return &PublicKey{typ: typ, point: p}, nil
}

// newPrivateKey derives the public key as BasePoint * scalar and validates
// it before the key is handed out.
func newPrivateKey(c curve.Curve, secret []byte) (*PrivateKey, error) {
	s, err := c.SecretScalar(secret)
	if err != nil {
		return nil, err
	}
	pub := c.BasePoint().Mul(s)
	if err := c.ValidatePublicKey(pub); err != nil {
		s.Zeroize()
		return nil, cvcerr.ErrInvalidPrivateKey.WithDetails("%s private key gives an invalid public key", c.Type()).WithCause(err)
	}

	k := &PrivateKey{
		typ:    c.Type(),
		c:      c,
		scalar: s,
		public: &PublicKey{typ: c.Type(), point: pub},
	}
	if c.Type() == curve.Ed25519 {
		sk, err := edwards.NewSigningKey(secret)
		if err != nil {
			s.Zeroize()
			return nil, err
		}
		k.ed = sk
	}
	runtime.SetFinalizer(k, (*PrivateKey).finalize)
	return k, nil
}

// group returns the Weierstrass group and secret scalar of k. ok is false
// for Ed25519 keys.
func (k *PrivateKey) group() (g *weierstrass.Curve, d field.Element, ok bool) {
	wc, ok := k.c.(*curve.WeierstrassCurve)
	if !ok {
		return nil, field.Element{}, false
	}
	ws, ok := k.scalar.(*curve.WeierstrassScalar)
	if !ok {
		return nil, field.Element{}, false
	}
	return wc.Group(), ws.Element(), true
}

// finalize is called by the garbage collector as backup cleanup
func (k *PrivateKey) finalize() {
	k.Zeroize()
}

// Type returns the curve of the key.
func (k *PrivateKey) Type() curve.Type { return k.typ }

// Public returns the matching public key.
func (k *PrivateKey) Public() *PublicKey { return k.public }

// Bytes exports the secret: the seed for Ed25519, the big-endian scalar
// otherwise. The caller owns and must wipe the returned slice.
func (k *PrivateKey) Bytes() ([]byte, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if k.destroyed {
		return nil, cvcerr.ErrKeyDestroyed
	}
	if k.ed != nil {
		return k.ed.Seed(), nil
	}
	return k.scalar.Bytes(), nil
}

// Zeroize wipes the secret material. Later operations on the key fail with
// ErrKeyDestroyed. Zeroize is idempotent.
func (k *PrivateKey) Zeroize() {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.destroyed {
		return
	}
	if k.ed != nil {
		k.ed.Zeroize()
	}
	k.scalar.Zeroize()
	k.destroyed = true
	runtime.SetFinalizer(k, nil)
}

// Type returns the curve of the key.
func (p *PublicKey) Type() curve.Type { return p.typ }

// Point returns the public point.
func (p *PublicKey) Point() curve.Point { return p.point }

// Bytes returns the canonical encoding: 32 bytes for Ed25519, 65-byte SEC1
// uncompressed otherwise.
func (p *PublicKey) Bytes() []byte { return p.point.Bytes() }

// CompressedBytes returns the 33-byte SEC1 compressed form for Weierstrass
// keys and the usual 32 bytes for Ed25519.
func (p *PublicKey) CompressedBytes() []byte { return p.point.CompressedBytes() }

// Equal reports whether p and q are the same key on the same curve.
func (p *PublicKey) Equal(q *PublicKey) bool {
	if p == nil || q == nil {
		return p == q
	}
	return p.typ == q.typ && curve.SecureCompare(p.Bytes(), q.Bytes())
}

func (p *PublicKey) String() string {
	return string(p.typ) + ":" + hex.EncodeToString(p.Bytes())
}
