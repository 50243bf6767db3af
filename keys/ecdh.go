package keys

import (
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/moatus/cvc/curve"
	"github.com/moatus/cvc/cvcerr"
)

// SharedSecretSize is the length of every raw ECDH output.
const SharedSecretSize = 32

// SharedSecret is a raw Diffie-Hellman output. It is not uniformly random
// and should be passed through a KDF such as DeriveKey before use.
type SharedSecret []byte

// Zeroize overwrites the secret.
func (s SharedSecret) Zeroize() {
	curve.ZeroizeBytes(s)
}

// ECDH computes the raw shared secret with peer. For P-256 and secp256k1 it
// is the big-endian affine x-coordinate of d*Q. For Ed25519 it is
// X25519(clamped scalar, u(peer)), the Montgomery u-coordinate of the
// product. The peer key must be on the same curve.
func (k *PrivateKey) ECDH(peer *PublicKey) (SharedSecret, error) {
	if peer == nil {
		return nil, cvcerr.ErrInvalidPublicKey.WithDetails("peer key is missing")
	}
	if peer.typ != k.typ {
		return nil, cvcerr.ErrKeyMismatch.WithDetails("private key is %s, peer key is %s", k.typ, peer.typ)
	}

	k.mu.RLock()
	defer k.mu.RUnlock()
	if k.destroyed {
		return nil, cvcerr.ErrKeyDestroyed
	}

	switch pt := peer.point.(type) {
	case *curve.Ed25519Point:
		out, err := k.ed.SharedSecret(pt.Inner())
		if err != nil {
			return nil, err
		}
		return SharedSecret(out), nil
	case *curve.WeierstrassPoint:
		g, d, ok := k.group()
		if !ok {
			return nil, cvcerr.ErrKeyMismatch.WithDetails("private key is not a %s key", peer.typ)
		}
		out, err := g.SharedSecret(d, pt.Inner())
		if err != nil {
			return nil, err
		}
		return SharedSecret(out), nil
	default:
		return nil, cvcerr.ErrInvalidPublicKey.WithDetails("unsupported public key type %T", peer.point)
	}
}

// DeriveKey expands a shared secret into length bytes of key material with
// HKDF-SHA256.
func DeriveKey(secret SharedSecret, salt, info []byte, length int) ([]byte, error) {
	if len(secret) == 0 {
		return nil, cvcerr.ErrInvalidConfiguration.WithDetails("empty shared secret")
	}
	if length <= 0 || length > 255*sha256.Size {
		return nil, cvcerr.ErrInvalidConfiguration.WithDetails("HKDF output length %d out of range", length)
	}

	out := make([]byte, length)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, salt, info), out); err != nil {
		return nil, cvcerr.ErrInvalidConfiguration.WithCause(err)
	}
	return out, nil
}
