package jwt

import (
	"context"
	"sync"

	"github.com/moatus/cvc/cvcerr"
	"github.com/moatus/cvc/keys"
)

// KeyResolver finds the verification key for a token. It is called only
// after the algorithm has passed the policy, and may block on ctx.
//
// The key is a *keys.PublicKey for EdDSA, ES256 and ES256K, or a []byte
// secret for HS256.
type KeyResolver interface {
	ResolveKey(ctx context.Context, header Header) (interface{}, error)
}

// ResolverFunc adapts a function to KeyResolver.
type ResolverFunc func(ctx context.Context, header Header) (interface{}, error)

func (f ResolverFunc) ResolveKey(ctx context.Context, header Header) (interface{}, error) {
	return f(ctx, header)
}

// StaticResolver returns the same key for every token.
type StaticResolver struct {
	Key interface{}
}

func (r StaticResolver) ResolveKey(ctx context.Context, header Header) (interface{}, error) {
	if r.Key == nil {
		return nil, cvcerr.ErrKeyResolution.WithDetails("no key configured")
	}
	return r.Key, nil
}

// KeySet resolves public keys by kid. It is safe for concurrent use.
type KeySet struct {
	mu   sync.RWMutex
	keys map[string]*keys.PublicKey
}

// NewKeySet returns an empty set.
func NewKeySet() *KeySet {
	return &KeySet{keys: make(map[string]*keys.PublicKey)}
}

// KeySetFromJWKS builds a set from a JWKS. Keys without a kid are indexed by
// their thumbprint.
func KeySetFromJWKS(set *keys.JWKSet) (*KeySet, error) {
	ks := NewKeySet()
	for i, j := range set.Keys {
		pub, err := j.PublicKey()
		if err != nil {
			return nil, cvcerr.ErrInvalidConfiguration.WithDetails("JWKS entry %d", i).WithCause(err)
		}
		kid := j.KeyID
		if kid == "" {
			if kid, err = j.Thumbprint(); err != nil {
				return nil, err
			}
		}
		if err := ks.Add(kid, pub); err != nil {
			return nil, err
		}
	}
	return ks, nil
}

// Add stores pub under kid, replacing any previous key. A nil key or an
// empty kid is rejected.
func (s *KeySet) Add(kid string, pub *keys.PublicKey) error {
	if pub == nil {
		return cvcerr.ErrInvalidConfiguration.WithDetails("no key given for kid %q", kid)
	}
	if kid == "" {
		return cvcerr.ErrInvalidConfiguration.WithDetails("key set entries need a kid")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[kid] = pub
	return nil
}

// Len returns the number of keys.
func (s *KeySet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.keys)
}

// ResolveKey looks the header's kid up and checks the key fits the algorithm.
func (s *KeySet) ResolveKey(ctx context.Context, header Header) (interface{}, error) {
	if header.KeyID == "" {
		return nil, cvcerr.ErrKeyResolution.WithDetails("token has no kid")
	}
	s.mu.RLock()
	pub, ok := s.keys[header.KeyID]
	s.mu.RUnlock()
	if !ok {
		return nil, cvcerr.ErrKeyResolution.WithDetails("unknown kid %q", header.KeyID)
	}
	if want, ok := header.Algorithm.Curve(); !ok || pub.Type() != want {
		return nil, cvcerr.ErrKeyResolution.WithDetails("key %q cannot verify %s", header.KeyID, header.Algorithm)
	}
	return pub, nil
}
