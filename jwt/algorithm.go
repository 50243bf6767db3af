package jwt

import (
	"strings"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"github.com/moatus/cvc/curve"
	"github.com/moatus/cvc/cvcerr"
	"github.com/moatus/cvc/keys"
)

// Algorithm is a JWS "alg" identifier.
type Algorithm string

const (
	EdDSA  Algorithm = "EdDSA"
	ES256  Algorithm = "ES256"
	ES256K Algorithm = "ES256K"
	HS256  Algorithm = "HS256"

	// None is recognized only so that it can be named in errors; it is
	// never implemented and never accepted.
	None Algorithm = "none"
)

// MinHMACKeySize is the shortest HS256 secret accepted, one SHA-256 block
// output.
const MinHMACKeySize = 32

// SigningMethodECC signs and verifies with keys from the keys package. It
// satisfies the golang-jwt SigningMethod interface.
type SigningMethodECC struct {
	alg   Algorithm
	curve curve.Type
}

var (
	SigningMethodEdDSA  = &SigningMethodECC{alg: EdDSA, curve: curve.Ed25519}
	SigningMethodES256  = &SigningMethodECC{alg: ES256, curve: curve.P256}
	SigningMethodES256K = &SigningMethodECC{alg: ES256K, curve: curve.Secp256k1}
)

// methods is the closed set of implemented algorithms. Lookups go through
// this table, never through the global golang-jwt registry, so a token can
// only select an algorithm that is listed here.
var methods = map[Algorithm]jwtlib.SigningMethod{
	EdDSA:  SigningMethodEdDSA,
	ES256:  SigningMethodES256,
	ES256K: SigningMethodES256K,
	HS256:  jwtlib.SigningMethodHS256,
}

func init() {
	// golang-jwt has no ES256K; registering it lets the shared parser
	// recognize the name. EdDSA and ES256 keep their upstream registrations.
	jwtlib.RegisterSigningMethod(string(ES256K), func() jwtlib.SigningMethod {
		return SigningMethodES256K
	})
}

func (m *SigningMethodECC) Alg() string { return string(m.alg) }

// Sign signs signingString with a *keys.PrivateKey on the method's curve.
func (m *SigningMethodECC) Sign(signingString string, key interface{}) ([]byte, error) {
	k, ok := key.(*keys.PrivateKey)
	if !ok || k.Type() != m.curve {
		return nil, jwtlib.ErrInvalidKeyType
	}
	return k.Sign([]byte(signingString))
}

// Verify checks sig with a *keys.PublicKey on the method's curve.
func (m *SigningMethodECC) Verify(signingString string, sig []byte, key interface{}) error {
	k, ok := key.(*keys.PublicKey)
	if !ok || k.Type() != m.curve {
		return jwtlib.ErrInvalidKeyType
	}
	return k.Verify([]byte(signingString), sig)
}

// Supported returns the implemented algorithms.
func Supported() []Algorithm {
	return []Algorithm{EdDSA, ES256, ES256K, HS256}
}

// Implemented reports whether alg has a signing method.
func (a Algorithm) Implemented() bool {
	_, ok := methods[a]
	return ok
}

// Curve returns the curve an asymmetric algorithm signs with.
func (a Algorithm) Curve() (curve.Type, bool) {
	if m, ok := methods[a].(*SigningMethodECC); ok {
		return m.curve, true
	}
	return "", false
}

// ParseAlgorithm maps a configured name to an implemented Algorithm. Names
// are case-sensitive as in JWS, but surrounding space is ignored.
func ParseAlgorithm(name string) (Algorithm, error) {
	a := Algorithm(strings.TrimSpace(name))
	if !a.Implemented() {
		return "", cvcerr.ErrUnsupportedAlgorithm.WithDetails("algorithm %q is not implemented", name)
	}
	return a, nil
}

// AlgorithmForCurve returns the JWS algorithm for keys on typ.
func AlgorithmForCurve(typ curve.Type) (Algorithm, error) {
	switch typ {
	case curve.Ed25519:
		return EdDSA, nil
	case curve.P256:
		return ES256, nil
	case curve.Secp256k1:
		return ES256K, nil
	default:
		return "", cvcerr.ErrUnsupportedCurve.WithDetails("no JWS algorithm for curve %s", typ)
	}
}

// checkSigningKey reports whether key can sign for alg.
func checkSigningKey(alg Algorithm, key interface{}) error {
	if alg == HS256 {
		return checkHMACKey(key)
	}
	want, _ := alg.Curve()
	k, ok := key.(*keys.PrivateKey)
	if !ok {
		return cvcerr.ErrKeyMismatch.WithDetails("%s needs a private key, got %T", alg, key)
	}
	if k.Type() != want {
		return cvcerr.ErrKeyMismatch.WithDetails("%s needs a %s key, got %s", alg, want, k.Type())
	}
	return nil
}

// checkVerificationKey reports whether key can verify alg.
func checkVerificationKey(alg Algorithm, key interface{}) error {
	if alg == HS256 {
		return checkHMACKey(key)
	}
	want, _ := alg.Curve()
	k, ok := key.(*keys.PublicKey)
	if !ok {
		return cvcerr.ErrKeyMismatch.WithDetails("%s needs a public key, got %T", alg, key)
	}
	if k.Type() != want {
		return cvcerr.ErrKeyMismatch.WithDetails("%s needs a %s key, got %s", alg, want, k.Type())
	}
	return nil
}

func checkHMACKey(key interface{}) error {
	secret, ok := key.([]byte)
	if !ok {
		return cvcerr.ErrKeyMismatch.WithDetails("HS256 needs a []byte secret, got %T", key)
	}
	if len(secret) < MinHMACKeySize {
		return cvcerr.ErrKeyMismatch.WithDetails("HS256 secret needs at least %d bytes, got %d", MinHMACKeySize, len(secret))
	}
	return nil
}
