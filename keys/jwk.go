package keys

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"

	"github.com/moatus/cvc/curve"
	"github.com/moatus/cvc/cvcerr"
	"github.com/moatus/cvc/field"
)

// JWK key types.
const (
	KeyTypeOKP = "OKP"
	KeyTypeEC  = "EC"
)

// JWK is a public JSON Web Key (RFC 7517) for one of the supported curves.
// Private parameters are never serialized.
type JWK struct {
	// KeyType is "OKP" for Ed25519 and "EC" for the Weierstrass curves.
	KeyType string `json:"kty"`
	// Curve is the JWK curve name, equal to the curve.Type value.
	Curve string `json:"crv"`
	// X is the base64url public key (OKP) or x-coordinate (EC).
	X string `json:"x"`
	// Y is the base64url y-coordinate, EC only.
	Y string `json:"y,omitempty"`
	// KeyID identifies the key; the RFC 7638 thumbprint by default.
	KeyID string `json:"kid,omitempty"`
	// Algorithm is the JWS algorithm the key is meant for.
	Algorithm string `json:"alg,omitempty"`
	// Use is the intended key use, "sig" for signing keys.
	Use string `json:"use,omitempty"`
}

// JWKSet is a JSON Web Key Set.
type JWKSet struct {
	Keys []JWK `json:"keys"`
}

var algorithmForCurve = map[curve.Type]string{
	curve.Ed25519:   "EdDSA",
	curve.P256:      "ES256",
	curve.Secp256k1: "ES256K",
}

var b64 = base64.RawURLEncoding

// JWK returns the public key as a JWK with its thumbprint as key id.
func (p *PublicKey) JWK() JWK {
	j := JWK{
		Curve:     string(p.typ),
		Algorithm: algorithmForCurve[p.typ],
		Use:       "sig",
	}
	raw := p.Bytes()
	if p.typ == curve.Ed25519 {
		j.KeyType = KeyTypeOKP
		j.X = b64.EncodeToString(raw)
	} else {
		j.KeyType = KeyTypeEC
		j.X = b64.EncodeToString(raw[1 : 1+field.ByteSize])
		j.Y = b64.EncodeToString(raw[1+field.ByteSize:])
	}
	j.KeyID, _ = j.Thumbprint()
	return j
}

// Thumbprint computes the RFC 7638 SHA-256 thumbprint, base64url encoded.
func (j JWK) Thumbprint() (string, error) {
	var (
		members []byte
		err     error
	)
	switch j.KeyType {
	case KeyTypeOKP:
		members, err = json.Marshal(struct {
			Crv string `json:"crv"`
			Kty string `json:"kty"`
			X   string `json:"x"`
		}{j.Curve, j.KeyType, j.X})
	case KeyTypeEC:
		members, err = json.Marshal(struct {
			Crv string `json:"crv"`
			Kty string `json:"kty"`
			X   string `json:"x"`
			Y   string `json:"y"`
		}{j.Curve, j.KeyType, j.X, j.Y})
	default:
		return "", cvcerr.ErrUnsupportedCurve.WithDetails("unsupported JWK key type %q", j.KeyType)
	}
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(members)
	return b64.EncodeToString(sum[:]), nil
}

// PublicKey decodes and validates the key material.
func (j JWK) PublicKey() (*PublicKey, error) {
	typ, err := curve.ParseType(j.Curve)
	if err != nil {
		return nil, err
	}
	if string(typ) != j.Curve {
		return nil, cvcerr.ErrUnsupportedCurve.WithDetails("JWK curve must be spelled %q", typ)
	}

	x, err := b64.DecodeString(j.X)
	if err != nil {
		return nil, cvcerr.ErrInvalidEncoding.WithDetails("JWK x is not base64url").WithCause(err)
	}

	switch {
	case j.KeyType == KeyTypeOKP && typ == curve.Ed25519:
		return ParsePublicKey(typ, x)

	case j.KeyType == KeyTypeEC && typ != curve.Ed25519:
		y, err := b64.DecodeString(j.Y)
		if err != nil {
			return nil, cvcerr.ErrInvalidEncoding.WithDetails("JWK y is not base64url").WithCause(err)
		}
		if len(x) != field.ByteSize || len(y) != field.ByteSize {
			return nil, cvcerr.ErrInvalidLength.WithDetails("JWK coordinates need %d bytes", field.ByteSize)
		}
		raw := make([]byte, 0, 1+2*field.ByteSize)
		raw = append(raw, 0x04)
		raw = append(raw, x...)
		return ParsePublicKey(typ, append(raw, y...))

	default:
		return nil, cvcerr.ErrUnsupportedCurve.WithDetails("JWK kty %q does not match crv %q", j.KeyType, j.Curve)
	}
}

// ParseJWK parses a single JWK document.
func ParseJWK(data []byte) (JWK, error) {
	var j JWK
	if err := json.Unmarshal(data, &j); err != nil {
		return JWK{}, cvcerr.ErrInvalidEncoding.WithDetails("JWK is not valid JSON").WithCause(err)
	}
	return j, nil
}

// ParseJWKSet parses a JWKS document.
func ParseJWKSet(data []byte) (*JWKSet, error) {
	var set JWKSet
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, cvcerr.ErrInvalidEncoding.WithDetails("JWKS is not valid JSON").WithCause(err)
	}
	return &set, nil
}
