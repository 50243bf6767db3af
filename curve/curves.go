package curve

import (
	"io"
	"strings"

	"github.com/moatus/cvc/cvcerr"
)

// Curve is the key surface of one supported curve. The keys package
// generates, imports, derives and validates every key through it.
type Curve interface {
	// Metadata
	Name() string
	Type() Type
	SecretSize() int

	// Private keys
	RandomSecret(io.Reader) ([]byte, error)
	ValidateScalar([]byte) error
	SecretScalar([]byte) (Scalar, error)

	// Scalars
	ScalarFromBytes([]byte) (Scalar, error)
	ScalarRandom(io.Reader) (Scalar, error)

	// Points
	PointFromBytes([]byte) (Point, error)
	BasePoint() Point
	ValidatePublicKey(Point) error
}

// Scalar represents an integer modulo the group order. Scalars carry
// secret material and have no String method.
type Scalar interface {
	Bytes() []byte
	IsZero() bool
	Zeroize()
}

// Point represents a point on the elliptic curve
type Point interface {
	// Serialization
	Bytes() []byte
	CompressedBytes() []byte
	String() string

	Mul(Scalar) Point

	// Comparison
	Equal(Point) bool
	IsIdentity() bool
}

// Type names a supported curve. The values match the JWK "crv" names.
type Type string

const (
	P256      Type = "P-256"
	Secp256k1 Type = "secp256k1"
	Ed25519   Type = "Ed25519"
)

// Types lists the supported curves.
func Types() []Type {
	return []Type{Ed25519, P256, Secp256k1}
}

// ParseType maps a curve name to its Type, ignoring case and accepting the
// common aliases "p256", "secp256r1", "prime256v1" and "k256".
func ParseType(name string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "p-256", "p256", "secp256r1", "prime256v1":
		return P256, nil
	case "secp256k1", "k256":
		return Secp256k1, nil
	case "ed25519":
		return Ed25519, nil
	default:
		return "", cvcerr.ErrUnsupportedCurve.WithDetails("unknown curve %q", name)
	}
}

// NewCurve creates a new curve instance
func NewCurve(curveType Type) (Curve, error) {
	switch curveType {
	case P256:
		return NewP256Curve(), nil
	case Secp256k1:
		return NewSecp256k1Curve(), nil
	case Ed25519:
		return NewEd25519Curve(), nil
	default:
		return nil, cvcerr.ErrUnsupportedCurve.WithDetails("unsupported curve type: %s", curveType)
	}
}
