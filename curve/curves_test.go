package curve

import (
	"bytes"
	"crypto/rand"
	"errors"
	"testing"

	"github.com/moatus/cvc/cvcerr"
)

// TestCurveInterface runs the same key checks against every supported
// curve through the Curve interface.
func TestCurveInterface(t *testing.T) {
	for _, typ := range Types() {
		t.Run(string(typ), func(t *testing.T) {
			curve, err := NewCurve(typ)
			if err != nil {
				t.Fatalf("NewCurve(%s) failed: %v", typ, err)
			}
			if curve.Type() != typ {
				t.Fatalf("expected type %s, got %s", typ, curve.Type())
			}

			secret, err := curve.RandomSecret(rand.Reader)
			if err != nil {
				t.Fatalf("RandomSecret failed: %v", err)
			}
			if len(secret) != curve.SecretSize() {
				t.Fatalf("expected %d-byte secret, got %d", curve.SecretSize(), len(secret))
			}
			if err := curve.ValidateScalar(secret); err != nil {
				t.Fatalf("fresh secret rejected: %v", err)
			}
			s, err := curve.SecretScalar(secret)
			if err != nil {
				t.Fatalf("SecretScalar failed: %v", err)
			}
			defer s.Zeroize()
			if s.IsZero() {
				t.Fatal("secret scalar should not be zero")
			}

			g := curve.BasePoint()
			p := g.Mul(s)
			if p.Equal(g) || p.IsIdentity() {
				t.Error("public point should be a fresh non-identity point")
			}
			for _, enc := range [][]byte{p.Bytes(), p.CompressedBytes()} {
				q, err := curve.PointFromBytes(enc)
				if err != nil {
					t.Fatalf("PointFromBytes failed: %v", err)
				}
				if !q.Equal(p) {
					t.Error("point round trip failed")
				}
			}
			if err := curve.ValidatePublicKey(p); err != nil {
				t.Errorf("valid key rejected: %v", err)
			}

			a, err := curve.ScalarRandom(rand.Reader)
			if err != nil {
				t.Fatalf("ScalarRandom failed: %v", err)
			}
			defer a.Zeroize()
			b, err := curve.ScalarFromBytes(a.Bytes())
			if err != nil {
				t.Fatalf("ScalarFromBytes failed: %v", err)
			}
			if !g.Mul(a).Equal(g.Mul(b)) {
				t.Error("scalar round trip failed")
			}

			if _, err := curve.RandomSecret(bytes.NewReader(make([]byte, 3))); !errors.Is(err, cvcerr.ErrInsufficientEntropy) {
				t.Errorf("expected ErrInsufficientEntropy, got %v", err)
			}
			if _, err := curve.SecretScalar(secret[:len(secret)-1]); !errors.Is(err, cvcerr.ErrInvalidPrivateKey) {
				t.Errorf("expected ErrInvalidPrivateKey for a short secret, got %v", err)
			}
		})
	}
}

func TestIdentityRejected(t *testing.T) {
	encodings := map[Type][]byte{
		P256:      {0x00},
		Secp256k1: {0x00},
		Ed25519:   append([]byte{0x01}, make([]byte, 31)...),
	}
	for typ, enc := range encodings {
		curve, err := NewCurve(typ)
		if err != nil {
			t.Fatalf("NewCurve(%s) failed: %v", typ, err)
		}
		p, err := curve.PointFromBytes(enc)
		if err != nil {
			t.Fatalf("%s: identity should decode: %v", typ, err)
		}
		if !p.IsIdentity() {
			t.Fatalf("%s: expected the identity", typ)
		}
		if err := curve.ValidatePublicKey(p); !errors.Is(err, cvcerr.ErrInvalidPublicKey) {
			t.Errorf("%s: expected ErrInvalidPublicKey for identity, got %v", typ, err)
		}
	}
}

func TestCrossCurveValues(t *testing.T) {
	p256 := NewP256Curve()
	ed := NewEd25519Curve()

	if p256.BasePoint().Equal(ed.BasePoint()) {
		t.Error("points from different curves should never be equal")
	}
	if p256.BasePoint().Equal(NewSecp256k1Curve().BasePoint()) {
		t.Error("points from different Weierstrass curves should never be equal")
	}
	if err := p256.ValidatePublicKey(ed.BasePoint()); !errors.Is(err, cvcerr.ErrInvalidPublicKey) {
		t.Errorf("expected ErrInvalidPublicKey, got %v", err)
	}
}

func TestParseType(t *testing.T) {
	tests := []struct {
		in   string
		want Type
	}{
		{"P-256", P256},
		{"prime256v1", P256},
		{"secp256r1", P256},
		{"SECP256K1", Secp256k1},
		{"ed25519", Ed25519},
	}
	for _, tt := range tests {
		got, err := ParseType(tt.in)
		if err != nil {
			t.Fatalf("ParseType(%q) failed: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseType(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}

	if _, err := ParseType("P-384"); !errors.Is(err, cvcerr.ErrUnsupportedCurve) {
		t.Errorf("expected ErrUnsupportedCurve, got %v", err)
	}
	if _, err := NewCurve("bn254"); !errors.Is(err, cvcerr.ErrUnsupportedCurve) {
		t.Errorf("expected ErrUnsupportedCurve, got %v", err)
	}
}

func TestValidateScalar(t *testing.T) {
	if err := NewP256Curve().ValidateScalar(make([]byte, 32)); !errors.Is(err, cvcerr.ErrInvalidPrivateKey) {
		t.Errorf("expected ErrInvalidPrivateKey for zero scalar, got %v", err)
	}
	if err := NewSecp256k1Curve().ValidateScalar(bytes.Repeat([]byte{0xff}, 32)); !errors.Is(err, cvcerr.ErrInvalidPrivateKey) {
		t.Errorf("expected ErrInvalidPrivateKey for scalar above the order, got %v", err)
	}
	if err := NewEd25519Curve().ValidateScalar(make([]byte, 31)); !errors.Is(err, cvcerr.ErrInvalidPrivateKey) {
		t.Errorf("expected ErrInvalidPrivateKey for short seed, got %v", err)
	}
	if !SecureCompare([]byte{1, 2}, []byte{1, 2}) || SecureCompare([]byte{1}, []byte{2}) {
		t.Error("SecureCompare gave the wrong answer")
	}
}
