package edwards

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/moatus/cvc/cvcerr"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("bad hex %q: %v", s, err)
	}
	return b
}

func newTestKey(t *testing.T) *SigningKey {
	t.Helper()
	seed := make([]byte, SeedSize)
	if _, err := rand.Read(seed); err != nil {
		t.Fatalf("Failed to read seed: %v", err)
	}
	k, err := NewSigningKey(seed)
	if err != nil {
		t.Fatalf("NewSigningKey failed: %v", err)
	}
	return k
}

// RFC 8032 section 7.1, test 1.
func TestRFC8032Vector(t *testing.T) {
	k, err := NewSigningKey(mustHex(t, "9d61b19deffd5a60ba844af492ec2cc44449c5697b326919703bac031cae7f60"))
	if err != nil {
		t.Fatalf("NewSigningKey failed: %v", err)
	}
	wantPub := mustHex(t, "d75a980182b10ab7d54bfed3c964073a0ee172f3daa62325af021a68f707511a")
	wantSig := mustHex(t, "e5564300c360ac729086e2cc806e828a84877f1eb8e5d974d873e065224901555fb8821590a33bacc61e39701cf9b46bd25bf5f0595bbe24655141438e7a100b")

	if got := k.Public().Bytes(); !bytes.Equal(got, wantPub) {
		t.Fatalf("public key mismatch:\n got  %x\n want %x", got, wantPub)
	}
	sig := k.Sign(nil)
	if !bytes.Equal(sig, wantSig) {
		t.Fatalf("signature mismatch:\n got  %x\n want %x", sig, wantSig)
	}
	if err := Verify(k.Public(), nil, sig); err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
}

func TestSignMatchesStdlib(t *testing.T) {
	for i := 0; i < 8; i++ {
		k := newTestKey(t)
		msg := make([]byte, i*17)
		rand.Read(msg)

		std := ed25519.NewKeyFromSeed(k.Seed())
		if !bytes.Equal(k.Public().Bytes(), std.Public().(ed25519.PublicKey)) {
			t.Fatal("public key differs from crypto/ed25519")
		}
		sig := k.Sign(msg)
		if !bytes.Equal(sig, ed25519.Sign(std, msg)) {
			t.Fatal("signature differs from crypto/ed25519")
		}
		if !ed25519.Verify(std.Public().(ed25519.PublicKey), msg, sig) {
			t.Fatal("crypto/ed25519 rejected our signature")
		}
	}
}

func TestVerifyRejects(t *testing.T) {
	k := newTestKey(t)
	msg := []byte("ed25519 message")
	sig := k.Sign(msg)

	t.Run("WrongMessage", func(t *testing.T) {
		if err := Verify(k.Public(), []byte("other"), sig); !errors.Is(err, cvcerr.ErrSignatureMismatch) {
			t.Fatalf("expected ErrSignatureMismatch, got %v", err)
		}
	})

	t.Run("WrongKey", func(t *testing.T) {
		if err := Verify(newTestKey(t).Public(), msg, sig); !errors.Is(err, cvcerr.ErrSignatureMismatch) {
			t.Fatalf("expected ErrSignatureMismatch, got %v", err)
		}
	})

	// A flipped bit is a mismatch while R still decodes and S stays
	// canonical; otherwise the signature is malformed.
	t.Run("SignatureBitFlips", func(t *testing.T) {
		mismatches, malformed := 0, 0
		for i := 0; i < SignatureSize*8; i++ {
			bad := append([]byte(nil), sig...)
			bad[i/8] ^= 1 << (i % 8)

			want := cvcerr.ErrSignatureMismatch
			_, rErr := Decode(bad[:PointSize])
			_, sErr := ScalarFromBytes(bad[PointSize:])
			if rErr != nil || sErr != nil {
				want = cvcerr.ErrMalformedSignature
				malformed++
			} else {
				mismatches++
			}
			if err := Verify(k.Public(), msg, bad); !errors.Is(err, want) {
				t.Fatalf("bit %d: expected %v, got %v", i, want, err)
			}
		}
		if mismatches == 0 || malformed == 0 {
			t.Errorf("expected both kinds of rejection, got %d mismatches and %d malformed", mismatches, malformed)
		}
	})

	t.Run("MessageBitFlips", func(t *testing.T) {
		for i := 0; i < len(msg)*8; i++ {
			bad := append([]byte(nil), msg...)
			bad[i/8] ^= 1 << (i % 8)
			if err := Verify(k.Public(), bad, sig); !errors.Is(err, cvcerr.ErrSignatureMismatch) {
				t.Fatalf("bit %d: expected ErrSignatureMismatch, got %v", i, err)
			}
		}
	})

	t.Run("NonCanonicalS", func(t *testing.T) {
		bad := append([]byte(nil), sig...)
		for i := 32; i < 64; i++ {
			bad[i] = 0xff
		}
		if err := Verify(k.Public(), msg, bad); !errors.Is(err, cvcerr.ErrMalformedSignature) {
			t.Fatalf("expected ErrMalformedSignature, got %v", err)
		}
	})

	t.Run("WrongLength", func(t *testing.T) {
		if err := Verify(k.Public(), msg, sig[:63]); !errors.Is(err, cvcerr.ErrMalformedSignature) {
			t.Fatalf("expected ErrMalformedSignature, got %v", err)
		}
	})

	t.Run("SmallOrderKey", func(t *testing.T) {
		if err := Verify(Identity(), msg, sig); !errors.Is(err, cvcerr.ErrInvalidPublicKey) {
			t.Fatalf("expected ErrInvalidPublicKey, got %v", err)
		}
	})
}

func TestDecode(t *testing.T) {
	t.Run("RoundTrip", func(t *testing.T) {
		for i := 0; i < 8; i++ {
			p := newTestKey(t).Public()
			q, err := Decode(p.Bytes())
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if !q.Equal(p) || !q.IsOnCurve() {
				t.Fatal("round trip changed the point")
			}
		}
	})

	t.Run("UnreducedY", func(t *testing.T) {
		// y = p encodes the same residue as y = 0, which is on the curve.
		enc := mustHex(t, "edffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff7f")
		if _, err := Decode(enc); !errors.Is(err, cvcerr.ErrNonCanonical) {
			t.Fatalf("expected ErrNonCanonical, got %v", err)
		}
	})

	t.Run("NegativeZeroX", func(t *testing.T) {
		enc := make([]byte, 32)
		enc[0] = 1
		enc[31] = 0x80
		if _, err := Decode(enc); !errors.Is(err, cvcerr.ErrNonCanonical) {
			t.Fatalf("expected ErrNonCanonical, got %v", err)
		}
	})

	t.Run("NotOnCurve", func(t *testing.T) {
		// y = 2 has no matching x.
		enc := make([]byte, 32)
		enc[0] = 2
		if _, err := Decode(enc); !errors.Is(err, cvcerr.ErrNotOnCurve) {
			t.Fatalf("expected ErrNotOnCurve, got %v", err)
		}
	})

	t.Run("WrongLength", func(t *testing.T) {
		if _, err := Decode(make([]byte, 31)); !errors.Is(err, cvcerr.ErrInvalidLength) {
			t.Fatalf("expected ErrInvalidLength, got %v", err)
		}
	})

	t.Run("RandomBytesNeverPanic", func(t *testing.T) {
		buf := make([]byte, 2*PointSize)
		decoded := 0
		for i := 0; i < 1000; i++ {
			rand.Read(buf)
			n := PointSize
			if i%4 == 0 {
				n = i % len(buf)
			}
			p, err := Decode(buf[:n])
			if err != nil {
				if !cvcerr.IsCategory(err, cvcerr.CategoryDecode) {
					t.Fatalf("unexpected error category: %v", err)
				}
				continue
			}
			decoded++
			if !p.IsOnCurve() || !bytes.Equal(p.Bytes(), buf[:n]) {
				t.Fatal("Decode returned a point that does not re-encode to its input")
			}
		}
		// About half of all 32-byte strings are valid encodings.
		if decoded == 0 {
			t.Error("no random encoding decoded")
		}
	})
}

func TestSmallOrder(t *testing.T) {
	id := Identity()
	if !id.IsSmallOrder() {
		t.Fatal("identity should be small order")
	}
	if Generator().IsSmallOrder() {
		t.Fatal("generator should not be small order")
	}

	// (0, -1) has order 2.
	enc := mustHex(t, "ecffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff7f")
	p, err := Decode(enc)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !p.IsSmallOrder() {
		t.Fatal("(0, -1) should be small order")
	}
	if err := ValidatePublicKey(p); !errors.Is(err, cvcerr.ErrInvalidPublicKey) {
		t.Fatalf("expected ErrInvalidPublicKey, got %v", err)
	}
}

func TestGroupLaws(t *testing.T) {
	a, err := RandomScalar(rand.Reader)
	if err != nil {
		t.Fatalf("RandomScalar failed: %v", err)
	}
	b, err := RandomScalar(rand.Reader)
	if err != nil {
		t.Fatalf("RandomScalar failed: %v", err)
	}
	g := Generator()

	if !ScalarBaseMult(a).Equal(g.ScalarMult(a)) {
		t.Fatal("ScalarBaseMult and ScalarMult disagree")
	}
	if !g.ScalarMult(a).Add(g.ScalarMult(b)).Equal(g.ScalarMult(a.Add(b))) {
		t.Fatal("aB + bB != (a+b)B")
	}
	if !g.Double().Equal(g.ScalarMult(ScalarFromUint64(2))) {
		t.Fatal("2B != B + B")
	}
	if !g.Add(g.Negate()).IsIdentity() {
		t.Fatal("B + (-B) should be the identity")
	}
	if !g.ScalarMult(ScalarFromUint64(1).Negate()).Equal(g.Negate()) {
		t.Fatal("(l-1)B != -B")
	}
	if !g.IsOnCurve() || !Identity().IsOnCurve() {
		t.Fatal("generator and identity should be on the curve")
	}

	inv, err := a.Invert()
	if err != nil {
		t.Fatalf("Invert failed: %v", err)
	}
	if !a.Mul(inv).Equal(ScalarFromUint64(1)) {
		t.Fatal("a * a^-1 != 1")
	}
	if _, err := NewScalar().Invert(); !errors.Is(err, cvcerr.ErrNotInvertible) {
		t.Fatalf("expected ErrNotInvertible, got %v", err)
	}
}

func TestSharedSecret(t *testing.T) {
	alice := newTestKey(t)
	bob := newTestKey(t)

	ab, err := alice.SharedSecret(bob.Public())
	if err != nil {
		t.Fatalf("SharedSecret failed: %v", err)
	}
	ba, err := bob.SharedSecret(alice.Public())
	if err != nil {
		t.Fatalf("SharedSecret failed: %v", err)
	}
	if !bytes.Equal(ab, ba) {
		t.Fatal("shared secrets differ")
	}
	if len(ab) != 32 {
		t.Fatalf("expected 32-byte secret, got %d", len(ab))
	}

	if _, err := alice.SharedSecret(Identity()); !errors.Is(err, cvcerr.ErrInvalidPublicKey) {
		t.Fatalf("expected ErrInvalidPublicKey, got %v", err)
	}
}

func TestZeroize(t *testing.T) {
	k := newTestKey(t)
	k.Zeroize()
	if !bytes.Equal(k.Seed(), make([]byte, SeedSize)) {
		t.Fatal("seed was not wiped")
	}
}

func TestRandomScalarShortRead(t *testing.T) {
	if _, err := RandomScalar(bytes.NewReader(make([]byte, 63))); !errors.Is(err, cvcerr.ErrInsufficientEntropy) {
		t.Fatalf("expected ErrInsufficientEntropy, got %v", err)
	}
}
