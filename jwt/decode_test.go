package jwt

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/moatus/cvc/audit"
	"github.com/moatus/cvc/curve"
	"github.com/moatus/cvc/cvcerr"
	"github.com/moatus/cvc/keys"
)

var testNow = time.Unix(1700000000, 0)

func newKeyPair(t *testing.T, typ curve.Type) *keys.KeyPair {
	t.Helper()
	kp, err := keys.GenerateKeyPair(typ, rand.Reader)
	require.NoError(t, err)
	return kp
}

// countingResolver records how often it is asked for a key.
type countingResolver struct {
	key   interface{}
	calls int
}

func (r *countingResolver) ResolveKey(ctx context.Context, header Header) (interface{}, error) {
	r.calls++
	return r.key, nil
}

func policyWithSkew(skew time.Duration, algs ...Algorithm) Policy {
	p := DefaultPolicy(algs...)
	p.ClockSkew = skew
	return p
}

func segment(s string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(s))
}

func TestEndToEndEdDSA(t *testing.T) {
	kp := newKeyPair(t, curve.Ed25519)
	claims := NewClaims().
		SetSubject("user1").
		SetExpiration(testNow.Add(time.Hour))

	token, err := Encode(Header{Algorithm: EdDSA}, claims, kp.Private)
	require.NoError(t, err)
	require.Len(t, strings.Split(token, "."), 3)
	require.NotContains(t, token, "=")

	tok, err := Decode(context.Background(), token, DefaultPolicy(EdDSA), StaticResolver{Key: kp.Public}, testNow)
	require.NoError(t, err)
	require.True(t, tok.Claims.Equal(claims))
	require.Equal(t, EdDSA, tok.Header.Algorithm)
	require.Equal(t, TypeJWT, tok.Header.Type)
}

func TestRoundTripAllAlgorithms(t *testing.T) {
	secret := bytes.Repeat([]byte{0x5a}, MinHMACKeySize)

	for _, alg := range Supported() {
		t.Run(string(alg), func(t *testing.T) {
			var signKey, verifyKey interface{} = secret, secret
			if typ, ok := alg.Curve(); ok {
				kp := newKeyPair(t, typ)
				signKey, verifyKey = kp.Private, kp.Public
			}

			claims := NewClaims().
				SetIssuer("cvc").
				SetAudience("api").
				SetIssuedAt(testNow).
				SetExpiration(testNow.Add(time.Minute)).
				Set("scope", []string{"read", "write"}).
				Set("ratio", 0.25)

			header := Header{Algorithm: alg, KeyID: "k1"}
			token, err := Encode(header, claims, signKey)
			require.NoError(t, err)

			tok, err := Decode(context.Background(), token, DefaultPolicy(alg), StaticResolver{Key: verifyKey}, testNow)
			require.NoError(t, err)
			require.True(t, tok.Claims.Equal(claims))
			require.Equal(t, "k1", tok.Header.KeyID)
		})
	}
}

func TestES256KRegisteredWithParser(t *testing.T) {
	require.Equal(t, SigningMethodES256K, jwtlib.GetSigningMethod("ES256K"))
}

func TestMalformedTokens(t *testing.T) {
	kp := newKeyPair(t, curve.Ed25519)
	resolver := &countingResolver{key: kp.Public}
	d, err := NewDecoder(DefaultPolicy(EdDSA), resolver)
	require.NoError(t, err)

	header := segment(`{"alg":"EdDSA","typ":"JWT"}`)
	cases := map[string]string{
		"TwoSegments":     "abc.def",
		"FourSegments":    "a.b.c.d",
		"Empty":           "",
		"HeaderNotB64":    "!!." + segment(`{}`) + ".AA",
		"HeaderNotJSON":   segment("nope") + "." + segment(`{}`) + ".AA",
		"ClaimsNotJSON":   header + "." + segment("nope") + ".AA",
		"ClaimsArray":     header + "." + segment(`[1]`) + ".AA",
		"ClaimsNull":      header + "." + segment(`null`) + ".AA",
		"DuplicateClaim":  header + "." + segment(`{"a":1,"a":2}`) + ".AA",
		"SignatureNotB64": header + "." + segment(`{}`) + ".A+/=",
		"MissingAlg":      segment(`{"typ":"JWT"}`) + "." + segment(`{}`) + ".AA",
		"NumericAlg":      segment(`{"alg":5}`) + "." + segment(`{}`) + ".AA",
		"NumericKid":      segment(`{"alg":"EdDSA","kid":1}`) + "." + segment(`{}`) + ".AA",
		"Padded":          header + "=." + segment(`{}`) + ".AA",
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := d.Decode(context.Background(), token, testNow)
			require.ErrorIs(t, err, cvcerr.ErrMalformedToken)
		})
	}
	require.Zero(t, resolver.calls)

	small := DefaultPolicy(EdDSA)
	small.MaxTokenSize = 16
	_, err = Decode(context.Background(), strings.Repeat("a", 17), small, resolver, testNow)
	require.ErrorIs(t, err, cvcerr.ErrMalformedToken)
}

func TestAlgorithmAllowList(t *testing.T) {
	kp := newKeyPair(t, curve.P256)
	token, err := Encode(Header{Algorithm: ES256}, NewClaims().SetSubject("user1"), kp.Private)
	require.NoError(t, err)

	t.Run("NotAllowed", func(t *testing.T) {
		resolver := &countingResolver{key: kp.Public}
		_, err := Decode(context.Background(), token, DefaultPolicy(EdDSA), resolver, testNow)
		require.ErrorIs(t, err, cvcerr.ErrUnsupportedAlgorithm)
		require.Zero(t, resolver.calls)
	})

	t.Run("None", func(t *testing.T) {
		unsigned := segment(`{"alg":"none","typ":"JWT"}`) + "." + segment(`{"sub":"admin"}`) + "."
		resolver := &countingResolver{key: kp.Public}

		// Even a policy that names "none" cannot make it verify.
		d := newDecoder(Policy{AllowedAlgorithms: []Algorithm{None, ES256}}, resolver)
		_, err := d.Decode(context.Background(), unsigned, testNow)
		require.ErrorIs(t, err, cvcerr.ErrUnsupportedAlgorithm)
		require.Zero(t, resolver.calls)

		_, err = NewDecoder(Policy{AllowedAlgorithms: []Algorithm{None}}, resolver)
		require.ErrorIs(t, err, cvcerr.ErrInvalidConfiguration)
	})

	t.Run("HMACConfusion", func(t *testing.T) {
		// An HS256 token keyed with the public key bytes must not pass an
		// ES256-only policy.
		forged, err := Encode(Header{Algorithm: HS256}, NewClaims().SetSubject("user1"), kp.Public.Bytes()[:MinHMACKeySize])
		require.NoError(t, err)
		resolver := &countingResolver{key: kp.Public}
		_, err = Decode(context.Background(), forged, DefaultPolicy(ES256), resolver, testNow)
		require.ErrorIs(t, err, cvcerr.ErrUnsupportedAlgorithm)
		require.Zero(t, resolver.calls)
	})
}

func TestSignatureChecks(t *testing.T) {
	kp := newKeyPair(t, curve.Secp256k1)
	token, err := Encode(Header{Algorithm: ES256K}, NewClaims().SetSubject("user1"), kp.Private)
	require.NoError(t, err)
	policy := DefaultPolicy(ES256K)
	parts := strings.Split(token, ".")

	t.Run("TamperedClaims", func(t *testing.T) {
		forged := parts[0] + "." + segment(`{"sub":"admin"}`) + "." + parts[2]
		_, err := Decode(context.Background(), forged, policy, StaticResolver{Key: kp.Public}, testNow)
		require.ErrorIs(t, err, cvcerr.ErrSignatureInvalid)
	})

	t.Run("TamperedSignature", func(t *testing.T) {
		sig, err := base64.RawURLEncoding.DecodeString(parts[2])
		require.NoError(t, err)
		sig[len(sig)-1] ^= 0x01
		forged := parts[0] + "." + parts[1] + "." + base64.RawURLEncoding.EncodeToString(sig)
		_, err = Decode(context.Background(), forged, policy, StaticResolver{Key: kp.Public}, testNow)
		require.ErrorIs(t, err, cvcerr.ErrSignatureInvalid)
	})

	t.Run("WrongKey", func(t *testing.T) {
		other := newKeyPair(t, curve.Secp256k1)
		_, err := Decode(context.Background(), token, policy, StaticResolver{Key: other.Public}, testNow)
		require.ErrorIs(t, err, cvcerr.ErrSignatureInvalid)
	})
}

func TestKeyResolution(t *testing.T) {
	kp := newKeyPair(t, curve.Ed25519)
	token, err := Encode(Header{Algorithm: EdDSA, KeyID: "a"}, NewClaims(), kp.Private)
	require.NoError(t, err)
	policy := DefaultPolicy(EdDSA)

	t.Run("ResolverError", func(t *testing.T) {
		failing := ResolverFunc(func(ctx context.Context, h Header) (interface{}, error) {
			return nil, errors.New("backend down")
		})
		_, err := Decode(context.Background(), token, policy, failing, testNow)
		require.ErrorIs(t, err, cvcerr.ErrKeyResolution)
	})

	t.Run("WrongKeyType", func(t *testing.T) {
		_, err := Decode(context.Background(), token, policy, StaticResolver{Key: newKeyPair(t, curve.P256).Public}, testNow)
		require.ErrorIs(t, err, cvcerr.ErrKeyResolution)

		_, err = Decode(context.Background(), token, policy, StaticResolver{Key: []byte("secret")}, testNow)
		require.ErrorIs(t, err, cvcerr.ErrKeyResolution)
	})

	t.Run("NoKey", func(t *testing.T) {
		_, err := Decode(context.Background(), token, policy, StaticResolver{}, testNow)
		require.ErrorIs(t, err, cvcerr.ErrKeyResolution)
	})

	t.Run("ContextPassedThrough", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		resolver := ResolverFunc(func(ctx context.Context, h Header) (interface{}, error) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return kp.Public, nil
		})
		_, err := Decode(ctx, token, policy, resolver, testNow)
		require.ErrorIs(t, err, cvcerr.ErrKeyResolution)
		require.ErrorIs(t, err, context.Canceled)
	})

	t.Run("KeySet", func(t *testing.T) {
		jwk := kp.Public.JWK()
		set, err := KeySetFromJWKS(&keys.JWKSet{Keys: []keys.JWK{jwk, newKeyPair(t, curve.P256).Public.JWK()}})
		require.NoError(t, err)
		require.Equal(t, 2, set.Len())

		byKid, err := Encode(Header{Algorithm: EdDSA, KeyID: jwk.KeyID}, NewClaims(), kp.Private)
		require.NoError(t, err)
		_, err = Decode(context.Background(), byKid, policy, set, testNow)
		require.NoError(t, err)

		// kid "a" is unknown to the set.
		_, err = Decode(context.Background(), token, policy, set, testNow)
		require.ErrorIs(t, err, cvcerr.ErrKeyResolution)
	})

	t.Run("KeySetRejectsNil", func(t *testing.T) {
		set := NewKeySet()
		require.ErrorIs(t, set.Add("a", nil), cvcerr.ErrInvalidConfiguration)
		require.ErrorIs(t, set.Add("", kp.Public), cvcerr.ErrInvalidConfiguration)
		require.Equal(t, 0, set.Len())

		_, err := Decode(context.Background(), token, policy, set, testNow)
		require.ErrorIs(t, err, cvcerr.ErrKeyResolution)

		require.NoError(t, set.Add("a", kp.Public))
		_, err = Decode(context.Background(), token, policy, set, testNow)
		require.NoError(t, err)
	})
}

func TestTimeClaims(t *testing.T) {
	kp := newKeyPair(t, curve.Ed25519)
	resolver := StaticResolver{Key: kp.Public}
	encode := func(c *Claims) string {
		token, err := Encode(Header{Algorithm: EdDSA}, c, kp.Private)
		require.NoError(t, err)
		return token
	}
	decode := func(token string, skew time.Duration, now time.Time) error {
		_, err := Decode(context.Background(), token, policyWithSkew(skew, EdDSA), resolver, now)
		return err
	}

	t.Run("ExpiredOneSecondAgo", func(t *testing.T) {
		token := encode(NewClaims().SetExpiration(testNow.Add(-time.Second)))
		require.ErrorIs(t, decode(token, 0, testNow), cvcerr.ErrExpired)
	})

	t.Run("ExpiryAtSkewBoundary", func(t *testing.T) {
		skew := 30 * time.Second
		require.NoError(t, decode(encode(NewClaims().SetExpiration(testNow.Add(skew))), skew, testNow))
		require.NoError(t, decode(encode(NewClaims().SetExpiration(testNow.Add(-skew))), skew, testNow))
		require.ErrorIs(t, decode(encode(NewClaims().SetExpiration(testNow.Add(-skew-time.Second))), skew, testNow), cvcerr.ErrExpired)
	})

	t.Run("SubSecondNowIgnored", func(t *testing.T) {
		token := encode(NewClaims().SetExpiration(testNow))
		require.NoError(t, decode(token, 0, testNow.Add(900*time.Millisecond)))
	})

	t.Run("NotBefore", func(t *testing.T) {
		token := encode(NewClaims().SetNotBefore(testNow.Add(10 * time.Second)))
		require.ErrorIs(t, decode(token, 0, testNow), cvcerr.ErrNotYetValid)
		require.NoError(t, decode(token, 10*time.Second, testNow))
	})

	t.Run("IssuedInFuture", func(t *testing.T) {
		token := encode(NewClaims().SetIssuedAt(testNow.Add(time.Hour)))
		require.ErrorIs(t, decode(token, time.Minute, testNow), cvcerr.ErrNotYetValid)
	})

	t.Run("ExpOutOfRange", func(t *testing.T) {
		require.ErrorIs(t, decode(encode(NewClaims().Set("exp", 1e19)), 0, testNow), cvcerr.ErrInvalidClaim)
		require.ErrorIs(t, decode(encode(NewClaims().Set("exp", int64(math.MaxInt64))), 0, testNow), cvcerr.ErrInvalidClaim)
		require.ErrorIs(t, decode(encode(NewClaims().Set("nbf", -1e19)), 0, testNow), cvcerr.ErrInvalidClaim)
		require.NoError(t, decode(encode(NewClaims().Set("exp", 4e18)), 0, testNow))
	})

	t.Run("NonNumericExp", func(t *testing.T) {
		token := encode(NewClaims().Set("exp", "soon"))
		require.ErrorIs(t, decode(token, 0, testNow), cvcerr.ErrInvalidClaim)
	})
}

func TestExpectedClaims(t *testing.T) {
	kp := newKeyPair(t, curve.P256)
	resolver := StaticResolver{Key: kp.Public}
	token, err := Encode(Header{Algorithm: ES256}, NewClaims().
		SetIssuer("cvc").
		SetSubject("user1").
		SetAudience("api", "web"), kp.Private)
	require.NoError(t, err)

	base := DefaultPolicy(ES256)

	good := base
	good.ExpectedIssuer = "cvc"
	good.ExpectedSubject = "user1"
	good.ExpectedAudience = "web"
	good.ExpectedType = "jwt"
	_, err = Decode(context.Background(), token, good, resolver, testNow)
	require.NoError(t, err)

	for name, mutate := range map[string]func(p *Policy){
		"Issuer":     func(p *Policy) { p.ExpectedIssuer = "other" },
		"Subject":    func(p *Policy) { p.ExpectedSubject = "user2" },
		"Audience":   func(p *Policy) { p.ExpectedAudience = "mobile" },
		"Type":       func(p *Policy) { p.ExpectedType = "at+jwt" },
		"Expiration": func(p *Policy) { p.RequireExpiration = true },
	} {
		t.Run(name, func(t *testing.T) {
			p := base
			mutate(&p)
			_, err := Decode(context.Background(), token, p, resolver, testNow)
			require.ErrorIs(t, err, cvcerr.ErrInvalidClaim)
		})
	}
}

func TestEncodeRejects(t *testing.T) {
	kp := newKeyPair(t, curve.Ed25519)

	_, err := Encode(Header{Algorithm: None}, NewClaims(), kp.Private)
	require.ErrorIs(t, err, cvcerr.ErrUnsupportedAlgorithm)

	_, err = Encode(Header{Algorithm: "RS256"}, NewClaims(), kp.Private)
	require.ErrorIs(t, err, cvcerr.ErrUnsupportedAlgorithm)

	_, err = Encode(Header{Algorithm: ES256}, NewClaims(), kp.Private)
	require.ErrorIs(t, err, cvcerr.ErrKeyMismatch)

	_, err = Encode(Header{Algorithm: EdDSA}, NewClaims(), kp.Public)
	require.ErrorIs(t, err, cvcerr.ErrKeyMismatch)

	_, err = Encode(Header{Algorithm: HS256}, NewClaims(), make([]byte, MinHMACKeySize-1))
	require.ErrorIs(t, err, cvcerr.ErrKeyMismatch)

	kp.Zeroize()
	_, err = Encode(Header{Algorithm: EdDSA}, NewClaims(), kp.Private)
	require.ErrorIs(t, err, cvcerr.ErrKeyDestroyed)
}

func TestAuditEvents(t *testing.T) {
	kp := newKeyPair(t, curve.Ed25519)
	handler := &audit.MemoryHandler{}

	issuedAt := testNow.Add(-time.Minute)
	enc := NewEncoder(WithIssueAudit(handler), WithIssueClock(func() time.Time { return issuedAt }))
	token, err := enc.Encode(Header{Algorithm: EdDSA, KeyID: "k"}, NewClaims().SetSubject("user1").SetID("t-1"), kp.Private)
	require.NoError(t, err)

	d, err := NewDecoder(DefaultPolicy(EdDSA), StaticResolver{Key: kp.Public}, WithAuditHandler(handler))
	require.NoError(t, err)
	_, err = d.Decode(context.Background(), token, testNow)
	require.NoError(t, err)
	_, err = d.Decode(context.Background(), "abc.def", testNow)
	require.Error(t, err)

	events := handler.Events()
	require.Len(t, events, 3)

	require.Equal(t, audit.EventTokenIssued, events[0].EventType)
	require.True(t, events[0].Timestamp.Equal(issuedAt))
	require.True(t, events[1].Timestamp.Equal(testNow))
	require.Equal(t, "t-1", events[0].TokenID)

	require.Equal(t, audit.EventTokenAccepted, events[1].EventType)
	require.True(t, events[1].Success)
	require.Equal(t, "user1", events[1].Subject)
	require.Equal(t, string(curve.Ed25519), events[1].CurveName)

	require.Equal(t, audit.EventTokenRejected, events[2].EventType)
	require.False(t, events[2].Success)
	require.Equal(t, "MALFORMED_TOKEN", events[2].ErrorCode)

	for _, e := range events {
		require.NotContains(t, e.Error, token)
	}

	_, err = NewDecoder(Policy{}, StaticResolver{Key: kp.Public}, WithAuditHandler(handler),
		WithClock(func() time.Time { return testNow }))
	require.ErrorIs(t, err, cvcerr.ErrInvalidConfiguration)
	require.Len(t, handler.ValidationFailures(), 1)
	require.True(t, handler.ValidationFailures()[0].Timestamp.Equal(testNow))

	// Without a clock the encoder leaves the timestamp unset.
	bare := &audit.MemoryHandler{}
	_, err = NewEncoder(WithIssueAudit(bare)).Encode(Header{Algorithm: EdDSA}, NewClaims(), kp.Private)
	require.NoError(t, err)
	require.True(t, bare.Last().Timestamp.IsZero())
}

func TestValidatePolicy(t *testing.T) {
	strict := DefaultPolicy(EdDSA)
	strict.RequireExpiration = true
	strict.ExpectedAudience = "api"
	result := ValidatePolicy(strict)
	require.True(t, result.Valid)
	require.Equal(t, SecurityLevelHigh, result.SecurityLevel)
	require.Empty(t, result.Warnings)

	mixed := DefaultPolicy(EdDSA, HS256, EdDSA)
	result = ValidatePolicy(mixed)
	require.True(t, result.Valid)
	require.Equal(t, SecurityLevelMedium, result.SecurityLevel)
	require.Len(t, result.Warnings, 2)

	bad := Policy{AllowedAlgorithms: []Algorithm{"RS256"}, ClockSkew: -time.Second, MaxTokenSize: -1}
	result = ValidatePolicy(bad)
	require.False(t, result.Valid)
	require.Equal(t, SecurityLevelLow, result.SecurityLevel)
	require.Len(t, result.Errors, 3)

	_, err := ParseAlgorithm(" ES256K ")
	require.NoError(t, err)
	_, err = ParseAlgorithm("none")
	require.ErrorIs(t, err, cvcerr.ErrUnsupportedAlgorithm)

	alg, err := AlgorithmForCurve(curve.Secp256k1)
	require.NoError(t, err)
	require.Equal(t, ES256K, alg)
}
