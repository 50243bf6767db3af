package jwt

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"github.com/moatus/cvc/audit"
	"github.com/moatus/cvc/cvcerr"
)

// Token is a verified JWT.
type Token struct {
	Header Header
	Claims *Claims
	// Signature is the raw signature from the third segment.
	Signature []byte
}

// Decoder verifies compact JWS tokens against a fixed policy. It is safe
// for concurrent use if its resolver is.
type Decoder struct {
	policy   Policy
	resolver KeyResolver
	audit    audit.Handler
	clock    Clock
	parser   *jwtlib.Parser
}

// Clock supplies audit timestamps where the caller passes no time. A nil
// Clock stamps events with the zero time; the package never reads the
// system clock itself.
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Time{}
	}
	return c()
}

// DecoderOption configures a Decoder.
type DecoderOption func(*Decoder)

// WithAuditHandler sets the handler told about accepted and rejected tokens.
func WithAuditHandler(h audit.Handler) DecoderOption {
	return func(d *Decoder) { d.audit = audit.OrNull(h) }
}

// WithClock sets the clock that stamps the event emitted when NewDecoder
// rejects a policy. Decode events use the caller's now.
func WithClock(c Clock) DecoderOption {
	return func(d *Decoder) { d.clock = c }
}

// NewDecoder validates policy and returns a decoder that resolves keys with
// resolver.
func NewDecoder(policy Policy, resolver KeyResolver, opts ...DecoderOption) (*Decoder, error) {
	d := newDecoder(policy, resolver)
	for _, opt := range opts {
		opt(d)
	}

	if result := ValidatePolicy(policy); !result.Valid {
		d.audit.OnValidationFailure(audit.NewEventBuilder(audit.EventValidationFailure, d.clock.now()).
			BuildValidationFailure("decode_policy", string(result.SecurityLevel), result.Errors))
		return nil, cvcerr.ErrInvalidConfiguration.
			WithDetails("invalid decode policy: %s", strings.Join(result.Errors, "; "))
	}
	if resolver == nil {
		return nil, cvcerr.ErrInvalidConfiguration.WithDetails("key resolver is required")
	}
	return d, nil
}

func newDecoder(policy Policy, resolver KeyResolver) *Decoder {
	return &Decoder{
		policy:   policy,
		resolver: resolver,
		audit:    audit.NullHandler{},
		parser:   jwtlib.NewParser(jwtlib.WithStrictDecoding()),
	}
}

// Decode parses and verifies token at time now. now is truncated to whole
// seconds. Checks run in a fixed order: size and structure, algorithm
// allow-list, key resolution, signature, then time and claim checks.
func Decode(ctx context.Context, token string, policy Policy, resolver KeyResolver, now time.Time) (*Token, error) {
	d, err := NewDecoder(policy, resolver)
	if err != nil {
		return nil, err
	}
	return d.Decode(ctx, token, now)
}

// Decode parses and verifies token at time now.
func (d *Decoder) Decode(ctx context.Context, token string, now time.Time) (*Token, error) {
	tok, err := d.decode(ctx, token, now.Truncate(time.Second))

	b := audit.NewEventBuilder(audit.EventTokenAccepted, now)
	if tok != nil {
		b.WithAlgorithm(string(tok.Header.Algorithm)).WithKeyID(tok.Header.KeyID)
		if c, ok := tok.Header.Algorithm.Curve(); ok {
			b.WithCurve(string(c))
		}
		if tok.Claims != nil {
			iss, _ := tok.Claims.GetIssuer()
			sub, _ := tok.Claims.GetSubject()
			jti, _ := tok.Claims.GetID()
			b.WithToken(iss, sub, jti)
		}
	}
	if err != nil {
		event := b.WithError(err).Build()
		event.EventType = audit.EventTokenRejected
		d.audit.OnTokenRejected(event)
		return nil, err
	}
	d.audit.OnTokenAccepted(b.Build())
	return tok, nil
}

// decode returns the partially parsed token alongside any error so that
// rejections can still be attributed.
func (d *Decoder) decode(ctx context.Context, raw string, now time.Time) (*Token, error) {
	if len(raw) > d.policy.maxTokenSize() {
		return nil, cvcerr.ErrMalformedToken.WithDetails("token exceeds %d bytes", d.policy.maxTokenSize())
	}

	claims := NewClaims()
	parsed, parts, err := d.parser.ParseUnverified(raw, claims)
	if err != nil && !errors.Is(err, jwtlib.ErrTokenUnverifiable) {
		return nil, cvcerr.ErrMalformedToken.WithCause(err)
	}
	if segment, err := d.parser.DecodeSegment(parts[1]); err != nil || !bytes.HasPrefix(bytes.TrimSpace(segment), []byte("{")) {
		return nil, cvcerr.ErrMalformedToken.WithDetails("claims must be a JSON object")
	}
	header, ok := headerFromMap(parsed.Header)
	if !ok {
		return nil, cvcerr.ErrMalformedToken.WithDetails("header alg, typ and kid must be strings")
	}
	sig, err := d.parser.DecodeSegment(parts[2])
	if err != nil {
		return nil, cvcerr.ErrMalformedToken.WithDetails("signature is not base64url").WithCause(err)
	}
	tok := &Token{Header: header, Claims: claims, Signature: sig}

	// The allow-list is checked before anything touches a key.
	method, implemented := methods[header.Algorithm]
	if !implemented || !d.policy.allows(header.Algorithm) {
		return tok, cvcerr.ErrUnsupportedAlgorithm.WithDetails("algorithm %q is not allowed", header.Algorithm)
	}

	key, err := d.resolver.ResolveKey(ctx, header)
	if err != nil {
		if errors.Is(err, cvcerr.ErrKeyResolution) {
			return tok, err
		}
		return tok, cvcerr.ErrKeyResolution.WithCause(err)
	}
	if err := checkVerificationKey(header.Algorithm, key); err != nil {
		return tok, cvcerr.ErrKeyResolution.WithDetails("resolved key does not fit %s", header.Algorithm).WithCause(err)
	}

	if err := method.Verify(parts[0]+"."+parts[1], sig, key); err != nil {
		return tok, cvcerr.ErrSignatureInvalid.WithCause(err)
	}

	if err := d.checkTimes(claims, now); err != nil {
		return tok, err
	}
	if err := d.checkClaims(header, claims); err != nil {
		return tok, err
	}
	return tok, nil
}

func (d *Decoder) checkTimes(claims *Claims, now time.Time) error {
	skew := d.policy.ClockSkew

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return err
	}
	if exp == nil && d.policy.RequireExpiration {
		return cvcerr.ErrInvalidClaim.WithDetails("exp is required")
	}
	if exp != nil && now.After(exp.Add(skew)) {
		return cvcerr.ErrExpired.WithDetails("expired at %s", exp.UTC().Format(time.RFC3339))
	}

	nbf, err := claims.GetNotBefore()
	if err != nil {
		return err
	}
	if nbf != nil && now.Add(skew).Before(nbf.Time) {
		return cvcerr.ErrNotYetValid.WithDetails("not valid before %s", nbf.UTC().Format(time.RFC3339))
	}

	iat, err := claims.GetIssuedAt()
	if err != nil {
		return err
	}
	if iat != nil && iat.After(now.Add(skew)) {
		return cvcerr.ErrNotYetValid.WithDetails("issued in the future at %s", iat.UTC().Format(time.RFC3339))
	}
	return nil
}

func (d *Decoder) checkClaims(header Header, claims *Claims) error {
	p := d.policy

	if p.ExpectedType != "" && !strings.EqualFold(header.Type, p.ExpectedType) {
		return cvcerr.ErrInvalidClaim.WithDetails("typ %q, want %q", header.Type, p.ExpectedType)
	}
	if p.ExpectedIssuer != "" {
		iss, err := claims.GetIssuer()
		if err != nil {
			return err
		}
		if iss != p.ExpectedIssuer {
			return cvcerr.ErrInvalidClaim.WithDetails("iss %q, want %q", iss, p.ExpectedIssuer)
		}
	}
	if p.ExpectedSubject != "" {
		sub, err := claims.GetSubject()
		if err != nil {
			return err
		}
		if sub != p.ExpectedSubject {
			return cvcerr.ErrInvalidClaim.WithDetails("sub %q, want %q", sub, p.ExpectedSubject)
		}
	}
	if p.ExpectedAudience != "" {
		aud, err := claims.GetAudience()
		if err != nil {
			return err
		}
		found := false
		for _, a := range aud {
			if a == p.ExpectedAudience {
				found = true
				break
			}
		}
		if !found {
			return cvcerr.ErrInvalidClaim.WithDetails("aud does not contain %q", p.ExpectedAudience)
		}
	}
	return nil
}
