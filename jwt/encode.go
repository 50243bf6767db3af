package jwt

import (
	"errors"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"github.com/moatus/cvc/audit"
	"github.com/moatus/cvc/cvcerr"
)

// Encode signs claims into a compact JWS. The key is a *keys.PrivateKey on
// the algorithm's curve, or a []byte secret of at least MinHMACKeySize bytes
// for HS256. The header JSON is written with sorted keys and the claims keep
// their insertion order.
func Encode(header Header, claims *Claims, key interface{}) (string, error) {
	method, ok := methods[header.Algorithm]
	if !ok {
		return "", cvcerr.ErrUnsupportedAlgorithm.WithDetails("cannot sign with %q", header.Algorithm)
	}
	if err := checkSigningKey(header.Algorithm, key); err != nil {
		return "", err
	}
	if claims == nil {
		claims = NewClaims()
	}

	token := jwtlib.NewWithClaims(method, claims)
	if header.Type != "" {
		token.Header["typ"] = header.Type
	}
	if header.KeyID != "" {
		token.Header["kid"] = header.KeyID
	}

	signed, err := token.SignedString(key)
	if err != nil {
		var cerr *cvcerr.Error
		if errors.As(err, &cerr) {
			return "", err
		}
		return "", cvcerr.ErrInvalidEncoding.WithDetails("could not sign token").WithCause(err)
	}
	return signed, nil
}

// Encoder issues tokens and reports each one to an audit handler.
type Encoder struct {
	audit audit.Handler
	clock Clock
}

// EncoderOption configures an Encoder.
type EncoderOption func(*Encoder)

// WithIssueAudit sets the handler told about issued tokens.
func WithIssueAudit(h audit.Handler) EncoderOption {
	return func(e *Encoder) { e.audit = audit.OrNull(h) }
}

// WithIssueClock sets the clock that stamps token-issued events.
func WithIssueClock(c Clock) EncoderOption {
	return func(e *Encoder) { e.clock = c }
}

// NewEncoder creates an encoder. Without options it behaves like Encode.
func NewEncoder(opts ...EncoderOption) *Encoder {
	e := &Encoder{audit: audit.NullHandler{}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Encode signs claims and emits a token-issued event. The event carries
// claim identifiers only, never the token, and is stamped by the encoder's
// clock.
func (e *Encoder) Encode(header Header, claims *Claims, key interface{}) (string, error) {
	signed, err := Encode(header, claims, key)

	b := audit.NewEventBuilder(audit.EventTokenIssued, e.clock.now()).
		WithAlgorithm(string(header.Algorithm)).
		WithKeyID(header.KeyID)
	if c, ok := header.Algorithm.Curve(); ok {
		b.WithCurve(string(c))
	}
	if claims != nil {
		iss, _ := claims.GetIssuer()
		sub, _ := claims.GetSubject()
		jti, _ := claims.GetID()
		b.WithToken(iss, sub, jti)
	}
	if err != nil {
		b.WithError(err)
	}
	e.audit.OnTokenIssued(b.Build())
	return signed, err
}
