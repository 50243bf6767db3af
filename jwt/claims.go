package jwt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"github.com/moatus/cvc/cvcerr"
)

// Registered claim names.
const (
	ClaimIssuer     = "iss"
	ClaimSubject    = "sub"
	ClaimAudience   = "aud"
	ClaimExpiration = "exp"
	ClaimNotBefore  = "nbf"
	ClaimIssuedAt   = "iat"
	ClaimID         = "jti"
)

// Claims is a JSON object that remembers the order its members were set or
// parsed in, so a decoded token serializes back to the same bytes. Values
// are int64, float64, string, bool, nil, []any or nested *Claims.
//
// Claims implements the golang-jwt Claims interface.
type Claims struct {
	names  []string
	values map[string]any
}

// NewClaims returns an empty claim set.
func NewClaims() *Claims {
	return &Claims{values: make(map[string]any)}
}

// Set adds or replaces a claim. A new name goes to the end; replacing keeps
// the original position. Integer values of any width are stored as int64.
func (c *Claims) Set(name string, value any) *Claims {
	if c.values == nil {
		c.values = make(map[string]any)
	}
	if _, ok := c.values[name]; !ok {
		c.names = append(c.names, name)
	}
	c.values[name] = normalize(value)
	return c
}

// Get returns a claim value.
func (c *Claims) Get(name string) (any, bool) {
	v, ok := c.values[name]
	return v, ok
}

// Delete removes a claim.
func (c *Claims) Delete(name string) {
	if _, ok := c.values[name]; !ok {
		return
	}
	delete(c.values, name)
	for i, n := range c.names {
		if n == name {
			c.names = append(c.names[:i], c.names[i+1:]...)
			break
		}
	}
}

// Names returns the claim names in order.
func (c *Claims) Names() []string {
	return append([]string(nil), c.names...)
}

// Len returns the number of claims.
func (c *Claims) Len() int { return len(c.names) }

// Equal reports whether c and o hold the same claims in the same order.
func (c *Claims) Equal(o *Claims) bool {
	a, err1 := json.Marshal(c)
	b, err2 := json.Marshal(o)
	return err1 == nil && err2 == nil && bytes.Equal(a, b)
}

// SetIssuer sets "iss".
func (c *Claims) SetIssuer(iss string) *Claims { return c.Set(ClaimIssuer, iss) }

// SetSubject sets "sub".
func (c *Claims) SetSubject(sub string) *Claims { return c.Set(ClaimSubject, sub) }

// SetAudience sets "aud", as a string for one audience and an array otherwise.
func (c *Claims) SetAudience(aud ...string) *Claims {
	if len(aud) == 1 {
		return c.Set(ClaimAudience, aud[0])
	}
	list := make([]any, len(aud))
	for i, a := range aud {
		list[i] = a
	}
	return c.Set(ClaimAudience, list)
}

// SetExpiration sets "exp" to t in whole seconds.
func (c *Claims) SetExpiration(t time.Time) *Claims { return c.Set(ClaimExpiration, t.Unix()) }

// SetNotBefore sets "nbf" to t in whole seconds.
func (c *Claims) SetNotBefore(t time.Time) *Claims { return c.Set(ClaimNotBefore, t.Unix()) }

// SetIssuedAt sets "iat" to t in whole seconds.
func (c *Claims) SetIssuedAt(t time.Time) *Claims { return c.Set(ClaimIssuedAt, t.Unix()) }

// SetID sets "jti".
func (c *Claims) SetID(id string) *Claims { return c.Set(ClaimID, id) }

func (c *Claims) GetExpirationTime() (*jwtlib.NumericDate, error) { return c.numericDate(ClaimExpiration) }
func (c *Claims) GetNotBefore() (*jwtlib.NumericDate, error)      { return c.numericDate(ClaimNotBefore) }
func (c *Claims) GetIssuedAt() (*jwtlib.NumericDate, error)       { return c.numericDate(ClaimIssuedAt) }
func (c *Claims) GetIssuer() (string, error)                      { return c.str(ClaimIssuer) }
func (c *Claims) GetSubject() (string, error)                     { return c.str(ClaimSubject) }

// GetID returns "jti", or "" when absent.
func (c *Claims) GetID() (string, error) { return c.str(ClaimID) }

// GetAudience returns "aud" as a list whether it was a string or an array.
func (c *Claims) GetAudience() (jwtlib.ClaimStrings, error) {
	v, ok := c.values[ClaimAudience]
	if !ok {
		return nil, nil
	}
	switch aud := v.(type) {
	case string:
		return jwtlib.ClaimStrings{aud}, nil
	case []any:
		out := make(jwtlib.ClaimStrings, 0, len(aud))
		for _, a := range aud {
			s, ok := a.(string)
			if !ok {
				return nil, cvcerr.ErrInvalidClaim.WithDetails("aud entries must be strings")
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, cvcerr.ErrInvalidClaim.WithDetails("aud must be a string or an array of strings")
	}
}

func (c *Claims) str(name string) (string, error) {
	v, ok := c.values[name]
	if !ok {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", cvcerr.ErrInvalidClaim.WithDetails("%s must be a string", name)
	}
	return s, nil
}

// maxNumericDate bounds NumericDate seconds so that time.Unix and the skew
// arithmetic cannot overflow.
const maxNumericDate = 1 << 62

func (c *Claims) numericDate(name string) (*jwtlib.NumericDate, error) {
	v, ok := c.values[name]
	if !ok {
		return nil, nil
	}
	switch n := v.(type) {
	case int64:
		if n > maxNumericDate || n < -maxNumericDate {
			return nil, cvcerr.ErrInvalidClaim.WithDetails("%s is out of range", name)
		}
		return jwtlib.NewNumericDate(time.Unix(n, 0)), nil
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return nil, cvcerr.ErrInvalidClaim.WithDetails("%s is not a finite number", name)
		}
		if math.Abs(n) > maxNumericDate {
			return nil, cvcerr.ErrInvalidClaim.WithDetails("%s is out of range", name)
		}
		sec, frac := math.Modf(n)
		return &jwtlib.NumericDate{Time: time.Unix(int64(sec), int64(frac*1e9))}, nil
	default:
		return nil, cvcerr.ErrInvalidClaim.WithDetails("%s must be a NumericDate", name)
	}
}

// MarshalJSON writes the members in order.
func (c *Claims) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range c.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(c.values[name])
		if err != nil {
			return nil, fmt.Errorf("claim %q: %w", name, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON parses a JSON object, keeping member order. Integers that
// fit in int64 stay integers; other numbers become float64. Duplicate
// member names are rejected.
func (c *Claims) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return cvcerr.ErrInvalidEncoding.WithDetails("claims must be a JSON object")
	}
	parsed, err := decodeObject(dec)
	if err != nil {
		return err
	}
	if _, err := dec.Token(); err != io.EOF {
		return cvcerr.ErrInvalidEncoding.WithDetails("trailing data after claims object")
	}
	*c = *parsed
	return nil
}

// decodeObject reads members up to and including the closing brace.
func decodeObject(dec *json.Decoder) (*Claims, error) {
	out := NewClaims()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		name, ok := tok.(string)
		if !ok {
			return nil, cvcerr.ErrInvalidEncoding.WithDetails("object key is not a string")
		}
		if _, dup := out.values[name]; dup {
			return nil, cvcerr.ErrInvalidEncoding.WithDetails("duplicate member %q", name)
		}
		v, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		out.names = append(out.names, name)
		out.values[name] = v
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return out, nil
}

func decodeArray(dec *json.Decoder) ([]any, error) {
	out := []any{}
	for dec.More() {
		v, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return out, nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch v := tok.(type) {
	case json.Delim:
		switch v {
		case '{':
			return decodeObject(dec)
		case '[':
			return decodeArray(dec)
		}
		return nil, cvcerr.ErrInvalidEncoding.WithDetails("unexpected %q", v)
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i, nil
		}
		f, err := v.Float64()
		if err != nil {
			return nil, cvcerr.ErrInvalidEncoding.WithDetails("number %s out of range", v)
		}
		return f, nil
	default:
		// string, bool or nil
		return v, nil
	}
}

func normalize(v any) any {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int8:
		return int64(n)
	case int16:
		return int64(n)
	case int32:
		return int64(n)
	case uint8:
		return int64(n)
	case uint16:
		return int64(n)
	case uint32:
		return int64(n)
	case float32:
		return float64(n)
	case []string:
		list := make([]any, len(n))
		for i, s := range n {
			list[i] = s
		}
		return list
	default:
		return v
	}
}
