// Package cvcerr defines the typed error taxonomy shared by every cvc package.
//
// Errors are values of *Error carrying a category and a stable code. Sentinels
// below are templates: callers attach causes or details with WithCause and
// WithDetails, and errors.Is still matches the resulting copies against the
// sentinel because matching is done on category and code.
package cvcerr

import (
	"errors"
	"fmt"
)

// Category represents the category of a cvc error
type Category string

const (
	CategoryArithmetic    Category = "arithmetic"
	CategoryDecode        Category = "decode"
	CategoryVerify        Category = "verify"
	CategoryJWT           Category = "jwt"
	CategoryEntropy       Category = "entropy"
	CategoryConfiguration Category = "configuration"
	CategoryKey           Category = "key"
)

// Severity represents the severity level of an error
type Severity string

const (
	SeverityLow      Severity = "low"      // Rejected input, caller may retry with other input
	SeverityMedium   Severity = "medium"   // Rejected credential or token
	SeverityHigh     Severity = "high"     // Invalid key material or misuse
	SeverityCritical Severity = "critical" // Environment failure, e.g. no entropy
)

// Error represents a structured error in the cvc library
type Error struct {
	Category Category               `json:"category"`
	Severity Severity               `json:"severity"`
	Code     string                 `json:"code"`
	Message  string                 `json:"message"`
	Details  string                 `json:"details,omitempty"`
	Cause    error                  `json:"-"`
	Context  map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s:%s] %s", e.Category, e.Code, e.Message)
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a cvc error with the same category and code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Category == t.Category && e.Code == t.Code
}

func (e *Error) clone() *Error {
	c := &Error{
		Category: e.Category,
		Severity: e.Severity,
		Code:     e.Code,
		Message:  e.Message,
		Details:  e.Details,
		Cause:    e.Cause,
		Context:  make(map[string]interface{}, len(e.Context)),
	}
	for k, v := range e.Context {
		c.Context[k] = v
	}
	return c
}

// WithCause returns a copy of the error wrapping cause
func (e *Error) WithCause(cause error) *Error {
	c := e.clone()
	c.Cause = cause
	return c
}

// WithDetails returns a copy of the error with a formatted detail string
func (e *Error) WithDetails(format string, args ...interface{}) *Error {
	c := e.clone()
	c.Details = fmt.Sprintf(format, args...)
	return c
}

// WithContext returns a copy of the error with an extra context entry.
// Context values must never carry key material.
func (e *Error) WithContext(key string, value interface{}) *Error {
	c := e.clone()
	c.Context[key] = value
	return c
}

// New creates a new cvc error
func New(category Category, severity Severity, code, message string) *Error {
	return &Error{
		Category: category,
		Severity: severity,
		Code:     code,
		Message:  message,
		Context:  make(map[string]interface{}),
	}
}

// Arithmetic errors
var (
	ErrNotInvertible = New(CategoryArithmetic, SeverityHigh, "NOT_INVERTIBLE",
		"element is not invertible")
	ErrNoSquareRoot = New(CategoryArithmetic, SeverityLow, "NO_SQUARE_ROOT",
		"element is not a quadratic residue")
)

// Decode errors
var (
	ErrInvalidLength = New(CategoryDecode, SeverityLow, "INVALID_LENGTH",
		"encoding has invalid length")
	ErrNonCanonical = New(CategoryDecode, SeverityLow, "NON_CANONICAL",
		"encoding is not canonical")
	ErrNotOnCurve = New(CategoryDecode, SeverityLow, "NOT_ON_CURVE",
		"point is not on the curve")
	ErrInvalidEncoding = New(CategoryDecode, SeverityLow, "INVALID_ENCODING",
		"encoding format is invalid")
)

// Verify errors
var (
	ErrSignatureMismatch = New(CategoryVerify, SeverityMedium, "SIGNATURE_MISMATCH",
		"signature does not match message and public key")
	ErrMalformedSignature = New(CategoryVerify, SeverityMedium, "MALFORMED_SIGNATURE",
		"signature is malformed")
	ErrInvalidPublicKey = New(CategoryVerify, SeverityHigh, "INVALID_PUBLIC_KEY",
		"public key is invalid")
)

// JWT errors
var (
	ErrMalformedToken = New(CategoryJWT, SeverityLow, "MALFORMED_TOKEN",
		"token is malformed")
	ErrUnsupportedAlgorithm = New(CategoryJWT, SeverityMedium, "UNSUPPORTED_ALGORITHM",
		"token algorithm is not allowed")
	ErrSignatureInvalid = New(CategoryJWT, SeverityMedium, "SIGNATURE_INVALID",
		"token signature is invalid")
	ErrExpired = New(CategoryJWT, SeverityLow, "EXPIRED",
		"token is expired")
	ErrNotYetValid = New(CategoryJWT, SeverityLow, "NOT_YET_VALID",
		"token is not valid yet")
	ErrKeyResolution = New(CategoryJWT, SeverityMedium, "KEY_RESOLUTION_FAILED",
		"verification key could not be resolved")
	ErrInvalidClaim = New(CategoryJWT, SeverityMedium, "INVALID_CLAIM",
		"token claim failed validation")
)

// Entropy, configuration and key errors
var (
	ErrInsufficientEntropy = New(CategoryEntropy, SeverityCritical, "INSUFFICIENT_ENTROPY",
		"random source could not supply enough bytes")
	ErrInvalidConfiguration = New(CategoryConfiguration, SeverityHigh, "INVALID_CONFIGURATION",
		"configuration is invalid")
	ErrUnsupportedCurve = New(CategoryConfiguration, SeverityHigh, "UNSUPPORTED_CURVE",
		"curve is not supported")
	ErrInvalidPrivateKey = New(CategoryKey, SeverityHigh, "INVALID_PRIVATE_KEY",
		"private key is invalid")
	ErrKeyMismatch = New(CategoryKey, SeverityHigh, "KEY_MISMATCH",
		"key does not fit the requested operation")
	ErrKeyDestroyed = New(CategoryKey, SeverityHigh, "KEY_DESTROYED",
		"key material has been zeroized")
)

// IsCategory checks if an error belongs to a specific category
func IsCategory(err error, category Category) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Category == category
	}
	return false
}

// IsSeverity checks if an error has a specific severity
func IsSeverity(err error, severity Severity) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Severity == severity
	}
	return false
}

// Code returns the code of a cvc error, or "" for foreign errors
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
