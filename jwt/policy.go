package jwt

import (
	"fmt"
	"time"
)

// Policy defaults
const (
	DefaultClockSkew    = 60 * time.Second
	DefaultMaxTokenSize = 8 * 1024
	MaxClockSkew        = 5 * time.Minute
)

// SecurityLevel rates a decode policy.
type SecurityLevel string

const (
	SecurityLevelLow    SecurityLevel = "low"
	SecurityLevelMedium SecurityLevel = "medium"
	SecurityLevelHigh   SecurityLevel = "high"
)

// Policy is the caller's explicit decode configuration. The token's own
// header never widens it.
type Policy struct {
	// AllowedAlgorithms lists the algorithms a token may use. Empty allows
	// nothing.
	AllowedAlgorithms []Algorithm `json:"allowed_algorithms" toml:"allowed_algorithms"`
	// ClockSkew is tolerated on exp, nbf and iat.
	ClockSkew time.Duration `json:"clock_skew" toml:"-"`
	// RequireExpiration rejects tokens without exp.
	RequireExpiration bool `json:"require_expiration" toml:"require_expiration"`

	ExpectedIssuer   string `json:"expected_issuer,omitempty" toml:"expected_issuer"`
	ExpectedSubject  string `json:"expected_subject,omitempty" toml:"expected_subject"`
	ExpectedAudience string `json:"expected_audience,omitempty" toml:"expected_audience"`
	ExpectedType     string `json:"expected_type,omitempty" toml:"expected_type"`

	// MaxTokenSize bounds the compact token length in bytes; zero means
	// DefaultMaxTokenSize.
	MaxTokenSize int `json:"max_token_size" toml:"max_token_size"`
}

// DefaultPolicy allows the given algorithms with the default skew and size
// limit.
func DefaultPolicy(algs ...Algorithm) Policy {
	return Policy{
		AllowedAlgorithms: algs,
		ClockSkew:         DefaultClockSkew,
		MaxTokenSize:      DefaultMaxTokenSize,
	}
}

func (p Policy) allows(alg Algorithm) bool {
	for _, a := range p.AllowedAlgorithms {
		if a == alg {
			return true
		}
	}
	return false
}

func (p Policy) maxTokenSize() int {
	if p.MaxTokenSize <= 0 {
		return DefaultMaxTokenSize
	}
	return p.MaxTokenSize
}

// ValidationResult contains the result of policy validation
type ValidationResult struct {
	Valid           bool          `json:"valid"`
	SecurityLevel   SecurityLevel `json:"security_level"`
	Warnings        []string      `json:"warnings,omitempty"`
	Errors          []string      `json:"errors,omitempty"`
	Recommendations []string      `json:"recommendations,omitempty"`
}

// ValidatePolicy checks a decode policy before it is used.
func ValidatePolicy(p Policy) *ValidationResult {
	result := &ValidationResult{
		Valid:           true,
		SecurityLevel:   SecurityLevelHigh,
		Warnings:        []string{},
		Errors:          []string{},
		Recommendations: []string{},
	}

	if len(p.AllowedAlgorithms) == 0 {
		result.Valid = false
		result.Errors = append(result.Errors, "allowed algorithms cannot be empty")
	}

	seen := make(map[Algorithm]bool)
	asymmetric := false
	for _, alg := range p.AllowedAlgorithms {
		if alg == None {
			result.Valid = false
			result.Errors = append(result.Errors, `algorithm "none" cannot be allowed`)
			continue
		}
		if !alg.Implemented() {
			result.Valid = false
			result.Errors = append(result.Errors, fmt.Sprintf("unsupported algorithm: %s", alg))
			continue
		}
		if seen[alg] {
			result.Warnings = append(result.Warnings, fmt.Sprintf("algorithm %s listed more than once", alg))
		}
		seen[alg] = true
		if _, ok := alg.Curve(); ok {
			asymmetric = true
		}
	}

	// Mixing HMAC with public-key algorithms invites key confusion.
	if seen[HS256] && asymmetric {
		result.Warnings = append(result.Warnings, "HS256 is allowed together with public-key algorithms")
		result.Recommendations = append(result.Recommendations, "use a separate policy for HS256 tokens")
		result.SecurityLevel = SecurityLevelMedium
	}

	if p.ClockSkew < 0 {
		result.Valid = false
		result.Errors = append(result.Errors, "clock skew cannot be negative")
	} else if p.ClockSkew > MaxClockSkew {
		result.Warnings = append(result.Warnings, fmt.Sprintf("clock skew %s exceeds %s", p.ClockSkew, MaxClockSkew))
		result.SecurityLevel = SecurityLevelMedium
	}

	if p.MaxTokenSize < 0 {
		result.Valid = false
		result.Errors = append(result.Errors, "max token size cannot be negative")
	}

	if !p.RequireExpiration {
		result.Recommendations = append(result.Recommendations, "require exp so that leaked tokens stop working")
		if result.SecurityLevel == SecurityLevelHigh {
			result.SecurityLevel = SecurityLevelMedium
		}
	}
	if p.ExpectedAudience == "" {
		result.Recommendations = append(result.Recommendations, "set an expected audience")
	}

	if !result.Valid {
		result.SecurityLevel = SecurityLevelLow
	}
	return result
}
