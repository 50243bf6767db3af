package audit

import (
	"time"

	"github.com/google/uuid"

	"github.com/moatus/cvc/cvcerr"
)

// EventType represents the type of audit event
type EventType string

const (
	// Token events
	EventTokenIssued   EventType = "token_issued"
	EventTokenAccepted EventType = "token_accepted"
	EventTokenRejected EventType = "token_rejected"

	// Key events
	EventKeyGenerated EventType = "key_generated"

	// Configuration events
	EventValidationFailure EventType = "validation_failure"
)

// Event is a single security-relevant outcome. Events never carry key
// material, signatures or raw tokens.
type Event struct {
	// Event metadata
	EventID   string    `json:"event_id"`
	Timestamp time.Time `json:"timestamp"`
	EventType EventType `json:"event_type"`

	// Context information
	Algorithm string `json:"algorithm,omitempty"`
	KeyID     string `json:"key_id,omitempty"`
	CurveName string `json:"curve_name,omitempty"`
	Issuer    string `json:"issuer,omitempty"`
	Subject   string `json:"subject,omitempty"`
	TokenID   string `json:"token_id,omitempty"`

	// Success/failure information
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
	ErrorCode string `json:"error_code,omitempty"`

	// Additional context
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// ValidationFailureEvent contains details about rejected configuration
type ValidationFailureEvent struct {
	Event

	ValidationType string   `json:"validation_type"` // "policy", "key"
	SecurityLevel  string   `json:"security_level"`
	Failures       []string `json:"failures"`
}

// Handler receives audit events. Applications implement it to record events
// according to their needs; implementations must be safe for concurrent use.
type Handler interface {
	// OnTokenIssued is called after a token has been signed
	OnTokenIssued(event *Event)

	// OnTokenAccepted is called when a token passed every check
	OnTokenAccepted(event *Event)

	// OnTokenRejected is called when decoding fails for any reason
	OnTokenRejected(event *Event)

	// OnKeyGenerated is called when a new key pair is created
	OnKeyGenerated(event *Event)

	// OnValidationFailure is called when a configuration is rejected
	OnValidationFailure(event *ValidationFailureEvent)
}

// NullHandler is a no-op implementation of Handler
type NullHandler struct{}

func (NullHandler) OnTokenIssued(event *Event)                        {}
func (NullHandler) OnTokenAccepted(event *Event)                      {}
func (NullHandler) OnTokenRejected(event *Event)                      {}
func (NullHandler) OnKeyGenerated(event *Event)                       {}
func (NullHandler) OnValidationFailure(event *ValidationFailureEvent) {}

// OrNull returns h, or a NullHandler when h is nil.
func OrNull(h Handler) Handler {
	if h == nil {
		return NullHandler{}
	}
	return h
}

// EventBuilder helps construct audit events with proper defaults
type EventBuilder struct {
	event *Event
}

// NewEventBuilder creates a new event builder stamped with the caller's time.
func NewEventBuilder(eventType EventType, at time.Time) *EventBuilder {
	return &EventBuilder{
		event: &Event{
			EventID:   uuid.NewString(),
			Timestamp: at,
			EventType: eventType,
			Success:   true, // Default to success, can be overridden
			Metadata:  make(map[string]interface{}),
		},
	}
}

// WithAlgorithm sets the JWS algorithm
func (b *EventBuilder) WithAlgorithm(alg string) *EventBuilder {
	b.event.Algorithm = alg
	return b
}

// WithKeyID sets the key identifier
func (b *EventBuilder) WithKeyID(kid string) *EventBuilder {
	b.event.KeyID = kid
	return b
}

// WithCurve sets the curve name for the event
func (b *EventBuilder) WithCurve(curveName string) *EventBuilder {
	b.event.CurveName = curveName
	return b
}

// WithToken sets the registered claims that identify a token
func (b *EventBuilder) WithToken(issuer, subject, tokenID string) *EventBuilder {
	b.event.Issuer = issuer
	b.event.Subject = subject
	b.event.TokenID = tokenID
	return b
}

// WithError marks the event as failed and records the error and its code
func (b *EventBuilder) WithError(err error) *EventBuilder {
	b.event.Success = false
	if err != nil {
		b.event.Error = err.Error()
		b.event.ErrorCode = cvcerr.Code(err)
	}
	return b
}

// WithMetadata adds metadata to the event
func (b *EventBuilder) WithMetadata(key string, value interface{}) *EventBuilder {
	b.event.Metadata[key] = value
	return b
}

// Build returns the constructed audit event
func (b *EventBuilder) Build() *Event {
	return b.event
}

// BuildValidationFailure returns a ValidationFailureEvent
func (b *EventBuilder) BuildValidationFailure(validationType, securityLevel string, failures []string) *ValidationFailureEvent {
	b.event.Success = false
	return &ValidationFailureEvent{
		Event:          *b.event,
		ValidationType: validationType,
		SecurityLevel:  securityLevel,
		Failures:       failures,
	}
}
