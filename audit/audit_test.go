package audit

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/moatus/cvc/cvcerr"
)

var testTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func TestEventBuilder(t *testing.T) {
	event := NewEventBuilder(EventTokenRejected, testTime).
		WithAlgorithm("ES256").
		WithKeyID("k1").
		WithToken("issuer", "subject", "jti-1").
		WithError(cvcerr.ErrExpired.WithDetails("exp passed")).
		WithMetadata("skew", 30).
		Build()

	if _, err := uuid.Parse(event.EventID); err != nil {
		t.Errorf("event id should be a UUID: %v", err)
	}
	if !event.Timestamp.Equal(testTime) {
		t.Errorf("timestamp = %v, want %v", event.Timestamp, testTime)
	}
	if event.Success {
		t.Error("event with an error should not be successful")
	}
	if event.ErrorCode != "EXPIRED" {
		t.Errorf("error code = %q, want EXPIRED", event.ErrorCode)
	}

	data, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("Failed to marshal event: %v", err)
	}
	var decoded Event
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Failed to unmarshal event: %v", err)
	}
	if decoded.EventType != EventTokenRejected || decoded.Subject != "subject" {
		t.Errorf("event did not survive JSON: %+v", decoded)
	}

	other := NewEventBuilder(EventTokenIssued, testTime).Build()
	if other.EventID == event.EventID {
		t.Error("event ids should be unique")
	}
	if !other.Success {
		t.Error("events default to success")
	}
}

func TestForeignErrorHasNoCode(t *testing.T) {
	event := NewEventBuilder(EventTokenRejected, testTime).WithError(errors.New("boom")).Build()
	if event.ErrorCode != "" || event.Error != "boom" {
		t.Errorf("unexpected error fields: %q %q", event.ErrorCode, event.Error)
	}
}

func TestLogHandler(t *testing.T) {
	logger, hook := test.NewNullLogger()
	h := NewLogHandler(logger)

	h.OnTokenAccepted(NewEventBuilder(EventTokenAccepted, testTime).WithAlgorithm("EdDSA").Build())
	entry := hook.LastEntry()
	if entry == nil || entry.Level != logrus.InfoLevel {
		t.Fatalf("expected an info entry, got %+v", entry)
	}
	if entry.Data["alg"] != "EdDSA" {
		t.Errorf("alg field = %v, want EdDSA", entry.Data["alg"])
	}

	h.OnTokenRejected(NewEventBuilder(EventTokenRejected, testTime).WithError(cvcerr.ErrSignatureInvalid).Build())
	entry = hook.LastEntry()
	if entry.Level != logrus.WarnLevel {
		t.Errorf("rejections should log at warning level, got %s", entry.Level)
	}
	if entry.Data["code"] != "SIGNATURE_INVALID" {
		t.Errorf("code field = %v, want SIGNATURE_INVALID", entry.Data["code"])
	}

	h.OnValidationFailure(NewEventBuilder(EventValidationFailure, testTime).
		BuildValidationFailure("policy", "low", []string{"no algorithms allowed"}))
	if got := len(hook.AllEntries()); got != 3 {
		t.Errorf("expected 3 entries, got %d", got)
	}
}

func TestMemoryAndNullHandlers(t *testing.T) {
	var h Handler = &MemoryHandler{}
	h.OnKeyGenerated(NewEventBuilder(EventKeyGenerated, testTime).WithCurve("P-256").Build())
	h.OnTokenIssued(NewEventBuilder(EventTokenIssued, testTime).Build())
	h.OnValidationFailure(NewEventBuilder(EventValidationFailure, testTime).BuildValidationFailure("policy", "low", nil))

	mem := h.(*MemoryHandler)
	if len(mem.Events()) != 2 || mem.Last().EventType != EventTokenIssued {
		t.Errorf("unexpected events: %+v", mem.Events())
	}
	if len(mem.ValidationFailures()) != 1 {
		t.Errorf("expected one validation failure")
	}

	if _, ok := OrNull(nil).(NullHandler); !ok {
		t.Error("OrNull(nil) should return a NullHandler")
	}
	if OrNull(h) != h {
		t.Error("OrNull should keep a non-nil handler")
	}
}
