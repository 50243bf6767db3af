package audit

import (
	"github.com/sirupsen/logrus"
)

// LogHandler writes audit events as structured logrus entries. Rejections
// are logged at warning level, everything else at info.
type LogHandler struct {
	log logrus.FieldLogger
}

// NewLogHandler returns a handler writing to log, or to the logrus standard
// logger when log is nil.
func NewLogHandler(log logrus.FieldLogger) *LogHandler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &LogHandler{log: log}
}

func (h *LogHandler) OnTokenIssued(event *Event) {
	h.entry(event).Info("token issued")
}

func (h *LogHandler) OnTokenAccepted(event *Event) {
	h.entry(event).Info("token accepted")
}

func (h *LogHandler) OnTokenRejected(event *Event) {
	h.entry(event).Warn("token rejected")
}

func (h *LogHandler) OnKeyGenerated(event *Event) {
	h.entry(event).Info("key generated")
}

func (h *LogHandler) OnValidationFailure(event *ValidationFailureEvent) {
	h.entry(&event.Event).WithFields(logrus.Fields{
		"validation_type": event.ValidationType,
		"security_level":  event.SecurityLevel,
		"failures":        event.Failures,
	}).Warn("configuration rejected")
}

func (h *LogHandler) entry(event *Event) logrus.FieldLogger {
	fields := logrus.Fields{
		"event_id":   event.EventID,
		"event_type": string(event.EventType),
		"success":    event.Success,
	}
	if !event.Timestamp.IsZero() {
		fields["event_time"] = event.Timestamp
	}
	if event.Algorithm != "" {
		fields["alg"] = event.Algorithm
	}
	if event.KeyID != "" {
		fields["kid"] = event.KeyID
	}
	if event.CurveName != "" {
		fields["curve"] = event.CurveName
	}
	if event.Issuer != "" {
		fields["iss"] = event.Issuer
	}
	if event.Subject != "" {
		fields["sub"] = event.Subject
	}
	if event.TokenID != "" {
		fields["jti"] = event.TokenID
	}
	if event.ErrorCode != "" {
		fields["code"] = event.ErrorCode
	}
	if event.Error != "" {
		fields[logrus.ErrorKey] = event.Error
	}
	for k, v := range event.Metadata {
		fields["meta."+k] = v
	}
	return h.log.WithFields(fields)
}
