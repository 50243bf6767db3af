package audit

import "sync"

// MemoryHandler keeps every event in memory, in arrival order.
type MemoryHandler struct {
	mu       sync.Mutex
	events   []*Event
	failures []*ValidationFailureEvent
}

func (h *MemoryHandler) record(event *Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
}

func (h *MemoryHandler) OnTokenIssued(event *Event)   { h.record(event) }
func (h *MemoryHandler) OnTokenAccepted(event *Event) { h.record(event) }
func (h *MemoryHandler) OnTokenRejected(event *Event) { h.record(event) }
func (h *MemoryHandler) OnKeyGenerated(event *Event)  { h.record(event) }

func (h *MemoryHandler) OnValidationFailure(event *ValidationFailureEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.failures = append(h.failures, event)
}

// Events returns a copy of the recorded events.
func (h *MemoryHandler) Events() []*Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*Event(nil), h.events...)
}

// ValidationFailures returns a copy of the recorded validation failures.
func (h *MemoryHandler) ValidationFailures() []*ValidationFailureEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*ValidationFailureEvent(nil), h.failures...)
}

// Last returns the most recent event, or nil.
func (h *MemoryHandler) Last() *Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.events) == 0 {
		return nil
	}
	return h.events[len(h.events)-1]
}
