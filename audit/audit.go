// Package audit provides structured security-event logging for the
// protocol core: a typed event/severity enum and a logger that emits each
// event as a single line of JSON, scoped to the events a ratchet
// implementation actually produces.
package audit

import (
	"encoding/json"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
)

// EventType classifies a security-relevant event the core observed.
type EventType string

const (
	EventIdentityKeyChanged    EventType = "identity_key_changed"
	EventSessionEstablished    EventType = "session_established"
	EventDuplicateMessage      EventType = "duplicate_message"
	EventInvalidMAC            EventType = "invalid_mac"
	EventInvalidSignature      EventType = "invalid_signature"
	EventUntrustedIdentity     EventType = "untrusted_identity"
	EventSenderKeyDistributed  EventType = "sender_key_distributed"
	EventSenderKeyStateEvicted EventType = "sender_key_state_evicted"
)

// Severity is a coarse compliance-style severity rating for an Event.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityInfo     Severity = "info"
)

// Event is one structured audit record.
type Event struct {
	ID       uuid.UUID      `json:"id"`
	Time     time.Time      `json:"time"`
	Type     EventType      `json:"event_type"`
	Severity Severity       `json:"severity"`
	Address  string         `json:"address,omitempty"`
	Data     map[string]any `json:"event_data,omitempty"`
}

// Logger emits Events to an underlying, module-tagged *log.Logger as
// single-line JSON.
type Logger struct {
	out *log.Logger
}

// NewLogger builds a Logger writing to os.Stderr with an "audit: " prefix.
func NewLogger() *Logger {
	return &Logger{out: log.New(os.Stderr, "audit: ", log.LstdFlags)}
}

// NewLoggerWithOutput builds a Logger writing to out, useful for tests and
// for redirecting into a structured log pipeline.
func NewLoggerWithOutput(out *log.Logger) *Logger {
	return &Logger{out: out}
}

// Record constructs and emits an Event with a fresh id and the current
// time.
func (l *Logger) Record(eventType EventType, severity Severity, address string, data map[string]any) {
	ev := Event{
		ID:       uuid.New(),
		Time:     time.Now(),
		Type:     eventType,
		Severity: severity,
		Address:  address,
		Data:     data,
	}
	body, err := json.Marshal(ev)
	if err != nil {
		l.out.Printf("failed to marshal audit event %s: %v", eventType, err)
		return
	}
	l.out.Println(string(body))
}
