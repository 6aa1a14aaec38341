package v1

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event is the atomic unit of the system: an immutable record of something that happened.
// It separates the "Envelope" (identity, type, time) from the "Letter" (Payload).
type Event struct {
	// --- System Attributes (The Envelope) ---

	// ID is the globally unique identifier assigned when the event is created.
	// It never changes, not even when a backfill corrects the payload.
	ID string `json:"id"`

	// Type is the discriminated tag identifying the payload shape
	// (e.g. "PersonClonedForSharing", "UserCreatedNewRelationship").
	Type string `json:"type"`

	// OccurredAt defines the total replay order. Ties are broken by Seq.
	OccurredAt time.Time `json:"occurred_at"`

	// AggregateIDs are optional secondary identifiers usable for coarse filtering.
	AggregateIDs []string `json:"aggregate_ids,omitempty"`

	// Seq is the storage insertion order (BIGSERIAL in Postgres).
	// Set by the store, not exposed in public API.
	Seq int64 `json:"-"`

	// --- User Payload (The Letter) ---

	// Payload is the type-specific, schema-free document. Nesting is permitted.
	Payload map[string]interface{} `json:"payload"`
}

// NewEvent builds an event with a fresh uuid and a UTC timestamp.
func NewEvent(eventType string, payload map[string]interface{}, now time.Time) *Event {
	if payload == nil {
		payload = map[string]interface{}{}
	}
	return &Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: now.UTC(),
		Payload:    payload,
	}
}

// Validate ensures the event has all required system attributes.
// A nil payload is normalised to an empty document.
func (e *Event) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("id is required")
	}

	if e.Type == "" {
		return fmt.Errorf("type is required")
	}

	if e.OccurredAt.IsZero() {
		return fmt.Errorf("occurred_at is required")
	}

	if e.Payload == nil {
		e.Payload = map[string]interface{}{}
	}

	return nil
}

// String returns the value of a top-level string payload field, or "" when absent.
func (e *Event) String(field string) string {
	if e == nil || e.Payload == nil {
		return ""
	}
	s, _ := e.Payload[field].(string)
	return s
}
