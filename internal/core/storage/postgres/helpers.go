package postgres

import (
	"encoding/json"
	"fmt"

	v1 "github.com/kinlog-lab/kinlog/internal/api/v1"
	"github.com/lib/pq"
)

// marshalPayload encodes an event payload for the JSONB column.
// A nil payload is stored as an empty object, never as SQL NULL.
func marshalPayload(event *v1.Event) ([]byte, error) {
	doc := event.Payload
	if doc == nil {
		doc = map[string]interface{}{}
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return raw, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

// scanEventRow scans one row selected with eventColumns into an Event.
// Compatible with both sql.Row (single) and sql.Rows (multiple).
func scanEventRow(row scanner) (*v1.Event, error) {
	var evt v1.Event
	var payloadJSON []byte

	err := row.Scan(
		&evt.ID,
		&evt.Type,
		&evt.OccurredAt,
		pq.Array(&evt.AggregateIDs),
		&payloadJSON,
		&evt.Seq,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan event row: %w", err)
	}

	evt.OccurredAt = evt.OccurredAt.UTC()

	if len(payloadJSON) > 0 {
		if err := json.Unmarshal(payloadJSON, &evt.Payload); err != nil {
			return nil, fmt.Errorf("failed to unmarshal payload of event %s: %w", evt.ID, err)
		}
	}
	if evt.Payload == nil {
		evt.Payload = map[string]interface{}{}
	}

	return &evt, nil
}
