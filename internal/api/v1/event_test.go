package v1

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestEvent_Validation(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		event   Event
		wantErr string
		checkFn func(*testing.T, *Event)
	}{
		{
			name: "valid event with all fields",
			event: Event{
				ID:         "evt_123",
				Type:       TypePersonNamed,
				OccurredAt: now,
				Payload:    map[string]interface{}{"personId": "p-1"},
			},
		},
		{
			name: "nil payload becomes empty document",
			event: Event{
				ID:         "evt_124",
				Type:       TypeSystemBootstrapped,
				OccurredAt: now,
			},
			checkFn: func(t *testing.T, e *Event) {
				require.NotNil(t, e.Payload)
				require.Empty(t, e.Payload)
			},
		},
		{
			name:    "missing id",
			event:   Event{Type: TypePersonNamed, OccurredAt: now},
			wantErr: "id is required",
		},
		{
			name:    "missing type",
			event:   Event{ID: "evt_1", OccurredAt: now},
			wantErr: "type is required",
		},
		{
			name:    "missing occurred_at",
			event:   Event{ID: "evt_1", Type: TypePersonNamed},
			wantErr: "occurred_at is required",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.event.Validate()
			if tc.wantErr != "" {
				require.EqualError(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			if tc.checkFn != nil {
				tc.checkFn(t, &tc.event)
			}
		})
	}
}

func TestNewEvent(t *testing.T) {
	local := time.Date(2026, 3, 1, 9, 30, 0, 0, time.FixedZone("CET", 3600))

	evt := NewEvent(TypeMigrationStart, map[string]interface{}{"name": "person-clone"}, local)

	_, err := uuid.Parse(evt.ID)
	require.NoError(t, err)
	require.Equal(t, TypeMigrationStart, evt.Type)
	require.Equal(t, time.UTC, evt.OccurredAt.Location())
	require.True(t, evt.OccurredAt.Equal(local))
	require.Equal(t, "person-clone", evt.String("name"))
	require.NoError(t, evt.Validate())
}

func TestEvent_JSONHidesSeq(t *testing.T) {
	evt := Event{
		ID:         "evt_1",
		Type:       TypePersonNamed,
		OccurredAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Seq:        42,
		Payload:    map[string]interface{}{"personId": "p-1"},
	}

	raw, err := json.Marshal(evt)
	require.NoError(t, err)
	require.NotContains(t, string(raw), "42")
	require.NotContains(t, string(raw), "aggregate_ids")

	var decoded Event
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Equal(t, int64(0), decoded.Seq)
	require.Equal(t, "p-1", decoded.String("personId"))
}
