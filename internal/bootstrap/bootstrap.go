// Package bootstrap seeds an empty event store.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	v1 "github.com/kinlog-lab/kinlog/internal/api/v1"
	"github.com/kinlog-lab/kinlog/internal/core/payload"
	"github.com/kinlog-lab/kinlog/internal/core/storage"
	"gopkg.in/yaml.v3"
)

// SeedEventID is the fixed id of the bootstrap event. Two processes seeding the same store
// race on this id, and the loser sees storage.ErrDuplicate instead of seeding twice.
const SeedEventID = "kinlog-bootstrap"

// fixtureFile is the on-disk YAML shape.
//
//	events:
//	  - type: PersonNamed
//	    occurred_at: "2024-01-01T00:00:00Z"
//	    payload: {personId: p-1, name: Ada}
type fixtureFile struct {
	Events []fixtureEvent `yaml:"events"`
}

type fixtureEvent struct {
	ID           string                 `yaml:"id"`
	Type         string                 `yaml:"type"`
	OccurredAt   string                 `yaml:"occurred_at"` // RFC3339; empty means seed time
	AggregateIDs []string               `yaml:"aggregate_ids"`
	Payload      map[string]interface{} `yaml:"payload"`
}

// LoadFixture reads seed events from a YAML file. Events without an id get a fresh uuid.
func LoadFixture(path string, now time.Time) ([]*v1.Event, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fixture %s: %w", path, err)
	}

	var raw fixtureFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing fixture %s: %w", path, err)
	}

	events := make([]*v1.Event, 0, len(raw.Events))
	for i, fe := range raw.Events {
		if fe.Type == "" {
			return nil, fmt.Errorf("fixture %s: event %d has no type", path, i)
		}

		occurredAt := now.UTC()
		if fe.OccurredAt != "" {
			occurredAt, err = time.Parse(time.RFC3339Nano, fe.OccurredAt)
			if err != nil {
				return nil, fmt.Errorf("fixture %s: event %d: invalid occurred_at: %w", path, i, err)
			}
		}

		id := fe.ID
		if id == "" {
			id = uuid.NewString()
		}

		doc, err := normalize(fe.Payload)
		if err != nil {
			return nil, fmt.Errorf("fixture %s: event %d: %w", path, i, err)
		}

		events = append(events, &v1.Event{
			ID:           id,
			Type:         fe.Type,
			OccurredAt:   occurredAt.UTC(),
			AggregateIDs: fe.AggregateIDs,
			Payload:      doc,
		})
	}
	return events, nil
}

// normalize turns YAML-decoded values into their JSON equivalents.
func normalize(doc map[string]interface{}) (map[string]interface{}, error) {
	if doc == nil {
		return map[string]interface{}{}, nil
	}
	v, err := payload.Normalize(doc)
	if err != nil {
		return nil, err
	}
	out, ok := v.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("payload is not an object")
	}
	return out, nil
}

// SeedIfEmpty appends the bootstrap event, followed by fixture, when the store has no history.
// It reports whether it seeded.
func SeedIfEmpty(ctx context.Context, store storage.EventStore, eventType string, fixture []*v1.Event, now time.Time) (bool, error) {
	history, err := store.GetHistory(ctx)
	if err != nil {
		return false, fmt.Errorf("read history: %w", err)
	}
	if len(history) > 0 {
		slog.Info("[Bootstrap] Store already has history, skipping seed", "events", len(history))
		return false, nil
	}

	seed := &v1.Event{
		ID:         SeedEventID,
		Type:       eventType,
		OccurredAt: now.UTC(),
		Payload: map[string]interface{}{
			"seededAt": now.UTC().Format(time.RFC3339Nano),
			"fixtures": len(fixture),
		},
	}
	if err := store.Append(ctx, seed); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			slog.Info("[Bootstrap] Store seeded concurrently by another process")
			return false, nil
		}
		return false, fmt.Errorf("append bootstrap event: %w", err)
	}

	for _, evt := range fixture {
		if err := store.Append(ctx, evt); err != nil {
			return true, fmt.Errorf("append fixture event %s: %w", evt.ID, err)
		}
	}

	slog.Info("[Bootstrap] Seeded empty store", "event_type", eventType, "fixtures", len(fixture))
	return true, nil
}
