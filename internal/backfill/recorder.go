package backfill

import (
	"context"
	"log/slog"

	v1 "github.com/kinlog-lab/kinlog/internal/api/v1"
	"github.com/kinlog-lab/kinlog/internal/core/payload"
)

// Rewrite is one planned in-place payload correction.
type Rewrite struct {
	EventID string                 `json:"event_id"`
	Patch   map[string]interface{} `json:"patch"`
}

// Plan lists the writes a dry run would have made, in order.
type Plan struct {
	Rewrites []Rewrite   `json:"rewrites"`
	Appends  []*v1.Event `json:"appends"`
}

// Recorder is a Writer that only records.
type Recorder struct {
	Plan Plan
}

var _ Writer = (*Recorder)(nil)

func (r *Recorder) Append(ctx context.Context, event *v1.Event) error {
	if err := event.Validate(); err != nil {
		return err
	}
	r.Plan.Appends = append(r.Plan.Appends, event)
	slog.Debug("[Backfill] Would append", "event_type", event.Type, "payload", event.Payload)
	return nil
}

func (r *Recorder) RewritePayload(ctx context.Context, id string, patch map[string]interface{}) error {
	r.Plan.Rewrites = append(r.Plan.Rewrites, Rewrite{EventID: id, Patch: payload.Clone(patch)})
	slog.Debug("[Backfill] Would rewrite", "event_id", id, "patch", patch)
	return nil
}
