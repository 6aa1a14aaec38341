// Package projection defines the read-model contract and the runner that rebuilds stale
// read models by replaying the full event history.
package projection

import (
	"context"
	"errors"
	"fmt"

	v1 "github.com/kinlog-lab/kinlog/internal/api/v1"
)

// Projection is a disposable read model derived purely from the event log.
type Projection interface {
	// Name identifies the projection in logs, metrics and operator commands.
	Name() string

	// RequiresRebuild reports whether stored state is missing or was built for an older shape.
	RequiresRebuild(ctx context.Context) (bool, error)

	// Reset clears all derived state. Replay assumes it starts from empty.
	Reset(ctx context.Context) error

	// HandleEvent folds one event into the read model. Unrelated event types are ignored.
	HandleEvent(ctx context.Context, event *v1.Event) error
}

// Finalizer is implemented by projections that record a completed rebuild, typically by
// stamping their schema version. The runner calls it only after every event replayed cleanly.
type Finalizer interface {
	MarkRebuilt(ctx context.Context) error
}

// ErrRebuildFailed is matched by every *RebuildError.
var ErrRebuildFailed = errors.New("projection rebuild failed")

// RebuildError pins a failed rebuild to the projection and, when replay was underway, the event.
type RebuildError struct {
	Projection string
	Stage      string
	EventID    string
	EventType  string
	Err        error
}

func (e *RebuildError) Error() string {
	if e.EventID != "" {
		return fmt.Sprintf("projection %s failed on event %s (%s): %v", e.Projection, e.EventID, e.EventType, e.Err)
	}
	return fmt.Sprintf("projection %s failed during %s: %v", e.Projection, e.Stage, e.Err)
}

func (e *RebuildError) Unwrap() []error {
	return []error{ErrRebuildFailed, e.Err}
}
