package projection

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	v1 "github.com/kinlog-lab/kinlog/internal/api/v1"
	"github.com/kinlog-lab/kinlog/internal/metrics"
)

// HistoryReader is the slice of the event store the runner replays from.
type HistoryReader interface {
	GetHistory(ctx context.Context) ([]*v1.Event, error)
}

// Report summarises one runner pass.
type Report struct {
	Checked        []string      `json:"checked"`
	Rebuilt        []string      `json:"rebuilt"`
	EventsReplayed int           `json:"events_replayed"`
	Duration       time.Duration `json:"duration"`
}

// Runner owns the registered projections and rebuilds the stale ones at boot.
type Runner struct {
	history     HistoryReader
	projections []Projection
	nowFn       func() time.Time
}

// NewRunner creates a runner over history. Projections replay in registration order.
func NewRunner(history HistoryReader, projections ...Projection) *Runner {
	return &Runner{
		history:     history,
		projections: projections,
		nowFn:       time.Now,
	}
}

// Register adds a projection after construction.
func (r *Runner) Register(p Projection) {
	r.projections = append(r.projections, p)
}

// Names returns the registered projection names.
func (r *Runner) Names() []string {
	names := make([]string, len(r.projections))
	for i, p := range r.projections {
		names[i] = p.Name()
	}
	return names
}

// Rebuild asks every projection whether it is stale, resets the stale ones and replays the
// whole history into them. Any failure aborts the pass; a projection whose replay did not
// finish is never finalized, so the next boot sees it as stale again.
func (r *Runner) Rebuild(ctx context.Context) (Report, error) {
	report := Report{}
	var stale []Projection

	for _, p := range r.projections {
		report.Checked = append(report.Checked, p.Name())

		needs, err := p.RequiresRebuild(ctx)
		if err != nil {
			return report, &RebuildError{Projection: p.Name(), Stage: "check", Err: err}
		}
		if needs {
			stale = append(stale, p)
		}
	}

	if len(stale) == 0 {
		slog.Info("[Rebuild] All projections up to date", "projections", len(r.projections))
		return report, nil
	}

	return r.replay(ctx, stale, report)
}

// ForceRebuild rebuilds the named projections regardless of RequiresRebuild.
// No names means every registered projection.
func (r *Runner) ForceRebuild(ctx context.Context, names ...string) (Report, error) {
	report := Report{}
	selected := r.projections

	if len(names) > 0 {
		byName := make(map[string]Projection, len(r.projections))
		for _, p := range r.projections {
			byName[p.Name()] = p
		}

		selected = make([]Projection, 0, len(names))
		for _, name := range names {
			p, ok := byName[name]
			if !ok {
				return report, fmt.Errorf("unknown projection %q", name)
			}
			selected = append(selected, p)
		}
	}

	for _, p := range selected {
		report.Checked = append(report.Checked, p.Name())
	}
	return r.replay(ctx, selected, report)
}

func (r *Runner) replay(ctx context.Context, stale []Projection, report Report) (Report, error) {
	start := r.nowFn()

	for _, p := range stale {
		slog.Info("[Rebuild] Resetting projection", "projection", p.Name())
		if err := p.Reset(ctx); err != nil {
			return report, &RebuildError{Projection: p.Name(), Stage: "reset", Err: err}
		}
	}

	history, err := r.history.GetHistory(ctx)
	if err != nil {
		return report, fmt.Errorf("%w: failed to load history: %w", ErrRebuildFailed, err)
	}

	slog.Info("[Rebuild] Replaying history",
		"events", len(history),
		"projections", len(stale))

	for _, evt := range history {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("%w: %w", ErrRebuildFailed, err)
		}
		for _, p := range stale {
			if err := p.HandleEvent(ctx, evt); err != nil {
				slog.Error("[Rebuild] Projection failed to handle event",
					"projection", p.Name(),
					"event_id", evt.ID,
					"event_type", evt.Type,
					"error", err)
				return report, &RebuildError{
					Projection: p.Name(),
					Stage:      "replay",
					EventID:    evt.ID,
					EventType:  evt.Type,
					Err:        err,
				}
			}
		}
		report.EventsReplayed++
	}

	for _, p := range stale {
		if f, ok := p.(Finalizer); ok {
			if err := f.MarkRebuilt(ctx); err != nil {
				return report, &RebuildError{Projection: p.Name(), Stage: "finalize", Err: err}
			}
		}
		report.Rebuilt = append(report.Rebuilt, p.Name())
		metrics.AddProjectionEventsApplied(p.Name(), len(history))
	}

	report.Duration = r.nowFn().Sub(start)
	for _, name := range report.Rebuilt {
		metrics.ObserveRebuildDuration(name, report.Duration)
	}

	slog.Info("[Rebuild] Rebuild complete",
		"rebuilt", report.Rebuilt,
		"events", report.EventsReplayed,
		"duration", report.Duration)

	return report, nil
}
