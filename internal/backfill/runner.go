// Package backfill runs named, one-time data corrections against the event log.
//
// Every job is bracketed by marker events:
//
//	MigrationStart{name, startedAt}           appended before any mutating work
//	MigrationSuccess{name, stats}             on completion
//	MigrationFailure{name, error}             when the job returned an error
//
// A job whose MigrationStart exists is never run again (at most once per store). A start
// marker without a terminal marker means the process died mid-job; the runner reports it as
// incomplete for an operator to inspect instead of treating it as done or retrying it.
package backfill

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	v1 "github.com/kinlog-lab/kinlog/internal/api/v1"
	"github.com/kinlog-lab/kinlog/internal/core/payload"
	"github.com/kinlog-lab/kinlog/internal/core/storage"
	"github.com/kinlog-lab/kinlog/internal/metrics"
)

var (
	// ErrAlreadyRun marks a skipped invocation. It is reported in Result.Err, never returned.
	ErrAlreadyRun = errors.New("migration already run")

	// ErrIncomplete means MigrationStart exists without a terminal marker.
	ErrIncomplete = errors.New("migration started but never finished")

	// ErrLocked means another process holds the migration lock.
	ErrLocked = errors.New("migration is locked by another process")
)

const (
	lockPrefix = "kinlog:backfill:"

	// Terminal markers are written on a context detached from the job's, so a job cancelled by
	// its deadline is still recorded as failed.
	markerWriteTimeout = 10 * time.Second
)

// Stats are job counters recorded on MigrationSuccess.
type Stats map[string]int

// Writer is every mutation a job may perform. The runner passes the real store, or a
// recorder in dry-run mode.
type Writer interface {
	Append(ctx context.Context, event *v1.Event) error
	RewritePayload(ctx context.Context, id string, patch map[string]interface{}) error
}

// Job is one named backfill.
type Job interface {
	Name() string
	Run(ctx context.Context, w Writer) (Stats, error)
}

// Outcome is what a single Run did.
type Outcome string

const (
	OutcomeSucceeded  Outcome = "succeeded"
	OutcomeFailed     Outcome = "failed"
	OutcomeSkipped    Outcome = "skipped"
	OutcomeIncomplete Outcome = "incomplete"
	OutcomeLocked     Outcome = "locked"
	OutcomePlanned    Outcome = "planned"
)

// Result describes one job invocation.
type Result struct {
	Job     string
	Outcome Outcome
	Stats   Stats
	Plan    *Plan
	Err     error
}

// Runner applies the marker protocol around jobs.
type Runner struct {
	store  storage.EventStore
	locker storage.Locker
	dryRun bool
	nowFn  func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithDryRun makes the runner record planned writes instead of applying them.
// No markers are written in this mode.
func WithDryRun(enabled bool) Option {
	return func(r *Runner) { r.dryRun = enabled }
}

// WithClock overrides the marker timestamp source.
func WithClock(nowFn func() time.Time) Option {
	return func(r *Runner) { r.nowFn = nowFn }
}

// NewRunner creates a runner over store, serialising jobs through locker.
func NewRunner(store storage.EventStore, locker storage.Locker, opts ...Option) *Runner {
	r := &Runner{
		store:  store,
		locker: locker,
		nowFn:  time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes job at most once per store.
//
// The returned error is reserved for conditions needing operator attention: the lock is held
// elsewhere, a previous run never finished, or the runner could not read or write markers.
// A job that fails is recorded as MigrationFailure and reported through Result.Err with a
// nil error, so a failing backfill never takes the host process down.
func (r *Runner) Run(ctx context.Context, job Job) (Result, error) {
	name := job.Name()
	result := Result{Job: name}

	release, ok, err := r.locker.TryLock(ctx, lockPrefix+name)
	if err != nil {
		return result, fmt.Errorf("lock migration %s: %w", name, err)
	}
	if !ok {
		result.Outcome = OutcomeLocked
		result.Err = ErrLocked
		metrics.IncMigrationRun(name, string(OutcomeLocked))
		slog.Warn("[Backfill] Migration locked by another process", "migration", name)
		return result, fmt.Errorf("%s: %w", name, ErrLocked)
	}
	defer release()

	status, err := r.Status(ctx, name)
	if err != nil {
		return result, err
	}

	switch status.State {
	case StateSucceeded, StateFailed:
		result.Outcome = OutcomeSkipped
		result.Err = ErrAlreadyRun
		metrics.IncMigrationRun(name, string(OutcomeSkipped))
		slog.Info("[Backfill] Migration already run, skipping",
			"migration", name,
			"previous_state", status.State,
			"started_at", status.StartedAt)
		return result, nil
	case StateIncomplete:
		result.Outcome = OutcomeIncomplete
		result.Err = ErrIncomplete
		metrics.IncMigrationRun(name, string(OutcomeIncomplete))
		slog.Error("[Backfill] Migration started but never finished, operator attention required",
			"migration", name,
			"started_at", status.StartedAt)
		return result, fmt.Errorf("%s: %w", name, ErrIncomplete)
	}

	if r.dryRun {
		return r.plan(ctx, job, result)
	}

	if err := r.store.Append(ctx, r.marker(v1.TypeMigrationStart, map[string]interface{}{
		"name":      name,
		"startedAt": r.nowFn().UTC().Format(time.RFC3339Nano),
	})); err != nil {
		return result, fmt.Errorf("record start of %s: %w", name, err)
	}

	slog.Info("[Backfill] Migration started", "migration", name)

	stats, jobErr := runJob(ctx, job, r.store)
	if jobErr != nil {
		result.Outcome = OutcomeFailed
		result.Err = jobErr
		metrics.IncMigrationRun(name, string(OutcomeFailed))
		slog.Error("[Backfill] Migration failed", "migration", name, "error", jobErr)

		if err := r.appendTerminal(ctx, r.marker(v1.TypeMigrationFailure, map[string]interface{}{
			"name":  name,
			"error": jobErr.Error(),
		})); err != nil {
			return result, fmt.Errorf("record failure of %s: %w", name, err)
		}
		return result, nil
	}

	if err := r.appendTerminal(ctx, r.marker(v1.TypeMigrationSuccess, map[string]interface{}{
		"name":  name,
		"stats": statsDoc(stats),
	})); err != nil {
		return result, fmt.Errorf("record success of %s: %w", name, err)
	}

	result.Outcome = OutcomeSucceeded
	result.Stats = stats
	metrics.IncMigrationRun(name, string(OutcomeSucceeded))
	slog.Info("[Backfill] Migration succeeded", "migration", name, "stats", stats)
	return result, nil
}

// RunAll runs jobs one after another. Every job is attempted; errors are joined.
func (r *Runner) RunAll(ctx context.Context, jobs ...Job) ([]Result, error) {
	results := make([]Result, 0, len(jobs))
	var errs []error

	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		res, err := r.Run(ctx, job)
		results = append(results, res)
		if err != nil {
			errs = append(errs, err)
		}
	}

	return results, errors.Join(errs...)
}

func (r *Runner) plan(ctx context.Context, job Job, result Result) (Result, error) {
	rec := &Recorder{}
	stats, err := runJob(ctx, job, rec)
	result.Plan = &rec.Plan
	result.Stats = stats
	if err != nil {
		result.Outcome = OutcomeFailed
		result.Err = err
		slog.Warn("[Backfill] Dry run failed", "migration", job.Name(), "error", err)
		return result, nil
	}
	result.Outcome = OutcomePlanned
	slog.Info("[Backfill] Dry run complete",
		"migration", job.Name(),
		"rewrites", len(rec.Plan.Rewrites),
		"appends", len(rec.Plan.Appends))
	return result, nil
}

func (r *Runner) marker(eventType string, doc map[string]interface{}) *v1.Event {
	return v1.NewEvent(eventType, doc, r.nowFn())
}

func (r *Runner) appendTerminal(ctx context.Context, evt *v1.Event) error {
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), markerWriteTimeout)
	defer cancel()
	return r.store.Append(writeCtx, evt)
}

// runJob converts a panic inside a job into an ordinary failure so it is recorded.
func runJob(ctx context.Context, job Job, w Writer) (stats Stats, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("migration %s panicked: %v", job.Name(), p)
		}
	}()
	return job.Run(ctx, w)
}

func statsDoc(stats Stats) map[string]interface{} {
	doc := make(map[string]interface{}, len(stats))
	for k, v := range stats {
		doc[k] = v
	}
	return doc
}

// State is the lifecycle position of a named migration as recorded in the log.
type State string

const (
	StateNotRun     State = "not-run"
	StateIncomplete State = "running-or-crashed"
	StateSucceeded  State = "succeeded"
	StateFailed     State = "failed"
)

// Status is a migration's recorded state.
type Status struct {
	Name       string                 `json:"name"`
	State      State                  `json:"state"`
	StartedAt  time.Time              `json:"started_at,omitempty"`
	FinishedAt time.Time              `json:"finished_at,omitempty"`
	Error      string                 `json:"error,omitempty"`
	Stats      map[string]interface{} `json:"stats,omitempty"`
}

// Status reads the markers of the named migration.
func (r *Runner) Status(ctx context.Context, name string) (Status, error) {
	status := Status{Name: name, State: StateNotRun}
	filter := payload.Filter{"name": name}

	start, err := r.store.GetSingleEvent(ctx, []string{v1.TypeMigrationStart}, filter)
	if err != nil {
		return status, fmt.Errorf("read start marker of %s: %w", name, err)
	}
	if start == nil {
		return status, nil
	}
	status.StartedAt = start.OccurredAt

	end, err := r.store.GetSingleEvent(ctx, []string{v1.TypeMigrationSuccess, v1.TypeMigrationFailure}, filter)
	if err != nil {
		return status, fmt.Errorf("read terminal marker of %s: %w", name, err)
	}
	if end == nil {
		status.State = StateIncomplete
		return status, nil
	}

	status.FinishedAt = end.OccurredAt
	if end.Type == v1.TypeMigrationSuccess {
		status.State = StateSucceeded
		status.Stats, _ = end.Payload["stats"].(map[string]interface{})
	} else {
		status.State = StateFailed
		status.Error = end.String("error")
	}
	return status, nil
}
