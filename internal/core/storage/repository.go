package storage

import (
	"context"
	"errors"

	v1 "github.com/kinlog-lab/kinlog/internal/api/v1"
	"github.com/kinlog-lab/kinlog/internal/core/payload"
)

var (
	// ErrDuplicate is returned when an event with the same id already exists.
	ErrDuplicate = errors.New("event already exists")

	// ErrWriteFailure wraps every storage-level append or rewrite failure
	// (connection loss, constraint violation). A failed append never leaves a partial event.
	ErrWriteFailure = errors.New("event store write failed")

	// ErrNotFound is returned by RewritePayload when the event id is unknown.
	ErrNotFound = errors.New("event not found")

	// ErrMissingParent is returned by RewritePayload when an intermediate object of a patch
	// path does not exist. Only the leaf key of a path may be created.
	ErrMissingParent = errors.New("payload path parent does not exist")

	// ErrNoTypes is returned by the query layer when called without any event type.
	ErrNoTypes = errors.New("at least one event type is required")
)

// EventStore is the append-only log of domain events plus its query layer.
// Every other subsystem is a pure client of Append, GetEventList, GetSingleEvent and GetHistory.
type EventStore interface {
	// Append persists one event atomically.
	Append(ctx context.Context, event *v1.Event) error

	// GetHistory returns the complete log ordered by occurred_at, then insertion order.
	GetHistory(ctx context.Context) ([]*v1.Event, error)

	// GetEventList returns every event of the given types whose payload satisfies filter,
	// in ascending occurred_at order.
	GetEventList(ctx context.Context, types []string, filter payload.Filter) ([]*v1.Event, error)

	// GetSingleEvent returns the most recent event GetEventList would return, or nil.
	GetSingleEvent(ctx context.Context, types []string, filter payload.Filter) (*v1.Event, error)

	// RewritePayload replaces the listed (dotted) payload paths of one stored event.
	// id, type and occurred_at are preserved. Every intermediate object of a path must exist,
	// otherwise nothing is written and ErrMissingParent is returned. Reserved for backfill jobs.
	RewritePayload(ctx context.Context, id string, patch map[string]interface{}) error

	// Ping reports store reachability.
	Ping(ctx context.Context) error
}

// Locker serialises named one-time jobs across processes.
type Locker interface {
	// TryLock acquires the named lock without waiting. ok is false when another holder has it.
	// The returned release func must be called exactly once when ok is true.
	TryLock(ctx context.Context, name string) (release func(), ok bool, err error)
}

// ValidateQuery checks the arguments shared by GetEventList and GetSingleEvent.
func ValidateQuery(types []string, filter payload.Filter) error {
	if len(types) == 0 {
		return ErrNoTypes
	}
	for _, t := range types {
		if t == "" {
			return errors.New("event type must not be empty")
		}
	}
	return filter.Validate()
}
