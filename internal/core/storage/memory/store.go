// Package memory provides an in-process EventStore with the same ordering and filter
// semantics as the Postgres adapter. Useful for tests, local development and dry runs.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	v1 "github.com/kinlog-lab/kinlog/internal/api/v1"
	"github.com/kinlog-lab/kinlog/internal/core/payload"
	"github.com/kinlog-lab/kinlog/internal/core/storage"
	"github.com/kinlog-lab/kinlog/internal/metrics"
)

// Store is an in-memory implementation of storage.EventStore and storage.Locker.
type Store struct {
	mu     sync.RWMutex
	events []*v1.Event
	byID   map[string]int
	seq    int64

	lockMu sync.Mutex
	locks  map[string]bool
}

var (
	_ storage.EventStore = (*Store)(nil)
	_ storage.Locker     = (*Store)(nil)
)

// New creates an empty store.
func New() *Store {
	return &Store{
		byID:  make(map[string]int),
		locks: make(map[string]bool),
	}
}

// Append stores a copy of event and assigns its Seq.
func (s *Store) Append(ctx context.Context, event *v1.Event) error {
	if err := event.Validate(); err != nil {
		return fmt.Errorf("%w: %v", storage.ErrWriteFailure, err)
	}

	doc, err := normalizeDoc(event.Payload)
	if err != nil {
		return fmt.Errorf("%w: %v", storage.ErrWriteFailure, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[event.ID]; exists {
		return storage.ErrDuplicate
	}

	s.seq++
	event.Seq = s.seq

	stored := copyEvent(event)
	stored.Payload = doc
	s.byID[event.ID] = len(s.events)
	s.events = append(s.events, stored)
	metrics.IncEventsAppended(event.Type)
	return nil
}

// GetHistory returns every event ordered by OccurredAt, then insertion order.
func (s *Store) GetHistory(ctx context.Context) ([]*v1.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*v1.Event, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, copyEvent(e))
	}
	sortChronological(out)
	return out, nil
}

// GetEventList returns matching events in ascending OccurredAt order.
func (s *Store) GetEventList(ctx context.Context, types []string, filter payload.Filter) ([]*v1.Event, error) {
	if err := storage.ValidateQuery(types, filter); err != nil {
		return nil, err
	}

	wanted := make(map[string]bool, len(types))
	for _, t := range types {
		wanted[t] = true
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*v1.Event
	for _, e := range s.events {
		if !wanted[e.Type] || !filter.Matches(e.Payload) {
			continue
		}
		out = append(out, copyEvent(e))
	}
	sortChronological(out)
	return out, nil
}

// GetSingleEvent returns the latest matching event, or nil.
func (s *Store) GetSingleEvent(ctx context.Context, types []string, filter payload.Filter) (*v1.Event, error) {
	events, err := s.GetEventList(ctx, types, filter)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, nil
	}
	return events[len(events)-1], nil
}

// RewritePayload applies each dotted-path replacement in patch to the stored payload.
func (s *Store) RewritePayload(ctx context.Context, id string, patch map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.byID[id]
	if !ok {
		return storage.ErrNotFound
	}

	doc := s.events[idx].Payload
	for _, key := range sortedKeys(patch) {
		p, err := payload.ParsePath(key)
		if err != nil {
			return fmt.Errorf("%w: %v", storage.ErrWriteFailure, err)
		}
		value, err := payload.Normalize(patch[key])
		if err != nil {
			return fmt.Errorf("%w: %v", storage.ErrWriteFailure, err)
		}
		doc, err = payload.Set(doc, p, value)
		if errors.Is(err, payload.ErrMissingParent) {
			return fmt.Errorf("%w: %v", storage.ErrMissingParent, err)
		}
		if err != nil {
			return fmt.Errorf("%w: %v", storage.ErrWriteFailure, err)
		}
	}
	s.events[idx].Payload = doc
	return nil
}

// Ping always succeeds.
func (s *Store) Ping(ctx context.Context) error {
	return nil
}

// TryLock implements storage.Locker with an in-process named mutex.
func (s *Store) TryLock(ctx context.Context, name string) (func(), bool, error) {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()

	if s.locks[name] {
		return nil, false, nil
	}
	s.locks[name] = true

	var once sync.Once
	release := func() {
		once.Do(func() {
			s.lockMu.Lock()
			delete(s.locks, name)
			s.lockMu.Unlock()
		})
	}
	return release, true, nil
}

// Len returns the number of stored events.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

func sortChronological(events []*v1.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].OccurredAt.Equal(events[j].OccurredAt) {
			return events[i].OccurredAt.Before(events[j].OccurredAt)
		}
		return events[i].Seq < events[j].Seq
	})
}

func copyEvent(e *v1.Event) *v1.Event {
	c := *e
	c.Payload = payload.Clone(e.Payload)
	if e.AggregateIDs != nil {
		c.AggregateIDs = append([]string(nil), e.AggregateIDs...)
	}
	return &c
}

// normalizeDoc stores payloads in decoded-JSON form, matching what the Postgres adapter reads back.
func normalizeDoc(doc map[string]interface{}) (map[string]interface{}, error) {
	normalized, err := payload.Normalize(doc)
	if err != nil {
		return nil, err
	}
	out, ok := normalized.(map[string]interface{})
	if !ok {
		return map[string]interface{}{}, nil
	}
	return out, nil
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
