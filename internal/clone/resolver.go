// Package clone resolves *ClonedForSharing chains: forward to the canonical entity and
// backward to every transitive clone.
package clone

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	v1 "github.com/kinlog-lab/kinlog/internal/api/v1"
	"github.com/kinlog-lab/kinlog/internal/core/payload"
	"github.com/kinlog-lab/kinlog/internal/metrics"
)

// Querier is the part of the event store the resolver reads from.
type Querier interface {
	GetEventList(ctx context.Context, types []string, filter payload.Filter) ([]*v1.Event, error)
	GetSingleEvent(ctx context.Context, types []string, filter payload.Filter) (*v1.Event, error)
}

// Resolver walks clone chains with explicit loops and a visited set, so chain depth is unbounded
// and a cycle fails with *CycleError instead of spinning.
type Resolver struct {
	store Querier
}

// NewResolver creates a Resolver over store.
func NewResolver(store Querier) *Resolver {
	return &Resolver{store: store}
}

// ResolveOriginal follows the most recent clone event for id until it reaches an entity that
// is not itself a clone. An id with no clone event is already canonical and is returned as is.
func (r *Resolver) ResolveOriginal(ctx context.Context, kind Kind, id string) (string, error) {
	chain := []string{id}
	visited := map[string]bool{id: true}
	current := id

	for {
		evt, err := r.cloneEventFor(ctx, kind, current)
		if err != nil {
			return "", err
		}
		if evt == nil {
			break
		}

		parent := kind.OriginalID(evt)
		if parent == "" {
			return "", fmt.Errorf("%s clone event %s has no %s", kind, evt.ID, kind.OriginalIDPath)
		}

		chain = append(chain, parent)
		if visited[parent] {
			slog.Error("[Clone] Cycle detected while resolving original",
				"kind", kind.Name,
				"chain", chain)
			return "", &CycleError{Kind: kind.Name, Chain: chain}
		}
		visited[parent] = true
		current = parent
	}

	metrics.ObserveCloneChainDepth(kind.Name, len(chain)-1)
	if current != id {
		slog.Debug("[Clone] Resolved original", "kind", kind.Name, "id", id, "original", current, "hops", len(chain)-1)
	}
	return current, nil
}

// FindAllClones returns every clone event descending from id, in breadth-first discovery order.
// A clone of a clone is included after its parent. A clone id named by several clone events is
// reported once, by the first event found; only an id that loops back to one of its own
// ancestors is a cycle. Callers that need the newest clone should use LatestClone on the result.
func (r *Resolver) FindAllClones(ctx context.Context, kind Kind, id string) ([]*v1.Event, error) {
	visited := map[string]bool{id: true}
	parentOf := map[string]string{}
	queue := []string{id}

	var found []*v1.Event
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		clones, err := r.store.GetEventList(ctx, []string{kind.EventType}, payload.Filter{
			kind.OriginalIDPath.String(): current,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list %s clones of %s: %w", kind, current, err)
		}

		for _, evt := range clones {
			cloneID := kind.CloneID(evt)
			if cloneID == "" {
				return nil, fmt.Errorf("%s clone event %s has no %s", kind, evt.ID, kind.IDField)
			}
			if visited[cloneID] {
				if !isAncestor(parentOf, cloneID, current, id) {
					// Repeated clone event for an id already found; it adds no new lineage.
					slog.Debug("[Clone] Skipping duplicate clone event",
						"kind", kind.Name,
						"clone", cloneID,
						"event_id", evt.ID)
					continue
				}
				chain := lineage(parentOf, current, id)
				chain = append(chain, cloneID)
				slog.Error("[Clone] Cycle detected while finding clones",
					"kind", kind.Name,
					"chain", chain)
				return nil, &CycleError{Kind: kind.Name, Chain: chain}
			}
			visited[cloneID] = true
			parentOf[cloneID] = current
			found = append(found, evt)
			queue = append(queue, cloneID)
		}
	}

	return found, nil
}

// CloneContext returns the family a clone was shared into, or "" when id is not a clone.
func (r *Resolver) CloneContext(ctx context.Context, kind Kind, id string) (string, error) {
	evt, err := r.cloneEventFor(ctx, kind, id)
	if err != nil || evt == nil {
		return "", err
	}
	return kind.CloneFamily(evt), nil
}

func (r *Resolver) cloneEventFor(ctx context.Context, kind Kind, id string) (*v1.Event, error) {
	evt, err := r.store.GetSingleEvent(ctx, []string{kind.EventType}, payload.Filter{
		kind.IDField.String(): id,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to look up %s clone event for %s: %w", kind, id, err)
	}
	return evt, nil
}

// LatestClone returns the clone event with the greatest OccurredAt, or nil for an empty slice.
// Ties keep discovery order, so the later-discovered event wins.
func LatestClone(events []*v1.Event) *v1.Event {
	if len(events) == 0 {
		return nil
	}
	sorted := append([]*v1.Event(nil), events...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].OccurredAt.Before(sorted[j].OccurredAt)
	})
	return sorted[len(sorted)-1]
}

// isAncestor reports whether candidate lies on the path from root down to id.
func isAncestor(parentOf map[string]string, candidate, id, root string) bool {
	for cur := id; ; {
		if cur == candidate {
			return true
		}
		if cur == root {
			return false
		}
		parent, ok := parentOf[cur]
		if !ok {
			return false
		}
		cur = parent
	}
}

// lineage rebuilds root -> ... -> id from BFS parent links.
func lineage(parentOf map[string]string, id, root string) []string {
	var rev []string
	for cur := id; ; cur = parentOf[cur] {
		rev = append(rev, cur)
		if cur == root {
			break
		}
		if _, ok := parentOf[cur]; !ok {
			break
		}
	}
	out := make([]string, len(rev))
	for i, v := range rev {
		out[len(rev)-1-i] = v
	}
	return out
}
