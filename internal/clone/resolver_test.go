package clone

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	v1 "github.com/kinlog-lab/kinlog/internal/api/v1"
	"github.com/kinlog-lab/kinlog/internal/core/payload"
	"github.com/kinlog-lab/kinlog/internal/core/storage/memory"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 2, 8, 12, 0, 0, 0, time.UTC)

func appendClone(t *testing.T, s *memory.Store, kind Kind, eventID, cloneID, cloneFamily, originalID, originalFamily string, at time.Time) {
	t.Helper()
	idField := kind.IDField.String()
	require.NoError(t, s.Append(context.Background(), &v1.Event{
		ID:         eventID,
		Type:       kind.EventType,
		OccurredAt: at,
		Payload: map[string]interface{}{
			idField:    cloneID,
			"familyId": cloneFamily,
			"clonedFrom": map[string]interface{}{
				idField:    originalID,
				"familyId": originalFamily,
			},
		},
	}))
}

// chain builds A <- B <- C for kind.
func chain(t *testing.T, kind Kind) *memory.Store {
	t.Helper()
	s := memory.New()
	appendClone(t, s, kind, "evt-b", "B", "fam-2", "A", "fam-1", t0)
	appendClone(t, s, kind, "evt-c", "C", "fam-3", "B", "fam-2", t0.Add(time.Hour))
	return s
}

func TestResolveOriginal_WalksToRoot(t *testing.T) {
	for _, kind := range Kinds {
		t.Run(kind.Name, func(t *testing.T) {
			r := NewResolver(chain(t, kind))
			ctx := context.Background()

			for _, id := range []string{"A", "B", "C"} {
				got, err := r.ResolveOriginal(ctx, kind, id)
				require.NoError(t, err)
				require.Equal(t, "A", got, "resolve %s", id)
			}
		})
	}
}

func TestResolveOriginal_NotACloneIsCanonical(t *testing.T) {
	s := memory.New()
	require.NoError(t, s.Append(context.Background(), &v1.Event{
		ID:         "named",
		Type:       v1.TypePersonNamed,
		OccurredAt: t0,
		Payload:    map[string]interface{}{"personId": "p-1", "name": "Ada"},
	}))

	got, err := NewResolver(s).ResolveOriginal(context.Background(), Person, "p-1")
	require.NoError(t, err)
	require.Equal(t, "p-1", got)
}

func TestResolveOriginal_KindsDoNotMix(t *testing.T) {
	r := NewResolver(chain(t, Photo))

	got, err := r.ResolveOriginal(context.Background(), Person, "C")
	require.NoError(t, err)
	require.Equal(t, "C", got)
}

func TestResolveOriginal_UsesMostRecentCloneEvent(t *testing.T) {
	s := memory.New()
	appendClone(t, s, Person, "evt-old", "B", "fam-2", "X", "fam-9", t0)
	appendClone(t, s, Person, "evt-new", "B", "fam-2", "A", "fam-1", t0.Add(time.Minute))

	got, err := NewResolver(s).ResolveOriginal(context.Background(), Person, "B")
	require.NoError(t, err)
	require.Equal(t, "A", got)
}

func TestResolveOriginal_DeepChain(t *testing.T) {
	s := memory.New()
	prev := "n0"
	for i := 1; i <= 200; i++ {
		id := fmt.Sprintf("n%d", i)
		appendClone(t, s, Thread, "evt-"+id, id, "fam", prev, "fam", t0.Add(time.Duration(i)*time.Second))
		prev = id
	}

	got, err := NewResolver(s).ResolveOriginal(context.Background(), Thread, prev)
	require.NoError(t, err)
	require.Equal(t, "n0", got)

	clones, err := NewResolver(s).FindAllClones(context.Background(), Thread, "n0")
	require.NoError(t, err)
	require.Len(t, clones, 200)
}

func TestResolveOriginal_CycleDetected(t *testing.T) {
	s := memory.New()
	appendClone(t, s, Person, "evt-1", "B", "fam-2", "A", "fam-1", t0)
	appendClone(t, s, Person, "evt-2", "A", "fam-1", "B", "fam-2", t0.Add(time.Minute))

	_, err := NewResolver(s).ResolveOriginal(context.Background(), Person, "A")
	require.ErrorIs(t, err, ErrCycleDetected)

	var cycleErr *CycleError
	require.True(t, errors.As(err, &cycleErr))
	require.Equal(t, "person", cycleErr.Kind)
	require.Equal(t, []string{"A", "B", "A"}, cycleErr.Chain)
}

func TestFindAllClones_Transitive(t *testing.T) {
	r := NewResolver(chain(t, Person))
	ctx := context.Background()

	clones, err := r.FindAllClones(ctx, Person, "A")
	require.NoError(t, err)
	require.Equal(t, []string{"evt-b", "evt-c"}, eventIDs(clones))

	clones, err = r.FindAllClones(ctx, Person, "B")
	require.NoError(t, err)
	require.Equal(t, []string{"evt-c"}, eventIDs(clones))

	clones, err = r.FindAllClones(ctx, Person, "C")
	require.NoError(t, err)
	require.Empty(t, clones)
}

func TestFindAllClones_BreadthFirstDiscovery(t *testing.T) {
	s := memory.New()
	appendClone(t, s, Photo, "evt-b", "B", "fam-2", "A", "fam-1", t0)
	appendClone(t, s, Photo, "evt-d", "D", "fam-4", "B", "fam-2", t0.Add(time.Minute))
	appendClone(t, s, Photo, "evt-c", "C", "fam-3", "A", "fam-1", t0.Add(2*time.Minute))

	clones, err := NewResolver(s).FindAllClones(context.Background(), Photo, "A")
	require.NoError(t, err)
	require.Equal(t, []string{"evt-b", "evt-c", "evt-d"}, eventIDs(clones))

	latest := LatestClone(clones)
	require.Equal(t, "evt-c", latest.ID)
}

func TestFindAllClones_CycleDetected(t *testing.T) {
	s := memory.New()
	appendClone(t, s, Thread, "evt-1", "B", "fam-2", "A", "fam-1", t0)
	appendClone(t, s, Thread, "evt-2", "C", "fam-3", "B", "fam-2", t0.Add(time.Minute))
	appendClone(t, s, Thread, "evt-3", "A", "fam-1", "C", "fam-3", t0.Add(2*time.Minute))

	_, err := NewResolver(s).FindAllClones(context.Background(), Thread, "A")
	require.ErrorIs(t, err, ErrCycleDetected)

	var cycleErr *CycleError
	require.True(t, errors.As(err, &cycleErr))
	require.Equal(t, []string{"A", "B", "C", "A"}, cycleErr.Chain)
}

func TestFindAllClones_RepeatedCloneEventIsNotACycle(t *testing.T) {
	s := memory.New()
	appendClone(t, s, Photo, "evt-b1", "B", "fam-2", "A", "fam-1", t0)
	appendClone(t, s, Photo, "evt-b2", "B", "fam-2", "A", "fam-1", t0.Add(time.Minute))
	appendClone(t, s, Photo, "evt-c", "C", "fam-3", "B", "fam-2", t0.Add(2*time.Minute))
	appendClone(t, s, Photo, "evt-c2", "C", "fam-3", "A", "fam-1", t0.Add(3*time.Minute))
	r := NewResolver(s)
	ctx := context.Background()

	original, err := r.ResolveOriginal(ctx, Photo, "B")
	require.NoError(t, err)
	require.Equal(t, "A", original)

	clones, err := r.FindAllClones(ctx, Photo, "A")
	require.NoError(t, err)
	require.Equal(t, []string{"evt-b1", "evt-c2"}, eventIDs(clones), "each clone is reported once, by its first clone event")
}

func TestCloneContext(t *testing.T) {
	r := NewResolver(chain(t, Person))
	ctx := context.Background()

	family, err := r.CloneContext(ctx, Person, "C")
	require.NoError(t, err)
	require.Equal(t, "fam-3", family)

	family, err = r.CloneContext(ctx, Person, "A")
	require.NoError(t, err)
	require.Empty(t, family)
}

func TestLatestClone(t *testing.T) {
	require.Nil(t, LatestClone(nil))

	a := &v1.Event{ID: "a", OccurredAt: t0.Add(time.Hour)}
	b := &v1.Event{ID: "b", OccurredAt: t0}
	c := &v1.Event{ID: "c", OccurredAt: t0.Add(time.Hour)}

	events := []*v1.Event{a, b, c}
	require.Equal(t, "c", LatestClone(events).ID)
	require.Equal(t, []string{"a", "b", "c"}, eventIDs(events))
}

func TestKindByName(t *testing.T) {
	k, ok := KindByName(" Photo ")
	require.True(t, ok)
	require.Equal(t, v1.TypePhotoClonedForSharing, k.EventType)
	require.Equal(t, payload.Path{"clonedFrom", "photoId"}, k.OriginalIDPath)

	_, ok = KindByName("family")
	require.False(t, ok)
}

type failingQuerier struct{}

func (failingQuerier) GetEventList(context.Context, []string, payload.Filter) ([]*v1.Event, error) {
	return nil, errors.New("store down")
}

func (failingQuerier) GetSingleEvent(context.Context, []string, payload.Filter) (*v1.Event, error) {
	return nil, errors.New("store down")
}

func TestResolver_PropagatesStoreErrors(t *testing.T) {
	r := NewResolver(failingQuerier{})

	_, err := r.ResolveOriginal(context.Background(), Person, "A")
	require.ErrorContains(t, err, "store down")

	_, err = r.FindAllClones(context.Background(), Person, "A")
	require.ErrorContains(t, err, "store down")
}

func eventIDs(events []*v1.Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.ID
	}
	return out
}
