package readmodel

import (
	"context"
	"fmt"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	v1 "github.com/kinlog-lab/kinlog/internal/api/v1"
	"github.com/kinlog-lab/kinlog/internal/core/storage/memory"
	"github.com/kinlog-lab/kinlog/internal/projection"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newSharing(t *testing.T) (*FamilySharing, *miniredis.Miniredis) {
	t.Helper()
	m := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() { rc.Close() })
	return NewFamilySharing(rc, "test"), m
}

func TestFamilySharing_VersionLifecycle(t *testing.T) {
	p, m := newSharing(t)
	ctx := context.Background()

	needs, err := p.RequiresRebuild(ctx)
	require.NoError(t, err)
	require.True(t, needs)

	require.NoError(t, p.MarkRebuilt(ctx))
	got, err := m.Get("test:projection:family_sharing:version")
	require.NoError(t, err)
	require.Equal(t, "1", got)

	needs, err = p.RequiresRebuild(ctx)
	require.NoError(t, err)
	require.False(t, needs)

	require.NoError(t, m.Set("test:projection:family_sharing:version", "garbage"))
	needs, err = p.RequiresRebuild(ctx)
	require.NoError(t, err)
	require.True(t, needs)
}

func TestFamilySharing_HandleEvent(t *testing.T) {
	p, _ := newSharing(t)
	ctx := context.Background()

	events := []*v1.Event{
		personClone("evt-b", "B", "fam-2", "A", "fam-1", t0),
		{ID: "face", Type: v1.TypePersonAutoSharedWithPhotoFace, OccurredAt: t0, Payload: map[string]interface{}{
			"personId": "A", "familyId": "fam-2", "faceId": "f-1", "photoId": "ph-1",
		}},
		{ID: "pts", Type: v1.TypePhotoAutoSharedWithThread, OccurredAt: t0, Payload: map[string]interface{}{
			"photoId": "ph-1", "threadId": "thr-2", "familyId": "fam-2",
		}},
		{ID: "tsf", Type: v1.TypeThreadAutoSharedWithFamily, OccurredAt: t0, Payload: map[string]interface{}{
			"threadId": "thr-1", "familyId": "fam-2",
		}},
		{ID: "upload", Type: v1.TypeUserUploadedPhoto, OccurredAt: t0, Payload: map[string]interface{}{
			"photoId": "ph-9", "familyId": "fam-1",
		}},
		{ID: "no-family", Type: v1.TypeUserUploadedPhoto, OccurredAt: t0, Payload: map[string]interface{}{
			"photoId": "ph-10",
		}},
		{ID: "ignored", Type: v1.TypeUserSetPhotoDate, OccurredAt: t0, Payload: map[string]interface{}{
			"photoId": "ph-1", "familyId": "fam-2",
		}},
	}
	for _, evt := range events {
		require.NoError(t, p.HandleEvent(ctx, evt))
	}

	persons, err := p.Members(ctx, "fam-2", SharedPersons)
	require.NoError(t, err)
	require.Equal(t, []string{"A", "B"}, persons)

	photos, err := p.Members(ctx, "fam-2", SharedPhotos)
	require.NoError(t, err)
	require.Equal(t, []string{"ph-1"}, photos)

	threads, err := p.Members(ctx, "fam-2", SharedThreads)
	require.NoError(t, err)
	require.Equal(t, []string{"thr-1"}, threads)

	ok, err := p.CanSee(ctx, "fam-1", SharedPhotos, "ph-9")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = p.CanSee(ctx, "fam-1", SharedPhotos, "ph-10")
	require.NoError(t, err)
	require.False(t, ok)

	_, err = p.Members(ctx, "fam-2", "pets")
	require.ErrorContains(t, err, `unknown shared kind "pets"`)
}

func TestFamilySharing_ResetDeletesOnlyOwnKeys(t *testing.T) {
	p, m := newSharing(t)
	ctx := context.Background()

	for i := 0; i < 1200; i++ {
		_, err := m.SAdd(fmt.Sprintf("test:family:fam-%d:photos", i), "ph-1")
		require.NoError(t, err)
	}
	require.NoError(t, m.Set("other:family:fam-1:photos", "keep"))
	require.NoError(t, p.MarkRebuilt(ctx))

	require.NoError(t, p.Reset(ctx))

	require.False(t, m.Exists("test:family:fam-0:photos"))
	require.False(t, m.Exists("test:family:fam-1199:photos"))
	require.False(t, m.Exists("test:projection:family_sharing:version"))
	require.True(t, m.Exists("other:family:fam-1:photos"))
}

func TestFamilySharing_RebuildIsIdempotent(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	require.NoError(t, store.Append(ctx, personClone("evt-b", "B", "fam-2", "A", "fam-1", t0)))
	require.NoError(t, store.Append(ctx, &v1.Event{ID: "thr", Type: v1.TypeUserCreatedThread, OccurredAt: t0.Add(time.Minute), Payload: map[string]interface{}{
		"threadId": "thr-1", "familyId": "fam-1",
	}}))

	p, _ := newSharing(t)
	runner := projection.NewRunner(store, p)

	_, err := runner.ForceRebuild(ctx)
	require.NoError(t, err)
	first, err := p.Members(ctx, "fam-1", SharedThreads)
	require.NoError(t, err)

	_, err = runner.ForceRebuild(ctx)
	require.NoError(t, err)
	second, err := p.Members(ctx, "fam-1", SharedThreads)
	require.NoError(t, err)

	require.Equal(t, []string{"thr-1"}, first)
	require.Equal(t, first, second)

	report, err := runner.Rebuild(ctx)
	require.NoError(t, err)
	require.Empty(t, report.Rebuilt)
}
