package backfill

import (
	"context"
	"fmt"

	v1 "github.com/kinlog-lab/kinlog/internal/api/v1"
	"github.com/kinlog-lab/kinlog/internal/clone"
)

// PhotoCloneJob shares every original photo with the threads its clones were shared into.
type PhotoCloneJob struct {
	jobBase
}

func NewPhotoCloneJob(store clone.Querier) *PhotoCloneJob {
	return &PhotoCloneJob{jobBase: newJobBase(store)}
}

func (j *PhotoCloneJob) Name() string {
	return PhotoCloneName
}

func (j *PhotoCloneJob) Run(ctx context.Context, w Writer) (Stats, error) {
	stats := Stats{
		"photos_scanned":        0,
		"originals":             0,
		"clones_found":          0,
		"clones_without_thread": 0,
		"shares_appended":       0,
	}

	events, err := j.store.GetEventList(ctx, v1.PhotoEventTypes, nil)
	if err != nil {
		return stats, fmt.Errorf("list photo events: %w", err)
	}

	photoIDs := newOrderedSet()
	for _, evt := range events {
		photoIDs.add(evt.String("photoId"))
	}
	stats["photos_scanned"] = len(photoIDs.items)

	originals := newOrderedSet()
	for _, id := range photoIDs.items {
		canonical, err := j.resolver.ResolveOriginal(ctx, clone.Photo, id)
		if err != nil {
			return stats, fmt.Errorf("photo %s: %w", id, err)
		}
		originals.add(canonical)
	}
	stats["originals"] = len(originals.items)

	shared := newOrderedSet()
	for _, original := range originals.items {
		clones, err := j.resolver.FindAllClones(ctx, clone.Photo, original)
		if err != nil {
			return stats, fmt.Errorf("photo %s: %w", original, err)
		}

		for _, c := range clones {
			stats["clones_found"]++

			threadID := c.String("threadId")
			if threadID == "" {
				stats["clones_without_thread"]++
				continue
			}
			familyID := clone.Photo.CloneFamily(c)

			if !shared.add(original + "\x00" + threadID + "\x00" + familyID) {
				continue
			}

			share := j.newEvent(v1.TypePhotoAutoSharedWithThread, map[string]interface{}{
				"photoId":  original,
				"threadId": threadID,
				"familyId": familyID,
			})
			if err := w.Append(ctx, share); err != nil {
				return stats, fmt.Errorf("share photo %s with thread %s: %w", original, threadID, err)
			}
			stats["shares_appended"]++
		}
	}

	return stats, nil
}
