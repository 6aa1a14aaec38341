package backfill

import (
	"context"
	"encoding/json"
	"fmt"

	v1 "github.com/kinlog-lab/kinlog/internal/api/v1"
	"github.com/kinlog-lab/kinlog/internal/clone"
	"github.com/kinlog-lab/kinlog/internal/core/payload"
)

const photoNodeType = "photoNode"

// ThreadCloneJob copies the newest content written on a thread's clones back onto the
// original thread, with photo references pointed at canonical photos, and shares the
// original with the latest clone's family.
type ThreadCloneJob struct {
	jobBase
}

func NewThreadCloneJob(store clone.Querier) *ThreadCloneJob {
	return &ThreadCloneJob{jobBase: newJobBase(store)}
}

func (j *ThreadCloneJob) Name() string {
	return ThreadCloneName
}

func (j *ThreadCloneJob) Run(ctx context.Context, w Writer) (Stats, error) {
	stats := Stats{
		"threads_scanned":     0,
		"threads_with_clones": 0,
		"content_updates":     0,
		"photo_refs_fixed":    0,
		"shares_appended":     0,
	}

	originals, err := j.originalThreads(ctx)
	if err != nil {
		return stats, err
	}
	stats["threads_scanned"] = len(originals)

	for _, threadID := range originals {
		if err := j.mergeClones(ctx, w, threadID, stats); err != nil {
			return stats, fmt.Errorf("thread %s: %w", threadID, err)
		}
	}
	return stats, nil
}

// originalThreads lists thread ids that are not themselves clones: created threads plus
// anything a clone points back to.
func (j *ThreadCloneJob) originalThreads(ctx context.Context) ([]string, error) {
	created, err := j.store.GetEventList(ctx, []string{v1.TypeUserCreatedThread}, nil)
	if err != nil {
		return nil, fmt.Errorf("list created threads: %w", err)
	}
	clones, err := j.store.GetEventList(ctx, []string{clone.Thread.EventType}, nil)
	if err != nil {
		return nil, fmt.Errorf("list thread clones: %w", err)
	}

	cloneIDs := newOrderedSet()
	for _, evt := range clones {
		cloneIDs.add(clone.Thread.CloneID(evt))
	}

	candidates := newOrderedSet()
	for _, evt := range created {
		candidates.add(evt.String("threadId"))
	}
	for _, evt := range clones {
		candidates.add(clone.Thread.OriginalID(evt))
	}

	var out []string
	for _, id := range candidates.items {
		if !cloneIDs.has(id) {
			out = append(out, id)
		}
	}
	return out, nil
}

func (j *ThreadCloneJob) mergeClones(ctx context.Context, w Writer, threadID string, stats Stats) error {
	clones, err := j.resolver.FindAllClones(ctx, clone.Thread, threadID)
	if err != nil {
		return err
	}
	if len(clones) == 0 {
		return nil
	}
	stats["threads_with_clones"]++

	latest := clone.LatestClone(clones)
	latestID := clone.Thread.CloneID(latest)
	familyID := clone.Thread.CloneFamily(latest)

	content := latest.Payload["contentAsJSON"]
	update, err := j.store.GetSingleEvent(ctx, []string{v1.TypeUserUpdatedThreadAsRichText}, payload.Filter{"threadId": latestID})
	if err != nil {
		return fmt.Errorf("latest content of clone %s: %w", latestID, err)
	}
	if update != nil {
		content = update.Payload["contentAsJSON"]
	}

	var photoIDs []string
	if content != nil {
		fixed, ids, changed, err := j.canonicalizeContent(ctx, content)
		if err != nil {
			return err
		}
		photoIDs = ids
		stats["photo_refs_fixed"] += changed

		if err := w.Append(ctx, j.newEvent(v1.TypeUserUpdatedThreadAsRichText, map[string]interface{}{
			"threadId":      threadID,
			"contentAsJSON": fixed,
		})); err != nil {
			return err
		}
		stats["content_updates"]++
	}

	if err := w.Append(ctx, j.newEvent(v1.TypeThreadAutoSharedWithFamily, map[string]interface{}{
		"threadId": threadID,
		"familyId": familyID,
	})); err != nil {
		return err
	}
	stats["shares_appended"]++

	for _, photoID := range photoIDs {
		if err := w.Append(ctx, j.newEvent(v1.TypePhotoAutoSharedWithThread, map[string]interface{}{
			"photoId":  photoID,
			"threadId": threadID,
			"familyId": familyID,
		})); err != nil {
			return err
		}
		stats["shares_appended"]++
	}
	return nil
}

// canonicalizeContent rewrites attrs.photoId of every photoNode in a rich-text document.
// Content stored as a JSON string is returned as a JSON string.
func (j *ThreadCloneJob) canonicalizeContent(ctx context.Context, content interface{}) (interface{}, []string, int, error) {
	encoded, isString := content.(string)

	var doc interface{}
	if isString {
		if err := json.Unmarshal([]byte(encoded), &doc); err != nil {
			return nil, nil, 0, fmt.Errorf("decode contentAsJSON: %w", err)
		}
	} else {
		normalized, err := payload.Normalize(content)
		if err != nil {
			return nil, nil, 0, err
		}
		doc = normalized
	}

	photos := newOrderedSet()
	changed := 0
	if err := j.walkPhotoNodes(ctx, doc, photos, &changed); err != nil {
		return nil, nil, 0, err
	}

	if !isString {
		return doc, photos.items, changed, nil
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("encode contentAsJSON: %w", err)
	}
	return string(raw), photos.items, changed, nil
}

// walkPhotoNodes mutates doc in place. It uses an explicit stack so deeply nested documents
// cannot exhaust the goroutine stack.
func (j *ThreadCloneJob) walkPhotoNodes(ctx context.Context, doc interface{}, photos *orderedSet, changed *int) error {
	stack := []interface{}{doc}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch n := node.(type) {
		case []interface{}:
			for i := len(n) - 1; i >= 0; i-- {
				stack = append(stack, n[i])
			}
		case map[string]interface{}:
			if n["type"] == photoNodeType {
				if attrs, ok := n["attrs"].(map[string]interface{}); ok {
					if photoID, ok := attrs["photoId"].(string); ok && photoID != "" {
						canonical, err := j.resolver.ResolveOriginal(ctx, clone.Photo, photoID)
						if err != nil {
							return err
						}
						if canonical != photoID {
							attrs["photoId"] = canonical
							*changed++
						}
						photos.add(canonical)
					}
				}
			}
			for _, key := range []string{"content", "attrs"} {
				if child, ok := n[key]; ok {
					stack = append(stack, child)
				}
			}
			for key, child := range n {
				if key == "content" || key == "attrs" || key == "type" {
					continue
				}
				switch child.(type) {
				case map[string]interface{}, []interface{}:
					stack = append(stack, child)
				}
			}
		}
	}
	return nil
}
