package backfill

import (
	"context"
	"fmt"
	"log/slog"

	v1 "github.com/kinlog-lab/kinlog/internal/api/v1"
	"github.com/kinlog-lab/kinlog/internal/clone"
	"github.com/kinlog-lab/kinlog/internal/core/payload"
)

var (
	relationshipPersonIDsPath = payload.MustPath("relationship.personIds")
	relationshipIDPath        = payload.MustPath("relationship.id")
)

// PersonCloneJob points face recognitions and relationships at canonical persons instead of
// their sharing clones. Every corrected reference is compensated with an auto-share event so
// the clone's family keeps seeing the person.
type PersonCloneJob struct {
	jobBase
}

func NewPersonCloneJob(store clone.Querier) *PersonCloneJob {
	return &PersonCloneJob{jobBase: newJobBase(store)}
}

func (j *PersonCloneJob) Name() string {
	return PersonCloneName
}

func (j *PersonCloneJob) Run(ctx context.Context, w Writer) (Stats, error) {
	stats := Stats{
		"faces_scanned":           0,
		"faces_rewritten":         0,
		"relationships_scanned":   0,
		"relationships_rewritten": 0,
		"shares_appended":         0,
	}

	faces, err := j.store.GetEventList(ctx, []string{v1.TypeUserRecognizedPersonInPhoto}, nil)
	if err != nil {
		return stats, fmt.Errorf("list face recognitions: %w", err)
	}

	for _, evt := range faces {
		stats["faces_scanned"]++
		if err := j.fixFace(ctx, w, evt, stats); err != nil {
			return stats, fmt.Errorf("event %s: %w", evt.ID, err)
		}
	}

	relationships, err := j.store.GetEventList(ctx, v1.RelationshipEventTypes, nil)
	if err != nil {
		return stats, fmt.Errorf("list relationships: %w", err)
	}

	for _, evt := range relationships {
		stats["relationships_scanned"]++
		if err := j.fixRelationship(ctx, w, evt, stats); err != nil {
			return stats, fmt.Errorf("event %s: %w", evt.ID, err)
		}
	}

	return stats, nil
}

func (j *PersonCloneJob) fixFace(ctx context.Context, w Writer, evt *v1.Event, stats Stats) error {
	personID := evt.String("personId")
	if personID == "" {
		return nil
	}

	canonical, err := j.resolver.ResolveOriginal(ctx, clone.Person, personID)
	if err != nil {
		return err
	}
	if canonical == personID {
		return nil
	}

	familyID, err := j.resolver.CloneContext(ctx, clone.Person, personID)
	if err != nil {
		return err
	}

	if err := w.RewritePayload(ctx, evt.ID, map[string]interface{}{"personId": canonical}); err != nil {
		return err
	}
	stats["faces_rewritten"]++

	share := j.newEvent(v1.TypePersonAutoSharedWithPhotoFace, map[string]interface{}{
		"personId": canonical,
		"familyId": familyID,
		"faceId":   evt.String("faceId"),
		"photoId":  evt.String("photoId"),
	})
	if err := w.Append(ctx, share); err != nil {
		return err
	}
	stats["shares_appended"]++

	slog.Debug("[Backfill] Face pointed at canonical person",
		"event_id", evt.ID,
		"from", personID,
		"to", canonical)
	return nil
}

func (j *PersonCloneJob) fixRelationship(ctx context.Context, w Writer, evt *v1.Event, stats Stats) error {
	raw, ok := payload.Get(evt.Payload, relationshipPersonIDsPath)
	if !ok {
		return nil
	}
	ids, ok := raw.([]interface{})
	if !ok {
		return fmt.Errorf("%s is not a list", relationshipPersonIDsPath)
	}

	type change struct{ clone, canonical string }
	var changes []change

	rewritten := make([]interface{}, len(ids))
	for i, item := range ids {
		rewritten[i] = item
		personID, ok := item.(string)
		if !ok || personID == "" {
			continue
		}
		canonical, err := j.resolver.ResolveOriginal(ctx, clone.Person, personID)
		if err != nil {
			return err
		}
		if canonical != personID {
			rewritten[i] = canonical
			changes = append(changes, change{clone: personID, canonical: canonical})
		}
	}

	if len(changes) == 0 {
		return nil
	}

	if err := w.RewritePayload(ctx, evt.ID, map[string]interface{}{
		relationshipPersonIDsPath.String(): rewritten,
	}); err != nil {
		return err
	}
	stats["relationships_rewritten"]++

	relationshipID := evt.String("relationshipId")
	if relationshipID == "" {
		relationshipID = payload.GetString(evt.Payload, relationshipIDPath)
	}

	for _, c := range changes {
		familyID, err := j.resolver.CloneContext(ctx, clone.Person, c.clone)
		if err != nil {
			return err
		}
		share := j.newEvent(v1.TypePersonAutoSharedWithRelationship, map[string]interface{}{
			"personId":       c.canonical,
			"familyId":       familyID,
			"relationshipId": relationshipID,
		})
		if err := w.Append(ctx, share); err != nil {
			return err
		}
		stats["shares_appended"]++
	}
	return nil
}
