package readmodel

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	v1 "github.com/kinlog-lab/kinlog/internal/api/v1"
	"github.com/kinlog-lab/kinlog/internal/clone"
	"github.com/kinlog-lab/kinlog/internal/projection"
	"github.com/redis/go-redis/v9"
)

const (
	FamilySharingName    = "family_sharing"
	familySharingVersion = 1

	defaultKeyPrefix = "kinlog"
	resetScanCount   = 500
)

// Entity kinds tracked per family.
const (
	SharedPersons = "persons"
	SharedPhotos  = "photos"
	SharedThreads = "threads"
)

// ErrUnknownSharedKind is returned for a kind other than persons, photos or threads.
var ErrUnknownSharedKind = errors.New("unknown shared kind")

// FamilySharing maintains, per family, the sets of persons, photos and threads the family can see:
//
//	<prefix>:family:<familyId>:persons
//	<prefix>:family:<familyId>:photos
//	<prefix>:family:<familyId>:threads
type FamilySharing struct {
	redis  *redis.Client
	prefix string
}

var (
	_ projection.Projection = (*FamilySharing)(nil)
	_ projection.Finalizer  = (*FamilySharing)(nil)
)

// NewFamilySharing creates the projection. An empty prefix falls back to "kinlog".
func NewFamilySharing(client *redis.Client, prefix string) *FamilySharing {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &FamilySharing{redis: client, prefix: prefix}
}

func (p *FamilySharing) Name() string {
	return FamilySharingName
}

func (p *FamilySharing) RequiresRebuild(ctx context.Context) (bool, error) {
	raw, err := p.redis.Get(ctx, p.versionKey()).Result()
	if errors.Is(err, redis.Nil) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s version: %w", FamilySharingName, err)
	}
	version, err := strconv.Atoi(raw)
	if err != nil {
		return true, nil
	}
	return version != familySharingVersion, nil
}

// Reset deletes every family set and the version stamp.
func (p *FamilySharing) Reset(ctx context.Context) error {
	if err := p.redis.Del(ctx, p.versionKey()).Err(); err != nil {
		return fmt.Errorf("failed to clear %s version: %w", FamilySharingName, err)
	}

	iter := p.redis.Scan(ctx, 0, p.prefix+":family:*", resetScanCount).Iterator()
	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) >= resetScanCount {
			if err := p.redis.Del(ctx, batch...).Err(); err != nil {
				return fmt.Errorf("failed to delete family keys: %w", err)
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan family keys: %w", err)
	}
	if len(batch) > 0 {
		if err := p.redis.Del(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("failed to delete family keys: %w", err)
		}
	}
	return nil
}

func (p *FamilySharing) HandleEvent(ctx context.Context, evt *v1.Event) error {
	familyID, kind, entityID := sharedEntity(evt)
	if familyID == "" || entityID == "" {
		return nil
	}
	if err := p.redis.SAdd(ctx, p.familyKey(familyID, kind), entityID).Err(); err != nil {
		return fmt.Errorf("failed to share %s %s with family %s: %w", kind, entityID, familyID, err)
	}
	return nil
}

func (p *FamilySharing) MarkRebuilt(ctx context.Context) error {
	if err := p.redis.Set(ctx, p.versionKey(), familySharingVersion, 0).Err(); err != nil {
		return fmt.Errorf("failed to stamp %s version: %w", FamilySharingName, err)
	}
	return nil
}

// Members lists the ids of kind visible to familyID, sorted.
func (p *FamilySharing) Members(ctx context.Context, familyID, kind string) ([]string, error) {
	if !validSharedKind(kind) {
		return nil, fmt.Errorf("%w %q", ErrUnknownSharedKind, kind)
	}
	members, err := p.redis.SMembers(ctx, p.familyKey(familyID, kind)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list %s of family %s: %w", kind, familyID, err)
	}
	sort.Strings(members)
	return members, nil
}

// CanSee reports whether familyID has been granted entityID.
func (p *FamilySharing) CanSee(ctx context.Context, familyID, kind, entityID string) (bool, error) {
	if !validSharedKind(kind) {
		return false, fmt.Errorf("%w %q", ErrUnknownSharedKind, kind)
	}
	ok, err := p.redis.SIsMember(ctx, p.familyKey(familyID, kind), entityID).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check %s %s for family %s: %w", kind, entityID, familyID, err)
	}
	return ok, nil
}

func (p *FamilySharing) familyKey(familyID, kind string) string {
	return p.prefix + ":family:" + familyID + ":" + kind
}

func (p *FamilySharing) versionKey() string {
	return p.prefix + ":projection:" + FamilySharingName + ":version"
}

func validSharedKind(kind string) bool {
	switch kind {
	case SharedPersons, SharedPhotos, SharedThreads:
		return true
	}
	return false
}

var cloneSharedKinds = map[string]string{
	clone.Person.Name: SharedPersons,
	clone.Photo.Name:  SharedPhotos,
	clone.Thread.Name: SharedThreads,
}

// sharedEntity extracts (familyId, kind, entity id) from events that grant visibility.
func sharedEntity(evt *v1.Event) (string, string, string) {
	family := evt.String("familyId")

	switch evt.Type {
	case v1.TypePersonClonedForSharing, v1.TypePhotoClonedForSharing, v1.TypeThreadClonedForSharing:
		for _, k := range clone.Kinds {
			if k.EventType == evt.Type {
				return k.CloneFamily(evt), cloneSharedKinds[k.Name], k.CloneID(evt)
			}
		}
	case v1.TypePersonAutoSharedWithPhotoFace, v1.TypePersonAutoSharedWithRelationship, v1.TypePersonNamed:
		return family, SharedPersons, evt.String("personId")
	case v1.TypePhotoAutoSharedWithThread, v1.TypeUserUploadedPhoto, v1.TypeUserUploadedPhotoToChat:
		return family, SharedPhotos, evt.String("photoId")
	case v1.TypeThreadAutoSharedWithFamily, v1.TypeUserCreatedThread:
		return family, SharedThreads, evt.String("threadId")
	}
	return "", "", ""
}
