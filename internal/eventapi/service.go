// Package eventapi exposes the event log, clone resolution and read models over HTTP.
package eventapi

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kinlog-lab/kinlog/internal/clone"
	"github.com/kinlog-lab/kinlog/internal/core/storage"
	"github.com/kinlog-lab/kinlog/internal/readmodel"
	"golang.org/x/sync/singleflight"
)

// LocationReader is the read side of the photo locations projection.
type LocationReader interface {
	Location(ctx context.Context, photoID string) (*readmodel.PhotoLocation, error)
}

// LineageReader is the read side of the clone lineage projection.
type LineageReader interface {
	Parent(ctx context.Context, kind clone.Kind, cloneID string) (*readmodel.LineageRow, error)
	Children(ctx context.Context, kind clone.Kind, originalID string) ([]readmodel.LineageRow, error)
}

// SharingReader is the read side of the family sharing projection.
type SharingReader interface {
	Members(ctx context.Context, familyID, kind string) ([]string, error)
}

// Service wires the HTTP handlers to the store and read models.
type Service struct {
	store            storage.EventStore
	resolver         *clone.Resolver
	locations        LocationReader
	lineage          LineageReader
	sharing          SharingReader
	maxBodySizeBytes int
	nowFn            func() time.Time

	resolveGroup singleflight.Group // dedupes concurrent walks of the same clone chain
}

// Option configures optional read models.
type Option func(*Service)

// WithLocations enables GET /v1/photos/:photo_id/location.
func WithLocations(r LocationReader) Option {
	return func(s *Service) { s.locations = r }
}

// WithLineage enables GET /v1/clones/:kind/:id/lineage.
func WithLineage(r LineageReader) Option {
	return func(s *Service) { s.lineage = r }
}

// WithSharing enables GET /v1/families/:family_id/:kind.
func WithSharing(r SharingReader) Option {
	return func(s *Service) { s.sharing = r }
}

func NewService(store storage.EventStore, maxBodySizeMB int, opts ...Option) *Service {
	s := &Service{
		store:            store,
		resolver:         clone.NewResolver(store),
		maxBodySizeBytes: maxBodySizeMB * 1024 * 1024,
		nowFn:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterRoutes registers the API routes. Read model routes exist only when their reader is set.
func (s *Service) RegisterRoutes(r *gin.Engine) {
	v1 := r.Group("/v1")
	{
		v1.POST("/events", s.AppendHandler)
		v1.GET("/events", s.ListHandler)
		v1.GET("/events/latest", s.LatestHandler)

		v1.GET("/clones/:kind/:id/original", s.OriginalHandler)
		v1.GET("/clones/:kind/:id/clones", s.ClonesHandler)

		if s.lineage != nil {
			v1.GET("/clones/:kind/:id/lineage", s.LineageHandler)
		}
		if s.locations != nil {
			v1.GET("/photos/:photo_id/location", s.LocationHandler)
		}
		if s.sharing != nil {
			v1.GET("/families/:family_id/:kind", s.MembersHandler)
		}
	}
}
