package readmodel

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	v1 "github.com/kinlog-lab/kinlog/internal/api/v1"
	"github.com/kinlog-lab/kinlog/internal/core/payload"
	"github.com/kinlog-lab/kinlog/internal/projection"
	"github.com/shopspring/decimal"
)

const (
	PhotoLocationsName    = "photo_locations"
	photoLocationsVersion = 1

	// Coordinates are stored as NUMERIC(10,7).
	coordinatePlaces = 7
)

// PhotoLocation is the latest location set on a photo.
type PhotoLocation struct {
	PhotoID   string              `json:"photo_id"`
	Name      string              `json:"name"`
	Latitude  decimal.NullDecimal `json:"latitude"`
	Longitude decimal.NullDecimal `json:"longitude"`
	EventID   string              `json:"event_id"`
	SetAt     time.Time           `json:"set_at"`
}

// PhotoLocations keeps the last UserSetPhotoLocation per photo.
type PhotoLocations struct {
	db       *sql.DB
	versions sqlVersions
}

var (
	_ projection.Projection = (*PhotoLocations)(nil)
	_ projection.Finalizer  = (*PhotoLocations)(nil)
)

func NewPhotoLocations(db *sql.DB) *PhotoLocations {
	return &PhotoLocations{
		db:       db,
		versions: sqlVersions{db: db, nowFn: time.Now},
	}
}

func (p *PhotoLocations) Name() string {
	return PhotoLocationsName
}

func (p *PhotoLocations) RequiresRebuild(ctx context.Context) (bool, error) {
	return p.versions.requiresRebuild(ctx, PhotoLocationsName, photoLocationsVersion)
}

func (p *PhotoLocations) Reset(ctx context.Context) error {
	if err := p.versions.clear(ctx, PhotoLocationsName); err != nil {
		return err
	}
	if _, err := p.db.ExecContext(ctx, queryTruncatePhotoLocations); err != nil {
		return fmt.Errorf("failed to truncate photo_locations: %w", err)
	}
	return nil
}

func (p *PhotoLocations) HandleEvent(ctx context.Context, evt *v1.Event) error {
	if evt.Type != v1.TypeUserSetPhotoLocation {
		return nil
	}

	loc, err := locationFromEvent(evt)
	if err != nil {
		return err
	}

	_, err = p.db.ExecContext(ctx, queryUpsertPhotoLocation,
		loc.PhotoID,
		loc.Name,
		loc.Latitude,
		loc.Longitude,
		loc.EventID,
		loc.SetAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert location of photo %s: %w", loc.PhotoID, err)
	}
	return nil
}

func (p *PhotoLocations) MarkRebuilt(ctx context.Context) error {
	return p.versions.mark(ctx, PhotoLocationsName, photoLocationsVersion)
}

// Location returns the stored location of photoID, or nil when none was set.
func (p *PhotoLocations) Location(ctx context.Context, photoID string) (*PhotoLocation, error) {
	var loc PhotoLocation
	err := p.db.QueryRowContext(ctx, queryGetPhotoLocation, photoID).Scan(
		&loc.PhotoID,
		&loc.Name,
		&loc.Latitude,
		&loc.Longitude,
		&loc.EventID,
		&loc.SetAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read location of photo %s: %w", photoID, err)
	}
	loc.SetAt = loc.SetAt.UTC()
	return &loc, nil
}

var (
	locationNamePaths = []payload.Path{payload.MustPath("location.name"), payload.MustPath("name")}
	latitudePaths     = []payload.Path{payload.MustPath("location.latitude"), payload.MustPath("latitude")}
	longitudePaths    = []payload.Path{payload.MustPath("location.longitude"), payload.MustPath("longitude")}
)

// locationFromEvent accepts both {"location": {...}} and flat payloads.
func locationFromEvent(evt *v1.Event) (*PhotoLocation, error) {
	photoID := evt.String("photoId")
	if photoID == "" {
		return nil, fmt.Errorf("%s event %s has no photoId", evt.Type, evt.ID)
	}

	lat, err := coordinate(evt.Payload, latitudePaths)
	if err != nil {
		return nil, fmt.Errorf("event %s: latitude: %w", evt.ID, err)
	}
	lng, err := coordinate(evt.Payload, longitudePaths)
	if err != nil {
		return nil, fmt.Errorf("event %s: longitude: %w", evt.ID, err)
	}

	var name string
	for _, p := range locationNamePaths {
		if name = payload.GetString(evt.Payload, p); name != "" {
			break
		}
	}

	return &PhotoLocation{
		PhotoID:   photoID,
		Name:      name,
		Latitude:  lat,
		Longitude: lng,
		EventID:   evt.ID,
		SetAt:     evt.OccurredAt,
	}, nil
}

func coordinate(doc map[string]interface{}, paths []payload.Path) (decimal.NullDecimal, error) {
	for _, p := range paths {
		raw, ok := payload.Get(doc, p)
		if !ok || raw == nil {
			continue
		}

		var d decimal.Decimal
		switch v := raw.(type) {
		case float64:
			d = decimal.NewFromFloat(v)
		case string:
			parsed, err := decimal.NewFromString(v)
			if err != nil {
				return decimal.NullDecimal{}, err
			}
			d = parsed
		default:
			return decimal.NullDecimal{}, fmt.Errorf("unsupported coordinate type %T", raw)
		}
		return decimal.NewNullDecimal(d.Round(coordinatePlaces)), nil
	}
	return decimal.NullDecimal{}, nil
}
