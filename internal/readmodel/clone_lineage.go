// Package readmodel holds kinlog's concrete projections. Each one is rebuilt from the event
// log by projection.Runner and can be dropped at any time.
package readmodel

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	v1 "github.com/kinlog-lab/kinlog/internal/api/v1"
	"github.com/kinlog-lab/kinlog/internal/clone"
	"github.com/kinlog-lab/kinlog/internal/projection"
)

const (
	CloneLineageName    = "clone_lineage"
	cloneLineageVersion = 1
)

// LineageRow is one clone and the entity it was cloned from.
type LineageRow struct {
	Kind           string    `json:"kind"`
	CloneID        string    `json:"clone_id"`
	OriginalID     string    `json:"original_id"`
	CloneFamilyID  string    `json:"clone_family_id"`
	OriginFamilyID string    `json:"origin_family_id"`
	EventID        string    `json:"event_id"`
	ClonedAt       time.Time `json:"cloned_at"`
}

// CloneLineage materialises every *ClonedForSharing event into the clone_lineage table.
type CloneLineage struct {
	db       *sql.DB
	versions sqlVersions
	kinds    map[string]clone.Kind
}

var (
	_ projection.Projection = (*CloneLineage)(nil)
	_ projection.Finalizer  = (*CloneLineage)(nil)
)

// NewCloneLineage creates the projection over db.
func NewCloneLineage(db *sql.DB) *CloneLineage {
	kinds := make(map[string]clone.Kind, len(clone.Kinds))
	for _, k := range clone.Kinds {
		kinds[k.EventType] = k
	}
	return &CloneLineage{
		db:       db,
		versions: sqlVersions{db: db, nowFn: time.Now},
		kinds:    kinds,
	}
}

func (p *CloneLineage) Name() string {
	return CloneLineageName
}

func (p *CloneLineage) RequiresRebuild(ctx context.Context) (bool, error) {
	return p.versions.requiresRebuild(ctx, CloneLineageName, cloneLineageVersion)
}

func (p *CloneLineage) Reset(ctx context.Context) error {
	if err := p.versions.clear(ctx, CloneLineageName); err != nil {
		return err
	}
	if _, err := p.db.ExecContext(ctx, queryTruncateCloneLineage); err != nil {
		return fmt.Errorf("failed to truncate clone_lineage: %w", err)
	}
	return nil
}

func (p *CloneLineage) HandleEvent(ctx context.Context, evt *v1.Event) error {
	kind, ok := p.kinds[evt.Type]
	if !ok {
		return nil
	}

	cloneID := kind.CloneID(evt)
	originalID := kind.OriginalID(evt)
	if cloneID == "" || originalID == "" {
		return fmt.Errorf("%s event %s is missing %s or %s", evt.Type, evt.ID, kind.IDField, kind.OriginalIDPath)
	}

	_, err := p.db.ExecContext(ctx, queryUpsertCloneLineage,
		kind.Name,
		cloneID,
		originalID,
		kind.CloneFamily(evt),
		kind.OriginalFamily(evt),
		evt.ID,
		evt.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert lineage for %s %s: %w", kind, cloneID, err)
	}
	return nil
}

func (p *CloneLineage) MarkRebuilt(ctx context.Context) error {
	return p.versions.mark(ctx, CloneLineageName, cloneLineageVersion)
}

// Parent returns the lineage row for cloneID, or nil when it is not a clone.
func (p *CloneLineage) Parent(ctx context.Context, kind clone.Kind, cloneID string) (*LineageRow, error) {
	row, err := scanLineageRow(p.db.QueryRowContext(ctx, queryGetCloneLineage, kind.Name, cloneID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return row, err
}

// Children returns the direct clones of originalID, oldest first.
func (p *CloneLineage) Children(ctx context.Context, kind clone.Kind, originalID string) ([]LineageRow, error) {
	rows, err := p.db.QueryContext(ctx, queryListDirectClones, kind.Name, originalID)
	if err != nil {
		return nil, fmt.Errorf("failed to list clones of %s: %w", originalID, err)
	}
	defer rows.Close()

	var out []LineageRow
	for rows.Next() {
		row, err := scanLineageRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating lineage rows: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanLineageRow(row rowScanner) (*LineageRow, error) {
	var r LineageRow
	err := row.Scan(&r.Kind, &r.CloneID, &r.OriginalID, &r.CloneFamilyID, &r.OriginFamilyID, &r.EventID, &r.ClonedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan lineage row: %w", err)
	}
	r.ClonedAt = r.ClonedAt.UTC()
	return &r, nil
}
