package readmodel

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// sqlVersions reads and stamps rows in projection_versions. A projection is current only
// when its row exists with the version the code expects.
type sqlVersions struct {
	db    *sql.DB
	nowFn func() time.Time
}

func (v sqlVersions) requiresRebuild(ctx context.Context, name string, want int) (bool, error) {
	var got int
	err := v.db.QueryRowContext(ctx, queryGetProjectionVersion, name).Scan(&got)
	if errors.Is(err, sql.ErrNoRows) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read version of %s: %w", name, err)
	}
	return got != want, nil
}

func (v sqlVersions) clear(ctx context.Context, name string) error {
	if _, err := v.db.ExecContext(ctx, queryClearProjectionVersion, name); err != nil {
		return fmt.Errorf("failed to clear version of %s: %w", name, err)
	}
	return nil
}

func (v sqlVersions) mark(ctx context.Context, name string, version int) error {
	if _, err := v.db.ExecContext(ctx, querySetProjectionVersion, name, version, v.nowFn().UTC()); err != nil {
		return fmt.Errorf("failed to stamp version of %s: %w", name, err)
	}
	return nil
}
