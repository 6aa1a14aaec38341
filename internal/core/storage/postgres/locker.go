package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"

	"github.com/kinlog-lab/kinlog/internal/core/storage"
)

// Locker hands out session-level advisory locks keyed by name.
// Each held lock pins one pooled connection until released.
type Locker struct {
	db *sql.DB
}

var _ storage.Locker = (*Locker)(nil)

// NewLocker creates a Locker over the given pool.
func NewLocker(db *sql.DB) *Locker {
	return &Locker{db: db}
}

// TryLock attempts pg_try_advisory_lock without blocking.
func (l *Locker) TryLock(ctx context.Context, name string) (func(), bool, error) {
	conn, err := l.db.Conn(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to reserve lock connection: %w", err)
	}

	var acquired bool
	if err := conn.QueryRowContext(ctx, queryTryAdvisoryLock, name).Scan(&acquired); err != nil {
		conn.Close()
		return nil, false, fmt.Errorf("failed to acquire advisory lock %q: %w", name, err)
	}

	if !acquired {
		conn.Close()
		return nil, false, nil
	}

	var once sync.Once
	release := func() {
		once.Do(func() {
			// The lock is session scoped; unlock on the same connection before returning it.
			if _, err := conn.ExecContext(context.Background(), queryAdvisoryUnlock, name); err != nil {
				slog.Warn("[Postgres] Failed to release advisory lock", "lock", name, "error", err)
			}
			if err := conn.Close(); err != nil {
				slog.Warn("[Postgres] Failed to return lock connection", "lock", name, "error", err)
			}
		})
	}

	slog.Debug("[Postgres] Advisory lock acquired", "lock", name)
	return release, true, nil
}
