package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	v1 "github.com/kinlog-lab/kinlog/internal/api/v1"
	"github.com/kinlog-lab/kinlog/internal/bootstrap"
	"github.com/kinlog-lab/kinlog/internal/config"
	"github.com/kinlog-lab/kinlog/internal/core/storage"
	"github.com/kinlog-lab/kinlog/internal/core/storage/memory"
	"github.com/kinlog-lab/kinlog/internal/core/storage/postgres"
	"github.com/kinlog-lab/kinlog/internal/migrations"
	"github.com/kinlog-lab/kinlog/internal/projection"
	"github.com/kinlog-lab/kinlog/internal/readmodel"
	"github.com/redis/go-redis/v9"
)

const redisPingTimeout = 5 * time.Second

// app is everything a command needs, opened from config.
type app struct {
	cfg       *config.Config
	store     storage.EventStore
	locker    storage.Locker
	runner    *projection.Runner
	lineage   *readmodel.CloneLineage
	locations *readmodel.PhotoLocations
	sharing   *readmodel.FamilySharing
	closers   []func() error
}

// openApp connects the event store and every configured read model.
// With database.type=memory the SQL read models are unavailable.
func openApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg}
	var projections []projection.Projection

	switch cfg.Database.Type {
	case "memory":
		store := memory.New()
		a.store = store
		a.locker = store
		slog.Warn("[App] Using in-memory event store, history is lost on exit")

	default:
		db, err := postgres.Open(cfg.Database.DSN, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)
		if err != nil {
			return nil, err
		}
		if err := migrations.RunMigrations(db, cfg.Database.AutoMigrate); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run database migrations: %w", err)
		}
		adapter, err := postgres.NewAdapter(db)
		if err != nil {
			db.Close()
			return nil, err
		}
		a.closers = append(a.closers, adapter.Close)
		a.store = adapter
		a.locker = postgres.NewLocker(db)

		a.lineage = readmodel.NewCloneLineage(db)
		a.locations = readmodel.NewPhotoLocations(db)
		projections = append(projections, a.lineage, a.locations)
	}

	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			client.Close()
			a.close()
			return nil, fmt.Errorf("failed to ping redis at %s: %w", cfg.Redis.Addr, err)
		}
		a.closers = append(a.closers, client.Close)
		a.sharing = readmodel.NewFamilySharing(client, cfg.Redis.KeyPrefix)
		projections = append(projections, a.sharing)
	}

	a.runner = projection.NewRunner(a.store, projections...)
	slog.Info("[App] Opened",
		"database", cfg.Database.Type,
		"projections", a.runner.Names())
	return a, nil
}

// close releases resources in reverse opening order.
func (a *app) close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// bootResult is what the boot sequence did.
type bootResult struct {
	Seeded  bool              `json:"seeded"`
	Rebuild projection.Report `json:"rebuild"`
}

// boot seeds an empty store when configured, then brings stale projections up to date.
func (a *app) boot(ctx context.Context) (bootResult, error) {
	var res bootResult

	if a.cfg.Bootstrap.SeedIfEmpty {
		now := time.Now()
		var fixture []*v1.Event
		if a.cfg.Bootstrap.FixturePath != "" {
			events, err := bootstrap.LoadFixture(a.cfg.Bootstrap.FixturePath, now)
			if err != nil {
				return res, err
			}
			fixture = events
		}
		seeded, err := bootstrap.SeedIfEmpty(ctx, a.store, a.cfg.Bootstrap.EventType, fixture, now)
		if err != nil {
			return res, fmt.Errorf("seed: %w", err)
		}
		res.Seeded = seeded
	}

	report, err := a.runner.Rebuild(ctx)
	res.Rebuild = report
	if err != nil {
		return res, err
	}
	return res, nil
}
