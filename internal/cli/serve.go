package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kinlog-lab/kinlog/internal/eventapi"
	"github.com/kinlog-lab/kinlog/internal/server"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// NewServeCommand creates the serve command.
func NewServeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Boot, run enabled backfills, then serve the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			parent := cmd.Context()
			if parent == nil {
				parent = context.Background()
			}
			ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
			defer stop()
			cmd.SetContext(ctx)

			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				return serve(ctx, a)
			})
		},
	}
}

func serve(ctx context.Context, a *app) error {
	cfg := a.cfg

	res, err := a.boot(ctx)
	if err != nil {
		return err
	}
	slog.Info("[Serve] Boot complete",
		"seeded", res.Seeded,
		"rebuilt", res.Rebuild.Rebuilt,
		"events_replayed", res.Rebuild.EventsReplayed)

	// A failing backfill is logged, never fatal for the server.
	if cfg.Backfill.Enabled {
		results, err := runBackfills(ctx, a, cfg.Backfill.Jobs, false)
		if err != nil {
			slog.Error("[Serve] Backfills need attention", "error", err)
		}
		for _, r := range results {
			slog.Info("[Serve] Backfill result", "job", r.Job, "outcome", r.Outcome, "error", r.Err)
		}
	}

	srv := server.New(cfg.Server.Addr(), a.store, cfg.Server.Mode)

	var apiOpts []eventapi.Option
	if a.lineage != nil {
		apiOpts = append(apiOpts, eventapi.WithLineage(a.lineage))
	}
	if a.locations != nil {
		apiOpts = append(apiOpts, eventapi.WithLocations(a.locations))
	}
	if a.sharing != nil {
		apiOpts = append(apiOpts, eventapi.WithSharing(a.sharing))
	}
	eventapi.NewService(a.store, cfg.Server.MaxBodySizeMB, apiOpts...).RegisterRoutes(srv.Engine)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("[Serve] Signal received, shutting down")
		return nil
	})

	started := time.Now()
	err = g.Wait()
	slog.Info("[Serve] Shutdown complete", "uptime", time.Since(started).Round(time.Second))
	return err
}
