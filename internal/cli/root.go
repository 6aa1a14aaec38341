// Package cli implements the kinlog command line.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/kinlog-lab/kinlog/internal/config"
	"github.com/kinlog-lab/kinlog/internal/logging"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Format     string // "json" | "text"

	cfg *config.Config
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the kinlog CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "kinlog",
		Short: "kinlog - family history event log",
		Long: `kinlog keeps an append-only log of family history events, rebuilds the read models
derived from it and runs one-time backfills that repair clone references.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}

			cfg, err := config.Load(opts.ConfigPath)
			if err != nil {
				return err
			}
			opts.cfg = cfg

			slog.SetDefault(logging.NewLoggerTo(cmd.ErrOrStderr(), cfg.Log.Env, cfg.Log.Level))
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to kinlog.yaml (defaults and KINLOG_* env when empty)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewBootCommand(opts))
	cmd.AddCommand(NewBackfillCommand(opts))
	cmd.AddCommand(NewRebuildCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))

	return cmd
}

// withApp opens the configured stores for the duration of fn.
func withApp(cmd *cobra.Command, opts *RootOptions, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := openApp(ctx, opts.cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.close(); err != nil {
			slog.Warn("[App] Close failed", "error", err)
		}
	}()

	return fn(ctx, a)
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

func writeJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
