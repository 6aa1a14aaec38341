package cli

import (
	"context"
	"fmt"

	"github.com/kinlog-lab/kinlog/internal/projection"
	"github.com/spf13/cobra"
)

// RebuildOptions holds flags for the rebuild command.
type RebuildOptions struct {
	*RootOptions
	Force []string
	All   bool
}

// NewRebuildCommand creates the rebuild command.
func NewRebuildCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RebuildOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "rebuild",
		Short: "Rebuild projections from the full event history",
		Long: `Without flags, rebuild only the projections that report themselves stale.

Examples:
  kinlog rebuild
  kinlog rebuild --force clone_lineage --force photo_locations
  kinlog rebuild --all`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app) error {
				report, err := runRebuild(ctx, a.runner, opts)
				if err != nil {
					return err
				}
				if opts.Format == "json" {
					return writeJSON(cmd, report)
				}
				printReport(cmd, report)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&opts.Force, "force", nil, "rebuild the named projection regardless of its version (repeatable)")
	cmd.Flags().BoolVar(&opts.All, "all", false, "rebuild every registered projection")

	return cmd
}

func runRebuild(ctx context.Context, runner *projection.Runner, opts *RebuildOptions) (projection.Report, error) {
	switch {
	case opts.All && len(opts.Force) > 0:
		return projection.Report{}, fmt.Errorf("--all and --force are mutually exclusive")
	case opts.All:
		return runner.ForceRebuild(ctx)
	case len(opts.Force) > 0:
		return runner.ForceRebuild(ctx, opts.Force...)
	default:
		return runner.Rebuild(ctx)
	}
}
