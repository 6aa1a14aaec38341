package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/kinlog-lab/kinlog/internal/projection"
	"github.com/spf13/cobra"
)

// NewBootCommand creates the boot command.
func NewBootCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "boot",
		Short: "Prepare the store and rebuild stale projections",
		Long: `Ensure the event store exists, seed it when empty and bootstrap.seed_if_empty is set,
then rebuild every projection whose shape changed.

Exit codes:
  0 - store ready and projections current
  1 - any failure`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				res, err := a.boot(ctx)
				if err != nil {
					return err
				}
				if opts.Format == "json" {
					return writeJSON(cmd, res)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "seeded: %t\n", res.Seeded)
				printReport(cmd, res.Rebuild)
				return nil
			})
		},
	}
}

func printReport(cmd *cobra.Command, report projection.Report) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "projections checked: %s\n", joinOrNone(report.Checked))
	fmt.Fprintf(out, "projections rebuilt: %s\n", joinOrNone(report.Rebuilt))
	fmt.Fprintf(out, "events replayed: %d\n", report.EventsReplayed)
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}
