package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Output string
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Dump the full event history as JSON lines",
		Long: `Write every event, in replay order, one JSON document per line.
The output can be used as a bootstrap fixture source or for offline replay.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app) error {
				w := cmd.OutOrStdout()
				if opts.Output != "" && opts.Output != "-" {
					f, err := os.Create(opts.Output)
					if err != nil {
						return fmt.Errorf("failed to create %s: %w", opts.Output, err)
					}
					defer f.Close()
					w = f
				}
				return exportHistory(ctx, a, w)
			})
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "file to write (stdout when empty)")

	return cmd
}

func exportHistory(ctx context.Context, a *app, w io.Writer) error {
	history, err := a.store.GetHistory(ctx)
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}

	buf := bufio.NewWriter(w)
	enc := json.NewEncoder(buf)
	for _, evt := range history {
		if err := enc.Encode(evt); err != nil {
			return fmt.Errorf("failed to encode event %s: %w", evt.ID, err)
		}
	}
	if err := buf.Flush(); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}

	slog.Info("[Export] History exported", "events", len(history))
	return nil
}
