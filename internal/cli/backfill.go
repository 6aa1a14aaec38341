package cli

import (
	"context"
	"fmt"
	"log/slog"
	"text/tabwriter"
	"time"

	"github.com/kinlog-lab/kinlog/internal/backfill"
	"github.com/spf13/cobra"
)

// BackfillOptions holds flags for the backfill run command.
type BackfillOptions struct {
	*RootOptions
	Jobs   []string
	DryRun bool
}

// resultView is the printable form of backfill.Result.
type resultView struct {
	Job     string         `json:"job"`
	Outcome string         `json:"outcome"`
	Stats   backfill.Stats `json:"stats,omitempty"`
	Error   string         `json:"error,omitempty"`
	Plan    *backfill.Plan `json:"plan,omitempty"`
}

// NewBackfillCommand creates the backfill command group.
func NewBackfillCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Run or inspect one-time clone backfills",
	}

	cmd.AddCommand(newBackfillRunCommand(rootOpts))
	cmd.AddCommand(newBackfillStatusCommand(rootOpts))

	return cmd
}

func newBackfillRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BackfillOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run backfills that have not run before",
		Long: `Run each selected backfill at most once against this store.

A backfill that already finished is skipped. One that started but never finished
is reported as incomplete and left for an operator.

Exit codes:
  0 - every selected job succeeded or had already run
  1 - a job failed, was incomplete, was locked, or the command itself failed

Examples:
  kinlog backfill run
  kinlog backfill run --job person-clone --dry-run --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app) error {
				results, runErr := runBackfills(ctx, a, opts.Jobs, opts.DryRun)

				views := make([]resultView, 0, len(results))
				for _, r := range results {
					views = append(views, viewOf(r))
				}
				if opts.Format == "json" {
					if err := writeJSON(cmd, views); err != nil {
						return err
					}
				} else {
					printResults(cmd, views)
				}

				if runErr != nil {
					return runErr
				}
				if n := unsuccessful(results); n > 0 {
					return fmt.Errorf("%d of %d backfills did not succeed", n, len(results))
				}
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&opts.Jobs, "job", nil, "job to run (repeatable; default all of "+fmt.Sprint(backfill.Names)+")")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "report planned changes without writing")

	return cmd
}

func newBackfillStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the recorded state of every backfill",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app) error {
				runner := backfill.NewRunner(a.store, a.locker)

				statuses := make([]backfill.Status, 0, len(backfill.Names))
				for _, name := range backfill.Names {
					st, err := runner.Status(ctx, name)
					if err != nil {
						return err
					}
					statuses = append(statuses, st)
				}

				if rootOpts.Format == "json" {
					return writeJSON(cmd, statuses)
				}

				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "JOB\tSTATE\tSTARTED\tFINISHED\tERROR")
				for _, st := range statuses {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
						st.Name, st.State, formatTime(st.StartedAt), formatTime(st.FinishedAt), st.Error)
				}
				return tw.Flush()
			})
		},
	}
}

// runBackfills runs the named jobs (all when empty) under backfill.timeout, then refreshes
// projections on the caller's context when history changed.
func runBackfills(ctx context.Context, a *app, names []string, dryRun bool) ([]backfill.Result, error) {
	jobs, err := backfill.NewJobs(a.store, names...)
	if err != nil {
		return nil, err
	}

	runCtx := ctx
	if timeout := a.cfg.Backfill.TimeoutDuration(); timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	runner := backfill.NewRunner(a.store, a.locker, backfill.WithDryRun(dryRun))
	results, runErr := runner.RunAll(runCtx, jobs...)

	if !dryRun && anySucceeded(results) && len(a.runner.Names()) > 0 {
		slog.Info("[Backfill] History changed, rebuilding projections")
		if _, err := a.runner.ForceRebuild(ctx); err != nil {
			return results, fmt.Errorf("rebuild after backfill: %w", err)
		}
	}
	return results, runErr
}

func viewOf(r backfill.Result) resultView {
	v := resultView{
		Job:     r.Job,
		Outcome: string(r.Outcome),
		Stats:   r.Stats,
		Plan:    r.Plan,
	}
	if r.Err != nil {
		v.Error = r.Err.Error()
	}
	return v
}

func printResults(cmd *cobra.Command, views []resultView) {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "JOB\tOUTCOME\tSTATS\tERROR")
	for _, v := range views {
		fmt.Fprintf(tw, "%s\t%s\t%v\t%s\n", v.Job, v.Outcome, v.Stats, v.Error)
		if v.Plan != nil {
			fmt.Fprintf(tw, "\tplanned\t%d rewrites, %d appends\t\n", len(v.Plan.Rewrites), len(v.Plan.Appends))
		}
	}
	tw.Flush()
}

func anySucceeded(results []backfill.Result) bool {
	for _, r := range results {
		if r.Outcome == backfill.OutcomeSucceeded {
			return true
		}
	}
	return false
}

// unsuccessful counts results an operator has to look at.
func unsuccessful(results []backfill.Result) int {
	n := 0
	for _, r := range results {
		switch r.Outcome {
		case backfill.OutcomeFailed, backfill.OutcomeIncomplete, backfill.OutcomeLocked:
			n++
		}
	}
	return n
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}
