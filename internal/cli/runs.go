package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/irdiff/internal/store"
)

// RunsOptions holds flags for the runs command.
type RunsOptions struct {
	*RootOptions
	Database string
	RunID    string
}

// RunDetail is the JSON payload of runs --run.
type RunDetail struct {
	Run      store.Run       `json:"run"`
	Outcomes []store.Outcome `json:"outcomes"`
}

// NewRunsCommand creates the runs command.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded runs",
		Long: `List the runs recorded by eval --db, or show the outcomes of one run.

Examples:
  irdiff runs --db runs.db
  irdiff runs --db runs.db --run 01920e6f-...`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRuns(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "SQLite database written by eval --db (required)")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "show the outcomes of this run")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runRuns(opts *RunsOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	if opts.RunID != "" {
		return showRun(ctx, st, opts, formatter)
	}

	runs, err := st.ListRuns(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}
	if opts.Format == "json" {
		return formatter.Success(runs)
	}

	if len(runs) == 0 {
		fmt.Fprintln(formatter.Writer, "No runs recorded.")
		return nil
	}
	tw := tabwriter.NewWriter(formatter.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tFUNCTION\tSOURCE\tSTATE\tEVALUATED\tPASSED\tMISCOMPARES\tFAILURES")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%d\n",
			r.ID, r.Function, r.Source, r.State,
			r.Evaluated, r.Passed, r.Miscompares, r.ExecutionFailures)
	}
	return tw.Flush()
}

func showRun(ctx context.Context, st *store.Store, opts *RunsOptions, formatter *OutputFormatter) error {
	run, err := st.ReadRun(ctx, opts.RunID)
	if errors.Is(err, store.ErrNotFound) {
		return NewExitError(ExitCommandError, fmt.Sprintf("run not found: %s", opts.RunID))
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}
	outcomes, err := st.ReadOutcomes(ctx, run.ID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read outcomes", err)
	}

	if opts.Format == "json" {
		return formatter.Success(RunDetail{Run: run, Outcomes: outcomes})
	}

	w := formatter.Writer
	fmt.Fprintf(w, "Run:      %s\n", run.ID)
	fmt.Fprintf(w, "Function: %s\n", run.Function)
	fmt.Fprintf(w, "Source:   %s\n", run.Source)
	if run.Seed != 0 {
		fmt.Fprintf(w, "Seed:     %d\n", run.Seed)
	}
	fmt.Fprintf(w, "Backends: %v\n", run.Backends)
	fmt.Fprintf(w, "State:    %s\n", run.State)
	if run.Error != "" {
		fmt.Fprintf(w, "Error:    %s\n", run.Error)
	}
	fmt.Fprintln(w)
	for _, o := range outcomes {
		fmt.Fprintf(w, "[%d] %s %s", o.Index, o.Status, o.Args)
		if o.Result != "" {
			fmt.Fprintf(w, " -> %s", o.Result)
		}
		fmt.Fprintln(w)
	}
	return nil
}
