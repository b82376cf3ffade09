package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/irdiff/internal/backend"
	"github.com/roach88/irdiff/internal/compare"
	"github.com/roach88/irdiff/internal/inputs"
	"github.com/roach88/irdiff/internal/ir"
	"github.com/roach88/irdiff/internal/program"
	"github.com/roach88/irdiff/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database             string
	RunID                string
	Top                  string
	InjectCompiledResult string
}

// ReplayEntry is the verdict for one stored counterexample.
type ReplayEntry struct {
	Digest  string `json:"digest"`
	Args    string `json:"args"`
	RunID   string `json:"run_id"`
	Fixed   bool   `json:"fixed"`
	Message string `json:"message,omitempty"`
}

// ReplayResult is the JSON payload of the replay command.
type ReplayResult struct {
	Function        string        `json:"function"`
	Counterexamples []ReplayEntry `json:"counterexamples"`
	Fixed           int           `json:"fixed"`
	Failing         int           `json:"failing"`
	Total           int           `json:"total"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay <program>",
		Short: "Re-run stored counterexamples against both backends",
		Long: `Load the counterexamples recorded for the program's entry function and
evaluate each one on the compiled and reference backends.

Exit codes:
  0 - Every counterexample now agrees (or none are stored)
  1 - At least one counterexample still fails
  2 - Command error (missing database, compile errors)

Examples:
  irdiff replay add.cue --db runs.db
  irdiff replay add.cue --db runs.db --run 01920e6f-...`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "SQLite database written by eval --db (required)")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "only replay counterexamples first found by this run")
	cmd.Flags().StringVar(&opts.Top, "top", "", "entry function (defaults to the program's top)")
	cmd.Flags().StringVar(&opts.InjectCompiledResult, "test-only-inject-compiled-result", "", "replace every compiled result with this literal")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runReplay(opts *ReplayOptions, path string, cmd *cobra.Command) error {
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

	fn, err := loadFunction(path, opts.Top)
	if err != nil {
		return err
	}

	compiledBackend, err := backend.NewCompiled()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create compiled backend", err)
	}
	var primary backend.Backend = compiledBackend
	if opts.InjectCompiledResult != "" {
		v, err := ir.ParseTyped(opts.InjectCompiledResult, fn.Signature.Return)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid injected result", err)
		}
		primary = backend.Inject(compiledBackend, v)
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

	stored, err := st.ReadCounterexamples(ctx, fn.Name, opts.RunID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read counterexamples", err)
	}
	formatter.VerboseLog("Replaying %d counterexamples for %s", len(stored), fn.Name)

	result := ReplayResult{
		Function:        fn.Name,
		Counterexamples: make([]ReplayEntry, 0, len(stored)),
		Total:           len(stored),
	}
	for _, cx := range stored {
		entry := ReplayEntry{Digest: cx.Digest, Args: cx.Args, RunID: cx.RunID}
		if err := replayOne(ctx, fn, primary, cx); err != nil {
			entry.Message = err.Error()
			result.Failing++
		} else {
			entry.Fixed = true
			result.Fixed++
		}
		result.Counterexamples = append(result.Counterexamples, entry)
	}

	if opts.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		printReplayText(cmd, result)
	}

	if result.Failing > 0 {
		return NewExitError(ExitFailure,
			fmt.Sprintf("%d of %d counterexamples still failing", result.Failing, result.Total))
	}
	return nil
}

// replayOne evaluates one stored tuple on its own. The stored literal is
// re-parsed against the current signature, so a changed signature shows up
// as a failure rather than a silent skip.
func replayOne(ctx context.Context, fn *program.Function, primary backend.Backend, cx store.Counterexample) error {
	args, err := ir.ParseArgs(cx.Args, fn.Signature.ParamTypes())
	if err != nil {
		return err
	}
	c, err := compare.New(compare.Options{
		Primary:   primary,
		Secondary: backend.NewReference(),
		FailFast:  true,
	})
	if err != nil {
		return err
	}
	for range c.Run(ctx, fn, inputs.NewSequence(inputs.KindLiteral, args)) {
	}
	return c.Err()
}

func printReplayText(cmd *cobra.Command, result ReplayResult) {
	w := cmd.OutOrStdout()
	for _, entry := range result.Counterexamples {
		if entry.Fixed {
			fmt.Fprintf(w, "\u2713 %s (fixed)\n", entry.Args)
			continue
		}
		fmt.Fprintf(w, "\u2717 %s\n", entry.Args)
		fmt.Fprintf(w, "  %s\n", entry.Message)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Replay Summary: %d fixed, %d still failing, %d total\n",
		result.Fixed, result.Failing, result.Total)
}
