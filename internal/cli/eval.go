package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/irdiff/internal/backend"
	"github.com/roach88/irdiff/internal/compare"
	"github.com/roach88/irdiff/internal/filter"
	"github.com/roach88/irdiff/internal/generator"
	"github.com/roach88/irdiff/internal/inputs"
	"github.com/roach88/irdiff/internal/ir"
	"github.com/roach88/irdiff/internal/metrics"
	"github.com/roach88/irdiff/internal/program"
	"github.com/roach88/irdiff/internal/store"
)

// EvalOptions holds flags for the eval command.
type EvalOptions struct {
	*RootOptions

	Input        string
	InputFile    string
	RandomInputs int
	Seed         uint64

	Expected     string
	ExpectedFile string

	ValidatorExpr         string
	ValidatorPath         string
	MaxValidationAttempts int

	UseCompiled          bool
	TestCompiled         bool
	InjectCompiledResult string

	Top             string
	Database        string
	MetricsTextfile string

	// IDs allows overriding the run id generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	IDs store.IDGenerator
}

// EvalResult is the JSON payload of the eval command.
type EvalResult struct {
	Function          string   `json:"function"`
	RunID             string   `json:"run_id,omitempty"`
	Results           []string `json:"results"`
	Evaluated         int      `json:"evaluated"`
	Passed            int      `json:"passed"`
	Miscompares       int      `json:"miscompares"`
	ExecutionFailures int      `json:"execution_failures"`
}

// NewEvalCommand creates the eval command.
func NewEvalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EvalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "eval <program>",
		Short: "Evaluate a function and compare backends",
		Long: `Evaluate the program's entry function on one argument list, a file of
argument lists, or random arguments, and print one result per line.

With --test-compiled every result of the compiled backend is checked
against the reference backend. With --expected or --expected-file every
result is checked against the expected values.

Exit codes:
  0 - All tuples evaluated and agreed
  1 - Execution failure, miscompare, or input generation exhausted
  2 - Command error (bad flags, unreadable files, compile errors)

Examples:
  irdiff eval add.cue --input "bits[32]:0x42; bits[32]:0x123"
  irdiff eval add.cue --input-file args.txt --expected-file want.txt
  irdiff eval smul.cue --random-inputs 1024 --test-compiled \
      --input-validator-path odd_mixed_sign.cue
  irdiff eval add.cue --random-inputs 100 --seed 7 --db runs.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(opts, args[0], cmd)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.Input, "input", "", `";"-separated argument literals for one invocation`)
	f.StringVar(&opts.InputFile, "input-file", "", "file of argument lists, one per line")
	f.IntVar(&opts.RandomInputs, "random-inputs", 0, "number of random argument lists to generate")
	f.Uint64Var(&opts.Seed, "seed", 0, "seed for random inputs (0 uses the default seed)")
	f.StringVar(&opts.Expected, "expected", "", "expected result literal")
	f.StringVar(&opts.ExpectedFile, "expected-file", "", "file of expected results, one per line")
	f.StringVar(&opts.ValidatorExpr, "input-validator-expr", "", "CUE program whose function accepts or rejects random inputs")
	f.StringVar(&opts.ValidatorPath, "input-validator-path", "", "path of the input validator program")
	f.IntVar(&opts.MaxValidationAttempts, "max-validation-attempts", 0, "validator attempts per random input (0 uses max(1000, 100*n))")
	f.BoolVar(&opts.UseCompiled, "use-compiled", true, "evaluate with the compiled backend")
	f.BoolVar(&opts.TestCompiled, "test-compiled", false, "check the compiled backend against the reference backend")
	f.StringVar(&opts.InjectCompiledResult, "test-only-inject-compiled-result", "", "replace every compiled result with this literal")
	f.StringVar(&opts.Top, "top", "", "entry function (defaults to the program's top)")
	f.StringVar(&opts.Database, "db", "", "record the run in this SQLite database")
	f.StringVar(&opts.MetricsTextfile, "metrics-textfile", "", "write Prometheus counters to this file")

	cmd.MarkFlagsMutuallyExclusive("input", "input-file", "random-inputs")
	cmd.MarkFlagsMutuallyExclusive("expected", "expected-file")
	cmd.MarkFlagsMutuallyExclusive("input-validator-expr", "input-validator-path")

	return cmd
}

func runEval(opts *EvalOptions, path string, cmd *cobra.Command) error {
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
	primary, secondary, err := opts.selectBackends(fn)
	if err != nil {
		return err
	}

	var m *metrics.Metrics
	if opts.MetricsTextfile != "" {
		m = metrics.New()
	}

	f, err := opts.inputFilter(fn, m)
	if err != nil {
		return err
	}

	result := &EvalResult{Function: fn.Name, Results: []string{}}

	seq, err := inputs.Resolve(ctx, fn.Signature.ParamTypes(), inputs.Options{
		Literal: opts.Input,
		File:    opts.InputFile,
		Random:  opts.RandomInputs,
		Rand:    generator.NewRand(opts.Seed),
		Filter:  f,
	})
	if err != nil {
		if werr := opts.writeMetrics(m); werr != nil {
			slog.Warn("failed to write metrics", "error", werr)
		}
		if exitCodeFor(err) == ExitCommandError {
			return WrapExitError(ExitCommandError, "failed to read inputs", err)
		}
		return opts.report(formatter, result, err)
	}

	expected, err := inputs.ResolveExpected(fn.Signature.Return, opts.Expected, opts.ExpectedFile)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read expected values", err)
	}

	slog.Debug("evaluating",
		"function", fn.Name,
		"source", seq.Kind(),
		"tuples", seq.Len(),
		"primary", primary.Name(),
		"dual", secondary != nil,
	)

	var rec *store.Recorder
	if opts.Database != "" {
		st, err := store.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				slog.Error("error closing database", "error", closeErr)
			}
		}()
		rec, err = st.StartRun(ctx, opts.runRecord(fn, seq, primary, secondary))
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to record run", err)
		}
		result.RunID = rec.RunID()
	}

	// Random differential runs report every miscompare; everything else
	// stops at the first one.
	failFast := !(secondary != nil && seq.Kind() == inputs.KindRandom)

	var recObserve, metricsObserve func(compare.Outcome)
	if rec != nil {
		recObserve = rec.Observe
	}
	if m != nil {
		metricsObserve = m.ObserveOutcome
	}
	c, err := compare.New(compare.Options{
		Primary:   primary,
		Secondary: secondary,
		Expected:  expected,
		FailFast:  failFast,
		Observer:  metrics.Chain(recObserve, metricsObserve),
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to configure comparator", err)
	}

	text := opts.Format != "json"
	for out := range c.Run(ctx, fn, seq) {
		if line := out.Line(); line != "" {
			result.Results = append(result.Results, line)
			if text {
				fmt.Fprintln(formatter.Writer, line)
			}
		}
		if !failFast && out.Status == compare.StatusMiscompare && text {
			fmt.Fprintln(formatter.GetErrWriter(), out.Err)
		}
	}

	tally := c.Tally()
	result.Evaluated = tally.Evaluated
	result.Passed = tally.Passed
	result.Miscompares = tally.Miscompares
	result.ExecutionFailures = tally.ExecutionFailures

	runErr := c.Err()
	if runErr != nil && !failFast && ir.IsClass(runErr, ir.Miscompare) {
		runErr = ir.NewError(ir.Miscompare, "%d of %d tuples miscompared", tally.Miscompares, tally.Evaluated)
	}

	if rec != nil {
		if err := rec.Finish(c.State(), tally, runErr); err != nil && runErr == nil {
			return WrapExitError(ExitCommandError, "failed to record run", err)
		}
	}
	if err := opts.writeMetrics(m); err != nil && runErr == nil {
		return WrapExitError(ExitCommandError, "failed to write metrics", err)
	}

	return opts.report(formatter, result, runErr)
}

// report writes the JSON response, if requested, and converts the run
// error to an exit code.
func (o *EvalOptions) report(f *OutputFormatter, result *EvalResult, err error) error {
	if o.Format == "json" {
		if encErr := f.Respond(result, err); encErr != nil {
			return encErr
		}
	}
	if err != nil {
		return failure(err)
	}
	return nil
}

func (o *EvalOptions) selectBackends(fn *program.Function) (primary, secondary backend.Backend, err error) {
	if !o.UseCompiled && !o.TestCompiled {
		if o.InjectCompiledResult != "" {
			return nil, nil, NewExitError(ExitCommandError,
				"--test-only-inject-compiled-result requires the compiled backend")
		}
		return backend.NewReference(), nil, nil
	}

	compiled, err := backend.NewCompiled()
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to create compiled backend", err)
	}
	primary = compiled
	if o.InjectCompiledResult != "" {
		v, err := ir.ParseTyped(o.InjectCompiledResult, fn.Signature.Return)
		if err != nil {
			return nil, nil, WrapExitError(ExitCommandError, "invalid injected result", err)
		}
		primary = backend.Inject(compiled, v)
	}
	if o.TestCompiled {
		secondary = backend.NewReference()
	}
	return primary, secondary, nil
}

// inputFilter builds the rejection sampler when a validator is given.
func (o *EvalOptions) inputFilter(fn *program.Function, m *metrics.Metrics) (*filter.Filter, error) {
	predicate, err := loadValidator(o.ValidatorExpr, o.ValidatorPath)
	if err != nil || predicate == nil {
		return nil, err
	}
	if o.RandomInputs <= 0 {
		return nil, NewExitError(ExitCommandError, "an input validator requires --random-inputs")
	}

	attempts := o.MaxValidationAttempts
	if attempts == 0 {
		attempts = filter.DefaultMaxAttempts(o.RandomInputs)
	}
	f, err := filter.New(fn.Signature, predicate, backend.NewReference(), attempts)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid input validator", err)
	}
	if m != nil {
		f.OnAttempt = m.ObserveSample
	}
	return f, nil
}

func (o *EvalOptions) runRecord(fn *program.Function, seq *inputs.Sequence, primary, secondary backend.Backend) store.Run {
	ids := o.IDs
	if ids == nil {
		ids = store.UUIDv7Generator{}
	}
	run := store.Run{
		ID:            ids.Generate(),
		Function:      fn.Name,
		ProgramDigest: fn.Digest,
		Source:        string(seq.Kind()),
		Backends:      []string{primary.Name()},
	}
	if secondary != nil {
		run.Backends = append(run.Backends, secondary.Name())
	}
	if seq.Kind() == inputs.KindRandom {
		run.Seed = o.Seed
		if run.Seed == 0 {
			run.Seed = generator.DefaultSeed
		}
	}
	return run
}

func (o *EvalOptions) writeMetrics(m *metrics.Metrics) error {
	if m == nil {
		return nil
	}
	return m.WriteTextfile(o.MetricsTextfile)
}
