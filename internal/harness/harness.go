package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/roach88/irdiff/internal/backend"
	"github.com/roach88/irdiff/internal/compare"
	"github.com/roach88/irdiff/internal/filter"
	"github.com/roach88/irdiff/internal/generator"
	"github.com/roach88/irdiff/internal/inputs"
	"github.com/roach88/irdiff/internal/ir"
	"github.com/roach88/irdiff/internal/program"
	"github.com/roach88/irdiff/internal/store"
	"github.com/roach88/irdiff/internal/testutil"
)

// Harness executes one scenario against a private store.
type Harness struct {
	store  *store.Store
	ids    store.IDGenerator
	logger *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation, and run
// ids come from a sequential generator so results are reproducible.
//
// An error means the scenario could not be set up: the program did not
// compile, a literal was malformed, or the store failed. Evaluation
// failures are reported in the Result instead.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:  st,
		ids:    testutil.NewSequentialIDs(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}
	return h.run(ctx, scenario)
}

func (h *Harness) run(ctx context.Context, s *Scenario) (*Result, error) {
	pkg, err := program.Load(s.Program)
	if err != nil {
		return nil, err
	}
	fn, err := pkg.Entry(s.Top)
	if err != nil {
		return nil, err
	}

	primary, secondary, err := selectBackends(s, fn)
	if err != nil {
		return nil, err
	}

	result := NewResult(s.Name)
	seq, expected, genErr, err := h.resolveInputs(ctx, s, fn)
	if err != nil {
		return nil, err
	}
	if genErr != nil {
		result.Failure = genErr.Error()
		h.judge(s, result)
		return result, nil
	}

	var seed uint64
	if s.Random != nil {
		seed = s.Random.Seed
	}
	names := []string{primary.Name()}
	if secondary != nil {
		names = append(names, secondary.Name())
	}
	rec, err := h.store.StartRun(ctx, store.Run{
		ID:            h.ids.Generate(),
		Function:      fn.Name,
		ProgramDigest: fn.Digest,
		Source:        string(seq.Kind()),
		Seed:          seed,
		Backends:      names,
	})
	if err != nil {
		return nil, err
	}

	c, err := compare.New(compare.Options{
		Primary:   primary,
		Secondary: secondary,
		Expected:  expected,
		FailFast:  !(s.Random != nil && s.Backends == ModeDual),
		Observer:  rec.Observe,
	})
	if err != nil {
		return nil, err
	}
	for out := range c.Run(ctx, fn, seq) {
		if line := out.Line(); line != "" {
			result.Lines = append(result.Lines, line)
		}
	}
	if err := rec.Finish(c.State(), c.Tally(), c.Err()); err != nil {
		return nil, err
	}

	result.Tally = c.Tally()
	result.RunID = rec.RunID()
	result.Counterexamples = rec.Counterexamples()
	if c.Err() != nil {
		result.Failure = c.Err().Error()
	}
	h.judge(s, result)
	return result, nil
}

// judge decides Pass from the run failure and expect_failure.
func (h *Harness) judge(s *Scenario, r *Result) {
	switch {
	case s.ExpectFailure == "" && r.Failure != "":
		r.AddError(r.Failure)
	case s.ExpectFailure != "" && r.Failure == "":
		r.AddError(fmt.Sprintf("expected failure containing %q, but the run passed", s.ExpectFailure))
	case s.ExpectFailure != "" && !strings.Contains(r.Failure, s.ExpectFailure):
		r.AddError(fmt.Sprintf("expected failure containing %q, got %q", s.ExpectFailure, r.Failure))
	}
	h.logger.Debug("scenario finished",
		"scenario", s.Name,
		"pass", r.Pass,
		"lines", len(r.Lines),
	)
}

func selectBackends(s *Scenario, fn *program.Function) (primary, secondary backend.Backend, err error) {
	if s.Backends == ModeReference {
		return backend.NewReference(), nil, nil
	}

	compiled, err := backend.NewCompiled()
	if err != nil {
		return nil, nil, err
	}
	primary = compiled
	if s.InjectCompiledResult != "" {
		v, err := ir.ParseTyped(s.InjectCompiledResult, fn.Signature.Return)
		if err != nil {
			return nil, nil, fmt.Errorf("inject_compiled_result: %w", err)
		}
		primary = backend.Inject(compiled, v)
	}
	if s.Backends == ModeDual {
		secondary = backend.NewReference()
	}
	return primary, secondary, nil
}

// resolveInputs returns the argument sequence and expected values. A
// generation failure is part of the run's outcome and comes back as
// genErr; err is reserved for setup problems.
func (h *Harness) resolveInputs(ctx context.Context, s *Scenario, fn *program.Function) (seq *inputs.Sequence, expected []ir.Value, genErr, err error) {
	params := fn.Signature.ParamTypes()

	if s.Random == nil {
		items := make([]ir.Args, 0, len(s.Cases))
		for i, c := range s.Cases {
			args, err := ir.ParseArgs(c.Args, params)
			if err != nil {
				return nil, nil, nil, fmt.Errorf("cases[%d].args: %w", i, err)
			}
			items = append(items, args)
			if c.Expect == "" {
				continue
			}
			want, err := ir.ParseTyped(c.Expect, fn.Signature.Return)
			if err != nil {
				return nil, nil, nil, fmt.Errorf("cases[%d].expect: %w", i, err)
			}
			expected = append(expected, want)
		}
		return inputs.NewSequence(inputs.KindLiteral, items...), expected, nil, nil
	}

	rb := s.Random
	rng := generator.NewRand(rb.Seed)
	var f *filter.Filter
	if rb.Validator != "" {
		vpkg, err := program.Load(rb.Validator)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("validator: %w", err)
		}
		predicate, err := vpkg.Entry("")
		if err != nil {
			return nil, nil, nil, fmt.Errorf("validator: %w", err)
		}
		attempts := rb.MaxAttempts
		if attempts == 0 {
			attempts = filter.DefaultMaxAttempts(rb.Count)
		}
		f, err = filter.New(fn.Signature, predicate, backend.NewReference(), attempts)
		if err != nil {
			return nil, nil, nil, err
		}
	}

	seq, genErr = inputs.GenerateRandom(ctx, params, rb.Count, rng, f)
	return seq, nil, genErr, nil
}
