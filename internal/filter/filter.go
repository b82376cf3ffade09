// Package filter implements bounded rejection sampling of argument tuples
// under a predicate function.
//
// The predicate is an ordinary compiled function returning bits[1] that
// takes the same parameters as the function under test. It is evaluated
// through a backend like any other function.
package filter

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/roach88/irdiff/internal/generator"
	"github.com/roach88/irdiff/internal/ir"
	"github.com/roach88/irdiff/internal/program"
)

// MinAttempts is the floor of the default per-sample attempt budget.
const MinAttempts = 1000

// DefaultMaxAttempts returns the default attempt budget when n samples are
// requested: max(1000, 100*n).
func DefaultMaxAttempts(n int) int {
	return max(MinAttempts, 100*n)
}

// Evaluator is the subset of backend.Backend the filter needs.
type Evaluator interface {
	Evaluate(ctx context.Context, fn *program.Function, args ir.Args) (ir.Value, error)
}

// Filter draws argument tuples for a signature and keeps those the
// predicate accepts.
type Filter struct {
	params      []ir.Type
	predicate   *program.Function
	eval        Evaluator
	maxAttempts int

	attempts int
	accepted int

	// OnAttempt, when set, is called after every predicate evaluation.
	OnAttempt func(accepted bool)
}

// New returns a filter sampling arguments for sig. The predicate must take
// the same parameter types as sig and return bits[1].
func New(sig program.Signature, predicate *program.Function, eval Evaluator, maxAttempts int) (*Filter, error) {
	if !predicate.Signature.SameParams(sig) {
		return nil, fmt.Errorf("input validator %q has signature %s; parameters must match %s",
			predicate.Name, predicate.Signature, sig)
	}
	if !predicate.Signature.Return.Equal(ir.BitsType(1)) {
		return nil, fmt.Errorf("input validator %q must return bits[1], returns %s",
			predicate.Name, predicate.Signature.Return)
	}
	if maxAttempts <= 0 {
		return nil, fmt.Errorf("max validation attempts must be positive, got %d", maxAttempts)
	}
	return &Filter{
		params:      sig.ParamTypes(),
		predicate:   predicate,
		eval:        eval,
		maxAttempts: maxAttempts,
	}, nil
}

// SampleValid generates candidates until the predicate accepts one, trying
// at most maxAttempts times. Exhaustion is a GENERATION_EXHAUSTED error.
func (f *Filter) SampleValid(ctx context.Context, rng *rand.Rand) (ir.Args, error) {
	for range f.maxAttempts {
		args := generator.Args(f.params, rng)
		f.attempts++

		v, err := f.eval.Evaluate(ctx, f.predicate, args)
		if err != nil {
			return nil, fmt.Errorf("input validator: %w", err)
		}
		ok := isTrue(v)
		if f.OnAttempt != nil {
			f.OnAttempt(ok)
		}
		if ok {
			f.accepted++
			return args, nil
		}
	}
	slog.Debug("validation budget exhausted",
		"predicate", f.predicate.Name,
		"max_attempts", f.maxAttempts,
		"attempts", f.attempts,
		"accepted", f.accepted)
	return nil, ir.NewError(ir.GenerationExhausted, "Unable to generate valid input")
}

// Attempts returns the total number of candidates evaluated.
func (f *Filter) Attempts() int { return f.attempts }

// Accepted returns the number of candidates the predicate accepted.
func (f *Filter) Accepted() int { return f.accepted }

func isTrue(v ir.Value) bool {
	b, ok := v.(ir.Bits)
	return ok && !b.IsZero()
}
