// Package compare runs argument tuples through one or two backends and
// checks the results against each other and against expected values.
//
// A Comparator is a small state machine: Ready, then Running while its
// outcome sequence is drained, then Passed or Failed. Outcomes are produced
// lazily in input order so that callers can print each result as soon as
// it is known and stop at the first failure.
package compare

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/roach88/irdiff/internal/backend"
	"github.com/roach88/irdiff/internal/inputs"
	"github.com/roach88/irdiff/internal/ir"
	"github.com/roach88/irdiff/internal/program"
)

// ExpectedName labels the expected value in miscompare diagnostics.
const ExpectedName = "expected"

// State is the comparator's lifecycle position.
type State int

const (
	Ready State = iota
	Running
	Passed
	Failed
)

func (s State) String() string {
	switch s {
	case Ready:
		return "ready"
	case Running:
		return "running"
	case Passed:
		return "passed"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Status classifies one outcome.
type Status string

const (
	StatusOK               Status = "ok"
	StatusMiscompare       Status = "miscompare"
	StatusExecutionFailure Status = "execution_failure"
)

// Outcome is the result of evaluating one argument tuple.
type Outcome struct {
	Index     int
	Args      ir.Args
	Result    ir.Value // primary backend result; nil on execution failure
	Secondary ir.Value // secondary backend result, if one ran
	Expected  ir.Value // expected value, if one was supplied
	Status    Status
	Err       error // MISCOMPARE or EXECUTION_FAILURE; nil when Status is ok
}

// Line returns the per-tuple output line, or "" if there is no result.
func (o Outcome) Line() string {
	if o.Result == nil {
		return ""
	}
	return ir.Format(o.Result)
}

// Tally counts outcomes for one run.
type Tally struct {
	Evaluated         int
	Passed            int
	Miscompares       int
	ExecutionFailures int
}

// Options configures a Comparator.
type Options struct {
	// Primary is required. Its result is what gets printed.
	Primary backend.Backend
	// Secondary, when set, enables dual-backend comparison.
	Secondary backend.Backend
	// Expected, when non-nil, must have one value per tuple.
	Expected []ir.Value
	// FailFast stops at the first miscompare. Execution failures always stop.
	FailFast bool
	// Observer receives every outcome before it is yielded.
	Observer func(Outcome)
}

// Comparator evaluates a sequence and accumulates a verdict.
type Comparator struct {
	opts  Options
	state State
	tally Tally
	err   error
}

// New returns a comparator in the Ready state.
func New(opts Options) (*Comparator, error) {
	if opts.Primary == nil {
		return nil, errors.New("primary backend is required")
	}
	return &Comparator{opts: opts}, nil
}

// State reports the lifecycle position. It is Passed or Failed only after
// the sequence returned by Run has been drained.
func (c *Comparator) State() State { return c.state }

// Tally returns the counts accumulated so far.
func (c *Comparator) Tally() Tally { return c.tally }

// Err returns the error that failed the run, or nil. With FailFast off it
// is the first miscompare.
func (c *Comparator) Err() error { return c.err }

// Run returns a lazy sequence of outcomes for seq. Starting a new range
// resets the comparator.
//
// A LENGTH_MISMATCH between seq and the expected values, or a cancelled
// context, fails the run without yielding; check Err.
func (c *Comparator) Run(ctx context.Context, fn *program.Function, seq *inputs.Sequence) iter.Seq[Outcome] {
	return func(yield func(Outcome) bool) {
		c.state = Running
		c.tally = Tally{}
		c.err = nil

		if err := inputs.CheckAligned(seq, c.opts.Expected); err != nil {
			c.fail(err)
			return
		}

		for i, args := range seq.All() {
			if err := ctx.Err(); err != nil {
				c.fail(err)
				return
			}

			out := c.evaluate(ctx, fn, i, args)
			c.record(out)
			if c.opts.Observer != nil {
				c.opts.Observer(out)
			}
			if !yield(out) {
				return
			}
			if out.Status == StatusExecutionFailure || (out.Status == StatusMiscompare && c.opts.FailFast) {
				return
			}
		}

		if c.err == nil {
			c.state = Passed
		}
	}
}

func (c *Comparator) fail(err error) {
	c.state = Failed
	if c.err == nil {
		c.err = err
	}
}

func (c *Comparator) record(out Outcome) {
	c.tally.Evaluated++
	switch out.Status {
	case StatusOK:
		c.tally.Passed++
	case StatusMiscompare:
		c.tally.Miscompares++
		c.fail(out.Err)
	case StatusExecutionFailure:
		c.tally.ExecutionFailures++
		c.fail(out.Err)
	}
}

func (c *Comparator) evaluate(ctx context.Context, fn *program.Function, i int, args ir.Args) Outcome {
	out := Outcome{Index: i, Args: args, Status: StatusOK}

	primary, err := c.opts.Primary.Evaluate(ctx, fn, args)
	if err != nil {
		out.Status = StatusExecutionFailure
		out.Err = executionFailure(err)
		return out
	}
	out.Result = primary

	if c.opts.Secondary != nil {
		secondary, err := c.opts.Secondary.Evaluate(ctx, fn, args)
		if err != nil {
			out.Status = StatusExecutionFailure
			out.Err = executionFailure(err)
			return out
		}
		out.Secondary = secondary
		if !ir.Equal(primary, secondary) {
			out.Status = StatusMiscompare
			out.Err = miscompare(i, args,
				c.opts.Primary.Name(), primary,
				c.opts.Secondary.Name(), secondary)
			return out
		}
	}

	if c.opts.Expected != nil {
		want := c.opts.Expected[i]
		out.Expected = want
		if !ir.Equal(primary, want) {
			out.Status = StatusMiscompare
			out.Err = miscompare(i, args, c.opts.Primary.Name(), primary, ExpectedName, want)
		}
	}
	return out
}

// executionFailure keeps classified errors as they are and classifies the
// rest as EXECUTION_FAILURE.
func executionFailure(err error) error {
	if ir.ClassOf(err) != "" {
		return err
	}
	return ir.WrapError(ir.ExecutionFailure, "evaluation failed", err)
}

func miscompare(i int, args ir.Args, nameA string, a ir.Value, nameB string, b ir.Value) error {
	return ir.NewError(ir.Miscompare, "Miscompare for input[%d] %q\n  %s: %s\n  %s: %s",
		i, args.String(), nameA, a, nameB, b)
}
