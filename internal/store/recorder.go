package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/irdiff/internal/compare"
	"github.com/roach88/irdiff/internal/ir"
)

// Recorder persists the outcomes of one comparator run. Its Observe method
// is meant to be installed as compare.Options.Observer.
//
// Observer hooks cannot return errors, so the first write failure is kept
// and later writes are skipped; check Err or the result of Finish.
type Recorder struct {
	store *Store
	ctx   context.Context
	run   Run
	err   error

	counterexamples int
}

// StartRun creates the run row and returns a recorder for it.
func (s *Store) StartRun(ctx context.Context, run Run) (*Recorder, error) {
	run.State = StateRunning
	if err := s.CreateRun(ctx, run); err != nil {
		return nil, err
	}
	return &Recorder{store: s, ctx: ctx, run: run}, nil
}

// RunID returns the id of the run being recorded.
func (r *Recorder) RunID() string { return r.run.ID }

// Counterexamples returns how many new counterexamples this run stored.
func (r *Recorder) Counterexamples() int { return r.counterexamples }

// Err returns the first write error, if any.
func (r *Recorder) Err() error { return r.err }

// Observe writes one outcome and, for failures, a counterexample.
func (r *Recorder) Observe(o compare.Outcome) {
	if r.err != nil {
		return
	}

	message := ""
	if o.Err != nil {
		message = o.Err.Error()
	}
	err := r.store.WriteOutcome(r.ctx, Outcome{
		RunID:   r.run.ID,
		Index:   o.Index,
		Args:    o.Args.String(),
		Result:  o.Line(),
		Status:  string(o.Status),
		Message: message,
	})
	if err != nil {
		r.err = err
		return
	}

	if o.Status == compare.StatusOK {
		return
	}
	inserted, err := r.store.WriteCounterexample(r.ctx, Counterexample{
		Digest:   ir.ArgsDigest(r.run.Function, o.Args),
		Function: r.run.Function,
		Args:     o.Args.String(),
		RunID:    r.run.ID,
		Status:   string(o.Status),
		Message:  message,
	})
	if err != nil {
		r.err = err
		return
	}
	if inserted {
		r.counterexamples++
		slog.Debug("counterexample stored", "run_id", r.run.ID, "index", o.Index, "status", o.Status)
	}
}

// Finish records the verdict. It returns the first error seen while
// recording, or the error from the final update.
func (r *Recorder) Finish(state compare.State, tally compare.Tally, runErr error) error {
	if r.err != nil {
		return fmt.Errorf("record run %s: %w", r.run.ID, r.err)
	}
	r.run.State = stateName(state)
	r.run.Evaluated = tally.Evaluated
	r.run.Passed = tally.Passed
	r.run.Miscompares = tally.Miscompares
	r.run.ExecutionFailures = tally.ExecutionFailures
	if runErr != nil {
		r.run.Error = runErr.Error()
	}
	return r.store.FinishRun(r.ctx, r.run)
}

func stateName(s compare.State) string {
	switch s {
	case compare.Passed:
		return StatePassed
	case compare.Failed:
		return StateFailed
	default:
		return StateRunning
	}
}
