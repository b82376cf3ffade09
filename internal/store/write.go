package store

import (
	"context"
	"fmt"
)

// CreateRun inserts a run record in the running state.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - duplicate IDs are silently ignored.
func (s *Store) CreateRun(ctx context.Context, run Run) error {
	backends, err := marshalBackends(run.Backends)
	if err != nil {
		return fmt.Errorf("create run: %w", err)
	}
	state := run.State
	if state == "" {
		state = StateRunning
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs
		(id, function, program_digest, source, seed, backends, state)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.Function,
		run.ProgramDigest,
		run.Source,
		int64(run.Seed),
		backends,
		state,
	)
	if err != nil {
		return fmt.Errorf("create run: %w", err)
	}
	return nil
}

// FinishRun records the final state and counts of a run.
// Returns ErrNotFound if the run does not exist.
func (s *Store) FinishRun(ctx context.Context, run Run) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE runs
		SET state = ?, evaluated = ?, passed = ?, miscompares = ?, execution_failures = ?, error = ?
		WHERE id = ?
	`,
		run.State,
		run.Evaluated,
		run.Passed,
		run.Miscompares,
		run.ExecutionFailures,
		run.Error,
		run.ID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("finish run %s: %w", run.ID, ErrNotFound)
	}
	return nil
}

// WriteOutcome inserts one outcome row.
// Uses ON CONFLICT DO NOTHING - rewriting the same (run, index) is a no-op.
//
// Note: The run referenced by RunID must exist (foreign key constraint).
func (s *Store) WriteOutcome(ctx context.Context, o Outcome) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO outcomes
		(run_id, idx, args, result, status, message)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`,
		o.RunID,
		o.Index,
		o.Args,
		o.Result,
		o.Status,
		o.Message,
	)
	if err != nil {
		return fmt.Errorf("write outcome: %w", err)
	}
	return nil
}

// WriteCounterexample stores a failing tuple unless one with the same digest
// already exists. Reports whether a new row was inserted.
func (s *Store) WriteCounterexample(ctx context.Context, c Counterexample) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO counterexamples
		(digest, function, args, run_id, status, message)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(digest) DO NOTHING
	`,
		c.Digest,
		c.Function,
		c.Args,
		c.RunID,
		c.Status,
		c.Message,
	)
	if err != nil {
		return false, fmt.Errorf("write counterexample: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("write counterexample: %w", err)
	}
	return n > 0, nil
}
