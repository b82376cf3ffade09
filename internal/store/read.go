package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const runColumns = `seq, id, function, program_digest, source, seed, backends, state,
	evaluated, passed, miscompares, execution_failures, error`

// ReadRun returns the run with the given id, or ErrNotFound.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	return run, err
}

// ListRuns returns every run in insertion order.
//
// Returns an empty slice (not nil) if there are no runs.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadOutcomes returns the outcomes of a run ordered by input index.
//
// Returns an empty slice (not nil) if the run has no outcomes.
func (s *Store) ReadOutcomes(ctx context.Context, runID string) ([]Outcome, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, idx, args, result, status, message
		FROM outcomes
		WHERE run_id = ?
		ORDER BY idx ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	outcomes := []Outcome{}
	for rows.Next() {
		var o Outcome
		if err := rows.Scan(&o.RunID, &o.Index, &o.Args, &o.Result, &o.Status, &o.Message); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		outcomes = append(outcomes, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outcomes: %w", err)
	}
	return outcomes, nil
}

// ReadCounterexamples returns stored counterexamples for a function in
// discovery order. A non-empty runID restricts the result to that run.
//
// Returns an empty slice (not nil) if none match.
func (s *Store) ReadCounterexamples(ctx context.Context, function, runID string) ([]Counterexample, error) {
	query := `
		SELECT digest, function, args, run_id, status, message
		FROM counterexamples
		WHERE function = ?`
	args := []any{function}
	if runID != "" {
		query += ` AND run_id = ?`
		args = append(args, runID)
	}
	query += ` ORDER BY seq ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query counterexamples: %w", err)
	}
	defer rows.Close()

	out := []Counterexample{}
	for rows.Next() {
		var c Counterexample
		if err := rows.Scan(&c.Digest, &c.Function, &c.Args, &c.RunID, &c.Status, &c.Message); err != nil {
			return nil, fmt.Errorf("scan counterexample: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate counterexamples: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		run      Run
		seed     int64
		backends string
	)
	err := row.Scan(
		&run.Seq, &run.ID, &run.Function, &run.ProgramDigest, &run.Source, &seed, &backends, &run.State,
		&run.Evaluated, &run.Passed, &run.Miscompares, &run.ExecutionFailures, &run.Error,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.Seed = uint64(seed)
	run.Backends, err = unmarshalBackends(backends)
	if err != nil {
		return Run{}, err
	}
	return run, nil
}
