package testutil

import (
	"context"
	"sync"

	"github.com/roach88/irdiff/internal/ir"
	"github.com/roach88/irdiff/internal/program"
)

// StubBackend returns scripted results. The Results function is called for
// each evaluation; when nil, the first argument is echoed back.
//
// Thread-safety: Calls is guarded by an internal mutex.
type StubBackend struct {
	BackendName string
	Results     func(call int, args ir.Args) (ir.Value, error)

	mu    sync.Mutex
	calls []ir.Args
}

// Name returns BackendName, or "stub".
func (s *StubBackend) Name() string {
	if s.BackendName == "" {
		return "stub"
	}
	return s.BackendName
}

// Evaluate records args and returns the scripted result.
func (s *StubBackend) Evaluate(ctx context.Context, _ *program.Function, args ir.Args) (ir.Value, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	call := len(s.calls)
	s.calls = append(s.calls, args)
	s.mu.Unlock()

	if s.Results == nil {
		if len(args) == 0 {
			return ir.Bool(false), nil
		}
		return args[0], nil
	}
	return s.Results(call, args)
}

// Calls returns the argument tuples seen so far.
func (s *StubBackend) Calls() []ir.Args {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ir.Args(nil), s.calls...)
}
