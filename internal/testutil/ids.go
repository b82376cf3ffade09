package testutil

import (
	"fmt"
	"sync"
)

// SequentialIDs hands out run ids "run-0001", "run-0002", ... so that
// stored runs and golden snapshots are byte-identical across test runs.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type SequentialIDs struct {
	mu  sync.Mutex
	seq int
}

// NewSequentialIDs creates a generator whose first id is "run-0001".
func NewSequentialIDs() *SequentialIDs {
	return &SequentialIDs{}
}

// Generate returns the next id.
func (g *SequentialIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return fmt.Sprintf("run-%04d", g.seq)
}

// Reset restarts the sequence. After Reset, Generate returns "run-0001".
func (g *SequentialIDs) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq = 0
}

// FixedID returns the same id every time.
//
// If id is empty, Generate returns "run-fixed".
type FixedID string

// Generate returns the fixed id.
func (f FixedID) Generate() string {
	if f == "" {
		return "run-fixed"
	}
	return string(f)
}
