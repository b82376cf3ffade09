package store

import "errors"

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Run states as stored. They mirror compare.State for finished runs.
const (
	StateRunning = "running"
	StatePassed  = "passed"
	StateFailed  = "failed"
)

// Run is one comparator invocation.
type Run struct {
	ID            string   `json:"id"`
	Seq           int64    `json:"seq"` // assigned on insert
	Function      string   `json:"function"`
	ProgramDigest string   `json:"program_digest"`
	Source        string   `json:"source"` // literal, file, or random
	Seed          uint64   `json:"seed,omitempty"`
	Backends      []string `json:"backends"`
	State         string   `json:"state"`

	Evaluated         int    `json:"evaluated"`
	Passed            int    `json:"passed"`
	Miscompares       int    `json:"miscompares"`
	ExecutionFailures int    `json:"execution_failures"`
	Error             string `json:"error,omitempty"`
}

// Outcome is the stored form of one evaluated tuple.
type Outcome struct {
	RunID   string `json:"run_id"`
	Index   int    `json:"index"`
	Args    string `json:"args"`             // canonical literal list
	Result  string `json:"result,omitempty"` // canonical literal, empty on execution failure
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Counterexample is a failing tuple kept for replay.
type Counterexample struct {
	Digest   string `json:"digest"` // ir.ArgsDigest(function, args)
	Function string `json:"function"`
	Args     string `json:"args"`
	RunID    string `json:"run_id"` // run that first found it
	Status   string `json:"status"`
	Message  string `json:"message,omitempty"`
}
