package harness

import "github.com/roach88/irdiff/internal/compare"

// Result is the outcome of a scenario execution.
type Result struct {
	// Name is the scenario name.
	Name string `json:"name"`

	// Pass indicates overall scenario success: the run passed, or it failed
	// with the diagnostic named by expect_failure.
	Pass bool `json:"pass"`

	// Lines holds the formatted primary result of every evaluated tuple,
	// in input order.
	Lines []string `json:"lines"`

	// Failure is the diagnostic that failed the run, or "".
	Failure string `json:"failure,omitempty"`

	// Errors explains why the scenario did not pass. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Tally counts the comparator outcomes.
	Tally compare.Tally `json:"-"`

	// RunID is the id the run was recorded under in the scenario's store.
	RunID string `json:"run_id,omitempty"`

	// Counterexamples is the number of failing tuples stored.
	Counterexamples int `json:"counterexamples"`
}

// NewResult creates an empty passing result for the named scenario.
func NewResult(name string) *Result {
	return &Result{
		Name:   name,
		Pass:   true,
		Lines:  []string{},
		Errors: []string{},
	}
}

// AddError adds a failure reason and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
