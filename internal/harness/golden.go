package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/irdiff/internal/ir"
)

// Snapshot renders the parts of a result that golden files pin down: the
// scenario name, the result lines, the verdict, and the failure text.
// The encoding is canonical JSON, so equal results give equal bytes.
func (r *Result) Snapshot() ([]byte, error) {
	lines := make([]any, len(r.Lines))
	for i, l := range r.Lines {
		lines[i] = l
	}
	snapshot := map[string]any{
		"name":  r.Name,
		"lines": lines,
		"pass":  r.Pass,
	}
	if r.Failure != "" {
		snapshot["failure"] = r.Failure
	}
	return ir.MarshalCanonical(snapshot)
}

// RunWithGolden executes a scenario and compares the snapshot against a
// golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result's snapshot against a golden file.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := result.Snapshot()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
