package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Golden files live in testdata/golden. Regenerate with:
//
//	go test ./internal/harness -run TestGolden -update
func TestGolden(t *testing.T) {
	for _, name := range []string{
		"add_dual",
		"tuple_identity",
		"injected_miscompare",
		"wrong_arity",
		"exhausted",
	} {
		t.Run(name, func(t *testing.T) {
			result, err := RunWithGolden(t, loadTestScenario(t, name))
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestSnapshotOmitsEmptyFailure(t *testing.T) {
	r := NewResult("x")
	data, err := r.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, `{"lines":[],"name":"x","pass":true}`, string(data))

	r.Failure = "boom"
	r.Lines = append(r.Lines, "bits[1]:0x1")
	data, err = r.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, `{"failure":"boom","lines":["bits[1]:0x1"],"name":"x","pass":true}`, string(data))
}
