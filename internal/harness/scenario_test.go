package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeScenario writes content next to a placeholder program and returns
// the scenario path.
func writeScenario(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "prog.cue"), []byte("// placeholder"), 0644))
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScenario_ValidFile(t *testing.T) {
	path := writeScenario(t, `
name: add
description: "adds"
program: prog.cue
backends: dual
cases:
  - args: "bits[32]:0x1; bits[32]:0x2"
    expect: "bits[32]:0x3"
`)

	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "add", s.Name)
	assert.Equal(t, ModeDual, s.Backends)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "prog.cue"), s.Program)
	require.Len(t, s.Cases, 1)
	assert.Equal(t, "bits[32]:0x3", s.Cases[0].Expect)
}

func TestLoadScenario_RandomBlock(t *testing.T) {
	path := writeScenario(t, `
name: rand
description: random
program: prog.cue
backends: compiled
random:
  count: 10
  seed: 99
  validator: prog.cue
  max_attempts: 20
`)

	s, err := LoadScenario(path)
	require.NoError(t, err)
	require.NotNil(t, s.Random)
	assert.Equal(t, 10, s.Random.Count)
	assert.Equal(t, uint64(99), s.Random.Seed)
	assert.Equal(t, 20, s.Random.MaxAttempts)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "prog.cue"), s.Random.Validator)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_MissingProgram(t *testing.T) {
	path := writeScenario(t, `
name: add
description: adds
program: missing.cue
backends: reference
cases:
  - args: ""
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "program file not found")
}

func TestLoadScenario_MissingValidator(t *testing.T) {
	path := writeScenario(t, `
name: add
description: adds
program: prog.cue
backends: reference
random:
  count: 1
  validator: missing.cue
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validator file not found")
}

func TestParseScenario_Invalid(t *testing.T) {
	base := "description: d\nprogram: p.cue\n"
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "unknown field",
			yaml: "name: n\n" + base + "backends: dual\ncases:\n  - args: x\nassertions: []\n",
			want: "failed to parse YAML",
		},
		{
			name: "missing name",
			yaml: base + "backends: dual\ncases:\n  - args: x\n",
			want: "name is required",
		},
		{
			name: "missing backends",
			yaml: "name: n\n" + base + "cases:\n  - args: x\n",
			want: "backends is required",
		},
		{
			name: "bad backends",
			yaml: "name: n\n" + base + "backends: gpu\ncases:\n  - args: x\n",
			want: `backends must be one of [reference compiled dual], got "gpu"`,
		},
		{
			name: "bad expect literal",
			yaml: "name: n\n" + base + "backends: dual\ncases:\n  - args: x\n    expect: \"bits[8]:\"\n",
			want: "cases[0].expect is not a value literal",
		},
		{
			name: "bad inject literal",
			yaml: "name: n\n" + base + "backends: dual\ninject_compiled_result: nope\ncases:\n  - args: x\n",
			want: "inject_compiled_result is not a value literal",
		},
		{
			name: "zero random count",
			yaml: "name: n\n" + base + "backends: dual\nrandom:\n  seed: 3\n",
			want: "random.count is required",
		},
		{
			name: "negative max attempts",
			yaml: "name: n\n" + base + "backends: dual\nrandom:\n  count: 1\n  max_attempts: -1\n",
			want: "random.max_attempts failed gte=0",
		},
		{
			name: "no inputs",
			yaml: "name: n\n" + base + "backends: dual\n",
			want: "one of cases or random is required",
		},
		{
			name: "both inputs",
			yaml: "name: n\n" + base + "backends: dual\ncases:\n  - args: x\nrandom:\n  count: 1\n",
			want: "mutually exclusive",
		},
		{
			name: "partial expect",
			yaml: "name: n\n" + base + "backends: dual\ncases:\n  - args: x\n    expect: \"bits[8]:0x1\"\n  - args: y\n",
			want: "expect is set on 1 of 2 cases",
		},
		{
			name: "inject on reference",
			yaml: "name: n\n" + base + "backends: reference\ninject_compiled_result: \"bits[8]:0x1\"\ncases:\n  - args: x\n",
			want: "needs a compiled backend",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
