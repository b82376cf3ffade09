package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/irdiff/internal/ir"
	"github.com/roach88/irdiff/internal/program"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Success(map[string][]string{"results": {"bits[32]:0x165"}}))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Nil(t, resp.Error)
	assert.NotNil(t, resp.Data)
}

func TestOutputFormatter_JSONDoesNotEscapeHTML(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Success(map[string]string{"signature": "(x: bits[8]) -> bits[8]"}))
	assert.Contains(t, buf.String(), "-> bits[8]")
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Error(ErrCodeCompile, "compilation failed", map[string]int{"line": 3}))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E002", resp.Error.Code)
	assert.Equal(t, "compilation failed", resp.Error.Message)
	assert.NotNil(t, resp.Error.Details)
}

func TestOutputFormatter_Text(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf, Verbose: true}

	require.NoError(t, formatter.Success("compiled 2 functions"))
	require.NoError(t, formatter.Error(ErrCodeNotFound, "program not found: x.cue", "x.cue"))

	out := buf.String()
	assert.Contains(t, out, "compiled 2 functions\n")
	assert.Contains(t, out, "Error [E005]: program not found: x.cue\n")
	assert.Contains(t, out, "Details: x.cue\n")
}

func TestOutputFormatter_Respond(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus string
		wantCode   string
	}{
		{"success", nil, "ok", ""},
		{"miscompare", ir.NewError(ir.Miscompare, "Miscompare for input[0]"), "error", "MISCOMPARE"},
		{"wrapped class", fmt.Errorf("argument 0: %w", ir.NewError(ir.WidthMismatch, "width")), "error", "WIDTH_MISMATCH"},
		{"compile error", &program.CompileError{Field: "fn", Message: "bad"}, "error", ErrCodeCompile},
		{"plain error", errors.New("boom"), "error", ErrCodeGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			formatter := &OutputFormatter{Format: "json", Writer: buf}
			require.NoError(t, formatter.Respond(EvalResult{Function: "foo", Results: []string{}}, tt.err))

			var resp struct {
				Status string     `json:"status"`
				Data   EvalResult `json:"data"`
				Error  *CLIError  `json:"error"`
			}
			require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
			assert.Equal(t, tt.wantStatus, resp.Status)
			assert.Equal(t, "foo", resp.Data.Function)
			if tt.err == nil {
				assert.Nil(t, resp.Error)
				return
			}
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.Equal(t, tt.err.Error(), resp.Error.Message)
		})
	}
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}

	quiet := &OutputFormatter{Format: "json", Writer: out, ErrWriter: errOut}
	quiet.VerboseLog("Compiling %s", "add.cue")
	assert.Empty(t, errOut.String())

	loud := &OutputFormatter{Format: "json", Writer: out, ErrWriter: errOut, Verbose: true}
	loud.VerboseLog("Compiling %s", "add.cue")
	assert.Equal(t, "Compiling add.cue\n", errOut.String())
	assert.Empty(t, out.String(), "verbose logs must not corrupt JSON output")

	fallback := &OutputFormatter{Writer: out, Verbose: true}
	assert.Same(t, out, fallback.GetErrWriter())
}

func TestExitError(t *testing.T) {
	cause := ir.NewError(ir.GenerationExhausted, "Unable to generate valid input")

	assert.Equal(t, "Unable to generate valid input", failure(cause).Error())
	assert.Equal(t, "failed to read inputs: Unable to generate valid input",
		WrapExitError(ExitCommandError, "failed to read inputs", cause).Error())
	assert.Equal(t, "bad flag", NewExitError(ExitCommandError, "bad flag").Error())
	assert.ErrorIs(t, failure(cause), cause)
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "x")))
	assert.Equal(t, ExitFailure, GetExitCode(fmt.Errorf("wrapped: %w", NewExitError(ExitFailure, "x"))))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
}

func TestExitCodeFor(t *testing.T) {
	for class, want := range map[ir.ErrorClass]int{
		ir.ExecutionFailure:    ExitFailure,
		ir.Miscompare:          ExitFailure,
		ir.GenerationExhausted: ExitFailure,
		ir.LengthMismatch:      ExitFailure,
		ir.MalformedLiteral:    ExitCommandError,
		ir.WidthMismatch:       ExitCommandError,
		ir.ArityMismatch:       ExitCommandError,
		ir.TypeMismatch:        ExitCommandError,
		ir.RangeError:          ExitCommandError,
	} {
		assert.Equal(t, want, exitCodeFor(ir.NewError(class, "x")), "class %s", class)
	}
	assert.Equal(t, ExitCommandError, exitCodeFor(errors.New("plain")))
}
