package compare

import (
	"context"
	"errors"
	"iter"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/irdiff/internal/backend"
	"github.com/roach88/irdiff/internal/generator"
	"github.com/roach88/irdiff/internal/inputs"
	"github.com/roach88/irdiff/internal/ir"
	"github.com/roach88/irdiff/internal/testutil"
)

func compiled(t *testing.T) backend.Backend {
	t.Helper()
	c, err := backend.NewCompiled()
	require.NoError(t, err)
	return c
}

func resultLines(outs []Outcome) []string {
	var lines []string
	for _, o := range outs {
		lines = append(lines, o.Line())
	}
	return lines
}

func collect(it iter.Seq[Outcome]) []Outcome {
	var out []Outcome
	for o := range it {
		out = append(out, o)
	}
	return out
}

func addSequence(t *testing.T, literals ...string) *inputs.Sequence {
	t.Helper()
	fn := testutil.Function(t, testutil.AddProgram)
	var items []ir.Args
	for _, l := range literals {
		args, err := ir.ParseArgs(l, fn.Signature.ParamTypes())
		require.NoError(t, err)
		items = append(items, args)
	}
	return inputs.NewSequence(inputs.KindLiteral, items...)
}

func TestDualBackendAgreement(t *testing.T) {
	fn := testutil.Function(t, testutil.AddProgram)
	c, err := New(Options{Primary: compiled(t), Secondary: backend.NewReference(), FailFast: true})
	require.NoError(t, err)
	assert.Equal(t, Ready, c.State())

	outs := collect(c.Run(context.Background(), fn, addSequence(t, "bits[32]:0x42; bits[32]:0x123")))
	require.Len(t, outs, 1)
	assert.Equal(t, StatusOK, outs[0].Status)
	assert.Equal(t, "bits[32]:0x165", outs[0].Line())
	assert.Equal(t, "bits[32]:0x165", outs[0].Secondary.String())
	assert.Equal(t, Passed, c.State())
	assert.NoError(t, c.Err())
	assert.Equal(t, Tally{Evaluated: 1, Passed: 1}, c.Tally())
}

func TestInjectedResultMiscompares(t *testing.T) {
	fn := testutil.Function(t, testutil.AddProgram)
	primary := backend.Inject(compiled(t), ir.UBits(0x22, 32))
	c, err := New(Options{Primary: primary, Secondary: backend.NewReference(), FailFast: true})
	require.NoError(t, err)

	outs := collect(c.Run(context.Background(), fn, addSequence(t, "bits[32]:0x42; bits[32]:0x123")))
	require.Len(t, outs, 1)
	assert.Equal(t, StatusMiscompare, outs[0].Status)
	assert.Equal(t, "bits[32]:0x22", outs[0].Line(), "result line is kept on failure")

	assert.Equal(t, Failed, c.State())
	require.Error(t, c.Err())
	assert.Equal(t, ir.Miscompare, ir.ClassOf(c.Err()))
	assert.Equal(t,
		"Miscompare for input[0] \"bits[32]:0x42; bits[32]:0x123\"\n  compiled: bits[32]:0x22\n  reference: bits[32]:0x165",
		c.Err().Error())
}

func TestExpectedValues(t *testing.T) {
	fn := testutil.Function(t, testutil.AddProgram)
	seq := addSequence(t, "bits[32]:0x42; bits[32]:0x123", "bits[32]:0x10; bits[32]:0x00")

	pass, err := New(Options{
		Primary:  backend.NewReference(),
		Expected: []ir.Value{ir.UBits(0x165, 32), ir.UBits(0x10, 32)},
		FailFast: true,
	})
	require.NoError(t, err)
	outs := collect(pass.Run(context.Background(), fn, seq))
	assert.Equal(t, []string{"bits[32]:0x165", "bits[32]:0x10"}, resultLines(outs))
	assert.Equal(t, Passed, pass.State())

	fail, err := New(Options{
		Primary:  backend.NewReference(),
		Expected: []ir.Value{ir.UBits(0x165, 32), ir.UBits(0x11, 32)},
		FailFast: true,
	})
	require.NoError(t, err)
	outs = collect(fail.Run(context.Background(), fn, seq))
	require.Len(t, outs, 2)
	assert.Equal(t, StatusMiscompare, outs[1].Status)
	assert.Equal(t, Failed, fail.State())
	assert.Contains(t, fail.Err().Error(), `Miscompare for input[1] "bits[32]:0x10; bits[32]:0x0"`)
	assert.Contains(t, fail.Err().Error(), "  expected: bits[32]:0x11")
}

func TestExpectedLengthMismatch(t *testing.T) {
	fn := testutil.Function(t, testutil.AddProgram)
	c, err := New(Options{
		Primary:  backend.NewReference(),
		Expected: []ir.Value{ir.UBits(1, 32), ir.UBits(2, 32)},
	})
	require.NoError(t, err)

	outs := collect(c.Run(context.Background(), fn, addSequence(t, "bits[32]:0x1; bits[32]:0x2")))
	assert.Empty(t, outs, "no tuple is evaluated")
	assert.Equal(t, Failed, c.State())
	assert.Equal(t, ir.LengthMismatch, ir.ClassOf(c.Err()))
}

func TestExecutionFailureStops(t *testing.T) {
	fn := testutil.Function(t, testutil.AddProgram)
	seq := addSequence(t, "bits[32]:0x1; bits[32]:0x2", "bits[32]:0x42", "bits[32]:0x3; bits[32]:0x4")

	c, err := New(Options{Primary: backend.NewReference(), FailFast: false})
	require.NoError(t, err)

	outs := collect(c.Run(context.Background(), fn, seq))
	require.Len(t, outs, 2, "execution failure is always fatal")
	assert.Equal(t, StatusExecutionFailure, outs[1].Status)
	assert.Equal(t, "", outs[1].Line())
	assert.Equal(t, "Arg list to 'foo' has the wrong size: 1 vs expected 2", c.Err().Error())
	assert.Equal(t, Tally{Evaluated: 2, Passed: 1, ExecutionFailures: 1}, c.Tally())
}

func TestUnclassifiedBackendErrors(t *testing.T) {
	fn := testutil.Function(t, testutil.AddProgram)
	boom := errors.New("boom")
	stub := &testutil.StubBackend{Results: func(int, ir.Args) (ir.Value, error) { return nil, boom }}

	c, err := New(Options{Primary: stub})
	require.NoError(t, err)
	outs := collect(c.Run(context.Background(), fn, addSequence(t, "bits[32]:0x1; bits[32]:0x2")))
	require.Len(t, outs, 1)
	assert.ErrorIs(t, outs[0].Err, boom)
	assert.Equal(t, ir.ExecutionFailure, ir.ClassOf(outs[0].Err))
}

func TestSecondaryFailure(t *testing.T) {
	fn := testutil.Function(t, testutil.AddProgram)
	stub := &testutil.StubBackend{
		BackendName: "flaky",
		Results: func(int, ir.Args) (ir.Value, error) {
			return nil, ir.NewError(ir.ExecutionFailure, "flaky backend")
		},
	}
	c, err := New(Options{Primary: backend.NewReference(), Secondary: stub, FailFast: true})
	require.NoError(t, err)

	outs := collect(c.Run(context.Background(), fn, addSequence(t, "bits[32]:0x1; bits[32]:0x2")))
	require.Len(t, outs, 1)
	assert.Equal(t, StatusExecutionFailure, outs[0].Status)
	assert.Equal(t, "flaky backend", c.Err().Error())
}

func TestRandomDifferentialContinuesPastMiscompares(t *testing.T) {
	fn := testutil.Function(t, testutil.AddProgram)
	seq, err := inputs.GenerateRandom(context.Background(), fn.Signature.ParamTypes(), 8, generator.NewRand(3), nil)
	require.NoError(t, err)

	// Disagree on every odd call.
	stub := &testutil.StubBackend{
		BackendName: "alternating",
		Results: func(call int, args ir.Args) (ir.Value, error) {
			if call%2 == 1 {
				return ir.UBits(0, 32), nil
			}
			return backend.NewReference().Evaluate(context.Background(), fn, args)
		},
	}

	var observed []Outcome
	c, err := New(Options{
		Primary:   backend.NewReference(),
		Secondary: stub,
		FailFast:  false,
		Observer:  func(o Outcome) { observed = append(observed, o) },
	})
	require.NoError(t, err)

	outs := collect(c.Run(context.Background(), fn, seq))
	assert.Len(t, outs, 8)
	assert.Len(t, observed, 8)
	assert.Equal(t, Failed, c.State())
	assert.Equal(t, 8, c.Tally().Evaluated)
	assert.GreaterOrEqual(t, c.Tally().Miscompares, 3)
	assert.Contains(t, c.Err().Error(), "Miscompare for input[1]")

	for i, o := range outs {
		assert.Equal(t, i, o.Index)
		assert.NotEmpty(t, o.Line())
	}
}

func TestFailFastStopsAtFirstMiscompare(t *testing.T) {
	fn := testutil.Function(t, testutil.AddProgram)
	seq := addSequence(t, "bits[32]:0x1; bits[32]:0x1", "bits[32]:0x2; bits[32]:0x2", "bits[32]:0x3; bits[32]:0x3")

	c, err := New(Options{
		Primary:  backend.NewReference(),
		Expected: []ir.Value{ir.UBits(2, 32), ir.UBits(5, 32), ir.UBits(6, 32)},
		FailFast: true,
	})
	require.NoError(t, err)

	outs := collect(c.Run(context.Background(), fn, seq))
	assert.Len(t, outs, 2)
	assert.Equal(t, Failed, c.State())
}

func TestConsumerCanStopEarly(t *testing.T) {
	fn := testutil.Function(t, testutil.AddProgram)
	seq := addSequence(t, "bits[32]:0x1; bits[32]:0x1", "bits[32]:0x2; bits[32]:0x2")
	c, err := New(Options{Primary: backend.NewReference()})
	require.NoError(t, err)

	for range c.Run(context.Background(), fn, seq) {
		break
	}
	assert.Equal(t, Running, c.State(), "verdict is pending until drained")
	assert.Equal(t, 1, c.Tally().Evaluated)

	// Running again starts over.
	outs := collect(c.Run(context.Background(), fn, seq))
	assert.Len(t, outs, 2)
	assert.Equal(t, Passed, c.State())
}

func TestEmptySequencePasses(t *testing.T) {
	fn := testutil.Function(t, testutil.AddProgram)
	c, err := New(Options{Primary: backend.NewReference(), Expected: []ir.Value{}})
	require.NoError(t, err)

	outs := collect(c.Run(context.Background(), fn, inputs.NewSequence(inputs.KindFile)))
	assert.Empty(t, outs)
	assert.Equal(t, Passed, c.State())
}

func TestCancelledContext(t *testing.T) {
	fn := testutil.Function(t, testutil.AddProgram)
	c, err := New(Options{Primary: backend.NewReference()})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	outs := collect(c.Run(ctx, fn, addSequence(t, "bits[32]:0x1; bits[32]:0x1")))
	assert.Empty(t, outs)
	assert.ErrorIs(t, c.Err(), context.Canceled)
}

func TestNewRequiresPrimary(t *testing.T) {
	_, err := New(Options{})
	require.Error(t, err)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "ready", Ready.String())
	assert.Equal(t, "failed", Failed.String())
	assert.Equal(t, "state(9)", State(9).String())
}
