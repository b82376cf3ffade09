package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatParseRoundTrip(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"bits[32]:0x42", "bits[32]:0x42"},
		{"bits[32]:0x00", "bits[32]:0x0"},
		{"bits[32]:66", "bits[32]:0x42"},
		{"bits[4]:0b1010", "bits[4]:0xa"},
		{"bits[8]:0xAB", "bits[8]:0xab"},
		{"bits[0]:0", "bits[0]:0x0"},
		{"bits[20]:0x12345", "bits[20]:0x1_2345"},
		{"bits[64]:0xfffffffffffffffd", "bits[64]:0xffff_ffff_ffff_fffd"},
		{"bits[64]:0xffff_ffff_ffff_fffd", "bits[64]:0xffff_ffff_ffff_fffd"},
		{"bits[16]:0x0000ffff", "bits[16]:0xffff"},
		{"( bits[8]:0x42 ,bits[32]:0x123 )", "(bits[8]:0x42, bits[32]:0x123)"},
		{"((bits[8]:0x42, bits[32]:0x123))", "((bits[8]:0x42, bits[32]:0x123))"},
		{"[bits[4]:1, bits[4]:0b10]", "[bits[4]:0x1, bits[4]:0x2]"},
		{"()", "()"},
		{"  bits[1]:1  ", "bits[1]:0x1"},
		{"[(bits[1]:0, ()), (bits[1]:1, ())]", "[(bits[1]:0x0, ()), (bits[1]:0x1, ())]"},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			v, err := Parse(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, Format(v))

			// Canonical text parses back to an equal value.
			again, err := Parse(Format(v))
			require.NoError(t, err)
			assert.True(t, Equal(v, again))
		})
	}
}

func TestParseMalformed(t *testing.T) {
	inputs := []string{
		"",
		"bits[32]",
		"bits[32]:",
		"bits[x]:0x1",
		"bits[32]:0xzz",
		"bits[8]:0x100",
		"(bits[8]:0x1",
		"(bits[8]:0x1,)",
		"[]",
		"bits[8]:0x1 trailing",
		"uint8:1",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			_, err := Parse(input)
			require.Error(t, err)
			assert.True(t, IsClass(err, MalformedLiteral) || IsClass(err, TypeMismatch),
				"unexpected class %q for %q", ClassOf(err), input)
		})
	}
}

func TestParseTypedWidthMismatch(t *testing.T) {
	_, err := ParseTyped("bits[8]:0x42", BitsType(32))
	require.Error(t, err)
	assert.Equal(t, WidthMismatch, ClassOf(err))
}

func TestParseTypedArityMismatch(t *testing.T) {
	tupleType := MustParseType("(bits[8], bits[32])")

	_, err := ParseTyped("(bits[8]:0x42)", tupleType)
	require.Error(t, err)
	assert.Equal(t, ArityMismatch, ClassOf(err))

	_, err = ParseTyped("(bits[8]:0x42, bits[32]:0x1, bits[1]:0)", tupleType)
	require.Error(t, err)
	assert.Equal(t, ArityMismatch, ClassOf(err))

	_, err = ParseTyped("[bits[8]:0x1]", MustParseType("bits[8][2]"))
	require.Error(t, err)
	assert.Equal(t, ArityMismatch, ClassOf(err))
}

func TestParseTypedKindMismatch(t *testing.T) {
	_, err := ParseTyped("(bits[8]:0x42)", BitsType(8))
	require.Error(t, err)
	assert.Equal(t, TypeMismatch, ClassOf(err))

	_, err = ParseTyped("bits[8]:0x42", MustParseType("(bits[8])"))
	require.Error(t, err)
	assert.Equal(t, TypeMismatch, ClassOf(err))
}

func TestParseTypedNestedWidth(t *testing.T) {
	_, err := ParseTyped("(bits[8]:0x42, bits[16]:0x123)", MustParseType("(bits[8], bits[32])"))
	require.Error(t, err)
	assert.Equal(t, WidthMismatch, ClassOf(err))

	v, err := ParseTyped("(bits[8]:0x42, bits[32]:0x123)", MustParseType("(bits[8], bits[32])"))
	require.NoError(t, err)
	assert.Equal(t, "(bits[8], bits[32])", v.Type().String())
}

func TestParseType(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
		bits     int
	}{
		{"bits[32]", "bits[32]", 32},
		{"(bits[8], bits[32])", "(bits[8], bits[32])", 40},
		{"((bits[8], bits[32]))", "((bits[8], bits[32]))", 40},
		{"bits[8][4]", "bits[8][4]", 32},
		{"bits[8][4][2]", "bits[8][4][2]", 64},
		{"(bits[1], bits[2])[3]", "(bits[1], bits[2])[3]", 9},
		{"()", "()", 0},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			typ, err := ParseType(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, typ.String())
			assert.Equal(t, tc.bits, typ.FlatBitCount())
		})
	}
}

func TestParseTypeArrayNesting(t *testing.T) {
	typ := MustParseType("bits[8][4][2]")
	require.Equal(t, KindArray, typ.Kind())
	assert.Equal(t, 2, typ.Size())
	assert.Equal(t, 4, typ.Element().Size())
	assert.Equal(t, 8, typ.Element().Element().Width())
}

func TestParseTypeMalformed(t *testing.T) {
	for _, input := range []string{"", "bits", "bits[8", "(bits[8]", "bits[8][x]", "s32"} {
		_, err := ParseType(input)
		require.Error(t, err, input)
		assert.Equal(t, MalformedLiteral, ClassOf(err))
	}
}

func TestParseArgs(t *testing.T) {
	types := []Type{BitsType(32), BitsType(32)}

	args, err := ParseArgs("bits[32]:0x42; bits[32]:0x123", types)
	require.NoError(t, err)
	require.Len(t, args, 2)
	assert.Equal(t, "bits[32]:0x42; bits[32]:0x123", args.String())

	// Fewer literals than parameters is not a parse error.
	args, err = ParseArgs("bits[32]:0x42", types)
	require.NoError(t, err)
	assert.Len(t, args, 1)

	// Surplus literals are parsed untyped.
	args, err = ParseArgs("bits[32]:0x1; bits[32]:0x2; bits[8]:0x3", types)
	require.NoError(t, err)
	assert.Len(t, args, 3)

	args, err = ParseArgs("   ", types)
	require.NoError(t, err)
	assert.Empty(t, args)
}

func TestParseArgsNestedSeparator(t *testing.T) {
	tupleType := MustParseType("(bits[8], bits[32])")
	args, err := ParseArgs("(bits[8]:0x42, bits[32]:0x123)", []Type{tupleType})
	require.NoError(t, err)
	require.Len(t, args, 1)
	assert.Equal(t, KindTuple, args[0].Kind())
}

func TestParseArgsErrors(t *testing.T) {
	_, err := ParseArgs("bits[32]:0x1;", nil)
	require.Error(t, err)
	assert.Equal(t, MalformedLiteral, ClassOf(err))

	_, err = ParseArgs("bits[8]:0x1; bits[32]:0x2", []Type{BitsType(32), BitsType(32)})
	require.Error(t, err)
	assert.Equal(t, WidthMismatch, ClassOf(err))
	assert.Contains(t, err.Error(), "argument 0")
}
