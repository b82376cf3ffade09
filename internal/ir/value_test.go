package ir

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueSealed(t *testing.T) {
	// Verify all variants implement Value (compile-time check via assignment)
	var _ Value = Bits{}
	var _ Value = Tuple{}
	var _ Value = Array{}
}

func TestEqualWidthDiscrimination(t *testing.T) {
	assert.False(t, Equal(UBits(0x42, 8), UBits(0x42, 32)))
	assert.True(t, Equal(UBits(0x42, 32), UBits(0x42, 32)))
	assert.False(t, Equal(UBits(0x42, 32), UBits(0x43, 32)))
}

func TestEqualStructural(t *testing.T) {
	a := NewTuple(UBits(1, 8), NewTuple(UBits(2, 16)))
	b := NewTuple(UBits(1, 8), NewTuple(UBits(2, 16)))
	c := NewTuple(UBits(1, 8), NewTuple(UBits(3, 16)))

	assert.True(t, Equal(a, b))
	assert.False(t, Equal(a, c))
	assert.False(t, Equal(a, NewTuple(UBits(1, 8))), "different arity")
	assert.False(t, Equal(UBits(0, 1), NewTuple()), "different kind")
}

func TestEqualArrays(t *testing.T) {
	a, err := NewArray(UBits(1, 4), UBits(2, 4))
	require.NoError(t, err)
	b, err := NewArray(UBits(1, 4), UBits(2, 4))
	require.NoError(t, err)
	c, err := NewArray(UBits(1, 4), UBits(2, 4), UBits(3, 4))
	require.NoError(t, err)

	assert.True(t, Equal(a, b))
	assert.False(t, Equal(a, c))
	assert.False(t, Equal(a, NewTuple(UBits(1, 4), UBits(2, 4))), "array is not a tuple")
}

func TestNewArrayRejectsMixedTypes(t *testing.T) {
	_, err := NewArray(UBits(1, 4), UBits(2, 8))
	require.Error(t, err)
	assert.Equal(t, TypeMismatch, ClassOf(err))

	_, err = NewArray()
	require.Error(t, err)
	assert.Equal(t, TypeMismatch, ClassOf(err))
}

func TestNewArrayOfAllowsEmpty(t *testing.T) {
	arr, err := NewArrayOf(BitsType(8))
	require.NoError(t, err)
	assert.Equal(t, 0, arr.Len())
	assert.Equal(t, "bits[8][0]", arr.Type().String())
}

func TestNewBitsRange(t *testing.T) {
	_, err := NewBits(8, big.NewInt(256))
	require.Error(t, err)
	assert.Equal(t, RangeError, ClassOf(err))

	_, err = NewBits(8, big.NewInt(-1))
	require.Error(t, err)

	b, err := NewBits(8, big.NewInt(255))
	require.NoError(t, err)
	assert.Equal(t, uint64(255), b.Uint64())
}

func TestWrapBits(t *testing.T) {
	assert.True(t, Equal(UBits(0, 8), WrapBits(8, big.NewInt(256))))
	assert.True(t, Equal(UBits(0xff, 8), WrapBits(8, big.NewInt(-1))))
	assert.True(t, Equal(UBits(0x34, 8), WrapBits(8, big.NewInt(0x1234))))
}

func TestBitsImmutable(t *testing.T) {
	b := UBits(7, 8)
	n := b.BigInt()
	n.SetInt64(99)
	assert.Equal(t, uint64(7), b.Uint64(), "BigInt must return a copy")
}

func TestSliceBits(t *testing.T) {
	b := UBits(0xb6, 8) // 1011_0110

	s, err := b.Slice(1, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, s.Width())
	assert.Equal(t, uint64(0b011), s.Uint64())

	low, err := b.Slice(0, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), low.Uint64())

	whole, err := b.Slice(0, 8)
	require.NoError(t, err)
	assert.True(t, Equal(b, whole))

	empty, err := b.Slice(8, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Width())
}

func TestSliceBitsOutOfRange(t *testing.T) {
	_, err := UBits(0xb6, 8).Slice(5, 4)
	require.Error(t, err)
	assert.Equal(t, RangeError, ClassOf(err))
	assert.Contains(t, err.Error(), "out of range for bits[8]")
}

func TestMostSignificantBit(t *testing.T) {
	assert.True(t, UBits(0x80, 8).MostSignificantBit())
	assert.False(t, UBits(0x7f, 8).MostSignificantBit())
	assert.True(t, UBits(1, 1).MostSignificantBit())
	assert.False(t, Bits{}.MostSignificantBit(), "zero width has no msb")
}

func TestSignedBigInt(t *testing.T) {
	assert.Equal(t, int64(-1), UBits(0xff, 8).SignedBigInt().Int64())
	assert.Equal(t, int64(127), UBits(0x7f, 8).SignedBigInt().Int64())
	assert.Equal(t, int64(-128), UBits(0x80, 8).SignedBigInt().Int64())
}

func TestValueTypes(t *testing.T) {
	arr, err := NewArray(UBits(1, 8), UBits(2, 8))
	require.NoError(t, err)
	v := NewTuple(UBits(1, 8), arr, NewTuple())

	assert.Equal(t, "(bits[8], bits[8][2], ())", v.Type().String())
	assert.Equal(t, KindTuple, v.Kind())
	assert.Equal(t, 24, v.Type().FlatBitCount())
}

func TestTupleElementsCopy(t *testing.T) {
	tup := NewTuple(UBits(1, 8))
	elems := tup.Elements()
	elems[0] = UBits(2, 8)
	assert.True(t, Equal(UBits(1, 8), tup.At(0)))
}

func TestArgsString(t *testing.T) {
	args := Args{UBits(0x42, 32), UBits(0x123, 32)}
	assert.Equal(t, "bits[32]:0x42; bits[32]:0x123", args.String())
	assert.Equal(t, "", Args{}.String())
	assert.Len(t, args.Types(), 2)
}
