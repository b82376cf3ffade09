package ir

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessageIsVerbatim(t *testing.T) {
	err := NewError(GenerationExhausted, "Unable to generate valid input")
	assert.Equal(t, "Unable to generate valid input", err.Error())
}

func TestErrorWrapping(t *testing.T) {
	cause := errors.New("disk on fire")
	err := WrapError(LengthMismatch, "reading expected values", cause)

	assert.Equal(t, "reading expected values: disk on fire", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestClassOfThroughFmtWrap(t *testing.T) {
	base := NewError(WidthMismatch, "width")
	wrapped := fmt.Errorf("argument 0: %w", base)

	assert.Equal(t, WidthMismatch, ClassOf(wrapped))
	assert.True(t, IsClass(wrapped, WidthMismatch))
	assert.False(t, IsClass(wrapped, ArityMismatch))
	assert.Equal(t, ErrorClass(""), ClassOf(errors.New("plain")))
}

func TestIsClassFindsInnerClass(t *testing.T) {
	inner := NewError(ExecutionFailure, "Arg list to 'foo' has the wrong size: 1 vs expected 2")
	outer := WrapError(Miscompare, "outer", inner)

	assert.Equal(t, Miscompare, ClassOf(outer))
	assert.True(t, IsClass(outer, ExecutionFailure))
}
