package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArgsDigestDeterministic(t *testing.T) {
	args := Args{UBits(0x42, 32), UBits(0x123, 32)}
	d1 := ArgsDigest("foo", args)
	d2 := ArgsDigest("foo", Args{MustParse("bits[32]:0x0042"), MustParse("bits[32]:291")})

	assert.Len(t, d1, 64)
	assert.Equal(t, d1, d2, "digest depends on canonical form only")
}

func TestArgsDigestSeparatesFunctions(t *testing.T) {
	args := Args{UBits(1, 8)}
	assert.NotEqual(t, ArgsDigest("foo", args), ArgsDigest("bar", args))
}

func TestArgsDigestSeparatesWidths(t *testing.T) {
	assert.NotEqual(t,
		ArgsDigest("foo", Args{UBits(1, 8)}),
		ArgsDigest("foo", Args{UBits(1, 16)}))
}

func TestDomainSeparation(t *testing.T) {
	data := []byte("same")
	assert.NotEqual(t, hashWithDomain(DomainArgs, data), hashWithDomain(DomainProgram, data))
	assert.Equal(t, hashWithDomain(DomainProgram, data), ProgramDigest(data))
}
