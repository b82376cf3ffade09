// Package testutil holds shared fixtures for irdiff tests: small CUE
// programs, stub backends, and deterministic id generators.
package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/irdiff/internal/program"
)

// AddProgram adds two 32-bit values.
const AddProgram = `
top: "foo"
fn: foo: {
	params: [{name: "x", type: "bits[32]"}, {name: "y", type: "bits[32]"}]
	ret: "bits[32]"
	body: {op: "add", args: [{param: "x"}, {param: "y"}]}
}
`

// TupleProgram wraps its tuple argument in a 1-tuple.
const TupleProgram = `
top: "foo"
fn: foo: {
	params: [{name: "x", type: "(bits[8], bits[32])"}]
	ret: "((bits[8], bits[32]))"
	body: {op: "tuple", args: [{param: "x"}]}
}
`

// SMulProgram is a full-width signed product of two 32-bit values.
const SMulProgram = `
top: "foo"
fn: foo: {
	params: [{name: "x", type: "bits[32]"}, {name: "y", type: "bits[32]"}]
	ret: "bits[64]"
	body: {op: "smul", width: 64, args: [{param: "x"}, {param: "y"}]}
}
`

// OddMixedSignValidator accepts pairs that are both odd and have
// different signs, so their signed product is odd and negative.
const OddMixedSignValidator = `
let msb = 31
fn: validator: {
	params: [{name: "x", type: "bits[32]"}, {name: "y", type: "bits[32]"}]
	ret: "bits[1]"
	let xs = {op: "bit_slice", start: msb, width: 1, args: [{param: "x"}]}
	let ys = {op: "bit_slice", start: msb, width: 1, args: [{param: "y"}]}
	let xo = {op: "bit_slice", start: 0, width: 1, args: [{param: "x"}]}
	let yo = {op: "bit_slice", start: 0, width: 1, args: [{param: "y"}]}
	let sameSign = {op: "eq", args: [xs, ys]}
	body: {op: "and", args: [{op: "not", args: [sameSign]}, xo, yo]}
}
`

// RejectAllValidator never accepts.
const RejectAllValidator = `
fn: validator: {
	params: [{name: "x", type: "bits[32]"}, {name: "y", type: "bits[32]"}]
	ret: "bits[1]"
	body: {literal: "bits[1]:0"}
}
`

// Compile compiles src and fails the test on error.
func Compile(t *testing.T, src string) *program.Package {
	t.Helper()
	pkg, err := program.Compile("fixture.cue", []byte(src))
	require.NoError(t, err)
	return pkg
}

// Function compiles src and returns its entry function.
func Function(t *testing.T, src string) *program.Function {
	t.Helper()
	fn, err := Compile(t, src).Entry("")
	require.NoError(t, err)
	return fn
}
