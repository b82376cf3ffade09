// Package ir provides the value model shared by every irdiff package.
//
// This package contains the typed values that flow into and out of the
// functions under test: fixed-width unsigned bit vectors, tuples, and
// arrays. ir imports nothing internal; every other package builds on it.
//
// Key design constraints:
//   - Values are immutable once constructed. No exported method hands out
//     a reference to internal storage.
//   - Value is a sealed interface implemented only by Bits, Tuple, and
//     Array. Switches over it are exhaustive.
//   - Bits equality compares width and payload. Two bit vectors of
//     different width are never equal.
//   - Format is the canonical inverse of Parse. Parse(Format(v)) == v for
//     every value, and Format(Parse(s)) is the normalized form of s.
//
// # Literal Grammar
//
//	value  := bits | tuple | array
//	bits   := "bits[" width "]:" number
//	tuple  := "(" [ value { "," value } ] ")"
//	array  := "[" value { "," value } "]"
//	number := "0x" hex | "0b" binary | decimal    (underscores allowed)
//
// Types use the matching grammar: bits[W], (T, ...), and T[N] for arrays.
package ir
