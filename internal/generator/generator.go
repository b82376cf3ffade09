// Package generator produces uniformly random values of a given type.
//
// Every value is valid by construction: a bits[W] value is W independent
// uniform bits, and tuples and arrays are generated element by element.
// There is no rejection at this layer; see package filter for that.
package generator

import (
	"math/big"
	"math/rand/v2"

	"github.com/roach88/irdiff/internal/ir"
)

// DefaultSeed is used when a caller asks for seed 0, so that unseeded runs
// are still reproducible.
const DefaultSeed uint64 = 1

// NewRand returns a PCG-backed source seeded from seed.
func NewRand(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = DefaultSeed
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Generate returns a random value of type t drawn from rng.
func Generate(t ir.Type, rng *rand.Rand) ir.Value {
	switch t.Kind() {
	case ir.KindTuple:
		types := t.Elements()
		elems := make([]ir.Value, len(types))
		for i, et := range types {
			elems[i] = Generate(et, rng)
		}
		return ir.NewTuple(elems...)

	case ir.KindArray:
		et := t.Element()
		elems := make([]ir.Value, t.Size())
		for i := range elems {
			elems[i] = Generate(et, rng)
		}
		arr, err := ir.NewArrayOf(et, elems...)
		if err != nil {
			// Every element was generated from et.
			panic(err)
		}
		return arr

	default:
		return randomBits(t.Width(), rng)
	}
}

// Args returns one random value per type, in order.
func Args(types []ir.Type, rng *rand.Rand) ir.Args {
	args := make(ir.Args, len(types))
	for i, t := range types {
		args[i] = Generate(t, rng)
	}
	return args
}

// randomBits draws width bits, 64 at a time from the most significant word.
func randomBits(width int, rng *rand.Rand) ir.Bits {
	n := new(big.Int)
	word := new(big.Int)
	for remaining := width; remaining > 0; remaining -= 64 {
		take := min(remaining, 64)
		v := rng.Uint64()
		if take < 64 {
			v &= (uint64(1) << take) - 1
		}
		n.Lsh(n, uint(take))
		n.Or(n, word.SetUint64(v))
	}
	return ir.WrapBits(width, n)
}
