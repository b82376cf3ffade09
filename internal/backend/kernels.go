package backend

import (
	"fmt"
	"math/big"

	"github.com/roach88/irdiff/internal/ir"
	"github.com/roach88/irdiff/internal/program"
)

// Fixed-width bit-vector kernels shared by both backends. Operands have
// already been type-checked by the program compiler, so kernels assume
// matching widths.

type binaryKernel func(a, b ir.Bits) ir.Bits

type compareKernel func(a, b ir.Bits) bool

// binaryKernelFor returns the kernel for a two-operand arithmetic, shift,
// or (folded) bitwise op, or nil if n is not one.
func binaryKernelFor(n *program.Node) binaryKernel {
	switch n.Op {
	case program.OpAdd:
		return func(a, b ir.Bits) ir.Bits {
			return ir.WrapBits(a.Width(), new(big.Int).Add(a.BigInt(), b.BigInt()))
		}
	case program.OpSub:
		return func(a, b ir.Bits) ir.Bits {
			return ir.WrapBits(a.Width(), new(big.Int).Sub(a.BigInt(), b.BigInt()))
		}
	case program.OpUMul:
		w := n.Width
		return func(a, b ir.Bits) ir.Bits {
			return ir.WrapBits(w, new(big.Int).Mul(a.BigInt(), b.BigInt()))
		}
	case program.OpSMul:
		w := n.Width
		return func(a, b ir.Bits) ir.Bits {
			return ir.WrapBits(w, new(big.Int).Mul(a.SignedBigInt(), b.SignedBigInt()))
		}
	case program.OpAnd:
		return func(a, b ir.Bits) ir.Bits {
			return ir.WrapBits(a.Width(), new(big.Int).And(a.BigInt(), b.BigInt()))
		}
	case program.OpOr:
		return func(a, b ir.Bits) ir.Bits {
			return ir.WrapBits(a.Width(), new(big.Int).Or(a.BigInt(), b.BigInt()))
		}
	case program.OpXor:
		return func(a, b ir.Bits) ir.Bits {
			return ir.WrapBits(a.Width(), new(big.Int).Xor(a.BigInt(), b.BigInt()))
		}
	case program.OpShll:
		return func(a, b ir.Bits) ir.Bits {
			amt, ok := shiftAmount(a, b)
			if !ok {
				return ir.WrapBits(a.Width(), nil)
			}
			return ir.WrapBits(a.Width(), new(big.Int).Lsh(a.BigInt(), amt))
		}
	case program.OpShrl:
		return func(a, b ir.Bits) ir.Bits {
			amt, ok := shiftAmount(a, b)
			if !ok {
				return ir.WrapBits(a.Width(), nil)
			}
			return ir.WrapBits(a.Width(), new(big.Int).Rsh(a.BigInt(), amt))
		}
	case program.OpShra:
		return func(a, b ir.Bits) ir.Bits {
			amt, ok := shiftAmount(a, b)
			if !ok {
				amt = uint(a.Width())
			}
			// Rsh on a negative big.Int is an arithmetic shift.
			return ir.WrapBits(a.Width(), new(big.Int).Rsh(a.SignedBigInt(), amt))
		}
	}
	return nil
}

// shiftAmount returns b as a shift count, or false if it is at least the
// width of a (every bit shifted out).
func shiftAmount(a, b ir.Bits) (uint, bool) {
	n := b.BigInt()
	if !n.IsUint64() || n.Uint64() >= uint64(a.Width()) {
		return 0, false
	}
	return uint(n.Uint64()), true
}

func compareKernelFor(op program.Op) compareKernel {
	switch op {
	case program.OpULt:
		return func(a, b ir.Bits) bool { return a.BigInt().Cmp(b.BigInt()) < 0 }
	case program.OpULe:
		return func(a, b ir.Bits) bool { return a.BigInt().Cmp(b.BigInt()) <= 0 }
	case program.OpUGt:
		return func(a, b ir.Bits) bool { return a.BigInt().Cmp(b.BigInt()) > 0 }
	case program.OpUGe:
		return func(a, b ir.Bits) bool { return a.BigInt().Cmp(b.BigInt()) >= 0 }
	case program.OpSLt:
		return func(a, b ir.Bits) bool { return a.SignedBigInt().Cmp(b.SignedBigInt()) < 0 }
	case program.OpSLe:
		return func(a, b ir.Bits) bool { return a.SignedBigInt().Cmp(b.SignedBigInt()) <= 0 }
	case program.OpSGt:
		return func(a, b ir.Bits) bool { return a.SignedBigInt().Cmp(b.SignedBigInt()) > 0 }
	case program.OpSGe:
		return func(a, b ir.Bits) bool { return a.SignedBigInt().Cmp(b.SignedBigInt()) >= 0 }
	}
	return nil
}

func notBits(a ir.Bits) ir.Bits {
	return ir.WrapBits(a.Width(), new(big.Int).Not(a.BigInt()))
}

func negBits(a ir.Bits) ir.Bits {
	return ir.WrapBits(a.Width(), new(big.Int).Neg(a.BigInt()))
}

// concatBits joins operands with the first operand in the most significant
// position.
func concatBits(parts []ir.Bits) ir.Bits {
	acc := new(big.Int)
	width := 0
	for _, p := range parts {
		acc.Lsh(acc, uint(p.Width()))
		acc.Or(acc, p.BigInt())
		width += p.Width()
	}
	return ir.WrapBits(width, acc)
}

func zeroExt(a ir.Bits, width int) ir.Bits {
	return ir.WrapBits(width, a.BigInt())
}

func signExt(a ir.Bits, width int) ir.Bits {
	return ir.WrapBits(width, a.SignedBigInt())
}

// clampIndex maps an index value onto [0, size), saturating at the last
// element.
func clampIndex(idx ir.Bits, size int) int {
	n := idx.BigInt()
	if !n.IsUint64() || n.Uint64() >= uint64(size) {
		return size - 1
	}
	return int(n.Uint64())
}

// asBits is used where the compiler guarantees a bits operand.
func asBits(v ir.Value) (ir.Bits, error) {
	b, ok := v.(ir.Bits)
	if !ok {
		return ir.Bits{}, fmt.Errorf("expected bits operand, got %s", v.Type())
	}
	return b, nil
}
