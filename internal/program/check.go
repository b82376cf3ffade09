package program

import (
	"fmt"

	"github.com/roach88/irdiff/internal/ir"
)

// resultType type-checks n against its already-typed operands and returns
// the type the node produces.
func resultType(n *Node) (ir.Type, error) {
	switch n.Op {
	case OpAdd, OpSub:
		w, err := sameWidth(n.Args, 2, 2)
		if err != nil {
			return ir.Type{}, err
		}
		return ir.BitsType(w), nil

	case OpUMul, OpSMul:
		w, err := bitsOperands(n.Args, 2, 2)
		if err != nil {
			return ir.Type{}, err
		}
		if n.Width == 0 {
			if w[0] != w[1] {
				return ir.Type{}, fmt.Errorf("operand widths differ (%d vs %d) and no width given", w[0], w[1])
			}
			n.Width = w[0]
		}
		return ir.BitsType(n.Width), nil

	case OpAnd, OpOr, OpXor:
		if len(n.Args) < 2 {
			return ir.Type{}, fmt.Errorf("expected at least 2 operands, got %d", len(n.Args))
		}
		w, err := sameWidth(n.Args, 2, len(n.Args))
		if err != nil {
			return ir.Type{}, err
		}
		return ir.BitsType(w), nil

	case OpNot, OpNeg:
		w, err := bitsOperands(n.Args, 1, 1)
		if err != nil {
			return ir.Type{}, err
		}
		return ir.BitsType(w[0]), nil

	case OpEq, OpNe:
		if len(n.Args) != 2 {
			return ir.Type{}, fmt.Errorf("expected 2 operands, got %d", len(n.Args))
		}
		if !n.Args[0].Type.Equal(n.Args[1].Type) {
			return ir.Type{}, fmt.Errorf("operand types differ: %s vs %s", n.Args[0].Type, n.Args[1].Type)
		}
		return ir.BitsType(1), nil

	case OpULt, OpULe, OpUGt, OpUGe, OpSLt, OpSLe, OpSGt, OpSGe:
		if _, err := sameWidth(n.Args, 2, 2); err != nil {
			return ir.Type{}, err
		}
		return ir.BitsType(1), nil

	case OpShll, OpShrl, OpShra:
		w, err := bitsOperands(n.Args, 2, 2)
		if err != nil {
			return ir.Type{}, err
		}
		return ir.BitsType(w[0]), nil

	case OpConcat:
		w, err := bitsOperands(n.Args, 1, max(len(n.Args), 1))
		if err != nil {
			return ir.Type{}, err
		}
		total := 0
		for _, x := range w {
			total += x
		}
		return ir.BitsType(total), nil

	case OpBitSlice:
		w, err := bitsOperands(n.Args, 1, 1)
		if err != nil {
			return ir.Type{}, err
		}
		if n.Start+n.Width > w[0] {
			return ir.Type{}, fmt.Errorf("slice [%d, %d) out of range for bits[%d]", n.Start, n.Start+n.Width, w[0])
		}
		return ir.BitsType(n.Width), nil

	case OpZeroExt, OpSignExt:
		w, err := bitsOperands(n.Args, 1, 1)
		if err != nil {
			return ir.Type{}, err
		}
		if n.Width < w[0] {
			return ir.Type{}, fmt.Errorf("target width %d is narrower than operand width %d", n.Width, w[0])
		}
		return ir.BitsType(n.Width), nil

	case OpSel:
		if len(n.Args) != 3 {
			return ir.Type{}, fmt.Errorf("expected selector and 2 cases, got %d operands", len(n.Args))
		}
		if !n.Args[0].Type.Equal(ir.BitsType(1)) {
			return ir.Type{}, fmt.Errorf("selector must be bits[1], got %s", n.Args[0].Type)
		}
		if !n.Args[1].Type.Equal(n.Args[2].Type) {
			return ir.Type{}, fmt.Errorf("case types differ: %s vs %s", n.Args[1].Type, n.Args[2].Type)
		}
		return n.Args[1].Type, nil

	case OpTuple:
		elems := make([]ir.Type, len(n.Args))
		for i, a := range n.Args {
			elems[i] = a.Type
		}
		return ir.TupleType(elems...), nil

	case OpTupleIndex:
		if len(n.Args) != 1 || n.Args[0].Type.Kind() != ir.KindTuple {
			return ir.Type{}, fmt.Errorf("expected a single tuple operand")
		}
		elems := n.Args[0].Type.Elements()
		if n.Index >= len(elems) {
			return ir.Type{}, fmt.Errorf("index %d out of range for %s", n.Index, n.Args[0].Type)
		}
		return elems[n.Index], nil

	case OpArray:
		if len(n.Args) == 0 {
			return ir.Type{}, fmt.Errorf("array needs at least one element")
		}
		elem := n.Args[0].Type
		for i, a := range n.Args[1:] {
			if !a.Type.Equal(elem) {
				return ir.Type{}, fmt.Errorf("element %d has type %s, expected %s", i+1, a.Type, elem)
			}
		}
		return ir.ArrayType(elem, len(n.Args)), nil

	case OpArrayIndex:
		if len(n.Args) != 2 {
			return ir.Type{}, fmt.Errorf("expected array and index operands, got %d", len(n.Args))
		}
		if n.Args[0].Type.Kind() != ir.KindArray {
			return ir.Type{}, fmt.Errorf("first operand must be an array, got %s", n.Args[0].Type)
		}
		if n.Args[1].Type.Kind() != ir.KindBits {
			return ir.Type{}, fmt.Errorf("index must be bits, got %s", n.Args[1].Type)
		}
		if n.Args[0].Type.Size() == 0 {
			return ir.Type{}, fmt.Errorf("cannot index an empty array")
		}
		return n.Args[0].Type.Element(), nil
	}
	return ir.Type{}, fmt.Errorf("unknown op")
}

// bitsOperands checks that every operand is bits-typed and that the count is
// within [min, max]. It returns the operand widths.
func bitsOperands(args []*Node, lo, hi int) ([]int, error) {
	if len(args) < lo || len(args) > hi {
		if lo == hi {
			return nil, fmt.Errorf("expected %d operands, got %d", lo, len(args))
		}
		return nil, fmt.Errorf("expected %d to %d operands, got %d", lo, hi, len(args))
	}
	widths := make([]int, len(args))
	for i, a := range args {
		if a.Type.Kind() != ir.KindBits {
			return nil, fmt.Errorf("operand %d must be bits, got %s", i, a.Type)
		}
		widths[i] = a.Type.Width()
	}
	return widths, nil
}

func sameWidth(args []*Node, lo, hi int) (int, error) {
	w, err := bitsOperands(args, lo, hi)
	if err != nil {
		return 0, err
	}
	for i := 1; i < len(w); i++ {
		if w[i] != w[0] {
			return 0, fmt.Errorf("operand widths differ: %d vs %d", w[0], w[i])
		}
	}
	return w[0], nil
}
