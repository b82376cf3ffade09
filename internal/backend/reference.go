package backend

import (
	"context"
	"fmt"

	"github.com/roach88/irdiff/internal/ir"
	"github.com/roach88/irdiff/internal/program"
)

// Reference is the tree-walking interpreter. It dispatches on every node
// of every call and keeps no state, which makes it the oracle the
// compiled backend is checked against.
type Reference struct{}

// NewReference returns the reference interpreter.
func NewReference() *Reference { return &Reference{} }

// Name returns "reference".
func (*Reference) Name() string { return NameReference }

// Evaluate interprets fn.Body with args bound to the parameters.
func (r *Reference) Evaluate(ctx context.Context, fn *program.Function, args ir.Args) (ir.Value, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := CheckArgs(fn, args); err != nil {
		return nil, err
	}
	v, err := r.eval(fn.Body, args)
	if err != nil {
		return nil, ir.WrapError(ir.ExecutionFailure, fmt.Sprintf("evaluating '%s'", fn.Name), err)
	}
	return v, nil
}

func (r *Reference) eval(n *program.Node, args ir.Args) (ir.Value, error) {
	switch n.Op {
	case program.OpParam:
		return args[n.Param], nil
	case program.OpLiteral:
		return n.Literal, nil
	}

	operands := make([]ir.Value, len(n.Args))
	for i, a := range n.Args {
		v, err := r.eval(a, args)
		if err != nil {
			return nil, err
		}
		operands[i] = v
	}
	return applyOp(n, operands)
}

// applyOp evaluates one node given its evaluated operands.
func applyOp(n *program.Node, operands []ir.Value) (ir.Value, error) {
	if k := binaryKernelFor(n); k != nil {
		acc, err := asBits(operands[0])
		if err != nil {
			return nil, err
		}
		for _, o := range operands[1:] {
			b, err := asBits(o)
			if err != nil {
				return nil, err
			}
			acc = k(acc, b)
		}
		return acc, nil
	}

	if k := compareKernelFor(n.Op); k != nil {
		a, err := asBits(operands[0])
		if err != nil {
			return nil, err
		}
		b, err := asBits(operands[1])
		if err != nil {
			return nil, err
		}
		return ir.Bool(k(a, b)), nil
	}

	switch n.Op {
	case program.OpEq:
		return ir.Bool(ir.Equal(operands[0], operands[1])), nil
	case program.OpNe:
		return ir.Bool(!ir.Equal(operands[0], operands[1])), nil

	case program.OpNot, program.OpNeg, program.OpBitSlice, program.OpZeroExt, program.OpSignExt:
		a, err := asBits(operands[0])
		if err != nil {
			return nil, err
		}
		switch n.Op {
		case program.OpNot:
			return notBits(a), nil
		case program.OpNeg:
			return negBits(a), nil
		case program.OpBitSlice:
			return a.Slice(n.Start, n.Width)
		case program.OpZeroExt:
			return zeroExt(a, n.Width), nil
		default:
			return signExt(a, n.Width), nil
		}

	case program.OpConcat:
		parts := make([]ir.Bits, len(operands))
		for i, o := range operands {
			b, err := asBits(o)
			if err != nil {
				return nil, err
			}
			parts[i] = b
		}
		return concatBits(parts), nil

	case program.OpSel:
		sel, err := asBits(operands[0])
		if err != nil {
			return nil, err
		}
		if !sel.IsZero() {
			return operands[1], nil
		}
		return operands[2], nil

	case program.OpTuple:
		return ir.NewTuple(operands...), nil

	case program.OpTupleIndex:
		t, ok := operands[0].(ir.Tuple)
		if !ok || n.Index >= t.Len() {
			return nil, fmt.Errorf("tuple_index %d on %s", n.Index, operands[0].Type())
		}
		return t.At(n.Index), nil

	case program.OpArray:
		return ir.NewArrayOf(n.Type.Element(), operands...)

	case program.OpArrayIndex:
		arr, ok := operands[0].(ir.Array)
		if !ok || arr.Len() == 0 {
			return nil, fmt.Errorf("array_index on %s", operands[0].Type())
		}
		idx, err := asBits(operands[1])
		if err != nil {
			return nil, err
		}
		return arr.At(clampIndex(idx, arr.Len())), nil
	}

	return nil, fmt.Errorf("unsupported op %q", n.Op)
}
