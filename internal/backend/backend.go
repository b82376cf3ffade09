// Package backend evaluates compiled functions against argument tuples.
//
// Two interchangeable implementations are provided: Reference, which walks
// the expression tree on every call, and Compiled, which lowers each
// function once into Go closures and caches the result. The differential
// comparator runs one against the other and reports any disagreement.
//
// Both backends validate the argument tuple against the function signature
// before evaluating, and report failures as ir.ExecutionFailure errors
// whose text matches what downstream tooling greps for.
package backend

import (
	"context"
	"fmt"

	"github.com/roach88/irdiff/internal/ir"
	"github.com/roach88/irdiff/internal/program"
)

// Backend names.
const (
	NameReference = "reference"
	NameCompiled  = "compiled"
)

// Backend evaluates a function on one argument tuple.
//
// Implementations must not mutate args and must not retain state that
// changes results between calls.
type Backend interface {
	Name() string
	Evaluate(ctx context.Context, fn *program.Function, args ir.Args) (ir.Value, error)
}

// New returns the backend with the given name.
func New(name string) (Backend, error) {
	switch name {
	case NameReference:
		return NewReference(), nil
	case NameCompiled:
		return NewCompiled()
	default:
		return nil, fmt.Errorf("unknown backend %q (want %s or %s)", name, NameReference, NameCompiled)
	}
}

// CheckArgs validates the argument count and each argument's type against
// the function signature.
func CheckArgs(fn *program.Function, args ir.Args) error {
	params := fn.Signature.Params
	if len(args) != len(params) {
		return ir.NewError(ir.ExecutionFailure,
			"Arg list to '%s' has the wrong size: %d vs expected %d", fn.Name, len(args), len(params))
	}
	for i, p := range params {
		if !args[i].Type().Equal(p.Type) {
			return ir.NewError(ir.ExecutionFailure,
				"Got argument %s for parameter %d which is not of type %s", args[i], i, p.Type)
		}
	}
	return nil
}

// Inject returns a backend that evaluates with b and then reports v in
// place of b's result. Errors from b, including argument validation
// failures, still surface. It exists to exercise mismatch detection.
func Inject(b Backend, v ir.Value) Backend {
	return &injected{inner: b, value: v}
}

type injected struct {
	inner Backend
	value ir.Value
}

func (i *injected) Name() string { return i.inner.Name() }

func (i *injected) Evaluate(ctx context.Context, fn *program.Function, args ir.Args) (ir.Value, error) {
	if _, err := i.inner.Evaluate(ctx, fn, args); err != nil {
		return nil, err
	}
	return i.value, nil
}
