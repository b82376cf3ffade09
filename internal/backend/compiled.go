package backend

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/roach88/irdiff/internal/ir"
	"github.com/roach88/irdiff/internal/program"
)

// DefaultCacheSize is the number of lowered functions kept by Compiled.
const DefaultCacheSize = 128

// lowered is a function body flattened into nested closures. Operator
// dispatch happens once at lowering time, not per call.
type lowered func(args ir.Args) ir.Value

// Compiled lowers each function into closures on first use and caches the
// result keyed by the function digest.
type Compiled struct {
	cache *lru.Cache[string, lowered]
}

// CompiledOption configures a Compiled backend.
type CompiledOption func(*compiledConfig)

type compiledConfig struct {
	cacheSize int
}

// WithCacheSize sets the number of lowered functions to retain.
func WithCacheSize(n int) CompiledOption {
	return func(c *compiledConfig) {
		c.cacheSize = n
	}
}

// NewCompiled returns a compiled backend.
func NewCompiled(opts ...CompiledOption) (*Compiled, error) {
	cfg := compiledConfig{cacheSize: DefaultCacheSize}
	for _, opt := range opts {
		opt(&cfg)
	}
	cache, err := lru.New[string, lowered](cfg.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create lowering cache: %w", err)
	}
	return &Compiled{cache: cache}, nil
}

// Name returns "compiled".
func (*Compiled) Name() string { return NameCompiled }

// Cached returns the number of lowered functions currently cached.
func (c *Compiled) Cached() int { return c.cache.Len() }

// Evaluate runs the lowered form of fn on args.
func (c *Compiled) Evaluate(ctx context.Context, fn *program.Function, args ir.Args) (ir.Value, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := CheckArgs(fn, args); err != nil {
		return nil, err
	}
	run, err := c.lookup(fn)
	if err != nil {
		return nil, ir.WrapError(ir.ExecutionFailure, fmt.Sprintf("lowering '%s'", fn.Name), err)
	}
	return run(args), nil
}

func (c *Compiled) lookup(fn *program.Function) (lowered, error) {
	if fn.Digest != "" {
		if run, ok := c.cache.Get(fn.Digest); ok {
			return run, nil
		}
	}
	run, err := lower(fn.Body)
	if err != nil {
		return nil, err
	}
	slog.Debug("lowered function", "function", fn.Name, "digest", fn.Digest)
	if fn.Digest != "" {
		c.cache.Add(fn.Digest, run)
	}
	return run, nil
}

// lower translates n into a closure. Every operand type is known from
// compilation, so any mismatch here is reported before the first call.
func lower(n *program.Node) (lowered, error) {
	switch n.Op {
	case program.OpParam:
		i := n.Param
		return func(args ir.Args) ir.Value { return args[i] }, nil
	case program.OpLiteral:
		v := n.Literal
		return func(ir.Args) ir.Value { return v }, nil
	}

	operands := make([]lowered, len(n.Args))
	for i, a := range n.Args {
		op, err := lower(a)
		if err != nil {
			return nil, err
		}
		operands[i] = op
	}

	if k := binaryKernelFor(n); k != nil {
		if err := requireBits(n.Args...); err != nil {
			return nil, err
		}
		if len(operands) == 2 {
			x, y := operands[0], operands[1]
			return func(args ir.Args) ir.Value {
				return k(x(args).(ir.Bits), y(args).(ir.Bits))
			}, nil
		}
		return func(args ir.Args) ir.Value {
			acc := operands[0](args).(ir.Bits)
			for _, o := range operands[1:] {
				acc = k(acc, o(args).(ir.Bits))
			}
			return acc
		}, nil
	}

	if k := compareKernelFor(n.Op); k != nil {
		if err := requireBits(n.Args...); err != nil {
			return nil, err
		}
		x, y := operands[0], operands[1]
		return func(args ir.Args) ir.Value {
			return ir.Bool(k(x(args).(ir.Bits), y(args).(ir.Bits)))
		}, nil
	}

	switch n.Op {
	case program.OpEq, program.OpNe:
		x, y := operands[0], operands[1]
		want := n.Op == program.OpEq
		return func(args ir.Args) ir.Value {
			return ir.Bool(ir.Equal(x(args), y(args)) == want)
		}, nil

	case program.OpNot, program.OpNeg, program.OpZeroExt, program.OpSignExt, program.OpBitSlice:
		if err := requireBits(n.Args...); err != nil {
			return nil, err
		}
		x := operands[0]
		width, start := n.Width, n.Start
		var f func(ir.Bits) ir.Bits
		switch n.Op {
		case program.OpNot:
			f = notBits
		case program.OpNeg:
			f = negBits
		case program.OpZeroExt:
			f = func(a ir.Bits) ir.Bits { return zeroExt(a, width) }
		case program.OpSignExt:
			f = func(a ir.Bits) ir.Bits { return signExt(a, width) }
		default:
			if start+width > n.Args[0].Type.Width() {
				return nil, fmt.Errorf("bit_slice [%d, %d) out of range for %s", start, start+width, n.Args[0].Type)
			}
			f = func(a ir.Bits) ir.Bits {
				return ir.WrapBits(width, new(big.Int).Rsh(a.BigInt(), uint(start)))
			}
		}
		return func(args ir.Args) ir.Value { return f(x(args).(ir.Bits)) }, nil

	case program.OpConcat:
		if err := requireBits(n.Args...); err != nil {
			return nil, err
		}
		return func(args ir.Args) ir.Value {
			parts := make([]ir.Bits, len(operands))
			for i, o := range operands {
				parts[i] = o(args).(ir.Bits)
			}
			return concatBits(parts)
		}, nil

	case program.OpSel:
		sel, onTrue, onFalse := operands[0], operands[1], operands[2]
		return func(args ir.Args) ir.Value {
			if !sel(args).(ir.Bits).IsZero() {
				return onTrue(args)
			}
			return onFalse(args)
		}, nil

	case program.OpTuple:
		return func(args ir.Args) ir.Value {
			elems := make([]ir.Value, len(operands))
			for i, o := range operands {
				elems[i] = o(args)
			}
			return ir.NewTuple(elems...)
		}, nil

	case program.OpTupleIndex:
		x, idx := operands[0], n.Index
		return func(args ir.Args) ir.Value { return x(args).(ir.Tuple).At(idx) }, nil

	case program.OpArray:
		elem := n.Type.Element()
		return func(args ir.Args) ir.Value {
			elems := make([]ir.Value, len(operands))
			for i, o := range operands {
				elems[i] = o(args)
			}
			arr, err := ir.NewArrayOf(elem, elems...)
			if err != nil {
				// Element types were checked when the function was compiled.
				panic(err)
			}
			return arr
		}, nil

	case program.OpArrayIndex:
		x, i := operands[0], operands[1]
		return func(args ir.Args) ir.Value {
			arr := x(args).(ir.Array)
			return arr.At(clampIndex(i(args).(ir.Bits), arr.Len()))
		}, nil
	}

	return nil, fmt.Errorf("unsupported op %q", n.Op)
}

func requireBits(nodes ...*program.Node) error {
	for i, n := range nodes {
		if n.Type.Kind() != ir.KindBits {
			return fmt.Errorf("operand %d must be bits, got %s", i, n.Type)
		}
	}
	return nil
}
