package program

import (
	"fmt"
	"sort"

	"cuelang.org/go/cue/token"

	"github.com/roach88/irdiff/internal/ir"
)

// Op names an expression node operation.
type Op string

const (
	OpParam   Op = "param"
	OpLiteral Op = "literal"

	OpAdd  Op = "add"
	OpSub  Op = "sub"
	OpUMul Op = "umul"
	OpSMul Op = "smul"

	OpAnd Op = "and"
	OpOr  Op = "or"
	OpXor Op = "xor"
	OpNot Op = "not"
	OpNeg Op = "neg"

	OpEq  Op = "eq"
	OpNe  Op = "ne"
	OpULt Op = "ult"
	OpULe Op = "ule"
	OpUGt Op = "ugt"
	OpUGe Op = "uge"
	OpSLt Op = "slt"
	OpSLe Op = "sle"
	OpSGt Op = "sgt"
	OpSGe Op = "sge"

	OpShll Op = "shll"
	OpShrl Op = "shrl"
	OpShra Op = "shra"

	OpConcat   Op = "concat"
	OpBitSlice Op = "bit_slice"
	OpZeroExt  Op = "zero_ext"
	OpSignExt  Op = "sign_ext"
	OpSel      Op = "sel"

	OpTuple      Op = "tuple"
	OpTupleIndex Op = "tuple_index"
	OpArray      Op = "array"
	OpArrayIndex Op = "array_index"
)

// Param is a named, typed function parameter.
type Param struct {
	Name string
	Type ir.Type
}

// Signature is the ordered parameter list and return type of a function.
type Signature struct {
	Params []Param
	Return ir.Type
}

// ParamTypes returns the parameter types in order.
func (s Signature) ParamTypes() []ir.Type {
	types := make([]ir.Type, len(s.Params))
	for i, p := range s.Params {
		types[i] = p.Type
	}
	return types
}

// SameParams reports whether both signatures take the same parameter types.
func (s Signature) SameParams(o Signature) bool {
	if len(s.Params) != len(o.Params) {
		return false
	}
	for i := range s.Params {
		if !s.Params[i].Type.Equal(o.Params[i].Type) {
			return false
		}
	}
	return true
}

// String renders the signature as "(x: bits[32], y: bits[32]) -> bits[32]".
func (s Signature) String() string {
	out := "("
	for i, p := range s.Params {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%s: %s", p.Name, p.Type)
	}
	return out + ") -> " + s.Return.String()
}

// Node is one typed expression in a function body.
type Node struct {
	Op      Op
	Args    []*Node
	Type    ir.Type  // result type, set during compilation
	Param   int      // OpParam: parameter index
	Literal ir.Value // OpLiteral: constant value
	Width   int      // umul/smul/bit_slice/zero_ext/sign_ext
	Start   int      // bit_slice
	Index   int      // tuple_index
	Pos     token.Pos
}

// Function is a compiled, type-checked function.
type Function struct {
	Name      string
	Signature Signature
	Body      *Node

	// Digest identifies the function's source for caching and storage.
	Digest string
}

// Package is the set of functions compiled from one program document.
type Package struct {
	Functions map[string]*Function
	Top       string // entry function name, possibly empty
	Digest    string // content digest of the program source
}

// Names returns the function names in sorted order.
func (p *Package) Names() []string {
	names := make([]string, 0, len(p.Functions))
	for name := range p.Functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Entry returns the function to evaluate.
// An explicit name wins; otherwise top; otherwise the sole function.
func (p *Package) Entry(name string) (*Function, error) {
	if name == "" {
		name = p.Top
	}
	if name == "" {
		if len(p.Functions) != 1 {
			return nil, &CompileError{
				Field:   "top",
				Message: fmt.Sprintf("program defines %d functions and no top; choose one of %v", len(p.Functions), p.Names()),
			}
		}
		for _, fn := range p.Functions {
			return fn, nil
		}
	}
	fn, ok := p.Functions[name]
	if !ok {
		return nil, &CompileError{
			Field:   "top",
			Message: fmt.Sprintf("function %q not found; have %v", name, p.Names()),
		}
	}
	return fn, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
