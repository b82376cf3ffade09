package program

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"

	"github.com/roach88/irdiff/internal/ir"
)

// CompileFile reads and compiles a program document from disk.
func CompileFile(path string) (*Package, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read program: %w", err)
	}
	return Compile(path, src)
}

// Compile parses a CUE program document and type-checks every function.
// filename is used only for error positions.
func Compile(filename string, src []byte) (*Package, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return compileValue(v, ir.ProgramDigest(src))
}

// compileValue extracts top and fn from an evaluated document.
func compileValue(v cue.Value, digest string) (*Package, error) {
	pkg := &Package{
		Functions: make(map[string]*Function),
		Digest:    digest,
	}

	topVal := v.LookupPath(cue.ParsePath("top"))
	if topVal.Exists() {
		top, err := topVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		pkg.Top = top
	}

	fnVal := v.LookupPath(cue.ParsePath("fn"))
	if !fnVal.Exists() {
		return nil, &CompileError{Field: "fn", Message: "at least one function is required", Pos: v.Pos()}
	}
	iter, err := fnVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		fn, err := compileFunction(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		fn.Digest = ir.ProgramDigest([]byte(pkg.Digest + "/" + fn.Name))
		pkg.Functions[fn.Name] = fn
	}
	if len(pkg.Functions) == 0 {
		return nil, &CompileError{Field: "fn", Message: "at least one function is required", Pos: fnVal.Pos()}
	}
	if pkg.Top != "" {
		if _, ok := pkg.Functions[pkg.Top]; !ok {
			return nil, &CompileError{
				Field:   "top",
				Message: fmt.Sprintf("top function %q is not defined", pkg.Top),
				Pos:     topVal.Pos(),
			}
		}
	}
	return pkg, nil
}

// compileFunction lowers one fn.<name> struct.
func compileFunction(name string, v cue.Value) (*Function, error) {
	fn := &Function{Name: name}
	field := "fn." + name

	paramsVal := v.LookupPath(cue.ParsePath("params"))
	if paramsVal.Exists() {
		list, err := paramsVal.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		seen := make(map[string]bool)
		for list.Next() {
			pv := list.Value()
			pname, err := pv.LookupPath(cue.ParsePath("name")).String()
			if err != nil {
				return nil, formatCUEError(err)
			}
			ptype, err := parseTypeField(pv, field+".params."+pname)
			if err != nil {
				return nil, err
			}
			if seen[pname] {
				return nil, &CompileError{
					Field:   field + ".params",
					Message: fmt.Sprintf("duplicate parameter %q", pname),
					Pos:     pv.Pos(),
				}
			}
			seen[pname] = true
			fn.Signature.Params = append(fn.Signature.Params, Param{Name: pname, Type: ptype})
		}
	}

	retVal := v.LookupPath(cue.ParsePath("ret"))
	if !retVal.Exists() {
		return nil, &CompileError{Field: field + ".ret", Message: "return type is required", Pos: v.Pos()}
	}
	retText, err := retVal.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	ret, err := ir.ParseType(retText)
	if err != nil {
		return nil, &CompileError{Field: field + ".ret", Message: err.Error(), Pos: retVal.Pos()}
	}
	fn.Signature.Return = ret

	bodyVal := v.LookupPath(cue.ParsePath("body"))
	if !bodyVal.Exists() {
		return nil, &CompileError{Field: field + ".body", Message: "body is required", Pos: v.Pos()}
	}
	c := &nodeCompiler{fn: fn, field: field}
	body, err := c.compile(bodyVal)
	if err != nil {
		return nil, err
	}
	if !body.Type.Equal(ret) {
		return nil, &CompileError{
			Field:   field + ".body",
			Message: fmt.Sprintf("body has type %s, declared return type is %s", body.Type, ret),
			Pos:     bodyVal.Pos(),
		}
	}
	fn.Body = body
	return fn, nil
}

func parseTypeField(v cue.Value, field string) (ir.Type, error) {
	tv := v.LookupPath(cue.ParsePath("type"))
	text, err := tv.String()
	if err != nil {
		return ir.Type{}, formatCUEError(err)
	}
	t, err := ir.ParseType(text)
	if err != nil {
		return ir.Type{}, &CompileError{Field: field, Message: err.Error(), Pos: tv.Pos()}
	}
	return t, nil
}

// nodeCompiler lowers expression nodes for one function.
type nodeCompiler struct {
	fn    *Function
	field string
}

func (c *nodeCompiler) errorf(v cue.Value, format string, args ...any) error {
	return &CompileError{Field: c.field + ".body", Message: fmt.Sprintf(format, args...), Pos: v.Pos()}
}

func (c *nodeCompiler) compile(v cue.Value) (*Node, error) {
	if pv := v.LookupPath(cue.ParsePath("param")); pv.Exists() {
		name, err := pv.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for i, p := range c.fn.Signature.Params {
			if p.Name == name {
				return &Node{Op: OpParam, Param: i, Type: p.Type, Pos: v.Pos()}, nil
			}
		}
		return nil, c.errorf(v, "unknown parameter %q", name)
	}

	if lv := v.LookupPath(cue.ParsePath("literal")); lv.Exists() {
		text, err := lv.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		lit, err := ir.Parse(text)
		if err != nil {
			return nil, c.errorf(v, "%v", err)
		}
		return &Node{Op: OpLiteral, Literal: lit, Type: lit.Type(), Pos: v.Pos()}, nil
	}

	ov := v.LookupPath(cue.ParsePath("op"))
	if !ov.Exists() {
		return nil, c.errorf(v, "node must have one of param, literal, or op")
	}
	opName, err := ov.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	n := &Node{Op: Op(opName), Pos: v.Pos()}

	if av := v.LookupPath(cue.ParsePath("args")); av.Exists() {
		list, err := av.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for list.Next() {
			arg, err := c.compile(list.Value())
			if err != nil {
				return nil, err
			}
			n.Args = append(n.Args, arg)
		}
	}

	for _, attr := range []struct {
		name string
		dst  *int
	}{{"width", &n.Width}, {"start", &n.Start}, {"index", &n.Index}} {
		if a := v.LookupPath(cue.ParsePath(attr.name)); a.Exists() {
			i, err := a.Int64()
			if err != nil {
				return nil, formatCUEError(err)
			}
			if i < 0 {
				return nil, c.errorf(a, "%s must be non-negative, got %d", attr.name, i)
			}
			*attr.dst = int(i)
		}
	}

	t, err := resultType(n)
	if err != nil {
		return nil, c.errorf(v, "%s: %v", opName, err)
	}
	n.Type = t
	return n, nil
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
