// Package program compiles CUE-encoded expression programs into typed
// functions that the evaluation backends can run.
//
// A program document names its functions under fn and (optionally) the
// entry function under top:
//
//	top: "foo"
//	fn: foo: {
//	    params: [{name: "x", type: "bits[32]"}, {name: "y", type: "bits[32]"}]
//	    ret: "bits[32]"
//	    body: {op: "add", args: [{param: "x"}, {param: "y"}]}
//	}
//
// Expression nodes are one of {param: name}, {literal: "<value literal>"},
// or {op: name, args: [...]} with per-op attributes (width, start, index).
// References, let clauses, and hidden fields are resolved by CUE before
// lowering, so shared subexpressions can be written once.
//
// Every node is type-checked during compilation. A Function therefore
// carries a body whose node types are known, and backends may assume
// operands have the widths the op requires.
package program
