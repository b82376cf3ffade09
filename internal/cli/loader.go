package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/irdiff/internal/program"
)

// loadFunction compiles the program at path (a .cue file or a package
// directory) and selects the entry function.
func loadFunction(path, top string) (*program.Function, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("program not found: %s", path))
	}
	pkg, err := program.Load(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to compile program", err)
	}
	fn, err := pkg.Entry(top)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to select function", err)
	}
	return fn, nil
}

// loadValidator compiles the input validator from inline source or a path.
// It returns nil when neither is given.
func loadValidator(expr, path string) (*program.Function, error) {
	var (
		pkg *program.Package
		err error
	)
	switch {
	case expr != "":
		pkg, err = program.Compile("<input-validator-expr>", []byte(expr))
	case path != "":
		pkg, err = program.Load(path)
	default:
		return nil, nil
	}
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to compile input validator", err)
	}
	fn, err := pkg.Entry("")
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to select input validator", err)
	}
	return fn, nil
}
