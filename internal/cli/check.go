package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/irdiff/internal/program"
)

// CheckResult is the JSON payload of the check command.
type CheckResult struct {
	Valid     bool           `json:"valid"`
	Digest    string         `json:"digest,omitempty"`
	Top       string         `json:"top,omitempty"`
	Functions []FunctionInfo `json:"functions"`
}

// FunctionInfo describes one compiled function.
type FunctionInfo struct {
	Name      string `json:"name"`
	Signature string `json:"signature"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check <program>",
		Short: "Compile a program and list its functions",
		Long: `Compile and type-check a program without evaluating it.

The program may be a single .cue file or a directory of .cue files that
share a package clause.

Exit codes:
  0 - Program compiled
  2 - Program not found or failed to compile`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(rootOpts, args[0], cmd)
		},
	}
}

func runCheck(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if fmtErr := formatter.Error(ErrCodeNotFound, fmt.Sprintf("program not found: %s", path), nil); fmtErr != nil {
			return fmtErr
		}
		return NewExitError(ExitCommandError, fmt.Sprintf("program not found: %s", path))
	}

	formatter.VerboseLog("Compiling %s", path)
	pkg, err := program.Load(path)
	if err != nil {
		if fmtErr := formatter.Error(ErrorCode(err), err.Error(), nil); fmtErr != nil {
			return fmtErr
		}
		return WrapExitError(ExitCommandError, "compilation failed", err)
	}

	result := CheckResult{
		Valid:     true,
		Digest:    pkg.Digest,
		Top:       pkg.Top,
		Functions: make([]FunctionInfo, 0, len(pkg.Functions)),
	}
	for _, name := range pkg.Names() {
		result.Functions = append(result.Functions, FunctionInfo{
			Name:      name,
			Signature: pkg.Functions[name].Signature.String(),
		})
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}

	w := cmd.OutOrStdout()
	for _, fn := range result.Functions {
		marker := " "
		if fn.Name == result.Top {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %s%s\n", marker, fn.Name, fn.Signature)
	}
	return nil
}
