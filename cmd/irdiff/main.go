// Command irdiff evaluates IR functions on a reference interpreter and a
// compiled backend and reports where they disagree.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/irdiff/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
