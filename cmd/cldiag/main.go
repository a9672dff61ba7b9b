// Command cldiag is the entry point for the post-mortem compiler-bug
// diagnosis cascade: see internal/cli for the subcommand tree.
package main

import (
	"os"

	"github.com/trace2pass/cldiag/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
