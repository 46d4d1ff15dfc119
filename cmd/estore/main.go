// Command estore is the terminal storefront client.
package main

import (
	"os"

	"github.com/estoreapp/estore-cli/internal/cli"
	"github.com/estoreapp/estore-cli/pkg/version"
)

func main() {
	os.Exit(run())
}

// run executes the root command and maps the outcome to an exit code.
// Cobra already prints the error, so run only translates it.
func run() int {
	root := cli.NewRootCmd(version.GetVersion())
	if err := root.Execute(); err != nil {
		return 1
	}
	return 0
}
