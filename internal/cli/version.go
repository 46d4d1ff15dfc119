package cli

import (
	"runtime"

	"github.com/spf13/cobra"

	"github.com/estoreapp/estore-cli/pkg/version"
)

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the CLI version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("estore v%s (%s)\n", version.GetVersion(), runtime.Version())
		},
	}
}
