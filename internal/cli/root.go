package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// isTerminal checks if the given file is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// logger is the package-level logger for CLI operations.
var logger zerolog.Logger //nolint:gochecknoglobals // Required for zerolog context integration

// NewRootCmd creates the root Cobra command for the estore CLI.
// It wires up logging, tracing, and the command groups (auth, profile,
// users, product, browse).
func NewRootCmd(ver string) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "estore",
		Short:   "Terminal storefront client",
		Long:    "estore: browse and manage the storefront from the terminal",
		Version: ver,
		Example: rootCmdExample,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cacheTTL, _ := cmd.Flags().GetInt("cache-ttl")
			if cacheTTL < 0 {
				return fmt.Errorf("cache-ttl must be >= 0, got %d", cacheTTL)
			}
			return setupLogging(cmd)
		},
	}

	cmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	cmd.PersistentFlags().String("output", "", "output format: table or json (default from config)")
	cmd.PersistentFlags().String("base-url", "", "backend base URL (overrides config file and env var)")
	cmd.PersistentFlags().
		Int("cache-ttl", 0, "product cache TTL in seconds (0 = use config default, overrides config file and env var)")

	cmd.AddCommand(
		NewLoginCmd(), NewLogoutCmd(), NewRegisterCmd(),
		newProfileCmd(), NewUsersCmd(),
		NewSearchCmd(), newProductCmd(),
		NewBrowseCmd(), NewVersionCmd(),
	)

	return cmd
}

const rootCmdExample = `  # Browse the storefront interactively
  estore browse

  # Search the catalog
  estore search walnut

  # Show one product
  estore product get 7

  # Sign in (password prompted, never echoed)
  estore login alice

  # Create a listing (price in yuan)
  estore product create --name "Walnut Desk" --price 1299.00

  # Show the signed-in account
  estore profile`

// newProfileCmd creates the profile command group.
func newProfileCmd() *cobra.Command {
	cmd := NewProfileShowCmd()
	cmd.AddCommand(NewProfileUpdateCmd())
	return cmd
}

// newProductCmd creates the product command group.
func newProductCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "product", Short: "Product management commands"}
	cmd.AddCommand(
		NewProductGetCmd(), NewProductCreateCmd(),
		NewProductUpdateCmd(), NewProductDeleteCmd(),
	)
	return cmd
}
