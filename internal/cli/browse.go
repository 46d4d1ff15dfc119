package cli

import (
	"github.com/spf13/cobra"

	"github.com/estoreapp/estore-cli/internal/tui"
)

// NewBrowseCmd creates the browse command, which runs the interactive
// storefront browser.
func NewBrowseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse the storefront interactively",
		Args:  cobra.NoArgs,
		Example: `  # Open the interactive browser
  estore browse

  # Browse against a staging backend
  estore browse --base-url https://staging.shop.example.com`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			return tui.Run(cmd.Context(), app.Engine)
		},
	}
}
