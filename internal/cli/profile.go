package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/estoreapp/estore-cli/internal/api"
)

// errNotSignedIn is returned by commands that require a session.
var errNotSignedIn = errors.New("not signed in (run `estore login`)")

// NewProfileShowCmd creates the profile command, which shows the
// signed-in account. Subcommands are attached by the root.
func NewProfileShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Show or update the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}

			status, err := app.Engine.ProbeSession(cmd.Context())
			if err != nil {
				return err
			}
			if !status.LoggedIn() {
				if status.Err != nil {
					return status.Err
				}
				return errNotSignedIn
			}

			if app.outputFormat(cmd) == "json" {
				return renderJSON(cmd, status.User)
			}
			renderUser(cmd, status.User)
			return nil
		},
	}
}

// NewProfileUpdateCmd creates the profile update command. Unset flags
// keep their current values.
func NewProfileUpdateCmd() *cobra.Command {
	var username, email, phone, address string

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update the signed-in account",
		Args:  cobra.NoArgs,
		Example: `  # Change the delivery address only
  estore profile update --address "12 Xinhua Road"`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			status, err := app.Engine.ProbeSession(ctx)
			if err != nil {
				return err
			}
			if !status.LoggedIn() {
				if status.Err != nil {
					return status.Err
				}
				return errNotSignedIn
			}

			// Start from the current account so unset flags are no-ops.
			req := api.UpdateUserRequest{
				Username: status.User.Username,
				Email:    status.User.Email,
				Phone:    status.User.Phone,
				Address:  status.User.Address,
			}
			if cmd.Flags().Changed("username") {
				req.Username = username
			}
			if cmd.Flags().Changed("email") {
				req.Email = email
			}
			if cmd.Flags().Changed("phone") {
				req.Phone = phone
			}
			if cmd.Flags().Changed("address") {
				req.Address = address
			}

			updated, err := app.Engine.UpdateProfile(ctx, req)
			if err != nil {
				return err
			}

			if app.outputFormat(cmd) == "json" {
				return renderJSON(cmd, updated)
			}
			cmd.Println("Profile updated.")
			renderUser(cmd, updated)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "new username")
	cmd.Flags().StringVar(&email, "email", "", "new email address")
	cmd.Flags().StringVar(&phone, "phone", "", "new phone number")
	cmd.Flags().StringVar(&address, "address", "", "new delivery address")

	return cmd
}

// NewUsersCmd creates the users command, listing all accounts. The
// backend restricts it to administrators.
func NewUsersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List all accounts (admin only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}

			users, err := app.Engine.Users(cmd.Context())
			if err != nil {
				return err
			}

			if app.outputFormat(cmd) == "json" {
				return renderJSON(cmd, users)
			}
			renderUsersTable(cmd, users)
			return nil
		},
	}
}
