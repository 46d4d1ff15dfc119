package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// readPassword prompts for a password without echoing when stdin is a
// terminal, and falls back to reading a line when input is piped.
func readPassword(cmd *cobra.Command, prompt string) (string, error) {
	cmd.PrintErr(prompt)

	if isTerminal(os.Stdin) {
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		cmd.PrintErrln()
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(raw), nil
	}

	line, err := readLine(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return line, nil
}

// readLine reads up to the next newline without buffering past it, so
// consecutive prompts against a piped stdin each get their own line.
func readLine(r io.Reader) (string, error) {
	var sb strings.Builder
	buf := make([]byte, 1)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if buf[0] == '\n' {
				break
			}
			sb.WriteByte(buf[0])
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return "", err
		}
	}
	return strings.TrimRight(sb.String(), "\r"), nil
}

// NewLoginCmd creates the login command.
func NewLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login <username>",
		Short: "Sign in to the storefront",
		Args:  cobra.ExactArgs(1),
		Example: `  # Sign in; the password is prompted and never echoed
  estore login alice`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}

			password, err := readPassword(cmd, "Password: ")
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if err := app.Engine.Login(ctx, args[0], password); err != nil {
				return err
			}

			status, err := app.Engine.ProbeSession(ctx)
			if err == nil && status.LoggedIn() {
				cmd.Printf("Signed in as %s.\n", status.User.Username)
			} else {
				cmd.Println("Signed in.")
			}
			return nil
		},
	}
}

// NewLogoutCmd creates the logout command.
func NewLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and discard the local session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			if err := app.Engine.Logout(cmd.Context()); err != nil {
				return err
			}
			cmd.Println("Signed out.")
			return nil
		},
	}
}

// NewRegisterCmd creates the register command.
func NewRegisterCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "register <username>",
		Short: "Create a storefront account",
		Args:  cobra.ExactArgs(1),
		Example: `  # Create an account; passwords are prompted and never echoed
  estore register alice --email alice@example.com`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}

			password, err := readPassword(cmd, "Password: ")
			if err != nil {
				return err
			}
			confirm, err := readPassword(cmd, "Confirm password: ")
			if err != nil {
				return err
			}

			if err := app.Engine.Register(cmd.Context(), args[0], email, password, confirm); err != nil {
				return err
			}
			cmd.Printf("Account created. Run `estore login %s` to sign in.\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email address for the new account")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}
