package commands

import (
	"context"
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/joel-danjuma/insureflow/internal/cli/guard"
)

// NewLoginCmd creates the login command
func NewLoginCmd(opts *Options) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate with an InsureFlow server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(opts, email, password)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (or set INSUREFLOW_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set INSUREFLOW_PASSWORD, will prompt if not provided)")

	return cmd
}

func runLogin(opts *Options, email, password string) error {
	// Check for environment variables (useful for CI/CD)
	if email == "" {
		email = os.Getenv("INSUREFLOW_EMAIL")
	}
	if password == "" {
		password = os.Getenv("INSUREFLOW_PASSWORD")
	}

	if email == "" {
		return fmt.Errorf("email is required (use --email flag or INSUREFLOW_EMAIL env var)")
	}

	env := NewEnv(*opts)

	// The login view is guest-only: a fully authenticated session goes to
	// the dashboard instead of logging in twice.
	ctx := context.Background()
	if d := guard.Resolve(ctx, guard.RequireGuest(env.Store)); !d.Allowed() {
		return renderRedirect(d)
	}

	// Prompt for password if not provided via flag or env var
	if password == "" {
		// Check if stdin is a terminal (not piped)
		if term.IsTerminal(int(syscall.Stdin)) {
			fmt.Print("Password: ")
			bytePassword, err := term.ReadPassword(int(syscall.Stdin))
			if err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}
			password = string(bytePassword)
			fmt.Println() // New line after password input
		} else {
			return fmt.Errorf("password is required in non-interactive mode (use --password flag or INSUREFLOW_PASSWORD env var)")
		}
	}

	fmt.Println("Logging in...")

	loginResp, err := env.Client.Login(ctx, email, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	// Atomic: token and user land together, never one without the other
	env.Store.SetAuth(loginResp.Token, loginResp.User)

	fmt.Println("✓ Login successful!")
	fmt.Printf("  User: %s (%s)\n", loginResp.User.FullName, loginResp.User.Email)
	fmt.Printf("  Role: %s\n", loginResp.User.Role)

	return nil
}
