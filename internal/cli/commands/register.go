package commands

import (
	"context"
	"fmt"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/joel-danjuma/insureflow/internal/cli/guard"
)

// NewRegisterCmd creates the register command
func NewRegisterCmd(opts *Options) *cobra.Command {
	var email, fullName, password string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a customer account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegister(opts, email, fullName, password)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&fullName, "name", "", "Full name")
	cmd.Flags().StringVar(&password, "password", "", "Password (will prompt if not provided)")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("name")

	return cmd
}

func runRegister(opts *Options, email, fullName, password string) error {
	env := NewEnv(*opts)

	ctx := context.Background()
	if d := guard.Resolve(ctx, guard.RequireGuest(env.Store)); !d.Allowed() {
		return renderRedirect(d)
	}

	if password == "" {
		if !term.IsTerminal(int(syscall.Stdin)) {
			return fmt.Errorf("password is required in non-interactive mode (use --password)")
		}
		fmt.Print("Password: ")
		bytePassword, err := term.ReadPassword(int(syscall.Stdin))
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		password = string(bytePassword)
		fmt.Println()
	}

	resp, err := env.Client.Register(ctx, email, password, fullName)
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}

	env.Store.SetAuth(resp.Token, resp.User)

	fmt.Println("✓ Account created!")
	fmt.Printf("  User: %s (%s)\n", resp.User.FullName, resp.User.Email)

	return nil
}
