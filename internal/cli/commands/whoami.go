package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joel-danjuma/insureflow/internal/cli/guard"
)

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the currently authenticated user",
		RunE: func(cmd *cobra.Command, args []string) error {
			env := NewEnv(*opts)
			ctx := context.Background()

			decision := guard.Resolve(ctx, guard.RequireAuth(env.Gateway))
			if !decision.Allowed() {
				return renderRedirect(decision)
			}

			sess := env.Store.Get()
			fmt.Printf("Logged in as %s (%s)\n", sess.User.FullName, sess.User.Email)
			fmt.Printf("Role: %s\n", sess.User.Role)
			return nil
		},
	}
}
