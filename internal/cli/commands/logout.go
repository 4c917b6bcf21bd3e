package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewLogoutCmd creates the logout command
func NewLogoutCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the local session",
		RunE: func(cmd *cobra.Command, args []string) error {
			env := NewEnv(*opts)

			if !env.Store.Get().IsAuthenticated {
				fmt.Println("Not logged in.")
				return nil
			}

			env.Store.Logout()
			fmt.Println("✓ Logged out.")
			return nil
		},
	}
}
