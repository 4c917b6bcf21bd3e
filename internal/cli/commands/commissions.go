package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/joel-danjuma/insureflow/internal/cli/guard"
	"github.com/joel-danjuma/insureflow/internal/models"
)

// NewCommissionsCmd creates the commissions command. The view is role-gated:
// customers have no commission data and get redirected away instead of an
// empty table.
func NewCommissionsCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "commissions",
		Short: "List broker commissions",
		RunE: func(cmd *cobra.Command, args []string) error {
			env := NewEnv(*opts)
			ctx := context.Background()

			decision := guard.Resolve(ctx,
				guard.RequireAuth(env.Gateway),
				guard.RequireRole(env.Store, []models.Role{
					models.RoleBroker, models.RoleInsuranceFirm, models.RoleAdmin,
				}, ""),
			)
			if !decision.Allowed() {
				return renderRedirect(decision)
			}

			commissions, err := env.Client.ListCommissions(ctx)
			if err != nil {
				return err
			}
			if len(commissions) == 0 {
				fmt.Println("No commissions found.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "ID\tPOLICY\tAMOUNT\tRATE\tSTATUS")
			for _, c := range commissions {
				fmt.Fprintf(w, "%s\t%s\t%.2f\t%.2f%%\t%s\n",
					c.ID, c.PolicyID, c.Amount, c.Rate*100, c.Status)
			}
			return w.Flush()
		},
	}
}
