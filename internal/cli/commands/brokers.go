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

// NewBrokersCmd creates the brokers command group
func NewBrokersCmd(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "brokers",
		Short: "List broker profiles",
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

			brokers, err := env.Client.ListBrokers(ctx)
			if err != nil {
				return err
			}
			if len(brokers) == 0 {
				fmt.Println("No brokers found.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "ID\tFIRM\tLICENSE\tRATE")
			for _, b := range brokers {
				fmt.Fprintf(w, "%s\t%s\t%s\t%.2f%%\n",
					b.ID, b.FirmName, b.LicenseNumber, b.CommissionRate*100)
			}
			return w.Flush()
		},
	}

	cmd.AddCommand(newBrokerClientsCmd(opts))
	return cmd
}

func newBrokerClientsCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "clients <broker-id>",
		Short: "List the customers in a broker's book",
		Args:  cobra.ExactArgs(1),
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

			clients, err := env.Client.ListBrokerClients(ctx, args[0])
			if err != nil {
				return err
			}
			if len(clients) == 0 {
				fmt.Println("No clients found.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tEMAIL")
			for _, c := range clients {
				name, email := "", ""
				if c.User != nil {
					name, email = c.User.FullName, c.User.Email
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", c.ID, name, email)
			}
			return w.Flush()
		},
	}
}
