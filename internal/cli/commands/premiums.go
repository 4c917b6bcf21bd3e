package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/joel-danjuma/insureflow/internal/cli/guard"
)

// NewPremiumsCmd creates the premiums command group
func NewPremiumsCmd(opts *Options) *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "premiums",
		Short: "List premium installments",
		RunE: func(cmd *cobra.Command, args []string) error {
			env := NewEnv(*opts)
			ctx := context.Background()

			decision := guard.Resolve(ctx, guard.RequireAuth(env.Gateway))
			if !decision.Allowed() {
				return renderRedirect(decision)
			}

			premiums, err := env.Client.ListPremiums(ctx, status)
			if err != nil {
				return err
			}
			if len(premiums) == 0 {
				fmt.Println("No premiums found.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "ID\tPOLICY\tAMOUNT\tDUE\tSTATUS")
			for _, p := range premiums {
				fmt.Fprintf(w, "%s\t%s\t%.2f\t%s\t%s\n",
					p.ID, p.PolicyID, p.Amount, p.DueDate.Format("2006-01-02"), p.Status)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "Filter by status (PENDING, PAID, OVERDUE)")

	cmd.AddCommand(newPremiumPayCmd(opts))
	return cmd
}

func newPremiumPayCmd(opts *Options) *cobra.Command {
	var method string

	cmd := &cobra.Command{
		Use:   "pay <premium-id>",
		Short: "Pay a pending or overdue premium",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env := NewEnv(*opts)
			ctx := context.Background()

			decision := guard.Resolve(ctx, guard.RequireAuth(env.Gateway))
			if !decision.Allowed() {
				return renderRedirect(decision)
			}

			resp, err := env.Client.PayPremium(ctx, args[0], method)
			if err != nil {
				return err
			}

			fmt.Printf("✓ Payment of %.2f recorded (ref %s)\n",
				resp.Payment.Amount, resp.Payment.Reference)
			fmt.Printf("Premium %s is now %s\n", resp.Premium.ID, resp.Premium.Status)
			return nil
		},
	}
	cmd.Flags().StringVar(&method, "method", "CARD", "Payment method (CARD, BANK_TRANSFER, USSD)")
	return cmd
}
