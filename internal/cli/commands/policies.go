package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/joel-danjuma/insureflow/internal/cli/client"
	"github.com/joel-danjuma/insureflow/internal/cli/guard"
	"github.com/joel-danjuma/insureflow/internal/models"
)

// NewPoliciesCmd creates the policies command group
func NewPoliciesCmd(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policies",
		Short: "List and inspect policies",
		RunE: func(cmd *cobra.Command, args []string) error {
			env := NewEnv(*opts)
			ctx := context.Background()

			decision := guard.Resolve(ctx, guard.RequireAuth(env.Gateway))
			if !decision.Allowed() {
				return renderRedirect(decision)
			}

			policies, err := env.Client.ListPolicies(ctx)
			if err != nil {
				return err
			}
			if len(policies) == 0 {
				fmt.Println("No policies found.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "NUMBER\tTYPE\tSTATUS\tCOVERAGE\tPREMIUM\tEND DATE")
			for _, p := range policies {
				fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%.2f\t%s\n",
					p.PolicyNumber, p.Type, p.Status, p.CoverageAmount,
					p.PremiumAmount, p.EndDate.Format("2006-01-02"))
			}
			return w.Flush()
		},
	}

	cmd.AddCommand(newPolicyShowCmd(opts))
	cmd.AddCommand(newPolicyCreateCmd(opts))
	return cmd
}

func newPolicyCreateCmd(opts *Options) *cobra.Command {
	var (
		customerID   string
		policyType   string
		coverage     float64
		premium      float64
		startDate    string
		endDate      string
		installments int
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Issue a new policy for a customer",
		RunE: func(cmd *cobra.Command, args []string) error {
			env := NewEnv(*opts)
			ctx := context.Background()

			decision := guard.Resolve(ctx,
				guard.RequireAuth(env.Gateway),
				guard.RequireRole(env.Store, []models.Role{
					models.RoleBroker, models.RoleAdmin,
				}, ""),
			)
			if !decision.Allowed() {
				return renderRedirect(decision)
			}

			start, err := time.Parse("2006-01-02", startDate)
			if err != nil {
				return fmt.Errorf("invalid --start date %q, expected YYYY-MM-DD", startDate)
			}
			end, err := time.Parse("2006-01-02", endDate)
			if err != nil {
				return fmt.Errorf("invalid --end date %q, expected YYYY-MM-DD", endDate)
			}

			policy, err := env.Client.CreatePolicy(ctx, client.CreatePolicyRequest{
				CustomerID:     customerID,
				Type:           policyType,
				CoverageAmount: coverage,
				PremiumAmount:  premium,
				StartDate:      start,
				EndDate:        end,
				Installments:   installments,
			})
			if err != nil {
				return err
			}

			fmt.Printf("✓ Policy %s issued (%s, %s)\n", policy.PolicyNumber, policy.Type, policy.Status)
			return nil
		},
	}

	cmd.Flags().StringVar(&customerID, "customer", "", "Customer user ID")
	cmd.Flags().StringVar(&policyType, "type", "", "Policy type (LIFE, HEALTH, AUTO, PROPERTY)")
	cmd.Flags().Float64Var(&coverage, "coverage", 0, "Coverage amount")
	cmd.Flags().Float64Var(&premium, "premium", 0, "Premium amount per installment")
	cmd.Flags().StringVar(&startDate, "start", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&endDate, "end", "", "End date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&installments, "installments", 1, "Number of monthly premium installments")
	cmd.MarkFlagRequired("customer")
	cmd.MarkFlagRequired("type")
	cmd.MarkFlagRequired("coverage")
	cmd.MarkFlagRequired("premium")
	cmd.MarkFlagRequired("start")
	cmd.MarkFlagRequired("end")
	return cmd
}

func newPolicyShowCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "show <policy-id>",
		Short: "Show one policy with its premium schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env := NewEnv(*opts)
			ctx := context.Background()

			decision := guard.Resolve(ctx, guard.RequireAuth(env.Gateway))
			if !decision.Allowed() {
				return renderRedirect(decision)
			}

			policy, err := env.Client.GetPolicy(ctx, args[0])
			if err != nil {
				return err
			}

			fmt.Printf("Policy %s (%s, %s)\n", policy.PolicyNumber, policy.Type, policy.Status)
			fmt.Printf("Coverage: %.2f  Premium: %.2f\n", policy.CoverageAmount, policy.PremiumAmount)
			fmt.Printf("Term: %s to %s\n\n",
				policy.StartDate.Format("2006-01-02"), policy.EndDate.Format("2006-01-02"))

			if len(policy.Premiums) == 0 {
				return nil
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "ID\tAMOUNT\tDUE\tSTATUS")
			for _, pr := range policy.Premiums {
				fmt.Fprintf(w, "%s\t%.2f\t%s\t%s\n",
					pr.ID, pr.Amount, pr.DueDate.Format("2006-01-02"), pr.Status)
			}
			return w.Flush()
		},
	}
}
