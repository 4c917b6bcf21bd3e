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

// view is one navigable screen: its guard chain, evaluated in order, and the
// renderer that runs only when the whole chain allows.
type view struct {
	guards func(env *Env) []guard.Guard
	render func(ctx context.Context, env *Env) error
}

// viewRegistry maps routes to views. Guard order within each entry is the
// contract: auth before role.
func viewRegistry() map[string]view {
	return map[string]view{
		guard.RouteLogin: {
			guards: func(env *Env) []guard.Guard {
				return []guard.Guard{guard.RequireGuest(env.Store)}
			},
			render: func(ctx context.Context, env *Env) error {
				fmt.Println("Not logged in. Run 'insureflow login' to authenticate.")
				return nil
			},
		},
		guard.RouteDashboard: {
			guards: func(env *Env) []guard.Guard {
				return []guard.Guard{guard.RequireAuth(env.Gateway)}
			},
			render: renderDashboard,
		},
	}
}

// navigate resolves the guard chain for a route and renders the view, or
// follows the redirect the chain produced. Redirects are followed through the
// registry like a router would, with a hop limit so a misconfigured chain
// cannot loop forever.
func navigate(ctx context.Context, env *Env, route string) error {
	registry := viewRegistry()
	for hops := 0; hops < 4; hops++ {
		v, ok := registry[route]
		if !ok {
			return fmt.Errorf("unknown route %q", route)
		}

		decision := guard.Resolve(ctx, v.guards(env)...)
		if decision.Allowed() {
			return v.render(ctx, env)
		}
		if decision.Notice != "" {
			fmt.Println(decision.Notice)
		}
		route = decision.Route
	}
	return fmt.Errorf("redirect loop resolving %q", route)
}

// NewDashCmd creates the dashboard command
func NewDashCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "dash",
		Short: "Show the role-scoped dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			env := NewEnv(*opts)
			return navigate(context.Background(), env, guard.RouteDashboard)
		},
	}
}

func renderDashboard(ctx context.Context, env *Env) error {
	sess := env.Store.Get()
	summary, err := env.Client.Dashboard(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Dashboard for %s (%s)\n\n", sess.User.FullName, sess.User.Role)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	defer w.Flush()

	switch sess.User.Role {
	case models.RoleCustomer:
		fmt.Fprintf(w, "Active policies\t%d\n", summary.ActivePolicies)
		fmt.Fprintf(w, "Pending premiums\t%d\n", summary.PendingPremiums)
		if summary.NextPremiumDue != nil {
			fmt.Fprintf(w, "Next premium due\t%s\n", summary.NextPremiumDue.Format("2006-01-02"))
		}
	case models.RoleBroker:
		fmt.Fprintf(w, "Clients\t%d\n", summary.Clients)
		fmt.Fprintf(w, "Active policies\t%d\n", summary.ActivePolicies)
		fmt.Fprintf(w, "Pending commissions\t%.2f\n", summary.PendingCommissions)
	case models.RoleInsuranceFirm:
		fmt.Fprintf(w, "Brokers\t%d\n", summary.Brokers)
		fmt.Fprintf(w, "Active policies\t%d\n", summary.ActivePolicies)
		fmt.Fprintf(w, "Premiums collected\t%.2f\n", summary.PremiumsCollected)
		fmt.Fprintf(w, "Open tickets\t%d\n", summary.OpenTickets)
	case models.RoleAdmin:
		fmt.Fprintf(w, "Users\t%d\n", summary.Users)
		fmt.Fprintf(w, "Active policies\t%d\n", summary.ActivePolicies)
		fmt.Fprintf(w, "Premiums collected\t%.2f\n", summary.PremiumsCollected)
		fmt.Fprintf(w, "Open tickets\t%d\n", summary.OpenTickets)
	default:
		fmt.Fprintf(w, "Active policies\t%d\n", summary.ActivePolicies)
	}
	return nil
}
