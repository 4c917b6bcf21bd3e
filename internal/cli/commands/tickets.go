package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/joel-danjuma/insureflow/internal/cli/guard"
)

// NewTicketsCmd creates the support tickets command group
func NewTicketsCmd(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tickets",
		Short: "List and open support tickets",
		RunE: func(cmd *cobra.Command, args []string) error {
			env := NewEnv(*opts)
			ctx := context.Background()

			decision := guard.Resolve(ctx, guard.RequireAuth(env.Gateway))
			if !decision.Allowed() {
				return renderRedirect(decision)
			}

			tickets, err := env.Client.ListTickets(ctx)
			if err != nil {
				return err
			}
			if len(tickets) == 0 {
				fmt.Println("No tickets found.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "ID\tSUBJECT\tPRIORITY\tSTATUS\tOPENED")
			for _, t := range tickets {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					t.ID, t.Subject, t.Priority, t.Status, t.CreatedAt.Format("2006-01-02"))
			}
			return w.Flush()
		},
	}

	cmd.AddCommand(newTicketOpenCmd(opts))
	cmd.AddCommand(newTicketReplyCmd(opts))
	return cmd
}

func newTicketReplyCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "reply <ticket-id> <body>",
		Short: "Reply on a ticket thread",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			env := NewEnv(*opts)
			ctx := context.Background()

			decision := guard.Resolve(ctx, guard.RequireAuth(env.Gateway))
			if !decision.Allowed() {
				return renderRedirect(decision)
			}

			reply, err := env.Client.ReplyTicket(ctx, args[0], args[1])
			if err != nil {
				return err
			}

			fmt.Printf("✓ Reply %s added to ticket %s\n", reply.ID, reply.TicketID)
			return nil
		},
	}
}

func newTicketOpenCmd(opts *Options) *cobra.Command {
	var priority string

	cmd := &cobra.Command{
		Use:   "open <subject> <body>",
		Short: "Open a new support ticket",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			env := NewEnv(*opts)
			ctx := context.Background()

			decision := guard.Resolve(ctx, guard.RequireAuth(env.Gateway))
			if !decision.Allowed() {
				return renderRedirect(decision)
			}

			ticket, err := env.Client.CreateTicket(ctx, args[0], args[1], priority)
			if err != nil {
				return err
			}

			fmt.Printf("✓ Ticket %s opened (%s)\n", ticket.ID, ticket.Status)
			return nil
		},
	}
	cmd.Flags().StringVar(&priority, "priority", "", "Ticket priority (LOW, MEDIUM, HIGH)")
	return cmd
}
