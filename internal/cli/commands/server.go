package commands

import (
	"fmt"
	"net/url"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/joel-danjuma/insureflow/internal/cli/serverselect"
	"github.com/joel-danjuma/insureflow/internal/cli/userconfig"
)

// NewServerCmd creates the server environment management command group
func NewServerCmd(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Manage configured InsureFlow environments",
	}

	cmd.AddCommand(newServerListCmd())
	cmd.AddCommand(newServerAddCmd())
	cmd.AddCommand(newServerRemoveCmd())
	cmd.AddCommand(newServerSelectCmd())
	return cmd
}

func newServerListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured environments",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := userconfig.Load()
			if err != nil {
				return err
			}
			if len(cfg.Servers) == 0 {
				fmt.Println("No servers configured. Run 'insureflow server add <name> <url>'.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "NAME\tURL\tSELECTED")
			for _, s := range cfg.Servers {
				selected := ""
				if s.Name == cfg.SelectedServer {
					selected = "*"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", s.Name, s.URL, selected)
			}
			return w.Flush()
		},
	}
}

func newServerAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <name> <url>",
		Short: "Add an environment to the config",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, rawURL := args[0], args[1]

			parsed, err := url.Parse(rawURL)
			if err != nil || parsed.Scheme == "" || parsed.Host == "" {
				return fmt.Errorf("invalid URL %q, expected http(s)://host[:port]", rawURL)
			}

			cfg, err := userconfig.Load()
			if err != nil {
				return err
			}
			if _, err := cfg.GetServerByName(name); err == nil {
				return fmt.Errorf("server %q already exists", name)
			}

			cfg.Servers = append(cfg.Servers, userconfig.Server{Name: name, URL: rawURL})
			if cfg.SelectedServer == "" {
				cfg.SelectedServer = name
			}
			if err := userconfig.Save(cfg); err != nil {
				return err
			}

			fmt.Printf("✓ Added server %s (%s)\n", name, rawURL)
			return nil
		},
	}
}

func newServerRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove an environment from the config",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			cfg, err := userconfig.Load()
			if err != nil {
				return err
			}

			kept := cfg.Servers[:0]
			found := false
			for _, s := range cfg.Servers {
				if s.Name == name {
					found = true
					continue
				}
				kept = append(kept, s)
			}
			if !found {
				return fmt.Errorf("no server named %q in config", name)
			}
			cfg.Servers = kept
			if cfg.SelectedServer == name {
				cfg.SelectedServer = ""
			}
			if err := userconfig.Save(cfg); err != nil {
				return err
			}

			fmt.Printf("✓ Removed server %s\n", name)
			return nil
		},
	}
}

func newServerSelectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "select [name]",
		Short: "Select the environment to use",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := userconfig.Load()
			if err != nil {
				return err
			}

			var server *userconfig.Server
			if len(args) == 1 {
				server, err = cfg.GetServerByName(args[0])
				if err != nil {
					return err
				}
			} else {
				server, err = serverselect.PromptServerSelection(cfg)
				if err != nil {
					return err
				}
			}

			if err := userconfig.SetSelectedServer(server.Name); err != nil {
				return err
			}
			fmt.Printf("✓ Selected server %s (%s)\n", server.Name, server.URL)
			return nil
		},
	}
}
