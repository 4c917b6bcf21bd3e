package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joel-danjuma/insureflow/internal/cli/commands"
	"github.com/joel-danjuma/insureflow/internal/cli/serverselect"
	"github.com/joel-danjuma/insureflow/internal/cli/userconfig"
)

var version = "dev" // Will be set during build

var (
	cmdOpts    commands.Options
	serverName string
)

var rootCmd = &cobra.Command{
	Use:   "insureflow",
	Short: "InsureFlow - Insurance brokerage dashboard",
	Long: `InsureFlow CLI - Manage policies, premiums, and commissions.

Connects to an InsureFlow API server and keeps a local session so you stay
logged in between commands. Use 'insureflow server' to manage environments.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// The --server flag names a configured environment; it is only
		// consulted when --api-url did not already pin the endpoint.
		if cmdOpts.APIURL != "" || serverName == "" {
			return nil
		}

		cfg, err := userconfig.Load()
		if err != nil {
			return err
		}
		server, err := serverselect.ResolveServer(cfg, serverName)
		if err != nil {
			return err
		}
		cmdOpts.APIURL = server.URL
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cmdOpts.APIURL, "api-url", "",
		"API base URL (overrides config and "+userconfig.EnvAPIURL+")")
	rootCmd.PersistentFlags().StringVar(&serverName, "server", "",
		"Name of a configured environment to use")
	rootCmd.PersistentFlags().BoolVar(&cmdOpts.Keychain, "keychain", false,
		"Store the session in the OS keychain instead of the runtime dir")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("insureflow version %s\n", version)
		},
	})

	rootCmd.AddCommand(commands.NewLoginCmd(&cmdOpts))
	rootCmd.AddCommand(commands.NewRegisterCmd(&cmdOpts))
	rootCmd.AddCommand(commands.NewLogoutCmd(&cmdOpts))
	rootCmd.AddCommand(commands.NewWhoamiCmd(&cmdOpts))
	rootCmd.AddCommand(commands.NewDashCmd(&cmdOpts))
	rootCmd.AddCommand(commands.NewPoliciesCmd(&cmdOpts))
	rootCmd.AddCommand(commands.NewPremiumsCmd(&cmdOpts))
	rootCmd.AddCommand(commands.NewCommissionsCmd(&cmdOpts))
	rootCmd.AddCommand(commands.NewBrokersCmd(&cmdOpts))
	rootCmd.AddCommand(commands.NewTicketsCmd(&cmdOpts))
	rootCmd.AddCommand(commands.NewServerCmd(&cmdOpts))
}

// Execute runs the root command
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
