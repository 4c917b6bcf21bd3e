package serverselect

import (
	"fmt"

	"github.com/manifoldco/promptui"

	"github.com/joel-danjuma/insureflow/internal/cli/userconfig"
)

// ResolveServer determines which environment to use based on the following priority:
// 1. If name is provided, use that server
// 2. If the user has a selected server in their config, use that
// 3. If only one server is configured, use that
// 4. Otherwise, prompt the user to select a server interactively
func ResolveServer(cfg *userconfig.UserConfig, name string) (*userconfig.Server, error) {
	// Priority 1: Use server name if provided
	if name != "" {
		return cfg.GetServerByName(name)
	}

	// Priority 2: Use selected server from user config
	if cfg.SelectedServer != "" {
		server, err := cfg.GetServerByName(cfg.SelectedServer)
		if err == nil {
			return server, nil
		}
		// Selected server no longer exists in config, clear it and continue
		_ = userconfig.SetSelectedServer("")
	}

	// Priority 3: If only one server, use it automatically
	if len(cfg.Servers) == 1 {
		server := &cfg.Servers[0]
		if err := userconfig.SetSelectedServer(server.Name); err != nil {
			// Don't fail if we can't save, just continue
			fmt.Printf("Warning: failed to save selected server: %v\n", err)
		}
		return server, nil
	}

	// Priority 4: Prompt user to select a server
	server, err := PromptServerSelection(cfg)
	if err != nil {
		return nil, err
	}

	if err := userconfig.SetSelectedServer(server.Name); err != nil {
		fmt.Printf("Warning: failed to save selected server: %v\n", err)
	}

	return server, nil
}

// PromptServerSelection shows an interactive prompt for the user to select a server
func PromptServerSelection(cfg *userconfig.UserConfig) (*userconfig.Server, error) {
	if len(cfg.Servers) == 0 {
		return nil, fmt.Errorf("no servers configured. Run 'insureflow server add' first")
	}

	labels := make([]string, len(cfg.Servers))
	for i, server := range cfg.Servers {
		labels[i] = fmt.Sprintf("%s (%s)", server.Name, server.URL)
	}

	prompt := promptui.Select{
		Label: "Select InsureFlow environment",
		Items: labels,
	}

	idx, _, err := prompt.Run()
	if err != nil {
		return nil, fmt.Errorf("server selection cancelled: %w", err)
	}

	return &cfg.Servers[idx], nil
}
