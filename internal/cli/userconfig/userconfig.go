package userconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	configDirName  = "insureflow"
	configFileName = "config.json"

	// EnvAPIURL overrides every other base URL source when set.
	EnvAPIURL = "INSUREFLOW_API_URL"

	// DefaultBaseURL is the last-resort fallback for local development.
	DefaultBaseURL = "http://localhost:8080"
)

// Server is one InsureFlow environment the CLI can talk to.
type Server struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// UserConfig represents the user's local configuration stored in
// ~/.config/insureflow/config.json
type UserConfig struct {
	Servers        []Server `json:"servers"`
	SelectedServer string   `json:"selected_server"`
}

// GetConfigPath returns the path to the user config file
func GetConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	configDir := filepath.Join(homeDir, ".config", configDirName)
	return filepath.Join(configDir, configFileName), nil
}

// Load reads the user configuration file
func Load() (*UserConfig, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	// If config doesn't exist, return empty config
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return &UserConfig{}, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read user config file: %w", err)
	}

	var cfg UserConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse user config file: %w", err)
	}

	return &cfg, nil
}

// Save writes the user configuration to a file
func Save(cfg *UserConfig) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	// Create config directory if it doesn't exist
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal user config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write user config file: %w", err)
	}

	return nil
}

// GetServerByName finds a configured server by name.
func (c *UserConfig) GetServerByName(name string) (*Server, error) {
	for i := range c.Servers {
		if c.Servers[i].Name == name {
			return &c.Servers[i], nil
		}
	}
	return nil, fmt.Errorf("no server named %q in config", name)
}

// SetSelectedServer updates the selected server name and saves the config
func SetSelectedServer(name string) error {
	cfg, err := Load()
	if err != nil {
		return err
	}

	cfg.SelectedServer = name
	return Save(cfg)
}

// SelectedServerURL returns the URL of the selected server, or "" when no
// server is selected.
func SelectedServerURL() (string, error) {
	cfg, err := Load()
	if err != nil {
		return "", err
	}
	if cfg.SelectedServer == "" {
		return "", nil
	}

	server, err := cfg.GetServerByName(cfg.SelectedServer)
	if err != nil {
		// Selected server no longer exists; behave as if none were selected
		return "", nil
	}
	return server.URL, nil
}

// ResolveBaseURL picks the API base URL by three-tier precedence: the
// explicit override (flag value or INSUREFLOW_API_URL), then the selected
// server from the user config, then the hardcoded local fallback.
func ResolveBaseURL(override string) string {
	if override != "" {
		return override
	}
	if env := os.Getenv(EnvAPIURL); env != "" {
		return env
	}
	if url, err := SelectedServerURL(); err == nil && url != "" {
		return url
	}
	return DefaultBaseURL
}
