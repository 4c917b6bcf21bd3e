package userconfig

import (
	"testing"
)

// isolate points config and env resolution at a throwaway home.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv(EnvAPIURL, "")
}

func TestResolveBaseURL_Precedence(t *testing.T) {
	t.Run("override wins over everything", func(t *testing.T) {
		isolate(t)
		t.Setenv(EnvAPIURL, "http://env:9000")
		if got := ResolveBaseURL("http://flag:7000"); got != "http://flag:7000" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("env wins over config", func(t *testing.T) {
		isolate(t)
		if err := Save(&UserConfig{
			Servers:        []Server{{Name: "prod", URL: "http://prod:8080"}},
			SelectedServer: "prod",
		}); err != nil {
			t.Fatal(err)
		}
		t.Setenv(EnvAPIURL, "http://env:9000")
		if got := ResolveBaseURL(""); got != "http://env:9000" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("selected server from config", func(t *testing.T) {
		isolate(t)
		if err := Save(&UserConfig{
			Servers: []Server{
				{Name: "staging", URL: "http://staging:8080"},
				{Name: "prod", URL: "http://prod:8080"},
			},
			SelectedServer: "prod",
		}); err != nil {
			t.Fatal(err)
		}
		if got := ResolveBaseURL(""); got != "http://prod:8080" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("default when nothing configured", func(t *testing.T) {
		isolate(t)
		if got := ResolveBaseURL(""); got != DefaultBaseURL {
			t.Errorf("got %q", got)
		}
	})

	t.Run("dangling selection falls through to default", func(t *testing.T) {
		isolate(t)
		if err := Save(&UserConfig{
			Servers:        []Server{{Name: "staging", URL: "http://staging:8080"}},
			SelectedServer: "gone",
		}); err != nil {
			t.Fatal(err)
		}
		if got := ResolveBaseURL(""); got != DefaultBaseURL {
			t.Errorf("got %q", got)
		}
	})
}

func TestConfigRoundTrip(t *testing.T) {
	isolate(t)

	cfg := &UserConfig{
		Servers: []Server{
			{Name: "local", URL: "http://localhost:8080"},
			{Name: "prod", URL: "https://api.insureflow.example"},
		},
	}
	if err := Save(cfg); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded.Servers) != 2 {
		t.Fatalf("expected 2 servers, got %d", len(loaded.Servers))
	}

	server, err := loaded.GetServerByName("prod")
	if err != nil {
		t.Fatal(err)
	}
	if server.URL != "https://api.insureflow.example" {
		t.Errorf("url = %q", server.URL)
	}

	if _, err := loaded.GetServerByName("missing"); err == nil {
		t.Error("expected error for unknown server")
	}

	if err := SetSelectedServer("prod"); err != nil {
		t.Fatal(err)
	}
	url, err := SelectedServerURL()
	if err != nil {
		t.Fatal(err)
	}
	if url != "https://api.insureflow.example" {
		t.Errorf("selected url = %q", url)
	}
}

func TestLoadMissingConfigIsEmpty(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Servers) != 0 || cfg.SelectedServer != "" {
		t.Errorf("expected empty config, got %+v", cfg)
	}
}
