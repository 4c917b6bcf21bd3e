package commands

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/joel-danjuma/insureflow/internal/cli/authflow"
	"github.com/joel-danjuma/insureflow/internal/cli/client"
	"github.com/joel-danjuma/insureflow/internal/cli/guard"
	"github.com/joel-danjuma/insureflow/internal/cli/session"
	"github.com/joel-danjuma/insureflow/internal/cli/userconfig"
)

// Env wires the session store, gateway, and API client for one command
// invocation. Commands share this wiring so every one of them sees the same
// session semantics.
type Env struct {
	Store   *session.Store
	Client  *client.Client
	Gateway *authflow.Gateway
}

// Options select the storage backend and API endpoint for an Env.
type Options struct {
	// APIURL overrides base URL resolution when set (the --api-url flag).
	APIURL string
	// Keychain selects the OS keyring session backend instead of the default
	// runtime-dir file (the --keychain flag).
	Keychain bool
	// Storage overrides the backend entirely; used by tests.
	Storage session.Storage
	// Logger defaults to a silent logger; commands print, they don't log.
	Logger *zerolog.Logger
}

// NewEnv builds the command wiring: storage -> store -> client -> gateway.
func NewEnv(opts Options) *Env {
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}

	storage := opts.Storage
	if storage == nil {
		if opts.Keychain {
			storage = &session.KeyringStorage{}
		} else {
			storage = session.NewFileStorage()
		}
	}

	store := session.NewStore(storage, log)

	baseURL := userconfig.ResolveBaseURL(opts.APIURL)
	apiClient := client.New(baseURL, func() string {
		return store.Get().Token
	})

	gateway := authflow.New(store, apiClient, authflow.Options{}, log)

	return &Env{
		Store:   store,
		Client:  apiClient,
		Gateway: gateway,
	}
}

// renderRedirect prints what a guard redirect means in terminal terms and
// returns a non-nil error so the command exits non-zero. Guarded output is
// never printed on this path.
func renderRedirect(d guard.Decision) error {
	if d.Notice != "" {
		fmt.Println(d.Notice)
	}
	switch d.Route {
	case guard.RouteLogin:
		return fmt.Errorf("not logged in. Run 'insureflow login' first")
	case guard.RouteDashboard:
		return fmt.Errorf("already logged in. Run 'insureflow dash' or 'insureflow logout'")
	default:
		return fmt.Errorf("access denied, see '%s'", d.Route)
	}
}
