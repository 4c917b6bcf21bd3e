// Package guard gates views on session and role state. Guards are explicit
// composable functions evaluated in a defined order before a view renders;
// a view whose guard chain redirects produces no output at all.
package guard

import (
	"context"

	"github.com/joel-danjuma/insureflow/internal/cli/authflow"
	"github.com/joel-danjuma/insureflow/internal/cli/session"
	"github.com/joel-danjuma/insureflow/internal/models"
)

// Well-known routes guards redirect to.
const (
	RouteLogin     = "/login"
	RouteDashboard = "/dashboard"
)

// State is where a guard chain ended up for a view.
type State int

const (
	// StateChecking is the initial state while guards resolve.
	StateChecking State = iota
	// StateAllowed means the view may render.
	StateAllowed
	// StateUnauthenticatedRedirecting means there is no valid session and the
	// user is being sent to the login route.
	StateUnauthenticatedRedirecting
	// StateDeniedRedirecting means the session is valid but the role is not
	// allowed; the user is being sent to the fallback route.
	StateDeniedRedirecting
)

// Decision is the outcome of evaluating a guard. A redirecting decision
// carries the target route and an optional transient notice to show during
// the redirect.
type Decision struct {
	State  State
	Route  string
	Notice string
}

// Allowed reports whether the guarded view may render.
func (d Decision) Allowed() bool {
	return d.State == StateAllowed
}

// Redirecting reports whether the decision navigates away.
func (d Decision) Redirecting() bool {
	return d.State == StateUnauthenticatedRedirecting || d.State == StateDeniedRedirecting
}

func allow() Decision {
	return Decision{State: StateAllowed}
}

func toLogin() Decision {
	return Decision{State: StateUnauthenticatedRedirecting, Route: RouteLogin}
}

// Guard inspects session state and decides whether a view renders.
type Guard func(ctx context.Context) Decision

// Resolve evaluates guards in order and returns the first non-allow decision,
// or an allow when every guard passes. The order of the list is the contract:
// put RequireAuth before RequireRole when both apply.
func Resolve(ctx context.Context, guards ...Guard) Decision {
	for _, g := range guards {
		if d := g(ctx); !d.Allowed() {
			return d
		}
	}
	return allow()
}

// RequireAuth gates a view on a valid, hydrated session. With no token it
// redirects to login without a network call; with a token but no user it runs
// the gateway hydration first, and redirects to login if that fails.
func RequireAuth(gw *authflow.Gateway) Guard {
	return func(ctx context.Context) Decision {
		if err := gw.ValidateAndInit(ctx); err != nil {
			return toLogin()
		}
		return allow()
	}
}

// RequireGuest gates a view on being logged out, for login and registration
// views. A fully authenticated session (token and user both present) is sent
// to the dashboard; a half-hydrated one may stay, since its token could be
// dead anyway.
func RequireGuest(store *session.Store) Guard {
	return func(ctx context.Context) Decision {
		if store.Get().Hydrated() {
			return Decision{State: StateDeniedRedirecting, Route: RouteDashboard}
		}
		return allow()
	}
}

// RequireRole gates a view on the session user's role being in the allow-list.
// It re-checks authentication itself rather than assuming RequireAuth ran, so
// it is safe to use standalone. An empty fallback defaults to the dashboard.
func RequireRole(store *session.Store, allowed []models.Role, fallback string) Guard {
	if fallback == "" {
		fallback = RouteDashboard
	}
	return func(ctx context.Context) Decision {
		sess := store.Get()
		if !sess.Hydrated() {
			return toLogin()
		}

		for _, role := range allowed {
			if sess.User.Role == role {
				return allow()
			}
		}

		// Wrong role is not a session error: the session stays intact, only
		// navigation is redirected.
		return Decision{
			State:  StateDeniedRedirecting,
			Route:  fallback,
			Notice: "Access denied",
		}
	}
}
