// Package authflow reconciles a persisted token with live user data after a
// restart, and fails closed on tokens the server no longer accepts.
package authflow

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/joel-danjuma/insureflow/internal/cli/client"
	"github.com/joel-danjuma/insureflow/internal/cli/session"
)

// ErrUnauthenticated signals that there is no valid session and the caller
// should send the user to the login flow. It is a normal state, not a fault.
var ErrUnauthenticated = errors.New("not authenticated")

// UserFetcher is the slice of the API client the gateway needs.
type UserFetcher interface {
	CurrentUser(ctx context.Context) (*session.User, error)
}

// Options tune the gateway's behavior.
type Options struct {
	// MaxSessionAge forces a revalidation of an already-hydrated session once
	// it is older than this. Zero means hydrated sessions are trusted
	// optimistically and never revalidated, which trades a possible stale
	// session for zero network calls on most invocations.
	MaxSessionAge time.Duration

	// RetryTransient is how many times a network-level hydration failure is
	// retried before the session is destroyed. Zero preserves the strict
	// fail-closed behavior: any failure logs the user out.
	RetryTransient int
}

// Gateway validates and hydrates the session before guarded views render.
type Gateway struct {
	store *session.Store
	api   UserFetcher
	opts  Options
	log   zerolog.Logger

	mu         sync.Mutex
	validating atomic.Bool
}

// New creates a gateway over the given store and API client.
func New(store *session.Store, api UserFetcher, opts Options, log zerolog.Logger) *Gateway {
	return &Gateway{
		store: store,
		api:   api,
		opts:  opts,
		log:   log,
	}
}

// Validating reports whether a hydration is currently in flight, for loading
// indicators. Deliberately not guarded by the gateway lock so it can be read
// while a hydration holds it.
func (g *Gateway) Validating() bool {
	return g.validating.Load()
}

// ValidateAndInit brings the session to a settled state:
//
//   - no token: returns ErrUnauthenticated without touching the network;
//   - token and user present: no-op unless the session exceeded MaxSessionAge;
//   - token without user: fetches the current user and completes the session
//     with SetAuth, or destroys it with Logout on failure.
//
// The whole routine runs under one lock, so concurrent callers coalesce onto
// a single hydration: the second caller observes the settled state and
// returns without a network call. Calling it twice is a no-op by the same
// reasoning.
func (g *Gateway) ValidateAndInit(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	sess := g.store.Get()

	if sess.Token == "" {
		return ErrUnauthenticated
	}

	if sess.Hydrated() {
		if g.opts.MaxSessionAge <= 0 {
			return nil
		}
		age := time.Since(time.Unix(sess.AuthenticatedAt, 0))
		if age < g.opts.MaxSessionAge {
			return nil
		}
		g.log.Debug().Dur("age", age).Msg("Session exceeded max age - revalidating")
	}

	return g.hydrate(ctx, sess.Token)
}

// hydrate fetches the current user and completes or destroys the session.
// Callers hold g.mu.
func (g *Gateway) hydrate(ctx context.Context, token string) error {
	g.validating.Store(true)
	defer g.validating.Store(false)

	user, err := g.fetchUser(ctx)
	if err != nil {
		// Expired token, revoked account, or an unreachable server all end
		// the session; no partial token-only state survives.
		g.log.Debug().Err(err).Msg("Session hydration failed - logging out")
		g.store.Logout()
		return ErrUnauthenticated
	}

	g.store.SetAuth(token, user)
	return nil
}

// fetchUser calls the API, retrying network-level failures per RetryTransient.
func (g *Gateway) fetchUser(ctx context.Context) (*session.User, error) {
	var lastErr error
	for attempt := 0; ; attempt++ {
		user, err := g.api.CurrentUser(ctx)
		if err == nil {
			return user, nil
		}
		lastErr = err

		var apiErr *client.APIError
		if !errors.As(err, &apiErr) || !apiErr.Transient() {
			return nil, err
		}
		if attempt >= g.opts.RetryTransient {
			return nil, lastErr
		}

		g.log.Debug().Err(err).Int("attempt", attempt+1).Msg("Transient hydration failure - retrying")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt+1) * 500 * time.Millisecond):
		}
	}
}
