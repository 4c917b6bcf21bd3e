package authflow

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/joel-danjuma/insureflow/internal/cli/client"
	"github.com/joel-danjuma/insureflow/internal/cli/session"
)

// fakeFetcher scripts CurrentUser responses and counts calls.
type fakeFetcher struct {
	calls int
	user  *session.User
	errs  []error
}

func (f *fakeFetcher) CurrentUser(ctx context.Context) (*session.User, error) {
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return f.user, nil
}

func newTestStore(t *testing.T) *session.Store {
	t.Helper()
	return session.NewStore(session.NewMemoryStorage(), zerolog.Nop())
}

func TestGateway_NoToken(t *testing.T) {
	store := newTestStore(t)
	api := &fakeFetcher{}
	gw := New(store, api, Options{}, zerolog.Nop())

	err := gw.ValidateAndInit(context.Background())
	if err != ErrUnauthenticated {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	if api.calls != 0 {
		t.Error("no-token path must not touch the network")
	}
}

func TestGateway_HydratesTokenOnlySession(t *testing.T) {
	store := newTestStore(t)
	store.SetToken("tok-123")

	user := &session.User{ID: "u1", Email: "a@b.co", Role: "CUSTOMER"}
	api := &fakeFetcher{user: user}
	gw := New(store, api, Options{}, zerolog.Nop())

	if err := gw.ValidateAndInit(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sess := store.Get()
	if !sess.Hydrated() {
		t.Fatal("session should be hydrated after init")
	}
	if sess.Token != "tok-123" {
		t.Errorf("token must survive hydration, got %q", sess.Token)
	}
	if sess.User.ID != "u1" {
		t.Errorf("wrong user installed: %+v", sess.User)
	}
}

func TestGateway_HydrationFailureLogsOut(t *testing.T) {
	store := newTestStore(t)
	store.SetToken("tok-expired")

	api := &fakeFetcher{errs: []error{&client.APIError{Status: 401, Message: "Your session has expired. Please log in again."}}}
	gw := New(store, api, Options{}, zerolog.Nop())

	err := gw.ValidateAndInit(context.Background())
	if err != ErrUnauthenticated {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}

	sess := store.Get()
	if sess.Token != "" || sess.IsAuthenticated {
		t.Errorf("failed hydration must destroy the session, got %+v", sess)
	}
}

func TestGateway_SecondCallIsNoOp(t *testing.T) {
	store := newTestStore(t)
	store.SetToken("tok-123")

	api := &fakeFetcher{user: &session.User{ID: "u1", Role: "BROKER"}}
	gw := New(store, api, Options{}, zerolog.Nop())

	ctx := context.Background()
	if err := gw.ValidateAndInit(ctx); err != nil {
		t.Fatal(err)
	}
	if err := gw.ValidateAndInit(ctx); err != nil {
		t.Fatal(err)
	}

	if api.calls != 1 {
		t.Errorf("hydrated session must not be re-fetched, got %d calls", api.calls)
	}
}

func TestGateway_TransientFailureFailsClosedByDefault(t *testing.T) {
	store := newTestStore(t)
	store.SetToken("tok-123")

	api := &fakeFetcher{errs: []error{&client.APIError{Status: 0, Message: "Network error. Please check your connection."}}}
	gw := New(store, api, Options{}, zerolog.Nop())

	if err := gw.ValidateAndInit(context.Background()); err != ErrUnauthenticated {
		t.Fatalf("expected fail-closed logout, got %v", err)
	}
	if api.calls != 1 {
		t.Errorf("default options must not retry, got %d calls", api.calls)
	}
	if store.Get().Token != "" {
		t.Error("session should be destroyed")
	}
}

func TestGateway_RetryTransient(t *testing.T) {
	store := newTestStore(t)
	store.SetToken("tok-123")

	api := &fakeFetcher{
		user: &session.User{ID: "u1", Role: "ADMIN"},
		errs: []error{
			&client.APIError{Status: 0, Message: "Network error. Please check your connection."},
			nil,
		},
	}
	gw := New(store, api, Options{RetryTransient: 2}, zerolog.Nop())

	if err := gw.ValidateAndInit(context.Background()); err != nil {
		t.Fatalf("retry should have recovered, got %v", err)
	}
	if api.calls != 2 {
		t.Errorf("expected one retry, got %d calls", api.calls)
	}
	if !store.Get().Hydrated() {
		t.Error("session should be hydrated after recovery")
	}
}

func TestGateway_AuthErrorNeverRetried(t *testing.T) {
	store := newTestStore(t)
	store.SetToken("tok-123")

	api := &fakeFetcher{errs: []error{&client.APIError{Status: 401, Message: "expired"}}}
	gw := New(store, api, Options{RetryTransient: 3}, zerolog.Nop())

	if err := gw.ValidateAndInit(context.Background()); err != ErrUnauthenticated {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	if api.calls != 1 {
		t.Errorf("auth failures must not be retried, got %d calls", api.calls)
	}
}

func TestGateway_MaxSessionAgeRevalidates(t *testing.T) {
	store := newTestStore(t)
	store.SetAuth("tok-123", &session.User{ID: "u1", Role: "CUSTOMER"})

	api := &fakeFetcher{user: &session.User{ID: "u1", Role: "CUSTOMER"}}
	gw := New(store, api, Options{MaxSessionAge: time.Nanosecond}, zerolog.Nop())

	time.Sleep(2 * time.Nanosecond)
	if err := gw.ValidateAndInit(context.Background()); err != nil {
		t.Fatal(err)
	}
	if api.calls != 1 {
		t.Errorf("aged session should have been revalidated, got %d calls", api.calls)
	}
}
