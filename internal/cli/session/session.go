// Package session is the single source of truth for "who is logged in" on the
// client side. The store holds the bearer token and the hydrated user, keeps
// the derived authenticated flag consistent, persists every mutation through a
// pluggable storage backend, and notifies subscribers synchronously on change.
package session

import "github.com/joel-danjuma/insureflow/internal/models"

// User is the client-side view of the authenticated principal, replaced
// wholesale on every (re-)authentication and never field-patched.
type User struct {
	ID       string      `json:"id"`
	Email    string      `json:"email"`
	FullName string      `json:"full_name"`
	Role     models.Role `json:"role"`
}

// Session is the persisted client session state. IsAuthenticated is derived:
// it is true exactly when Token is non-empty. User may be nil while Token is
// set - that is the pre-hydration window after a restart, resolved by the
// auth gateway.
type Session struct {
	Token           string `json:"token"`
	User            *User  `json:"user"`
	IsAuthenticated bool   `json:"is_authenticated"`

	// AuthenticatedAt records when SetAuth last ran, for the optional
	// max-session-age revalidation knob. Unix seconds, 0 when never.
	AuthenticatedAt int64 `json:"authenticated_at,omitempty"`
}

// Hydrated reports whether the session has both a token and a user.
func (s Session) Hydrated() bool {
	return s.Token != "" && s.User != nil
}
