package auth

import "github.com/joel-danjuma/insureflow/internal/models"

// SessionData represents the authenticated session context for a request
type SessionData struct {
	UserID   string      `json:"user_id"`
	Email    string      `json:"email"`
	FullName string      `json:"full_name"`
	Role     models.Role `json:"role"`
}

// HasRole reports whether the session's role is in the given allow-list.
func (s *SessionData) HasRole(allowed ...models.Role) bool {
	for _, role := range allowed {
		if s.Role == role {
			return true
		}
	}
	return false
}
