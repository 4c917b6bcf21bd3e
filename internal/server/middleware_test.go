package server

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joel-danjuma/insureflow/internal/auth"
	"github.com/joel-danjuma/insureflow/internal/models"
)

func TestJWTAuthMiddleware(t *testing.T) {
	srv := newTestServer(t)
	user, token := seedUser(t, srv, "cust@example.com", models.RoleCustomer)

	t.Run("missing header", func(t *testing.T) {
		rec, _ := doJSON(t, srv, http.MethodGet, "/api/users/me", "", nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		rec, _ := doJSON(t, srv, http.MethodGet, "/api/users/me", "not-a-jwt", nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		rec, body := doJSON(t, srv, http.MethodGet, "/api/users/me", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, user.Email, body["email"])
	})

	t.Run("token for deleted user", func(t *testing.T) {
		ghost, ghostToken := seedUser(t, srv, "ghost@example.com", models.RoleCustomer)
		require.NoError(t, srv.db.Delete(ghost).Error)

		rec, _ := doJSON(t, srv, http.MethodGet, "/api/users/me", ghostToken, nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("role comes from the database, not the claims", func(t *testing.T) {
		// Forge a token claiming ADMIN for a customer account; the middleware
		// must trust the stored role.
		forged, err := auth.GenerateToken(user.ID, user.Email, models.RoleAdmin)
		require.NoError(t, err)

		rec, _ := doJSON(t, srv, http.MethodGet, "/api/users", forged, nil)
		require.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestRequireRoles(t *testing.T) {
	srv := newTestServer(t)

	_, customerToken := seedUser(t, srv, "cust@example.com", models.RoleCustomer)
	_, brokerToken := seedBroker(t, srv, "broker@example.com")
	_, firmToken := seedUser(t, srv, "firm@example.com", models.RoleInsuranceFirm)

	tests := []struct {
		name     string
		path     string
		token    string
		wantCode int
	}{
		{"customer denied commissions", "/api/commissions", customerToken, http.StatusForbidden},
		{"broker allowed commissions", "/api/commissions", brokerToken, http.StatusOK},
		{"firm allowed commissions", "/api/commissions", firmToken, http.StatusOK},
		{"customer denied brokers", "/api/brokers", customerToken, http.StatusForbidden},
		{"firm allowed brokers", "/api/brokers", firmToken, http.StatusOK},
		{"broker denied user admin", "/api/users", brokerToken, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _ := doJSON(t, srv, http.MethodGet, tt.path, tt.token, nil)
			require.Equal(t, tt.wantCode, rec.Code)
		})
	}
}
