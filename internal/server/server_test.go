package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/joel-danjuma/insureflow/internal/auth"
	"github.com/joel-danjuma/insureflow/internal/config"
	"github.com/joel-danjuma/insureflow/internal/models"
)

// newTestServer builds a server over a throwaway SQLite database. Redis is
// never reachable in tests; enqueue failures on the payment path are logged
// and do not fail the request.
func newTestServer(t *testing.T) *Server {
	t.Helper()

	cfg := &config.Config{
		Database: config.DatabaseConfig{URL: filepath.Join(t.TempDir(), "test.sqlite")},
		Redis:    config.RedisConfig{Address: "localhost:1"},
		Auth:     config.AuthConfig{JWTSecret: "test-secret"},
	}

	srv, err := New(cfg, zerolog.Nop(), "test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.asynqClient.Close() })
	return srv
}

// doJSON issues a request against the test server and decodes the JSON body.
func doJSON(t *testing.T, srv *Server, method, path, token string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var reqBody *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewBuffer(data)
	} else {
		reqBody = &bytes.Buffer{}
	}

	req := httptest.NewRequest(method, path, reqBody)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	var decoded map[string]interface{}
	if len(rec.Body.Bytes()) > 0 && rec.Body.Bytes()[0] == '{' {
		_ = json.Unmarshal(rec.Body.Bytes(), &decoded)
	}
	return rec, decoded
}

// seedUser creates a user directly in the database and returns it with a
// valid token, bypassing the register endpoint's CUSTOMER-only rule.
func seedUser(t *testing.T, srv *Server, email string, role models.Role) (*models.User, string) {
	t.Helper()

	hash, err := auth.HashPassword("password123")
	require.NoError(t, err)

	user := &models.User{
		Email:        email,
		FullName:     "Test " + string(role),
		PasswordHash: hash,
		Role:         role,
	}
	require.NoError(t, srv.db.Create(user).Error)

	token, err := auth.GenerateToken(user.ID, user.Email, user.Role)
	require.NoError(t, err)
	return user, token
}

// seedBroker creates a broker user with its profile.
func seedBroker(t *testing.T, srv *Server, email string) (*models.Broker, string) {
	t.Helper()

	user, token := seedUser(t, srv, email, models.RoleBroker)
	broker := &models.Broker{
		UserID:         user.ID,
		FirmName:       "Test Brokerage",
		LicenseNumber:  "LIC-" + user.ID,
		CommissionRate: 0.1,
	}
	require.NoError(t, srv.db.Create(broker).Error)
	return broker, token
}

// seedPolicy creates an active policy with one pending premium due in 10 days.
func seedPolicy(t *testing.T, srv *Server, customerID, brokerID string) (*models.Policy, *models.Premium) {
	t.Helper()

	policy := &models.Policy{
		PolicyNumber:   models.GeneratePolicyNumber(),
		CustomerID:     customerID,
		BrokerID:       brokerID,
		Type:           models.PolicyTypeAuto,
		Status:         models.PolicyStatusActive,
		CoverageAmount: 100000,
		PremiumAmount:  500,
		StartDate:      time.Now().AddDate(0, -1, 0),
		EndDate:        time.Now().AddDate(1, 0, 0),
	}
	require.NoError(t, srv.db.Create(policy).Error)

	premium := &models.Premium{
		PolicyID: policy.ID,
		Amount:   500,
		DueDate:  time.Now().AddDate(0, 0, 10),
		Status:   models.PremiumStatusPending,
	}
	require.NoError(t, srv.db.Create(premium).Error)
	return policy, premium
}

func TestHealthCheck(t *testing.T) {
	srv := newTestServer(t)

	rec, body := doJSON(t, srv, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "online", body["status"])
}

func TestRegisterAndLogin(t *testing.T) {
	srv := newTestServer(t)

	rec, body := doJSON(t, srv, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":     "new@example.com",
		"password":  "password123",
		"full_name": "New Customer",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotEmpty(t, body["token"])

	user, ok := body["user"].(map[string]interface{})
	require.True(t, ok, "response should contain user")
	require.Equal(t, string(models.RoleCustomer), user["role"], "self-registration always creates a customer")

	// Duplicate email is a conflict
	rec, body = doJSON(t, srv, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":     "new@example.com",
		"password":  "password123",
		"full_name": "Someone Else",
	})
	require.Equal(t, http.StatusConflict, rec.Code)
	require.NotEmpty(t, body["error"])

	// Login with the right password
	rec, body = doJSON(t, srv, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "new@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)

	// Token works against /api/users/me
	rec, body = doJSON(t, srv, http.MethodGet, "/api/users/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "new@example.com", body["email"])

	// Wrong password is unauthorized
	rec, _ = doJSON(t, srv, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "new@example.com",
		"password": "wrong-password",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegisterValidation(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name string
		body map[string]string
	}{
		{"missing email", map[string]string{"password": "password123", "full_name": "X"}},
		{"bad email", map[string]string{"email": "nope", "password": "password123", "full_name": "X"}},
		{"short password", map[string]string{"email": "a@b.co", "password": "short", "full_name": "X"}},
		{"missing name", map[string]string{"email": "a@b.co", "password": "password123"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _ := doJSON(t, srv, http.MethodPost, "/api/auth/register", "", tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestDashboardIsRoleScoped(t *testing.T) {
	srv := newTestServer(t)

	customer, customerToken := seedUser(t, srv, "cust@example.com", models.RoleCustomer)
	broker, brokerToken := seedBroker(t, srv, "broker@example.com")
	_, adminToken := seedUser(t, srv, "admin@example.com", models.RoleAdmin)

	seedPolicy(t, srv, customer.ID, broker.ID)

	rec, body := doJSON(t, srv, http.MethodGet, "/api/dashboard", customerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, string(models.RoleCustomer), body["role"])
	require.Equal(t, float64(1), body["active_policies"])

	rec, body = doJSON(t, srv, http.MethodGet, "/api/dashboard", brokerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, string(models.RoleBroker), body["role"])

	rec, body = doJSON(t, srv, http.MethodGet, "/api/dashboard", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, string(models.RoleAdmin), body["role"])
	require.Equal(t, float64(3), body["users"])
}

func TestAdminUserManagement(t *testing.T) {
	srv := newTestServer(t)

	_, adminToken := seedUser(t, srv, "admin@example.com", models.RoleAdmin)
	_, customerToken := seedUser(t, srv, "cust@example.com", models.RoleCustomer)

	// Customers cannot reach user management
	rec, _ := doJSON(t, srv, http.MethodGet, "/api/users", customerToken, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	// Admin creates a broker, profile fields required
	rec, _ = doJSON(t, srv, http.MethodPost, "/api/users", adminToken, map[string]string{
		"email":     "newbroker@example.com",
		"full_name": "New Broker",
		"password":  "password123",
		"role":      "BROKER",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code, "broker creation without profile fields should fail")

	rec, body := doJSON(t, srv, http.MethodPost, "/api/users", adminToken, map[string]string{
		"email":          "newbroker@example.com",
		"full_name":      "New Broker",
		"password":       "password123",
		"role":           "BROKER",
		"firm_name":      "Acme Insurance",
		"license_number": "LIC-42",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	created, ok := body["user"].(map[string]interface{})
	require.True(t, ok, "response should contain user")
	brokerUserID, _ := created["id"].(string)
	require.NotEmpty(t, brokerUserID)

	var broker models.Broker
	require.NoError(t, srv.db.Where("user_id = ?", brokerUserID).First(&broker).Error)
	require.Equal(t, "Acme Insurance", broker.FirmName)

	// Invalid role rejected by the custom validator
	rec, _ = doJSON(t, srv, http.MethodPost, "/api/users", adminToken, map[string]string{
		"email":     "x@example.com",
		"full_name": "X",
		"password":  "password123",
		"role":      "SUPERUSER",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// Admin cannot delete themselves
	var admin models.User
	require.NoError(t, srv.db.Where("email = ?", "admin@example.com").First(&admin).Error)
	rec, _ = doJSON(t, srv, http.MethodDelete, fmt.Sprintf("/api/users/%s", admin.ID), adminToken, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
