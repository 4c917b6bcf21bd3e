package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joel-danjuma/insureflow/internal/models"
)

func TestPayPremium(t *testing.T) {
	srv := newTestServer(t)

	customer, customerToken := seedUser(t, srv, "cust@example.com", models.RoleCustomer)
	broker, _ := seedBroker(t, srv, "broker@example.com")
	_, premium := seedPolicy(t, srv, customer.ID, broker.ID)

	payPath := fmt.Sprintf("/api/premiums/%s/pay", premium.ID)

	t.Run("invalid method rejected", func(t *testing.T) {
		rec, _ := doJSON(t, srv, http.MethodPost, payPath, customerToken, map[string]string{
			"method": "cash",
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("customer pays own premium", func(t *testing.T) {
		rec, body := doJSON(t, srv, http.MethodPost, payPath, customerToken, map[string]string{
			"method": "CARD",
		})
		require.Equal(t, http.StatusOK, rec.Code)

		paid, ok := body["premium"].(map[string]interface{})
		require.True(t, ok)
		require.Equal(t, string(models.PremiumStatusPaid), paid["status"])

		// One payment and one commission row came out of the transaction
		var payment models.Payment
		require.NoError(t, srv.db.Where("premium_id = ?", premium.ID).First(&payment).Error)
		require.Equal(t, premium.Amount, payment.Amount)
		require.Equal(t, customer.ID, payment.PayerID)

		var commission models.Commission
		require.NoError(t, srv.db.Where("premium_id = ?", premium.ID).First(&commission).Error)
		require.Equal(t, broker.ID, commission.BrokerID)
		require.InDelta(t, premium.Amount*broker.CommissionRate, commission.Amount, 0.001)
		require.Equal(t, models.CommissionStatusPending, commission.Status)
	})

	t.Run("double payment conflicts", func(t *testing.T) {
		rec, body := doJSON(t, srv, http.MethodPost, payPath, customerToken, map[string]string{
			"method": "CARD",
		})
		require.Equal(t, http.StatusConflict, rec.Code)
		require.NotEmpty(t, body["error"])
	})

	t.Run("other customers cannot see the premium", func(t *testing.T) {
		_, otherToken := seedUser(t, srv, "other@example.com", models.RoleCustomer)
		_, freshPremium := seedPolicy(t, srv, customer.ID, broker.ID)

		rec, _ := doJSON(t, srv, http.MethodPost,
			fmt.Sprintf("/api/premiums/%s/pay", freshPremium.ID), otherToken,
			map[string]string{"method": "CARD"})
		require.Equal(t, http.StatusNotFound, rec.Code, "foreign premiums must look nonexistent")
	})

	t.Run("unknown premium", func(t *testing.T) {
		rec, _ := doJSON(t, srv, http.MethodPost, "/api/premiums/nope/pay", customerToken,
			map[string]string{"method": "CARD"})
		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestListPremiumsScoping(t *testing.T) {
	srv := newTestServer(t)

	customerA, tokenA := seedUser(t, srv, "a@example.com", models.RoleCustomer)
	customerB, tokenB := seedUser(t, srv, "b@example.com", models.RoleCustomer)
	broker, brokerToken := seedBroker(t, srv, "broker@example.com")
	otherBroker, otherBrokerToken := seedBroker(t, srv, "broker2@example.com")
	_, adminToken := seedUser(t, srv, "admin@example.com", models.RoleAdmin)

	seedPolicy(t, srv, customerA.ID, broker.ID)
	seedPolicy(t, srv, customerB.ID, otherBroker.ID)

	listLen := func(token, path string) int {
		rec, _ := doJSON(t, srv, http.MethodGet, path, token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var items []json.RawMessage
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
		return len(items)
	}

	require.Equal(t, 1, listLen(tokenA, "/api/premiums"), "customer sees only their own premiums")
	require.Equal(t, 1, listLen(tokenB, "/api/premiums"))
	require.Equal(t, 1, listLen(brokerToken, "/api/premiums"), "broker sees only their book")
	require.Equal(t, 1, listLen(otherBrokerToken, "/api/premiums"))
	require.Equal(t, 2, listLen(adminToken, "/api/premiums"), "admin sees everything")

	require.Equal(t, 2, listLen(adminToken, "/api/premiums?status=PENDING"))
	require.Equal(t, 0, listLen(adminToken, "/api/premiums?status=PAID"))
}

func TestListPoliciesScoping(t *testing.T) {
	srv := newTestServer(t)

	customerA, tokenA := seedUser(t, srv, "a@example.com", models.RoleCustomer)
	customerB, _ := seedUser(t, srv, "b@example.com", models.RoleCustomer)
	broker, brokerToken := seedBroker(t, srv, "broker@example.com")
	otherBroker, _ := seedBroker(t, srv, "broker2@example.com")

	mine, _ := seedPolicy(t, srv, customerA.ID, broker.ID)
	theirs, _ := seedPolicy(t, srv, customerB.ID, otherBroker.ID)

	rec, body := doJSON(t, srv, http.MethodGet, "/api/policies/"+mine.ID, tokenA, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, mine.PolicyNumber, body["policy_number"])

	// A policy outside the caller's scope looks like it does not exist
	rec, _ = doJSON(t, srv, http.MethodGet, "/api/policies/"+theirs.ID, tokenA, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = doJSON(t, srv, http.MethodGet, "/api/policies/"+theirs.ID, brokerToken, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreatePolicy(t *testing.T) {
	srv := newTestServer(t)

	customer, customerToken := seedUser(t, srv, "cust@example.com", models.RoleCustomer)
	_, brokerToken := seedBroker(t, srv, "broker@example.com")

	payload := map[string]interface{}{
		"customer_id":     customer.ID,
		"type":            "HEALTH",
		"coverage_amount": 250000,
		"premium_amount":  1200,
		"start_date":      "2026-09-01T00:00:00Z",
		"end_date":        "2027-09-01T00:00:00Z",
		"installments":    6,
	}

	// Customers cannot create policies
	rec, _ := doJSON(t, srv, http.MethodPost, "/api/policies", customerToken, payload)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec, body := doJSON(t, srv, http.MethodPost, "/api/policies", brokerToken, payload)
	require.Equal(t, http.StatusCreated, rec.Code)

	policyID, _ := body["id"].(string)
	require.NotEmpty(t, policyID)

	// One premium installment per month, all pending
	var premiums []models.Premium
	require.NoError(t, srv.db.Where("policy_id = ?", policyID).Order("due_date ASC").Find(&premiums).Error)
	require.Len(t, premiums, 6)
	for _, p := range premiums {
		require.Equal(t, models.PremiumStatusPending, p.Status)
		require.InDelta(t, 1200.0, p.Amount, 0.001)
	}
}
