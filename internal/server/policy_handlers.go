package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/joel-danjuma/insureflow/internal/auth"
	"github.com/joel-danjuma/insureflow/internal/models"
)

// CreatePolicyRequest represents a request to issue a new policy
type CreatePolicyRequest struct {
	CustomerID     string    `json:"customer_id" binding:"required"`
	Type           string    `json:"type" binding:"required,oneof=LIFE HEALTH AUTO PROPERTY"`
	CoverageAmount float64   `json:"coverage_amount" binding:"required,gt=0"`
	PremiumAmount  float64   `json:"premium_amount" binding:"required,gt=0"`
	StartDate      time.Time `json:"start_date" binding:"required"`
	EndDate        time.Time `json:"end_date" binding:"required"`

	// Number of monthly premium installments to schedule up front
	Installments int `json:"installments"`
}

// scopedPolicies returns a query limited to the policies the session is
// allowed to see: customers their own, brokers their book, firms and admins
// everything.
func (s *Server) scopedPolicies(sessionData *auth.SessionData) (*gorm.DB, error) {
	q := s.db.Model(&models.Policy{})
	switch sessionData.Role {
	case models.RoleCustomer:
		return q.Where("customer_id = ?", sessionData.UserID), nil
	case models.RoleBroker:
		broker, err := s.brokerForUser(sessionData.UserID)
		if err != nil {
			return nil, err
		}
		return q.Where("broker_id = ?", broker.ID), nil
	default:
		return q, nil
	}
}

func (s *Server) brokerForUser(userID string) (*models.Broker, error) {
	var broker models.Broker
	if err := s.db.Where("user_id = ?", userID).First(&broker).Error; err != nil {
		return nil, err
	}
	return &broker, nil
}

// @Summary List policies
// @Description List policies visible to the current user
// @Tags policies
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Policy
// @Failure 401 {object} map[string]interface{}
// @Router /api/policies [get]
func (s *Server) listPolicies(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	q, err := s.scopedPolicies(sessionData)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", sessionData.UserID).Msg("Failed to resolve broker profile")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var policies []models.Policy
	if err := q.Order("created_at DESC").Find(&policies).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list policies")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, policies)
}

// @Summary Get policy
// @Description Get a single policy with its premium schedule
// @Tags policies
// @Produce json
// @Security BearerAuth
// @Param id path string true "Policy ID"
// @Success 200 {object} models.Policy
// @Failure 404 {object} map[string]interface{}
// @Router /api/policies/{id} [get]
func (s *Server) getPolicy(c *gin.Context) {
	sessionData, _ := GetSessionData(c)
	policyID := c.Param("id")

	q, err := s.scopedPolicies(sessionData)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", sessionData.UserID).Msg("Failed to resolve broker profile")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var policy models.Policy
	// Out-of-scope policies 404 rather than 403 so ids are not probeable
	if err := q.Preload("Premiums").Where("policies.id = ?", policyID).First(&policy).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Policy not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to get policy")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, policy)
}

// @Summary Create policy
// @Description Issue a new policy for a customer (broker or admin)
// @Tags policies
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreatePolicyRequest true "Create policy request"
// @Success 201 {object} models.Policy
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/policies [post]
func (s *Server) createPolicy(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	var req CreatePolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !req.EndDate.After(req.StartDate) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end_date must be after start_date"})
		return
	}

	// The issuing broker is the caller's own profile; admins must name one
	// implicitly via the customer's client record.
	var brokerID string
	if sessionData.Role == models.RoleBroker {
		broker, err := s.brokerForUser(sessionData.UserID)
		if err != nil {
			s.logger.Error().Err(err).Str("user_id", sessionData.UserID).Msg("Broker profile missing")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		brokerID = broker.ID
	} else {
		var client models.Client
		if err := s.db.Where("user_id = ?", req.CustomerID).First(&client).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Customer has no assigned broker"})
			return
		}
		brokerID = client.BrokerID
	}

	// Verify the customer exists and is a customer
	var customer models.User
	if err := s.db.Where("id = ? AND role = ?", req.CustomerID, models.RoleCustomer).First(&customer).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Customer not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find customer")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	installments := req.Installments
	if installments <= 0 {
		installments = 1
	}

	policy := &models.Policy{
		PolicyNumber:   models.GeneratePolicyNumber(),
		CustomerID:     req.CustomerID,
		BrokerID:       brokerID,
		Type:           models.PolicyType(req.Type),
		Status:         models.PolicyStatusActive,
		CoverageAmount: req.CoverageAmount,
		PremiumAmount:  req.PremiumAmount,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
	}

	// Create the policy and its premium schedule together
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(policy).Error; err != nil {
			return err
		}
		for i := 0; i < installments; i++ {
			premium := &models.Premium{
				PolicyID: policy.ID,
				Amount:   req.PremiumAmount,
				DueDate:  req.StartDate.AddDate(0, i, 0),
				Status:   models.PremiumStatusPending,
			}
			if err := tx.Create(premium).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to create policy")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create policy"})
		return
	}

	s.logger.Info().
		Str("policy_id", policy.ID).
		Str("policy_number", policy.PolicyNumber).
		Str("customer_id", policy.CustomerID).
		Str("created_by", sessionData.UserID).
		Msg("Policy created")

	c.JSON(http.StatusCreated, policy)
}
