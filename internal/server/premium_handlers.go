package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/joel-danjuma/insureflow/internal/auth"
	"github.com/joel-danjuma/insureflow/internal/models"
	"github.com/joel-danjuma/insureflow/internal/tasks"
)

// PayPremiumRequest represents a simulated payment submission
type PayPremiumRequest struct {
	Method string `json:"method" binding:"required,oneof=CARD BANK_TRANSFER USSD"`
}

// PayPremiumResponse is returned after a successful simulated payment
type PayPremiumResponse struct {
	Premium *models.Premium `json:"premium"`
	Payment *models.Payment `json:"payment"`
}

// scopedPremiums limits the premium query the same way policies are scoped.
func (s *Server) scopedPremiums(sessionData *auth.SessionData) (*gorm.DB, error) {
	q := s.db.Model(&models.Premium{}).
		Joins("JOIN policies ON policies.id = premiums.policy_id")
	switch sessionData.Role {
	case models.RoleCustomer:
		return q.Where("policies.customer_id = ?", sessionData.UserID), nil
	case models.RoleBroker:
		broker, err := s.brokerForUser(sessionData.UserID)
		if err != nil {
			return nil, err
		}
		return q.Where("policies.broker_id = ?", broker.ID), nil
	default:
		return q, nil
	}
}

// @Summary List premiums
// @Description List premium installments visible to the current user, optionally filtered by status
// @Tags premiums
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by status (PENDING, PAID, OVERDUE)"
// @Success 200 {array} models.Premium
// @Failure 401 {object} map[string]interface{}
// @Router /api/premiums [get]
func (s *Server) listPremiums(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	q, err := s.scopedPremiums(sessionData)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", sessionData.UserID).Msg("Failed to resolve broker profile")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if status := c.Query("status"); status != "" {
		q = q.Where("premiums.status = ?", status)
	}

	var premiums []models.Premium
	if err := q.Order("premiums.due_date ASC").Find(&premiums).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list premiums")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, premiums)
}

// @Summary Pay premium
// @Description Pay a premium installment through the simulated gateway. Marks
// the premium paid, records the payment, and books the broker commission in a
// single transaction.
// @Tags premiums
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Premium ID"
// @Param request body PayPremiumRequest true "Payment request"
// @Success 200 {object} PayPremiumResponse
// @Failure 404 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/premiums/{id}/pay [post]
func (s *Server) payPremium(c *gin.Context) {
	sessionData, _ := GetSessionData(c)
	premiumID := c.Param("id")

	var req PayPremiumRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var premium models.Premium
	if err := s.db.Preload("Policy").Where("id = ?", premiumID).First(&premium).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Premium not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to get premium")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	// Customers can only pay their own premiums
	if sessionData.Role == models.RoleCustomer && premium.Policy.CustomerID != sessionData.UserID {
		c.JSON(http.StatusNotFound, gin.H{"error": "Premium not found"})
		return
	}

	if !premium.Payable() {
		c.JSON(http.StatusConflict, gin.H{"error": "Premium is not payable"})
		return
	}

	var payment *models.Payment
	err := s.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		reference := models.GeneratePaymentReference()

		payment = &models.Payment{
			PremiumID: premium.ID,
			PayerID:   sessionData.UserID,
			Amount:    premium.Amount,
			Method:    req.Method,
			Reference: reference,
			Status:    models.PaymentStatusSucceeded,
		}
		if err := tx.Create(payment).Error; err != nil {
			return err
		}

		premium.Status = models.PremiumStatusPaid
		premium.PaidAt = &now
		premium.PaymentRef = reference
		if err := tx.Model(&models.Premium{}).Where("id = ?", premium.ID).Updates(map[string]interface{}{
			"status":      premium.Status,
			"paid_at":     premium.PaidAt,
			"payment_ref": premium.PaymentRef,
		}).Error; err != nil {
			return err
		}

		// Book the broker commission at the rate in force right now
		var broker models.Broker
		if err := tx.Where("id = ?", premium.Policy.BrokerID).First(&broker).Error; err != nil {
			return err
		}
		commission := &models.Commission{
			BrokerID:  broker.ID,
			PolicyID:  premium.PolicyID,
			PremiumID: premium.ID,
			Amount:    premium.Amount * broker.CommissionRate,
			Rate:      broker.CommissionRate,
			Status:    models.CommissionStatusPending,
		}
		return tx.Create(commission).Error
	})
	if err != nil {
		s.logger.Error().Err(err).Str("premium_id", premium.ID).Msg("Failed to process payment")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process payment"})
		return
	}

	// Receipt delivery happens off the request path
	if task, err := tasks.NewPaymentReceiptTask(premium.ID); err == nil {
		if _, err := s.asynqClient.Enqueue(task); err != nil {
			s.logger.Warn().Err(err).Str("premium_id", premium.ID).Msg("Failed to enqueue payment receipt")
		}
	}

	s.logger.Info().
		Str("premium_id", premium.ID).
		Str("payment_ref", premium.PaymentRef).
		Str("paid_by", sessionData.UserID).
		Msg("Premium paid")

	c.JSON(http.StatusOK, PayPremiumResponse{
		Premium: &premium,
		Payment: payment,
	})
}

// @Summary List commissions
// @Description List commissions (brokers see their own, firms and admins see all)
// @Tags commissions
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Commission
// @Failure 401 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Router /api/commissions [get]
func (s *Server) listCommissions(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	q := s.db.Model(&models.Commission{})
	if sessionData.Role == models.RoleBroker {
		broker, err := s.brokerForUser(sessionData.UserID)
		if err != nil {
			s.logger.Error().Err(err).Str("user_id", sessionData.UserID).Msg("Broker profile missing")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		q = q.Where("broker_id = ?", broker.ID)
	}

	var commissions []models.Commission
	if err := q.Order("created_at DESC").Find(&commissions).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list commissions")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, commissions)
}
