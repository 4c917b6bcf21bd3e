package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/joel-danjuma/insureflow/internal/models"
)

// DashboardSummary is the role-scoped landing page payload. Only the fields
// relevant to the caller's role are populated.
type DashboardSummary struct {
	Role models.Role `json:"role"`

	// Customer fields
	ActivePolicies  int64      `json:"active_policies,omitempty"`
	PendingPremiums int64      `json:"pending_premiums,omitempty"`
	NextPremiumDue  *time.Time `json:"next_premium_due,omitempty"`

	// Broker fields
	Clients            int64   `json:"clients,omitempty"`
	PendingCommissions float64 `json:"pending_commissions,omitempty"`

	// Firm / admin fields
	Brokers           int64   `json:"brokers,omitempty"`
	Users             int64   `json:"users,omitempty"`
	PremiumsCollected float64 `json:"premiums_collected,omitempty"`
	OpenTickets       int64   `json:"open_tickets,omitempty"`
}

// @Summary Dashboard summary
// @Description Role-scoped aggregates for the dashboard landing page
// @Tags dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} DashboardSummary
// @Failure 401 {object} map[string]interface{}
// @Router /api/dashboard [get]
func (s *Server) getDashboard(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	summary := DashboardSummary{Role: sessionData.Role}

	var err error
	switch sessionData.Role {
	case models.RoleCustomer:
		err = s.customerSummary(sessionData.UserID, &summary)
	case models.RoleBroker:
		err = s.brokerSummary(sessionData.UserID, &summary)
	default:
		err = s.firmSummary(&summary)
	}
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", sessionData.UserID).Msg("Failed to build dashboard summary")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, summary)
}

func (s *Server) customerSummary(userID string, summary *DashboardSummary) error {
	if err := s.db.Model(&models.Policy{}).
		Where("customer_id = ? AND status = ?", userID, models.PolicyStatusActive).
		Count(&summary.ActivePolicies).Error; err != nil {
		return err
	}

	pending := func() *gorm.DB {
		return s.db.Model(&models.Premium{}).
			Joins("JOIN policies ON policies.id = premiums.policy_id").
			Where("policies.customer_id = ? AND premiums.status IN ?", userID,
				[]models.PremiumStatus{models.PremiumStatusPending, models.PremiumStatusOverdue})
	}
	if err := pending().Count(&summary.PendingPremiums).Error; err != nil {
		return err
	}

	if summary.PendingPremiums > 0 {
		var next models.Premium
		if err := pending().Order("premiums.due_date ASC").First(&next).Error; err == nil {
			summary.NextPremiumDue = &next.DueDate
		}
	}
	return nil
}

func (s *Server) brokerSummary(userID string, summary *DashboardSummary) error {
	broker, err := s.brokerForUser(userID)
	if err != nil {
		return err
	}

	if err := s.db.Model(&models.Client{}).
		Where("broker_id = ?", broker.ID).
		Count(&summary.Clients).Error; err != nil {
		return err
	}

	if err := s.db.Model(&models.Policy{}).
		Where("broker_id = ? AND status = ?", broker.ID, models.PolicyStatusActive).
		Count(&summary.ActivePolicies).Error; err != nil {
		return err
	}

	row := s.db.Model(&models.Commission{}).
		Where("broker_id = ? AND status = ?", broker.ID, models.CommissionStatusPending).
		Select("COALESCE(SUM(amount), 0)").
		Row()
	return row.Scan(&summary.PendingCommissions)
}

func (s *Server) firmSummary(summary *DashboardSummary) error {
	if err := s.db.Model(&models.User{}).Count(&summary.Users).Error; err != nil {
		return err
	}
	if err := s.db.Model(&models.Broker{}).Count(&summary.Brokers).Error; err != nil {
		return err
	}
	if err := s.db.Model(&models.Policy{}).
		Where("status = ?", models.PolicyStatusActive).
		Count(&summary.ActivePolicies).Error; err != nil {
		return err
	}
	if err := s.db.Model(&models.SupportTicket{}).
		Where("status = ?", models.TicketStatusOpen).
		Count(&summary.OpenTickets).Error; err != nil {
		return err
	}

	row := s.db.Model(&models.Payment{}).
		Where("status = ?", models.PaymentStatusSucceeded).
		Select("COALESCE(SUM(amount), 0)").
		Row()
	return row.Scan(&summary.PremiumsCollected)
}
