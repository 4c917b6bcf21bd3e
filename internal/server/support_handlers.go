package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/joel-danjuma/insureflow/internal/models"
)

// CreateTicketRequest represents a new support ticket
type CreateTicketRequest struct {
	Subject  string `json:"subject" binding:"required"`
	Body     string `json:"body" binding:"required"`
	Priority string `json:"priority" binding:"omitempty,oneof=LOW NORMAL HIGH"`
}

// ReplyTicketRequest represents a reply on a ticket thread
type ReplyTicketRequest struct {
	Body string `json:"body" binding:"required"`
}

// UpdateTicketStatusRequest represents a ticket status transition
type UpdateTicketStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=OPEN RESOLVED CLOSED"`
}

// ticketVisible reports whether the session may read the given ticket.
// Admins and firms handle the support queue; everyone else sees only
// their own tickets.
func ticketVisible(sessionRole models.Role, sessionUserID string, ticket *models.SupportTicket) bool {
	if sessionRole == models.RoleAdmin || sessionRole == models.RoleInsuranceFirm {
		return true
	}
	return ticket.CreatedByID == sessionUserID
}

// @Summary List tickets
// @Description List support tickets (admins and firms see all, others their own)
// @Tags support
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.SupportTicket
// @Failure 401 {object} map[string]interface{}
// @Router /api/support/tickets [get]
func (s *Server) listTickets(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	q := s.db.Model(&models.SupportTicket{})
	if sessionData.Role != models.RoleAdmin && sessionData.Role != models.RoleInsuranceFirm {
		q = q.Where("created_by_id = ?", sessionData.UserID)
	}

	var tickets []models.SupportTicket
	if err := q.Order("created_at DESC").Find(&tickets).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list tickets")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, tickets)
}

// @Summary Create ticket
// @Description Open a new support ticket
// @Tags support
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateTicketRequest true "Create ticket request"
// @Success 201 {object} models.SupportTicket
// @Failure 400 {object} map[string]interface{}
// @Router /api/support/tickets [post]
func (s *Server) createTicket(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	var req CreateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	priority := models.TicketPriorityNormal
	if req.Priority != "" {
		priority = models.TicketPriority(req.Priority)
	}

	ticket := &models.SupportTicket{
		CreatedByID: sessionData.UserID,
		Subject:     req.Subject,
		Body:        req.Body,
		Status:      models.TicketStatusOpen,
		Priority:    priority,
	}

	if err := s.db.Create(ticket).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create ticket")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create ticket"})
		return
	}

	s.logger.Info().
		Str("ticket_id", ticket.ID).
		Str("created_by", sessionData.UserID).
		Msg("Support ticket created")

	c.JSON(http.StatusCreated, ticket)
}

// @Summary Get ticket
// @Description Get a ticket with its reply thread
// @Tags support
// @Produce json
// @Security BearerAuth
// @Param id path string true "Ticket ID"
// @Success 200 {object} models.SupportTicket
// @Failure 404 {object} map[string]interface{}
// @Router /api/support/tickets/{id} [get]
func (s *Server) getTicket(c *gin.Context) {
	sessionData, _ := GetSessionData(c)
	ticketID := c.Param("id")

	var ticket models.SupportTicket
	if err := s.db.Preload("Replies").Where("id = ?", ticketID).First(&ticket).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Ticket not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to get ticket")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if !ticketVisible(sessionData.Role, sessionData.UserID, &ticket) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Ticket not found"})
		return
	}

	c.JSON(http.StatusOK, ticket)
}

// @Summary Reply to ticket
// @Description Add a reply to a ticket thread
// @Tags support
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Ticket ID"
// @Param request body ReplyTicketRequest true "Reply request"
// @Success 201 {object} models.TicketReply
// @Failure 404 {object} map[string]interface{}
// @Router /api/support/tickets/{id}/replies [post]
func (s *Server) replyTicket(c *gin.Context) {
	sessionData, _ := GetSessionData(c)
	ticketID := c.Param("id")

	var req ReplyTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var ticket models.SupportTicket
	if err := s.db.Where("id = ?", ticketID).First(&ticket).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Ticket not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to get ticket")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if !ticketVisible(sessionData.Role, sessionData.UserID, &ticket) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Ticket not found"})
		return
	}

	if ticket.Status == models.TicketStatusClosed {
		c.JSON(http.StatusConflict, gin.H{"error": "Ticket is closed"})
		return
	}

	reply := &models.TicketReply{
		TicketID: ticket.ID,
		AuthorID: sessionData.UserID,
		Body:     req.Body,
	}

	if err := s.db.Create(reply).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create reply")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create reply"})
		return
	}

	c.JSON(http.StatusCreated, reply)
}

// @Summary Update ticket status
// @Description Transition a ticket's status (admin or firm)
// @Tags support
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Ticket ID"
// @Param request body UpdateTicketStatusRequest true "Status update"
// @Success 200 {object} models.SupportTicket
// @Failure 404 {object} map[string]interface{}
// @Router /api/support/tickets/{id} [patch]
func (s *Server) updateTicketStatus(c *gin.Context) {
	ticketID := c.Param("id")

	var req UpdateTicketStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var ticket models.SupportTicket
	if err := s.db.Where("id = ?", ticketID).First(&ticket).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Ticket not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to get ticket")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ticket.Status = models.TicketStatus(req.Status)
	if err := s.db.Model(&ticket).Update("status", ticket.Status).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to update ticket")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update ticket"})
		return
	}

	c.JSON(http.StatusOK, ticket)
}
