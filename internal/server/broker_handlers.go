package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/joel-danjuma/insureflow/internal/models"
)

// @Summary List brokers
// @Description List broker profiles (broker, firm, or admin)
// @Tags brokers
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Broker
// @Failure 401 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Router /api/brokers [get]
func (s *Server) listBrokers(c *gin.Context) {
	var brokers []models.Broker
	if err := s.db.Preload("User").Order("created_at DESC").Find(&brokers).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list brokers")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, brokers)
}

// @Summary List broker clients
// @Description List the client book of a broker. Brokers may only read their own book.
// @Tags brokers
// @Produce json
// @Security BearerAuth
// @Param id path string true "Broker ID"
// @Success 200 {array} models.Client
// @Failure 403 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/brokers/{id}/clients [get]
func (s *Server) listBrokerClients(c *gin.Context) {
	sessionData, _ := GetSessionData(c)
	brokerID := c.Param("id")

	var broker models.Broker
	if err := s.db.Where("id = ?", brokerID).First(&broker).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Broker not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find broker")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	// A broker can only read their own client book
	if sessionData.Role == models.RoleBroker && broker.UserID != sessionData.UserID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	var clients []models.Client
	if err := s.db.Preload("User").Where("broker_id = ?", brokerID).Find(&clients).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list clients")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, clients)
}
