package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"food_routes/internal/config"
	"food_routes/internal/middleware"
	"food_routes/internal/services"
)

// CompleteDelivery marks a stop completed or skipped on behalf of the
// authenticated driver and returns the cascaded route status.
func CompleteDelivery(c *gin.Context) {
	driverID := middleware.PrincipalID(c)

	addressID, err := strconv.ParseUint(c.Param("addressId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid address ID"})
		return
	}

	var input services.CompletionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	result, err := services.CompleteStop(config.DB, uint(addressID), driverID, input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Address not found"})
		case errors.Is(err, services.ErrForbidden):
			c.JSON(http.StatusForbidden, gin.H{"error": "Address does not belong to your route"})
		default:
			logrus.WithError(err).Error("CompleteDelivery: completion failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to log delivery"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"address":      result.Address,
		"delivery_log": result.DeliveryLog,
		"route_status": result.RouteStatus,
	})
}

// GetDelivery returns a stop with its most recent delivery log.
func GetDelivery(c *gin.Context) {
	addressID, err := strconv.ParseUint(c.Param("addressId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid address ID"})
		return
	}

	address, log, err := services.DeliveryDetail(config.DB, uint(addressID))
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Address not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch delivery data"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"address":      address,
		"delivery_log": log,
	})
}
