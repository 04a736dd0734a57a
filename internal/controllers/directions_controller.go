package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"food_routes/internal/services"
)

var directionsClient = services.NewDirectionsClient()

// SetDirectionsClient replaces the package client, e.g. for tests.
func SetDirectionsClient(client *services.DirectionsClient) {
	directionsClient = client
}

// GetDirections proxies a turn-by-turn routing request for the navigation
// UI. Provider errors map to human-readable messages.
func GetDirections(c *gin.Context) {
	origin := c.Query("origin")
	destination := c.Query("destination")
	if origin == "" || destination == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Origin and destination are required"})
		return
	}

	body, err := directionsClient.Directions(c.Request.Context(), origin, destination)
	if err != nil {
		var dirErr *services.DirectionsError
		if errors.As(err, &dirErr) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":  dirErr.Message,
				"status": dirErr.Status,
			})
			return
		}
		logrus.WithError(err).Error("GetDirections: request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch directions"})
		return
	}

	c.Data(http.StatusOK, "application/json", body)
}
