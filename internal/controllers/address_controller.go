package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"food_routes/internal/config"
	"food_routes/internal/models"
)

// UpdateAddress lets an admin edit a stop's address fields.
func UpdateAddress(c *gin.Context) {
	addressID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid address ID"})
		return
	}

	var input struct {
		StreetAddress       string `json:"street_address" binding:"required"`
		City                string `json:"city" binding:"required"`
		State               string `json:"state" binding:"required"`
		ZipCode             string `json:"zip_code" binding:"required"`
		SpecialInstructions string `json:"special_instructions"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Street address, city, state, and zip code are required"})
		return
	}

	var address models.Address
	if err := config.DB.First(&address, addressID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Address not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	address.StreetAddress = input.StreetAddress
	address.City = input.City
	address.State = input.State
	address.ZipCode = input.ZipCode
	address.SpecialInstructions = input.SpecialInstructions

	if err := config.DB.Save(&address).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update address: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"address": address})
}
