package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"food_routes/internal/config"
	"food_routes/internal/middleware"
	"food_routes/internal/models"
	"food_routes/internal/services"
)

// updateDriverInput defines the fields an admin can change on a driver.
type updateDriverInput struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	Password *string `json:"password"`
	Active   *bool   `json:"active"`
	CrmID    *string `json:"crm_id"`
}

// ListDrivers fetches all drivers with their route and delivery statistics.
func ListDrivers(c *gin.Context) {
	query := config.DB.Where("role = ?", "driver")
	if active := c.Query("active"); active != "" {
		query = query.Where("active = ?", active == "true")
	}

	var drivers []models.User
	if err := query.Order("name ASC").Find(&drivers).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error listing drivers: " + err.Error()})
		return
	}

	profiles := make([]gin.H, 0, len(drivers))
	for _, driver := range drivers {
		var totalRoutes, completedRoutes, totalDeliveries int64
		config.DB.Model(&models.Route{}).Where("driver_id = ?", driver.ID).Count(&totalRoutes)
		config.DB.Model(&models.Route{}).
			Where("driver_id = ? AND status = ?", driver.ID, models.RouteStatusCompleted).
			Count(&completedRoutes)
		config.DB.Model(&models.DeliveryLog{}).Where("driver_id = ?", driver.ID).Count(&totalDeliveries)

		profile := prepareUserResponse(driver)
		profile["stats"] = gin.H{
			"total_routes":     totalRoutes,
			"completed_routes": completedRoutes,
			"total_deliveries": totalDeliveries,
		}
		profiles = append(profiles, profile)
	}

	c.JSON(http.StatusOK, gin.H{"data": profiles})
}

// GetDriver fetches a single driver with their recent routes.
func GetDriver(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid driver ID format."})
		return
	}

	var driver models.User
	err = config.DB.Where("id = ? AND role = ?", uint(userID), "driver").
		Preload("Routes", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("date DESC").Limit(5)
		}).
		First(&driver).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Driver not found."})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error: " + err.Error()})
		}
		return
	}

	profile := prepareUserResponse(driver)
	profile["routes"] = driver.Routes
	c.JSON(http.StatusOK, gin.H{"driver": profile})
}

// UpdateDriver allows an admin to modify driver details.
func UpdateDriver(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid driver ID format."})
		return
	}

	var driver models.User
	if err := config.DB.Where("id = ? AND role = ?", uint(userID), "driver").First(&driver).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Driver not found."})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error: " + err.Error()})
		}
		return
	}

	var input updateDriverInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	if input.Name != nil {
		driver.Name = *input.Name
	}
	if input.Email != nil {
		driver.Email = *input.Email
	}
	if input.Phone != nil {
		driver.Phone = *input.Phone
	}
	if input.Active != nil {
		driver.Active = *input.Active
	}
	if input.CrmID != nil {
		driver.CrmID = *input.CrmID
	}
	if input.Password != nil {
		hashed, hashErr := hashPassword(*input.Password)
		if hashErr != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password."})
			return
		}
		driver.Password = hashed
	}

	if err := config.DB.Save(&driver).Error; err != nil {
		logrus.WithError(err).Error("UpdateDriver: failed to save driver")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update driver: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Driver updated successfully.",
		"driver":  prepareUserResponse(driver),
	})
}

// GetMyRoute returns the authenticated driver's current route with progress
// and the next pending stop.
func GetMyRoute(c *gin.Context) {
	driverID := middleware.PrincipalID(c)

	route, err := services.ActiveRouteForDriver(config.DB, driverID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No active route found"})
			return
		}
		logrus.WithError(err).Error("GetMyRoute: lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch route data"})
		return
	}

	stats := services.ComputeProgress(route.Addresses)
	c.JSON(http.StatusOK, gin.H{
		"route":     toRouteResponse(*route),
		"progress":  stats.PercentComplete,
		"next_stop": services.NextPendingStop(route.Addresses),
	})
}

// GetMyStats returns the authenticated driver's volunteer statistics.
func GetMyStats(c *gin.Context) {
	driverID := middleware.PrincipalID(c)

	stats, err := services.ComputeDriverSelfStats(config.DB, driverID)
	if err != nil {
		logrus.WithError(err).Error("GetMyStats: stats computation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch stats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"stats": stats})
}
