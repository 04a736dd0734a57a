package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"food_routes/internal/config"
	"food_routes/internal/models"
	"food_routes/internal/services"
)

// RouteResponse mirrors models.Route with Geometry as a GeoJSON string and
// derived progress stats for listings.
type RouteResponse struct {
	ID        uint                `json:"ID"`
	CreatedAt time.Time           `json:"CreatedAt"`
	UpdatedAt time.Time           `json:"UpdatedAt"`
	Name      string              `json:"name"`
	Date      time.Time           `json:"date"`
	Status    string              `json:"status"`
	DriverID  *uint               `json:"driver_id"`
	Driver    *models.User        `json:"driver,omitempty"`
	Geometry  string              `json:"geometry,omitempty"`
	Addresses []models.Address    `json:"addresses"`
	Stats     services.RouteStats `json:"stats"`
}

func toRouteResponse(route models.Route) RouteResponse {
	jsonGeom, _ := services.GeometryToGeoJSON(route.Geometry)
	return RouteResponse{
		ID:        route.ID,
		CreatedAt: route.CreatedAt,
		UpdatedAt: route.UpdatedAt,
		Name:      route.Name,
		Date:      route.Date,
		Status:    route.Status,
		DriverID:  route.DriverID,
		Driver:    route.Driver,
		Geometry:  jsonGeom,
		Addresses: route.Addresses,
		Stats:     services.ComputeProgress(route.Addresses),
	}
}

// ListRoutes returns all routes with optional date/status/driver filters.
func ListRoutes(c *gin.Context) {
	query := config.DB.
		Preload("Driver").
		Preload("Addresses", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("sequence_order ASC")
		})

	if dateStr := c.Query("date"); dateStr != "" {
		day, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date, expected YYYY-MM-DD"})
			return
		}
		query = query.Where("date BETWEEN ? AND ?", day, day.Add(24*time.Hour-time.Nanosecond))
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if driverID := c.Query("driverId"); driverID != "" {
		query = query.Where("driver_id = ?", driverID)
	}

	var routes []models.Route
	if err := query.Order("name ASC").Find(&routes).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error listing routes: " + err.Error()})
		return
	}

	responses := make([]RouteResponse, 0, len(routes))
	for _, r := range routes {
		responses = append(responses, toRouteResponse(r))
	}
	c.JSON(http.StatusOK, gin.H{"routes": responses})
}

// CreateRoute creates a route manually, optionally with its stops.
func CreateRoute(c *gin.Context) {
	var input struct {
		Name      string  `json:"name" binding:"required"`
		Date      string  `json:"date" binding:"required"`
		DriverID  *uint   `json:"driver_id"`
		Addresses []struct {
			SequenceOrder       int      `json:"sequence_order"`
			StreetAddress       string   `json:"street_address" binding:"required"`
			City                string   `json:"city"`
			State               string   `json:"state"`
			ZipCode             string   `json:"zip_code"`
			Latitude            *float64 `json:"latitude"`
			Longitude           *float64 `json:"longitude"`
			SpecialInstructions string   `json:"special_instructions"`
		} `json:"addresses"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		logrus.WithError(err).Warn("CreateRoute: invalid input payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	date, err := time.Parse("2006-01-02", input.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date, expected YYYY-MM-DD"})
		return
	}

	route := models.Route{
		Name:     input.Name,
		Date:     date,
		Status:   models.RouteStatusPending,
		DriverID: input.DriverID,
	}

	err = config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&route).Error; err != nil {
			return err
		}
		for i, a := range input.Addresses {
			seq := a.SequenceOrder
			if seq <= 0 {
				seq = i + 1
			}
			addr := models.Address{
				RouteID:             route.ID,
				SequenceOrder:       seq,
				StreetAddress:       a.StreetAddress,
				City:                a.City,
				State:               a.State,
				ZipCode:             a.ZipCode,
				Latitude:            a.Latitude,
				Longitude:           a.Longitude,
				SpecialInstructions: a.SpecialInstructions,
				Status:              models.AddressStatusPending,
			}
			if err := tx.Create(&addr).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Create route failed: " + err.Error()})
		return
	}

	config.DB.Preload("Driver").Preload("Addresses", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("sequence_order ASC")
	}).First(&route, route.ID)
	c.JSON(http.StatusCreated, gin.H{"route": toRouteResponse(route)})
}

// GetRoute returns a single route with stops and their delivery logs.
func GetRoute(c *gin.Context) {
	rID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid route ID"})
		return
	}

	var route models.Route
	err = config.DB.Preload("Driver").
		Preload("Addresses", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("sequence_order ASC")
		}).
		Preload("Addresses.DeliveryLogs").
		First(&route, rID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Route not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"route": toRouteResponse(route)})
}

// UpdateRoute handles driver reassignment, manual status override and rename.
func UpdateRoute(c *gin.Context) {
	rID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid route ID"})
		return
	}

	var route models.Route
	if err := config.DB.First(&route, rID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Route not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	var input struct {
		Name     *string `json:"name"`
		Status   *string `json:"status"`
		DriverID *uint   `json:"driver_id"`
		Unassign bool    `json:"unassign"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		logrus.WithError(err).Warn("UpdateRoute: invalid input payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if input.Name != nil {
		route.Name = *input.Name
	}
	if input.Status != nil {
		switch *input.Status {
		case models.RouteStatusPending, models.RouteStatusActive, models.RouteStatusCompleted:
			route.Status = *input.Status
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
			return
		}
	}
	if input.Unassign {
		route.DriverID = nil
	} else if input.DriverID != nil {
		var driver models.User
		if err := config.DB.Where("id = ? AND role = ?", *input.DriverID, "driver").First(&driver).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Driver does not exist"})
			return
		}
		route.DriverID = input.DriverID
	}

	if err := config.DB.Save(&route).Error; err != nil {
		logrus.WithError(err).Error("UpdateRoute: failed to save route")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Update failed: " + err.Error()})
		return
	}

	config.DB.Preload("Driver").Preload("Addresses", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("sequence_order ASC")
	}).First(&route, route.ID)
	c.JSON(http.StatusOK, gin.H{"route": toRouteResponse(route)})
}

// DeleteRoute removes a route with its stops and logs. Archives survive.
func DeleteRoute(c *gin.Context) {
	rID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid route ID"})
		return
	}

	if err := services.DeleteRoute(config.DB, uint(rID)); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Route not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete route: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Route deleted successfully"})
}

// ReorderRoute rewrites the stop order of a route from the submitted ids.
func ReorderRoute(c *gin.Context) {
	rID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid route ID"})
		return
	}

	var input struct {
		AddressIDs []uint `json:"address_ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	addresses, err := services.ReorderStops(config.DB, uint(rID), input.AddressIDs)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Route not found"})
		case errors.Is(err, services.ErrInvalidInput):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			logrus.WithError(err).Error("ReorderRoute: reorder failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reorder addresses"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"addresses": addresses})
}

// ExportRoute streams one route as a CSV attachment.
func ExportRoute(c *gin.Context) {
	rID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid route ID"})
		return
	}

	content, err := services.ExportRouteCSV(config.DB, uint(rID))
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Route not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export route"})
		return
	}

	filename := fmt.Sprintf("route_%d_%s.csv", rID, time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "text/csv", []byte(content))
}

// ArchiveRoute snapshots a route into the permanent history, for manual use
// and for back-filling archives missed by the completion cascade.
func ArchiveRoute(c *gin.Context) {
	rID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid route ID"})
		return
	}

	archiveID, err := services.ArchiveRoute(config.DB, uint(rID))
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Route not found"})
			return
		}
		logrus.WithError(err).Error("ArchiveRoute: archival failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to archive route"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "Route archived",
		"archive_id": archiveID,
	})
}
