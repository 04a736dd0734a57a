package services

import (
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"food_routes/internal/models"
)

// CompletionInput carries the detail a driver submits when closing out a stop.
type CompletionInput struct {
	FoodOutside  *bool    `json:"food_outside"`
	Notes        string   `json:"notes"`
	GPSLatitude  *float64 `json:"gps_latitude"`
	GPSLongitude *float64 `json:"gps_longitude"`
	Skip         bool     `json:"skip"`
}

// CompletionResult returns the updated stop and, for non-skipped completions,
// the delivery log that was written.
type CompletionResult struct {
	Address     models.Address      `json:"address"`
	DeliveryLog *models.DeliveryLog `json:"delivery_log"`
	RouteStatus string              `json:"route_status"`
}

// CompleteStop marks a stop completed or skipped on behalf of a driver and
// cascades the parent route's status.
//
// The stop must belong to a route owned by the acting driver; an ownership
// failure is ErrForbidden, not ErrNotFound. Skipped stops never produce a
// delivery log. After the stop update the route's stops are re-read in full:
// if every stop is terminal the route completes and is archived exactly once;
// a still-pending route is promoted to active on the first touch.
func CompleteStop(db *gorm.DB, addressID, driverID uint, input CompletionInput) (*CompletionResult, error) {
	var address models.Address
	if err := db.First(&address, addressID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var route models.Route
	if err := db.First(&route, address.RouteID).Error; err != nil {
		return nil, err
	}
	if route.DriverID == nil || *route.DriverID != driverID {
		return nil, ErrForbidden
	}

	newStatus := models.AddressStatusCompleted
	if input.Skip {
		newStatus = models.AddressStatusSkipped
	}

	var deliveryLog *models.DeliveryLog
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&address).Update("status", newStatus).Error; err != nil {
			return err
		}
		if !input.Skip {
			deliveryLog = &models.DeliveryLog{
				AddressID:    address.ID,
				DriverID:     driverID,
				FoodOutside:  input.FoodOutside,
				Notes:        input.Notes,
				GPSLatitude:  input.GPSLatitude,
				GPSLongitude: input.GPSLongitude,
				CompletedAt:  time.Now(),
			}
			if err := tx.Create(deliveryLog).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	address.Status = newStatus

	routeStatus, err := cascadeRouteStatus(db, route.ID)
	if err != nil {
		return nil, err
	}

	return &CompletionResult{Address: address, DeliveryLog: deliveryLog, RouteStatus: routeStatus}, nil
}

// cascadeRouteStatus recomputes the route status from all of its stops.
// Exact recomputation on every write is preferred over an incremental
// counter; routes hold tens of stops at most.
func cascadeRouteStatus(db *gorm.DB, routeID uint) (string, error) {
	var route models.Route
	if err := db.Preload("Addresses").First(&route, routeID).Error; err != nil {
		return "", err
	}

	allDone := true
	for _, addr := range route.Addresses {
		if addr.Status != models.AddressStatusCompleted && addr.Status != models.AddressStatusSkipped {
			allDone = false
			break
		}
	}

	switch {
	case allDone && route.Status != models.RouteStatusCompleted:
		if err := db.Model(&route).Update("status", models.RouteStatusCompleted).Error; err != nil {
			return "", err
		}
		// Archival must never fail the completion that triggered it; a missed
		// archive is back-filled via the manual archive endpoint.
		if _, err := ArchiveRoute(db, route.ID); err != nil {
			logrus.WithError(err).WithField("route_id", route.ID).Error("cascadeRouteStatus: auto-archive failed")
		}
		return models.RouteStatusCompleted, nil
	case route.Status == models.RouteStatusPending:
		// First touch of any stop starts the route
		if err := db.Model(&route).Update("status", models.RouteStatusActive).Error; err != nil {
			return "", err
		}
		return models.RouteStatusActive, nil
	default:
		return route.Status, nil
	}
}

// DeliveryDetail returns a stop with its most recent delivery log.
func DeliveryDetail(db *gorm.DB, addressID uint) (*models.Address, *models.DeliveryLog, error) {
	var address models.Address
	if err := db.First(&address, addressID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}

	var log models.DeliveryLog
	err := db.Where("address_id = ?", addressID).Order("completed_at DESC").First(&log).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &address, nil, nil
		}
		return nil, nil, err
	}
	return &address, &log, nil
}
