package services

import (
	"errors"
	"fmt"
	"math"

	"gorm.io/gorm"

	"food_routes/internal/models"
)

// RouteStats summarizes live progress for route listings.
type RouteStats struct {
	TotalStops      int `json:"total_stops"`
	CompletedStops  int `json:"completed_stops"`
	PercentComplete int `json:"percent_complete"`
}

// ComputeProgress derives listing stats from a route's stops.
func ComputeProgress(addresses []models.Address) RouteStats {
	stats := RouteStats{TotalStops: len(addresses)}
	for _, addr := range addresses {
		if addr.Status == models.AddressStatusCompleted {
			stats.CompletedStops++
		}
	}
	if stats.TotalStops > 0 {
		stats.PercentComplete = int(math.Round(float64(stats.CompletedStops) / float64(stats.TotalStops) * 100))
	}
	return stats
}

// ReorderStops rewrites the sequence order of a route's stops from the
// submitted id order. Every id must belong to the route and every stop of
// the route must be present; otherwise nothing changes. The new order is
// always the dense range 1..N regardless of any client-supplied numbers.
func ReorderStops(db *gorm.DB, routeID uint, addressIDs []uint) ([]models.Address, error) {
	if len(addressIDs) == 0 {
		return nil, fmt.Errorf("%w: addressIDs must be a non-empty array", ErrInvalidInput)
	}

	var route models.Route
	if err := db.First(&route, routeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var count int64
	if err := db.Model(&models.Address{}).
		Where("route_id = ? AND id IN ?", routeID, addressIDs).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count != int64(len(addressIDs)) {
		return nil, fmt.Errorf("%w: some addresses do not belong to this route", ErrInvalidInput)
	}

	var total int64
	if err := db.Model(&models.Address{}).Where("route_id = ?", routeID).Count(&total).Error; err != nil {
		return nil, err
	}
	if total != int64(len(addressIDs)) {
		return nil, fmt.Errorf("%w: reorder must include every stop of the route", ErrInvalidInput)
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		for i, id := range addressIDs {
			if err := tx.Model(&models.Address{}).
				Where("id = ? AND route_id = ?", id, routeID).
				Update("sequence_order", i+1).Error; err != nil {
				return err
			}
		}

		var ordered []models.Address
		if err := tx.Where("route_id = ?", routeID).Order("sequence_order ASC").Find(&ordered).Error; err != nil {
			return err
		}
		geomBytes, err := BuildRouteGeometry(ordered)
		if err != nil {
			return err
		}
		return tx.Model(&models.Route{}).Where("id = ?", routeID).Update("geometry", geomBytes).Error
	})
	if err != nil {
		return nil, err
	}

	var addresses []models.Address
	if err := db.Where("route_id = ?", routeID).Order("sequence_order ASC").Find(&addresses).Error; err != nil {
		return nil, err
	}
	return addresses, nil
}

// DeleteRoute removes a route with its stops and their delivery logs in one
// transaction. Archives are untouched; history survives route deletion.
func DeleteRoute(db *gorm.DB, routeID uint) error {
	var route models.Route
	if err := db.First(&route, routeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		var addressIDs []uint
		if err := tx.Model(&models.Address{}).Where("route_id = ?", routeID).Pluck("id", &addressIDs).Error; err != nil {
			return err
		}
		if len(addressIDs) > 0 {
			if err := tx.Where("address_id IN ?", addressIDs).Delete(&models.DeliveryLog{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("route_id = ?", routeID).Delete(&models.Address{}).Error; err != nil {
			return err
		}
		return tx.Delete(&route).Error
	})
}

// ActiveRouteForDriver returns the driver's most recent pending or active
// route with stops in sequence order, or ErrNotFound when none exists.
func ActiveRouteForDriver(db *gorm.DB, driverID uint) (*models.Route, error) {
	var route models.Route
	err := db.Where("driver_id = ? AND status IN ?", driverID, []string{models.RouteStatusPending, models.RouteStatusActive}).
		Preload("Addresses", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("sequence_order ASC")
		}).
		Preload("Driver").
		Order("date DESC").
		First(&route).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &route, nil
}

// NextPendingStop picks the first stop, in sequence order, still pending.
func NextPendingStop(addresses []models.Address) *models.Address {
	for i := range addresses {
		if addresses[i].Status == models.AddressStatusPending {
			return &addresses[i]
		}
	}
	return nil
}
