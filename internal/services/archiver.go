package services

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"food_routes/internal/models"
)

// snapshotSchemaVersion tags archived snapshots so future readers can evolve
// the shape without breaking old archives.
const snapshotSchemaVersion = 1

// volunteerHoursPerRoute is a fixed estimate, not a measured duration.
const volunteerHoursPerRoute = 2.0

// RouteSnapshot is the full serialized state of a route at archival time,
// including fields the archive's summary columns do not carry.
type RouteSnapshot struct {
	SchemaVersion int               `json:"schema_version"`
	Route         SnapshotRoute     `json:"route"`
	Driver        *SnapshotDriver   `json:"driver"`
	Addresses     []SnapshotAddress `json:"addresses"`
	Stats         SnapshotStats     `json:"stats"`
	ArchivedAt    time.Time         `json:"archived_at"`
}

type SnapshotRoute struct {
	ID       uint      `json:"id"`
	Name     string    `json:"name"`
	Date     time.Time `json:"date"`
	Status   string    `json:"status"`
	DriverID *uint     `json:"driver_id"`
}

type SnapshotDriver struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type SnapshotAddress struct {
	ID                  uint                 `json:"id"`
	SequenceOrder       int                  `json:"sequence_order"`
	StreetAddress       string               `json:"street_address"`
	City                string               `json:"city"`
	State               string               `json:"state"`
	ZipCode             string               `json:"zip_code"`
	Latitude            *float64             `json:"latitude"`
	Longitude           *float64             `json:"longitude"`
	SpecialInstructions string               `json:"special_instructions"`
	Status              string               `json:"status"`
	DeliveryLog         *SnapshotDeliveryLog `json:"delivery_log"`
}

type SnapshotDeliveryLog struct {
	FoodOutside  *bool     `json:"food_outside"`
	Notes        string    `json:"notes"`
	GPSLatitude  *float64  `json:"gps_latitude"`
	GPSLongitude *float64  `json:"gps_longitude"`
	CompletedAt  time.Time `json:"completed_at"`
}

type SnapshotStats struct {
	TotalStops     int     `json:"total_stops"`
	CompletedStops int     `json:"completed_stops"`
	SkippedStops   int     `json:"skipped_stops"`
	CompletionRate float64 `json:"completion_rate"`
	VolunteerHours float64 `json:"volunteer_hours"`
}

// ArchiveRoute snapshots a route into the permanent history. Idempotent: if
// an archive already exists for the route id its id is returned and no
// duplicate is created.
func ArchiveRoute(db *gorm.DB, routeID uint) (uint, error) {
	var existing models.RouteArchive
	err := db.Where("route_id = ?", routeID).First(&existing).Error
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}

	var route models.Route
	err = db.Preload("Driver").
		Preload("Addresses", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("sequence_order ASC")
		}).
		First(&route, routeID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrNotFound
		}
		return 0, err
	}

	stats := computeRouteStats(route.Addresses)

	snapshot := RouteSnapshot{
		SchemaVersion: snapshotSchemaVersion,
		Route: SnapshotRoute{
			ID:       route.ID,
			Name:     route.Name,
			Date:     route.Date,
			Status:   route.Status,
			DriverID: route.DriverID,
		},
		Stats:      stats,
		ArchivedAt: time.Now(),
	}
	if route.Driver != nil {
		snapshot.Driver = &SnapshotDriver{
			Name:  route.Driver.Name,
			Email: route.Driver.Email,
			Phone: route.Driver.Phone,
		}
	}

	for _, addr := range route.Addresses {
		snapAddr := SnapshotAddress{
			ID:                  addr.ID,
			SequenceOrder:       addr.SequenceOrder,
			StreetAddress:       addr.StreetAddress,
			City:                addr.City,
			State:               addr.State,
			ZipCode:             addr.ZipCode,
			Latitude:            addr.Latitude,
			Longitude:           addr.Longitude,
			SpecialInstructions: addr.SpecialInstructions,
			Status:              addr.Status,
		}

		var log models.DeliveryLog
		err := db.Where("address_id = ?", addr.ID).Order("completed_at DESC").First(&log).Error
		if err == nil {
			snapAddr.DeliveryLog = &SnapshotDeliveryLog{
				FoodOutside:  log.FoodOutside,
				Notes:        log.Notes,
				GPSLatitude:  log.GPSLatitude,
				GPSLongitude: log.GPSLongitude,
				CompletedAt:  log.CompletedAt,
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, err
		}

		snapshot.Addresses = append(snapshot.Addresses, snapAddr)
	}

	blob, err := json.Marshal(snapshot)
	if err != nil {
		return 0, err
	}

	archive := models.RouteArchive{
		RouteID:        route.ID,
		RouteName:      route.Name,
		RouteDate:      route.Date,
		TotalStops:     stats.TotalStops,
		CompletedStops: stats.CompletedStops,
		SkippedStops:   stats.SkippedStops,
		CompletionRate: stats.CompletionRate,
		VolunteerHours: stats.VolunteerHours,
		RouteData:      datatypes.JSON(blob),
	}
	if route.Driver != nil {
		archive.DriverName = route.Driver.Name
		archive.DriverEmail = route.Driver.Email
		archive.DriverPhone = route.Driver.Phone
	}

	if err := db.Create(&archive).Error; err != nil {
		return 0, err
	}

	logrus.WithFields(logrus.Fields{
		"route_id":   route.ID,
		"archive_id": archive.ID,
	}).Info("ArchiveRoute: route archived")

	return archive.ID, nil
}

// computeRouteStats derives the archive's aggregate counts. A route with zero
// stops archives with a completion rate of 0.
func computeRouteStats(addresses []models.Address) SnapshotStats {
	stats := SnapshotStats{
		TotalStops:     len(addresses),
		VolunteerHours: volunteerHoursPerRoute,
	}
	for _, addr := range addresses {
		switch addr.Status {
		case models.AddressStatusCompleted:
			stats.CompletedStops++
		case models.AddressStatusSkipped:
			stats.SkippedStops++
		}
	}
	if stats.TotalStops > 0 {
		stats.CompletionRate = float64(stats.CompletedStops) / float64(stats.TotalStops) * 100
	}
	return stats
}
