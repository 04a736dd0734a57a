package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RouteArchive is the permanent historical record of a completed route.
// The summary columns exist for fast listing and filtering; RouteData holds
// the full versioned snapshot for exact reconstruction. Archives are written
// once and never mutated, even if the live route is later edited or deleted.
type RouteArchive struct {
	gorm.Model

	RouteID   uint      `json:"route_id" gorm:"uniqueIndex"`
	RouteName string    `json:"route_name"`
	RouteDate time.Time `json:"route_date" gorm:"index"`

	// Driver identity as captured at archival time
	DriverName  string `json:"driver_name"`
	DriverEmail string `json:"driver_email"`
	DriverPhone string `json:"driver_phone"`

	TotalStops     int     `json:"total_stops"`
	CompletedStops int     `json:"completed_stops"`
	SkippedStops   int     `json:"skipped_stops"`
	CompletionRate float64 `json:"completion_rate"`
	VolunteerHours float64 `json:"volunteer_hours"`

	// Serialized RouteSnapshot (see services package), schema_version tagged
	RouteData datatypes.JSON `json:"route_data"`
}
