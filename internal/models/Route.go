package models

import (
	"time"

	"gorm.io/gorm"
)

// Route statuses. A route is pending until a driver touches the first stop,
// active while stops remain open, and completed once every stop is terminal.
const (
	RouteStatusPending   = "pending"
	RouteStatusActive    = "active"
	RouteStatusCompleted = "completed"
)

// Route is an ordered set of pickup stops assigned to one driver for one day.
type Route struct {
	gorm.Model

	Name     string    `json:"name" binding:"required"`
	Date     time.Time `json:"date"`
	Status   string    `json:"status" gorm:"default:pending"`
	DriverID *uint     `json:"driver_id" gorm:"index"` // nil = unassigned
	Driver   *User     `gorm:"foreignKey:DriverID" json:"driver,omitempty"`

	// Path over the geocoded stops, stored as a WKB LINESTRING (SRID 4326).
	// Rebuilt on import and reorder; nil when fewer than two stops have coordinates.
	Geometry []byte `gorm:"type:bytea" json:"-"`

	Addresses []Address `gorm:"foreignKey:RouteID" json:"addresses,omitempty"`
}
