package models

import (
	"time"

	"gorm.io/gorm"
)

// DeliveryLog records the detail of one completed stop. Created exactly once
// per non-skipped completion and never mutated afterwards.
type DeliveryLog struct {
	gorm.Model

	AddressID uint `json:"address_id" gorm:"index"`
	DriverID  uint `json:"driver_id" gorm:"index"`
	Driver    User `gorm:"foreignKey:DriverID" json:"-"`

	FoodOutside *bool  `json:"food_outside"` // nil when the driver gave no answer
	Notes       string `json:"notes"`

	// Driver position at completion time, when the device supplied one
	GPSLatitude  *float64 `json:"gps_latitude"`
	GPSLongitude *float64 `json:"gps_longitude"`

	CompletedAt time.Time `json:"completed_at"`
}
