package models

import (
	"gorm.io/gorm"
)

// Address (stop) statuses. Completed and skipped are terminal.
const (
	AddressStatusPending   = "pending"
	AddressStatusCompleted = "completed"
	AddressStatusSkipped   = "skipped"
)

// Address represents one pickup stop within a route.
// SequenceOrder is 1-based and dense within the parent route.
type Address struct {
	gorm.Model

	RouteID       uint   `json:"route_id" gorm:"index"`
	SequenceOrder int    `json:"sequence_order"`
	StreetAddress string `json:"street_address"`
	City          string `json:"city"`
	State         string `json:"state"`
	ZipCode       string `json:"zip_code"`

	// Nil until geocoded; a failed geocode leaves the stop ungeocoded rather
	// than failing the import.
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`

	SpecialInstructions string `json:"special_instructions"`
	Status              string `json:"status" gorm:"default:pending"`

	DeliveryLogs []DeliveryLog `gorm:"foreignKey:AddressID" json:"delivery_logs,omitempty"`
}
