package models

import "gorm.io/gorm"

type User struct {
	gorm.Model
	Name     string `json:"name"`
	Email    string `json:"email" gorm:"unique"`
	Password string `json:"-"` // empty for drivers auto-provisioned by CSV import
	Phone    string `json:"phone"`
	Role     string `json:"role"` // "driver", "admin"
	Active   bool   `json:"active" gorm:"default:true"`
	CrmID    string `json:"crm_id"` // external CRM reference, not interpreted here

	// Routes currently assigned to this driver
	Routes []Route `gorm:"foreignKey:DriverID" json:"routes,omitempty"`
}
