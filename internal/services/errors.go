package services

import "errors"

// Sentinel errors shared by the service layer. Handlers map these onto HTTP
// statuses; ErrForbidden is deliberately distinct from ErrNotFound so an
// ownership failure is never reported as a missing record.
var (
	ErrNotFound     = errors.New("record not found")
	ErrForbidden    = errors.New("not authorized for this resource")
	ErrInvalidInput = errors.New("invalid input")
)

// RowError describes one failed validation check in an uploaded CSV.
type RowError struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}
