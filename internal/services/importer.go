package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"food_routes/internal/models"
)

// importRow is one parsed CSV line keyed by the header columns.
type importRow struct {
	RouteName           string
	DriverName          string
	DriverEmail         string
	SequenceOrder       string
	StreetAddress       string
	City                string
	State               string
	ZipCode             string
	SpecialInstructions string
}

// ImportResult reports the outcome of one CSV import call. Success is false
// whenever any error occurred, even if some routes were imported, so callers
// must inspect Imported and Errors together.
type ImportResult struct {
	Success  bool           `json:"success"`
	BatchID  string         `json:"batch_id"`
	Imported int            `json:"imported"`
	Routes   []models.Route `json:"routes"`
	Errors   []RowError     `json:"errors"`
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// defaultGeocodeInterval keeps fresh lookups under 10 requests/second.
const defaultGeocodeInterval = 100 * time.Millisecond

// Importer turns uploaded route sheets into persisted routes with ordered,
// geocoded stops.
type Importer struct {
	Geocoder Geocoder
	// Minimum spacing between fresh (non-cached) geocode calls
	GeocodeInterval time.Duration
}

func NewImporter(geocoder Geocoder) *Importer {
	return &Importer{Geocoder: geocoder, GeocodeInterval: defaultGeocodeInterval}
}

// ImportCSV parses and imports a whole route sheet.
//
// Validation is all-or-nothing across the file: any row missing a required
// field rejects the entire import with zero routes created. Once validation
// passes, each route group is persisted independently; a failure in one group
// is collected as an error and the remaining groups still import.
func (imp *Importer) ImportCSV(ctx context.Context, db *gorm.DB, csvContent string) ImportResult {
	batchID := uuid.NewString()
	result := ImportResult{BatchID: batchID, Routes: []models.Route{}, Errors: []RowError{}}

	rows, err := parseImportRows(csvContent)
	if err != nil {
		result.Errors = append(result.Errors, RowError{Row: 0, Field: "file", Message: "Failed to parse CSV: " + err.Error()})
		return result
	}
	if len(rows) == 0 {
		result.Errors = append(result.Errors, RowError{Row: 0, Field: "file", Message: "CSV file is empty"})
		return result
	}

	// Required-field validation over every row before anything is written.
	// Row numbers are 1-based and account for the header line.
	for i, row := range rows {
		rowNum := i + 2
		if row.RouteName == "" {
			result.Errors = append(result.Errors, RowError{Row: rowNum, Field: "route_name", Message: "Route name is required"})
		}
		if row.DriverName == "" {
			result.Errors = append(result.Errors, RowError{Row: rowNum, Field: "driver_name", Message: "Driver name is required"})
		}
		if row.DriverEmail == "" {
			result.Errors = append(result.Errors, RowError{Row: rowNum, Field: "driver_email", Message: "Driver email is required"})
		}
		if row.StreetAddress == "" {
			result.Errors = append(result.Errors, RowError{Row: rowNum, Field: "street_address", Message: "Street address is required"})
		}
	}
	if len(result.Errors) > 0 {
		return result
	}

	// Group rows by route name, preserving first-appearance order.
	groups := map[string][]importRow{}
	var order []string
	for _, row := range rows {
		if _, seen := groups[row.RouteName]; !seen {
			order = append(order, row.RouteName)
		}
		groups[row.RouteName] = append(groups[row.RouteName], row)
	}

	interval := imp.GeocodeInterval
	if interval <= 0 {
		interval = defaultGeocodeInterval
	}
	limiter := rate.NewLimiter(rate.Every(interval), 1)

	log := logrus.WithField("batch_id", batchID)
	log.WithFields(logrus.Fields{"rows": len(rows), "routes": len(order)}).Info("ImportCSV: starting import")

	for _, routeName := range order {
		route, err := imp.importGroup(ctx, db, limiter, routeName, groups[routeName])
		if err != nil {
			log.WithError(err).WithField("route", routeName).Error("ImportCSV: route group failed")
			result.Errors = append(result.Errors, RowError{
				Row:     0,
				Field:   "route",
				Message: fmt.Sprintf("Failed to import route %s: %v", routeName, err),
			})
			continue
		}
		result.Routes = append(result.Routes, *route)
		result.Imported++
	}

	result.Success = len(result.Errors) == 0
	return result
}

// importGroup persists one route group: resolve the driver, geocode each stop
// cache-first, then create the route and its stops in a single transaction.
func (imp *Importer) importGroup(ctx context.Context, db *gorm.DB, limiter *rate.Limiter, routeName string, rows []importRow) (*models.Route, error) {
	// All rows of a group share one driver, taken from the first row.
	// Inconsistent driver fields within the group are not cross-validated.
	driver, err := upsertDriver(db, rows[0].DriverEmail, rows[0].DriverName)
	if err != nil {
		return nil, fmt.Errorf("resolving driver: %w", err)
	}

	addresses := make([]models.Address, 0, len(rows))
	for i, row := range rows {
		coords, cached := lookupCachedCoordinates(db, row)
		if !cached {
			// Rate-limit discipline applies only to fresh lookups
			if err := limiter.Wait(ctx); err != nil {
				return nil, err
			}
			coords, err = imp.Geocoder.Geocode(ctx, row.StreetAddress, row.City, row.State, row.ZipCode)
			if err != nil {
				// Geocoders fail soft; treat a hard error the same way
				logrus.WithError(err).WithField("street", row.StreetAddress).Warn("importGroup: geocode error")
				coords = nil
			}
		}

		seq, err := strconv.Atoi(row.SequenceOrder)
		if err != nil || seq <= 0 {
			seq = i + 1
		}

		addr := models.Address{
			SequenceOrder:       seq,
			StreetAddress:       row.StreetAddress,
			City:                row.City,
			State:               row.State,
			ZipCode:             row.ZipCode,
			SpecialInstructions: row.SpecialInstructions,
			Status:              models.AddressStatusPending,
		}
		if coords != nil {
			addr.Latitude = &coords.Latitude
			addr.Longitude = &coords.Longitude
		}
		addresses = append(addresses, addr)
	}

	route := models.Route{
		Name:     routeName,
		Date:     time.Now(),
		Status:   models.RouteStatusPending,
		DriverID: &driver.ID,
	}
	if geomBytes, err := BuildRouteGeometry(addresses); err == nil {
		route.Geometry = geomBytes
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&route).Error; err != nil {
			return err
		}
		for i := range addresses {
			addresses[i].RouteID = route.ID
		}
		return tx.Create(&addresses).Error
	})
	if err != nil {
		return nil, err
	}

	route.Addresses = addresses
	return &route, nil
}

// upsertDriver resolves a driver account by email, creating one if absent.
// An existing driver's name is never overwritten on match.
func upsertDriver(db *gorm.DB, email, name string) (*models.User, error) {
	var driver models.User
	err := db.Where("email = ?", email).
		Attrs(models.User{Name: name, Role: "driver", Active: true}).
		FirstOrCreate(&driver).Error
	if err != nil {
		return nil, err
	}
	return &driver, nil
}

// lookupCachedCoordinates reuses coordinates from any existing address row
// with an exact street/city/state/zip match that has already been geocoded.
func lookupCachedCoordinates(db *gorm.DB, row importRow) (*Coordinates, bool) {
	var existing models.Address
	err := db.Where(
		"street_address = ? AND city = ? AND state = ? AND zip_code = ? AND latitude IS NOT NULL AND longitude IS NOT NULL",
		row.StreetAddress, row.City, row.State, row.ZipCode,
	).First(&existing).Error
	if err != nil || existing.Latitude == nil || existing.Longitude == nil {
		return nil, false
	}
	return &Coordinates{Latitude: *existing.Latitude, Longitude: *existing.Longitude}, true
}

// parseImportRows reads the CSV text into rows keyed by the header line.
// Fields are trimmed; fully empty lines are dropped.
func parseImportRows(csvContent string) ([]importRow, error) {
	reader := csv.NewReader(strings.NewReader(csvContent))
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	header := records[0]
	index := map[string]int{}
	for i, col := range header {
		index[strings.ToLower(strings.TrimSpace(col))] = i
	}

	field := func(record []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var rows []importRow
	for _, record := range records[1:] {
		empty := true
		for _, v := range record {
			if strings.TrimSpace(v) != "" {
				empty = false
				break
			}
		}
		if empty {
			continue
		}

		rows = append(rows, importRow{
			RouteName:           field(record, "route_name"),
			DriverName:          field(record, "driver_name"),
			DriverEmail:         field(record, "driver_email"),
			SequenceOrder:       field(record, "sequence_order"),
			StreetAddress:       field(record, "street_address"),
			City:                field(record, "city"),
			State:               field(record, "state"),
			ZipCode:             field(record, "zip_code"),
			SpecialInstructions: field(record, "special_instructions"),
		})
	}
	return rows, nil
}

// ValidateCSV dry-runs the stricter upload checks without touching the
// database, for pre-import feedback in the upload UI.
func ValidateCSV(csvContent string) []RowError {
	var errs []RowError

	rows, err := parseImportRows(csvContent)
	if err != nil {
		return append(errs, RowError{Row: 0, Field: "file", Message: "Failed to parse CSV: " + err.Error()})
	}

	for i, row := range rows {
		rowNum := i + 2
		if row.RouteName == "" {
			errs = append(errs, RowError{Row: rowNum, Field: "route_name", Message: "Required field missing"})
		}
		if row.DriverName == "" {
			errs = append(errs, RowError{Row: rowNum, Field: "driver_name", Message: "Required field missing"})
		}
		if row.DriverEmail == "" {
			errs = append(errs, RowError{Row: rowNum, Field: "driver_email", Message: "Required field missing"})
		} else if !emailPattern.MatchString(row.DriverEmail) {
			errs = append(errs, RowError{Row: rowNum, Field: "driver_email", Message: "Invalid email format"})
		}
		if row.SequenceOrder == "" {
			errs = append(errs, RowError{Row: rowNum, Field: "sequence_order", Message: "Required field missing"})
		} else if _, err := strconv.Atoi(row.SequenceOrder); err != nil {
			errs = append(errs, RowError{Row: rowNum, Field: "sequence_order", Message: "Must be a number"})
		}
		if row.StreetAddress == "" {
			errs = append(errs, RowError{Row: rowNum, Field: "street_address", Message: "Required field missing"})
		}
		if row.City == "" {
			errs = append(errs, RowError{Row: rowNum, Field: "city", Message: "Required field missing"})
		}
		if row.State == "" {
			errs = append(errs, RowError{Row: rowNum, Field: "state", Message: "Required field missing"})
		}
		if row.ZipCode == "" {
			errs = append(errs, RowError{Row: rowNum, Field: "zip_code", Message: "Required field missing"})
		}
	}
	return errs
}
