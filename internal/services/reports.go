package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"food_routes/internal/models"
)

// OverallStats are the admin dashboard totals. Completed-route figures come
// from the archive table specifically, so deleting or editing a live route
// never changes historical reporting.
type OverallStats struct {
	TotalDrivers        int64   `json:"total_drivers"`
	TotalAddresses      int64   `json:"total_addresses"`
	CompletedRoutes     int64   `json:"completed_routes"`
	TotalVolunteerHours float64 `json:"total_volunteer_hours"`
}

func ComputeOverallStats(db *gorm.DB) (*OverallStats, error) {
	var stats OverallStats

	if err := db.Model(&models.User{}).Where("role = ?", "driver").Count(&stats.TotalDrivers).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Address{}).Count(&stats.TotalAddresses).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.RouteArchive{}).Count(&stats.CompletedRoutes).Error; err != nil {
		return nil, err
	}

	var hours []float64
	if err := db.Model(&models.RouteArchive{}).Pluck("volunteer_hours", &hours).Error; err != nil {
		return nil, err
	}
	for _, h := range hours {
		stats.TotalVolunteerHours += h
	}
	return &stats, nil
}

// DriverReportRow is one driver with derived volunteer statistics.
type DriverReportRow struct {
	ID              uint    `json:"id"`
	Name            string  `json:"name"`
	Email           string  `json:"email"`
	Phone           string  `json:"phone"`
	RoutesCompleted int64   `json:"routes_completed"`
	TotalDeliveries int64   `json:"total_deliveries"`
	VolunteerHours  float64 `json:"volunteer_hours"`
}

func ComputeDriverReport(db *gorm.DB) ([]DriverReportRow, error) {
	var drivers []models.User
	if err := db.Where("role = ?", "driver").Order("name ASC").Find(&drivers).Error; err != nil {
		return nil, err
	}

	rows := make([]DriverReportRow, 0, len(drivers))
	for _, d := range drivers {
		row := DriverReportRow{ID: d.ID, Name: d.Name, Email: d.Email, Phone: d.Phone}
		if err := db.Model(&models.Route{}).
			Where("driver_id = ? AND status = ?", d.ID, models.RouteStatusCompleted).
			Count(&row.RoutesCompleted).Error; err != nil {
			return nil, err
		}
		if err := db.Model(&models.DeliveryLog{}).
			Where("driver_id = ?", d.ID).
			Count(&row.TotalDeliveries).Error; err != nil {
			return nil, err
		}
		row.VolunteerHours = float64(row.RoutesCompleted) * volunteerHoursPerRoute
		rows = append(rows, row)
	}
	return rows, nil
}

// AddressReportRow is one pickup location with delivery history figures.
type AddressReportRow struct {
	ID                  uint       `json:"id"`
	StreetAddress       string     `json:"street_address"`
	City                string     `json:"city"`
	State               string     `json:"state"`
	ZipCode             string     `json:"zip_code"`
	SpecialInstructions string     `json:"special_instructions"`
	TimesDelivered      int64      `json:"times_delivered"`
	LastDeliveryAt      *time.Time `json:"last_delivery_at"`
	LastFoodOutside     *bool      `json:"last_food_outside"`
}

func ComputeAddressReport(db *gorm.DB) ([]AddressReportRow, error) {
	var addresses []models.Address
	if err := db.Order("street_address ASC").Find(&addresses).Error; err != nil {
		return nil, err
	}

	rows := make([]AddressReportRow, 0, len(addresses))
	for _, addr := range addresses {
		row := AddressReportRow{
			ID:                  addr.ID,
			StreetAddress:       addr.StreetAddress,
			City:                addr.City,
			State:               addr.State,
			ZipCode:             addr.ZipCode,
			SpecialInstructions: addr.SpecialInstructions,
		}
		if err := db.Model(&models.DeliveryLog{}).
			Where("address_id = ?", addr.ID).
			Count(&row.TimesDelivered).Error; err != nil {
			return nil, err
		}

		var last models.DeliveryLog
		err := db.Where("address_id = ?", addr.ID).Order("completed_at DESC").First(&last).Error
		if err == nil {
			t := last.CompletedAt
			row.LastDeliveryAt = &t
			row.LastFoodOutside = last.FoodOutside
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// CompletedRouteRow is one archived route in the history listing.
type CompletedRouteRow struct {
	ID              uint      `json:"id"`
	OriginalRouteID uint      `json:"original_route_id"`
	Name            string    `json:"name"`
	Date            time.Time `json:"date"`
	DriverName      string    `json:"driver_name"`
	TotalStops      int       `json:"total_stops"`
	CompletedStops  int       `json:"completed_stops"`
	CompletionRate  float64   `json:"completion_rate"`
	VolunteerHours  float64   `json:"volunteer_hours"`
	ArchivedAt      time.Time `json:"archived_at"`
}

func ListCompletedRoutes(db *gorm.DB) ([]CompletedRouteRow, error) {
	var archives []models.RouteArchive
	if err := db.Order("route_date DESC").Find(&archives).Error; err != nil {
		return nil, err
	}

	rows := make([]CompletedRouteRow, 0, len(archives))
	for _, a := range archives {
		name := a.DriverName
		if name == "" {
			name = "Unassigned"
		}
		rows = append(rows, CompletedRouteRow{
			ID:              a.ID,
			OriginalRouteID: a.RouteID,
			Name:            a.RouteName,
			Date:            a.RouteDate,
			DriverName:      name,
			TotalStops:      a.TotalStops,
			CompletedStops:  a.CompletedStops,
			CompletionRate:  a.CompletionRate,
			VolunteerHours:  a.VolunteerHours,
			ArchivedAt:      a.CreatedAt,
		})
	}
	return rows, nil
}

// DriverSelfStats are the figures a driver sees on their own dashboard.
// Hours are a rough estimate: 15 minutes per stop plus an hour per route.
type DriverSelfStats struct {
	CompletedRoutes     int64  `json:"completed_routes"`
	TotalPickups        int64  `json:"total_pickups"`
	TotalVolunteerHours string `json:"total_volunteer_hours"`
}

func ComputeDriverSelfStats(db *gorm.DB, driverID uint) (*DriverSelfStats, error) {
	var stats DriverSelfStats

	if err := db.Model(&models.Route{}).
		Where("driver_id = ? AND status = ?", driverID, models.RouteStatusCompleted).
		Count(&stats.CompletedRoutes).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.DeliveryLog{}).
		Where("driver_id = ?", driverID).
		Count(&stats.TotalPickups).Error; err != nil {
		return nil, err
	}

	estimatedMinutes := stats.TotalPickups*15 + stats.CompletedRoutes*60
	stats.TotalVolunteerHours = fmt.Sprintf("%dh %dm", estimatedMinutes/60, estimatedMinutes%60)
	return &stats, nil
}

// csvField escapes one CSV value: fields containing commas, quotes or
// newlines are quote-wrapped with internal quotes doubled.
func csvField(value string) string {
	if strings.ContainsAny(value, ",\"\n") {
		return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
	}
	return value
}

func csvLine(fields ...string) string {
	escaped := make([]string, len(fields))
	for i, f := range fields {
		escaped[i] = csvField(f)
	}
	return strings.Join(escaped, ",")
}

func yesNo(b *bool) string {
	if b == nil {
		return ""
	}
	if *b {
		return "Yes"
	}
	return "No"
}

// ExportRouteCSV renders one live route as CSV: a metadata header, then one
// row per stop with its most recent delivery log.
func ExportRouteCSV(db *gorm.DB, routeID uint) (string, error) {
	var route models.Route
	err := db.Preload("Driver").
		Preload("Addresses", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("sequence_order ASC")
		}).
		First(&route, routeID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}

	driverName := "Unassigned"
	if route.Driver != nil {
		driverName = route.Driver.Name
	}

	lines := []string{
		"Route: " + route.Name,
		"Driver: " + driverName,
		"Date: " + route.Date.Format("2006-01-02"),
		"Status: " + route.Status,
		"",
		csvLine("Stop #", "Street Address", "City", "State", "Zip Code",
			"Special Instructions", "Status", "Food Outside", "Notes", "Completed At"),
	}

	for _, addr := range route.Addresses {
		var foodOutside, notes, completedAt string
		var log models.DeliveryLog
		err := db.Where("address_id = ?", addr.ID).Order("completed_at DESC").First(&log).Error
		if err == nil {
			foodOutside = yesNo(log.FoodOutside)
			notes = log.Notes
			completedAt = log.CompletedAt.Format("2006-01-02 15:04")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return "", err
		}

		lines = append(lines, csvLine(
			fmt.Sprintf("%d", addr.SequenceOrder),
			addr.StreetAddress,
			addr.City,
			addr.State,
			addr.ZipCode,
			addr.SpecialInstructions,
			addr.Status,
			foodOutside,
			notes,
			completedAt,
		))
	}

	return strings.Join(lines, "\n"), nil
}

// DailyReportCSV renders the cross-route report for one day from archive
// snapshots. Pure formatting: every figure comes from the stored snapshot.
func DailyReportCSV(db *gorm.DB, date time.Time) (string, error) {
	dateStr := date.Format("2006-01-02")
	startOfDay := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	endOfDay := startOfDay.Add(24*time.Hour - time.Nanosecond)

	var archives []models.RouteArchive
	err := db.Where("route_date BETWEEN ? AND ?", startOfDay, endOfDay).
		Order("route_name ASC").Find(&archives).Error
	if err != nil {
		return "", err
	}

	header := []string{
		"Daily Route Report - " + dateStr,
		"Generated: " + time.Now().Format("2006-01-02 15:04"),
		"",
	}

	if len(archives) == 0 {
		return strings.Join(append(header, "No completed routes found for this date."), "\n"), nil
	}

	lines := append(header, csvLine(
		"Route Name", "Driver", "Driver Email", "Stop #", "Street Address", "City",
		"State", "Zip", "Special Instructions", "Status", "Food Outside", "Notes",
		"Completed At", "GPS Latitude", "GPS Longitude"))

	for _, archive := range archives {
		var snapshot RouteSnapshot
		if err := json.Unmarshal(archive.RouteData, &snapshot); err != nil {
			logrus.WithError(err).WithField("archive_id", archive.ID).Error("DailyReportCSV: bad snapshot")
			continue
		}

		driverName := archive.DriverName
		if driverName == "" {
			driverName = "Unassigned"
		}

		for _, addr := range snapshot.Addresses {
			var foodOutside, notes, completedAt, gpsLat, gpsLng string
			if log := addr.DeliveryLog; log != nil {
				foodOutside = yesNo(log.FoodOutside)
				notes = log.Notes
				completedAt = log.CompletedAt.Format("2006-01-02 15:04")
				if log.GPSLatitude != nil {
					gpsLat = fmt.Sprintf("%f", *log.GPSLatitude)
				}
				if log.GPSLongitude != nil {
					gpsLng = fmt.Sprintf("%f", *log.GPSLongitude)
				}
			}

			lines = append(lines, csvLine(
				archive.RouteName,
				driverName,
				archive.DriverEmail,
				fmt.Sprintf("%d", addr.SequenceOrder),
				addr.StreetAddress,
				addr.City,
				addr.State,
				addr.ZipCode,
				addr.SpecialInstructions,
				addr.Status,
				foodOutside,
				notes,
				completedAt,
				gpsLat,
				gpsLng,
			))
		}
	}

	return strings.Join(lines, "\n"), nil
}

// ExportAllCSV renders the full-data export: drivers, pickup locations, and
// the archived route history as sections of one CSV document.
func ExportAllCSV(db *gorm.DB) (string, error) {
	drivers, err := ComputeDriverReport(db)
	if err != nil {
		return "", err
	}
	addresses, err := ComputeAddressReport(db)
	if err != nil {
		return "", err
	}
	var archives []models.RouteArchive
	if err := db.Order("route_date DESC").Find(&archives).Error; err != nil {
		return "", err
	}

	lines := []string{
		"Full Data Export",
		"Generated: " + time.Now().Format("2006-01-02 15:04"),
		"",
		"=== DRIVERS ===",
		csvLine("Name", "Email", "Phone", "Routes Completed", "Volunteer Hours (Estimated)"),
	}
	for _, d := range drivers {
		lines = append(lines, csvLine(
			d.Name, d.Email, d.Phone,
			fmt.Sprintf("%d", d.RoutesCompleted),
			fmt.Sprintf("%g", d.VolunteerHours),
		))
	}

	lines = append(lines, "",
		"=== PLACES (PICKUP LOCATIONS) ===",
		csvLine("Street Address", "City", "State", "Zip", "Special Instructions",
			"Times Delivered", "Last Delivery Date", "Last Food Outside Response"))
	for _, a := range addresses {
		var lastDate string
		if a.LastDeliveryAt != nil {
			lastDate = a.LastDeliveryAt.Format("2006-01-02")
		}
		lines = append(lines, csvLine(
			a.StreetAddress, a.City, a.State, a.ZipCode, a.SpecialInstructions,
			fmt.Sprintf("%d", a.TimesDelivered),
			lastDate,
			yesNo(a.LastFoodOutside),
		))
	}

	lines = append(lines, "",
		"=== COMPLETED ROUTES (HISTORICAL ARCHIVE) ===",
		csvLine("Route Name", "Date", "Driver", "Total Stops", "Completed Stops",
			"Completion %", "Volunteer Hours", "Archived Date"))
	for _, archive := range archives {
		driverName := archive.DriverName
		if driverName == "" {
			driverName = "Unassigned"
		}
		lines = append(lines, csvLine(
			archive.RouteName,
			archive.RouteDate.Format("2006-01-02"),
			driverName,
			fmt.Sprintf("%d", archive.TotalStops),
			fmt.Sprintf("%d", archive.CompletedStops),
			fmt.Sprintf("%d%%", int(math.Round(archive.CompletionRate))),
			fmt.Sprintf("%g", archive.VolunteerHours),
			archive.CreatedAt.Format("2006-01-02"),
		))
	}

	return strings.Join(lines, "\n"), nil
}
