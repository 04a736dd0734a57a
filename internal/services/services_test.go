package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"food_routes/internal/models"
)

// setupTestDB opens an isolated in-memory database migrated to the full
// schema. Each test gets its own named memory DB so parallel tests do not
// share state.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Route{},
		&models.Address{},
		&models.DeliveryLog{},
		&models.RouteArchive{},
	)
	require.NoError(t, err)

	return db
}

// seedDriver creates a driver account.
func seedDriver(t *testing.T, db *gorm.DB, name, email string) *models.User {
	t.Helper()
	driver := &models.User{Name: name, Email: email, Role: "driver", Active: true}
	require.NoError(t, db.Create(driver).Error)
	return driver
}

// seedRoute creates a pending route with n pending stops for a driver.
func seedRoute(t *testing.T, db *gorm.DB, driver *models.User, name string, n int) *models.Route {
	t.Helper()

	route := &models.Route{
		Name:     name,
		Date:     time.Now(),
		Status:   models.RouteStatusPending,
		DriverID: &driver.ID,
	}
	require.NoError(t, db.Create(route).Error)

	for i := 1; i <= n; i++ {
		addr := models.Address{
			RouteID:       route.ID,
			SequenceOrder: i,
			StreetAddress: fmt.Sprintf("%d Main St", i),
			City:          "Washington",
			State:         "DC",
			ZipCode:       "20001",
			Status:        models.AddressStatusPending,
		}
		require.NoError(t, db.Create(&addr).Error)
	}
	return route
}

// fakeGeocoder records calls per address and serves canned coordinates.
type fakeGeocoder struct {
	calls   map[string]int
	results map[string]*Coordinates
	fail    bool
}

func newFakeGeocoder() *fakeGeocoder {
	return &fakeGeocoder{
		calls:   map[string]int{},
		results: map[string]*Coordinates{},
	}
}

func (f *fakeGeocoder) Geocode(_ context.Context, street, city, state, zip string) (*Coordinates, error) {
	key := street + "|" + city + "|" + state + "|" + zip
	f.calls[key]++
	if f.fail {
		return nil, nil
	}
	if coords, ok := f.results[key]; ok {
		return coords, nil
	}
	return &Coordinates{Latitude: 38.9, Longitude: -77.0}, nil
}

func (f *fakeGeocoder) totalCalls() int {
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

// newTestImporter wires a fake geocoder with no inter-request delay.
func newTestImporter(geocoder Geocoder) *Importer {
	return &Importer{Geocoder: geocoder, GeocodeInterval: time.Microsecond}
}
