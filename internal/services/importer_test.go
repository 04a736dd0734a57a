package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"food_routes/internal/models"
)

const validCSV = `route_name,driver_name,driver_email,sequence_order,street_address,city,state,zip_code,special_instructions
Route A,Jane Doe,jane@example.org,1,100 Main St,Washington,DC,20001,
Route A,Jane Doe,jane@example.org,2,200 Oak Ave,Washington,DC,20002,Ring bell
Route B,Bob Smith,bob@example.org,1,300 Pine Rd,Arlington,VA,22201,
`

func TestImportCSV(t *testing.T) {
	t.Run("imports grouped routes with ordered stops", func(t *testing.T) {
		db := setupTestDB(t)
		imp := newTestImporter(newFakeGeocoder())

		result := imp.ImportCSV(context.Background(), db, validCSV)

		assert.True(t, result.Success)
		assert.Equal(t, 2, result.Imported)
		assert.Empty(t, result.Errors)
		assert.NotEmpty(t, result.BatchID)
		require.Len(t, result.Routes, 2)

		assert.Equal(t, "Route A", result.Routes[0].Name)
		assert.Equal(t, "Route B", result.Routes[1].Name)
		assert.Equal(t, models.RouteStatusPending, result.Routes[0].Status)

		require.Len(t, result.Routes[0].Addresses, 2)
		assert.Equal(t, 1, result.Routes[0].Addresses[0].SequenceOrder)
		assert.Equal(t, 2, result.Routes[0].Addresses[1].SequenceOrder)
		assert.Equal(t, "Ring bell", result.Routes[0].Addresses[1].SpecialInstructions)
		assert.Equal(t, models.AddressStatusPending, result.Routes[0].Addresses[0].Status)

		// Every stop got geocoded
		assert.NotNil(t, result.Routes[0].Addresses[0].Latitude)
		assert.NotNil(t, result.Routes[0].Addresses[0].Longitude)

		// Drivers were auto-provisioned
		var jane models.User
		require.NoError(t, db.Where("email = ?", "jane@example.org").First(&jane).Error)
		assert.Equal(t, "Jane Doe", jane.Name)
		assert.Equal(t, "driver", jane.Role)
		assert.True(t, jane.Active)
		require.NotNil(t, result.Routes[0].DriverID)
		assert.Equal(t, jane.ID, *result.Routes[0].DriverID)
	})

	t.Run("rejects whole file when any row is invalid", func(t *testing.T) {
		db := setupTestDB(t)
		imp := newTestImporter(newFakeGeocoder())

		csv := `route_name,driver_name,driver_email,sequence_order,street_address,city,state,zip_code
Route A,Jane Doe,jane@example.org,1,100 Main St,Washington,DC,20001
Route A,Jane Doe,jane@example.org,2,,Washington,DC,20002
Route B,,bob@example.org,1,300 Pine Rd,Arlington,VA,22201
`
		result := imp.ImportCSV(context.Background(), db, csv)

		assert.False(t, result.Success)
		assert.Equal(t, 0, result.Imported)
		assert.Empty(t, result.Routes)
		require.Len(t, result.Errors, 2)
		assert.Equal(t, 3, result.Errors[0].Row)
		assert.Equal(t, "street_address", result.Errors[0].Field)
		assert.Equal(t, 4, result.Errors[1].Row)
		assert.Equal(t, "driver_name", result.Errors[1].Field)

		// Nothing was committed
		var count int64
		db.Model(&models.Route{}).Count(&count)
		assert.Zero(t, count)
		db.Model(&models.User{}).Count(&count)
		assert.Zero(t, count)
	})

	t.Run("rejects an empty file", func(t *testing.T) {
		db := setupTestDB(t)
		imp := newTestImporter(newFakeGeocoder())

		result := imp.ImportCSV(context.Background(), db, "route_name,driver_name,driver_email,street_address\n")

		assert.False(t, result.Success)
		assert.Zero(t, result.Imported)
		require.Len(t, result.Errors, 1)
		assert.Equal(t, "file", result.Errors[0].Field)
	})

	t.Run("reuses cached coordinates for identical addresses", func(t *testing.T) {
		db := setupTestDB(t)
		geocoder := newFakeGeocoder()
		imp := newTestImporter(geocoder)

		csv := `route_name,driver_name,driver_email,sequence_order,street_address,city,state,zip_code
Route A,Jane Doe,jane@example.org,1,100 Main St,Washington,DC,20001
Route B,Bob Smith,bob@example.org,1,100 Main St,Washington,DC,20001
`
		result := imp.ImportCSV(context.Background(), db, csv)

		assert.True(t, result.Success)
		assert.Equal(t, 2, result.Imported)
		// Second occurrence hits the cache; the external service is called once
		assert.Equal(t, 1, geocoder.totalCalls())

		var addresses []models.Address
		require.NoError(t, db.Find(&addresses).Error)
		require.Len(t, addresses, 2)
		require.NotNil(t, addresses[1].Latitude)
		assert.Equal(t, *addresses[0].Latitude, *addresses[1].Latitude)
	})

	t.Run("failed geocode degrades to an ungeocoded stop", func(t *testing.T) {
		db := setupTestDB(t)
		geocoder := newFakeGeocoder()
		geocoder.fail = true
		imp := newTestImporter(geocoder)

		result := imp.ImportCSV(context.Background(), db, validCSV)

		assert.True(t, result.Success)
		assert.Equal(t, 2, result.Imported)

		var addresses []models.Address
		require.NoError(t, db.Find(&addresses).Error)
		for _, addr := range addresses {
			assert.Nil(t, addr.Latitude)
			assert.Nil(t, addr.Longitude)
		}
	})

	t.Run("falls back to row index for non-numeric sequence", func(t *testing.T) {
		db := setupTestDB(t)
		imp := newTestImporter(newFakeGeocoder())

		csv := `route_name,driver_name,driver_email,sequence_order,street_address,city,state,zip_code
Route A,Jane Doe,jane@example.org,first,100 Main St,Washington,DC,20001
Route A,Jane Doe,jane@example.org,,200 Oak Ave,Washington,DC,20002
`
		result := imp.ImportCSV(context.Background(), db, csv)

		assert.True(t, result.Success)
		require.Len(t, result.Routes, 1)
		require.Len(t, result.Routes[0].Addresses, 2)
		assert.Equal(t, 1, result.Routes[0].Addresses[0].SequenceOrder)
		assert.Equal(t, 2, result.Routes[0].Addresses[1].SequenceOrder)
	})

	t.Run("never overwrites an existing driver's name", func(t *testing.T) {
		db := setupTestDB(t)
		seedDriver(t, db, "Jane Original", "jane@example.org")
		imp := newTestImporter(newFakeGeocoder())

		result := imp.ImportCSV(context.Background(), db, validCSV)
		assert.True(t, result.Success)

		var jane models.User
		require.NoError(t, db.Where("email = ?", "jane@example.org").First(&jane).Error)
		assert.Equal(t, "Jane Original", jane.Name)

		var count int64
		db.Model(&models.User{}).Where("email = ?", "jane@example.org").Count(&count)
		assert.EqualValues(t, 1, count)
	})

	t.Run("handles quoted fields with embedded commas", func(t *testing.T) {
		db := setupTestDB(t)
		imp := newTestImporter(newFakeGeocoder())

		csv := `route_name,driver_name,driver_email,sequence_order,street_address,city,state,zip_code,special_instructions
Route A,Jane Doe,jane@example.org,1,"100 Main St, Apt 4",Washington,DC,20001,"Gate code: 1234, knock twice"
`
		result := imp.ImportCSV(context.Background(), db, csv)

		assert.True(t, result.Success)
		require.Len(t, result.Routes, 1)
		require.Len(t, result.Routes[0].Addresses, 1)
		assert.Equal(t, "100 Main St, Apt 4", result.Routes[0].Addresses[0].StreetAddress)
		assert.Equal(t, "Gate code: 1234, knock twice", result.Routes[0].Addresses[0].SpecialInstructions)
	})
}

func TestValidateCSV(t *testing.T) {
	t.Run("accepts a fully valid file", func(t *testing.T) {
		errs := ValidateCSV(validCSV)
		assert.Empty(t, errs)
	})

	t.Run("flags missing and malformed fields per row", func(t *testing.T) {
		csv := `route_name,driver_name,driver_email,sequence_order,street_address,city,state,zip_code
Route A,Jane Doe,not-an-email,abc,100 Main St,,DC,20001
`
		errs := ValidateCSV(csv)
		require.Len(t, errs, 3)

		fields := map[string]string{}
		for _, e := range errs {
			assert.Equal(t, 2, e.Row)
			fields[e.Field] = e.Message
		}
		assert.Equal(t, "Invalid email format", fields["driver_email"])
		assert.Equal(t, "Must be a number", fields["sequence_order"])
		assert.Equal(t, "Required field missing", fields["city"])
	})
}
