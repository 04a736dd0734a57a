package services

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"food_routes/internal/models"
)

func TestArchiveRoute(t *testing.T) {
	t.Run("snapshots the route with driver and per-stop logs", func(t *testing.T) {
		db := setupTestDB(t)
		driver := seedDriver(t, db, "Jane Doe", "jane@example.org")
		driver.Phone = "555-0101"
		require.NoError(t, db.Save(driver).Error)
		route := seedRoute(t, db, driver, "Route A", 2)

		var addresses []models.Address
		require.NoError(t, db.Where("route_id = ?", route.ID).Order("sequence_order ASC").Find(&addresses).Error)
		_, err := CompleteStop(db, addresses[0].ID, driver.ID, CompletionInput{Notes: "delivered"})
		require.NoError(t, err)
		_, err = CompleteStop(db, addresses[1].ID, driver.ID, CompletionInput{Skip: true})
		require.NoError(t, err)

		// Completing the last stop archived the route
		var archive models.RouteArchive
		require.NoError(t, db.Where("route_id = ?", route.ID).First(&archive).Error)

		assert.Equal(t, "Route A", archive.RouteName)
		assert.Equal(t, "Jane Doe", archive.DriverName)
		assert.Equal(t, "jane@example.org", archive.DriverEmail)
		assert.Equal(t, "555-0101", archive.DriverPhone)
		assert.Equal(t, 2, archive.TotalStops)
		assert.Equal(t, 1, archive.CompletedStops)
		assert.Equal(t, 1, archive.SkippedStops)
		assert.InDelta(t, 50.0, archive.CompletionRate, 0.001)
		assert.InDelta(t, 2.0, archive.VolunteerHours, 0.001)

		var snapshot RouteSnapshot
		require.NoError(t, json.Unmarshal(archive.RouteData, &snapshot))
		assert.Equal(t, 1, snapshot.SchemaVersion)
		assert.Equal(t, route.ID, snapshot.Route.ID)
		require.NotNil(t, snapshot.Driver)
		assert.Equal(t, "Jane Doe", snapshot.Driver.Name)
		require.Len(t, snapshot.Addresses, 2)
		require.NotNil(t, snapshot.Addresses[0].DeliveryLog)
		assert.Equal(t, "delivered", snapshot.Addresses[0].DeliveryLog.Notes)
		assert.Nil(t, snapshot.Addresses[1].DeliveryLog)
		assert.False(t, snapshot.ArchivedAt.IsZero())
	})

	t.Run("is idempotent for an already archived route", func(t *testing.T) {
		db := setupTestDB(t)
		driver := seedDriver(t, db, "Jane Doe", "jane@example.org")
		route := seedRoute(t, db, driver, "Route A", 1)

		firstID, err := ArchiveRoute(db, route.ID)
		require.NoError(t, err)
		secondID, err := ArchiveRoute(db, route.ID)
		require.NoError(t, err)
		assert.Equal(t, firstID, secondID)

		var count int64
		db.Model(&models.RouteArchive{}).Where("route_id = ?", route.ID).Count(&count)
		assert.EqualValues(t, 1, count)
	})

	t.Run("archives a route with no stops at zero completion", func(t *testing.T) {
		db := setupTestDB(t)
		driver := seedDriver(t, db, "Jane Doe", "jane@example.org")
		route := seedRoute(t, db, driver, "Empty Route", 0)

		archiveID, err := ArchiveRoute(db, route.ID)
		require.NoError(t, err)

		var archive models.RouteArchive
		require.NoError(t, db.First(&archive, archiveID).Error)
		assert.Zero(t, archive.TotalStops)
		assert.Zero(t, archive.CompletionRate)
	})

	t.Run("unknown route is not found", func(t *testing.T) {
		db := setupTestDB(t)
		_, err := ArchiveRoute(db, 9999)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("archive outlives route deletion", func(t *testing.T) {
		db := setupTestDB(t)
		driver := seedDriver(t, db, "Jane Doe", "jane@example.org")
		route := seedRoute(t, db, driver, "Route A", 1)

		archiveID, err := ArchiveRoute(db, route.ID)
		require.NoError(t, err)

		require.NoError(t, DeleteRoute(db, route.ID))

		var archive models.RouteArchive
		require.NoError(t, db.First(&archive, archiveID).Error)
		assert.Equal(t, route.ID, archive.RouteID)
	})
}
