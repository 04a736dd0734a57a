package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"food_routes/internal/models"
)

func TestReorderStops(t *testing.T) {
	t.Run("rewrites sequence as a dense range in submitted order", func(t *testing.T) {
		db := setupTestDB(t)
		driver := seedDriver(t, db, "Jane Doe", "jane@example.org")
		route := seedRoute(t, db, driver, "Route A", 3)

		var stops []models.Address
		require.NoError(t, db.Where("route_id = ?", route.ID).Order("sequence_order ASC").Find(&stops).Error)

		// Reverse the route
		reordered, err := ReorderStops(db, route.ID, []uint{stops[2].ID, stops[1].ID, stops[0].ID})
		require.NoError(t, err)

		require.Len(t, reordered, 3)
		assert.Equal(t, stops[2].ID, reordered[0].ID)
		assert.Equal(t, stops[1].ID, reordered[1].ID)
		assert.Equal(t, stops[0].ID, reordered[2].ID)
		for i, stop := range reordered {
			assert.Equal(t, i+1, stop.SequenceOrder)
		}
	})

	t.Run("rejects ids from another route", func(t *testing.T) {
		db := setupTestDB(t)
		driver := seedDriver(t, db, "Jane Doe", "jane@example.org")
		routeA := seedRoute(t, db, driver, "Route A", 2)
		routeB := seedRoute(t, db, driver, "Route B", 1)

		var aStops []models.Address
		require.NoError(t, db.Where("route_id = ?", routeA.ID).Order("sequence_order ASC").Find(&aStops).Error)
		var bStop models.Address
		require.NoError(t, db.Where("route_id = ?", routeB.ID).First(&bStop).Error)

		_, err := ReorderStops(db, routeA.ID, []uint{aStops[0].ID, bStop.ID})
		assert.ErrorIs(t, err, ErrInvalidInput)

		// Original order untouched
		var reloaded []models.Address
		require.NoError(t, db.Where("route_id = ?", routeA.ID).Order("sequence_order ASC").Find(&reloaded).Error)
		assert.Equal(t, aStops[0].ID, reloaded[0].ID)
		assert.Equal(t, 1, reloaded[0].SequenceOrder)
	})

	t.Run("rejects a partial stop list", func(t *testing.T) {
		db := setupTestDB(t)
		driver := seedDriver(t, db, "Jane Doe", "jane@example.org")
		route := seedRoute(t, db, driver, "Route A", 3)

		var stops []models.Address
		require.NoError(t, db.Where("route_id = ?", route.ID).Order("sequence_order ASC").Find(&stops).Error)

		_, err := ReorderStops(db, route.ID, []uint{stops[1].ID, stops[0].ID})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("rejects an empty list", func(t *testing.T) {
		db := setupTestDB(t)
		_, err := ReorderStops(db, 1, nil)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("unknown route is not found", func(t *testing.T) {
		db := setupTestDB(t)
		_, err := ReorderStops(db, 9999, []uint{1})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestDeleteRoute(t *testing.T) {
	t.Run("cascades logs and stops", func(t *testing.T) {
		db := setupTestDB(t)
		driver := seedDriver(t, db, "Jane Doe", "jane@example.org")
		route := seedRoute(t, db, driver, "Route A", 2)

		var first models.Address
		require.NoError(t, db.Where("route_id = ?", route.ID).Order("sequence_order ASC").First(&first).Error)
		_, err := CompleteStop(db, first.ID, driver.ID, CompletionInput{})
		require.NoError(t, err)

		require.NoError(t, DeleteRoute(db, route.ID))

		var count int64
		db.Model(&models.Route{}).Where("id = ?", route.ID).Count(&count)
		assert.Zero(t, count)
		db.Model(&models.Address{}).Where("route_id = ?", route.ID).Count(&count)
		assert.Zero(t, count)
		db.Model(&models.DeliveryLog{}).Where("address_id = ?", first.ID).Count(&count)
		assert.Zero(t, count)
	})

	t.Run("unknown route is not found", func(t *testing.T) {
		db := setupTestDB(t)
		assert.ErrorIs(t, DeleteRoute(db, 9999), ErrNotFound)
	})
}

func TestActiveRouteForDriver(t *testing.T) {
	db := setupTestDB(t)
	driver := seedDriver(t, db, "Jane Doe", "jane@example.org")

	_, err := ActiveRouteForDriver(db, driver.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	route := seedRoute(t, db, driver, "Route A", 2)

	active, err := ActiveRouteForDriver(db, driver.ID)
	require.NoError(t, err)
	assert.Equal(t, route.ID, active.ID)
	require.Len(t, active.Addresses, 2)
	assert.Equal(t, 1, active.Addresses[0].SequenceOrder)

	// A completed route is no longer served
	require.NoError(t, db.Model(&models.Route{}).Where("id = ?", route.ID).
		Update("status", models.RouteStatusCompleted).Error)
	_, err = ActiveRouteForDriver(db, driver.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNextPendingStop(t *testing.T) {
	stops := []models.Address{
		{SequenceOrder: 1, Status: models.AddressStatusCompleted},
		{SequenceOrder: 2, Status: models.AddressStatusSkipped},
		{SequenceOrder: 3, Status: models.AddressStatusPending},
	}
	next := NextPendingStop(stops)
	require.NotNil(t, next)
	assert.Equal(t, 3, next.SequenceOrder)

	assert.Nil(t, NextPendingStop(stops[:2]))
}

func TestComputeProgress(t *testing.T) {
	stats := ComputeProgress([]models.Address{
		{Status: models.AddressStatusCompleted},
		{Status: models.AddressStatusSkipped},
		{Status: models.AddressStatusPending},
	})
	assert.Equal(t, 3, stats.TotalStops)
	assert.Equal(t, 1, stats.CompletedStops)
	assert.Equal(t, 33, stats.PercentComplete)

	assert.Zero(t, ComputeProgress(nil).PercentComplete)
}
