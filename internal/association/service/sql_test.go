package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	associationdomain "github.com/smallbiznis/affinity/internal/association/domain"
	catalogdomain "github.com/smallbiznis/affinity/internal/catalog/domain"
)

func TestAggregatePairs_ScansAggregatedTimestamp(t *testing.T) {
	db := newEngineTestDB(t)
	seedCatalog(t, db)

	older := testNow.AddDate(0, 0, -20)
	newer := testNow.AddDate(0, 0, -5)
	addOrder(t, db, 1, older, catalogdomain.OrderStatusDelivered, 1, 2)
	addOrder(t, db, 2, newer, catalogdomain.OrderStatusDelivered, 1, 2)

	rows, err := aggregatePairs(context.Background(), db, aggQuery{
		windowStart: testNow.AddDate(0, 0, -180),
		windowEnd:   testNow,
		now:         testNow,
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(1), rows[0].ProductAID)
	assert.Equal(t, int64(2), rows[0].ProductBID)
	assert.WithinDuration(t, newer, rows[0].LastOrderAt.Time, time.Second,
		"MAX(placed_at) must survive the scan on every dialect")
}

func TestRebuild_SinglePass_CeilingCountsExactDrop(t *testing.T) {
	db := newEngineTestDB(t)
	seedCatalog(t, db)
	svc := newEngineService(t, db)

	recent := testNow.AddDate(0, 0, -10)
	addOrder(t, db, 1, recent, catalogdomain.OrderStatusDelivered, 1, 2, 3)
	addOrder(t, db, 2, recent, catalogdomain.OrderStatusDelivered, 1, 2, 3)

	params := unweightedParams()
	params.MinSupport = 1
	params.MaxPairs = 1
	params.ForceStrategy = associationdomain.StrategySinglePass
	result, err := svc.Rebuild(context.Background(), params)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Stats.DroppedByCeiling,
		"every truncated pair is counted, not just the fetch overshoot")
	assert.Len(t, storedAssociations(t, db), 1)
}

func TestSQLTime_Scan(t *testing.T) {
	want := time.Date(2025, 6, 1, 12, 30, 45, 0, time.UTC)

	var fromNative sqlTime
	require.NoError(t, fromNative.Scan(want))
	assert.Equal(t, want, fromNative.Time)

	var fromText sqlTime
	require.NoError(t, fromText.Scan("2025-06-01 12:30:45+00:00"))
	assert.Equal(t, want, fromText.Time)

	var fromBytes sqlTime
	require.NoError(t, fromBytes.Scan([]byte("2025-06-01T12:30:45Z")))
	assert.Equal(t, want, fromBytes.Time)

	var fromNil sqlTime
	require.NoError(t, fromNil.Scan(nil))
	assert.True(t, fromNil.IsZero())

	var bogus sqlTime
	assert.Error(t, bogus.Scan(42))
}
