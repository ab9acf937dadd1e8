package repository

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	catalogdomain "github.com/smallbiznis/affinity/internal/catalog/domain"
)

var catalogNow = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func newCatalogTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_loc=auto", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&catalogdomain.Category{},
		&catalogdomain.Product{},
		&catalogdomain.Order{},
		&catalogdomain.OrderItem{},
	))
	return db
}

func strPtr(s string) *string { return &s }

func TestActiveProductMeta(t *testing.T) {
	db := newCatalogTestDB(t)
	repo := Provide(db)

	parent := int64(1)
	require.NoError(t, db.Create([]catalogdomain.Category{
		{ID: 1, Name: "Electronics"},
		{ID: 2, ParentID: &parent, Name: "Phones"},
	}).Error)
	require.NoError(t, db.Create([]catalogdomain.Product{
		{ID: 1, Name: "Phone", Brand: strPtr("Acme"), CategoryID: 2, Active: true},
		{ID: 2, Name: "TV", CategoryID: 1, Active: true},
		{ID: 3, Name: "Retired", CategoryID: 2, Active: false},
	}).Error)

	meta, err := repo.ActiveProductMeta(context.Background())
	require.NoError(t, err)
	require.Len(t, meta, 2)

	// A leaf category resolves to its parent's name.
	assert.Equal(t, "Electronics", meta[1].RootCategory)
	assert.Equal(t, "Phones", meta[1].CategoryName)
	require.NotNil(t, meta[1].Brand)
	assert.Equal(t, "Acme", *meta[1].Brand)

	// A root category resolves to itself.
	assert.Equal(t, "Electronics", meta[2].RootCategory)
	assert.Nil(t, meta[2].Brand)

	_, ok := meta[3]
	assert.False(t, ok, "inactive products are invisible to the engine")
}

func TestProductInactiveRoundTrip(t *testing.T) {
	db := newCatalogTestDB(t)

	require.NoError(t, db.Create([]catalogdomain.Category{{ID: 1, Name: "Electronics"}}).Error)
	require.NoError(t, db.Create(&catalogdomain.Product{
		ID: 1, Name: "Retired", CategoryID: 1, Active: false,
	}).Error)

	var got catalogdomain.Product
	require.NoError(t, db.First(&got, 1).Error)
	assert.False(t, got.Active, "a zero-valued Active must not be rewritten on insert")
}

func TestCountLineItems(t *testing.T) {
	db := newCatalogTestDB(t)
	repo := Provide(db)

	inWindow := catalogNow.AddDate(0, 0, -10)
	outOfWindow := catalogNow.AddDate(0, 0, -400)
	require.NoError(t, db.Create([]catalogdomain.Order{
		{ID: 1, PlacedAt: inWindow, Status: catalogdomain.OrderStatusDelivered},
		{ID: 2, PlacedAt: inWindow, Status: catalogdomain.OrderStatusCancelled},
		{ID: 3, PlacedAt: outOfWindow, Status: catalogdomain.OrderStatusDelivered},
	}).Error)
	require.NoError(t, db.Create([]catalogdomain.OrderItem{
		{ID: 1, OrderID: 1, ProductID: 1, Quantity: 1},
		{ID: 2, OrderID: 1, ProductID: 2, Quantity: 1},
		{ID: 3, OrderID: 2, ProductID: 1, Quantity: 1},
		{ID: 4, OrderID: 3, ProductID: 1, Quantity: 1},
	}).Error)

	count, err := repo.CountLineItems(context.Background(), catalogNow.AddDate(0, 0, -365), catalogNow)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestOrderBounds(t *testing.T) {
	db := newCatalogTestDB(t)
	repo := Provide(db)

	inWindow := catalogNow.AddDate(0, 0, -10)
	require.NoError(t, db.Create([]catalogdomain.Order{
		{ID: 10, PlacedAt: inWindow, Status: catalogdomain.OrderStatusConfirmed},
		{ID: 55, PlacedAt: inWindow, Status: catalogdomain.OrderStatusShipped},
		{ID: 99, PlacedAt: inWindow, Status: catalogdomain.OrderStatusPending},
	}).Error)

	bounds, err := repo.OrderBounds(context.Background(), catalogNow.AddDate(0, 0, -365), catalogNow)
	require.NoError(t, err)
	assert.Equal(t, catalogdomain.OrderIDBounds{MinID: 10, MaxID: 55, Count: 2}, bounds)
}

func TestOrderBounds_EmptyWindow(t *testing.T) {
	db := newCatalogTestDB(t)
	repo := Provide(db)

	bounds, err := repo.OrderBounds(context.Background(), catalogNow.AddDate(0, 0, -365), catalogNow)
	require.NoError(t, err)
	assert.Equal(t, catalogdomain.OrderIDBounds{}, bounds)
}
