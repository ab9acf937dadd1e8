package insights

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	associationdomain "github.com/smallbiznis/affinity/internal/association/domain"
	catalogdomain "github.com/smallbiznis/affinity/internal/catalog/domain"
)

func strPtr(s string) *string { return &s }

func newInsightsTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_loc=auto", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&catalogdomain.Category{},
		&catalogdomain.Product{},
		&associationdomain.ProductAssociation{},
	))

	require.NoError(t, db.Create([]catalogdomain.Category{
		{ID: 1, Name: "Electronics"},
		{ID: 2, Name: "Home"},
	}).Error)
	require.NoError(t, db.Create([]catalogdomain.Product{
		{ID: 1, Name: "Phone", Brand: strPtr("Acme"), CategoryID: 1, Active: true},
		{ID: 2, Name: "Case", Brand: strPtr("Borealis"), CategoryID: 1, Active: true},
		{ID: 3, Name: "Kettle", Brand: strPtr("Acme"), CategoryID: 2, Active: true},
		{ID: 4, Name: "Mug", CategoryID: 2, Active: true},
	}).Error)

	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, db.Create([]associationdomain.ProductAssociation{
		{ProductAID: 1, ProductBID: 2, FrequencyCount: 9, LastCalculated: now},
		{ProductAID: 1, ProductBID: 3, FrequencyCount: 5, LastCalculated: now},
		{ProductAID: 2, ProductBID: 3, FrequencyCount: 3, LastCalculated: now},
		{ProductAID: 3, ProductBID: 4, FrequencyCount: 2, LastCalculated: now},
	}).Error)

	return db
}

func TestTopPairs(t *testing.T) {
	svc := NewService(newInsightsTestDB(t), zap.NewNop())

	rows, err := svc.TopPairs(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Phone", rows[0].ProductAName)
	assert.Equal(t, "Case", rows[0].ProductBName)
	assert.Equal(t, int64(9), rows[0].Frequency)
	assert.Equal(t, int64(5), rows[1].Frequency)
}

func TestTopPairs_InvalidLimit(t *testing.T) {
	svc := NewService(newInsightsTestDB(t), zap.NewNop())

	_, err := svc.TopPairs(context.Background(), -1)
	assert.ErrorIs(t, err, ErrInvalidLimit)
}

func TestCategoryMatrix_ExcludesSameCategory(t *testing.T) {
	svc := NewService(newInsightsTestDB(t), zap.NewNop())

	rows, err := svc.CategoryMatrix(context.Background(), 10)
	require.NoError(t, err)
	// Pairs {1,2} and {3,4} are intra-category and must not appear.
	require.Len(t, rows, 1)
	assert.Equal(t, "Electronics", rows[0].CategoryA)
	assert.Equal(t, "Home", rows[0].CategoryB)
	assert.Equal(t, int64(2), rows[0].Pairs)
	assert.Equal(t, int64(8), rows[0].Frequency)
}

func TestBrandMatrix_ExcludesSameAndMissingBrand(t *testing.T) {
	svc := NewService(newInsightsTestDB(t), zap.NewNop())

	rows, err := svc.BrandMatrix(context.Background(), 10)
	require.NoError(t, err)
	// {1,3} is Acme-Acme and {3,4} touches a brandless product; only
	// Acme x Borealis survives.
	require.Len(t, rows, 1)
	assert.Equal(t, "Acme", rows[0].BrandA)
	assert.Equal(t, "Borealis", rows[0].BrandB)
	assert.Equal(t, int64(2), rows[0].Pairs)
	assert.Equal(t, int64(12), rows[0].Frequency)
}
