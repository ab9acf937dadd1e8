package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	associationdomain "github.com/smallbiznis/affinity/internal/association/domain"
	catalogdomain "github.com/smallbiznis/affinity/internal/catalog/domain"
)

func strPtr(s string) *string { return &s }

func metaFor(productID int64, brand *string, rootCategory string) catalogdomain.ProductMeta {
	return catalogdomain.ProductMeta{
		ProductID:    productID,
		Brand:        brand,
		CategoryID:   productID * 10,
		CategoryName: rootCategory,
		RootCategory: rootCategory,
	}
}

func TestCrossCategoryBoost(t *testing.T) {
	rule := crossCategoryBoost(1.5)

	same := pairMeta{
		a: metaFor(1, nil, "Electronics"),
		b: metaFor(2, nil, "Electronics"),
	}
	cross := pairMeta{
		a: metaFor(1, nil, "Electronics"),
		b: metaFor(2, nil, "Home"),
	}

	assert.Equal(t, 1.0, rule(same))
	assert.Equal(t, 1.5, rule(cross))
}

func TestSameBrandPenalty(t *testing.T) {
	rule := sameBrandPenalty(0.8)

	assert.Equal(t, 0.8, rule(pairMeta{
		a: metaFor(1, strPtr("Acme"), "Electronics"),
		b: metaFor(2, strPtr("Acme"), "Electronics"),
	}), "matching brands are penalized")

	assert.Equal(t, 1.0, rule(pairMeta{
		a: metaFor(1, strPtr("Acme"), "Electronics"),
		b: metaFor(2, strPtr("Borealis"), "Electronics"),
	}), "different brands pass through")

	assert.Equal(t, 1.0, rule(pairMeta{
		a: metaFor(1, nil, "Electronics"),
		b: metaFor(2, nil, "Electronics"),
	}), "missing brands pass through")

	assert.Equal(t, 1.0, rule(pairMeta{
		a: metaFor(1, strPtr("Generic"), "Electronics"),
		b: metaFor(2, strPtr("Generic"), "Electronics"),
	}), "the Generic placeholder is not a brand relationship")
}

func TestAdjustAndCap_MissingMetadataSkipped(t *testing.T) {
	meta := map[int64]catalogdomain.ProductMeta{
		1: metaFor(1, nil, "Electronics"),
		2: metaFor(2, nil, "Home"),
	}
	pairs := []associationdomain.Pair{
		{ProductAID: 1, ProductBID: 2, Frequency: 4},
		{ProductAID: 1, ProductBID: 99, Frequency: 9},
	}

	outcome := adjustAndCap(pairs, meta, rulesFor(associationdomain.DefaultParams()), 50)
	assert.Equal(t, 1, outcome.droppedMissingMeta)
	if assert.Len(t, outcome.accepted, 1) {
		// 4 * 1.5 cross-category boost.
		assert.Equal(t, int64(6), outcome.accepted[0].Frequency)
	}
}

func TestAdjustAndCap_FrequencyFloor(t *testing.T) {
	meta := map[int64]catalogdomain.ProductMeta{
		1: metaFor(1, strPtr("Acme"), "Electronics"),
		2: metaFor(2, strPtr("Acme"), "Electronics"),
	}
	pairs := []associationdomain.Pair{
		{ProductAID: 1, ProductBID: 2, Frequency: 1},
	}

	params := associationdomain.DefaultParams()
	params.SameBrandPenalty = 0.1
	outcome := adjustAndCap(pairs, meta, rulesFor(params), 50)
	if assert.Len(t, outcome.accepted, 1) {
		assert.Equal(t, int64(1), outcome.accepted[0].Frequency, "adjusted frequency never drops below 1")
	}
}

func TestCapByProduct(t *testing.T) {
	// Product 1 appears in three pairs; with a cap of 2 the weakest is
	// dropped. Input is pre-sorted by priority.
	pairs := []associationdomain.Pair{
		{ProductAID: 1, ProductBID: 2, Frequency: 10},
		{ProductAID: 1, ProductBID: 3, Frequency: 8},
		{ProductAID: 1, ProductBID: 4, Frequency: 5},
		{ProductAID: 2, ProductBID: 3, Frequency: 4},
	}

	kept, dropped := capByProduct(pairs, 2)
	assert.Len(t, kept, 3)
	if assert.Len(t, dropped, 1) {
		assert.Equal(t, int64(4), dropped[0].ProductBID)
	}
	// The unrelated pair is unaffected.
	assert.Equal(t, int64(4), kept[2].Frequency)
}

func TestCapByProduct_OrderMatters(t *testing.T) {
	pairs := []associationdomain.Pair{
		{ProductAID: 1, ProductBID: 2, Frequency: 3},
		{ProductAID: 1, ProductBID: 3, Frequency: 9},
	}

	kept, dropped := capByProduct(pairs, 1)
	if assert.Len(t, kept, 1) {
		// First in wins regardless of frequency; callers sort first.
		assert.Equal(t, int64(2), kept[0].ProductBID)
	}
	assert.Len(t, dropped, 1)
}
