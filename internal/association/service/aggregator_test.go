package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAccumulator_CanonicalOrdering(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	acc := newAccumulator(now, false)

	// The same pair observed in both directions collapses into one tally.
	acc.observe(1, now, 7, 3)
	acc.observe(2, now, 3, 7)

	pairs, truncated := acc.results(1, 100)
	assert.Equal(t, 0, truncated)
	if assert.Len(t, pairs, 1) {
		assert.Equal(t, int64(3), pairs[0].ProductAID)
		assert.Equal(t, int64(7), pairs[0].ProductBID)
		assert.Equal(t, int64(2), pairs[0].Frequency)
	}
}

func TestAccumulator_DuplicateLineItemsCountOnce(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	acc := newAccumulator(now, false)

	// Two identical line items inside the same order.
	acc.observe(1, now, 1, 2)
	acc.observe(1, now, 1, 2)
	acc.observe(2, now, 1, 2)

	pairs, _ := acc.results(1, 100)
	if assert.Len(t, pairs, 1) {
		assert.Equal(t, int64(2), pairs[0].Frequency)
	}
}

func TestAccumulator_SelfPairIgnored(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	acc := newAccumulator(now, false)

	acc.observe(1, now, 5, 5)

	pairs, _ := acc.results(1, 100)
	assert.Empty(t, pairs)
}

func TestAccumulator_MinDistinctOrders(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	acc := newAccumulator(now, true)

	// One recent order weighs 2.0, clearing a support of 2, but a single
	// order never qualifies a pair.
	acc.observe(1, now.AddDate(0, 0, -5), 1, 2)

	pairs, _ := acc.results(2, 100)
	assert.Empty(t, pairs)
}

func TestAccumulator_SupportUsesUnroundedSum(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	acc := newAccumulator(now, true)

	// 1.2 + 1.0 = 2.2 clears a support of 2 before rounding.
	acc.observe(1, now.AddDate(0, 0, -150), 1, 2)
	acc.observe(2, now.AddDate(0, 0, -300), 1, 2)

	pairs, _ := acc.results(2, 100)
	if assert.Len(t, pairs, 1) {
		assert.Equal(t, int64(2), pairs[0].Frequency)
	}
}

func TestRecencyWeight_Steps(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 2.0, recencyWeight(now, now.AddDate(0, 0, -10), true))
	assert.Equal(t, 1.5, recencyWeight(now, now.AddDate(0, 0, -60), true))
	assert.Equal(t, 1.2, recencyWeight(now, now.AddDate(0, 0, -150), true))
	assert.Equal(t, 1.0, recencyWeight(now, now.AddDate(0, 0, -300), true))
	assert.Equal(t, 1.0, recencyWeight(now, now.AddDate(0, 0, -10), false))
}

func TestAccumulator_CeilingTruncation(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	acc := newAccumulator(now, false)

	for product := int64(2); product <= 6; product++ {
		acc.observe(1, now, 1, product)
		acc.observe(2, now, 1, product)
	}

	pairs, truncated := acc.results(1, 3)
	assert.Len(t, pairs, 3)
	assert.Equal(t, 2, truncated)
	// Equal frequencies fall back to the id tie-break.
	assert.Equal(t, int64(2), pairs[0].ProductBID)
	assert.Equal(t, int64(3), pairs[1].ProductBID)
	assert.Equal(t, int64(4), pairs[2].ProductBID)
}

func TestAccumulator_LastOrderAt(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	acc := newAccumulator(now, false)

	older := now.AddDate(0, 0, -40)
	newer := now.AddDate(0, 0, -2)
	acc.observe(1, newer, 1, 2)
	acc.observe(2, older, 1, 2)

	pairs, _ := acc.results(1, 100)
	if assert.Len(t, pairs, 1) {
		assert.Equal(t, newer, pairs[0].LastOrderAt)
	}
}
