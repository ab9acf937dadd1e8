package service

import (
	"math"
	"sort"
	"time"

	associationdomain "github.com/smallbiznis/affinity/internal/association/domain"
)

// Recency step weights. An occurrence in a recent order counts for more
// than one in an old order; the steps match the reporting cutoffs used
// elsewhere (30/90/180 days).
const (
	weightUnder30  = 2.0
	weightUnder90  = 1.5
	weightUnder180 = 1.2
	weightBase     = 1.0
)

// minDistinctOrders guards against a single order with duplicate line
// items inflating a pair's frequency.
const minDistinctOrders = 2

type pairKey struct {
	a, b int64
}

func canonicalKey(productA, productB int64) pairKey {
	if productA < productB {
		return pairKey{a: productA, b: productB}
	}
	return pairKey{a: productB, b: productA}
}

type pairTally struct {
	weighted    float64
	orders      map[int64]struct{}
	lastOrderAt time.Time
}

// accumulator is the explicit aggregation state threaded through a run.
// It is never shared across runs.
type accumulator struct {
	now      time.Time
	weighted bool
	pairs    map[pairKey]*pairTally
}

func newAccumulator(now time.Time, weighted bool) *accumulator {
	return &accumulator{
		now:      now,
		weighted: weighted,
		pairs:    make(map[pairKey]*pairTally),
	}
}

func (acc *accumulator) observe(orderID int64, placedAt time.Time, productA, productB int64) {
	if productA == productB {
		return
	}
	key := canonicalKey(productA, productB)
	tally, ok := acc.pairs[key]
	if !ok {
		tally = &pairTally{orders: make(map[int64]struct{})}
		acc.pairs[key] = tally
	}
	if _, seen := tally.orders[orderID]; seen {
		// Duplicate line items inside one order contribute once.
		return
	}
	tally.orders[orderID] = struct{}{}
	tally.weighted += recencyWeight(acc.now, placedAt, acc.weighted)
	if placedAt.After(tally.lastOrderAt) {
		tally.lastOrderAt = placedAt
	}
}

func recencyWeight(now, placedAt time.Time, weighted bool) float64 {
	if !weighted {
		return weightBase
	}
	age := now.Sub(placedAt)
	switch {
	case age <= 30*24*time.Hour:
		return weightUnder30
	case age <= 90*24*time.Hour:
		return weightUnder90
	case age <= 180*24*time.Hour:
		return weightUnder180
	default:
		return weightBase
	}
}

// results filters by minimum support and distinct-order count, orders by
// descending frequency, and truncates at the pair ceiling. The second
// return value is the number of pairs dropped by the ceiling.
func (acc *accumulator) results(minSupport, maxPairs int) ([]associationdomain.Pair, int) {
	out := make([]associationdomain.Pair, 0, len(acc.pairs))
	for key, tally := range acc.pairs {
		if tally.weighted < float64(minSupport) {
			continue
		}
		if len(tally.orders) < minDistinctOrders {
			continue
		}
		out = append(out, associationdomain.Pair{
			ProductAID:  key.a,
			ProductBID:  key.b,
			Frequency:   int64(math.Round(tally.weighted)),
			LastOrderAt: tally.lastOrderAt,
		})
	}

	sortPairsByFrequency(out)

	truncated := 0
	if len(out) > maxPairs {
		truncated = len(out) - maxPairs
		out = out[:maxPairs]
	}
	return out, truncated
}

// sortPairsByFrequency orders pairs by descending frequency with a
// deterministic id tie-break so re-runs produce identical output.
func sortPairsByFrequency(pairs []associationdomain.Pair) {
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Frequency != pairs[j].Frequency {
			return pairs[i].Frequency > pairs[j].Frequency
		}
		if pairs[i].ProductAID != pairs[j].ProductAID {
			return pairs[i].ProductAID < pairs[j].ProductAID
		}
		return pairs[i].ProductBID < pairs[j].ProductBID
	})
}
