package service

import (
	"math"

	associationdomain "github.com/smallbiznis/affinity/internal/association/domain"
	catalogdomain "github.com/smallbiznis/affinity/internal/catalog/domain"
)

// genericBrand is excluded from the same-brand penalty: "Generic" is a
// placeholder, not a brand relationship.
const genericBrand = "Generic"

type pairMeta struct {
	a catalogdomain.ProductMeta
	b catalogdomain.ProductMeta
}

// ruleFunc returns a frequency multiplier for one pair. Rules are pure
// and applied in the fixed order returned by rulesFor.
type ruleFunc func(meta pairMeta) float64

func crossCategoryBoost(factor float64) ruleFunc {
	return func(meta pairMeta) float64 {
		if meta.a.RootCategory != meta.b.RootCategory {
			return factor
		}
		return 1
	}
}

func sameBrandPenalty(factor float64) ruleFunc {
	return func(meta pairMeta) float64 {
		if meta.a.Brand == nil || meta.b.Brand == nil {
			return 1
		}
		brand := *meta.a.Brand
		if brand == "" || brand == genericBrand || brand != *meta.b.Brand {
			return 1
		}
		return factor
	}
}

func rulesFor(params associationdomain.Params) []ruleFunc {
	return []ruleFunc{
		crossCategoryBoost(params.CrossCategoryBoost),
		sameBrandPenalty(params.SameBrandPenalty),
	}
}

// adjustOutcome carries the counters of one business-rule pass.
type adjustOutcome struct {
	accepted           []associationdomain.Pair
	droppedMissingMeta int
	droppedByCap       int
}

// adjustAndCap rescales frequencies through the rule list, floors at 1,
// then enforces the per-product cap in descending adjusted-frequency
// order. Pairs whose endpoints lack metadata are skipped, not failed.
func adjustAndCap(
	pairs []associationdomain.Pair,
	meta map[int64]catalogdomain.ProductMeta,
	rules []ruleFunc,
	perProductCap int,
) adjustOutcome {
	outcome := adjustOutcome{}

	adjusted := make([]associationdomain.Pair, 0, len(pairs))
	for _, pair := range pairs {
		metaA, okA := meta[pair.ProductAID]
		metaB, okB := meta[pair.ProductBID]
		if !okA || !okB {
			outcome.droppedMissingMeta++
			continue
		}

		multiplier := 1.0
		pm := pairMeta{a: metaA, b: metaB}
		for _, rule := range rules {
			multiplier *= rule(pm)
		}

		frequency := int64(math.Round(float64(pair.Frequency) * multiplier))
		if frequency < 1 {
			frequency = 1
		}
		pair.Frequency = frequency
		adjusted = append(adjusted, pair)
	}

	sortPairsByFrequency(adjusted)

	kept, dropped := capByProduct(adjusted, perProductCap)
	outcome.accepted = kept
	outcome.droppedByCap = len(dropped)
	return outcome
}

// capByProduct accepts pairs in the given order as long as both endpoints
// are below the cap. The input must already be sorted by priority.
func capByProduct(pairs []associationdomain.Pair, perProductCap int) (kept, dropped []associationdomain.Pair) {
	counts := make(map[int64]int)
	for _, pair := range pairs {
		if counts[pair.ProductAID] >= perProductCap || counts[pair.ProductBID] >= perProductCap {
			dropped = append(dropped, pair)
			continue
		}
		counts[pair.ProductAID]++
		counts[pair.ProductBID]++
		kept = append(kept, pair)
	}
	return kept, dropped
}
