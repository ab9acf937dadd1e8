package service

import (
	"context"
	"time"

	associationdomain "github.com/smallbiznis/affinity/internal/association/domain"
	catalogdomain "github.com/smallbiznis/affinity/internal/catalog/domain"
	"go.uber.org/zap"
)

// runState is the mutable state of one engine invocation, threaded
// explicitly through the strategy instead of living on the service.
type runState struct {
	params      associationdomain.Params
	windowStart time.Time
	windowEnd   time.Time
	store       associationdomain.Store
	log         *zap.Logger
	stats       associationdomain.RunStats
}

type strategy interface {
	kind() associationdomain.StrategyKind
	compute(ctx context.Context, run *runState) error
}

// selectStrategy is a pure function of the input volume so dispatch can
// be tested by injecting fake counts.
func selectStrategy(lineItems int64, params associationdomain.Params) associationdomain.StrategyKind {
	if params.ForceStrategy != "" {
		return params.ForceStrategy
	}
	switch {
	case lineItems < params.DirectMaxItems:
		return associationdomain.StrategyDirect
	case lineItems < params.SinglePassMaxItems:
		return associationdomain.StrategySinglePass
	default:
		return associationdomain.StrategyIncremental
	}
}

// rangeWidth sizes incremental order-id ranges so one run stays around
// 20 batches while each batch keeps a bounded join cost.
func rangeWidth(totalOrders int64) int64 {
	width := totalOrders / 20
	if width < 1000 {
		width = 1000
	}
	if width > 10000 {
		width = 10000
	}
	return width
}

// orderRanges splits the qualifying order-id key space into contiguous
// inclusive ranges of the given width.
type orderRange struct {
	start int64
	end   int64
}

func orderRanges(bounds catalogdomain.OrderIDBounds, width int64) []orderRange {
	if bounds.Count == 0 || bounds.MaxID < bounds.MinID {
		return nil
	}
	ranges := make([]orderRange, 0, (bounds.MaxID-bounds.MinID)/width+1)
	for start := bounds.MinID; start <= bounds.MaxID; start += width {
		end := start + width - 1
		if end > bounds.MaxID {
			end = bounds.MaxID
		}
		ranges = append(ranges, orderRange{start: start, end: end})
	}
	return ranges
}
