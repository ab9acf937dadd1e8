package service

import (
	"context"
	"fmt"

	associationdomain "github.com/smallbiznis/affinity/internal/association/domain"
	obsmetrics "github.com/smallbiznis/affinity/internal/observability/metrics"
	"go.uber.org/zap"
)

// incrementalStrategy partitions the order-id key space into contiguous
// ranges, aggregates each range independently, and adds the partial
// frequencies into the store with one commit per range. Committed ranges
// stay durable if the run is aborted; a final prune removes pairs whose
// accumulated frequency never reached the support threshold.
//
// This tier deliberately skips the business-rule multipliers: partial
// sums must stay commutative, and a multiplier applied per range would
// not be. The per-product cap is optional here (CapLargeRuns).
type incrementalStrategy struct {
	svc *Service
}

func (inc *incrementalStrategy) kind() associationdomain.StrategyKind {
	return associationdomain.StrategyIncremental
}

func (inc *incrementalStrategy) compute(ctx context.Context, run *runState) error {
	bounds, err := inc.svc.catalog.OrderBounds(ctx, run.windowStart, run.windowEnd)
	if err != nil {
		return fmt.Errorf("order bounds: %w", err)
	}
	if bounds.Count == 0 {
		run.log.Info("no qualifying orders in window")
		return nil
	}

	// Clear prior state so accumulated sums start from zero.
	if err := run.store.ReplaceAll(ctx, nil, run.windowEnd); err != nil {
		return fmt.Errorf("clear associations: %w", err)
	}

	width := rangeWidth(bounds.Count)
	ranges := orderRanges(bounds, width)
	run.log.Info("incremental run planned",
		zap.Int64("orders", bounds.Count),
		zap.Int64("range_width", width),
		zap.Int("ranges", len(ranges)),
	)

	engineMetrics := obsmetrics.Engine()
	for i, rng := range ranges {
		if err := ctx.Err(); err != nil {
			// Committed ranges stay durable; the prune is skipped so a
			// resumed run can continue adding.
			return err
		}

		rng := rng
		batchLog := run.log.With(
			zap.Int("range", i+1),
			zap.Int64("order_start", rng.start),
			zap.Int64("order_end", rng.end),
		)

		// Counted outside the retried closure so re-executed attempts
		// never inflate the run stats.
		var rangePairs int
		err := inc.svc.withRetry(ctx, batchLog, run.params.BatchRetries, "upsert_add", func() error {
			rows, aggErr := aggregatePairs(ctx, inc.svc.db, aggQuery{
				windowStart: run.windowStart,
				windowEnd:   run.windowEnd,
				weighted:    run.params.RecencyWeight,
				now:         run.windowEnd,
				orderRange:  &rng,
			})
			if aggErr != nil {
				return aggErr
			}
			pairs := toPairs(rows)
			rangePairs = len(pairs)
			return run.store.UpsertAdd(ctx, pairs, run.windowEnd)
		})
		if err != nil {
			// A failed range is skipped; earlier commits are untouched.
			run.stats.BatchesFailed++
			engineMetrics.IncBatch(obsmetrics.BatchResultFailed)
			batchLog.Error("range batch failed", zap.Error(err))
			continue
		}
		run.stats.PairsConsidered += rangePairs
		run.stats.BatchesCommitted++
		engineMetrics.IncBatch(obsmetrics.BatchResultCommitted)
	}

	if run.stats.BatchesCommitted == 0 && run.stats.BatchesFailed > 0 {
		return fmt.Errorf("%w: all %d range batches failed", associationdomain.ErrRunFailed, run.stats.BatchesFailed)
	}

	// Partial sums can transiently sit below the threshold, so the
	// support filter runs once at the end.
	pruned, err := run.store.Prune(ctx, int64(run.params.MinSupport))
	if err != nil {
		return fmt.Errorf("prune: %w", err)
	}
	run.stats.Pruned = pruned
	engineMetrics.AddPruned(pruned)

	if run.params.CapLargeRuns {
		if err := inc.enforceCap(ctx, run); err != nil {
			return fmt.Errorf("post-hoc cap: %w", err)
		}
	}
	return nil
}

// enforceCap re-applies the per-product cap against the stored table,
// keeping the highest-frequency edges per product.
func (inc *incrementalStrategy) enforceCap(ctx context.Context, run *runState) error {
	stored, err := run.store.ListByFrequency(ctx)
	if err != nil {
		return err
	}

	pairs := make([]associationdomain.Pair, 0, len(stored))
	for _, row := range stored {
		pairs = append(pairs, associationdomain.Pair{
			ProductAID: row.ProductAID,
			ProductBID: row.ProductBID,
			Frequency:  row.FrequencyCount,
		})
	}

	_, dropped := capByProduct(pairs, run.params.PerProductCap)
	if len(dropped) == 0 {
		return nil
	}

	keys := make([]associationdomain.PairKey, 0, len(dropped))
	for _, pair := range dropped {
		keys = append(keys, associationdomain.PairKey{
			ProductAID: pair.ProductAID,
			ProductBID: pair.ProductBID,
		})
	}
	removed, err := run.store.DeletePairs(ctx, keys)
	if err != nil {
		return err
	}
	run.stats.DroppedByCap += int(removed)
	run.log.Info("post-hoc cap applied", zap.Int64("removed", removed))
	return nil
}
