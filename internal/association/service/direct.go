package service

import (
	"context"
	"fmt"

	associationdomain "github.com/smallbiznis/affinity/internal/association/domain"
	obsmetrics "github.com/smallbiznis/affinity/internal/observability/metrics"
	"go.uber.org/zap"
)

// directStrategy recomputes the table from scratch with the whole
// pipeline in process: stream, aggregate, adjust, cap, replace.
type directStrategy struct {
	svc *Service
}

func (d *directStrategy) kind() associationdomain.StrategyKind {
	return associationdomain.StrategyDirect
}

func (d *directStrategy) compute(ctx context.Context, run *runState) error {
	meta, err := d.svc.catalog.ActiveProductMeta(ctx)
	if err != nil {
		return fmt.Errorf("load product metadata: %w", err)
	}

	acc := newAccumulator(run.windowEnd, run.params.RecencyWeight)
	err = streamOrders(ctx, d.svc.db, run.windowStart, run.windowEnd, func(order orderLines) error {
		for i := 0; i < len(order.products); i++ {
			for j := i + 1; j < len(order.products); j++ {
				acc.observe(order.orderID, order.placedAt, order.products[i], order.products[j])
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("extract pairs: %w", err)
	}

	pairs, truncated := acc.results(run.params.MinSupport, run.params.MaxPairs)
	run.stats.PairsConsidered = len(pairs)
	run.stats.DroppedByCeiling = truncated
	if truncated > 0 {
		run.log.Warn("pair ceiling exceeded, result truncated",
			zap.Int("ceiling", run.params.MaxPairs),
			zap.Int("dropped", truncated),
		)
	}

	outcome := adjustAndCap(pairs, meta, rulesFor(run.params), run.params.PerProductCap)
	run.stats.PairsAccepted = len(outcome.accepted)
	run.stats.DroppedByCap = outcome.droppedByCap
	run.stats.DroppedMissingMeta = outcome.droppedMissingMeta

	err = d.svc.withRetry(ctx, run.log, run.params.BatchRetries, "replace_all", func() error {
		return run.store.ReplaceAll(ctx, outcome.accepted, run.windowEnd)
	})
	if err != nil {
		run.stats.BatchesFailed++
		obsmetrics.Engine().IncBatch(obsmetrics.BatchResultFailed)
		return fmt.Errorf("%w: %v", associationdomain.ErrRunFailed, err)
	}
	run.stats.BatchesCommitted++
	obsmetrics.Engine().IncBatch(obsmetrics.BatchResultCommitted)
	return nil
}
