package service

import (
	"context"
	"fmt"

	associationdomain "github.com/smallbiznis/affinity/internal/association/domain"
	obsmetrics "github.com/smallbiznis/affinity/internal/observability/metrics"
	"go.uber.org/zap"
)

// singlePassStrategy has direct semantics but pushes pair deduplication
// and weighted aggregation into a single SQL statement, avoiding the 2x
// pair generation of the naive self-join.
type singlePassStrategy struct {
	svc *Service
}

func (s *singlePassStrategy) kind() associationdomain.StrategyKind {
	return associationdomain.StrategySinglePass
}

func (s *singlePassStrategy) compute(ctx context.Context, run *runState) error {
	meta, err := s.svc.catalog.ActiveProductMeta(ctx)
	if err != nil {
		return fmt.Errorf("load product metadata: %w", err)
	}

	// Fetch one row beyond the ceiling so truncation is observable.
	query := aggQuery{
		windowStart: run.windowStart,
		windowEnd:   run.windowEnd,
		weighted:    run.params.RecencyWeight,
		now:         run.windowEnd,
		minSupport:  run.params.MinSupport,
		limit:       run.params.MaxPairs + 1,
	}
	rows, err := aggregatePairs(ctx, s.svc.db, query)
	if err != nil {
		return fmt.Errorf("aggregate pairs: %w", err)
	}

	if len(rows) > run.params.MaxPairs {
		// The fetch stops one past the ceiling; a COUNT reports the
		// exact truncation like the in-memory tier does.
		total, countErr := countPairs(ctx, s.svc.db, query)
		if countErr != nil {
			return fmt.Errorf("count pairs: %w", countErr)
		}
		run.stats.DroppedByCeiling = int(total) - run.params.MaxPairs
		rows = rows[:run.params.MaxPairs]
		run.log.Warn("pair ceiling exceeded, result truncated",
			zap.Int("ceiling", run.params.MaxPairs),
			zap.Int("dropped", run.stats.DroppedByCeiling),
		)
	}

	pairs := toPairs(rows)
	run.stats.PairsConsidered = len(pairs)

	outcome := adjustAndCap(pairs, meta, rulesFor(run.params), run.params.PerProductCap)
	run.stats.PairsAccepted = len(outcome.accepted)
	run.stats.DroppedByCap = outcome.droppedByCap
	run.stats.DroppedMissingMeta = outcome.droppedMissingMeta

	err = s.svc.withRetry(ctx, run.log, run.params.BatchRetries, "replace_all", func() error {
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
