package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	associationdomain "github.com/smallbiznis/affinity/internal/association/domain"
	"github.com/smallbiznis/affinity/internal/association/repository"
	catalogdomain "github.com/smallbiznis/affinity/internal/catalog/domain"
	"github.com/smallbiznis/affinity/internal/clock"
	"github.com/smallbiznis/affinity/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/affinity/internal/observability/metrics"
	"github.com/smallbiznis/affinity/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Catalog catalogdomain.Repository
	Runs    associationdomain.RunStore
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	catalog catalogdomain.Repository
	runs    associationdomain.RunStore
}

func NewService(p ServiceParam) associationdomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("association.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		catalog: p.Catalog,
		runs:    p.Runs,
	}
}

// Rebuild recomputes the association table. On failure the returned
// result still carries the partial-progress counters of the run.
func (s *Service) Rebuild(ctx context.Context, params associationdomain.Params) (*associationdomain.RunResult, error) {
	params = params.WithDefaults()
	engineMetrics := obsmetrics.Engine()
	if err := params.Validate(); err != nil {
		engineMetrics.IncRunError("none", obsmetrics.RunErrorTypeConfig)
		return nil, err
	}

	started := s.clock.Now()
	windowEnd := started
	windowStart := windowEnd.AddDate(0, 0, -params.WindowDays)

	lineItems, err := s.catalog.CountLineItems(ctx, windowStart, windowEnd)
	if err != nil {
		engineMetrics.IncRunError("none", obsmetrics.RunErrorTypeDB)
		return nil, fmt.Errorf("count line items: %w", err)
	}

	kind := selectStrategy(lineItems, params)
	runID := s.genID.Generate()
	log := logger.WithRun(s.log, runID.String(), string(kind))
	engineMetrics.IncRun(string(kind))

	run := &associationdomain.AssociationRun{
		ID:          runID,
		Strategy:    string(kind),
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
		StartedAt:   started,
	}
	if err := s.runs.Create(ctx, run); err != nil {
		// The run log is bookkeeping; its failure never blocks a rebuild.
		log.Warn("run log create failed", zap.Error(err))
	}

	state := &runState{
		params:      params,
		windowStart: windowStart,
		windowEnd:   windowEnd,
		store:       repository.ProvideWithBatchSize(s.db, params.WriteBatchSize),
		log:         log,
	}
	state.stats.LineItems = lineItems

	log.Info("association run started",
		zap.Int64("line_items", lineItems),
		zap.Time("window_start", windowStart),
		zap.Time("window_end", windowEnd),
	)

	computeErr := s.strategyFor(kind).compute(logger.IntoContext(ctx, log), state)

	if stored, countErr := state.store.Count(ctx); countErr == nil {
		state.stats.StoredAssociations = stored
		engineMetrics.SetAssociations(stored)
	}

	finished := s.clock.Now()
	duration := finished.Sub(started)
	engineMetrics.ObserveRunDuration(string(kind), duration)
	s.reportPairMetrics(engineMetrics, state.stats)

	run.FinishedAt = &finished
	run.Stats = statsMap(state.stats)
	if computeErr != nil {
		msg := computeErr.Error()
		run.Error = &msg
		engineMetrics.IncRunError(string(kind), classifyRunError(computeErr))
	}
	if err := s.runs.Finish(ctx, run); err != nil {
		log.Warn("run log finish failed", zap.Error(err))
	}

	result := &associationdomain.RunResult{
		RunID:       runID.String(),
		Strategy:    kind,
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
		Duration:    duration,
		Stats:       state.stats,
	}

	if computeErr != nil {
		log.Error("association run failed", append(runStatsFields(state.stats), zap.Error(computeErr))...)
		return result, computeErr
	}
	log.Info("association run finished", append(runStatsFields(state.stats), zap.Duration("duration", duration))...)
	return result, nil
}

func (s *Service) Prune(ctx context.Context, minSupport int) (int64, error) {
	if minSupport < 1 {
		return 0, fmt.Errorf("%w: min_support must be at least 1", associationdomain.ErrInvalidConfig)
	}
	removed, err := repository.Provide(s.db).Prune(ctx, int64(minSupport))
	if err != nil {
		return 0, err
	}
	obsmetrics.Engine().AddPruned(removed)
	s.log.Info("associations pruned",
		zap.Int("min_support", minSupport),
		zap.Int64("removed", removed),
	)
	return removed, nil
}

func (s *Service) CleanupStale(ctx context.Context, olderThanDays int) (int64, error) {
	if olderThanDays < 1 {
		return 0, fmt.Errorf("%w: stale_after_days must be at least 1", associationdomain.ErrInvalidConfig)
	}
	cutoff := s.clock.Now().AddDate(0, 0, -olderThanDays)
	removed, err := repository.Provide(s.db).CleanupStale(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	obsmetrics.Engine().AddStaleRemoved(removed)
	s.log.Info("stale associations removed",
		zap.Int("older_than_days", olderThanDays),
		zap.Int64("removed", removed),
	)
	return removed, nil
}

func (s *Service) strategyFor(kind associationdomain.StrategyKind) strategy {
	switch kind {
	case associationdomain.StrategySinglePass:
		return &singlePassStrategy{svc: s}
	case associationdomain.StrategyIncremental:
		return &incrementalStrategy{svc: s}
	default:
		return &directStrategy{svc: s}
	}
}

// withRetry re-runs fn at the batch boundary for transient store errors,
// with a short linear backoff. Non-transient errors fail immediately.
func (s *Service) withRetry(ctx context.Context, log *zap.Logger, retries int, op string, fn func() error) error {
	var err error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			obsmetrics.Engine().IncBatch(obsmetrics.BatchResultRetried)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * 100 * time.Millisecond):
			}
		}
		if err = fn(); err == nil {
			return nil
		}
		if !db.IsTransientErr(err) {
			if db.IsDuplicateKeyErr(err) {
				// A duplicate pair key means the batch itself is bad;
				// retrying would hit the same constraint.
				log.Error("duplicate association key",
					zap.String("op", op),
					zap.Error(err),
				)
			}
			return err
		}
		log.Warn("transient store error",
			zap.String("op", op),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
	}
	return err
}

func (s *Service) reportPairMetrics(m *obsmetrics.EngineMetrics, stats associationdomain.RunStats) {
	m.AddPairs(obsmetrics.PairOutcomeConsidered, stats.PairsConsidered)
	m.AddPairs(obsmetrics.PairOutcomeAccepted, stats.PairsAccepted)
	m.AddPairs(obsmetrics.PairOutcomeCap, stats.DroppedByCap)
	m.AddPairs(obsmetrics.PairOutcomeMeta, stats.DroppedMissingMeta)
	m.AddPairs(obsmetrics.PairOutcomeCeiling, stats.DroppedByCeiling)
}

func classifyRunError(err error) string {
	switch {
	case errors.Is(err, associationdomain.ErrInvalidConfig):
		return obsmetrics.RunErrorTypeConfig
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return obsmetrics.RunErrorTypeDeadline
	case db.IsTransientErr(err):
		return obsmetrics.RunErrorTypeDB
	default:
		return obsmetrics.RunErrorTypeUnknown
	}
}

func statsMap(stats associationdomain.RunStats) datatypes.JSONMap {
	return datatypes.JSONMap{
		"line_items":               stats.LineItems,
		"pairs_considered":         stats.PairsConsidered,
		"pairs_accepted":           stats.PairsAccepted,
		"dropped_by_cap":           stats.DroppedByCap,
		"dropped_missing_metadata": stats.DroppedMissingMeta,
		"dropped_by_ceiling":       stats.DroppedByCeiling,
		"batches_committed":        stats.BatchesCommitted,
		"batches_failed":           stats.BatchesFailed,
		"pruned":                   stats.Pruned,
		"stored_associations":      stats.StoredAssociations,
	}
}

func runStatsFields(stats associationdomain.RunStats) []zap.Field {
	return []zap.Field{
		zap.Int("pairs_considered", stats.PairsConsidered),
		zap.Int("pairs_accepted", stats.PairsAccepted),
		zap.Int("dropped_by_cap", stats.DroppedByCap),
		zap.Int("dropped_missing_metadata", stats.DroppedMissingMeta),
		zap.Int("dropped_by_ceiling", stats.DroppedByCeiling),
		zap.Int("batches_committed", stats.BatchesCommitted),
		zap.Int("batches_failed", stats.BatchesFailed),
		zap.Int64("pruned", stats.Pruned),
	}
}
