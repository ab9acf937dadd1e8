package domain

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// StrategyKind identifies one of the tiered execution strategies.
type StrategyKind string

const (
	StrategyDirect      StrategyKind = "direct"
	StrategySinglePass  StrategyKind = "single_pass"
	StrategyIncremental StrategyKind = "incremental"
)

func ParseStrategyKind(raw string) (StrategyKind, error) {
	switch StrategyKind(raw) {
	case "":
		return "", nil
	case StrategyDirect, StrategySinglePass, StrategyIncremental:
		return StrategyKind(raw), nil
	default:
		return "", fmt.Errorf("%w: unknown strategy %q", ErrInvalidConfig, raw)
	}
}

// Params holds one run's engine settings. Zero values fall back to the
// defaults below; Validate rejects settings that would corrupt a run
// before any write happens.
type Params struct {
	WindowDays         int
	MinSupport         int
	CrossCategoryBoost float64
	SameBrandPenalty   float64
	PerProductCap      int
	RecencyWeight      bool
	MaxPairs           int

	DirectMaxItems     int64
	SinglePassMaxItems int64
	WriteBatchSize     int
	BatchRetries       int
	StaleAfterDays     int

	// CapLargeRuns re-applies the per-product cap after an incremental run.
	// Off by default: the additive tier historically never capped.
	CapLargeRuns bool

	ForceStrategy StrategyKind
}

func DefaultParams() Params {
	return Params{
		WindowDays:         365,
		MinSupport:         2,
		CrossCategoryBoost: 1.5,
		SameBrandPenalty:   0.8,
		PerProductCap:      50,
		RecencyWeight:      true,
		MaxPairs:           100_000,
		DirectMaxItems:     50_000,
		SinglePassMaxItems: 200_000,
		WriteBatchSize:     500,
		BatchRetries:       3,
		StaleAfterDays:     180,
	}
}

func (p Params) WithDefaults() Params {
	defaults := DefaultParams()
	if p.WindowDays == 0 {
		p.WindowDays = defaults.WindowDays
	}
	if p.MinSupport == 0 {
		p.MinSupport = defaults.MinSupport
	}
	if p.CrossCategoryBoost == 0 {
		p.CrossCategoryBoost = defaults.CrossCategoryBoost
	}
	if p.SameBrandPenalty == 0 {
		p.SameBrandPenalty = defaults.SameBrandPenalty
	}
	if p.PerProductCap == 0 {
		p.PerProductCap = defaults.PerProductCap
	}
	if p.MaxPairs == 0 {
		p.MaxPairs = defaults.MaxPairs
	}
	if p.DirectMaxItems == 0 {
		p.DirectMaxItems = defaults.DirectMaxItems
	}
	if p.SinglePassMaxItems == 0 {
		p.SinglePassMaxItems = defaults.SinglePassMaxItems
	}
	if p.WriteBatchSize == 0 {
		p.WriteBatchSize = defaults.WriteBatchSize
	}
	if p.BatchRetries == 0 {
		p.BatchRetries = defaults.BatchRetries
	}
	if p.StaleAfterDays == 0 {
		p.StaleAfterDays = defaults.StaleAfterDays
	}
	return p
}

func (p Params) Validate() error {
	if p.WindowDays < 1 {
		return fmt.Errorf("%w: window_days must be at least 1", ErrInvalidConfig)
	}
	if p.MinSupport < 1 {
		return fmt.Errorf("%w: min_support must be at least 1", ErrInvalidConfig)
	}
	if p.PerProductCap < 1 {
		return fmt.Errorf("%w: per_product_cap must be at least 1", ErrInvalidConfig)
	}
	if p.CrossCategoryBoost <= 0 {
		return fmt.Errorf("%w: cross_category_boost must be positive", ErrInvalidConfig)
	}
	if p.SameBrandPenalty <= 0 {
		return fmt.Errorf("%w: same_brand_penalty must be positive", ErrInvalidConfig)
	}
	if p.MaxPairs < 1 {
		return fmt.Errorf("%w: max_pairs must be at least 1", ErrInvalidConfig)
	}
	if p.DirectMaxItems < 1 || p.SinglePassMaxItems <= p.DirectMaxItems {
		return fmt.Errorf("%w: strategy thresholds must be positive and ordered", ErrInvalidConfig)
	}
	if p.WriteBatchSize < 1 {
		return fmt.Errorf("%w: write_batch_size must be at least 1", ErrInvalidConfig)
	}
	if p.BatchRetries < 0 {
		return fmt.Errorf("%w: batch_retries must not be negative", ErrInvalidConfig)
	}
	if p.StaleAfterDays < 1 {
		return fmt.Errorf("%w: stale_after_days must be at least 1", ErrInvalidConfig)
	}
	return nil
}

// Pair is one canonical association candidate flowing through the pipeline.
type Pair struct {
	ProductAID  int64
	ProductBID  int64
	Frequency   int64
	LastOrderAt time.Time
}

// RunStats are the user-visible counters every run reports.
type RunStats struct {
	LineItems          int64 `json:"line_items"`
	PairsConsidered    int   `json:"pairs_considered"`
	PairsAccepted      int   `json:"pairs_accepted"`
	DroppedByCap       int   `json:"dropped_by_cap"`
	DroppedMissingMeta int   `json:"dropped_missing_metadata"`
	DroppedByCeiling   int   `json:"dropped_by_ceiling"`
	BatchesCommitted   int   `json:"batches_committed"`
	BatchesFailed      int   `json:"batches_failed"`
	Pruned             int64 `json:"pruned"`
	StoredAssociations int64 `json:"stored_associations"`
}

// RunResult is the outcome of one Rebuild invocation.
type RunResult struct {
	RunID       string
	Strategy    StrategyKind
	WindowStart time.Time
	WindowEnd   time.Time
	Duration    time.Duration
	Stats       RunStats
}

type Service interface {
	// Rebuild recomputes the association table for the trailing window.
	Rebuild(ctx context.Context, params Params) (*RunResult, error)

	// Prune removes stored associations below the minimum support.
	Prune(ctx context.Context, minSupport int) (int64, error)

	// CleanupStale removes associations not recalculated within the
	// retention window.
	CleanupStale(ctx context.Context, olderThanDays int) (int64, error)
}

var (
	ErrInvalidConfig = errors.New("invalid_engine_config")
	ErrRunFailed     = errors.New("association_run_failed")
)
