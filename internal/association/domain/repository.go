package domain

import (
	"context"
	"time"
)

// PairKey identifies one stored association.
type PairKey struct {
	ProductAID int64
	ProductBID int64
}

// Store persists computed associations. ReplaceAll carries the
// from-scratch semantic of the direct tiers; UpsertAdd carries the
// additive semantic of the incremental tier.
type Store interface {
	// ReplaceAll clears the table and writes the given pairs wholesale,
	// inside a single transaction.
	ReplaceAll(ctx context.Context, pairs []Pair, calculatedAt time.Time) error

	// UpsertAdd inserts pairs, adding the incoming frequency to any
	// existing row for the same pair key. One call is one transaction.
	UpsertAdd(ctx context.Context, pairs []Pair, calculatedAt time.Time) error

	// Prune deletes associations below the minimum support and returns
	// the number removed.
	Prune(ctx context.Context, minSupport int64) (int64, error)

	// CleanupStale deletes associations last calculated before the cutoff.
	CleanupStale(ctx context.Context, cutoff time.Time) (int64, error)

	// ListByFrequency returns all stored associations ordered by
	// descending frequency.
	ListByFrequency(ctx context.Context) ([]ProductAssociation, error)

	// DeletePairs removes the given pair keys.
	DeletePairs(ctx context.Context, keys []PairKey) (int64, error)

	Count(ctx context.Context) (int64, error)
}

// RunStore records engine invocations for the execution-log surface.
type RunStore interface {
	Create(ctx context.Context, run *AssociationRun) error
	Finish(ctx context.Context, run *AssociationRun) error
}
