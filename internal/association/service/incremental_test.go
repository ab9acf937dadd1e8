package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	associationdomain "github.com/smallbiznis/affinity/internal/association/domain"
	associationrepo "github.com/smallbiznis/affinity/internal/association/repository"
	catalogdomain "github.com/smallbiznis/affinity/internal/catalog/domain"
)

// flakyStore fails the first UpsertAdd attempts with a retryable error,
// then delegates.
type flakyStore struct {
	associationdomain.Store
	failures int
	calls    int
}

func (f *flakyStore) UpsertAdd(ctx context.Context, pairs []associationdomain.Pair, calculatedAt time.Time) error {
	f.calls++
	if f.failures > 0 {
		f.failures--
		return errors.New("database is locked")
	}
	return f.Store.UpsertAdd(ctx, pairs, calculatedAt)
}

func TestIncremental_RetryDoesNotInflateStats(t *testing.T) {
	db := newEngineTestDB(t)
	seedCatalog(t, db)

	recent := testNow.AddDate(0, 0, -10)
	addOrder(t, db, 1, recent, catalogdomain.OrderStatusDelivered, 1, 2)
	addOrder(t, db, 2, recent, catalogdomain.OrderStatusDelivered, 1, 2)

	svc, ok := newEngineService(t, db).(*Service)
	require.True(t, ok)

	params := unweightedParams()
	params.BatchRetries = 2
	store := &flakyStore{Store: associationrepo.Provide(db), failures: 1}
	run := &runState{
		params:      params,
		windowStart: testNow.AddDate(0, 0, -params.WindowDays),
		windowEnd:   testNow,
		store:       store,
		log:         zap.NewNop(),
	}

	err := (&incrementalStrategy{svc: svc}).compute(context.Background(), run)
	require.NoError(t, err)

	assert.Equal(t, 2, store.calls, "one failed attempt plus one commit")
	assert.Equal(t, 1, run.stats.PairsConsidered, "retried attempts must not double-count pairs")
	assert.Equal(t, 1, run.stats.BatchesCommitted)
	assert.Equal(t, 0, run.stats.BatchesFailed)

	rows := storedAssociations(t, db)
	if assert.Len(t, rows, 1) {
		assert.Equal(t, int64(2), rows[0].FrequencyCount)
	}
}
