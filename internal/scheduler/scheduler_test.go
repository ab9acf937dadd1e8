package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	associationdomain "github.com/smallbiznis/affinity/internal/association/domain"
	"github.com/smallbiznis/affinity/internal/clock"
	"github.com/smallbiznis/affinity/internal/config"
)

type stubAssociationService struct {
	rebuilds    int
	cleanups    int
	rebuildErr  error
	lastParams  associationdomain.Params
	lastCleanup int
}

func (s *stubAssociationService) Rebuild(ctx context.Context, params associationdomain.Params) (*associationdomain.RunResult, error) {
	s.rebuilds++
	s.lastParams = params
	if s.rebuildErr != nil {
		return nil, s.rebuildErr
	}
	return &associationdomain.RunResult{
		RunID:    "run-1",
		Strategy: associationdomain.StrategyDirect,
	}, nil
}

func (s *stubAssociationService) Prune(ctx context.Context, minSupport int) (int64, error) {
	return 0, nil
}

func (s *stubAssociationService) CleanupStale(ctx context.Context, olderThanDays int) (int64, error) {
	s.cleanups++
	s.lastCleanup = olderThanDays
	return 1, nil
}

func tuningHolder(t *testing.T) *config.EngineTuningHolder {
	t.Helper()
	holder, err := config.NewEngineTuningHolder()
	require.NoError(t, err)
	return holder
}

func newTestScheduler(t *testing.T, svc associationdomain.Service, cfg Config) *Scheduler {
	t.Helper()
	sched, err := New(Params{
		Log:            zap.NewNop(),
		AssociationSvc: svc,
		Tuning:         tuningHolder(t),
		Clock:          clock.NewFakeClock(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)),
		Config:         cfg,
	})
	require.NoError(t, err)
	return sched
}

func TestRunOnce_RebuildAndSweep(t *testing.T) {
	svc := &stubAssociationService{}
	sched := newTestScheduler(t, svc, Config{StaleSweep: true})

	require.NoError(t, sched.RunOnce(context.Background()))

	assert.Equal(t, 1, svc.rebuilds)
	assert.Equal(t, 1, svc.cleanups)
	assert.Equal(t, associationdomain.DefaultParams().StaleAfterDays, svc.lastCleanup)
}

func TestRunOnce_TuningFlowsIntoParams(t *testing.T) {
	svc := &stubAssociationService{}
	sched := newTestScheduler(t, svc, Config{})

	require.NoError(t, sched.RunOnce(context.Background()))

	defaults := config.DefaultEngineTuning()
	assert.Equal(t, defaults.MinSupport, svc.lastParams.MinSupport)
	assert.Equal(t, defaults.PerProductCap, svc.lastParams.PerProductCap)
	assert.Equal(t, defaults.WindowDays, svc.lastParams.WindowDays)
	assert.Equal(t, defaults.CrossCategoryBoost, svc.lastParams.CrossCategoryBoost)
}

func TestRunOnce_StaleSweepDisabled(t *testing.T) {
	svc := &stubAssociationService{}
	sched := newTestScheduler(t, svc, Config{StaleSweep: false, EnabledJobs: []string{"rebuild"}})

	require.NoError(t, sched.RunOnce(context.Background()))

	assert.Equal(t, 1, svc.rebuilds)
	assert.Equal(t, 0, svc.cleanups)
}

func TestRunOnce_RebuildFailureSurfaces(t *testing.T) {
	svc := &stubAssociationService{rebuildErr: errors.New("boom")}
	sched := newTestScheduler(t, svc, Config{StaleSweep: true})

	err := sched.RunOnce(context.Background())
	assert.Error(t, err)
	// The sweep still ran despite the rebuild failure.
	assert.Equal(t, 1, svc.cleanups)
}

func TestRunOnce_TimeoutIsSoft(t *testing.T) {
	svc := &stubAssociationService{rebuildErr: context.DeadlineExceeded}
	sched := newTestScheduler(t, svc, Config{})

	assert.NoError(t, sched.RunOnce(context.Background()))
}

func TestNew_RequiresDependencies(t *testing.T) {
	_, err := New(Params{Log: zap.NewNop()})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestConfig_WithDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	assert.Equal(t, 24*time.Hour, cfg.RunInterval)
	assert.Equal(t, 2*time.Hour, cfg.JobTimeout)

	custom := Config{RunInterval: time.Hour, JobTimeout: time.Minute}.withDefaults()
	assert.Equal(t, time.Hour, custom.RunInterval)
	assert.Equal(t, time.Minute, custom.JobTimeout)
}
