package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	associationdomain "github.com/smallbiznis/affinity/internal/association/domain"
	"github.com/smallbiznis/affinity/internal/clock"
	"github.com/smallbiznis/affinity/internal/config"
	obsmetrics "github.com/smallbiznis/affinity/internal/observability/metrics"
)

var ErrInvalidConfig = errors.New("invalid_scheduler_config")

type Params struct {
	fx.In

	Log            *zap.Logger
	AssociationSvc associationdomain.Service
	Tuning         *config.EngineTuningHolder
	Clock          clock.Clock
	Config         Config `optional:"true"`
}

// Scheduler reruns the association engine on a fixed interval so stored
// associations track the trailing order window.
type Scheduler struct {
	log    *zap.Logger
	cfg    Config
	svc    associationdomain.Service
	tuning *config.EngineTuningHolder
	clock  clock.Clock
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.AssociationSvc == nil || p.Tuning == nil || p.Clock == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		log:    p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:    p.Config.withDefaults(),
		svc:    p.AssociationSvc,
		tuning: p.Tuning,
		clock:  p.Clock,
	}, nil
}

func (s *Scheduler) runJob(parent context.Context, name string, fn func(ctx context.Context) error) error {
	start := s.clock.Now()
	ctx, cancel := context.WithTimeout(parent, s.cfg.JobTimeout)
	defer cancel()

	schedMetrics := obsmetrics.Scheduler()
	schedMetrics.IncJobRun(name)

	err := fn(ctx)
	schedMetrics.ObserveJobDuration(name, s.clock.Now().Sub(start))
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		schedMetrics.IncJobTimeout(name)
		s.log.Warn("job timed out",
			zap.String("job", name),
			zap.Duration("timeout", s.cfg.JobTimeout),
			zap.Error(err),
		)
		return nil
	}

	schedMetrics.IncJobError(name)
	return fmt.Errorf("%s: %w", name, err)
}

// RunOnce executes one scheduler iteration: a full rebuild followed by the
// optional stale sweep.
func (s *Scheduler) RunOnce(parent context.Context) error {
	var err error

	if s.isJobEnabled("rebuild") {
		err = errors.Join(err, s.runJob(parent, "rebuild", s.rebuildJob))
	}
	if s.cfg.StaleSweep && s.isJobEnabled("cleanup_stale") {
		err = errors.Join(err, s.runJob(parent, "cleanup_stale", s.cleanupStaleJob))
	}

	return err
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()
	nextRun := s.clock.Now().Add(s.cfg.RunInterval)
	schedMetrics := obsmetrics.Scheduler()

	for {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		runLag := s.clock.Now().Sub(nextRun)
		if runLag > 0 {
			schedMetrics.ObserveRunLoopLag(runLag)
		}
		nextRun = nextRun.Add(s.cfg.RunInterval)
	}
}

func (s *Scheduler) isJobEnabled(jobName string) bool {
	// An empty EnabledJobs list enables everything.
	if len(s.cfg.EnabledJobs) == 0 {
		return true
	}
	for _, enabled := range s.cfg.EnabledJobs {
		if strings.EqualFold(enabled, jobName) {
			return true
		}
	}
	return false
}

func (s *Scheduler) rebuildJob(ctx context.Context) error {
	result, err := s.svc.Rebuild(ctx, s.engineParams())
	if err != nil {
		return err
	}
	s.log.Info("rebuild finished",
		zap.String("run_id", result.RunID),
		zap.String("strategy", string(result.Strategy)),
		zap.Duration("duration", result.Duration),
		zap.Int64("stored_associations", result.Stats.StoredAssociations),
	)
	return nil
}

func (s *Scheduler) cleanupStaleJob(ctx context.Context) error {
	params := s.engineParams().WithDefaults()
	removed, err := s.svc.CleanupStale(ctx, params.StaleAfterDays)
	if err != nil {
		return err
	}
	if removed > 0 {
		s.log.Info("stale associations removed", zap.Int64("removed", removed))
	}
	return nil
}

// engineParams snapshots the hot-reloadable tuning for one iteration.
func (s *Scheduler) engineParams() associationdomain.Params {
	tuning := s.tuning.Get()
	return associationdomain.Params{
		WindowDays:         tuning.WindowDays,
		MinSupport:         tuning.MinSupport,
		CrossCategoryBoost: tuning.CrossCategoryBoost,
		SameBrandPenalty:   tuning.SameBrandPenalty,
		PerProductCap:      tuning.PerProductCap,
		RecencyWeight:      tuning.RecencyWeight,
	}
}
