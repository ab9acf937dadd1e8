package metrics

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	RunErrorTypeConfig    = "config"
	RunErrorTypeDB        = "db"
	RunErrorTypeDeadline  = "deadline_exceeded"
	RunErrorTypeUnknown   = "unknown"
	BatchResultCommitted  = "committed"
	BatchResultRetried    = "retried"
	BatchResultFailed     = "failed"
	PairOutcomeConsidered = "considered"
	PairOutcomeAccepted   = "accepted"
	PairOutcomeCap        = "dropped_cap"
	PairOutcomeMeta       = "dropped_missing_metadata"
	PairOutcomeCeiling    = "dropped_ceiling"
	PairOutcomeSupport    = "dropped_support"
)

// Config carries constant labels for the engine metrics.
type Config struct {
	ServiceName string
	Environment string
}

// EngineMetrics captures association engine health signals.
type EngineMetrics struct {
	runs         *prometheus.CounterVec
	runDuration  *prometheus.HistogramVec
	runErrors    *prometheus.CounterVec
	batches      *prometheus.CounterVec
	pairs        *prometheus.CounterVec
	associations prometheus.Gauge
	pruned       prometheus.Counter
	stale        prometheus.Counter
}

var (
	engineMetricsOnce sync.Once
	engineMetrics     *EngineMetrics
)

// Engine returns the singleton engine metrics registry.
func Engine() *EngineMetrics {
	return EngineWithConfig(Config{})
}

// EngineWithConfig returns the singleton engine metrics registry using config labels.
func EngineWithConfig(cfg Config) *EngineMetrics {
	engineMetricsOnce.Do(func() {
		engineMetrics = newEngineMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return engineMetrics
}

// ResetEngineMetricsForTest resets the engine metrics singleton for tests.
func ResetEngineMetricsForTest() {
	engineMetricsOnce = sync.Once{}
	engineMetrics = nil
}

func newEngineMetrics(registerer prometheus.Registerer, cfg Config) *EngineMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "affinity"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "affinity_engine_runs_total",
		Help:        "Association engine runs by strategy.",
		ConstLabels: constLabels,
	}, []string{"strategy"})
	runDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "affinity_engine_run_duration_seconds",
		Help:        "Association engine run latency by strategy.",
		Buckets:     []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600, 1800, 3600},
		ConstLabels: constLabels,
	}, []string{"strategy"})
	runErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "affinity_engine_run_errors_total",
		Help:        "Association engine run errors by low-cardinality type.",
		ConstLabels: constLabels,
	}, []string{"strategy", "type"})
	batches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "affinity_engine_batches_total",
		Help:        "Incremental range batches by result.",
		ConstLabels: constLabels,
	}, []string{"result"})
	pairs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "affinity_engine_pairs_total",
		Help:        "Candidate pairs by pipeline outcome.",
		ConstLabels: constLabels,
	}, []string{"outcome"})
	associations := prometheus.NewGauge(prometheus.GaugeOpts{
		Name:        "affinity_engine_associations",
		Help:        "Stored associations after the most recent run.",
		ConstLabels: constLabels,
	})
	pruned := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "affinity_engine_pruned_total",
		Help:        "Associations removed by support pruning.",
		ConstLabels: constLabels,
	})
	stale := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "affinity_engine_stale_removed_total",
		Help:        "Associations removed by stale cleanup.",
		ConstLabels: constLabels,
	})

	for _, collector := range []prometheus.Collector{
		runs, runDuration, runErrors, batches, pairs, associations, pruned, stale,
	} {
		if err := registerer.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				panic(err)
			}
		}
	}

	return &EngineMetrics{
		runs:         runs,
		runDuration:  runDuration,
		runErrors:    runErrors,
		batches:      batches,
		pairs:        pairs,
		associations: associations,
		pruned:       pruned,
		stale:        stale,
	}
}

func (m *EngineMetrics) IncRun(strategy string) {
	m.runs.WithLabelValues(strategy).Inc()
}

func (m *EngineMetrics) ObserveRunDuration(strategy string, d time.Duration) {
	m.runDuration.WithLabelValues(strategy).Observe(d.Seconds())
}

func (m *EngineMetrics) IncRunError(strategy, errType string) {
	m.runErrors.WithLabelValues(strategy, errType).Inc()
}

func (m *EngineMetrics) IncBatch(result string) {
	m.batches.WithLabelValues(result).Inc()
}

func (m *EngineMetrics) AddPairs(outcome string, n int) {
	if n <= 0 {
		return
	}
	m.pairs.WithLabelValues(outcome).Add(float64(n))
}

func (m *EngineMetrics) SetAssociations(n int64) {
	m.associations.Set(float64(n))
}

func (m *EngineMetrics) AddPruned(n int64) {
	if n > 0 {
		m.pruned.Add(float64(n))
	}
}

func (m *EngineMetrics) AddStaleRemoved(n int64) {
	if n > 0 {
		m.stale.Add(float64(n))
	}
}
