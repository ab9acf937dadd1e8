package metrics

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SchedulerMetrics captures interval-runner health signals.
type SchedulerMetrics struct {
	jobRuns     *prometheus.CounterVec
	jobDuration *prometheus.HistogramVec
	jobTimeouts *prometheus.CounterVec
	jobErrors   *prometheus.CounterVec
	runLoopLag  prometheus.Observer
}

var (
	schedulerMetricsOnce sync.Once
	schedulerMetrics     *SchedulerMetrics
)

// Scheduler returns the singleton scheduler metrics registry.
func Scheduler() *SchedulerMetrics {
	return SchedulerWithConfig(Config{})
}

// SchedulerWithConfig returns the singleton scheduler metrics registry using config labels.
func SchedulerWithConfig(cfg Config) *SchedulerMetrics {
	schedulerMetricsOnce.Do(func() {
		schedulerMetrics = newSchedulerMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return schedulerMetrics
}

// ResetSchedulerMetricsForTest resets the scheduler metrics singleton for tests.
func ResetSchedulerMetricsForTest() {
	schedulerMetricsOnce = sync.Once{}
	schedulerMetrics = nil
}

func newSchedulerMetrics(registerer prometheus.Registerer, cfg Config) *SchedulerMetrics {
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

	jobRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "affinity_scheduler_job_runs_total",
		Help:        "Scheduler job executions by job name.",
		ConstLabels: constLabels,
	}, []string{"job"})
	jobDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "affinity_scheduler_job_duration_seconds",
		Help:        "Scheduler job latency by job name.",
		Buckets:     []float64{0.1, 0.5, 1, 5, 15, 60, 300, 1800, 7200},
		ConstLabels: constLabels,
	}, []string{"job"})
	jobTimeouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "affinity_scheduler_job_timeouts_total",
		Help:        "Scheduler jobs that hit their deadline.",
		ConstLabels: constLabels,
	}, []string{"job"})
	jobErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "affinity_scheduler_job_errors_total",
		Help:        "Scheduler job failures by job name.",
		ConstLabels: constLabels,
	}, []string{"job"})
	runLoopLag := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:        "affinity_scheduler_run_loop_lag_seconds",
		Help:        "Delay between the scheduled and the actual start of a loop iteration.",
		Buckets:     []float64{0.1, 0.5, 1, 5, 30, 120, 600},
		ConstLabels: constLabels,
	})

	for _, collector := range []prometheus.Collector{
		jobRuns, jobDuration, jobTimeouts, jobErrors, runLoopLag,
	} {
		if err := registerer.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				panic(err)
			}
		}
	}

	return &SchedulerMetrics{
		jobRuns:     jobRuns,
		jobDuration: jobDuration,
		jobTimeouts: jobTimeouts,
		jobErrors:   jobErrors,
		runLoopLag:  runLoopLag,
	}
}

func (m *SchedulerMetrics) IncJobRun(job string) {
	m.jobRuns.WithLabelValues(job).Inc()
}

func (m *SchedulerMetrics) ObserveJobDuration(job string, d time.Duration) {
	m.jobDuration.WithLabelValues(job).Observe(d.Seconds())
}

func (m *SchedulerMetrics) IncJobTimeout(job string) {
	m.jobTimeouts.WithLabelValues(job).Inc()
}

func (m *SchedulerMetrics) IncJobError(job string) {
	m.jobErrors.WithLabelValues(job).Inc()
}

func (m *SchedulerMetrics) ObserveRunLoopLag(d time.Duration) {
	m.runLoopLag.Observe(d.Seconds())
}
