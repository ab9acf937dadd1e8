package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestAddPairs(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := newEngineMetrics(registry, Config{
		ServiceName: "affinity",
		Environment: "test",
	})

	metrics.AddPairs(PairOutcomeAccepted, 7)
	metrics.AddPairs(PairOutcomeAccepted, 0)

	got := testutil.ToFloat64(metrics.pairs.WithLabelValues(PairOutcomeAccepted))
	if got != 7 {
		t.Fatalf("expected accepted pair count 7, got %v", got)
	}
}

func TestIncBatch(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := newEngineMetrics(registry, Config{})

	metrics.IncBatch(BatchResultCommitted)
	metrics.IncBatch(BatchResultCommitted)
	metrics.IncBatch(BatchResultFailed)

	if got := testutil.ToFloat64(metrics.batches.WithLabelValues(BatchResultCommitted)); got != 2 {
		t.Fatalf("expected 2 committed batches, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.batches.WithLabelValues(BatchResultFailed)); got != 1 {
		t.Fatalf("expected 1 failed batch, got %v", got)
	}
}
