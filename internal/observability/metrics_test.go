package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsRecord(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.ObserveTurn("casual", 10*time.Millisecond)
	m.ObserveTurn("casual", 20*time.Millisecond)
	m.IncFallback("extract", "parse")
	m.IncReconcile("exact")
	m.IncReconcile("exact")
	m.IncReconcile("dropped")
	m.SetActiveSessions(3)
	m.SetBreakerState("llm_complete", 2)

	if got := testutil.ToFloat64(m.turns.WithLabelValues("casual")); got != 2 {
		t.Fatalf("turns: want=2 got=%v", got)
	}
	if got := testutil.ToFloat64(m.fallbacks.WithLabelValues("extract", "parse")); got != 1 {
		t.Fatalf("fallbacks: want=1 got=%v", got)
	}
	if got := testutil.ToFloat64(m.reconcile.WithLabelValues("exact")); got != 2 {
		t.Fatalf("reconcile exact: want=2 got=%v", got)
	}
	if got := testutil.ToFloat64(m.activeSessions); got != 3 {
		t.Fatalf("active sessions: want=3 got=%v", got)
	}
	if got := testutil.ToFloat64(m.breakerState.WithLabelValues("llm_complete")); got != 2 {
		t.Fatalf("breaker state: want=2 got=%v", got)
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.ObserveTurn("pipeline", time.Second)
	m.IncFallback("retrieve", "error")
	m.SetActiveSessions(1)
	if m.Handler() == nil {
		t.Fatalf("nil metrics should still return a handler")
	}
}
