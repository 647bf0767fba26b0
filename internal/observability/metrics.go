package observability

import (
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yungbote/mba-counselor/internal/platform/logger"
)

type Metrics struct {
	registry *prometheus.Registry

	apiRequests    *prometheus.CounterVec
	apiLatency     *prometheus.HistogramVec
	turns          *prometheus.CounterVec
	turnLatency    *prometheus.HistogramVec
	stageLatency   *prometheus.HistogramVec
	fallbacks      *prometheus.CounterVec
	reconcile      *prometheus.CounterVec
	llmRequests    *prometheus.CounterVec
	llmLatency     *prometheus.HistogramVec
	breakerState   *prometheus.GaugeVec
	vectorOps      *prometheus.HistogramVec
	activeSessions prometheus.Gauge
}

var (
	initMu   sync.Mutex
	instance *Metrics
)

func Enabled() bool {
	v := strings.TrimSpace(os.Getenv("METRICS_ENABLED"))
	if v == "" {
		return true
	}
	return strings.EqualFold(v, "true") || v == "1" || strings.EqualFold(v, "yes")
}

// Current returns the process-wide metrics, or nil before Init. All methods are nil-safe.
func Current() *Metrics {
	initMu.Lock()
	defer initMu.Unlock()
	return instance
}

// Init builds the process-wide metrics once; later calls return the same instance.
func Init(log *logger.Logger) *Metrics {
	initMu.Lock()
	defer initMu.Unlock()
	if instance != nil {
		return instance
	}
	instance = NewMetrics(prometheus.NewRegistry())
	instance.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if log != nil {
		log.Info("metrics initialized")
	}
	return instance
}

// NewMetrics registers the counselor collectors on reg.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		apiRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "counselor_api_requests_total",
			Help: "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		apiLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "counselor_api_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		turns: f.NewCounterVec(prometheus.CounterOpts{
			Name: "counselor_turns_total",
			Help: "Conversation turns by route (casual, pipeline, error)",
		}, []string{"route"}),
		turnLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "counselor_turn_duration_seconds",
			Help:    "End to end turn latency",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		}, []string{"route"}),
		stageLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "counselor_stage_duration_seconds",
			Help:    "Recommendation pipeline stage latency",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
		}, []string{"stage"}),
		fallbacks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "counselor_fallbacks_total",
			Help: "Degraded paths taken by pipeline stage and reason",
		}, []string{"stage", "reason"}),
		reconcile: f.NewCounterVec(prometheus.CounterOpts{
			Name: "counselor_reconcile_total",
			Help: "Generated recommendation entries by matching strategy",
		}, []string{"strategy"}),
		llmRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "counselor_llm_requests_total",
			Help: "Model API calls by operation and status",
		}, []string{"operation", "status"}),
		llmLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "counselor_llm_request_duration_seconds",
			Help:    "Model API call latency",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"operation"}),
		breakerState: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "counselor_llm_breaker_state",
			Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
		}, []string{"name"}),
		vectorOps: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "counselor_vector_store_duration_seconds",
			Help:    "Vector store operation latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider", "operation", "status"}),
		activeSessions: f.NewGauge(prometheus.GaugeOpts{
			Name: "counselor_active_sessions",
			Help: "Sessions currently held by the registry",
		}),
	}
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unknown"
	}
	m.apiRequests.WithLabelValues(method, route, status).Inc()
	m.apiLatency.WithLabelValues(method, route).Observe(dur.Seconds())
}

func (m *Metrics) ObserveTurn(route string, dur time.Duration) {
	if m == nil {
		return
	}
	m.turns.WithLabelValues(route).Inc()
	m.turnLatency.WithLabelValues(route).Observe(dur.Seconds())
}

func (m *Metrics) ObserveStage(stage string, dur time.Duration) {
	if m == nil {
		return
	}
	m.stageLatency.WithLabelValues(stage).Observe(dur.Seconds())
}

func (m *Metrics) IncFallback(stage, reason string) {
	if m == nil {
		return
	}
	m.fallbacks.WithLabelValues(stage, reason).Inc()
}

func (m *Metrics) IncReconcile(strategy string) {
	if m == nil {
		return
	}
	m.reconcile.WithLabelValues(strategy).Inc()
}

func (m *Metrics) ObserveLLMRequest(operation, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.llmRequests.WithLabelValues(operation, status).Inc()
	m.llmLatency.WithLabelValues(operation).Observe(dur.Seconds())
}

func (m *Metrics) SetBreakerState(name string, state float64) {
	if m == nil {
		return
	}
	m.breakerState.WithLabelValues(name).Set(state)
}

func (m *Metrics) ObserveVectorStoreOperation(provider, operation, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.vectorOps.WithLabelValues(provider, operation, status).Observe(dur.Seconds())
}

func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.activeSessions.Set(float64(n))
}
