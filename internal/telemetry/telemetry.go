package telemetry

import (
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/mohammad-safakhou/scholar/config"
)

// Telemetry records workflow, LLM and search metrics for the service.
// A nil *Telemetry is valid and records nothing, so components can take
// it as an optional dependency.
type Telemetry struct {
	enabled bool
	logger  *log.Logger

	stepExecutions *prometheus.CounterVec
	stepDuration   *prometheus.HistogramVec
	llmRequests    *prometheus.CounterVec
	searchRequests *prometheus.CounterVec
	activeStreams  prometheus.Gauge
}

var (
	metricsOnce sync.Once
	shared      struct {
		stepExecutions *prometheus.CounterVec
		stepDuration   *prometheus.HistogramVec
		llmRequests    *prometheus.CounterVec
		searchRequests *prometheus.CounterVec
		activeStreams  prometheus.Gauge
	}
)

func initMetrics() {
	shared.stepExecutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scholar_step_executions_total",
		Help: "Workflow step executions by step name and outcome",
	}, []string{"step", "outcome"})
	shared.stepDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scholar_step_duration_seconds",
		Help:    "Workflow step wall time by step name",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
	}, []string{"step"})
	shared.llmRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scholar_llm_requests_total",
		Help: "LLM completions by template and outcome",
	}, []string{"template", "outcome"})
	shared.searchRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scholar_search_requests_total",
		Help: "Web search calls by provider and outcome",
	}, []string{"provider", "outcome"})
	shared.activeStreams = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "scholar_active_streams",
		Help: "Currently open answer streams",
	})
}

// New creates a telemetry instance. Collectors are process-wide and
// registered once regardless of how many instances are created.
func New(cfg config.TelemetryConfig) *Telemetry {
	metricsOnce.Do(initMetrics)
	return &Telemetry{
		enabled:        cfg.Enabled,
		logger:         log.New(log.Writer(), "[TELEMETRY] ", log.LstdFlags),
		stepExecutions: shared.stepExecutions,
		stepDuration:   shared.stepDuration,
		llmRequests:    shared.llmRequests,
		searchRequests: shared.searchRequests,
		activeStreams:  shared.activeStreams,
	}
}

// RecordStep records one workflow step execution.
func (t *Telemetry) RecordStep(step string, d time.Duration, err error) {
	if t == nil || !t.enabled {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	t.stepExecutions.WithLabelValues(step, outcome).Inc()
	t.stepDuration.WithLabelValues(step).Observe(d.Seconds())
	if err != nil {
		t.logger.Printf("step %s failed after %v: %v", step, d, err)
	}
}

// RecordLLM records one LLM call by template id.
func (t *Telemetry) RecordLLM(template string, err error) {
	if t == nil || !t.enabled {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	t.llmRequests.WithLabelValues(template, outcome).Inc()
}

// RecordSearch records one web search call.
func (t *Telemetry) RecordSearch(provider string, err error) {
	if t == nil || !t.enabled {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	t.searchRequests.WithLabelValues(provider, outcome).Inc()
}

// StreamStarted marks an answer stream as open; the returned func closes it.
func (t *Telemetry) StreamStarted() func() {
	if t == nil || !t.enabled {
		return func() {}
	}
	t.activeStreams.Inc()
	return func() { t.activeStreams.Dec() }
}
