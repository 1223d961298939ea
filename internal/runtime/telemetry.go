package runtime

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Telemetry owns the prometheus registry and the research pipeline collectors.
// A nil *Telemetry is valid and records nothing.
type Telemetry struct {
	registry        *prometheus.Registry
	reports         *prometheus.CounterVec
	extractFailures *prometheus.CounterVec
	searchFailures  prometheus.Counter
	stageDuration   *prometheus.HistogramVec
}

// NewTelemetry registers the pipeline collectors on a fresh registry.
func NewTelemetry() *Telemetry {
	reg := prometheus.NewRegistry()
	t := &Telemetry{
		registry: reg,
		reports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "researcher_reports_total",
			Help: "Reports persisted, by status.",
		}, []string{"status"}),
		extractFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "researcher_extract_failures_total",
			Help: "Sources skipped during extraction, by reason.",
		}, []string{"reason"}),
		searchFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "researcher_search_failures_total",
			Help: "Submissions aborted because search failed or returned nothing.",
		}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "researcher_stage_duration_seconds",
			Help:    "Wall time spent per pipeline stage.",
			Buckets: prometheus.DefBuckets,
		}, []string{"stage"}),
	}
	reg.MustRegister(
		t.reports, t.extractFailures, t.searchFailures, t.stageDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return t
}

// Handler serves the registry in the prometheus text format.
func (t *Telemetry) Handler() http.Handler {
	if t == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(t.registry, promhttp.HandlerOpts{})
}

func (t *Telemetry) ReportSaved(status string) {
	if t == nil {
		return
	}
	t.reports.WithLabelValues(status).Inc()
}

func (t *Telemetry) ExtractFailed(reason string) {
	if t == nil {
		return
	}
	t.extractFailures.WithLabelValues(reason).Inc()
}

func (t *Telemetry) SearchFailed() {
	if t == nil {
		return
	}
	t.searchFailures.Inc()
}

// ObserveStage records the time since start under the given stage label.
func (t *Telemetry) ObserveStage(stage string, start time.Time) {
	if t == nil {
		return
	}
	t.stageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}
