package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain/repository.Metrics using Prometheus.
type Recorder struct {
	sourceWins      *prometheus.CounterVec
	sourceErrors    *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	agentCalls      *prometheus.CounterVec
	agentLatency    prometheus.Histogram
	cacheDegraded   prometheus.Gauge
	pickSetSize     prometheus.Gauge
	refreshDuration prometheus.Histogram
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		sourceWins: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trendpulse_source_wins_total",
				Help: "Times a data source produced the winning result",
			},
			[]string{"component", "source"},
		),
		sourceErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trendpulse_source_errors_total",
				Help: "Errors per data source (handled by fallback)",
			},
			[]string{"component", "source"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trendpulse_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		agentCalls: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trendpulse_agent_calls_total",
				Help: "External classifier attempts by result",
			},
			[]string{"result"},
		),
		agentLatency: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "trendpulse_agent_latency_seconds",
				Help:    "External classifier call latency",
				Buckets: prometheus.DefBuckets,
			},
		),
		cacheDegraded: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "trendpulse_cache_degraded",
				Help: "1 while the shared cache store is unreachable",
			},
		),
		pickSetSize: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "trendpulse_pickset_size",
				Help: "Recommendations in the current session pick-set",
			},
		),
		refreshDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "trendpulse_refresh_duration_seconds",
				Help:    "Duration of a full pick-set refresh cycle",
				Buckets: []float64{.5, 1, 2.5, 5, 10, 20, 30, 60},
			},
		),
	}
}

// RecordSourceWin records which source produced the winning result.
func (r *Recorder) RecordSourceWin(component, source string) {
	r.sourceWins.WithLabelValues(component, source).Inc()
}

// RecordSourceError records a handled per-source failure.
func (r *Recorder) RecordSourceError(component, source string) {
	r.sourceErrors.WithLabelValues(component, source).Inc()
}

// RecordError records an error occurrence by kind.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordAgentCall records one classifier attempt and its latency.
func (r *Recorder) RecordAgentCall(ok bool, elapsed time.Duration) {
	result := "ok"
	if !ok {
		result = "error"
	}
	r.agentCalls.WithLabelValues(result).Inc()
	r.agentLatency.Observe(elapsed.Seconds())
}

// SetCacheDegraded flips the degraded-cache gauge.
func (r *Recorder) SetCacheDegraded(degraded bool) {
	if degraded {
		r.cacheDegraded.Set(1)
		return
	}
	r.cacheDegraded.Set(0)
}

// RecordPickSetSize records the size of the current pick-set.
func (r *Recorder) RecordPickSetSize(n int) {
	r.pickSetSize.Set(float64(n))
}

// RecordRefreshDuration records a refresh cycle duration.
func (r *Recorder) RecordRefreshDuration(elapsed time.Duration) {
	r.refreshDuration.Observe(elapsed.Seconds())
}
