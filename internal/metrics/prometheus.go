package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder exposes batch screening metrics. A nil *Recorder is a valid no-op.
type Recorder struct {
	rowsTotal      *prometheus.CounterVec
	skippedTotal   *prometheus.CounterVec
	providerErrors *prometheus.CounterVec
	runDuration    *prometheus.HistogramVec
	lastSummary    *prometheus.GaugeVec
}

// New registers the metrics on reg.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		rowsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "equismart_batch_rows_total",
				Help: "Batch rows emitted, by remark",
			},
			[]string{"remark"},
		),
		skippedTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "equismart_batch_rows_skipped_total",
				Help: "Batch rows skipped, by reason",
			},
			[]string{"reason"},
		),
		providerErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "equismart_provider_errors_total",
				Help: "Quote, fundamentals and history lookups that failed",
			},
			[]string{"source"},
		),
		runDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "equismart_batch_run_duration_seconds",
				Help:    "Duration of batch runs in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"strategy"},
		),
		lastSummary: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "equismart_last_batch_rows",
				Help: "Row counts of the most recent batch run",
			},
			[]string{"bucket"},
		),
	}
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func (r *Recorder) RecordRow(remark string) {
	if r == nil {
		return
	}
	r.rowsTotal.WithLabelValues(remark).Inc()
}

func (r *Recorder) RecordSkip(reason string) {
	if r == nil {
		return
	}
	r.skippedTotal.WithLabelValues(reason).Inc()
}

func (r *Recorder) RecordProviderError(source string) {
	if r == nil {
		return
	}
	r.providerErrors.WithLabelValues(source).Inc()
}

// RecordRun stores the run duration and the latest summary counts.
func (r *Recorder) RecordRun(strategy string, d time.Duration, total, profitable, needsAveraging, skipped int) {
	if r == nil {
		return
	}
	r.runDuration.WithLabelValues(strategy).Observe(d.Seconds())
	r.lastSummary.WithLabelValues("total").Set(float64(total))
	r.lastSummary.WithLabelValues("profitable").Set(float64(profitable))
	r.lastSummary.WithLabelValues("needs_averaging").Set(float64(needsAveraging))
	r.lastSummary.WithLabelValues("skipped").Set(float64(skipped))
}
