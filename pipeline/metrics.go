package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus instruments for workflow execution. All
// methods are nil-safe so a Workflow without metrics skips instrumentation.
type Metrics struct {
	stageDuration  *prometheus.HistogramVec
	workflowsTotal *prometheus.CounterVec
	inflightRuns   prometheus.Gauge
	imageFailures  prometheus.Counter
}

// NewMetrics creates the workflow instruments and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "socialflow",
			Name:      "stage_duration_seconds",
			Help:      "Wall-clock duration of each pipeline stage.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}, []string{"stage", "status"}),
		workflowsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "socialflow",
			Name:      "workflows_total",
			Help:      "Completed workflow runs by outcome.",
		}, []string{"outcome"}),
		inflightRuns: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "socialflow",
			Name:      "workflows_inflight",
			Help:      "Workflow runs currently executing.",
		}),
		imageFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "socialflow",
			Name:      "image_stage_failures_total",
			Help:      "Image stage failures tolerated by otherwise successful runs.",
		}),
	}
	reg.MustRegister(m.stageDuration, m.workflowsTotal, m.inflightRuns, m.imageFailures)
	return m
}

// ObserveStage records one stage execution with its duration and status
// ("ok" or "error").
func (m *Metrics) ObserveStage(stage string, d time.Duration, status string) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage, status).Observe(d.Seconds())
}

// RunStarted marks a workflow run as in flight.
func (m *Metrics) RunStarted() {
	if m == nil {
		return
	}
	m.inflightRuns.Inc()
}

// RunFinished records the run outcome ("success" or "error") and drops the
// inflight count.
func (m *Metrics) RunFinished(outcome string) {
	if m == nil {
		return
	}
	m.inflightRuns.Dec()
	m.workflowsTotal.WithLabelValues(outcome).Inc()
}

// ImageFailure counts an image stage failure on an otherwise successful run.
func (m *Metrics) ImageFailure() {
	if m == nil {
		return
	}
	m.imageFailures.Inc()
}
