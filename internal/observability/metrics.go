package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the card service.
type Metrics struct {
	StateChangesConsumed prometheus.Counter
	StateChangesApplied  prometheus.Counter
	DecodeErrors         prometheus.Counter
	SurfacesPublished    prometheus.Counter
	PipelineRunning      prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Card render metrics.
	RendersCommitted *prometheus.CounterVec // labels: entity
	RendersSkipped   *prometheus.CounterVec // labels: entity, reason={missing_entity,render_error}
	RenderDuration   prometheus.Histogram
	NeedleAngle      *prometheus.GaugeVec // labels: entity
	TotalFireBan     *prometheus.GaugeVec // labels: entity
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.StateChangesConsumed,
		m.StateChangesApplied,
		m.DecodeErrors,
		m.SurfacesPublished,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.RendersCommitted,
		m.RendersSkipped,
		m.RenderDuration,
		m.NeedleAngle,
		m.TotalFireBan,
	)

	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		StateChangesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fire_danger_card",
			Name:      "state_changes_consumed_total",
			Help:      "Total state change messages read from the source topic.",
		}),
		StateChangesApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fire_danger_card",
			Name:      "state_changes_applied_total",
			Help:      "Total entity writes and removals applied to the state store.",
		}),
		DecodeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fire_danger_card",
			Name:      "decode_errors_total",
			Help:      "Total state change messages that could not be decoded.",
		}),
		SurfacesPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fire_danger_card",
			Name:      "surfaces_published_total",
			Help:      "Total rendered card surfaces written to the sink topic.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "fire_danger_card",
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "fire_danger_card",
			Name:      "batch_size",
			Help:      "Number of state change messages per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "fire_danger_card",
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete extract-apply-render-publish cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		RendersCommitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fire_danger_card",
			Name:      "renders_committed_total",
			Help:      "Card surfaces rebuilt and committed, by card entity.",
		}, []string{"entity"}),
		RendersSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fire_danger_card",
			Name:      "renders_skipped_total",
			Help:      "Render passes that left the surface untouched, by card entity and reason.",
		}, []string{"entity", "reason"}),
		RenderDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "fire_danger_card",
			Name:      "render_duration_seconds",
			Help:      "Duration of a single card render pass.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}),
		NeedleAngle: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "fire_danger_card",
			Name:      "needle_angle_degrees",
			Help:      "Gauge needle rotation of the last committed surface.",
		}, []string{"entity"}),
		TotalFireBan: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "fire_danger_card",
			Name:      "total_fire_ban",
			Help:      "1 when today's total fire ban is shown on the card, 0 otherwise.",
		}, []string{"entity"}),
	}
}
