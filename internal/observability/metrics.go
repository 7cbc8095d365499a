package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "vulnerapp"

// Metrics holds the Prometheus counters, histograms, and gauges for the dashboard.
type Metrics struct {
	// HTTP surface.
	HTTPRequests        *prometheus.CounterVec   // labels: route, code
	HTTPRequestDuration *prometheus.HistogramVec // labels: route

	// Figures.
	FigureBuildDuration *prometheus.HistogramVec // labels: figure={historical,predictions}
	FigureCache         *prometheus.CounterVec   // labels: result={hit,miss}
	ChartRenderErrors   *prometheus.CounterVec   // labels: format={svg,png}

	// Datasets.
	DatasetRows    *prometheus.GaugeVec   // labels: dataset={levels,flows,predictions,live}
	DatasetReloads *prometheus.CounterVec // labels: outcome={success,error}
	LiveDropped    *prometheus.CounterVec // labels: reason={stale,evicted}

	// Live measurement ingest.
	MessagesConsumed        prometheus.Counter
	MeasurementsLoaded      prometheus.Counter
	TransformErrors         prometheus.Counter
	IngestRunning           prometheus.Gauge
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram
}

// NewMetrics creates and registers all dashboard metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics that are not registered, so tests can
// build as many as they need without "already registered" panics.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern and status code.",
		}, []string{"route", "code"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"route"}),
		FigureBuildDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "figure_build_duration_seconds",
			Help:      "Time spent slicing data and building a figure.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"figure"}),
		FigureCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "figure_cache_total",
			Help:      "Figure cache lookups by result.",
		}, []string{"result"}),
		ChartRenderErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chart_render_errors_total",
			Help:      "Server-side chart rendering failures by image format.",
		}, []string{"format"}),
		DatasetRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_rows",
			Help:      "Rows in the current dataset snapshot.",
		}, []string{"dataset"}),
		DatasetReloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dataset_reloads_total",
			Help:      "Dataset reloads from disk by outcome.",
		}, []string{"outcome"}),
		LiveDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "live_measurements_dropped_total",
			Help:      "Live measurements dropped from the overlay by reason.",
		}, []string{"reason"}),
		MessagesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_consumed_total",
			Help:      "Total messages read from the measurement topic.",
		}),
		MeasurementsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "measurements_loaded_total",
			Help:      "Total live measurements merged into the dataset.",
		}),
		TransformErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transform_errors_total",
			Help:      "Total measurement messages that could not be parsed.",
		}),
		IngestRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ingest_running",
			Help:      "1 when the measurement ingest is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Number of messages per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-transform-load cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.HTTPRequests,
		m.HTTPRequestDuration,
		m.FigureBuildDuration,
		m.FigureCache,
		m.ChartRenderErrors,
		m.DatasetRows,
		m.DatasetReloads,
		m.LiveDropped,
		m.MessagesConsumed,
		m.MeasurementsLoaded,
		m.TransformErrors,
		m.IngestRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
	}
}
