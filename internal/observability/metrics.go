package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "wildfire_etl"

// Metrics holds the Prometheus counters, histograms, and gauges for the wildfire pipeline.
type Metrics struct {
	FetchRequests *prometheus.CounterVec // labels: source={MODIS,VIIRS}, outcome={success,timeout,http_error,network_error,invalid_payload}
	RowsParsed    *prometheus.CounterVec // labels: source
	RowsSkipped   *prometheus.CounterVec // labels: source

	DetectionsFiltered prometheus.Counter
	DuplicatesDropped  prometheus.Counter
	SnapshotDetections prometheus.Gauge
	PipelineRunning    prometheus.Gauge

	// Cycle metrics.
	CycleDuration  prometheus.Histogram
	Cycles         *prometheus.CounterVec // labels: outcome={success,no_detections}
	SnapshotWrites *prometheus.CounterVec // labels: outcome={success,error}

	// Wind enrichment metrics.
	WindRequests *prometheus.CounterVec // labels: outcome={success,error}
	WindCache    *prometheus.CounterVec // labels: result={hit,miss}
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		FetchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_requests_total",
			Help:      "FIRMS source fetches by sensor and outcome.",
		}, []string{"source", "outcome"}),
		RowsParsed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_parsed_total",
			Help:      "CSV rows converted into detections.",
		}, []string{"source"}),
		RowsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_skipped_total",
			Help:      "Malformed CSV rows dropped by the parser.",
		}, []string{"source"}),
		DetectionsFiltered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "detections_filtered_total",
			Help:      "Detections removed by the region filter.",
		}),
		DuplicatesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicates_dropped_total",
			Help:      "Detections removed as spatial duplicates.",
		}),
		SnapshotDetections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_detections",
			Help:      "Number of detections in the current snapshot.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Duration of a complete fetch-and-process cycle.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		Cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Pipeline cycles by outcome.",
		}, []string{"outcome"}),
		SnapshotWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_writes_total",
			Help:      "Snapshot persistence attempts by outcome.",
		}, []string{"outcome"}),
		WindRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "wind_requests_total",
			Help:      "Open-Meteo wind lookups by outcome.",
		}, []string{"outcome"}),
		WindCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "wind_cache_total",
			Help:      "Wind cache lookups by result.",
		}, []string{"result"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.FetchRequests,
		m.RowsParsed,
		m.RowsSkipped,
		m.DetectionsFiltered,
		m.DuplicatesDropped,
		m.SnapshotDetections,
		m.PipelineRunning,
		m.CycleDuration,
		m.Cycles,
		m.SnapshotWrites,
		m.WindRequests,
		m.WindCache,
	}
}
