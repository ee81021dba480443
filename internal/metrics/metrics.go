// Package metrics records prediction counters and latencies in a Prometheus
// registry that the CLI can dump to a textfile.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the collectors of one registry.
type Metrics struct {
	registry *prometheus.Registry

	predictionsTotal   *prometheus.CounterVec
	predictionDuration *prometheus.HistogramVec
	errorsTotal        *prometheus.CounterVec
	artifactLoads      *prometheus.CounterVec
	artifactLoadTime   *prometheus.HistogramVec
	textLength         prometheus.Histogram
	filesTotal         *prometheus.CounterVec
}

// New creates a registry and registers every collector on it.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		predictionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "langid_predictions_total",
				Help: "Total number of language predictions",
			},
			[]string{"branch", "code"}, // branch: alphabet, korean, japanese, fallback
		),

		predictionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "langid_prediction_duration_seconds",
				Help:    "Prediction duration in seconds",
				Buckets: []float64{.0005, .001, .005, .01, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"branch"},
		),

		errorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "langid_errors_total",
				Help: "Total number of failed predictions",
			},
			[]string{"stage"}, // stage: preprocess, load, predict
		),

		artifactLoads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "langid_artifact_loads_total",
				Help: "Total number of classifier artifact loads",
			},
			[]string{"backend", "status"},
		),

		artifactLoadTime: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "langid_artifact_load_duration_seconds",
				Help:    "Classifier load duration in seconds",
				Buckets: []float64{.001, .01, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"backend"},
		),

		textLength: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "langid_text_length",
				Help:    "Length of classified text in code points",
				Buckets: []float64{0, 10, 50, 100, 500, 1000, 5000, 10000, 50000},
			},
		),

		filesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "langid_batch_files_total",
				Help: "Total number of batch files processed",
			},
			[]string{"status"},
		),
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// RecordPrediction counts one successful prediction per returned code.
func (m *Metrics) RecordPrediction(branch string, codes []string, textLen int, took time.Duration) {
	if m == nil {
		return
	}
	for _, c := range codes {
		m.predictionsTotal.WithLabelValues(branch, c).Inc()
	}
	m.predictionDuration.WithLabelValues(branch).Observe(took.Seconds())
	m.textLength.Observe(float64(textLen))
}

// RecordError counts a failure at stage.
func (m *Metrics) RecordError(stage string) {
	if m == nil {
		return
	}
	m.errorsTotal.WithLabelValues(stage).Inc()
}

// RecordLoad matches classifier.LoadHook.
func (m *Metrics) RecordLoad(backend string, took time.Duration, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.artifactLoads.WithLabelValues(backend, status).Inc()
	m.artifactLoadTime.WithLabelValues(backend).Observe(took.Seconds())
}

// RecordFile counts one batch file.
func (m *Metrics) RecordFile(err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.filesTotal.WithLabelValues(status).Inc()
}

// WriteTextfile writes every metric in the text exposition format, for the
// node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}
