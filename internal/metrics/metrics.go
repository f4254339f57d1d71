// Package metrics exports Prometheus collectors for a benchmark batch. Each
// Metrics owns its registry so tests and embedded apps do not share state
// through the global default registerer.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Run outcomes used as the status label.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
	StatusSkipped   = "skipped"
)

// Metrics holds all collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	ScenesTotal        prometheus.Gauge
	SceneRuns          *prometheus.CounterVec
	SceneDuration      *prometheus.HistogramVec
	ArtifactsCollected *prometheus.CounterVec
	ArtifactsMissing   *prometheus.CounterVec
	ArtifactsArchived  prometheus.Counter
	ArchiveErrors      prometheus.Counter
}

// New creates the collectors under namespace, labelled with the benchmark name.
func New(namespace, benchmark string) *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	labels := prometheus.Labels{"benchmark": benchmark}

	return &Metrics{
		registry: reg,
		ScenesTotal: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "scenes",
			Help:        "Number of scenes configured for the batch",
			ConstLabels: labels,
		}),
		SceneRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "scene_runs_total",
			Help:        "Trainer invocations by scene and outcome",
			ConstLabels: labels,
		}, []string{"scene", "status"}),
		SceneDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "scene_run_duration_seconds",
			Help:        "Wall time of one trainer invocation",
			Buckets:     []float64{1, 10, 60, 300, 600, 1200, 1800, 3600, 7200},
			ConstLabels: labels,
		}, []string{"scene"}),
		ArtifactsCollected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "artifacts_collected_total",
			Help:        "Stats artifacts read by the reporter",
			ConstLabels: labels,
		}, []string{"kind"}),
		ArtifactsMissing: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "artifacts_missing_total",
			Help:        "Stats artifacts absent or unreadable at report time",
			ConstLabels: labels,
		}, []string{"kind"}),
		ArtifactsArchived: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "artifacts_archived_total",
			Help:        "Stats artifacts uploaded to the archive bucket",
			ConstLabels: labels,
		}),
		ArchiveErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "archive_errors_total",
			Help:        "Failed archive uploads",
			ConstLabels: labels,
		}),
	}
}

// Registry returns the registry backing m.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// SetScenes records the size of the batch.
func (m *Metrics) SetScenes(n int) {
	if m == nil {
		return
	}
	m.ScenesTotal.Set(float64(n))
}

// ObserveRun records one trainer invocation.
func (m *Metrics) ObserveRun(scene, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.SceneRuns.WithLabelValues(scene, status).Inc()
	if status != StatusSkipped {
		m.SceneDuration.WithLabelValues(scene).Observe(d.Seconds())
	}
}

// ObserveArtifact records whether an artifact of kind was found.
func (m *Metrics) ObserveArtifact(kind string, found bool) {
	if m == nil {
		return
	}
	if found {
		m.ArtifactsCollected.WithLabelValues(kind).Inc()
		return
	}
	m.ArtifactsMissing.WithLabelValues(kind).Inc()
}

// ObserveArchive records the outcome of one upload.
func (m *Metrics) ObserveArchive(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.ArchiveErrors.Inc()
		return
	}
	m.ArtifactsArchived.Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// WriteTextfile writes the registry for the node_exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
