// Package metrics holds the batch-job counters for vobload. Each run owns a
// private registry that is written out in node-exporter textfile format.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Document outcomes.
const (
	Succeeded    = "succeeded"
	Failed       = "failed"
	DeleteFailed = "delete_failed"
)

// Metrics is nil-safe: every method on a nil *Metrics is a no-op.
type Metrics struct {
	reg       *prometheus.Registry
	documents *prometheus.CounterVec
	searches  *prometheus.CounterVec
	duration  prometheus.Histogram
	lastRun   prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vobstats_ingest_documents_total",
			Help: "VOB documents processed by outcome.",
		}, []string{"outcome"}),
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vobstats_search_queries_total",
			Help: "Search calls by domain and result.",
		}, []string{"domain", "result"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "vobstats_ingest_duration_seconds",
			Help:    "Wall time of one ingest run.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "vobstats_last_run_timestamp_seconds",
			Help: "Unix time the last run finished.",
		}),
	}
	m.reg.MustRegister(m.documents, m.searches, m.duration, m.lastRun)
	return m
}

// Document counts one ingest outcome.
func (m *Metrics) Document(outcome string) {
	if m == nil {
		return
	}
	m.documents.WithLabelValues(outcome).Inc()
}

// IngestDone records the run duration and completion time.
func (m *Metrics) IngestDone(d time.Duration) {
	if m == nil {
		return
	}
	m.duration.Observe(d.Seconds())
	m.lastRun.SetToCurrentTime()
}

// SearchDone counts one search call.
func (m *Metrics) SearchDone(domain, result string) {
	if m == nil {
		return
	}
	m.searches.WithLabelValues(domain, result).Inc()
}

// Gatherer exposes the private registry.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.reg
}

// WriteTextfile writes every metric to path atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	m.lastRun.SetToCurrentTime()
	return prometheus.WriteToTextfile(path, m.reg)
}
