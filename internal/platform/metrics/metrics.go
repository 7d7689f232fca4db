// Package metrics holds the Prometheus collectors the worker exposes on /metrics
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "taskdata"

// Outcome labels for processed inbox messages
const (
	OutcomeDecoded  = "decoded"
	OutcomeSkipped  = "skipped"
	OutcomeRejected = "rejected"
	OutcomeRetried  = "retried"
	OutcomeFailed   = "failed"
)

// NewRegistry returns a registry with the Go runtime and process collectors
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler serves the registry in the Prometheus exposition format
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// Ingest groups the inbox worker collectors; a nil *Ingest records nothing
type Ingest struct {
	messages      *prometheus.CounterVec
	decodeErrors  *prometheus.CounterVec
	documents     prometheus.Counter
	entries       prometheus.Counter
	decodeSeconds prometheus.Histogram
	archiveBytes  prometheus.Histogram
	inflight      prometheus.Gauge
}

// NewIngest builds and registers the ingest collectors on reg
func NewIngest(reg prometheus.Registerer) *Ingest {
	m := &Ingest{
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_total",
			Help:      "Inbox messages processed, by outcome.",
		}, []string{"outcome"}),
		decodeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decode_errors_total",
			Help:      "Archives rejected by the decoder, by error code.",
		}, []string{"code"}),
		documents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_total",
			Help:      "TimeLog documents persisted.",
		}),
		entries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entries_total",
			Help:      "TimeLog entries decoded.",
		}),
		decodeSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "decode_seconds",
			Help:      "Time spent decoding one archive.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		}),
		archiveBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "archive_bytes",
			Help:      "Size of the encoded archive content.",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 10),
		}),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "inflight_messages",
			Help:      "Messages currently leased by this worker.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.messages, m.decodeErrors, m.documents, m.entries, m.decodeSeconds, m.archiveBytes, m.inflight)
	}
	return m
}

// Outcome counts one processed message
func (m *Ingest) Outcome(outcome string) {
	if m == nil {
		return
	}
	m.messages.WithLabelValues(outcome).Inc()
}

// DecodeError counts one rejected archive under its error code name
func (m *Ingest) DecodeError(code string) {
	if m == nil {
		return
	}
	m.decodeErrors.WithLabelValues(code).Inc()
}

// Decoded records a successful decode of size bytes into docs and entries
func (m *Ingest) Decoded(size int, took time.Duration, docs, entries int) {
	if m == nil {
		return
	}
	m.archiveBytes.Observe(float64(size))
	m.decodeSeconds.Observe(took.Seconds())
	m.documents.Add(float64(docs))
	m.entries.Add(float64(entries))
}

// Inflight adjusts the leased message gauge by delta
func (m *Ingest) Inflight(delta int) {
	if m == nil {
		return
	}
	m.inflight.Add(float64(delta))
}
