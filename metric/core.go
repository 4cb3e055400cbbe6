package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains the network-level metrics
type Metrics struct {
	Processors  prometheus.Gauge
	Connections prometheus.Gauge
	Links       prometheus.Gauge

	Mutations     *prometheus.CounterVec
	Modifications prometheus.Counter

	Invalidations *prometheus.CounterVec

	SortDuration prometheus.Histogram
}

// NewMetrics creates the network metrics
func NewMetrics() *Metrics {
	return &Metrics{
		Processors: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "inviwo",
			Subsystem: "network",
			Name:      "processors",
			Help:      "Number of processors in the network",
		}),

		Connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "inviwo",
			Subsystem: "network",
			Name:      "connections",
			Help:      "Number of port connections in the network",
		}),

		Links: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "inviwo",
			Subsystem: "network",
			Name:      "links",
			Help:      "Number of property links in the network",
		}),

		Mutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "inviwo",
				Subsystem: "network",
				Name:      "mutations_total",
				Help:      "Structural network mutations by kind and operation",
			},
			[]string{"kind", "op"},
		),

		Modifications: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "inviwo",
			Subsystem: "network",
			Name:      "modifications_total",
			Help:      "Coalesced network-modified notifications",
		}),

		Invalidations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "inviwo",
				Subsystem: "network",
				Name:      "invalidations_total",
				Help:      "Processor invalidations by level",
			},
			[]string{"level"},
		),

		SortDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "inviwo",
			Subsystem: "network",
			Name:      "sort_duration_seconds",
			Help:      "Topological sort duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 10, 8),
		}),
	}
}

// RecordMutation counts a structural change, e.g. ("processor", "add")
func (m *Metrics) RecordMutation(kind, op string) {
	m.Mutations.WithLabelValues(kind, op).Inc()
}

// RecordInvalidation counts a processor invalidation at the given level
func (m *Metrics) RecordInvalidation(level string) {
	m.Invalidations.WithLabelValues(level).Inc()
}

// RecordSortDuration records how long a topological sort took
func (m *Metrics) RecordSortDuration(d time.Duration) {
	m.SortDuration.Observe(d.Seconds())
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.Processors,
		m.Connections,
		m.Links,
		m.Mutations,
		m.Modifications,
		m.Invalidations,
		m.SortDuration,
	}
}
