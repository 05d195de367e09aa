package content

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects pipeline counters. A nil *Metrics records nothing.
type Metrics struct {
	renders     *prometheus.CounterVec
	duration    prometheus.Histogram
	failures    *prometheus.CounterVec
	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter
}

// NewMetrics creates the pipeline metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "courseboard",
			Subsystem: "content",
			Name:      "renders_total",
			Help:      "Message content renders by kind and outcome.",
		}, []string{"kind", "outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "courseboard",
			Subsystem: "content",
			Name:      "render_duration_seconds",
			Help:      "Time spent rendering one message.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "courseboard",
			Subsystem: "content",
			Name:      "enrichment_failures_total",
			Help:      "Math and highlighting failures that left a node unrendered.",
		}, []string{"renderer"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "courseboard",
			Subsystem: "content",
			Name:      "cache_hits_total",
			Help:      "Render cache hits.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "courseboard",
			Subsystem: "content",
			Name:      "cache_misses_total",
			Help:      "Render cache misses.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.renders, m.duration, m.failures, m.cacheHits, m.cacheMisses)
	}
	return m
}

func (m *Metrics) observeRender(kind string, start time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.renders.WithLabelValues(kind, outcome).Inc()
	m.duration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) enrichmentFailed(renderer string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(renderer).Inc()
}

func (m *Metrics) cacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
		return
	}
	m.cacheMisses.Inc()
}
