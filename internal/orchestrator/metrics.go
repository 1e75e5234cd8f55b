package orchestrator

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics instruments the orchestrator. All collectors live under the
// copilot_agent namespace.
type Metrics struct {
	RequestDuration    *prometheus.HistogramVec
	CacheHits          prometheus.Counter
	CacheMisses        prometheus.Counter
	CompletionFailures prometheus.Counter
	ActiveSessions     prometheus.Gauge
}

// NewMetrics registers the orchestrator collectors on reg. Re-registration
// reuses the existing collectors so tests can share a registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "copilot_agent",
			Name:      "request_duration_seconds",
			Help:      "Time spent handling a user message, by outcome.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "copilot_agent",
			Name:      "cache_hits_total",
			Help:      "User messages answered from the response cache.",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "copilot_agent",
			Name:      "cache_misses_total",
			Help:      "User messages that required a fresh completion.",
		}),
		CompletionFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "copilot_agent",
			Name:      "completion_failures_total",
			Help:      "Completions that failed after retries and fell back.",
		}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "copilot_agent",
			Name:      "active_sessions",
			Help:      "Sessions currently in the active state.",
		}),
	}

	m.RequestDuration = registerHistogramVec(reg, m.RequestDuration)
	m.CacheHits = registerCounter(reg, m.CacheHits)
	m.CacheMisses = registerCounter(reg, m.CacheMisses)
	m.CompletionFailures = registerCounter(reg, m.CompletionFailures)
	m.ActiveSessions = registerGauge(reg, m.ActiveSessions)
	return m
}

func registerCounter(reg prometheus.Registerer, c prometheus.Counter) prometheus.Counter {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			return already.ExistingCollector.(prometheus.Counter)
		}
		panic(err)
	}
	return c
}

func registerGauge(reg prometheus.Registerer, g prometheus.Gauge) prometheus.Gauge {
	if err := reg.Register(g); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			return already.ExistingCollector.(prometheus.Gauge)
		}
		panic(err)
	}
	return g
}

func registerHistogramVec(reg prometheus.Registerer, h *prometheus.HistogramVec) *prometheus.HistogramVec {
	if err := reg.Register(h); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			return already.ExistingCollector.(*prometheus.HistogramVec)
		}
		panic(err)
	}
	return h
}
