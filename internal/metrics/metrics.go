// Package metrics exports Prometheus counters for the fallback chain.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/KaramelBytes/tabula-cli/internal/engine"
)

// Recorder implements engine.Observer. Each Recorder owns its collectors so
// tests can register isolated copies.
type Recorder struct {
	resolved *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	external *prometheus.CounterVec
	denied   *prometheus.CounterVec
}

// New registers the collectors with reg. A nil reg means the default registry.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		// Labels: tier (sample, rules, llm, statistical), rule
		resolved: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tabula",
			Subsystem: "query",
			Name:      "resolved_total",
			Help:      "Queries answered, by fallback tier and rule",
		}, []string{"tier", "rule"}),
		latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tabula",
			Subsystem: "query",
			Name:      "latency_seconds",
			Help:      "End-to-end query latency by fallback tier",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		}, []string{"tier"}),
		// Labels: outcome (ok, no_credential, rate_limited, error, malformed, timeout)
		external: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tabula",
			Subsystem: "external",
			Name:      "calls_total",
			Help:      "External language model attempts by outcome",
		}, []string{"outcome"}),
		// Labels: reason (window, min_delay)
		denied: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tabula",
			Subsystem: "ratelimit",
			Name:      "denied_total",
			Help:      "External calls denied by the rate limiter",
		}, []string{"reason"}),
	}
}

func (r *Recorder) Resolved(tier engine.Tier, rule string, elapsed time.Duration) {
	r.resolved.WithLabelValues(string(tier), rule).Inc()
	r.latency.WithLabelValues(string(tier)).Observe(elapsed.Seconds())
}

func (r *Recorder) External(outcome string) {
	r.external.WithLabelValues(outcome).Inc()
}

func (r *Recorder) LimiterDenied(reason string) {
	r.denied.WithLabelValues(reason).Inc()
}
