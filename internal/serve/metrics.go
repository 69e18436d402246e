package serve

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments the server exports.
type Metrics struct {
	EventsIngested  prometheus.Counter
	BriefRuns       *prometheus.CounterVec
	EvalRuns        prometheus.Counter
	RequestDuration *prometheus.HistogramVec
}

// NewMetrics registers the instruments on the given registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		EventsIngested: factory.NewCounter(prometheus.CounterOpts{
			Name: "argus_events_ingested_total",
			Help: "Incident records upserted into the repository.",
		}),
		BriefRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "argus_brief_runs_total",
			Help: "Monthly brief cycles, by outcome.",
		}, []string{"outcome"}),
		EvalRuns: factory.NewCounter(prometheus.CounterOpts{
			Name: "argus_eval_runs_total",
			Help: "Hallucination evaluation runs.",
		}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "argus_http_request_duration_seconds",
			Help:    "Admin API request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
}
