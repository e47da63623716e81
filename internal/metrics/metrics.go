package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters exposed at /metrics. Labels stay low-cardinality: document type,
// transition event, job kind, outcome.
var (
	TransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "draftsign",
		Name:      "document_transitions_total",
		Help:      "Lifecycle transitions applied to documents",
	}, []string{"doc_type", "event"})

	TransitionConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "draftsign",
		Name:      "document_transition_conflicts_total",
		Help:      "Transitions rejected by optimistic lock version mismatch",
	})

	JobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "draftsign",
		Name:      "effect_jobs_total",
		Help:      "Background effect jobs by kind and outcome",
	}, []string{"kind", "outcome"})

	JobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "draftsign",
		Name:      "effect_job_duration_seconds",
		Help:      "Effect job execution time",
		Buckets:   prometheus.DefBuckets,
	}, []string{"kind"})

	TokenValidations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "draftsign",
		Name:      "public_token_validations_total",
		Help:      "Public link token validations by outcome",
	}, []string{"outcome"})

	WebhooksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "draftsign",
		Name:      "gateway_webhooks_total",
		Help:      "Payment gateway webhook deliveries by outcome",
	}, []string{"outcome"})
)
