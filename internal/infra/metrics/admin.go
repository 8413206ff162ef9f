package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(accessDecisionsTotal, chunkQueriesTotal, duplicateProfileEmailsTotal) }

var accessDecisionsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "access_decisions_total",
		Help:      "Access-scoping decisions by action and outcome.",
	},
	[]string{"action", "outcome"}, // outcome: 'all', 'scoped', 'empty', 'allowed', 'denied'
)

var chunkQueriesTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "access_chunk_queries_total",
		Help:      "Set-membership queries issued while computing scoped visibility.",
	},
)

func IncAccessDecision(action, outcome string) {
	accessDecisionsTotal.WithLabelValues(norm(action), norm(outcome)).Inc()
}

func AddChunkQueries(n int) {
	chunkQueriesTotal.Add(float64(n))
}

var duplicateProfileEmailsTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "profile_email_duplicates_total",
		Help:      "Profile writes that reuse an email already held by another profile.",
	},
)

func IncDuplicateProfileEmail() {
	duplicateProfileEmailsTotal.Inc()
}
