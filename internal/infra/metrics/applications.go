package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(applicationsSubmittedTotal, applicationsByStatus, applicationsUnread, applicationMutationsTotal, duplicateRefCodesTotal)
}

var applicationsSubmittedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "applications_submitted_total",
		Help:      "Public submissions by outcome.",
	},
	[]string{"outcome"}, // 'accepted', 'invalid', 'failed'
)

var applicationsByStatus = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "applications_by_status",
		Help:      "Current number of applications per review status.",
	},
	[]string{"status"},
)

var applicationsUnread = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "applications_unread",
		Help:      "Current number of applications not yet viewed.",
	},
)

var applicationMutationsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "application_mutations_total",
		Help:      "Reviewer mutations applied to applications.",
	},
	[]string{"action"}, // 'status', 'read', 'unread', 'delete'
)

var duplicateRefCodesTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reference_code_duplicates_total",
		Help:      "Reference codes created or renamed to a value that already existed.",
	},
)

func IncSubmission(outcome string) {
	applicationsSubmittedTotal.WithLabelValues(norm(outcome)).Inc()
}

func SetApplicationStatus(status string, n int) {
	applicationsByStatus.WithLabelValues(norm(status)).Set(float64(n))
}

func SetApplicationsUnread(n int) {
	applicationsUnread.Set(float64(n))
}

func IncApplicationMutation(action string) {
	applicationMutationsTotal.WithLabelValues(norm(action)).Inc()
}

func IncDuplicateRefCode() {
	duplicateRefCodesTotal.Inc()
}
