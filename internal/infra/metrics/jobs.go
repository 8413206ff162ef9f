package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(jobsRunTotal) }

var jobsRunTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "background_jobs_total",
		Help:      "Background job runs, labeled by job and status.",
	},
	[]string{"job", "status"}, // status: 'ok', 'failed'
)

func IncJob(job, status string) {
	jobsRunTotal.WithLabelValues(norm(job), norm(status)).Inc()
}
