package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(pgPoolConns, pgPoolSaturation) }

var pgPoolConns = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "postgres_pool_connections",
		Help:      "pgxpool connections by state, sampled by the stats worker.",
	},
	[]string{"state"}, // 'total', 'idle', 'in_use'
)

var pgPoolSaturation = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "postgres_pool_saturation_ratio",
		Help:      "Share of pool connections currently acquired (0..1).",
	},
)

// SetPostgresPool publishes one pool sample. The argument order matches pg.PoolStats.
func SetPostgresPool(total, idle, inUse int32) {
	pgPoolConns.WithLabelValues("total").Set(float64(total))
	pgPoolConns.WithLabelValues("idle").Set(float64(idle))
	pgPoolConns.WithLabelValues("in_use").Set(float64(inUse))
	if total > 0 {
		pgPoolSaturation.Set(float64(inUse) / float64(total))
	} else {
		pgPoolSaturation.Set(0)
	}
}
