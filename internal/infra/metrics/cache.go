package metrics

import "github.com/prometheus/client_golang/prometheus"

// Profile cache keyspaces; one per lookup the session path performs.
const (
	CacheProfileByID     = "profile_by_id"
	CacheProfileByUserID = "profile_by_user_id"
)

func init() { register(profileCacheLookupsTotal) }

var profileCacheLookupsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "profile_cache_lookups_total",
		Help:      "Profile cache lookups by keyspace and result.",
	},
	[]string{"keyspace", "result"}, // result: 'hit', 'miss'
)

// ObserveProfileCache counts one lookup in keyspace.
func ObserveProfileCache(keyspace string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	profileCacheLookupsTotal.WithLabelValues(norm(keyspace), result).Inc()
}
