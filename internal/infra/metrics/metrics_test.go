//go:build !integration

package metrics

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sample gathers the registry and returns the value of the series matching labels.
func sample(t *testing.T, name string, labels map[string]string) (float64, bool) {
	t.Helper()
	families, err := Gatherer().Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
	next:
		for _, m := range f.GetMetric() {
			got := make(map[string]string, len(m.GetLabel()))
			for _, lp := range m.GetLabel() {
				got[lp.GetName()] = lp.GetValue()
			}
			for k, v := range labels {
				if got[k] != v {
					continue next
				}
			}
			switch {
			case m.GetCounter() != nil:
				return m.GetCounter().GetValue(), true
			case m.GetGauge() != nil:
				return m.GetGauge().GetValue(), true
			}
		}
	}
	return 0, false
}

func TestObserveProfileCache(t *testing.T) {
	labels := map[string]string{"keyspace": CacheProfileByUserID, "result": "hit"}
	before, _ := sample(t, "intake_profile_cache_lookups_total", labels)

	ObserveProfileCache(CacheProfileByUserID, true)
	ObserveProfileCache(CacheProfileByUserID, true)
	ObserveProfileCache(CacheProfileByUserID, false)

	hits, ok := sample(t, "intake_profile_cache_lookups_total", labels)
	require.True(t, ok)
	assert.Equal(t, before+2, hits)
	misses, ok := sample(t, "intake_profile_cache_lookups_total", map[string]string{"keyspace": CacheProfileByUserID, "result": "miss"})
	require.True(t, ok)
	assert.GreaterOrEqual(t, misses, 1.0)
}

func TestSetPostgresPool(t *testing.T) {
	SetPostgresPool(10, 6, 4)
	v, ok := sample(t, "intake_postgres_pool_connections", map[string]string{"state": "in_use"})
	require.True(t, ok)
	assert.Equal(t, 4.0, v)
	ratio, _ := sample(t, "intake_postgres_pool_saturation_ratio", nil)
	assert.InDelta(t, 0.4, ratio, 1e-9)

	SetPostgresPool(0, 0, 0)
	ratio, _ = sample(t, "intake_postgres_pool_saturation_ratio", nil)
	assert.Equal(t, 0.0, ratio)
}

func TestSetBuildInfo(t *testing.T) {
	SetBuildInfo("v1.2.3", "abc123", " Memory ")
	v, ok := sample(t, "intake_build_info", map[string]string{
		"version":    "v1.2.3",
		"commit":     "abc123",
		"go_version": runtime.Version(),
		"storage":    "memory",
	})
	require.True(t, ok)
	assert.Equal(t, 1.0, v)
}

func TestMustRegister_Idempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		MustRegister()
		MustRegister()
	})
	_, ok := sample(t, "go_goroutines", nil)
	assert.True(t, ok)
}
