package metrics

import (
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(buildInfo) }

var buildInfo = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "build_info",
		Help:      "Always 1; labels carry the release, toolchain and storage driver.",
	},
	[]string{"version", "commit", "go_version", "storage"},
)

// SetBuildInfo is called once at startup with ldflags values and the configured driver.
func SetBuildInfo(version, commit, storage string) {
	buildInfo.WithLabelValues(version, commit, runtime.Version(), norm(storage)).Set(1)
}
