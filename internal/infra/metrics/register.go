package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// registry is private so tests and handlers see only this service's collectors plus the
// Go and process collectors, never globals registered by libraries.
var (
	registry = prometheus.NewRegistry()
	once     sync.Once
	pending  []prometheus.Collector
)

// register queues collectors from init() in each metrics file.
func register(cs ...prometheus.Collector) {
	pending = append(pending, cs...)
}

// MustRegister adds the queued collectors to the registry. Later calls are no-ops.
func MustRegister() {
	once.Do(func() {
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		registry.MustRegister(pending...)
	})
}

// Gatherer exposes the registry for scraping and tests.
func Gatherer() prometheus.Gatherer {
	MustRegister()
	return registry
}
