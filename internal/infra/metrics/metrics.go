package metrics

import (
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "intake"

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// Handler serves the service registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer(), promhttp.HandlerOpts{})
}
