package backend

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// swallowedErrors counts failures that were logged and replaced by a fallback value
var swallowedErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "marquee_backend_swallowed_errors_total",
		Help: "Backend failures replaced by an empty result",
	},
	[]string{"operation"},
)
