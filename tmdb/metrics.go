package tmdb

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var requestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "marquee",
		Subsystem: "tmdb",
		Name:      "requests_total",
		Help:      "Catalog requests by endpoint and outcome.",
	},
	[]string{"endpoint", "outcome"},
)
