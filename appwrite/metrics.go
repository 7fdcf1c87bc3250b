package appwrite

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var requestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "marquee",
		Subsystem: "appwrite",
		Name:      "requests_total",
		Help:      "BaaS requests by operation and outcome.",
	},
	[]string{"operation", "outcome"},
)
