package resilience

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "kinda"

// Breaker collectors, labelled by downstream target ("square").
var (
	BreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Subsystem: "breaker",
		Name:      "state",
		Help:      "Breaker position per target: 0 closed, 1 open, 2 half-open.",
	}, []string{"target"})

	BreakerTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "breaker",
		Name:      "transitions_total",
		Help:      "Breaker state changes per target.",
	}, []string{"target", "from", "to"})

	BreakerOpenedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "breaker",
		Name:      "opened_total",
		Help:      "Times a breaker tripped into the open position.",
	}, []string{"target"})
)
