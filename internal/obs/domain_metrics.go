package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// PromoLookupTotal counts promo checks by outcome (valid, not_found, rejected reason, error).
	PromoLookupTotal *prometheus.CounterVec
	// PromoIndexReloads counts promo index rebuilds by outcome.
	PromoIndexReloads *prometheus.CounterVec
	// CheckoutTotal counts checkout runs by final state and result.
	CheckoutTotal *prometheus.CounterVec
	// SquareRequestTotal counts calls to the payments provider per operation.
	SquareRequestTotal *prometheus.CounterVec
	// SquareRequestLatency records provider latency in milliseconds.
	SquareRequestLatency *prometheus.HistogramVec
	// ArrivalsSourceTotal counts new-arrival source fetches by outcome.
	ArrivalsSourceTotal *prometheus.CounterVec
	// EmailSendTotal counts outbound email attempts by kind and outcome.
	EmailSendTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		PromoLookupTotal = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "promo_lookup_total",
			Help:      "Count of promo code checks by outcome.",
		}, []string{"result"}))
		PromoIndexReloads = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "promo_index_reload_total",
			Help:      "Count of promo index rebuilds by outcome.",
		}, []string{"result"}))
		CheckoutTotal = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_total",
			Help:      "Count of checkout runs by the last state reached and result.",
		}, []string{"state", "result"}))
		SquareRequestTotal = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "square_request_total",
			Help:      "Count of payments provider calls by operation and result.",
		}, []string{"operation", "result"}))
		SquareRequestLatency = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "square_request_duration_ms",
			Help:      "Latency of payments provider calls in milliseconds.",
			Buckets:   []float64{25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		}, []string{"operation"}))
		ArrivalsSourceTotal = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "arrivals_source_total",
			Help:      "Count of new-arrival source fetches by outcome.",
		}, []string{"result"}))
		EmailSendTotal = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "email_send_total",
			Help:      "Count of outbound emails by kind and outcome.",
		}, []string{"kind", "result"}))
	})
}

// Inc increments a labelled counter when domain metrics are registered.
func Inc(vec *prometheus.CounterVec, labels ...string) {
	if vec == nil {
		return
	}
	vec.WithLabelValues(labels...).Inc()
}
