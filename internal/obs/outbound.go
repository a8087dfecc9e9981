package obs

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// OutboundClient returns an HTTP client whose transport emits client spans
// and propagates trace context to the downstream service.
func OutboundClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

// ObserveSince records the elapsed time since start on a labelled histogram.
func ObserveSince(vec *prometheus.HistogramVec, start time.Time, labels ...string) {
	if vec == nil {
		return
	}
	vec.WithLabelValues(labels...).Observe(DurationMillis(time.Since(start)))
}
