package obs_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/kinda-storefront/internal/obs"
)

func TestRequestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	handler := obs.RequestLogger{Logger: logger}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		zerolog.Ctx(r.Context()).Info().Msg("inside")
		w.WriteHeader(http.StatusBadGateway)
	}))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/charge", nil)
	req.Header.Set("Idempotency-Key", "k1")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[1], &entry))
	require.Equal(t, "error", entry["level"])
	require.Equal(t, "http_request", entry["message"])
	require.Equal(t, "k1", entry["idempotency_key"])
	require.EqualValues(t, http.StatusBadGateway, entry["status"])
}

func TestDomainMetricsRegisterOnce(t *testing.T) {
	registry := prometheus.NewRegistry()
	obs.MustRegisterDomainMetrics("storefront", registry)
	obs.MustRegisterDomainMetrics("storefront", registry)

	obs.Inc(obs.PromoLookupTotal, "valid")
	require.Equal(t, 1.0, testutil.ToFloat64(obs.PromoLookupTotal.WithLabelValues("valid")))

	obs.Inc(nil, "ignored")
}
