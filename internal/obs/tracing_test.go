package obs_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/kinda-storefront/internal/obs"
)

func TestInitTracerExporters(t *testing.T) {
	shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{ServiceName: "kinda-test", Exporter: "none"})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))

	_, err = obs.InitTracer(context.Background(), obs.TracingConfig{ServiceName: "kinda-test", Exporter: "zipkin"})
	require.EqualError(t, err, `unsupported tracing exporter "zipkin"`)
}
