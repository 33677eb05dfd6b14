package observability

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"github.com/Additional-Code/sistemact/internal/config"
)

func newManager(t *testing.T, obs config.Observability) *Manager {
	t.Helper()
	lc := fxtest.NewLifecycle(t)
	mgr, err := NewManager(lc, config.Config{Observability: obs}, zap.NewNop())
	require.NoError(t, err)
	lc.RequireStart()
	t.Cleanup(lc.RequireStop)
	return mgr
}

func TestPrometheusMetrics(t *testing.T) {
	mgr := newManager(t, config.Observability{
		ServiceName:     "sistemact-test",
		EnableMetrics:   true,
		MetricsExporter: "prometheus",
		PrometheusPath:  "/metrics",
	})
	require.True(t, mgr.MetricsEnabled())
	assert.False(t, mgr.TracingEnabled())
	assert.Equal(t, "/metrics", mgr.PrometheusPath())

	counter, err := otel.Meter("test").Int64Counter("salesync.runs")
	require.NoError(t, err)
	counter.Add(context.Background(), 2)

	srv := httptest.NewServer(mgr.MetricsHandler())
	defer srv.Close()
	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), "go_goroutines")
	assert.Contains(t, string(body), "salesync_runs")
}

func TestSecondManagerDoesNotCollide(t *testing.T) {
	obs := config.Observability{EnableMetrics: true, MetricsExporter: "prometheus"}
	first := newManager(t, obs)
	second := newManager(t, obs)
	assert.NotNil(t, first.MetricsHandler())
	assert.NotNil(t, second.MetricsHandler())
}

func TestUnsupportedExportersDisableSignals(t *testing.T) {
	mgr := newManager(t, config.Observability{
		EnableTracing:   true,
		TraceExporter:   "jaeger",
		EnableMetrics:   true,
		MetricsExporter: "statsd",
	})
	assert.False(t, mgr.TracingEnabled())
	assert.False(t, mgr.MetricsEnabled())
	assert.Nil(t, mgr.MetricsHandler())
}
