package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "secret")

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, "noop", cfg.Cache.Driver)
	assert.Equal(t, "noop", cfg.Messaging.Driver)
	assert.Equal(t, "memory", cfg.Sync.Coordinator)
	assert.Equal(t, 8*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, cfg.Database.WriterDSN, cfg.Database.ReaderDSN)
	assert.Equal(t, "https://api.tiendanube.com/v1", cfg.Tiendanube.APIURL)
	assert.False(t, cfg.Tiendanube.Configured())
}

func TestNewRequiresSecretWhenEnforcing(t *testing.T) {
	t.Setenv("AUTH_ENFORCE", "true")
	t.Setenv("AUTH_JWT_SECRET", "")

	_, err := New()
	require.Error(t, err)
}

func TestNewNormalisesValues(t *testing.T) {
	t.Setenv("AUTH_ENFORCE", "false")
	t.Setenv("SYNC_COORDINATOR", " REDIS ")
	t.Setenv("FRONTEND_URL", "https://ct.example.com/")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://ct.example.com, ,https://admin.example.com")
	t.Setenv("MERCADOLIBRE_API_URL", "https://ml.example.com/")
	t.Setenv("OBS_PROMETHEUS_PATH", "metrics")

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, "redis", cfg.Sync.Coordinator)
	assert.Equal(t, "https://ct.example.com", cfg.Frontend.URL)
	assert.Equal(t, []string{"https://ct.example.com", "https://admin.example.com"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "https://ml.example.com", cfg.MercadoLibre.APIURL)
	assert.Equal(t, "/metrics", cfg.Observability.PrometheusPath)
}

func TestNewRejectsUnknownCoordinator(t *testing.T) {
	t.Setenv("AUTH_ENFORCE", "false")
	t.Setenv("SYNC_COORDINATOR", "zookeeper")

	_, err := New()
	require.Error(t, err)
}

func TestNewRejectsMalformedValues(t *testing.T) {
	t.Setenv("AUTH_ENFORCE", "false")
	t.Setenv("HTTP_PORT", "80a")
	t.Setenv("CACHE_ENABLED", "sometimes")
	t.Setenv("SYNC_LOCK_TTL", "10")

	_, err := New()
	require.Error(t, err)
	for _, key := range []string{"HTTP_PORT", "CACHE_ENABLED", "SYNC_LOCK_TTL"} {
		assert.Contains(t, err.Error(), key)
	}
}

func TestNewNormalisesDatabaseDriver(t *testing.T) {
	t.Setenv("AUTH_ENFORCE", "false")
	t.Setenv("DB_DRIVER", "SQLite3")
	t.Setenv("DB_WRITER_DSN", "file:sistemact.db")

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Database.Driver)

	t.Setenv("DB_DRIVER", "oracle")
	_, err = New()
	require.Error(t, err)
}
