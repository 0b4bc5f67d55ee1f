package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"STORE_HOST", "STORE_PORT", "STORE_DB", "STORE_USER", "STORE_PASS", "STORE_AUTH_SOURCE",
		"BROKER_ENDPOINT", "BROKER_PUBSUB_NAME", "BROKER_APP_ID",
		"SERVICE_NAME", "SERVICE_VERSION", "ENVIRONMENT",
		"ENABLE_TRACING", "OTEL_EXPORTER_ENDPOINT",
		"LOG_LEVEL", "LOG_FORMAT",
		"BULK_IMPORT_BATCH_SIZE", "OUTBOUND_HTTP_TIMEOUT_MS",
	}
	for _, k := range keys {
		os.Unsetenv(k)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "localhost", cfg.Store.Host)
	assert.Equal(t, 5432, cfg.Store.Port)
	assert.Equal(t, 100, cfg.BulkImportBatchSize)
	assert.Equal(t, 5000, cfg.OutboundHTTPTimeoutMS)
	assert.False(t, cfg.Observability.EnableTracing)
	assert.Equal(t, "json", cfg.Observability.LogFormat)
}

func TestLoadReadsOverrides(t *testing.T) {
	clearEnv(t)
	os.Setenv("STORE_PORT", "6000")
	os.Setenv("LOG_FORMAT", "console")
	os.Setenv("ENABLE_TRACING", "true")
	os.Setenv("BULK_IMPORT_BATCH_SIZE", "50")
	defer clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 6000, cfg.Store.Port)
	assert.Equal(t, "console", cfg.Observability.LogFormat)
	assert.True(t, cfg.Observability.EnableTracing)
	assert.Equal(t, 50, cfg.BulkImportBatchSize)
}

func TestLoadRejectsInvalidLogFormat(t *testing.T) {
	clearEnv(t)
	os.Setenv("LOG_FORMAT", "xml")
	defer clearEnv(t)

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsNonNumericStorePort(t *testing.T) {
	clearEnv(t)
	os.Setenv("STORE_PORT", "not-a-number")
	defer clearEnv(t)

	_, err := Load()
	assert.Error(t, err)
}
