package cmd_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"fulfillment/cmd"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("CATALOG_BASE_URL", "http://catalog.local")
	t.Setenv("COURIER_BASE_URL", "http://courier.local")
	t.Setenv("COURIER_API_KEY", "key")
	t.Setenv("COURIER_SECRET_KEY", "secret")
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	setRequired(t)

	cfg, err := cmd.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 10*time.Second, cfg.CourierTimeout)
	assert.Equal(t, 3, cfg.CourierMaxAttempts)
	assert.False(t, cfg.BackorderOnInsufficientStock)
	assert.Equal(t, 100, cfg.SweepBatchSize)
	assert.Contains(t, cfg.DSN(), "dbname=fulfillment")
}

func TestLoadConfig_TypedValues(t *testing.T) {
	t.Chdir(t.TempDir())
	setRequired(t)
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("COURIER_TIMEOUT", "4s")
	t.Setenv("COURIER_MAX_ATTEMPTS", "5")
	t.Setenv("BACKORDER_ON_INSUFFICIENT_STOCK", "true")
	t.Setenv("SCAN_DEDUP_TTL", "30m")

	cfg, err := cmd.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 4*time.Second, cfg.CourierTimeout)
	assert.Equal(t, 5, cfg.CourierMaxAttempts)
	assert.True(t, cfg.BackorderOnInsufficientStock)
	assert.Equal(t, 30*time.Minute, cfg.ScanDedupTTL)
}

func TestLoadConfig_ReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	setRequired(t)
	t.Setenv("INVOICE_PREFIX", "")
	require.NoError(t, os.Unsetenv("INVOICE_PREFIX"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("INVOICE_PREFIX=ORD-\n"), 0o600))

	cfg, err := cmd.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "ORD-", cfg.InvoicePrefix)
}

func TestLoadConfig_ReportsEveryBadKey(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CATALOG_BASE_URL", "")
	t.Setenv("COURIER_BASE_URL", "http://courier.local")
	t.Setenv("COURIER_API_KEY", "key")
	t.Setenv("COURIER_SECRET_KEY", "secret")
	t.Setenv("COURIER_TIMEOUT", "soon")
	t.Setenv("BACKORDER_ON_INSUFFICIENT_STOCK", "maybe")

	_, err := cmd.LoadConfig()
	require.Error(t, err)
	assert.ErrorContains(t, err, "CATALOG_BASE_URL is required")
	assert.ErrorContains(t, err, "COURIER_TIMEOUT")
	assert.ErrorContains(t, err, "BACKORDER_ON_INSUFFICIENT_STOCK")
}
