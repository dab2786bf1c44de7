package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, SourceCSV, cfg.Data.Source)
	assert.Equal(t, "data/main_data.csv", cfg.Data.CSVPath)
	assert.Equal(t, "orders", cfg.Data.Table)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "release", cfg.Server.Mode)
	assert.Equal(t, 10*time.Minute, cfg.Redis.TTL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.RFM.StrictQuantiles)
	assert.Empty(t, cfg.File)
	assert.Equal(t, 10, cfg.Data.MaxOpenConns)
	assert.Equal(t, 10, cfg.Data.MaxIdleConns)
	assert.Equal(t, 30*time.Minute, cfg.Data.ConnMaxLifetime)
}

func TestLoad_PoolSettings(t *testing.T) {
	path := writeConfig(t, "data:\n  max_open_conns: 4\n  conn_max_lifetime: 5m\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, cfg.File)
	assert.Equal(t, 4, cfg.Data.MaxOpenConns)
	assert.Equal(t, 4, cfg.Data.MaxIdleConns)
	assert.Equal(t, 5*time.Minute, cfg.Data.ConnMaxLifetime)

	_, err = Load(writeConfig(t, "data:\n  max_idle_conns: -1\n"))
	assert.Error(t, err)
}

func TestLoad_FileWithEnvExpansion(t *testing.T) {
	t.Setenv("TEST_MYSQL_PASSWORD", "s3cret")
	path := writeConfig(t, `
data:
  source: MySQL
  dsn: mysql://rfm:${TEST_MYSQL_PASSWORD}@db:3306/shop
  table: order_payments
server:
  addr: ":9090"
  mode: debug
redis:
  addr: localhost:6379
  ttl: 1m
rfm:
  strict_quantiles: true
log:
  level: debug
  format: console
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, SourceMySQL, cfg.Data.Source)
	assert.Equal(t, "mysql://rfm:s3cret@db:3306/shop", cfg.Data.DSN)
	assert.Equal(t, "order_payments", cfg.Data.Table)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "debug", cfg.Server.Mode)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, time.Minute, cfg.Redis.TTL)
	assert.True(t, cfg.RFM.StrictQuantiles)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "data:\n  csv_path: from-file.csv\n")
	t.Setenv("SALES_RFM_CSV_PATH", "from-env.csv")
	t.Setenv("SALES_RFM_REDIS_DB", "3")
	t.Setenv("SALES_RFM_STRICT_QUANTILES", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env.csv", cfg.Data.CSVPath)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.True(t, cfg.RFM.StrictQuantiles)
}

func TestLoad_BadEnvValue(t *testing.T) {
	t.Setenv("SALES_RFM_REDIS_TTL", "soon")
	_, err := Load("")
	assert.Error(t, err)
}

func TestLoad_MySQLRequiresDSN(t *testing.T) {
	path := writeConfig(t, "data:\n  source: mysql\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "data.dsn")
}

func TestLoad_UnknownSource(t *testing.T) {
	path := writeConfig(t, "data:\n  source: parquet\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "data: [unclosed\n")
	_, err := Load(path)
	assert.Error(t, err)
}
