package config

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnv(string) (string, bool) { return "", false }

func env(vars map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	}
}

func write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := load(filepath.Join(t.TempDir(), "absent.yaml"), noEnv)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_YAML(t *testing.T) {
	path := write(t, "arbor.yaml", `
store:
  backend: redis
  lock_ttl: 10s
  redis:
    addr: redis:6379
    ttl: 1h
log:
  level: debug
max_depth: 16
`)
	cfg, err := load(path, noEnv)
	require.NoError(t, err)
	assert.Equal(t, "redis", cfg.Store.Backend)
	assert.Equal(t, 10*time.Second, cfg.Store.LockTTL)
	assert.Equal(t, "redis:6379", cfg.Store.Redis.Addr)
	assert.Equal(t, time.Hour, cfg.Store.Redis.TTL)
	assert.Equal(t, "arbor:document:", cfg.Store.Redis.Prefix, "unset keys keep defaults")
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 16, cfg.MaxDepth)
}

func TestLoad_JSON(t *testing.T) {
	path := write(t, "arbor.json", `{"store":{"backend":"memory"},"http":{"addr":":9000","metrics":false}}`)
	cfg, err := load(path, noEnv)
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.Equal(t, ":9000", cfg.HTTP.Addr)
	assert.False(t, cfg.HTTP.Metrics)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := write(t, "arbor.yaml", "store:\n  backend: memory\n")
	cfg, err := load(path, env(map[string]string{
		"ARBOR_STORE_BACKEND": "file",
		"ARBOR_STORE_DIR":     "/data",
		"ARBOR_REDIS_DB":      "3",
		"ARBOR_HTTP_METRICS":  "false",
		"ARBOR_MAX_DEPTH":     "8",
	}))
	require.NoError(t, err)
	assert.Equal(t, "file", cfg.Store.Backend)
	assert.Equal(t, "/data", cfg.Store.Dir)
	assert.Equal(t, 3, cfg.Store.Redis.DB)
	assert.False(t, cfg.HTTP.Metrics)
	assert.Equal(t, 8, cfg.MaxDepth)
}

func TestLoad_Rejects(t *testing.T) {
	tests := map[string]string{
		"unknown key":     "colour: red\n",
		"unknown backend": "store:\n  backend: s3\n",
		"bad duration":    "store:\n  lock_ttl: soon\n",
		"bad depth":       "max_depth: 0\n",
		"bad log format":  "log:\n  format: xml\n",
		"bad yaml":        "store: [\n",
		"short key":       "store:\n  encryption_key: c2hvcnQ=\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := load(write(t, "arbor.yaml", content), noEnv)
			assert.Error(t, err)
		})
	}
}

func TestLoad_EmptyPath(t *testing.T) {
	cfg, err := load("", env(map[string]string{"ARBOR_LOG_FORMAT": "json"}))
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_StoreMiddleware(t *testing.T) {
	key := base64.StdEncoding.EncodeToString(make([]byte, 32))
	path := write(t, "arbor.yaml", "store:\n  redact: [\"token$\", \"^secret_\"]\n")
	cfg, err := load(path, env(map[string]string{"ARBOR_STORE_ENCRYPTION_KEY": key}))
	require.NoError(t, err)
	assert.Equal(t, []string{"token$", "^secret_"}, cfg.Store.Redact)
	decoded, err := cfg.Store.Key()
	require.NoError(t, err)
	assert.Len(t, decoded, 32)

	off, err := Default().Store.Key()
	require.NoError(t, err)
	assert.Nil(t, off)
}
