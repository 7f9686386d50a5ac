// Package config loads arbor settings from an optional YAML or JSON file with
// ARBOR_* environment overrides.
package config

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// DefaultPath is read when no --config flag is given.
const DefaultPath = "arbor.yaml"

// Config is the full application configuration.
type Config struct {
	Store    StoreConfig `mapstructure:"store"`
	Log      LogConfig   `mapstructure:"log"`
	HTTP     HTTPConfig  `mapstructure:"http"`
	MaxDepth int         `mapstructure:"max_depth"`
}

// StoreConfig selects and configures the document store.
type StoreConfig struct {
	Backend string        `mapstructure:"backend"` // memory, file or redis
	Dir     string        `mapstructure:"dir"`
	Format  string        `mapstructure:"format"` // json or yaml
	LockTTL time.Duration `mapstructure:"lock_ttl"`
	Redis   RedisConfig   `mapstructure:"redis"`

	// EncryptionKey is a base64 AES-256 key. When set, documents are stored encrypted.
	EncryptionKey string `mapstructure:"encryption_key"`
	// Redact lists variable name patterns whose defaults are masked on save.
	Redact []string `mapstructure:"redact"`
}

// Key decodes EncryptionKey. It returns nil when encryption is off.
func (c StoreConfig) Key() ([]byte, error) {
	if c.EncryptionKey == "" {
		return nil, nil
	}
	key, err := base64.StdEncoding.DecodeString(c.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("encryption_key is not valid base64: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("encryption_key must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text or json
}

type HTTPConfig struct {
	Addr    string `mapstructure:"addr"`
	Metrics bool   `mapstructure:"metrics"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Store: StoreConfig{
			Backend: "file",
			Dir:     filepath.Join(".arbor", "documents"),
			Format:  "json",
			LockTTL: 30 * time.Second,
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "arbor:document:",
			},
		},
		Log:      LogConfig{Level: "info", Format: "text"},
		HTTP:     HTTPConfig{Addr: ":8080", Metrics: true},
		MaxDepth: 64,
	}
}

// envKeys maps ARBOR_* variables to config keys.
var envKeys = map[string]string{
	"ARBOR_STORE_BACKEND":        "store.backend",
	"ARBOR_STORE_DIR":            "store.dir",
	"ARBOR_STORE_FORMAT":         "store.format",
	"ARBOR_STORE_LOCK_TTL":       "store.lock_ttl",
	"ARBOR_STORE_ENCRYPTION_KEY": "store.encryption_key",
	"ARBOR_REDIS_ADDR":           "store.redis.addr",
	"ARBOR_REDIS_PASSWORD":       "store.redis.password",
	"ARBOR_REDIS_DB":             "store.redis.db",
	"ARBOR_REDIS_PREFIX":         "store.redis.prefix",
	"ARBOR_REDIS_TTL":            "store.redis.ttl",
	"ARBOR_LOG_LEVEL":            "log.level",
	"ARBOR_LOG_FORMAT":           "log.format",
	"ARBOR_HTTP_ADDR":            "http.addr",
	"ARBOR_HTTP_METRICS":         "http.metrics",
	"ARBOR_MAX_DEPTH":            "max_depth",
}

// Load reads path over the defaults and applies environment overrides.
// A missing file is not an error: the defaults stand.
func Load(path string) (Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (Config, error) {
	raw := map[string]any{}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := unmarshal(path, data, &raw); err != nil {
				return Config{}, err
			}
		case !os.IsNotExist(err):
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
	}

	for env, key := range envKeys {
		if v, ok := lookup(env); ok {
			setPath(raw, key, v)
		}
	}

	cfg := Default()
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return Config{}, err
	}
	if err := dec.Decode(raw); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

func unmarshal(path string, data []byte, raw *map[string]any) error {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		if err := json.Unmarshal(data, raw); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
		return nil
	}
	if err := yaml.Unmarshal(data, raw); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if *raw == nil {
		*raw = map[string]any{}
	}
	return nil
}

// setPath assigns v at a dotted key, creating intermediate maps.
func setPath(m map[string]any, key string, v any) {
	parts := strings.Split(key, ".")
	for _, p := range parts[:len(parts)-1] {
		next, ok := m[p].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[p] = next
		}
		m = next
	}
	m[parts[len(parts)-1]] = v
}

// Validate rejects unknown enum values.
func (c Config) Validate() error {
	switch c.Store.Backend {
	case "memory", "file", "redis":
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	switch strings.ToLower(c.Store.Format) {
	case "json", "yaml", "yml":
	default:
		return fmt.Errorf("unknown store format %q", c.Store.Format)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	if _, err := c.Store.Key(); err != nil {
		return err
	}
	if c.MaxDepth <= 0 {
		return fmt.Errorf("max_depth must be positive, got %d", c.MaxDepth)
	}
	return nil
}
