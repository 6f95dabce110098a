// internal/config/loader.go
//
// Configuration loader and hot-reloader.
//
/*
Context
--------
`LoadWith()` builds one immutable `Config` struct from three layers (highest
precedence last):

  1. Optional `<root>/conf/.env` file.
  2. Optional `<root>/conf/onboard.yaml`.
  3. Environment variables prefixed `ONBOARD_`, where `__` maps to “.”
     (e.g., `ONBOARD_ENDPOINT__URL → endpoint.url`).

String values of the form `vault:<mount>/<path>#<key>` are handed to a
SecretResolver before unmarshal.  After merging, the tree is unmarshalled
into strongly-typed structs, defaulted, validated, enriched with the
runtime root path, and cached in an `atomic.Pointer` for lock-free reads.
`LoadAuto()` dials a resolver only when the first pass needs one, and
`Reload()` repeats that against the cached root (cmd/web runs it on SIGHUP).

Instrumentation
---------------
  • DEBUG spans – root discovery, YAML read, secret resolution.
  • ERROR spans – YAML parse, env overlay, unmarshal, validation failures.
  • INFO  span  – final “config loaded” with key highlights.
  • Logs use the global *sugared* logger (`zap.S()`) so early boot issues
    surface even before the file logger is installed.
*/
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

const (
	envPrefix   = "ONBOARD_"
	yamlName    = "onboard.yaml"
	vaultPrefix = "vault:"
)

// SecretResolver turns a `vault:` reference (prefix stripped) into its value.
type SecretResolver interface {
	Resolve(ctx context.Context, ref string) (string, error)
}

// ErrUnresolvedSecret is returned when a `vault:` value is present but no
// resolver was supplied.
var ErrUnresolvedSecret = errors.New("config: vault reference without resolver")

var current atomic.Pointer[Config]

/*──────────────────────────── root discovery ───────────────────────────────*/

// RootDir resolves ONBOARD_ROOT or climbs directories until
// conf/onboard.yaml is found.  Falls back to the working directory.
func RootDir() string {
	if r := os.Getenv(envPrefix + "ROOT"); r != "" {
		return r
	}

	wd, _ := os.Getwd()
	dir := wd
	for {
		if _, err := os.Stat(filepath.Join(dir, "conf", yamlName)); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir { // reached filesystem root
			break
		}
		dir = parent
	}
	return wd
}

/*─────────────────────────────── loader ───────────────────────────────────*/

// LoadWith reads .env, YAML, and env overrides under root, resolves `vault:`
// values through res (which may be nil when none are present), validates,
// and caches the result.
func LoadWith(ctx context.Context, root string, res SecretResolver) (*Config, error) {
	zap.S().Debugw("config root resolved", "root", root)

	// .env (optional, no error if missing)
	_ = godotenv.Load(filepath.Join(root, "conf", ".env"))

	k := koanf.New(".")

	yamlPath := filepath.Join(root, "conf", yamlName)
	if _, err := os.Stat(yamlPath); err == nil {
		if err := k.Load(file.Provider(yamlPath), yaml.Parser()); err != nil {
			zap.S().Errorw("config yaml load failed", "file", yamlPath, "err", err)
			return nil, fmt.Errorf("config: %s: %w", yamlPath, err)
		}
		zap.S().Debugw("config yaml loaded", "file", yamlPath)
	}

	// Env overrides: ONBOARD_ENDPOINT__URL → endpoint.url
	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		zap.S().Errorw("config env overlay failed", "err", err)
		return nil, err
	}

	if err := resolveSecrets(ctx, k, res); err != nil {
		zap.S().Errorw("config secret resolution failed", "err", err)
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		zap.S().Errorw("config unmarshal failed", "err", err)
		return nil, err
	}

	cfg.Paths.Root = root
	applyDefaults(&cfg)
	if err := validateStruct(&cfg); err != nil {
		zap.S().Errorw("config validation failed", "err", err)
		return nil, err
	}

	current.Store(&cfg)
	zap.S().Infow("config loaded",
		"listen_addr", cfg.HTTP.ListenAddr,
		"endpoint_configured", cfg.Endpoint.URL != "",
		"endpoint_timeout", cfg.Endpoint.Timeout,
		"root", cfg.Paths.Root,
	)
	return &cfg, nil
}

// Dialer opens a SecretResolver.  ttl is the configured cache lifetime, or
// DefaultVaultTTL when the first pass could not be read.
type Dialer func(ctx context.Context, ttl time.Duration) (SecretResolver, error)

// LoadAuto loads once without a resolver.  When the result enables Vault, or
// holds `vault:` values that need one, it dials a resolver and loads again.
func LoadAuto(ctx context.Context, root string, dial Dialer) (*Config, error) {
	cfg, err := LoadWith(ctx, root, nil)
	switch {
	case errors.Is(err, ErrUnresolvedSecret):
	case err != nil:
		return nil, err
	case !cfg.Vault.Enabled:
		return cfg, nil
	}

	ttl := DefaultVaultTTL
	if cfg != nil {
		ttl = cfg.Vault.CacheTTL
	}
	res, err := dial(ctx, ttl)
	if err != nil {
		return nil, fmt.Errorf("config: dial vault: %w", err)
	}
	return LoadWith(ctx, root, res)
}

// envKey maps ONBOARD_HTTP__LISTEN_ADDR to http.listen_addr.
func envKey(s string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(s, envPrefix), "__", "."))
}

// resolveSecrets swaps every `vault:` string in k for its resolved value.
func resolveSecrets(ctx context.Context, k *koanf.Koanf, res SecretResolver) error {
	all := k.All()
	keys := make([]string, 0, len(all))
	for key, val := range all {
		if s, ok := val.(string); ok && strings.HasPrefix(s, vaultPrefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	for _, key := range keys {
		if res == nil {
			return fmt.Errorf("%w: %s", ErrUnresolvedSecret, key)
		}
		ref := strings.TrimPrefix(k.String(key), vaultPrefix)
		val, err := res.Resolve(ctx, ref)
		if err != nil {
			return fmt.Errorf("config: resolve %s: %w", key, err)
		}
		if err := k.Set(key, val); err != nil {
			return fmt.Errorf("config: set %s: %w", key, err)
		}
		zap.S().Debugw("config secret resolved", "key", key)
	}
	return nil
}

func applyDefaults(c *Config) {
	if c.HTTP.ListenAddr == "" {
		c.HTTP.ListenAddr = DefaultListenAddr
	}
	if c.Endpoint.Timeout == 0 {
		c.Endpoint.Timeout = DefaultTimeout
	}
	c.Endpoint.URL = strings.TrimSpace(c.Endpoint.URL)
	if c.Log.Dir == "" {
		c.Log.Dir = filepath.Join(c.Paths.Root, "logs")
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Form.MaxSessions == 0 {
		c.Form.MaxSessions = DefaultMaxSessions
	}
	if c.Vault.CacheTTL == 0 {
		c.Vault.CacheTTL = DefaultVaultTTL
	}
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

// Get returns the last successfully loaded Config, or nil before the first.
func Get() *Config { return current.Load() }

// Reload re-runs LoadAuto against the root of the cached Config (RootDir()
// when nothing is cached).  On error the cached pointer is left untouched.
func Reload(ctx context.Context, dial Dialer) (*Config, error) {
	root := RootDir()
	if prev := Get(); prev != nil {
		root = prev.Paths.Root
	}
	return LoadAuto(ctx, root, dial)
}
