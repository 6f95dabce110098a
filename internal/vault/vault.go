// internal/vault/vault.go
//
// Vault client wrapper for Onboard.
//
// Context
// -------
//   - Wraps the HashiCorp Vault Go SDK so configuration values written as
//     `vault:<mount>/<path>#<key>` resolve to KV-v2 secrets at startup.  The
//     endpoint URL is the usual candidate, since collector webhooks often
//     embed a token.
//   - Adds background token renewal and per-key caching.
//
// Public workflow
// ---------------
//  1. cli, err := vault.New(ctx, log, ttl)           // during boot.
//  2. cfg, err := config.LoadWith(ctx, root, cli)    // cli is a SecretResolver.
package vault

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	vault "github.com/hashicorp/vault/api"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

//
// SECTION 1.  Public façade
//

// Client is safe for concurrent use.  Zero value is invalid.
type Client struct {
	kv  kvReader
	log func() *zap.SugaredLogger // resolved per call; see New
	ttl time.Duration

	cacheMu sync.RWMutex
	cache   map[string]cached // path#key → value + expiry.

	sfg singleflight.Group // one KV read per secret path at a time.
}

type cached struct {
	val string
	exp time.Time
}

// kvReader is the slice of the SDK we use, split out for tests.
type kvReader interface {
	Get(ctx context.Context, mount, path string) (map[string]any, error)
}

type sdkKV struct{ api *vault.Client }

func (s sdkKV) Get(ctx context.Context, mount, path string) (map[string]any, error) {
	sec, err := s.api.KVv2(mount).Get(ctx, path)
	if err != nil {
		return nil, err
	}
	return sec.Data, nil
}

// New constructs a Vault client from VAULT_ADDR / VAULT_TOKEN and starts a
// background token-renewal loop bound to ctx.  Resolved values are cached for
// ttl (zero disables caching).
//
// A nil log means "the process-wide logger at the time of each call".  Vault
// is dialed while config loads, before logger.New installs the file logger,
// so capturing zap.S() here would pin the no-op default for good.
func New(ctx context.Context, log *zap.SugaredLogger, ttl time.Duration) (*Client, error) {
	cfg := vault.DefaultConfig()
	if err := cfg.ReadEnvironment(); err != nil {
		return nil, fmt.Errorf("vault env cfg: %w", err)
	}

	api, err := vault.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("vault api: %w", err)
	}
	if tok := os.Getenv("VAULT_TOKEN"); tok != "" {
		api.SetToken(tok)
	}

	c := newClient(sdkKV{api: api}, log, ttl)
	go renewLoop(ctx, api, c.log)
	return c, nil
}

func newClient(kv kvReader, log *zap.SugaredLogger, ttl time.Duration) *Client {
	return &Client{kv: kv, log: loggerFunc(log), ttl: ttl, cache: make(map[string]cached)}
}

// loggerFunc fixes log when set, else defers to the global logger.
func loggerFunc(log *zap.SugaredLogger) func() *zap.SugaredLogger {
	if log != nil {
		return func() *zap.SugaredLogger { return log }
	}
	return func() *zap.SugaredLogger { return zap.S().Named("vault") }
}

// Resolve implements config.SecretResolver.  ref has the form
// "<mount>/<path>#<key>".
func (c *Client) Resolve(ctx context.Context, ref string) (string, error) {
	secretPath, key, ok := strings.Cut(ref, "#")
	if !ok {
		return "", fmt.Errorf("vault ref %q: missing #key", ref)
	}
	return c.GetKV(ctx, secretPath, key)
}

// GetKV fetches a single key from a KV-v2 secret, honoring the cache TTL.
func (c *Client) GetKV(ctx context.Context, secretPath, key string) (string, error) {
	if secretPath == "" || key == "" {
		return "", errors.New("secret path and key must be non-empty")
	}

	canonical := secretPath + "#" + key

	if c.ttl > 0 {
		c.cacheMu.RLock()
		if cv, ok := c.cache[canonical]; ok && time.Now().Before(cv.exp) {
			c.cacheMu.RUnlock()
			return cv.val, nil
		}
		c.cacheMu.RUnlock()
	}

	mount, rel := splitMount(secretPath)
	v, err, _ := c.sfg.Do(secretPath, func() (any, error) {
		return c.kv.Get(ctx, mount, rel)
	})
	if err != nil {
		c.log().Warnw("vault secret fetch failed", "path", secretPath, "err", err)
		return "", fmt.Errorf("vault get %s: %w", secretPath, err)
	}
	data := v.(map[string]any)

	raw, ok := data[key]
	if !ok {
		return "", fmt.Errorf("key %q not found in secret %q", key, secretPath)
	}
	sval, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("value at %s#%s is not a string", secretPath, key)
	}

	if c.ttl > 0 {
		c.cacheMu.Lock()
		c.cache[canonical] = cached{val: sval, exp: time.Now().Add(c.ttl)}
		c.cacheMu.Unlock()
	}
	c.log().Debugw("vault secret fetched", "path", secretPath, "key", key)
	return sval, nil
}

//
// SECTION 2.  Background token renewal
//

func renewLoop(ctx context.Context, api *vault.Client, logf func() *zap.SugaredLogger) {
	for ctx.Err() == nil {
		log := logf()
		sec, err := api.Auth().Token().RenewSelfWithContext(ctx, 0)
		if err != nil {
			log.Warnw("vault token renew failed", "err", err)
			backoff(ctx, 30*time.Second)
			continue
		}
		if sec == nil || sec.Auth == nil || !sec.Auth.Renewable {
			log.Infow("vault token not renewable, sleeping")
			backoff(ctx, time.Hour)
			continue
		}

		watcher, err := api.NewLifetimeWatcher(&vault.LifetimeWatcherInput{
			Secret: sec,
		})
		if err != nil {
			log.Warnw("vault watcher init failed", "err", err)
			backoff(ctx, 30*time.Second)
			continue
		}
		go watcher.Start()
		watch(ctx, watcher, log)
		watcher.Stop()
		backoff(ctx, 15*time.Second)
	}
}

// watch blocks until the watcher finishes or ctx ends.
func watch(ctx context.Context, w *vault.LifetimeWatcher, log *zap.SugaredLogger) {
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-w.DoneCh():
			if err != nil {
				log.Warnw("vault token renewal stopped", "err", err)
			}
			return
		case ev := <-w.RenewCh():
			if ev != nil && ev.Secret != nil && ev.Secret.Auth != nil {
				log.Debugw("vault token renewed", "ttl_s", ev.Secret.Auth.LeaseDuration)
			}
		}
	}
}

//
// SECTION 3.  Helpers
//

func splitMount(p string) (mount, rel string) {
	mount, rel, _ = strings.Cut(strings.Trim(p, "/"), "/")
	return mount, rel
}

func backoff(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
