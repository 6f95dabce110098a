// internal/config/model.go
//
// Typed configuration model for Onboard.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   • optional `.env`                           – dotenv values,
//   • optional `conf/onboard.yaml`              – static file,
//   • `ONBOARD_`-prefixed environment overrides – highest precedence.
//
// Any value whose string begins with the prefix `vault:` is resolved
// through a SecretResolver *before* unmarshalling, so the model never
// stores Vault references, only plain strings.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`.
//   • `Endpoint.URL` may be empty.  A missing endpoint fails each
//     submission, not startup.
//   • The `Paths` block is filled at runtime; YAML must not try to set it.

package config

import "time"

//
// HTTP section
//

// HTTP holds web-server tunables.
type HTTP struct {
	ListenAddr string `koanf:"listen_addr" validate:"required,hostname_port"`
	ForceHTTPS bool   `koanf:"force_https"`
}

//
// Endpoint section
//

// Endpoint describes the remote collector that receives records.
type Endpoint struct {
	URL     string        `koanf:"url"     validate:"omitempty,http_url"`
	Timeout time.Duration `koanf:"timeout" validate:"gt=0,lte=60s"`
}

//
// Log section
//

// Log controls the file logger.
type Log struct {
	Dir   string `koanf:"dir"`
	Level string `koanf:"level" validate:"omitempty,oneof=debug info warn error"`
}

//
// Form section
//

// Form tunes the hosted web form.
type Form struct {
	CSRFKey     string `koanf:"csrf_key"`
	MaxSessions int    `koanf:"max_sessions" validate:"gte=1"`
}

//
// Vault section
//

// Vault toggles secret resolution for `vault:` values.
type Vault struct {
	Enabled  bool          `koanf:"enabled"`
	CacheTTL time.Duration `koanf:"cache_ttl" validate:"gte=0"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime, never set in YAML or env.
type Paths struct {
	Root string // ONBOARD_ROOT or discovered parent
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by LoadWith() and cached in an
// atomic.Pointer for lock-free reads throughout the app lifetime.
type Config struct {
	HTTP     HTTP     `koanf:"http"`
	Endpoint Endpoint `koanf:"endpoint"`
	Log      Log      `koanf:"log"`
	Form     Form     `koanf:"form"`
	Vault    Vault    `koanf:"vault"`
	Paths    Paths    `koanf:"-"` // not loaded from config files
}

// Defaults applied before any layer is read.
const (
	DefaultListenAddr  = ":8080"
	DefaultTimeout     = 10 * time.Second
	DefaultMaxSessions = 1000
	DefaultVaultTTL    = 5 * time.Minute
)
