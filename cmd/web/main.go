// cmd/web/main.go
//
// Onboard – HTTP entry point.
//
// Start-up sequence
// -----------------
//
//  1. Load env vars (host-wide file → .env fallback).
//
//  2. Load config, dialing Vault only when the config asks for it.
//
//  3. Start daily rotating logger (tees to console when running in a TTY).
//
//  4. Build the endpoint client, the onboarding schema, and the form
//     handler with its per-session controller cache.
//
//  5. Mount routes on chi:
//
//     • /onboarding      – the hosted form (GET render, POST submit)
//     • /metrics         – Prometheus
//     • /healthz         – liveness, reports whether an endpoint is set
//
//  6. Wrap with RequestID, RealIP, Recoverer, security headers, and the
//     optional HTTPS redirect, then serve until SIGINT/SIGTERM.  SIGHUP
//     reloads config and repoints the endpoint client.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/AdeptTravel/adept-onboard/internal/config"
	"github.com/AdeptTravel/adept-onboard/internal/endpoint"
	"github.com/AdeptTravel/adept-onboard/internal/form"
	"github.com/AdeptTravel/adept-onboard/internal/logger"
	"github.com/AdeptTravel/adept-onboard/internal/middleware"
	"github.com/AdeptTravel/adept-onboard/internal/onboarding"
	"github.com/AdeptTravel/adept-onboard/internal/server"
	"github.com/AdeptTravel/adept-onboard/internal/vault"
)

const serverEnvPath = "/usr/local/etc/onboard/global.env"

// loadEnv prefers the host-wide env file; on dev it falls back to .env.
func loadEnv() {
	if _, err := os.Stat(serverEnvPath); err == nil {
		_ = godotenv.Load(serverEnvPath)
		return
	}
	_ = godotenv.Load()
}

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func init() { loadEnv() }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Fatalf("onboard web: %v", err)
	}
}

func run(ctx context.Context) error {
	//
	// ── 1.  Config (+ Vault when referenced) ────────────────────────────
	//
	dial := onceDialer(dialVault)
	cfg, err := config.LoadAuto(ctx, config.RootDir(), dial)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	//
	// ── 2.  Logger ──────────────────────────────────────────────────────
	//
	logOut, err := logger.New(cfg.Log.Dir, cfg.Log.Level, runningInTTY())
	if err != nil {
		return fmt.Errorf("start logger: %w", err)
	}
	defer func() { _ = logOut.Sync() }()

	//
	// ── 3.  Domain wiring ───────────────────────────────────────────────
	//
	client := endpoint.New(cfg.Endpoint.URL,
		endpoint.WithTimeout(cfg.Endpoint.Timeout),
		endpoint.WithLogger(logOut.Named("endpoint")))
	if !client.Configured() {
		logOut.Warnw("endpoint url not set; every submission will fail until configured")
	}

	def, err := form.Default()
	if err != nil {
		return err
	}
	csrf, persistent := form.NewCSRF(cfg.Form.CSRFKey)
	if !persistent {
		logOut.Warnw("form.csrf_key not set or shorter than 32 bytes; using a random key")
	}

	page := form.NewHandler(def, csrf, onboarding.NewSchema(), client, cfg.Form.MaxSessions,
		form.WithLogger(logOut.Named("form")))

	//
	// ── 4.  Router ──────────────────────────────────────────────────────
	//
	r := chi.NewRouter()
	r.Use(chimw.RequestID, chimw.RealIP, chimw.Recoverer)
	r.Use(middleware.Security, middleware.ForceHTTPS(cfg.HTTP.ForceHTTPS))

	page.Routes(r)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if client.Configured() {
			_, _ = w.Write([]byte("ok\n"))
			return
		}
		_, _ = w.Write([]byte("ok (endpoint not configured)\n"))
	})

	//
	// ── 5.  Serve until signalled ───────────────────────────────────────
	//
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	go reloadOn(ctx, hup, dial, client, logOut.Named("config"))

	srv := server.New(cfg.HTTP.ListenAddr, r, client.Timeout())
	return server.Run(ctx, srv, logOut)
}

// dialVault opens the Vault client used to resolve `vault:` config values.
// It runs before logger.New, so the client is given no logger and picks up
// the global one once it is installed.
func dialVault(ctx context.Context, ttl time.Duration) (config.SecretResolver, error) {
	return vault.New(ctx, nil, ttl)
}

// onceDialer shares one resolver between the boot load and every reload, so
// a SIGHUP does not start another token-renewal loop.  A failed dial is
// retried on the next call.
func onceDialer(dial config.Dialer) config.Dialer {
	var (
		mu  sync.Mutex
		res config.SecretResolver
	)
	return func(ctx context.Context, ttl time.Duration) (config.SecretResolver, error) {
		mu.Lock()
		defer mu.Unlock()
		if res != nil {
			return res, nil
		}
		r, err := dial(ctx, ttl)
		if err != nil {
			return nil, err
		}
		res = r
		return res, nil
	}
}

// reloadOn re-reads config on every signal from sig and repoints client at
// the new endpoint.  A failed reload keeps the running config.  Listener,
// logger, and form settings need a restart.
func reloadOn(ctx context.Context, sig <-chan os.Signal, dial config.Dialer,
	client *endpoint.Client, log *zap.SugaredLogger) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-sig:
		}
		cfg, err := config.Reload(ctx, dial)
		if err != nil {
			log.Errorw("config reload failed; keeping previous", "err", err)
			continue
		}
		client.Reconfigure(cfg.Endpoint.URL, cfg.Endpoint.Timeout)
		log.Infow("config reloaded", "endpoint_configured", client.Configured())
	}
}
