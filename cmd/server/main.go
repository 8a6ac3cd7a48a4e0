// Command server runs the scribe content API.
//
// Configuration is layered: built-in defaults, a YAML config file
// (-config flag, SCRIBE_CONFIG, ./config.yaml, /etc/scribe/config.yaml),
// then SCRIBE_* environment variable overrides. The token signing secret
// has no default; startup fails if it is not provided.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/scribeapp/scribe/pkg/api"
	"github.com/scribeapp/scribe/pkg/auth"
	"github.com/scribeapp/scribe/pkg/config"
	"github.com/scribeapp/scribe/pkg/debug"
	"github.com/scribeapp/scribe/pkg/observability"
	"github.com/scribeapp/scribe/pkg/storage"
	"github.com/scribeapp/scribe/pkg/storage/memory"
	"github.com/scribeapp/scribe/pkg/storage/postgres"
	"github.com/scribeapp/scribe/pkg/transport"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	debug.Init("", "")

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	store, err := newStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	tokens, err := auth.NewTokenService([]byte(cfg.Auth.Secret), nil)
	if err != nil {
		return err
	}

	gate := auth.NewGate(tokens, auth.TokenCarrier(cfg.Auth.TokenCarrier))
	limiter := auth.NewLimiter(cfg.RateLimit.Interval, cfg.RateLimit.MaxKeys, nil)

	handlers := transport.NewHandlers(store, tokens, transport.Config{
		TokenTTL:       cfg.Auth.TokenTTL,
		Carrier:        auth.TokenCarrier(cfg.Auth.TokenCarrier),
		Validation:     api.DefaultValidationConfig(),
		MetricsEnabled: cfg.Observability.Metrics.Enabled,
		MetricsPath:    cfg.Observability.Metrics.Path,
	})

	// The rate limiter runs ahead of routing and authentication so every
	// request is throttled, health checks included. Metrics wrap the
	// limiter to count the rejections too.
	root := observability.MetricsMiddleware(
		limiter.Middleware(cfg.RateLimit.TrustForwardedFor)(
			handlers.Router(gate),
		),
	)

	srv := transport.NewServer(root, transport.ServerConfig{
		Addr:            fmt.Sprintf(":%d", cfg.Server.Port),
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		Logger:          slog.Default(),
	})

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"storage", cfg.Storage.Type,
		"token_carrier", cfg.Auth.TokenCarrier,
		"rate_limit_interval", cfg.RateLimit.Interval,
	)

	return srv.ListenAndServe()
}

// newStore builds the configured storage backend.
func newStore(cfg *config.Config) (storage.Store, error) {
	switch cfg.Storage.Type {
	case "postgres":
		store, err := postgres.New(context.Background(), postgres.Config{
			DSN:            cfg.Storage.Postgres.DSN,
			MaxConns:       cfg.Storage.Postgres.MaxConns,
			MigrateOnStart: cfg.Storage.Postgres.MigrateOnStart,
		})
		if err != nil {
			return nil, fmt.Errorf("creating postgres store: %w", err)
		}
		slog.Info("storage enabled", "type", "postgres")
		return store, nil
	default:
		slog.Info("storage enabled", "type", "memory")
		return memory.New(), nil
	}
}
