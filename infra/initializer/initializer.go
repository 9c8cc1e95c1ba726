package initializer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/amirasaad/paydesk/infra/provider/chapa"
	"github.com/amirasaad/paydesk/infra/provider/mockchapa"
	infra_store "github.com/amirasaad/paydesk/infra/store"
	"github.com/amirasaad/paydesk/pkg/app"
	"github.com/amirasaad/paydesk/pkg/config"
	"github.com/amirasaad/paydesk/pkg/gateway"
	"github.com/amirasaad/paydesk/pkg/provider/payment"
	authsvc "github.com/amirasaad/paydesk/pkg/service/auth"
	"github.com/amirasaad/paydesk/pkg/store"
	"golang.org/x/crypto/bcrypt"
)

// InitializeDependencies initializes all the application dependencies
func InitializeDependencies(cfg *config.App) (*app.Deps, error) {
	logger := SetupLogger(cfg.Log)
	return Build(cfg, logger)
}

// Build wires the dependencies with an existing logger.
func Build(cfg *config.App, logger *slog.Logger) (*app.Deps, error) {
	deps := &app.Deps{Config: cfg, Logger: logger, Now: time.Now}

	backend, closer, err := NewBackend(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize store backend: %w", err)
	}
	deps.Backend = backend
	if closer != nil {
		deps.Closers = append(deps.Closers, closer)
	}

	deps.Gateway = NewGateway(cfg.Chapa, logger)

	cost := bcrypt.DefaultCost
	if cfg.Env == "test" {
		cost = bcrypt.MinCost
	}
	deps.PasswordHashes, err = authsvc.HashDemoPasswords(cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash demo passwords: %w", err)
	}
	return deps, nil
}

// NewBackend opens the store backend named by STORE_DRIVER.
func NewBackend(cfg *config.App, logger *slog.Logger) (store.Backend, func() error, error) {
	switch cfg.Store.Driver {
	case "", "memory":
		logger.Info("Using in-memory store")
		return infra_store.NewMemory(), nil, nil
	case "redis":
		r, err := infra_store.NewRedisFromURL(cfg.Redis.URL, cfg.Store.TTL, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create Redis store: %w", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Redis.DialTimeout)
		defer cancel()
		if err := r.Ping(ctx); err != nil {
			logger.Warn("Redis store is not reachable yet", "error", err)
		}
		logger.Info("Using Redis store")
		return r, r.Close, nil
	case "postgres", "sqlite":
		g, err := infra_store.OpenGorm(cfg.Store.Driver, cfg.DB.Url, cfg.Env)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open %s store: %w", cfg.Store.Driver, err)
		}
		logger.Info("Using database store", "driver", cfg.Store.Driver)
		return g, g.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}
}

// NewGateway returns the Chapa client, or the in-process gateway when
// CHAPA_MOCK is set or no secret key is configured.
func NewGateway(cfg *config.Chapa, logger *slog.Logger) payment.Gateway {
	if cfg.Mock || cfg.SecretKey == "" {
		logger.Info("Using mock Chapa gateway")
		return mockchapa.New()
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = chapa.DefaultBaseURL
	}
	client := gateway.New(baseURL, cfg.Timeout, gateway.StaticToken(cfg.SecretKey), logger)
	return chapa.New(client, logger)
}
