package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/amirasaad/paydesk/infra/initializer"
	"github.com/amirasaad/paydesk/pkg/app"
	"github.com/amirasaad/paydesk/pkg/config"
	"github.com/amirasaad/paydesk/webapi"
	log "github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v2"
)

const shutdownTimeout = 10 * time.Second

// @title Paydesk API
// @version 1.0.0
// @description Chapa payment dashboard API
// @host localhost:3000
// @BasePath /
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description "Enter your Bearer token in the format: `Bearer {token}`"
func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load(".env")
	if err != nil {
		return fmt.Errorf("failed to load application configuration: %w", err)
	}

	deps, err := initializer.InitializeDependencies(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return serve(ctx, deps)
}

// serve runs the API until ctx is done, then drains in-flight requests and
// background fetches and closes the store.
func serve(ctx context.Context, deps *app.Deps) error {
	cfg := deps.Config
	logger := deps.Logger
	m, fiberApp := newServer(deps)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("Starting server",
		"env", cfg.Env,
		"address", addr,
		"scheme", cfg.Server.Scheme,
		"store", cfg.Store.Driver,
		"mock_gateway", cfg.Chapa.Mock || cfg.Chapa.SecretKey == "",
	)

	errCh := make(chan error, 1)
	go func() { errCh <- fiberApp.Listen(addr) }()

	var listenErr error
	select {
	case listenErr = <-errCh:
	case <-ctx.Done():
		logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		listenErr = fiberApp.ShutdownWithContext(shutdownCtx)
	}

	m.Close()
	if err := deps.Close(); err != nil {
		logger.Error("Failed to close store", "error", err)
	}
	return listenErr
}

func newServer(deps *app.Deps) (*app.Manager, *fiber.App) {
	m := app.NewManager(deps)
	return m, webapi.SetupApp(m)
}
