package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Load applies the first env file found among envFilePath, searching
// parent directories, or ./.env when none is given or found. Variables
// already set in the process environment win over the file.
func Load(envFilePath ...string) (*App, error) {
	logger := slog.Default()
	if path, ok := firstEnvFile(envFilePath); ok {
		if err := godotenv.Load(path); err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		logger.Info("Loaded environment file", "path", path)
	} else if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file, using process environment only")
	}
	return loadFromEnv()
}

func firstEnvFile(candidates []string) (string, bool) {
	for _, name := range candidates {
		if path, err := findUp(name); err == nil {
			return path, true
		}
	}
	return "", false
}

func loadFromEnv() (*App, error) {
	var cfg App
	err := envconfig.Process("", &cfg)
	if err != nil {
		return nil, err
	}

	if cfg.Env == "" {
		cfg.Env = "development"
	}
	switch cfg.Store.Driver {
	case "memory", "redis", "postgres", "sqlite":
	default:
		return nil, fmt.Errorf("unsupported STORE_DRIVER %q", cfg.Store.Driver)
	}

	logger := slog.Default()
	logger.Info("App config loaded",
		"env", cfg.Env,
		"store_driver", cfg.Store.Driver,
		"rate_limit_max_requests", cfg.RateLimit.MaxRequests,
		"rate_limit_window", cfg.RateLimit.Window,
		"db", maskValue(cfg.DB.Url),
		"jwt_expiry", cfg.Jwt.Expiry,
		"api_base_url", cfg.API.BaseURL,
		"chapa_base_url", cfg.Chapa.BaseURL,
		"chapa_secret_key", maskValue(cfg.Chapa.SecretKey),
		"chapa_mock", cfg.Chapa.Mock,
	)
	return &cfg, nil
}

func maskValue(key string) string {
	if len(key) <= 6 {
		return "****"
	}
	return key[:2] + "****" + key[len(key)-4:]
}

// findUp returns the first filename found walking up from the working
// directory.
func findUp(filename string) (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(dir, filename)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
}
