package config

import (
	"os"
	"path/filepath"
	"strconv"
)

// HomeEnv overrides the directory the CLI keeps its state in.
const HomeEnv = "PAYDESK_HOME"

// GetEnv returns the value of key, or defaultValue when it is unset or empty.
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvAsBool parses key as a bool. Unset or unparsable values yield
// defaultValue.
func GetEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// Home returns $PAYDESK_HOME, or ~/.paydesk, creating it when missing.
func Home() (string, error) {
	dir := os.Getenv(HomeEnv)
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(home, ".paydesk")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return dir, nil
}

// UseLocalFile points a memory store at a sqlite file under Home, so state
// outlives a single process. Other drivers are left alone.
func (a *App) UseLocalFile(name string) error {
	if a.Store.Driver != "memory" {
		return nil
	}
	dir, err := Home()
	if err != nil {
		return err
	}
	a.Store.Driver = "sqlite"
	a.DB = &DB{Url: filepath.Join(dir, name)}
	return nil
}
