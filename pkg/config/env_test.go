package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("PAYDESK_TEST_VAR", "value")

	assert.Equal(t, "value", GetEnv("PAYDESK_TEST_VAR", "default"))
	assert.Equal(t, "default", GetEnv("PAYDESK_UNSET_VAR", "default"))
}

func TestGetEnvAsBool(t *testing.T) {
	tests := []struct {
		value string
		def   bool
		want  bool
	}{
		{"true", false, true},
		{"0", true, false},
		{"maybe", true, true},
		{"", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("PAYDESK_BOOL", tt.value)
			assert.Equal(t, tt.want, GetEnvAsBool("PAYDESK_BOOL", tt.def))
		})
	}
}

func TestUseLocalFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "state")
	t.Setenv(HomeEnv, dir)

	cfg := &App{Store: &Store{Driver: "memory"}, DB: &DB{}}
	require.NoError(t, cfg.UseLocalFile("cli.db"))
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, filepath.Join(dir, "cli.db"), cfg.DB.Url)
	assert.DirExists(t, dir)

	redis := &App{Store: &Store{Driver: "redis"}, DB: &DB{}}
	require.NoError(t, redis.UseLocalFile("cli.db"))
	assert.Equal(t, "redis", redis.Store.Driver)
	assert.Empty(t, redis.DB.Url)
}
