package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_FindsEnvFileInParent(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".env.test"),
		[]byte("JWT_SECRET=file-secret\nPAYDESK_LOAD_MARKER=from-file\n"), 0o600))
	nested := filepath.Join(root, "cmd", "server")
	require.NoError(t, os.MkdirAll(nested, 0o700))
	t.Chdir(nested)
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Cleanup(func() { _ = os.Unsetenv("PAYDESK_LOAD_MARKER") })

	cfg, err := Load("missing.env", ".env.test")
	require.NoError(t, err)

	assert.Equal(t, "from-file", os.Getenv("PAYDESK_LOAD_MARKER"))
	assert.Equal(t, "env-secret", cfg.Jwt.Secret)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, 30*time.Second, cfg.Chapa.Timeout)
	assert.Equal(t, "https://api.chapa.co/v1", cfg.Chapa.BaseURL)
	assert.Equal(t, time.Hour, cfg.Cache.Banks)
}

func TestLoad_Errors(t *testing.T) {
	t.Chdir(t.TempDir())

	t.Run("unsupported driver", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "secret")
		t.Setenv("STORE_DRIVER", "mongo")
		_, err := Load()
		assert.ErrorContains(t, err, "unsupported STORE_DRIVER")
	})

	t.Run("missing jwt secret", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "")
		require.NoError(t, os.Unsetenv("JWT_SECRET"))
		_, err := Load()
		assert.Error(t, err)
	})
}

func TestMaskValue(t *testing.T) {
	assert.Equal(t, "****", maskValue("short"))
	assert.Equal(t, "CH****abcd", maskValue("CHASECK-xyzabcd"))
}
