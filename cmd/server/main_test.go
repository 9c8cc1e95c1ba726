package main

import (
	"net/http"
	"testing"
	"time"

	"github.com/amirasaad/paydesk/infra/initializer"
	"github.com/amirasaad/paydesk/pkg/config"
	"github.com/amirasaad/paydesk/pkg/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer(t *testing.T) {
	t.Setenv("JWT_SECRET", testutils.Secret)
	t.Setenv("APP_ENV", "test")
	t.Setenv("CHAPA_MOCK", "true")
	t.Setenv("STORE_DRIVER", "memory")
	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, cfg.Jwt.Expiry)

	deps, err := initializer.Build(cfg, testutils.Logger())
	require.NoError(t, err)
	m, fiberApp := newServer(deps)
	t.Cleanup(func() {
		m.Close()
		_ = deps.Close()
	})

	resp := testutils.MakeRequestWithApp(fiberApp, http.MethodGet, "/health", "", "")
	defer resp.Body.Close() //nolint: errcheck
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	login := testutils.MakeRequestWithApp(fiberApp, http.MethodPost, "/auth/login",
		`{"email":"superadmin@chapa.co","password":"super123"}`, "")
	defer login.Body.Close() //nolint: errcheck
	assert.Equal(t, http.StatusOK, login.StatusCode)
}
