// Package session holds the explicit per-login context: who is signed in,
// which token authenticates remote calls, and which storage scope the local
// store writes to.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/amirasaad/paydesk/pkg/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Context is the signed-in state of one client. The zero value is not
// usable; call New.
type Context struct {
	mu        sync.RWMutex
	id        string
	secret    []byte
	token     string
	claims    *Claims
	now       func() time.Time
	listeners []func()
	logger    *slog.Logger
}

// Option configures a Context.
type Option func(*Context)

// WithID fixes the storage scope instead of generating one.
func WithID(id string) Option { return func(c *Context) { c.id = id } }

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option { return func(c *Context) { c.now = now } }

// New returns an empty session. secret verifies tokens given to Init.
func New(secret []byte, logger *slog.Logger, opts ...Option) *Context {
	c := &Context{
		id:     uuid.NewString(),
		secret: secret,
		now:    time.Now,
		logger: logger.With("context", "session"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ID is the storage scope of this session.
func (c *Context) ID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.id
}

// Init adopts a token. Expired or invalid tokens are rejected and leave the
// session empty.
func (c *Context) Init(token string) (*Claims, error) {
	claims, err := ParseToken(c.secret, token, c.now())
	if err != nil {
		c.Clear()
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.NewAuthExpiredError("")
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrUnauthorized, err)
	}
	c.mu.Lock()
	c.token = token
	c.claims = claims
	c.mu.Unlock()
	c.logger.Debug("Session initialized", "user_id", claims.Subject, "role", claims.Role)
	return claims, nil
}

// Token returns the bearer token. An expired token reads as absent.
func (c *Context) Token() (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.token == "" || c.claims == nil {
		return "", false
	}
	if exp := c.claims.ExpiresAt; exp != nil && !c.now().Before(exp.Time) {
		return "", false
	}
	return c.token, true
}

// Claims returns the claims of a valid token, or nil.
func (c *Context) Claims() *Claims {
	if _, ok := c.Token(); !ok {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.claims
}

// Clear drops the token without notifying listeners.
func (c *Context) Clear() {
	c.mu.Lock()
	c.token = ""
	c.claims = nil
	c.mu.Unlock()
}

// OnExpire registers fn to run when the remote side rejects the token.
// Listeners stand in for "navigate to the login page".
func (c *Context) OnExpire(fn func()) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

// Expire clears the token and notifies listeners.
func (c *Context) Expire() {
	c.Clear()
	c.mu.RLock()
	listeners := append([]func(){}, c.listeners...)
	c.mu.RUnlock()
	c.logger.Info("Session expired")
	for _, fn := range listeners {
		fn()
	}
}
