// Package testutils builds the per-session plumbing service tests run on:
// an in-memory backend, a session-scoped store, a query cache and a clock
// the test controls.
package testutils

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	infra_store "github.com/amirasaad/paydesk/infra/store"
	"github.com/amirasaad/paydesk/pkg/query"
	"github.com/amirasaad/paydesk/pkg/repository"
	"github.com/amirasaad/paydesk/pkg/session"
	"github.com/amirasaad/paydesk/pkg/store"
	"github.com/stretchr/testify/require"
)

// Secret signs tokens in tests.
const Secret = "test-secret"

// Clock is a manually advanced time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock starts at 2024-03-01 12:00 UTC, after every fixture timestamp.
func NewClock() *Clock {
	return &Clock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// Logger discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Env is one session's worth of plumbing.
type Env struct {
	Clock   *Clock
	Logger  *slog.Logger
	Backend store.Backend
	Session *session.Context
	Store   *store.Store
	Cache   *query.Client
}

// NewEnv builds an Env over an in-memory backend. The cache is drained when
// the test ends so no background fetch outlives it.
func NewEnv(t testing.TB) *Env {
	t.Helper()
	return NewEnvWithBackend(t, infra_store.NewMemory())
}

// NewEnvWithBackend is NewEnv over backend.
func NewEnvWithBackend(t testing.TB, backend store.Backend) *Env {
	t.Helper()
	clk := NewClock()
	logger := Logger()
	sess := session.New([]byte(Secret), logger, session.WithClock(clk.Now))
	e := &Env{
		Clock:   clk,
		Logger:  logger,
		Backend: backend,
		Session: sess,
		Store:   store.New(backend, sess, "test:", logger),
		Cache:   query.NewClient(logger, query.WithClock(clk.Now)),
	}
	t.Cleanup(e.Cache.Wait)
	return e
}

// Repo builds a fetcher over the Env's store. mods adjust the config, for
// example to add a remote source.
func Repo[T any, PT repository.Record[T]](
	e *Env,
	name string,
	ns store.Namespace,
	fixture func() []T,
	mods ...func(*repository.Config[T]),
) *repository.Collection[T, PT] {
	cfg := repository.Config[T]{
		Name:    name,
		Local:   store.NewCollection[T](e.Store, ns),
		Fixture: fixture,
		Now:     e.Clock.Now,
		Logger:  e.Logger,
	}
	for _, m := range mods {
		m(&cfg)
	}
	return repository.New[T, PT](cfg)
}

// SignIn issues a token for the Env's session and adopts it.
func (e *Env) SignIn(t testing.TB, userID, email, role string) string {
	t.Helper()
	token, err := session.IssueToken([]byte(Secret), e.Session.ID(), userID, email, role, e.Clock.Now(), time.Hour)
	require.NoError(t, err)
	_, err = e.Session.Init(token)
	require.NoError(t, err)
	return token
}

// ReadAll returns the persisted collection ns.
func ReadAll[T any](t testing.TB, e *Env, ns store.Namespace) []T {
	t.Helper()
	items, err := store.NewCollection[T](e.Store, ns).ReadAll(context.Background())
	require.NoError(t, err)
	return items
}

// GatedBackend blocks writes while closed, so tests can look at the cache
// between an optimistic patch and the store write.
type GatedBackend struct {
	store.Backend
	mu   sync.Mutex
	gate chan struct{}
}

// NewGatedBackend wraps an in-memory backend, initially open.
func NewGatedBackend() *GatedBackend {
	return &GatedBackend{Backend: infra_store.NewMemory()}
}

// Close makes the next writes block until Open.
func (g *GatedBackend) Close() {
	g.mu.Lock()
	g.gate = make(chan struct{})
	g.mu.Unlock()
}

// Open releases blocked writes.
func (g *GatedBackend) Open() {
	g.mu.Lock()
	if g.gate != nil {
		close(g.gate)
		g.gate = nil
	}
	g.mu.Unlock()
}

func (g *GatedBackend) Put(ctx context.Context, key string, value []byte) error {
	g.mu.Lock()
	gate := g.gate
	g.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return g.Backend.Put(ctx, key, value)
}
