// Package app wires one Workspace per session: the session itself, its
// scoped store, its query cache and the services reading through them.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/amirasaad/paydesk/internal/fixtures"
	"github.com/amirasaad/paydesk/pkg/config"
	"github.com/amirasaad/paydesk/pkg/domain"
	"github.com/amirasaad/paydesk/pkg/domain/transaction"
	"github.com/amirasaad/paydesk/pkg/domain/transfer"
	"github.com/amirasaad/paydesk/pkg/domain/user"
	"github.com/amirasaad/paydesk/pkg/gateway"
	"github.com/amirasaad/paydesk/pkg/provider/payment"
	"github.com/amirasaad/paydesk/pkg/query"
	"github.com/amirasaad/paydesk/pkg/repository"
	adminsvc "github.com/amirasaad/paydesk/pkg/service/admin"
	authsvc "github.com/amirasaad/paydesk/pkg/service/auth"
	banksvc "github.com/amirasaad/paydesk/pkg/service/bank"
	paymentsvc "github.com/amirasaad/paydesk/pkg/service/payment"
	txsvc "github.com/amirasaad/paydesk/pkg/service/transaction"
	transfersvc "github.com/amirasaad/paydesk/pkg/service/transfer"
	usersvc "github.com/amirasaad/paydesk/pkg/service/user"
	"github.com/amirasaad/paydesk/pkg/service/verification"
	"github.com/amirasaad/paydesk/pkg/session"
	"github.com/amirasaad/paydesk/pkg/store"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Deps are shared by every workspace.
type Deps struct {
	Config  *config.App
	Backend store.Backend
	Gateway payment.Gateway
	Logger  *slog.Logger
	// PasswordHashes are the bcrypt hashes of the demo passwords per role.
	PasswordHashes map[user.Role][]byte
	Now            func() time.Time
	// Closers release backend connections on shutdown.
	Closers []func() error
}

// Close runs every closer.
func (d *Deps) Close() error {
	var errs []error
	for _, fn := range d.Closers {
		errs = append(errs, fn())
	}
	return errors.Join(errs...)
}

// Workspace is everything one signed-in client reads and writes through.
type Workspace struct {
	Session      *session.Context
	Store        *store.Store
	Cache        *query.Client
	Auth         *authsvc.Service
	Transactions *txsvc.Service
	Transfers    *transfersvc.Service
	Users        *usersvc.Service
	Admins       *adminsvc.Service
	Banks        *banksvc.Service
	Payments     *paymentsvc.Service
	Verification *verification.Service
	logger       *slog.Logger
}

// NewWorkspace builds a workspace. An empty sid generates one.
func NewWorkspace(deps *Deps, sid string) (*Workspace, error) {
	cfg := deps.Config
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	logger := deps.Logger

	sessOpts := []session.Option{session.WithClock(now)}
	if sid != "" {
		sessOpts = append(sessOpts, session.WithID(sid))
	}
	sess := session.New([]byte(cfg.Jwt.Secret), logger, sessOpts...)
	logger = logger.With("sid", sess.ID())

	st := store.New(deps.Backend, sess, cfg.Store.KeyPrefix, logger)
	cache := query.NewClient(logger, query.WithClock(now))

	var api *gateway.Client
	if cfg.API.BaseURL != "" {
		api = gateway.New(cfg.API.BaseURL, cfg.API.Timeout, sess, logger)
	}

	txRepo := repository.New[transaction.Transaction](repository.Config[transaction.Transaction]{
		Name:       "transaction",
		Local:      store.NewCollection[transaction.Transaction](st, store.Transactions),
		Fixture:    fixtures.Transactions,
		RemoteList: remoteList[transaction.Transaction](api, "/transactions"),
		Now:        now,
		Logger:     logger,
	})
	trRepo := repository.New[transfer.Transfer](repository.Config[transfer.Transfer]{
		Name:         "transfer",
		Local:        store.NewCollection[transfer.Transfer](st, store.Transfers),
		Fixture:      fixtures.Transfers,
		RemoteCreate: transfersvc.RemoteCreate(deps.Gateway),
		Now:          now,
		Logger:       logger,
	})
	userRepo := repository.New[user.User](repository.Config[user.User]{
		Name:       "user",
		Local:      store.NewCollection[user.User](st, store.RegularUsers),
		Fixture:    fixtures.RegularUsers,
		RemoteList: remoteList[user.User](api, "/admin/users"),
		Now:        now,
		Logger:     logger,
	})
	adminRepo := repository.New[user.Admin](repository.Config[user.Admin]{
		Name:       "admin",
		Local:      store.NewCollection[user.Admin](st, store.AdminUsers),
		Fixture:    fixtures.Admins,
		RemoteList: remoteList[user.Admin](api, "/admin/admins"),
		Now:        now,
		Logger:     logger,
	})

	authOpts := []authsvc.Option{
		authsvc.WithClock(now),
		authsvc.WithTTL(cfg.Jwt.Expiry),
	}
	if deps.PasswordHashes != nil {
		authOpts = append(authOpts, authsvc.WithPasswordHashes(deps.PasswordHashes))
	}
	if api != nil {
		authOpts = append(authOpts, authsvc.WithRemote(api))
	}
	dir := authsvc.StoreDirectory{Admins: adminRepo.List, Users: userRepo.List}
	auth, err := authsvc.New(sess, st, dir, []byte(cfg.Jwt.Secret), logger, authOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth service: %w", err)
	}

	stale := cfg.Cache
	w := &Workspace{
		Session:      sess,
		Store:        st,
		Cache:        cache,
		Auth:         auth,
		Transactions: txsvc.New(txRepo, cache, stale.Transactions, logger),
		Transfers:    transfersvc.New(trRepo, cache, stale.Transfers, logger),
		Users:        usersvc.New(userRepo, cache, stale.Users, logger),
		Admins:       adminsvc.New(adminRepo, cache, stale.Admins, logger, adminsvc.WithUsers(userRepo.List)),
		Banks:        banksvc.New(deps.Gateway, fixtures.Banks, cache, stale.Banks, logger),
		Payments:     paymentsvc.New(deps.Gateway, txRepo, cache, logger),
		Verification: verification.New(deps.Gateway, txRepo, trRepo, cache, logger),
		logger:       logger.With("context", "workspace"),
	}
	sess.OnExpire(func() {
		w.logger.Info("Session expired, dropping cached data")
		cache.Reset()
		if err := st.ClearToken(context.Background()); err != nil {
			w.logger.Warn("Failed to clear token", "error", err)
		}
	})
	return w, nil
}

// Logout signs out and drops every cached value.
func (w *Workspace) Logout(ctx context.Context) error {
	err := w.Auth.Logout(ctx)
	w.Cache.Reset()
	return err
}

// Warm loads the dashboard collections concurrently.
func (w *Workspace) Warm(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := w.Transactions.List(ctx, transaction.Filter{})
		return err
	})
	g.Go(func() error {
		_, err := w.Transactions.Stats(ctx)
		return err
	})
	g.Go(func() error {
		_, err := w.Transfers.List(ctx)
		return err
	})
	g.Go(func() error {
		_, err := w.Banks.List(ctx)
		return err
	})
	return g.Wait()
}

// remoteList reads {"data": [...]} from the dashboard API. A nil client
// disables the remote source.
func remoteList[T any](api *gateway.Client, path string) func(context.Context) ([]T, error) {
	if api == nil {
		return nil
	}
	return func(ctx context.Context) ([]T, error) {
		var resp struct {
			Data []T `json:"data"`
		}
		if err := api.Get(ctx, path, &resp); err != nil {
			return nil, err
		}
		if resp.Data == nil {
			resp.Data = []T{}
		}
		return resp.Data, nil
	}
}

// Manager keeps one workspace per session id.
type Manager struct {
	deps       *Deps
	mu         sync.Mutex
	workspaces map[string]*Workspace
	group      singleflight.Group
}

// NewManager creates an empty Manager.
func NewManager(deps *Deps) *Manager {
	return &Manager{deps: deps, workspaces: make(map[string]*Workspace)}
}

// Deps returns the shared dependencies.
func (m *Manager) Deps() *Deps { return m.deps }

// Open creates a workspace with a fresh session id.
func (m *Manager) Open() (*Workspace, error) {
	w, err := NewWorkspace(m.deps, "")
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.workspaces[w.Session.ID()] = w
	m.mu.Unlock()
	return w, nil
}

// Resume returns the workspace a token belongs to, rebuilding it from the
// store when this process has not seen the session yet.
func (m *Manager) Resume(token string) (*Workspace, error) {
	claims, err := session.ParseToken([]byte(m.deps.Config.Jwt.Secret), token, m.now())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.NewAuthExpiredError("")
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrUnauthorized, err)
	}
	sid := claims.SessionID
	if sid == "" {
		sid = claims.UserID()
	}
	v, err, _ := m.group.Do(sid, func() (any, error) {
		m.mu.Lock()
		w, ok := m.workspaces[sid]
		m.mu.Unlock()
		if !ok {
			var err error
			w, err = NewWorkspace(m.deps, sid)
			if err != nil {
				return nil, err
			}
			m.mu.Lock()
			m.workspaces[sid] = w
			m.mu.Unlock()
		}
		if cur, ok := w.Session.Token(); !ok || cur != token {
			if _, err := w.Session.Init(token); err != nil {
				return nil, err
			}
		}
		return w, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Workspace), nil
}

// Drop forgets the workspace of sid.
func (m *Manager) Drop(sid string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if w, ok := m.workspaces[sid]; ok {
		w.Cache.Reset()
		delete(m.workspaces, sid)
	}
}

// Close waits for background fetches of every workspace.
func (m *Manager) Close() {
	m.mu.Lock()
	ws := make([]*Workspace, 0, len(m.workspaces))
	for _, w := range m.workspaces {
		ws = append(ws, w)
	}
	m.mu.Unlock()
	for _, w := range ws {
		w.Cache.Wait()
	}
}

func (m *Manager) now() time.Time {
	if m.deps.Now != nil {
		return m.deps.Now()
	}
	return time.Now()
}
