// Package auth signs users in to a session.
package auth

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/amirasaad/paydesk/pkg/domain"
	"github.com/amirasaad/paydesk/pkg/domain/user"
	"github.com/amirasaad/paydesk/pkg/gateway"
	"github.com/amirasaad/paydesk/pkg/session"
	"github.com/amirasaad/paydesk/pkg/store"
	"github.com/amirasaad/paydesk/pkg/utils"
	"golang.org/x/crypto/bcrypt"
)

// DefaultTTL is the lifetime of issued tokens.
const DefaultTTL = 24 * time.Hour

// Credentials is the login input.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Identity is the signed-in user.
type Identity struct {
	ID    string    `json:"id"`
	Email string    `json:"email"`
	Name  string    `json:"name,omitempty"`
	Role  user.Role `json:"role"`
}

// LoginResult is returned by Login.
type LoginResult struct {
	Token     string    `json:"token"`
	User      Identity  `json:"user"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Directory finds accounts for the offline login path.
type Directory interface {
	Lookup(ctx context.Context, email string) (user.User, bool)
}

// Service signs in, restores and signs out one session.
type Service struct {
	remote    *gateway.Client
	session   *session.Context
	store     *store.Store
	directory Directory
	secret    []byte
	ttl       time.Duration
	now       func() time.Time
	passwords map[user.Role][]byte
	logger    *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithRemote makes Login try POST /auth/login on c first.
func WithRemote(c *gateway.Client) Option { return func(s *Service) { s.remote = c } }

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) Option { return func(s *Service) { s.ttl = ttl } }

// WithPasswordHashes replaces the bcrypt hashes of the demo role passwords.
func WithPasswordHashes(h map[user.Role][]byte) Option {
	return func(s *Service) { s.passwords = h }
}

// New creates a Service. The offline directory accepts the demo passwords
// user123, admin123 and super123 for the matching role.
func New(
	sess *session.Context,
	st *store.Store,
	dir Directory,
	secret []byte,
	logger *slog.Logger,
	opts ...Option,
) (*Service, error) {
	s := &Service{
		session:   sess,
		store:     st,
		directory: dir,
		secret:    secret,
		ttl:       DefaultTTL,
		now:       time.Now,
		logger:    logger.With("context", "auth-service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.passwords == nil {
		h, err := HashDemoPasswords(bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		s.passwords = h
	}
	return s, nil
}

// HashDemoPasswords hashes the demo password of each role.
func HashDemoPasswords(cost int) (map[user.Role][]byte, error) {
	plain := map[user.Role]string{
		user.RoleUser:       "user123",
		user.RoleAdmin:      "admin123",
		user.RoleSuperAdmin: "super123",
	}
	out := make(map[user.Role][]byte, len(plain))
	for role, pw := range plain {
		h, err := utils.HashPassword(pw, cost)
		if err != nil {
			return nil, err
		}
		out[role] = h
	}
	return out, nil
}

var errInvalidCredentials = &domain.Error{
	Kind:    domain.ErrUnauthorized,
	Message: "invalid email or password",
	Status:  http.StatusUnauthorized,
}

// Login authenticates with the remote API, or with the local directory when
// the API is not configured or fails. The session is initialized and its
// token persisted.
func (s *Service) Login(ctx context.Context, creds Credentials) (*LoginResult, error) {
	if err := domain.Validate(creds); err != nil {
		return nil, err
	}
	if s.remote != nil {
		res, err := s.remoteLogin(ctx, creds)
		if err == nil {
			return res, nil
		}
		s.logger.Warn("Remote login failed, using local directory", "error", err)
	}

	u, ok := s.directory.Lookup(ctx, creds.Email)
	if !ok {
		return nil, errInvalidCredentials
	}
	if !u.Active() {
		s.logger.Info("Refused login of inactive account", "email", u.Email)
		return nil, &domain.Error{
			Kind:    domain.ErrForbidden,
			Message: "account is deactivated",
			Status:  http.StatusForbidden,
		}
	}
	hash, ok := s.passwords[u.Role]
	if !ok || !utils.CheckPasswordHash(creds.Password, hash) {
		return nil, errInvalidCredentials
	}

	token, err := session.IssueToken(s.secret, s.session.ID(), u.ID, u.Email, string(u.Role), s.now(), s.ttl)
	if err != nil {
		return nil, err
	}
	return s.adopt(ctx, token, Identity{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role})
}

func (s *Service) remoteLogin(ctx context.Context, creds Credentials) (*LoginResult, error) {
	var resp struct {
		Token string   `json:"token"`
		User  Identity `json:"user"`
	}
	if err := s.remote.Post(ctx, "/auth/login", creds, &resp); err != nil {
		return nil, err
	}
	return s.adopt(ctx, resp.Token, resp.User)
}

func (s *Service) adopt(ctx context.Context, token string, id Identity) (*LoginResult, error) {
	claims, err := s.session.Init(token)
	if err != nil {
		return nil, err
	}
	if err := s.store.SaveToken(ctx, token); err != nil {
		s.logger.Warn("Failed to persist token", "error", err)
	}
	if id.ID == "" {
		id = identityFrom(claims)
	}
	s.logger.Info("Signed in", "user_id", id.ID, "role", id.Role)
	return &LoginResult{Token: token, User: id, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// Restore re-adopts a persisted token. It reports false when none is stored.
func (s *Service) Restore(ctx context.Context) (bool, error) {
	token, ok, err := s.store.LoadToken(ctx)
	if err != nil || !ok {
		return false, err
	}
	if _, err := s.session.Init(token); err != nil {
		if clearErr := s.store.ClearToken(ctx); clearErr != nil {
			s.logger.Warn("Failed to clear stale token", "error", clearErr)
		}
		return false, err
	}
	return true, nil
}

// Logout clears the session and the persisted token.
func (s *Service) Logout(ctx context.Context) error {
	if s.remote != nil {
		if _, ok := s.session.Token(); ok {
			if err := s.remote.Post(ctx, "/auth/logout", nil, nil); err != nil {
				s.logger.Debug("Remote logout failed", "error", err)
			}
		}
	}
	s.session.Clear()
	return s.store.ClearToken(ctx)
}

// Me returns the signed-in identity.
func (s *Service) Me() (Identity, bool) {
	claims := s.session.Claims()
	if claims == nil {
		return Identity{}, false
	}
	return identityFrom(claims), true
}

func identityFrom(c *session.Claims) Identity {
	return Identity{ID: c.UserID(), Email: c.Email, Role: user.Role(c.Role)}
}

// StoreDirectory looks accounts up in the admin and user collections, so
// status changes made in the dashboard apply to the next login.
type StoreDirectory struct {
	Admins func(ctx context.Context) []user.Admin
	Users  func(ctx context.Context) []user.User
}

// Lookup matches email case-insensitively, admins first.
func (d StoreDirectory) Lookup(ctx context.Context, email string) (user.User, bool) {
	if d.Admins != nil {
		for _, a := range d.Admins(ctx) {
			if utils.SameEmail(a.Email, email) {
				return a.User, true
			}
		}
	}
	if d.Users != nil {
		for _, u := range d.Users(ctx) {
			if utils.SameEmail(u.Email, email) {
				return u, true
			}
		}
	}
	return user.User{}, false
}
