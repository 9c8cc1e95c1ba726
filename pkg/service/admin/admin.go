// Package admin manages admin accounts.
package admin

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/amirasaad/paydesk/pkg/domain"
	"github.com/amirasaad/paydesk/pkg/domain/user"
	"github.com/amirasaad/paydesk/pkg/query"
	"github.com/amirasaad/paydesk/pkg/repository"
	"github.com/amirasaad/paydesk/pkg/utils"
)

// Entity is the cache entity of admin lists.
const Entity = "admin-users"

// Repository is the admin fetcher.
type Repository = repository.Collection[user.Admin, *user.Admin]

// UpdateInput identifies the admin to patch.
type UpdateInput struct {
	ID    string
	Patch user.UpdateAdminRequest
}

// Service manages admins.
type Service struct {
	repo       *Repository
	cache      *query.Client
	staleTime  time.Duration
	create     *query.Mutation[user.CreateAdminRequest, user.Admin]
	update     *query.Mutation[UpdateInput, user.Admin]
	deactivate *query.Mutation[string, user.Admin]
	reactivate *query.Mutation[string, user.Admin]
	remove     *query.Mutation[string, string]
	users      func(context.Context) []user.User
	logger     *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithUsers makes Create reject emails already held by a regular user.
func WithUsers(list func(context.Context) []user.User) Option {
	return func(s *Service) { s.users = list }
}

// New creates a Service.
func New(repo *Repository, cache *query.Client, staleTime time.Duration, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		cache:     cache,
		staleTime: staleTime,
		logger:    logger.With("context", "admin-service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.create = query.NewMutation(cache, query.MutationConfig[user.CreateAdminRequest, user.Admin]{
		Name:   "create-admin",
		Run:    s.runCreate,
		Settle: query.InvalidateEntities[user.Admin](Entity),
	})
	s.update = query.NewMutation(cache, query.MutationConfig[UpdateInput, user.Admin]{
		Name: "update-admin",
		Run: func(ctx context.Context, in UpdateInput) (user.Admin, error) {
			if err := in.Patch.Validate(); err != nil {
				return user.Admin{}, err
			}
			return repo.Update(ctx, in.ID, func(a *user.Admin) error {
				in.Patch.Apply(a)
				return nil
			})
		},
		Settle: query.MergeInto(Entity, merged),
	})
	s.deactivate = s.statusMutation("deactivate-admin", func(a *user.Admin) { a.Deactivate() })
	s.reactivate = s.statusMutation("reactivate-admin", func(a *user.Admin) { a.Reactivate() })
	s.remove = query.NewMutation(cache, query.MutationConfig[string, string]{
		Name: "delete-admin",
		Run: func(ctx context.Context, id string) (string, error) {
			if err := repo.Remove(ctx, id); err != nil {
				return "", err
			}
			s.logger.Info("Admin deleted", "id", id)
			return id, nil
		},
		Optimistic: []query.Optimistic[string]{query.Patch(Entity, func(list []user.Admin, id string) []user.Admin {
			return slices.DeleteFunc(slices.Clone(list), func(a user.Admin) bool { return a.ID == id })
		})},
		Settle: query.InvalidateEntities[string](Entity),
	})
	return s
}

func (s *Service) statusMutation(name string, set func(*user.Admin)) *query.Mutation[string, user.Admin] {
	return query.NewMutation(s.cache, query.MutationConfig[string, user.Admin]{
		Name: name,
		Run: func(ctx context.Context, id string) (user.Admin, error) {
			return s.repo.SetState(ctx, id, set)
		},
		Optimistic: []query.Optimistic[string]{query.Patch(Entity, func(list []user.Admin, id string) []user.Admin {
			out := slices.Clone(list)
			for i := range out {
				if out[i].ID == id {
					set(&out[i])
				}
			}
			return out
		})},
		Settle: query.MergeInto(Entity, merged),
	})
}

func merged(list []user.Admin, a user.Admin) []user.Admin {
	out := slices.Clone(list)
	for i := range out {
		if out[i].ID == a.ID {
			out[i] = a
		}
	}
	return out
}

func (s *Service) runCreate(ctx context.Context, req user.CreateAdminRequest) (user.Admin, error) {
	if err := req.Validate(); err != nil {
		return user.Admin{}, err
	}
	_, taken, err := s.repo.FindWhere(ctx, func(a *user.Admin) bool {
		return utils.SameEmail(a.Email, req.Email)
	})
	if err != nil {
		return user.Admin{}, err
	}
	if !taken && s.users != nil {
		taken = slices.ContainsFunc(s.users(ctx), func(u user.User) bool {
			return utils.SameEmail(u.Email, req.Email)
		})
	}
	if taken {
		return user.Admin{}, domain.NewValidationError(map[string]string{"email": "is already in use"})
	}
	created, err := s.repo.Create(ctx, user.Admin{
		User: user.User{
			Email:    req.Email,
			Name:     req.Name,
			Role:     req.Role,
			IsActive: true,
		},
		Permissions: user.DefaultPermissions(req.Role),
	})
	if err != nil {
		return user.Admin{}, err
	}
	s.logger.Info("Admin created", "id", created.ID, "role", created.Role)
	return created, nil
}

// List returns every admin.
func (s *Service) List(ctx context.Context) ([]user.Admin, error) {
	return s.listQuery().Get(ctx)
}

// ListState is the cached list without fetching.
func (s *Service) ListState() query.State[[]user.Admin] {
	return s.listQuery().State()
}

func (s *Service) listQuery() *query.Query[[]user.Admin] {
	return query.NewQuery(s.cache, query.NewKey(Entity, nil), s.staleTime,
		func(ctx context.Context) ([]user.Admin, error) {
			return s.repo.List(ctx), nil
		})
}

// Create adds an admin with the default permissions of its role.
func (s *Service) Create(ctx context.Context, req user.CreateAdminRequest) (user.Admin, error) {
	return s.create.Do(ctx, req)
}

// Update patches an admin.
func (s *Service) Update(ctx context.Context, id string, patch user.UpdateAdminRequest) (user.Admin, error) {
	return s.update.Do(ctx, UpdateInput{ID: id, Patch: patch})
}

// Deactivate disables an admin.
func (s *Service) Deactivate(ctx context.Context, id string) (user.Admin, error) {
	return s.deactivate.Do(ctx, id)
}

// Reactivate re-enables an admin.
func (s *Service) Reactivate(ctx context.Context, id string) (user.Admin, error) {
	return s.reactivate.Do(ctx, id)
}

// Delete removes an admin.
func (s *Service) Delete(ctx context.Context, id string) error {
	_, err := s.remove.Do(ctx, id)
	return err
}

// States returns the outcome of the latest run of each mutation.
func (s *Service) States() map[string]query.MutationState {
	return map[string]query.MutationState{
		"create":     s.create.State(),
		"update":     s.update.State(),
		"deactivate": s.deactivate.State(),
		"reactivate": s.reactivate.State(),
		"delete":     s.remove.State(),
	}
}
