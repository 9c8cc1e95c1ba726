// Package user manages regular user accounts for the admin area.
package user

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/amirasaad/paydesk/pkg/domain/user"
	"github.com/amirasaad/paydesk/pkg/query"
	"github.com/amirasaad/paydesk/pkg/repository"
)

// Entity is the cache entity of user lists.
const Entity = "regular-users"

// Repository is the user fetcher.
type Repository = repository.Collection[user.User, *user.User]

// Service lists users and changes their status.
//
// Status changes patch the cached list before the store is written and merge
// the stored result afterwards. They never also invalidate the list: a
// refetch from a lagging source would undo the change on screen.
type Service struct {
	repo       *Repository
	cache      *query.Client
	staleTime  time.Duration
	toggle     *query.Mutation[string, user.User]
	deactivate *query.Mutation[string, user.User]
	reactivate *query.Mutation[string, user.User]
	remove     *query.Mutation[string, string]
	logger     *slog.Logger
}

// New creates a Service.
func New(repo *Repository, cache *query.Client, staleTime time.Duration, logger *slog.Logger) *Service {
	s := &Service{
		repo:      repo,
		cache:     cache,
		staleTime: staleTime,
		logger:    logger.With("context", "user-service"),
	}
	s.toggle = s.statusMutation("toggle-user", (*user.User).Toggle)
	s.deactivate = s.statusMutation("deactivate-user", (*user.User).Deactivate)
	s.reactivate = s.statusMutation("reactivate-user", (*user.User).Reactivate)
	s.remove = query.NewMutation(cache, query.MutationConfig[string, string]{
		Name: "delete-user",
		Run: func(ctx context.Context, id string) (string, error) {
			if err := repo.Remove(ctx, id); err != nil {
				return "", err
			}
			s.logger.Info("User deleted", "id", id)
			return id, nil
		},
		Optimistic: []query.Optimistic[string]{query.Patch(Entity, without)},
		Settle:     query.InvalidateEntities[string](Entity),
	})
	return s
}

func (s *Service) statusMutation(name string, set func(*user.User)) *query.Mutation[string, user.User] {
	return query.NewMutation(s.cache, query.MutationConfig[string, user.User]{
		Name: name,
		Run: func(ctx context.Context, id string) (user.User, error) {
			u, err := s.repo.SetState(ctx, id, set)
			if err != nil {
				return user.User{}, err
			}
			s.logger.Info("User status changed", "id", id, "action", name, "active", u.Active())
			return u, nil
		},
		Optimistic: []query.Optimistic[string]{query.Patch(Entity, func(list []user.User, id string) []user.User {
			return patched(list, id, set)
		})},
		Settle: query.MergeInto(Entity, merged),
	})
}

// List returns every regular user.
func (s *Service) List(ctx context.Context) ([]user.User, error) {
	return s.listQuery().Get(ctx)
}

// ListState is the cached list without fetching.
func (s *Service) ListState() query.State[[]user.User] {
	return s.listQuery().State()
}

func (s *Service) listQuery() *query.Query[[]user.User] {
	return query.NewQuery(s.cache, query.NewKey(Entity, nil), s.staleTime,
		func(ctx context.Context) ([]user.User, error) {
			return s.repo.List(ctx), nil
		})
}

// ActiveCount counts users that are active and not deactivated.
func (s *Service) ActiveCount(ctx context.Context) (int, error) {
	users, err := s.List(ctx)
	if err != nil {
		return 0, err
	}
	return user.CountActive(users), nil
}

// ToggleStatus flips a user between active and deactivated.
func (s *Service) ToggleStatus(ctx context.Context, id string) (user.User, error) {
	return s.toggle.Do(ctx, id)
}

// Deactivate disables a user.
func (s *Service) Deactivate(ctx context.Context, id string) (user.User, error) {
	return s.deactivate.Do(ctx, id)
}

// Reactivate re-enables a user.
func (s *Service) Reactivate(ctx context.Context, id string) (user.User, error) {
	return s.reactivate.Do(ctx, id)
}

// Delete removes a user.
func (s *Service) Delete(ctx context.Context, id string) error {
	_, err := s.remove.Do(ctx, id)
	return err
}

// States returns the outcome of the latest run of each mutation.
func (s *Service) States() map[string]query.MutationState {
	return map[string]query.MutationState{
		"toggle":     s.toggle.State(),
		"deactivate": s.deactivate.State(),
		"reactivate": s.reactivate.State(),
		"delete":     s.remove.State(),
	}
}

func patched(list []user.User, id string, set func(*user.User)) []user.User {
	out := slices.Clone(list)
	for i := range out {
		if out[i].ID == id {
			set(&out[i])
		}
	}
	return out
}

func merged(list []user.User, u user.User) []user.User {
	out := slices.Clone(list)
	for i := range out {
		if out[i].ID == u.ID {
			out[i] = u
		}
	}
	return out
}

func without(list []user.User, id string) []user.User {
	return slices.DeleteFunc(slices.Clone(list), func(u user.User) bool { return u.ID == id })
}
