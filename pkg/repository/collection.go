// Package repository implements the domain fetchers: one collection per
// entity that prefers the remote API, falls back to the local store and
// finally to fixtures.
package repository

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/amirasaad/paydesk/pkg/domain"
	"github.com/amirasaad/paydesk/pkg/store"
)

// Source tells where a list came from.
type Source string

const (
	SourceRemote  Source = "remote"
	SourceLocal   Source = "local"
	SourceFixture Source = "fixture"
)

// Record constrains PT to a pointer to T that exposes its model.
type Record[T any] interface {
	*T
	domain.Entity
}

// Config wires a Collection.
type Config[T any] struct {
	// Name is used in logs and not-found messages.
	Name    string
	Local   *store.Collection[T]
	Fixture func() []T
	// RemoteList is optional. When nil, lists come from the local store.
	RemoteList func(ctx context.Context) ([]T, error)
	// RemoteCreate is optional. When nil, creates are local only.
	RemoteCreate func(ctx context.Context, item T) (T, error)
	Now          func() time.Time
	Logger       *slog.Logger
}

// Collection is the fetcher for one entity type. It assumes a single writer
// per store scope.
type Collection[T any, PT Record[T]] struct {
	cfg    Config[T]
	logger *slog.Logger
}

// New returns a Collection.
func New[T any, PT Record[T]](cfg Config[T]) *Collection[T, PT] {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Fixture == nil {
		cfg.Fixture = func() []T { return []T{} }
	}
	return &Collection[T, PT]{
		cfg:    cfg,
		logger: cfg.Logger.With("context", "repository", "entity", cfg.Name),
	}
}

// List never fails: remote, then local store, then fixture.
func (c *Collection[T, PT]) List(ctx context.Context) []T {
	items, _ := c.ListWithSource(ctx)
	return items
}

// ListWithSource is List plus where the answer came from.
func (c *Collection[T, PT]) ListWithSource(ctx context.Context) ([]T, Source) {
	if c.cfg.RemoteList != nil {
		items, err := c.cfg.RemoteList(ctx)
		if err == nil {
			c.logger.Debug("Listed from remote", "count", len(items))
			return items, SourceRemote
		}
		c.logger.Warn("Remote list failed, using local store", "error", err)
	}
	items, err := c.local(ctx)
	if err == nil {
		return items, SourceLocal
	}
	c.logger.Warn("Local store unavailable, using fixture", "error", err)
	return c.cfg.Fixture(), SourceFixture
}

func (c *Collection[T, PT]) local(ctx context.Context) ([]T, error) {
	if err := c.cfg.Local.EnsureSeeded(ctx, c.cfg.Fixture()); err != nil {
		return nil, err
	}
	return c.cfg.Local.ReadAll(ctx)
}

// Get finds id in List.
func (c *Collection[T, PT]) Get(ctx context.Context, id string) (T, error) {
	for _, it := range c.List(ctx) {
		if PT(&it).GetModel().ID == id {
			return it, nil
		}
	}
	var zero T
	return zero, domain.NewNotFoundError(c.cfg.Name, id)
}

// Create assigns id and timestamps, tries the remote creator, and records the
// result in the local store. Only a network failure falls back to a local
// create; a remote rejection is returned as is.
func (c *Collection[T, PT]) Create(ctx context.Context, item T) (T, error) {
	var zero T
	now := c.cfg.Now().UTC()
	m := PT(&item).GetModel()
	m.CreatedAt, m.UpdatedAt = now, now

	if c.cfg.RemoteCreate != nil {
		created, err := c.cfg.RemoteCreate(ctx, item)
		switch {
		case err == nil:
			item = created
		case errors.Is(err, domain.ErrNetwork):
			c.logger.Warn("Remote create unreachable, creating locally", "error", err)
		default:
			return zero, err
		}
	}

	_, err := c.cfg.Local.Mutate(ctx, c.cfg.Fixture(), func(items []T) ([]T, error) {
		m := PT(&item).GetModel()
		if m.ID == "" || containsID[T, PT](items, m.ID) {
			m.ID = domain.NewID(now, func(id string) bool { return containsID[T, PT](items, id) })
		}
		return append([]T{item}, items...), nil
	})
	if err != nil {
		return zero, err
	}
	c.logger.Info("Created", "id", PT(&item).GetModel().ID)
	return item, nil
}

// Update applies fn to the stored item with id and refreshes UpdatedAt.
func (c *Collection[T, PT]) Update(ctx context.Context, id string, fn func(PT) error) (T, error) {
	var updated T
	_, err := c.cfg.Local.Mutate(ctx, c.cfg.Fixture(), func(items []T) ([]T, error) {
		i := indexOf[T, PT](items, id)
		if i < 0 {
			return nil, domain.NewNotFoundError(c.cfg.Name, id)
		}
		p := PT(&items[i])
		if err := fn(p); err != nil {
			return nil, err
		}
		p.GetModel().Touch(c.cfg.Now())
		updated = items[i]
		return items, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return updated, nil
}

// SetState moves the stored item with id to a new lifecycle state.
func (c *Collection[T, PT]) SetState(ctx context.Context, id string, set func(PT)) (T, error) {
	return c.Update(ctx, id, func(p PT) error {
		set(p)
		return nil
	})
}

// Remove deletes the stored item with id.
func (c *Collection[T, PT]) Remove(ctx context.Context, id string) error {
	_, err := c.cfg.Local.Mutate(ctx, c.cfg.Fixture(), func(items []T) ([]T, error) {
		i := indexOf[T, PT](items, id)
		if i < 0 {
			return nil, domain.NewNotFoundError(c.cfg.Name, id)
		}
		return slices.Delete(items, i, i+1), nil
	})
	return err
}

// UpdateWhere applies fn to the first stored item matching match. It reports
// whether an item matched; fn reports whether it changed anything, and only
// then is UpdatedAt refreshed and the store written.
func (c *Collection[T, PT]) UpdateWhere(ctx context.Context, match func(PT) bool, fn func(PT) bool) (T, bool, error) {
	var (
		found   bool
		changed bool
		result  T
	)
	errUnchanged := errors.New("unchanged")
	_, err := c.cfg.Local.Mutate(ctx, c.cfg.Fixture(), func(items []T) ([]T, error) {
		for i := range items {
			p := PT(&items[i])
			if !match(p) {
				continue
			}
			found = true
			if changed = fn(p); changed {
				p.GetModel().Touch(c.cfg.Now())
			}
			result = items[i]
			if !changed {
				return nil, errUnchanged
			}
			return items, nil
		}
		return nil, errUnchanged
	})
	if err != nil && !errors.Is(err, errUnchanged) {
		var zero T
		return zero, false, err
	}
	return result, found, nil
}

// FindWhere returns the first item in the local store matching match.
func (c *Collection[T, PT]) FindWhere(ctx context.Context, match func(PT) bool) (T, bool, error) {
	items, err := c.local(ctx)
	if err != nil {
		var zero T
		return zero, false, err
	}
	for i := range items {
		if match(PT(&items[i])) {
			return items[i], true, nil
		}
	}
	var zero T
	return zero, false, nil
}

func indexOf[T any, PT Record[T]](items []T, id string) int {
	for i := range items {
		if PT(&items[i]).GetModel().ID == id {
			return i
		}
	}
	return -1
}

func containsID[T any, PT Record[T]](items []T, id string) bool {
	return indexOf[T, PT](items, id) >= 0
}
