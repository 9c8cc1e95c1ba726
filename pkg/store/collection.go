package store

import (
	"context"
)

// Collection is typed access to one namespace.
type Collection[T any] struct {
	store *Store
	ns    Namespace
}

// NewCollection binds ns of s to element type T.
func NewCollection[T any](s *Store, ns Namespace) *Collection[T] {
	return &Collection[T]{store: s, ns: ns}
}

// Namespace returns the bound namespace.
func (c *Collection[T]) Namespace() Namespace { return c.ns }

// ReadAll returns the stored items, or an empty slice when nothing valid is
// stored.
func (c *Collection[T]) ReadAll(ctx context.Context) ([]T, error) {
	var items []T
	ok, err := c.store.ReadAll(ctx, c.ns, &items)
	if err != nil {
		return []T{}, err
	}
	if !ok || items == nil {
		return []T{}, nil
	}
	return items, nil
}

// WriteAll replaces the stored items.
func (c *Collection[T]) WriteAll(ctx context.Context, items []T) error {
	if items == nil {
		items = []T{}
	}
	return c.store.WriteAll(ctx, c.ns, items)
}

// EnsureSeeded writes fixture when the namespace holds no valid value.
// Calling it again is a no-op.
func (c *Collection[T]) EnsureSeeded(ctx context.Context, fixture []T) error {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	_, err := c.seed(ctx, fixture)
	return err
}

func (c *Collection[T]) seed(ctx context.Context, fixture []T) (bool, error) {
	if c.store.Detached() {
		return false, nil
	}
	var existing []T
	ok, err := c.store.ReadAll(ctx, c.ns, &existing)
	if err != nil || ok {
		return false, err
	}
	c.store.logger.Info("Seeding namespace", "namespace", c.ns, "items", len(fixture))
	return true, c.WriteAll(ctx, fixture)
}

// Mutate seeds if needed, then runs fn over the stored items and writes
// back its result, all under the store lock. An error from fn aborts the
// write.
func (c *Collection[T]) Mutate(ctx context.Context, fixture []T, fn func([]T) ([]T, error)) ([]T, error) {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	if _, err := c.seed(ctx, fixture); err != nil {
		return nil, err
	}
	items, err := c.ReadAll(ctx)
	if err != nil {
		return nil, err
	}
	next, err := fn(items)
	if err != nil {
		return nil, err
	}
	if err := c.WriteAll(ctx, next); err != nil {
		return nil, err
	}
	return next, nil
}
