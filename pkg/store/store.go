// Package store is the local persistent store: JSON collections kept per
// session scope in a pluggable key/value backend.
package store

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
)

// Namespace names one persisted collection.
type Namespace string

const (
	Transactions Namespace = "transactions"
	AdminUsers   Namespace = "admin-users"
	RegularUsers Namespace = "regular-users"
	Transfers    Namespace = "transfers"
	AuthToken    Namespace = "auth-token"
)

// Backend stores raw values by key.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Scope identifies whose data a Store holds.
type Scope interface {
	ID() string
}

// Store reads and writes whole collections. A Store without a backend or
// scope is detached: reads are empty and writes are dropped.
type Store struct {
	backend Backend
	scope   Scope
	prefix  string
	logger  *slog.Logger

	// serializes read-modify-write cycles within this process
	mu sync.Mutex
}

// New returns a Store over backend, scoped by scope.
func New(backend Backend, scope Scope, prefix string, logger *slog.Logger) *Store {
	return &Store{
		backend: backend,
		scope:   scope,
		prefix:  prefix,
		logger:  logger.With("context", "store"),
	}
}

// Detached reports whether the store has nowhere to persist.
func (s *Store) Detached() bool {
	return s == nil || s.backend == nil || s.scope == nil || s.scope.ID() == ""
}

func (s *Store) key(ns Namespace) string {
	return s.prefix + s.scope.ID() + ":" + string(ns)
}

// ReadAll decodes the namespace into out.
// It reports whether the namespace held a valid value. Missing or malformed
// data returns false with no error.
func (s *Store) ReadAll(ctx context.Context, ns Namespace, out any) (bool, error) {
	if s.Detached() {
		return false, nil
	}
	raw, ok, err := s.backend.Get(ctx, s.key(ns))
	if err != nil {
		s.logger.Error("Store read failed", "namespace", ns, "error", err)
		return false, err
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		s.logger.Warn("Discarding malformed stored value", "namespace", ns, "error", err)
		return false, nil
	}
	return true, nil
}

// WriteAll replaces the collection with v.
func (s *Store) WriteAll(ctx context.Context, ns Namespace, v any) error {
	if s.Detached() {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := s.backend.Put(ctx, s.key(ns), raw); err != nil {
		s.logger.Error("Store write failed", "namespace", ns, "error", err)
		return err
	}
	s.logger.Debug("Store written", "namespace", ns, "bytes", len(raw))
	return nil
}

// Remove deletes the namespace.
func (s *Store) Remove(ctx context.Context, ns Namespace) error {
	if s.Detached() {
		return nil
	}
	return s.backend.Delete(ctx, s.key(ns))
}
