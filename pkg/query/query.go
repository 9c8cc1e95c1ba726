package query

import (
	"context"
	"fmt"
	"time"
)

// Fetcher loads the value of one key.
type Fetcher[T any] func(ctx context.Context) (T, error)

// Query binds a key to its fetcher and stale time.
type Query[T any] struct {
	c         *Client
	key       Key
	staleTime time.Duration
	fetch     Fetcher[T]
}

// NewQuery returns a handle; nothing is fetched until Get.
func NewQuery[T any](c *Client, key Key, staleTime time.Duration, fetch Fetcher[T]) *Query[T] {
	return &Query[T]{c: c, key: key, staleTime: staleTime, fetch: fetch}
}

// Key returns the bound key.
func (q *Query[T]) Key() Key { return q.key }

// register installs the fetcher on the entry. c.mu must be held.
func (q *Query[T]) register() *entry {
	e := q.c.entryLocked(q.key)
	e.staleTime = q.staleTime
	fetch := q.fetch
	e.fetch = func(ctx context.Context) (any, error) { return fetch(ctx) }
	return e
}

func (q *Query[T]) cast(v any) (T, error) {
	t, ok := v.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("query %s holds %T", q.key, v)
	}
	return t, nil
}

// Get returns the cached value. The first read of a key waits for the
// initial fetch. Later reads return immediately; when the value is older
// than the stale time a single background refetch is started. A failed
// refetch keeps the previous value.
func (q *Query[T]) Get(ctx context.Context) (T, error) {
	var zero T
	waited := false
	for {
		q.c.mu.Lock()
		e := q.register()
		if e.hasData {
			if q.c.staleLocked(e) && e.inflight == nil {
				q.c.startFetchLocked(ctx, e)
			}
			v := e.data
			q.c.mu.Unlock()
			return q.cast(v)
		}
		if e.inflight == nil {
			if waited && e.status == StatusError {
				err := e.err
				q.c.mu.Unlock()
				return zero, err
			}
			q.c.startFetchLocked(ctx, e)
		}
		done := e.inflight
		q.c.mu.Unlock()

		select {
		case <-done:
		case <-ctx.Done():
			return zero, ctx.Err()
		}
		waited = true
	}
}

// Refetch starts a fetch now and waits for the key to settle.
func (q *Query[T]) Refetch(ctx context.Context) (T, error) {
	var zero T
	q.c.mu.Lock()
	e := q.register()
	done := q.c.startFetchLocked(ctx, e)
	q.c.mu.Unlock()
	for {
		select {
		case <-done:
		case <-ctx.Done():
			return zero, ctx.Err()
		}
		q.c.mu.Lock()
		if e.inflight != nil {
			// superseded by a newer fetch; follow it
			done = e.inflight
			q.c.mu.Unlock()
			continue
		}
		data, hasData, status, err := e.data, e.hasData, e.status, e.err
		q.c.mu.Unlock()
		if status == StatusError {
			return zero, err
		}
		if !hasData {
			return zero, nil
		}
		return q.cast(data)
	}
}

// State is a point-in-time view of one key.
type State[T any] struct {
	Status    Status
	Data      T
	HasData   bool
	Err       error
	FetchedAt time.Time
	UpdatedAt time.Time
	Stale     bool
}

// State reads the key without fetching.
func (q *Query[T]) State() State[T] { return Peek[T](q.c, q.key) }

// Peek reads key without fetching.
func Peek[T any](c *Client, key Key) State[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return State[T]{Status: StatusIdle, Stale: true}
	}
	s := State[T]{
		Status:    e.status,
		HasData:   e.hasData,
		Err:       e.err,
		FetchedAt: e.fetchedAt,
		UpdatedAt: e.updatedAt,
		Stale:     c.staleLocked(e),
	}
	if e.hasData {
		s.Data, _ = e.data.(T)
	}
	return s
}
