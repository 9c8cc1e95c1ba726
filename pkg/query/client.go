// Package query is an in-process cache of fetched values with
// stale-while-revalidate reads, entity-wide invalidation and optimistic
// mutations.
//
// Every fetch is tagged with a per-key generation number. Only the result
// of the most recently issued fetch for a key is applied; older results are
// dropped when they arrive. Optimistic patches and direct writes also bump
// the generation, so a fetch that was in flight when the cache was written
// cannot overwrite it.
package query

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Status is the lifecycle state of one key.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusReady
	StatusRefetching
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusRefetching:
		return "refetching"
	case StatusError:
		return "error"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

type entry struct {
	key       Key
	status    Status
	data      any
	hasData   bool
	err       error
	fetchedAt time.Time
	updatedAt time.Time
	staleTime time.Duration
	invalid   bool
	gen       uint64
	// inflight is non-nil exactly while a fetch tagged with gen is running.
	inflight chan struct{}
	fetch    func(context.Context) (any, error)
}

// Client owns every cached key.
type Client struct {
	mu      sync.Mutex
	entries map[Key]*entry
	wg      sync.WaitGroup
	now     func() time.Time
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithClock overrides time.Now for staleness decisions.
func WithClock(now func() time.Time) Option { return func(c *Client) { c.now = now } }

// NewClient returns an empty cache.
func NewClient(logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		entries: make(map[Key]*entry),
		now:     time.Now,
		logger:  logger.With("context", "query"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Wait blocks until no background fetch is running.
func (c *Client) Wait() { c.wg.Wait() }

// entryLocked returns the entry for key, creating it idle. c.mu must be held.
func (c *Client) entryLocked(key Key) *entry {
	e, ok := c.entries[key]
	if !ok {
		e = &entry{key: key, status: StatusIdle}
		c.entries[key] = e
	}
	return e
}

func (c *Client) staleLocked(e *entry) bool {
	return e.invalid || !c.now().Before(e.fetchedAt.Add(e.staleTime))
}

// startFetchLocked issues a new fetch for e and returns its completion
// channel. c.mu must be held.
func (c *Client) startFetchLocked(ctx context.Context, e *entry) chan struct{} {
	e.gen++
	gen := e.gen
	done := make(chan struct{})
	e.inflight = done
	if e.hasData {
		e.status = StatusRefetching
	} else {
		e.status = StatusLoading
	}
	fetch := e.fetch
	// the fetch outlives the caller that triggered it
	fctx := context.WithoutCancel(ctx)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		v, err := fetch(fctx)
		c.settle(e, gen, done, v, err)
	}()
	c.logger.Debug("Fetch started", "key", e.key.String(), "gen", gen)
	return done
}

func (c *Client) settle(e *entry, gen uint64, done chan struct{}, v any, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer close(done)
	if e.gen != gen {
		c.logger.Debug("Discarding superseded fetch", "key", e.key.String(), "gen", gen, "latest", e.gen)
		return
	}
	e.inflight = nil
	if err != nil {
		e.status = StatusError
		e.err = err
		c.logger.Warn("Fetch failed", "key", e.key.String(), "error", err, "kept_data", e.hasData)
		return
	}
	now := c.now()
	e.data = v
	e.hasData = true
	e.err = nil
	e.status = StatusReady
	e.fetchedAt = now
	e.updatedAt = now
	e.invalid = false
}

// cancelLocked makes any running fetch for e stale. c.mu must be held.
func (c *Client) cancelLocked(e *entry) {
	e.gen++
	e.inflight = nil
}

// Invalidate marks every key of the given entities stale and refetches the
// ones that have a fetcher. It does not wait for the refetches.
func (c *Client) Invalidate(ctx context.Context, entities ...string) {
	want := make(map[string]bool, len(entities))
	for _, en := range entities {
		want[en] = true
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, e := range c.entries {
		if !want[e.key.Entity] {
			continue
		}
		e.invalid = true
		if e.fetch != nil {
			c.startFetchLocked(ctx, e)
			n++
		}
	}
	c.logger.Debug("Invalidated", "entities", entities, "refetching", n)
}

// Reset drops every key. Running fetches finish but are discarded.
func (c *Client) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.entries {
		c.cancelLocked(e)
	}
	c.entries = make(map[Key]*entry)
}

// Keys lists the cached keys of entity.
func (c *Client) Keys(entity string) []Key {
	c.mu.Lock()
	defer c.mu.Unlock()
	var keys []Key
	for k := range c.entries {
		if k.Entity == entity {
			keys = append(keys, k)
		}
	}
	return keys
}

// SetData writes v as the fresh value of key, discarding any running fetch.
func SetData[T any](c *Client, key Key, v T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.entryLocked(key)
	c.cancelLocked(e)
	now := c.now()
	e.data = v
	e.hasData = true
	e.err = nil
	e.status = StatusReady
	e.fetchedAt = now
	e.updatedAt = now
	e.invalid = false
}

// GetData returns the cached value of key without fetching.
func GetData[T any](c *Client, key Key) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var zero T
	e, ok := c.entries[key]
	if !ok || !e.hasData {
		return zero, false
	}
	v, ok := e.data.(T)
	return v, ok
}
