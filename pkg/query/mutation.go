package query

import (
	"context"
	"slices"
	"sync"
	"time"
)

// MutationState is the outcome of the latest run of one mutation.
type MutationState struct {
	Pending   bool
	Err       error
	Succeeded bool
	SettledAt time.Time
}

// Optimistic rewrites the cached values of one entity before the mutation
// runs. Every cached variant holding a T is patched.
type Optimistic[In any] struct {
	entity string
	apply  func(data any, in In) (any, bool)
}

// Patch builds an Optimistic for the variants of entity cached as T. apply
// must return a new value rather than modify its argument, since the
// argument is the rollback snapshot.
func Patch[T, In any](entity string, apply func(T, In) T) Optimistic[In] {
	return Optimistic[In]{
		entity: entity,
		apply: func(data any, in In) (any, bool) {
			v, ok := data.(T)
			if !ok {
				return nil, false
			}
			return apply(v, in), true
		},
	}
}

// Settle is what happens to the cache after a mutation succeeds: merge the
// result into one entity, or invalidate entities. An entity is never both
// merged and invalidated; a merge may instead hand individual keys back for
// a refetch.
type Settle[Out any] struct {
	entity     string
	merges     []mergeFunc[Out]
	invalidate []string
}

type mergeOutcome int

const (
	mergeSkipped mergeOutcome = iota
	mergeApplied
	mergeRefetch
)

type mergeFunc[Out any] func(data any, out Out) (any, mergeOutcome)

// MergeInto writes the confirmed result into the variants of entity cached
// as T. The merged keys are not refetched.
func MergeInto[T, Out any](entity string, merge func(T, Out) T) Settle[Out] {
	return MergeOrRefetch(entity, func(v T, out Out) (T, bool) {
		return merge(v, out), true
	})
}

// MergeOrRefetch is MergeInto for variants that cannot always be updated in
// place. When merge reports false the key keeps its data and is refetched
// instead.
func MergeOrRefetch[T, Out any](entity string, merge func(T, Out) (T, bool)) Settle[Out] {
	return Settle[Out]{
		entity: entity,
		merges: []mergeFunc[Out]{func(data any, out Out) (any, mergeOutcome) {
			v, ok := data.(T)
			if !ok {
				return nil, mergeSkipped
			}
			merged, ok := merge(v, out)
			if !ok {
				return nil, mergeRefetch
			}
			return merged, mergeApplied
		}},
	}
}

// Also merges into the variants of the same entity cached as another type,
// such as single records next to lists.
func (s Settle[Out]) Also(other Settle[Out]) Settle[Out] {
	if other.entity != s.entity {
		return s
	}
	s.merges = append(slices.Clip(s.merges), other.merges...)
	return s
}

// WithDependents also invalidates entities derived from the merged one, such
// as totals computed from a list. The merged entity itself is never
// invalidated.
func (s Settle[Out]) WithDependents(entities ...string) Settle[Out] {
	if len(s.merges) == 0 {
		return s
	}
	deps := make([]string, 0, len(entities))
	for _, en := range entities {
		if en != s.entity {
			deps = append(deps, en)
		}
	}
	s.invalidate = append(slices.Clip(s.invalidate), deps...)
	return s
}

// InvalidateEntities refetches every key of the given entities.
func InvalidateEntities[Out any](entities ...string) Settle[Out] {
	return Settle[Out]{invalidate: entities}
}

// MutationConfig wires a Mutation.
type MutationConfig[In, Out any] struct {
	Name       string
	Run        func(ctx context.Context, in In) (Out, error)
	Optimistic []Optimistic[In]
	Settle     Settle[Out]
}

// Mutation is one write operation with its own state slot.
type Mutation[In, Out any] struct {
	c     *Client
	cfg   MutationConfig[In, Out]
	mu    sync.Mutex
	run   uint64
	state MutationState
}

// NewMutation binds cfg to c.
func NewMutation[In, Out any](c *Client, cfg MutationConfig[In, Out]) *Mutation[In, Out] {
	return &Mutation[In, Out]{c: c, cfg: cfg}
}

type snapshot struct {
	e         *entry
	status    Status
	data      any
	err       error
	fetchedAt time.Time
	updatedAt time.Time
	invalid   bool
}

// Do runs the mutation. Optimistic patches are applied first and restored
// exactly if Run fails.
func (m *Mutation[In, Out]) Do(ctx context.Context, in In) (Out, error) {
	m.mu.Lock()
	m.run++
	run := m.run
	m.state = MutationState{Pending: true}
	m.mu.Unlock()

	snaps := m.applyOptimistic(in)

	out, err := m.cfg.Run(ctx, in)
	if err != nil {
		m.rollback(ctx, snaps)
		m.c.logger.Warn("Mutation failed", "mutation", m.cfg.Name, "error", err, "rolled_back", len(snaps))
		m.finish(run, MutationState{Err: err})
		return out, err
	}

	m.settle(ctx, out)
	m.c.logger.Debug("Mutation succeeded", "mutation", m.cfg.Name)
	m.finish(run, MutationState{Succeeded: true})
	return out, nil
}

// State returns the outcome of the latest run.
func (m *Mutation[In, Out]) State() MutationState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Reset clears the state slot.
func (m *Mutation[In, Out]) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = MutationState{}
}

func (m *Mutation[In, Out]) finish(run uint64, s MutationState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if run != m.run {
		return
	}
	s.SettledAt = m.c.now()
	m.state = s
}

func (m *Mutation[In, Out]) applyOptimistic(in In) []snapshot {
	if len(m.cfg.Optimistic) == 0 {
		return nil
	}
	c := m.c
	c.mu.Lock()
	defer c.mu.Unlock()
	var snaps []snapshot
	for _, o := range m.cfg.Optimistic {
		for _, e := range c.entries {
			if e.key.Entity != o.entity || !e.hasData {
				continue
			}
			patched, ok := o.apply(e.data, in)
			if !ok {
				continue
			}
			snaps = append(snaps, snapshot{
				e:         e,
				status:    e.status,
				data:      e.data,
				err:       e.err,
				fetchedAt: e.fetchedAt,
				updatedAt: e.updatedAt,
				invalid:   e.invalid,
			})
			c.cancelLocked(e)
			if e.status == StatusRefetching {
				e.status = StatusReady
			}
			e.data = patched
			e.updatedAt = c.now()
		}
	}
	return snaps
}

// rollback restores every patched key. A key that was fetching when it was
// patched lost that fetch, so it is fetched again.
func (m *Mutation[In, Out]) rollback(ctx context.Context, snaps []snapshot) {
	if len(snaps) == 0 {
		return
	}
	c := m.c
	c.mu.Lock()
	defer c.mu.Unlock()
	// restore in reverse so a key patched twice ends at its first snapshot
	for i := len(snaps) - 1; i >= 0; i-- {
		s := snaps[i]
		if c.entries[s.e.key] != s.e {
			continue
		}
		c.cancelLocked(s.e)
		s.e.status = s.status
		s.e.data = s.data
		s.e.hasData = true
		s.e.err = s.err
		s.e.fetchedAt = s.fetchedAt
		s.e.updatedAt = s.updatedAt
		s.e.invalid = s.invalid
		if s.status != StatusRefetching && s.status != StatusLoading {
			continue
		}
		switch {
		case s.e.fetch != nil:
			c.startFetchLocked(ctx, s.e)
		case s.err != nil:
			s.e.status = StatusError
		default:
			s.e.status = StatusReady
		}
	}
}

func (m *Mutation[In, Out]) settle(ctx context.Context, out Out) {
	st := m.cfg.Settle
	c := m.c
	if len(st.merges) > 0 {
		c.mu.Lock()
		for _, e := range c.entries {
			if e.key.Entity != st.entity || !e.hasData {
				continue
			}
			m.mergeLocked(ctx, e, out)
		}
		c.mu.Unlock()
	}
	if len(st.invalidate) > 0 {
		c.Invalidate(ctx, st.invalidate...)
	}
}

// mergeLocked applies the first merge that handles e's type. c.mu must be
// held.
func (m *Mutation[In, Out]) mergeLocked(ctx context.Context, e *entry, out Out) {
	c := m.c
	for _, merge := range m.cfg.Settle.merges {
		merged, outcome := merge(e.data, out)
		switch outcome {
		case mergeSkipped:
			continue
		case mergeRefetch:
			e.invalid = true
			if e.fetch != nil {
				c.startFetchLocked(ctx, e)
			}
		case mergeApplied:
			c.cancelLocked(e)
			if e.status == StatusRefetching {
				e.status = StatusReady
			}
			e.data = merged
			e.updatedAt = c.now()
		}
		return
	}
}
