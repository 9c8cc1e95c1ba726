// Package transaction serves the transaction history, its derived totals and
// the wallet balance through the query cache.
package transaction

import (
	"context"
	"log/slog"
	"time"

	"github.com/amirasaad/paydesk/pkg/domain"
	"github.com/amirasaad/paydesk/pkg/domain/transaction"
	"github.com/amirasaad/paydesk/pkg/query"
	"github.com/amirasaad/paydesk/pkg/repository"
)

// Cache entities owned by this package.
const (
	Entity       = "transactions"
	StatsEntity  = "transaction-stats"
	WalletEntity = "wallet-balance"
)

// Repository is the transaction fetcher.
type Repository = repository.Collection[transaction.Transaction, *transaction.Transaction]

// Service exposes the transaction reads and the cancel mutation.
type Service struct {
	repo      *Repository
	cache     *query.Client
	staleTime time.Duration
	cancel    *query.Mutation[string, transaction.Transaction]
	logger    *slog.Logger
}

// New creates a Service.
func New(repo *Repository, cache *query.Client, staleTime time.Duration, logger *slog.Logger) *Service {
	s := &Service{
		repo:      repo,
		cache:     cache,
		staleTime: staleTime,
		logger:    logger.With("context", "transaction-service"),
	}
	s.cancel = query.NewMutation(cache, query.MutationConfig[string, transaction.Transaction]{
		Name: "cancel-transaction",
		Run:  s.runCancel,
		Optimistic: []query.Optimistic[string]{
			query.Patch(Entity, markCancelledInPage),
			query.Patch(Entity, markCancelled),
		},
		Settle: query.MergeOrRefetch(Entity, transaction.Page.Merge).
			Also(query.MergeInto(Entity, mergeRecord)).
			WithDependents(StatsEntity, WalletEntity),
	})
	return s
}

// List returns one filtered page, newest first.
func (s *Service) List(ctx context.Context, f transaction.Filter) (transaction.Page, error) {
	q := query.NewQuery(s.cache, query.NewKey(Entity, f.Params()), s.staleTime,
		func(ctx context.Context) (transaction.Page, error) {
			return f.Apply(s.repo.List(ctx)), nil
		})
	return q.Get(ctx)
}

// ListState is List without fetching, for callers that render the last
// known page next to a fetch error.
func (s *Service) ListState(f transaction.Filter) query.State[transaction.Page] {
	return query.Peek[transaction.Page](s.cache, query.NewKey(Entity, f.Params()))
}

// Recent returns the n newest transactions.
func (s *Service) Recent(ctx context.Context, n int) ([]transaction.Transaction, error) {
	page, err := s.List(ctx, transaction.Filter{Limit: n})
	if err != nil {
		return nil, err
	}
	return page.Transactions, nil
}

// Get returns one transaction by id.
func (s *Service) Get(ctx context.Context, id string) (transaction.Transaction, error) {
	q := query.NewQuery(s.cache, query.NewKey(Entity, map[string]string{"id": id}), s.staleTime,
		func(ctx context.Context) (transaction.Transaction, error) {
			return s.repo.Get(ctx, id)
		})
	return q.Get(ctx)
}

// Stats summarizes the whole history.
func (s *Service) Stats(ctx context.Context) (transaction.Stats, error) {
	q := query.NewQuery(s.cache, query.NewKey(StatsEntity, nil), s.staleTime,
		func(ctx context.Context) (transaction.Stats, error) {
			return transaction.ComputeStats(s.repo.List(ctx)), nil
		})
	return q.Get(ctx)
}

// WalletBalance derives the balance of currency from the history.
func (s *Service) WalletBalance(ctx context.Context, currency string) (transaction.WalletBalance, error) {
	q := query.NewQuery(s.cache, query.NewKey(WalletEntity, map[string]string{"currency": currency}), s.staleTime,
		func(ctx context.Context) (transaction.WalletBalance, error) {
			w := transaction.ComputeWalletBalance(currency, s.repo.List(ctx))
			if err := w.Check(); err != nil {
				return transaction.WalletBalance{}, err
			}
			return w, nil
		})
	return q.Get(ctx)
}

// Cancel cancels a pending or processing transaction. Cached pages show the
// cancellation immediately and are restored if it fails.
func (s *Service) Cancel(ctx context.Context, id string) (transaction.Transaction, error) {
	return s.cancel.Do(ctx, id)
}

// CancelState is the outcome of the latest Cancel.
func (s *Service) CancelState() query.MutationState { return s.cancel.State() }

func (s *Service) runCancel(ctx context.Context, id string) (transaction.Transaction, error) {
	updated, err := s.repo.Update(ctx, id, func(t *transaction.Transaction) error {
		if !t.Cancellable() {
			return domain.NewValidationError(map[string]string{
				"status": "cannot cancel a " + string(t.Status) + " transaction",
			})
		}
		t.Status = transaction.StatusCancelled
		return nil
	})
	if err != nil {
		return transaction.Transaction{}, err
	}
	s.logger.Info("Transaction cancelled", "id", id, "reference", updated.Reference)
	return updated, nil
}

// markCancelledInPage previews the cancellation. A row that no longer fits
// the page's filter leaves the page.
func markCancelledInPage(p transaction.Page, id string) transaction.Page {
	for _, t := range p.Transactions {
		if t.ID != id || !t.Cancellable() {
			continue
		}
		t.Status = transaction.StatusCancelled
		if !p.Filter().Matches(t) {
			return p.Without(id)
		}
		p, _ = p.Merge(t)
		return p
	}
	return p
}

func markCancelled(t transaction.Transaction, id string) transaction.Transaction {
	if t.ID == id && t.Cancellable() {
		t.Status = transaction.StatusCancelled
	}
	return t
}

func mergeRecord(cur, t transaction.Transaction) transaction.Transaction {
	if cur.ID != t.ID {
		return cur
	}
	return t
}
