// Package transfer lists and initiates outgoing bank transfers.
package transfer

import (
	"context"
	"log/slog"
	"time"

	"github.com/amirasaad/paydesk/pkg/domain"
	"github.com/amirasaad/paydesk/pkg/domain/transfer"
	"github.com/amirasaad/paydesk/pkg/provider/payment"
	"github.com/amirasaad/paydesk/pkg/query"
	"github.com/amirasaad/paydesk/pkg/repository"
)

// Entity is the cache entity of transfer lists.
const Entity = "transfers"

// Repository is the transfer fetcher.
type Repository = repository.Collection[transfer.Transfer, *transfer.Transfer]

// Service exposes transfer reads and initiation.
type Service struct {
	repo      *Repository
	cache     *query.Client
	staleTime time.Duration
	now       func() time.Time
	initiate  *query.Mutation[transfer.Request, transfer.Transfer]
	logger    *slog.Logger
}

// New creates a Service.
func New(repo *Repository, cache *query.Client, staleTime time.Duration, logger *slog.Logger) *Service {
	s := &Service{
		repo:      repo,
		cache:     cache,
		staleTime: staleTime,
		now:       time.Now,
		logger:    logger.With("context", "transfer-service"),
	}
	s.initiate = query.NewMutation(cache, query.MutationConfig[transfer.Request, transfer.Transfer]{
		Name:   "initiate-transfer",
		Run:    s.runInitiate,
		Settle: query.InvalidateEntities[transfer.Transfer](Entity),
	})
	return s
}

// RemoteCreate queues a transfer with the gateway. It is the repository's
// remote creator: an unreachable gateway lets the transfer be recorded
// locally, a rejection is returned to the caller.
func RemoteCreate(gw payment.Gateway) func(context.Context, transfer.Transfer) (transfer.Transfer, error) {
	return func(ctx context.Context, t transfer.Transfer) (transfer.Transfer, error) {
		_, err := gw.InitiateTransfer(ctx, &payment.TransferParams{
			AccountName:   t.Recipient,
			AccountNumber: t.AccountNumber,
			Amount:        t.Amount,
			Currency:      t.Currency,
			Reference:     t.Reference,
			BankCode:      t.BankCode,
		})
		if err != nil {
			return transfer.Transfer{}, err
		}
		return t, nil
	}
}

// List returns every transfer.
func (s *Service) List(ctx context.Context) ([]transfer.Transfer, error) {
	return s.listQuery().Get(ctx)
}

// ListState is the cached list without fetching.
func (s *Service) ListState() query.State[[]transfer.Transfer] {
	return s.listQuery().State()
}

func (s *Service) listQuery() *query.Query[[]transfer.Transfer] {
	return query.NewQuery(s.cache, query.NewKey(Entity, nil), s.staleTime,
		func(ctx context.Context) ([]transfer.Transfer, error) {
			return s.repo.List(ctx), nil
		})
}

// Get returns one transfer by id.
func (s *Service) Get(ctx context.Context, id string) (transfer.Transfer, error) {
	q := query.NewQuery(s.cache, query.NewKey(Entity, map[string]string{"id": id}), s.staleTime,
		func(ctx context.Context) (transfer.Transfer, error) {
			return s.repo.Get(ctx, id)
		})
	return q.Get(ctx)
}

// Initiate validates req and records a pending transfer under a fresh
// reference. The transfer list is refetched afterwards.
func (s *Service) Initiate(ctx context.Context, req transfer.Request) (transfer.Transfer, error) {
	return s.initiate.Do(ctx, req)
}

// InitiateState is the outcome of the latest Initiate.
func (s *Service) InitiateState() query.MutationState { return s.initiate.State() }

func (s *Service) runInitiate(ctx context.Context, req transfer.Request) (transfer.Transfer, error) {
	if err := req.Validate(); err != nil {
		return transfer.Transfer{}, err
	}
	t := transfer.Transfer{
		Amount:        req.Amount,
		Currency:      req.Currency,
		Recipient:     req.Recipient,
		AccountNumber: req.AccountNumber,
		BankCode:      req.BankCode,
		Reason:        req.Reason,
		Reference:     domain.NewReference(domain.TransferRefPrefix, s.now()),
		Status:        transfer.StatusPending,
	}
	created, err := s.repo.Create(ctx, t)
	if err != nil {
		s.logger.Error("Transfer initiation failed", "reference", t.Reference, "error", err)
		return transfer.Transfer{}, err
	}
	s.logger.Info("Transfer initiated", "id", created.ID, "reference", created.Reference, "amount", created.Amount.String(), "currency", created.Currency)
	return created, nil
}
