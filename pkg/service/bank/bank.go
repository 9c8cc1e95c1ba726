// Package bank lists the banks transfers can be sent to.
package bank

import (
	"context"
	"log/slog"
	"time"

	"github.com/amirasaad/paydesk/pkg/domain/bank"
	"github.com/amirasaad/paydesk/pkg/provider/payment"
	"github.com/amirasaad/paydesk/pkg/query"
)

// Entity is the cache entity of the bank list.
const Entity = "banks"

// Service lists banks from the gateway, falling back to the bundled list.
type Service struct {
	gateway   payment.Gateway
	fixture   func() []bank.Bank
	cache     *query.Client
	staleTime time.Duration
	logger    *slog.Logger
}

// New creates a Service.
func New(gw payment.Gateway, fixture func() []bank.Bank, cache *query.Client, staleTime time.Duration, logger *slog.Logger) *Service {
	return &Service{
		gateway:   gw,
		fixture:   fixture,
		cache:     cache,
		staleTime: staleTime,
		logger:    logger.With("context", "bank-service"),
	}
}

// List never fails; an unreachable gateway yields the bundled list.
func (s *Service) List(ctx context.Context) ([]bank.Bank, error) {
	q := query.NewQuery(s.cache, query.NewKey(Entity, nil), s.staleTime, s.fetch)
	return q.Get(ctx)
}

// Find returns the bank with code.
func (s *Service) Find(ctx context.Context, code string) (bank.Bank, bool, error) {
	banks, err := s.List(ctx)
	if err != nil {
		return bank.Bank{}, false, err
	}
	b, ok := bank.Find(banks, code)
	return b, ok, nil
}

func (s *Service) fetch(ctx context.Context) ([]bank.Bank, error) {
	banks, err := s.gateway.ListBanks(ctx)
	if err != nil || len(banks) == 0 {
		s.logger.Warn("Bank list unavailable, using bundled list", "error", err)
		return s.fixture(), nil
	}
	return banks, nil
}
