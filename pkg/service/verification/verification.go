// Package verification reconciles stored payments and transfers with the
// status the gateway reports for their reference.
package verification

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/amirasaad/paydesk/pkg/domain"
	"github.com/amirasaad/paydesk/pkg/domain/transaction"
	"github.com/amirasaad/paydesk/pkg/domain/transfer"
	"github.com/amirasaad/paydesk/pkg/provider/payment"
	"github.com/amirasaad/paydesk/pkg/query"
	"github.com/amirasaad/paydesk/pkg/repository"
	txsvc "github.com/amirasaad/paydesk/pkg/service/transaction"
	trsvc "github.com/amirasaad/paydesk/pkg/service/transfer"
	"github.com/shopspring/decimal"
)

// Check is a reference to verify. Amount and Currency are optional
// expectations; a gateway answer that disagrees is reported invalid and
// nothing is written.
type Check struct {
	Reference string           `json:"reference" validate:"required"`
	Amount    *decimal.Decimal `json:"amount,omitempty"`
	Currency  string           `json:"currency,omitempty"`
}

// Result is the outcome of one verification.
type Result struct {
	Reference     string               `json:"reference"`
	GatewayStatus domain.GatewayStatus `json:"gatewayStatus"`
	Status        string               `json:"status"`
	Amount        decimal.Decimal      `json:"amount"`
	Currency      string               `json:"currency"`
	Valid         bool                 `json:"valid"`
	Reason        string               `json:"reason,omitempty"`
	// Tracked reports whether the reference is in the local store.
	Tracked bool `json:"tracked"`
	// Updated reports whether the stored status changed.
	Updated bool `json:"updated"`
}

// Service verifies references against the gateway.
type Service struct {
	gateway      payment.Gateway
	transactions *txsvc.Repository
	transfers    *trsvc.Repository
	verifyTx     *query.Mutation[Check, Result]
	verifyTr     *query.Mutation[Check, Result]
	logger       *slog.Logger
}

// New creates a Service.
func New(
	gw payment.Gateway,
	transactions *txsvc.Repository,
	transfers *trsvc.Repository,
	cache *query.Client,
	logger *slog.Logger,
) *Service {
	s := &Service{
		gateway:      gw,
		transactions: transactions,
		transfers:    transfers,
		logger:       logger.With("context", "verification-service"),
	}
	s.verifyTx = query.NewMutation(cache, query.MutationConfig[Check, Result]{
		Name:   "verify-transaction",
		Run:    s.runVerifyTransaction,
		Settle: query.InvalidateEntities[Result](txsvc.Entity, txsvc.StatsEntity, txsvc.WalletEntity),
	})
	s.verifyTr = query.NewMutation(cache, query.MutationConfig[Check, Result]{
		Name:   "verify-transfer",
		Run:    s.runVerifyTransfer,
		Settle: query.InvalidateEntities[Result](trsvc.Entity, txsvc.WalletEntity),
	})
	return s
}

// VerifyTransaction asks the gateway for the status of a payment and writes
// it to the stored transaction with the same reference.
func (s *Service) VerifyTransaction(ctx context.Context, c Check) (Result, error) {
	return s.verifyTx.Do(ctx, c)
}

// VerifyTransfer asks the gateway for the status of a transfer and moves the
// stored transfer with the same reference along its state machine.
func (s *Service) VerifyTransfer(ctx context.Context, c Check) (Result, error) {
	return s.verifyTr.Do(ctx, c)
}

// TransactionState is the outcome of the latest VerifyTransaction.
func (s *Service) TransactionState() query.MutationState { return s.verifyTx.State() }

// TransferState is the outcome of the latest VerifyTransfer.
func (s *Service) TransferState() query.MutationState { return s.verifyTr.State() }

func (s *Service) runVerifyTransaction(ctx context.Context, c Check) (Result, error) {
	if err := domain.Validate(c); err != nil {
		return Result{}, err
	}
	resp, err := s.gateway.VerifyTransaction(ctx, c.Reference)
	if err != nil {
		s.logger.Warn("Transaction verification failed", "reference", c.Reference, "error", err)
		return Result{}, fmt.Errorf("%w: %w", domain.ErrVerificationFailed, err)
	}
	gs := domain.ParseGatewayStatus(resp.Data.Status)
	res := Result{
		Reference:     c.Reference,
		GatewayStatus: gs,
		Status:        string(transaction.StatusFor(gs)),
		Amount:        resp.Data.Amount,
		Currency:      resp.Data.Currency,
	}
	if !s.expected(&res, c) {
		return res, nil
	}
	stored, found, changed, err := reconcile(ctx, s.transactions, c.Reference, gs)
	if err != nil {
		return Result{}, err
	}
	res.Tracked, res.Updated = found, changed
	if found {
		res.Status = string(stored.Status)
	}
	s.logger.Info("Transaction verified", "reference", c.Reference, "gateway_status", resp.Data.Status, "status", res.Status, "tracked", found, "updated", changed)
	return res, nil
}

func (s *Service) runVerifyTransfer(ctx context.Context, c Check) (Result, error) {
	if err := domain.Validate(c); err != nil {
		return Result{}, err
	}
	resp, err := s.gateway.VerifyTransfer(ctx, c.Reference)
	if err != nil {
		s.logger.Warn("Transfer verification failed", "reference", c.Reference, "error", err)
		return Result{}, fmt.Errorf("%w: %w", domain.ErrVerificationFailed, err)
	}
	gs := domain.ParseGatewayStatus(resp.Data.Status)
	res := Result{
		Reference:     c.Reference,
		GatewayStatus: gs,
		Status:        string(transfer.StatusFor(gs)),
		Amount:        resp.Data.Amount,
		Currency:      resp.Data.Currency,
	}
	if !s.expected(&res, c) {
		return res, nil
	}
	stored, found, changed, err := reconcile(ctx, s.transfers, c.Reference, gs)
	if err != nil {
		return Result{}, err
	}
	res.Tracked, res.Updated = found, changed
	if found {
		res.Status = string(stored.Status)
		if !changed && stored.Status.Terminal() && stored.Status != transfer.StatusFor(gs) {
			s.logger.Warn("Ignoring status change of a finished transfer", "reference", c.Reference, "stored", stored.Status, "gateway_status", resp.Data.Status)
		}
	}
	s.logger.Info("Transfer verified", "reference", c.Reference, "gateway_status", resp.Data.Status, "status", res.Status, "tracked", found, "updated", changed)
	return res, nil
}

// expected fills Valid and Reason from the optional expectations of c.
func (s *Service) expected(res *Result, c Check) bool {
	switch {
	case c.Amount != nil && !res.Amount.Equal(*c.Amount):
		res.Reason = fmt.Sprintf("amount mismatch: expected %s, gateway reported %s", c.Amount.String(), res.Amount.String())
	case c.Currency != "" && !strings.EqualFold(c.Currency, res.Currency):
		res.Reason = fmt.Sprintf("currency mismatch: expected %s, gateway reported %s", c.Currency, res.Currency)
	default:
		res.Valid = true
		return true
	}
	s.logger.Warn("Verification rejected", "reference", res.Reference, "reason", res.Reason)
	return false
}

// reconcile applies gs to the stored entity with reference ref. Only the
// status and UpdatedAt change. An unknown reference is not an error.
func reconcile[T any, PT interface {
	*T
	domain.Referenced
}](ctx context.Context, repo *repository.Collection[T, PT], ref string, gs domain.GatewayStatus) (T, bool, bool, error) {
	var changed bool
	stored, found, err := repo.UpdateWhere(ctx,
		func(p PT) bool { return p.GetReference() == ref },
		func(p PT) bool {
			changed = p.ApplyGatewayStatus(gs)
			return changed
		})
	return stored, found, changed, err
}
