// Package payment starts hosted checkout payments and records them as
// pending transactions until they are verified.
package payment

import (
	"context"
	"log/slog"
	"time"

	"github.com/amirasaad/paydesk/pkg/domain"
	"github.com/amirasaad/paydesk/pkg/domain/transaction"
	"github.com/amirasaad/paydesk/pkg/provider/payment"
	"github.com/amirasaad/paydesk/pkg/query"
	txsvc "github.com/amirasaad/paydesk/pkg/service/transaction"
	"github.com/shopspring/decimal"
)

// Request is the input of Initialize.
type Request struct {
	UserID      string          `json:"userId"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Email       string          `json:"email"`
	FirstName   string          `json:"firstName"`
	LastName    string          `json:"lastName"`
	PhoneNumber string          `json:"phoneNumber,omitempty"`
	Description string          `json:"description,omitempty"`
	CallbackURL string          `json:"callbackUrl,omitempty"`
	ReturnURL   string          `json:"returnUrl,omitempty"`
}

// Result is a started payment.
type Result struct {
	TxRef       string                  `json:"txRef"`
	CheckoutURL string                  `json:"checkoutUrl"`
	Transaction transaction.Transaction `json:"transaction"`
}

// Service initializes payments.
type Service struct {
	gateway    payment.Gateway
	repo       *txsvc.Repository
	now        func() time.Time
	initialize *query.Mutation[Request, Result]
	logger     *slog.Logger
}

// New creates a Service.
func New(gw payment.Gateway, repo *txsvc.Repository, cache *query.Client, logger *slog.Logger) *Service {
	s := &Service{
		gateway: gw,
		repo:    repo,
		now:     time.Now,
		logger:  logger.With("context", "payment-service"),
	}
	s.initialize = query.NewMutation(cache, query.MutationConfig[Request, Result]{
		Name:   "initialize-payment",
		Run:    s.runInitialize,
		Settle: query.InvalidateEntities[Result](txsvc.Entity, txsvc.StatsEntity, txsvc.WalletEntity),
	})
	return s
}

// Initialize asks the gateway for a checkout URL under a new tx_ref and
// records a pending payment with that reference.
func (s *Service) Initialize(ctx context.Context, req Request) (Result, error) {
	return s.initialize.Do(ctx, req)
}

// InitializeState is the outcome of the latest Initialize.
func (s *Service) InitializeState() query.MutationState { return s.initialize.State() }

func (s *Service) runInitialize(ctx context.Context, req Request) (Result, error) {
	params := &payment.InitializeParams{
		Amount:      req.Amount,
		Currency:    req.Currency,
		Email:       req.Email,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
		TxRef:       domain.NewReference(domain.PaymentRefPrefix, s.now()),
		CallbackURL: req.CallbackURL,
		ReturnURL:   req.ReturnURL,
	}
	if req.Description != "" {
		params.Customization = &payment.Customization{Description: req.Description}
	}
	if err := domain.Validate(params); err != nil {
		return Result{}, err
	}

	resp, err := s.gateway.InitializePayment(ctx, params)
	if err != nil {
		s.logger.Error("Payment initialization failed", "tx_ref", params.TxRef, "error", err)
		return Result{}, err
	}

	tx, err := s.repo.Create(ctx, transaction.Transaction{
		UserID:      req.UserID,
		Amount:      req.Amount,
		Currency:    req.Currency,
		Status:      transaction.StatusPending,
		Type:        transaction.TypePayment,
		Reference:   params.TxRef,
		Description: req.Description,
		Metadata:    map[string]string{"checkoutUrl": resp.Data.CheckoutURL},
	})
	if err != nil {
		return Result{}, err
	}
	s.logger.Info("Payment initialized", "tx_ref", params.TxRef, "amount", req.Amount.String(), "currency", req.Currency)
	return Result{TxRef: params.TxRef, CheckoutURL: resp.Data.CheckoutURL, Transaction: tx}, nil
}
