package mockchapa

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/amirasaad/paydesk/internal/fixtures"
	"github.com/amirasaad/paydesk/pkg/domain"
	"github.com/amirasaad/paydesk/pkg/domain/bank"
	"github.com/amirasaad/paydesk/pkg/provider/payment"
	"github.com/shopspring/decimal"
)

var maxAmount = decimal.NewFromInt(100000)

type record struct {
	status   string
	amount   decimal.Decimal
	currency string
}

// Provider simulates the Chapa gateway for tests and local development.
//
// Payments and transfers it accepted verify with the configured outcome
// (success / completed by default). Unknown references answer 404 like the
// real API. SetOffline makes every call fail with a network error.
type Provider struct {
	mu              sync.Mutex
	payments        map[string]*record
	transfers       map[string]*record
	paymentOutcome  string
	transferOutcome string
	offline         bool
}

var _ payment.Gateway = (*Provider)(nil)

// New returns a Provider with default outcomes.
func New() *Provider {
	return &Provider{
		payments:        make(map[string]*record),
		transfers:       make(map[string]*record),
		paymentOutcome:  "success",
		transferOutcome: "completed",
	}
}

// SetOutcomes changes the status reported for later initiations.
func (p *Provider) SetOutcomes(paymentStatus, transferStatus string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paymentOutcome = paymentStatus
	p.transferOutcome = transferStatus
}

// SetPaymentStatus forces the verification status of txRef.
func (p *Provider) SetPaymentStatus(txRef, status string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if r, ok := p.payments[txRef]; ok {
		r.status = status
		return
	}
	p.payments[txRef] = &record{status: status, currency: "ETB"}
}

// SetTransferStatus forces the verification status of reference.
func (p *Provider) SetTransferStatus(reference, status string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if r, ok := p.transfers[reference]; ok {
		r.status = status
		return
	}
	p.transfers[reference] = &record{status: status, currency: "ETB"}
}

// SetOffline toggles simulated unreachability.
func (p *Provider) SetOffline(offline bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.offline = offline
}

func (p *Provider) checkOnline() error {
	if p.offline {
		return domain.NewNetworkError(errors.New("mock gateway offline"))
	}
	return nil
}

func (p *Provider) InitializePayment(_ context.Context, params *payment.InitializeParams) (*payment.InitializeResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.checkOnline(); err != nil {
		return nil, err
	}
	if params.Amount.IsNegative() || params.Amount.IsZero() {
		return nil, domain.NewGatewayError(http.StatusBadRequest, "Invalid amount")
	}
	if params.Amount.GreaterThan(maxAmount) {
		return nil, domain.NewGatewayError(http.StatusBadRequest, "Amount exceeds limit")
	}
	if _, dup := p.payments[params.TxRef]; dup {
		return nil, domain.NewGatewayError(http.StatusBadRequest, "Transaction reference has been used before")
	}
	p.payments[params.TxRef] = &record{status: p.paymentOutcome, amount: params.Amount, currency: params.Currency}
	resp := &payment.InitializeResponse{Message: "Hosted Link", Status: "success"}
	resp.Data.CheckoutURL = "https://checkout.chapa.co/checkout/payment/" + params.TxRef
	return resp, nil
}

func (p *Provider) VerifyTransaction(_ context.Context, txRef string) (*payment.VerifyResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.checkOnline(); err != nil {
		return nil, err
	}
	r, ok := p.payments[txRef]
	if !ok {
		return nil, domain.NewGatewayError(http.StatusNotFound, "Invalid transaction or Transaction not found")
	}
	return &payment.VerifyResponse{
		Message: "Payment details",
		Status:  "success",
		Data: payment.VerifyData{
			Currency:  r.currency,
			Amount:    r.amount,
			Mode:      "test",
			Status:    r.status,
			TxRef:     txRef,
			Reference: "mock_" + txRef,
		},
	}, nil
}

func (p *Provider) ListBanks(context.Context) ([]bank.Bank, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.checkOnline(); err != nil {
		return nil, err
	}
	return fixtures.Banks(), nil
}

func (p *Provider) InitiateTransfer(_ context.Context, params *payment.TransferParams) (*payment.TransferResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.checkOnline(); err != nil {
		return nil, err
	}
	if _, ok := bank.Find(fixtures.Banks(), params.BankCode); !ok {
		return nil, domain.NewGatewayError(http.StatusBadRequest, "Invalid bank code")
	}
	p.transfers[params.Reference] = &record{status: p.transferOutcome, amount: params.Amount, currency: params.Currency}
	data, _ := json.Marshal(params.Reference)
	return &payment.TransferResponse{Message: "Transfer Queued Successfully", Status: "success", Data: data}, nil
}

func (p *Provider) VerifyTransfer(_ context.Context, reference string) (*payment.VerifyTransferResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.checkOnline(); err != nil {
		return nil, err
	}
	r, ok := p.transfers[reference]
	if !ok {
		return nil, domain.NewGatewayError(http.StatusNotFound, "Transfer not found")
	}
	return &payment.VerifyTransferResponse{
		Message: "Transfer details",
		Status:  "success",
		Data: payment.VerifyTransferData{
			Currency:  r.currency,
			Amount:    r.amount,
			Status:    r.status,
			Reference: reference,
		},
	}, nil
}
