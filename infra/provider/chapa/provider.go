package chapa

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/amirasaad/paydesk/pkg/domain"
	"github.com/amirasaad/paydesk/pkg/domain/bank"
	"github.com/amirasaad/paydesk/pkg/gateway"
	"github.com/amirasaad/paydesk/pkg/provider/payment"
)

// DefaultBaseURL is the public Chapa API.
const DefaultBaseURL = "https://api.chapa.co/v1"

// Provider implements payment.Gateway against the Chapa REST API.
type Provider struct {
	client *gateway.Client
	logger *slog.Logger
}

var _ payment.Gateway = (*Provider)(nil)

// New returns a Provider. client must authenticate with the Chapa secret.
func New(client *gateway.Client, logger *slog.Logger) *Provider {
	return &Provider{client: client, logger: logger.With("provider", "chapa")}
}

// NewWithSecret builds the client from a secret key.
func NewWithSecret(baseURL, secret string, logger *slog.Logger) *Provider {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return New(gateway.New(baseURL, gateway.ChapaTimeout, gateway.StaticToken(secret), logger), logger)
}

func (p *Provider) InitializePayment(ctx context.Context, params *payment.InitializeParams) (*payment.InitializeResponse, error) {
	var resp payment.InitializeResponse
	if err := p.client.Post(ctx, "/transaction/initialize", params, &resp); err != nil {
		p.logger.Error("Initialize payment failed", "tx_ref", params.TxRef, "error", err)
		return nil, err
	}
	p.logger.Info("Payment initialized", "tx_ref", params.TxRef)
	return &resp, nil
}

func (p *Provider) VerifyTransaction(ctx context.Context, txRef string) (*payment.VerifyResponse, error) {
	var resp payment.VerifyResponse
	if err := p.client.Get(ctx, "/transaction/verify/"+url.PathEscape(txRef), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

type chapaBank struct {
	ID            int    `json:"id"`
	Slug          string `json:"slug"`
	Swift         string `json:"swift"`
	Name          string `json:"name"`
	AcctLength    int    `json:"acct_length"`
	Currency      string `json:"currency"`
	IsMobileMoney *int   `json:"is_mobilemoney"`
	IsActive      int    `json:"is_active"`
}

func (p *Provider) ListBanks(ctx context.Context) ([]bank.Bank, error) {
	var resp struct {
		Message string      `json:"message"`
		Data    []chapaBank `json:"data"`
	}
	if err := p.client.Get(ctx, "/banks", &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return nil, domain.NewGatewayError(http.StatusBadGateway, "bank list missing from response")
	}
	banks := make([]bank.Bank, 0, len(resp.Data))
	for _, b := range resp.Data {
		code := b.Swift
		if code == "" {
			code = b.Slug
		}
		banks = append(banks, bank.Bank{
			ID:            strconv.Itoa(b.ID),
			Code:          code,
			Name:          b.Name,
			Slug:          b.Slug,
			Swift:         b.Swift,
			AcctLength:    b.AcctLength,
			Currency:      b.Currency,
			IsActive:      b.IsActive == 1,
			IsMobileMoney: b.IsMobileMoney != nil && *b.IsMobileMoney == 1,
		})
	}
	return banks, nil
}

func (p *Provider) InitiateTransfer(ctx context.Context, params *payment.TransferParams) (*payment.TransferResponse, error) {
	var resp payment.TransferResponse
	if err := p.client.Post(ctx, "/transfers", params, &resp); err != nil {
		p.logger.Error("Initiate transfer failed", "reference", params.Reference, "error", err)
		return nil, err
	}
	return &resp, nil
}

func (p *Provider) VerifyTransfer(ctx context.Context, reference string) (*payment.VerifyTransferResponse, error) {
	var resp payment.VerifyTransferResponse
	if err := p.client.Get(ctx, "/transfers/verify/"+url.PathEscape(reference), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
