package mockchapa

import (
	"context"
	"testing"

	"github.com/amirasaad/paydesk/pkg/domain"
	"github.com/amirasaad/paydesk/pkg/provider/payment"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentLifecycle(t *testing.T) {
	ctx := context.Background()
	p := New()

	_, err := p.InitializePayment(ctx, &payment.InitializeParams{TxRef: "r1", Amount: decimal.NewFromInt(-1)})
	assert.ErrorIs(t, err, domain.ErrGateway)

	_, err = p.InitializePayment(ctx, &payment.InitializeParams{TxRef: "r1", Amount: decimal.NewFromInt(100001)})
	assert.Equal(t, "Amount exceeds limit", domain.Message(err))

	resp, err := p.InitializePayment(ctx, &payment.InitializeParams{TxRef: "r1", Amount: decimal.NewFromInt(100), Currency: "ETB"})
	require.NoError(t, err)
	assert.Contains(t, resp.Data.CheckoutURL, "r1")

	_, err = p.InitializePayment(ctx, &payment.InitializeParams{TxRef: "r1", Amount: decimal.NewFromInt(100)})
	assert.ErrorIs(t, err, domain.ErrGateway)

	v, err := p.VerifyTransaction(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "success", v.Data.Status)

	_, err = p.VerifyTransaction(ctx, "unknown")
	assert.ErrorIs(t, err, domain.ErrGateway)
}

func TestTransferLifecycle(t *testing.T) {
	ctx := context.Background()
	p := New()
	p.SetOutcomes("success", "processing")

	_, err := p.InitiateTransfer(ctx, &payment.TransferParams{Reference: "T1", BankCode: "XXX"})
	assert.ErrorIs(t, err, domain.ErrGateway)

	_, err = p.InitiateTransfer(ctx, &payment.TransferParams{Reference: "T1", BankCode: "CBE", Amount: decimal.NewFromInt(5000), Currency: "ETB"})
	require.NoError(t, err)

	v, err := p.VerifyTransfer(ctx, "T1")
	require.NoError(t, err)
	assert.Equal(t, "processing", v.Data.Status)

	p.SetTransferStatus("T1", "completed")
	v, err = p.VerifyTransfer(ctx, "T1")
	require.NoError(t, err)
	assert.Equal(t, "completed", v.Data.Status)
}

func TestOffline(t *testing.T) {
	p := New()
	p.SetOffline(true)
	_, err := p.ListBanks(context.Background())
	assert.ErrorIs(t, err, domain.ErrNetwork)

	p.SetOffline(false)
	banks, err := p.ListBanks(context.Background())
	require.NoError(t, err)
	assert.Len(t, banks, 8)
}
