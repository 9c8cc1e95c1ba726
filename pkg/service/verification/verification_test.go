package verification_test

import (
	"context"
	"testing"
	"time"

	"github.com/amirasaad/paydesk/infra/provider/mockchapa"
	"github.com/amirasaad/paydesk/internal/fixtures"
	"github.com/amirasaad/paydesk/pkg/domain"
	"github.com/amirasaad/paydesk/pkg/domain/transaction"
	"github.com/amirasaad/paydesk/pkg/domain/transfer"
	txsvc "github.com/amirasaad/paydesk/pkg/service/transaction"
	transfersvc "github.com/amirasaad/paydesk/pkg/service/transfer"
	"github.com/amirasaad/paydesk/pkg/service/verification"
	"github.com/amirasaad/paydesk/pkg/store"
	"github.com/amirasaad/paydesk/pkg/testutils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pendingRef = "chapa_1708100000000_d4e5f6"

type suite struct {
	env          *testutils.Env
	gw           *mockchapa.Provider
	svc          *verification.Service
	transactions *txsvc.Service
	transfers    *transfersvc.Service
}

func setup(t *testing.T) *suite {
	t.Helper()
	env := testutils.NewEnv(t)
	gw := mockchapa.New()
	txRepo := testutils.Repo[transaction.Transaction](env, "transaction", store.Transactions, fixtures.Transactions)
	trRepo := testutils.Repo[transfer.Transfer](env, "transfer", store.Transfers, fixtures.Transfers)
	return &suite{
		env:          env,
		gw:           gw,
		svc:          verification.New(gw, txRepo, trRepo, env.Cache, env.Logger),
		transactions: txsvc.New(txRepo, env.Cache, 30*time.Second, env.Logger),
		transfers:    transfersvc.New(trRepo, env.Cache, 30*time.Second, env.Logger),
	}
}

func storedTx(t *testing.T, s *suite, ref string) transaction.Transaction {
	t.Helper()
	for _, tx := range testutils.ReadAll[transaction.Transaction](t, s.env, store.Transactions) {
		if tx.Reference == ref {
			return tx
		}
	}
	t.Fatalf("no stored transaction %s", ref)
	return transaction.Transaction{}
}

func storedTransfer(t *testing.T, s *suite, ref string) transfer.Transfer {
	t.Helper()
	for _, tr := range testutils.ReadAll[transfer.Transfer](t, s.env, store.Transfers) {
		if tr.Reference == ref {
			return tr
		}
	}
	t.Fatalf("no stored transfer %s", ref)
	return transfer.Transfer{}
}

func TestVerifyTransaction(t *testing.T) {
	s := setup(t)
	ctx := context.Background()

	stats, err := s.transactions.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, stats.PendingTransactions)

	s.gw.SetPaymentStatus(pendingRef, "success")
	s.env.Clock.Advance(time.Minute)
	res, err := s.svc.VerifyTransaction(ctx, verification.Check{Reference: pendingRef})
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.True(t, res.Tracked)
	assert.True(t, res.Updated)
	assert.Equal(t, domain.GatewaySucceeded, res.GatewayStatus)
	assert.Equal(t, string(transaction.StatusSuccess), res.Status)

	stored := storedTx(t, s, pendingRef)
	assert.Equal(t, transaction.StatusSuccess, stored.Status)
	assert.Equal(t, s.env.Clock.Now(), stored.UpdatedAt)
	assert.Equal(t, "Airtime top-up", stored.Description, "only status and updatedAt change")

	s.env.Cache.Wait()
	stats, err = s.transactions.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.PendingTransactions)

	again, err := s.svc.VerifyTransaction(ctx, verification.Check{Reference: pendingRef})
	require.NoError(t, err)
	assert.False(t, again.Updated)
	assert.True(t, s.svc.TransactionState().Succeeded)
}

func TestVerifyTransaction_Untracked(t *testing.T) {
	s := setup(t)
	s.gw.SetPaymentStatus("chapa_external", "failed")

	res, err := s.svc.VerifyTransaction(context.Background(), verification.Check{Reference: "chapa_external"})
	require.NoError(t, err)
	assert.False(t, res.Tracked)
	assert.False(t, res.Updated)
	assert.Equal(t, string(transaction.StatusFailed), res.Status)
}

func TestVerifyTransaction_Mismatch(t *testing.T) {
	s := setup(t)
	s.gw.SetPaymentStatus(pendingRef, "success")
	_, err := s.transactions.List(context.Background(), transaction.Filter{})
	require.NoError(t, err)

	amount := decimal.RequireFromString("250.50")
	tests := []struct {
		name   string
		check  verification.Check
		reason string
	}{
		{"amount", verification.Check{Reference: pendingRef, Amount: &amount}, "amount mismatch"},
		{"currency", verification.Check{Reference: pendingRef, Currency: "USD"}, "currency mismatch"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := s.svc.VerifyTransaction(context.Background(), tt.check)
			require.NoError(t, err)
			assert.False(t, res.Valid)
			assert.Contains(t, res.Reason, tt.reason)
			assert.False(t, res.Updated)
			assert.Equal(t, transaction.StatusPending, storedTx(t, s, pendingRef).Status)
		})
	}
}

func TestVerifyTransaction_GatewayFailure(t *testing.T) {
	s := setup(t)
	ctx := context.Background()

	_, err := s.svc.VerifyTransaction(ctx, verification.Check{Reference: "chapa_unknown"})
	require.ErrorIs(t, err, domain.ErrVerificationFailed)
	assert.ErrorIs(t, err, domain.ErrGateway)

	s.gw.SetOffline(true)
	_, err = s.svc.VerifyTransaction(ctx, verification.Check{Reference: pendingRef})
	require.ErrorIs(t, err, domain.ErrVerificationFailed)
	assert.ErrorIs(t, err, domain.ErrNetwork)
	assert.ErrorIs(t, s.svc.TransactionState().Err, domain.ErrVerificationFailed)

	_, err = s.svc.VerifyTransaction(ctx, verification.Check{})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestVerifyTransfer(t *testing.T) {
	s := setup(t)
	ctx := context.Background()

	_, err := s.transfers.List(ctx)
	require.NoError(t, err)

	s.gw.SetTransferStatus("REF_002", "completed")
	res, err := s.svc.VerifyTransfer(ctx, verification.Check{Reference: "REF_002"})
	require.NoError(t, err)
	assert.True(t, res.Updated)
	assert.Equal(t, string(transfer.StatusCompleted), res.Status)
	assert.Equal(t, transfer.StatusCompleted, storedTransfer(t, s, "REF_002").Status)

	s.env.Cache.Wait()
	for _, tr := range s.transfers.ListState().Data {
		if tr.Reference == "REF_002" {
			assert.Equal(t, transfer.StatusCompleted, tr.Status)
		}
	}
	assert.True(t, s.svc.TransferState().Succeeded)
}

func TestVerifyTransfer_TerminalIsSticky(t *testing.T) {
	s := setup(t)
	s.gw.SetTransferStatus("REF_001", "failed")

	res, err := s.svc.VerifyTransfer(context.Background(), verification.Check{Reference: "REF_001"})
	require.NoError(t, err)
	assert.True(t, res.Tracked)
	assert.False(t, res.Updated)
	assert.Equal(t, domain.GatewayFailed, res.GatewayStatus)
	assert.Equal(t, string(transfer.StatusCompleted), res.Status)
	assert.Equal(t, transfer.StatusCompleted, storedTransfer(t, s, "REF_001").Status)
}
