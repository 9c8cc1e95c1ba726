package chapa_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/amirasaad/paydesk/infra/provider/chapa"
	"github.com/amirasaad/paydesk/pkg/domain"
	"github.com/amirasaad/paydesk/pkg/provider/payment"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newServer(t *testing.T, handler http.HandlerFunc) *chapa.Provider {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer CHASECK_TEST", r.Header.Get("Authorization"))
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return chapa.NewWithSecret(srv.URL, "CHASECK_TEST", discard())
}

func TestInitializePayment(t *testing.T) {
	t.Parallel()
	p := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/transaction/initialize", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "chapa_1_abc123", body["tx_ref"])
		assert.Equal(t, "100", body["amount"])
		_, _ = w.Write([]byte(`{"message":"Hosted Link","status":"success","data":{"checkout_url":"https://checkout.chapa.co/x"}}`))
	})

	resp, err := p.InitializePayment(context.Background(), &payment.InitializeParams{
		Amount: decimal.NewFromInt(100), Currency: "ETB", Email: "a@b.co",
		FirstName: "A", LastName: "B", TxRef: "chapa_1_abc123",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.chapa.co/x", resp.Data.CheckoutURL)
}

func TestVerifyTransaction(t *testing.T) {
	t.Parallel()
	p := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transaction/verify/chapa_1_abc123", r.URL.Path)
		_, _ = w.Write([]byte(`{"message":"Payment details","status":"success","data":{"amount":100,"charge":null,"currency":"ETB","status":"success","tx_ref":"chapa_1_abc123"}}`))
	})

	resp, err := p.VerifyTransaction(context.Background(), "chapa_1_abc123")
	require.NoError(t, err)
	assert.Equal(t, "success", resp.Data.Status)
	assert.True(t, decimal.NewFromInt(100).Equal(resp.Data.Amount))
	assert.False(t, resp.Data.Charge.Valid)
}

func TestVerifyTransaction_NotFound(t *testing.T) {
	t.Parallel()
	p := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Invalid transaction or Transaction not found","status":"failed","data":null}`))
	})

	_, err := p.VerifyTransaction(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrGateway)
	assert.Equal(t, "Invalid transaction or Transaction not found", domain.Message(err))
}

func TestListBanks_MapsFields(t *testing.T) {
	t.Parallel()
	p := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message":"Banks retrieved","data":[
			{"id":946,"slug":"cbe","swift":"CBETETAA","name":"Commercial Bank of Ethiopia","acct_length":13,"currency":"ETB","is_mobilemoney":null,"is_active":1},
			{"id":855,"slug":"telebirr","swift":"","name":"telebirr","acct_length":10,"currency":"ETB","is_mobilemoney":1,"is_active":1}
		]}`))
	})

	banks, err := p.ListBanks(context.Background())
	require.NoError(t, err)
	require.Len(t, banks, 2)
	assert.Equal(t, "946", banks[0].ID)
	assert.Equal(t, "CBETETAA", banks[0].Code)
	assert.False(t, banks[0].IsMobileMoney)
	assert.Equal(t, "telebirr", banks[1].Code)
	assert.True(t, banks[1].IsMobileMoney)
}

func TestTransfers(t *testing.T) {
	t.Parallel()
	p := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/transfers":
			_, _ = w.Write([]byte(`{"message":"Transfer Queued Successfully","status":"success","data":"TRF_1_abc"}`))
		case "/transfers/verify/TRF_1_abc":
			_, _ = w.Write([]byte(`{"message":"Transfer details","status":"success","data":{"status":"completed","tx_ref":"TRF_1_abc","amount":"5000"}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	_, err := p.InitiateTransfer(context.Background(), &payment.TransferParams{Reference: "TRF_1_abc", Amount: decimal.NewFromInt(5000)})
	require.NoError(t, err)

	resp, err := p.VerifyTransfer(context.Background(), "TRF_1_abc")
	require.NoError(t, err)
	assert.Equal(t, "completed", resp.Data.Status)
	assert.Equal(t, "TRF_1_abc", resp.Data.Reference)
}
