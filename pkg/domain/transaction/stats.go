package transaction

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Stats summarizes a transaction history.
type Stats struct {
	TotalTransactions      int             `json:"totalTransactions"`
	SuccessfulTransactions int             `json:"successfulTransactions"`
	PendingTransactions    int             `json:"pendingTransactions"`
	FailedTransactions     int             `json:"failedTransactions"`
	TotalVolume            decimal.Decimal `json:"totalVolume"`
	AverageTransaction     decimal.Decimal `json:"averageTransaction"`
}

// ComputeStats counts by status. Volume covers successful transactions only.
func ComputeStats(txs []Transaction) Stats {
	s := Stats{TotalTransactions: len(txs), TotalVolume: decimal.Zero, AverageTransaction: decimal.Zero}
	for _, t := range txs {
		switch t.Status {
		case StatusSuccess:
			s.SuccessfulTransactions++
			s.TotalVolume = s.TotalVolume.Add(t.Amount)
		case StatusPending, StatusProcessing:
			s.PendingTransactions++
		case StatusFailed, StatusCancelled:
			s.FailedTransactions++
		}
	}
	if s.SuccessfulTransactions > 0 {
		s.AverageTransaction = s.TotalVolume.
			Div(decimal.NewFromInt(int64(s.SuccessfulTransactions))).
			Round(2)
	}
	return s
}

// ErrBalanceMismatch is returned when total != available + pending.
var ErrBalanceMismatch = errors.New("wallet total must equal available plus pending")

// WalletBalance is the derived balance of one currency.
type WalletBalance struct {
	Currency  string          `json:"currency"`
	Available decimal.Decimal `json:"available"`
	Pending   decimal.Decimal `json:"pending"`
	Total     decimal.Decimal `json:"total"`
}

// NewWalletBalance builds a balance whose total is always available + pending.
func NewWalletBalance(currency string, available, pending decimal.Decimal) WalletBalance {
	return WalletBalance{
		Currency:  currency,
		Available: available,
		Pending:   pending,
		Total:     available.Add(pending),
	}
}

// Check verifies the balance invariant on a value decoded from elsewhere.
func (w WalletBalance) Check() error {
	if !w.Total.Equal(w.Available.Add(w.Pending)) {
		return ErrBalanceMismatch
	}
	return nil
}

// ComputeWalletBalance derives a balance from history. Successful payments
// and refunds credit, successful payouts and transfers debit. In-flight
// credits count as pending. Available never goes below zero.
func ComputeWalletBalance(currency string, txs []Transaction) WalletBalance {
	available, pending := decimal.Zero, decimal.Zero
	for _, t := range txs {
		if t.Currency != currency {
			continue
		}
		credit := t.Type == TypePayment || t.Type == TypeRefund
		switch t.Status {
		case StatusSuccess:
			if credit {
				available = available.Add(t.Amount)
			} else {
				available = available.Sub(t.Amount)
			}
		case StatusPending, StatusProcessing:
			if credit {
				pending = pending.Add(t.Amount)
			}
		}
	}
	if available.IsNegative() {
		available = decimal.Zero
	}
	return NewWalletBalance(currency, available, pending)
}
