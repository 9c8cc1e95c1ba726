package transfer

import (
	"github.com/amirasaad/paydesk/pkg/domain"
	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of a bank transfer.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether no further transition is allowed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransitionTo allows pending -> processing -> completed|failed, with
// pending -> completed|failed as a shortcut.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusProcessing || next == StatusCompleted || next == StatusFailed
	case StatusProcessing:
		return next == StatusCompleted || next == StatusFailed
	default:
		return false
	}
}

// StatusFor projects a gateway status onto the transfer enum.
func StatusFor(s domain.GatewayStatus) Status {
	switch s {
	case domain.GatewaySucceeded:
		return StatusCompleted
	case domain.GatewayFailed:
		return StatusFailed
	case domain.GatewayProcessing:
		return StatusProcessing
	default:
		return StatusPending
	}
}

// Transfer is an outgoing bank transfer initiated by an admin.
type Transfer struct {
	domain.Model
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Recipient     string          `json:"recipient"`
	AccountNumber string          `json:"accountNumber"`
	BankCode      string          `json:"bankCode"`
	Reason        string          `json:"reason,omitempty"`
	Reference     string          `json:"reference"`
	Status        Status          `json:"status"`
}

func (t *Transfer) GetReference() string { return t.Reference }

// ApplyGatewayStatus moves the transfer along its state machine. Illegal
// moves, including any move out of a terminal state, leave it unchanged.
func (t *Transfer) ApplyGatewayStatus(s domain.GatewayStatus) bool {
	next := StatusFor(s)
	if !t.Status.CanTransitionTo(next) {
		return false
	}
	t.Status = next
	return true
}

// Request is the input for initiating a transfer.
type Request struct {
	Amount        decimal.Decimal `json:"amount" validate:"required,gte=0.01,lte=1000000"`
	Currency      string          `json:"currency" validate:"required,oneof=ETB USD"`
	Recipient     string          `json:"recipient" validate:"required,max=100"`
	AccountNumber string          `json:"accountNumber" validate:"required,max=50"`
	BankCode      string          `json:"bankCode" validate:"required"`
	Reason        string          `json:"reason" validate:"max=200"`
}

// Validate checks the request against the transfer limits.
func (r Request) Validate() error {
	return domain.Validate(r)
}
