package payment

import (
	"context"

	"github.com/amirasaad/paydesk/pkg/domain/bank"
)

// Gateway is the payment gateway as seen by the data layer.
type Gateway interface {
	InitializePayment(ctx context.Context, params *InitializeParams) (*InitializeResponse, error)

	// VerifyTransaction looks up a payment by its tx_ref.
	VerifyTransaction(ctx context.Context, txRef string) (*VerifyResponse, error)

	ListBanks(ctx context.Context) ([]bank.Bank, error)

	InitiateTransfer(ctx context.Context, params *TransferParams) (*TransferResponse, error)

	// VerifyTransfer looks up a transfer by its reference.
	VerifyTransfer(ctx context.Context, reference string) (*VerifyTransferResponse, error)
}
