package payment

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Customization changes the hosted checkout page.
type Customization struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Logo        string `json:"logo,omitempty"`
}

// InitializeParams is the body of POST /transaction/initialize.
type InitializeParams struct {
	Amount        decimal.Decimal   `json:"amount" validate:"required,gt=0,lte=100000"`
	Currency      string            `json:"currency" validate:"required,oneof=ETB USD"`
	Email         string            `json:"email" validate:"required,email"`
	FirstName     string            `json:"first_name" validate:"required"`
	LastName      string            `json:"last_name" validate:"required"`
	PhoneNumber   string            `json:"phone_number,omitempty"`
	TxRef         string            `json:"tx_ref" validate:"required"`
	CallbackURL   string            `json:"callback_url,omitempty"`
	ReturnURL     string            `json:"return_url,omitempty"`
	Customization *Customization    `json:"customization,omitempty"`
	Meta          map[string]string `json:"meta,omitempty"`
}

// InitializeResponse carries the hosted checkout URL.
type InitializeResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
	Data    struct {
		CheckoutURL string `json:"checkout_url"`
	} `json:"data"`
}

// VerifyData is the payment record returned by verification.
type VerifyData struct {
	FirstName string              `json:"first_name"`
	LastName  string              `json:"last_name"`
	Email     string              `json:"email"`
	Currency  string              `json:"currency"`
	Amount    decimal.Decimal     `json:"amount"`
	Charge    decimal.NullDecimal `json:"charge"`
	Mode      string              `json:"mode"`
	Method    string              `json:"method"`
	Type      string              `json:"type"`
	Status    string              `json:"status"`
	Reference string              `json:"reference"`
	TxRef     string              `json:"tx_ref"`
	CreatedAt string              `json:"created_at"`
	UpdatedAt string              `json:"updated_at"`
}

// VerifyResponse is the body of GET /transaction/verify/{tx_ref}.
type VerifyResponse struct {
	Message string     `json:"message"`
	Status  string     `json:"status"`
	Data    VerifyData `json:"data"`
}

// TransferParams is the body of POST /transfers.
type TransferParams struct {
	AccountName   string          `json:"account_name"`
	AccountNumber string          `json:"account_number"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Reference     string          `json:"reference"`
	BankCode      string          `json:"bank_code"`
}

// TransferResponse acknowledges a queued transfer.
type TransferResponse struct {
	Message string          `json:"message"`
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// VerifyTransferData is the transfer record returned by verification.
type VerifyTransferData struct {
	AccountName   string          `json:"account_name"`
	AccountNumber string          `json:"account_number"`
	Currency      string          `json:"currency"`
	Amount        decimal.Decimal `json:"amount"`
	BankName      string          `json:"bank_name"`
	Status        string          `json:"status"`
	Reference     string          `json:"tx_ref"`
	CreatedAt     string          `json:"created_at"`
	UpdatedAt     string          `json:"updated_at"`
}

// VerifyTransferResponse is the body of GET /transfers/verify/{reference}.
type VerifyTransferResponse struct {
	Message string             `json:"message"`
	Status  string             `json:"status"`
	Data    VerifyTransferData `json:"data"`
}
