// Package mocks holds testify mocks of the data layer interfaces.
package mocks

import (
	"context"

	"github.com/amirasaad/paydesk/pkg/domain/bank"
	"github.com/amirasaad/paydesk/pkg/provider/payment"
	"github.com/stretchr/testify/mock"
)

// MockGateway is a mock of payment.Gateway.
type MockGateway struct {
	mock.Mock
}

var _ payment.Gateway = (*MockGateway)(nil)

// NewMockGateway creates a MockGateway whose expectations are asserted when
// the test ends.
func NewMockGateway(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockGateway {
	m := &MockGateway{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockGateway) InitializePayment(ctx context.Context, params *payment.InitializeParams) (*payment.InitializeResponse, error) {
	args := m.Called(ctx, params)
	resp, _ := args.Get(0).(*payment.InitializeResponse)
	return resp, args.Error(1)
}

func (m *MockGateway) VerifyTransaction(ctx context.Context, txRef string) (*payment.VerifyResponse, error) {
	args := m.Called(ctx, txRef)
	resp, _ := args.Get(0).(*payment.VerifyResponse)
	return resp, args.Error(1)
}

func (m *MockGateway) ListBanks(ctx context.Context) ([]bank.Bank, error) {
	args := m.Called(ctx)
	banks, _ := args.Get(0).([]bank.Bank)
	return banks, args.Error(1)
}

func (m *MockGateway) InitiateTransfer(ctx context.Context, params *payment.TransferParams) (*payment.TransferResponse, error) {
	args := m.Called(ctx, params)
	resp, _ := args.Get(0).(*payment.TransferResponse)
	return resp, args.Error(1)
}

func (m *MockGateway) VerifyTransfer(ctx context.Context, reference string) (*payment.VerifyTransferResponse, error) {
	args := m.Called(ctx, reference)
	resp, _ := args.Get(0).(*payment.VerifyTransferResponse)
	return resp, args.Error(1)
}
