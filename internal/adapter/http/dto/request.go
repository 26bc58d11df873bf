package dto

import (
	"github.com/shopspring/decimal"

	"github.com/finvault/ledger/internal/domain"
	"github.com/finvault/ledger/internal/usecase"
)

// CreateAccountRequest represents a request to create an account.
type CreateAccountRequest struct {
	CustomerID string `json:"customer_id"`
	Type       string `json:"type"`
	Currency   string `json:"currency"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateAccountRequest) ToUseCaseInput(actor *domain.Actor) usecase.CreateAccountInput {
	return usecase.CreateAccountInput{
		CustomerID: r.CustomerID,
		Type:       domain.AccountType(r.Type),
		Currency:   r.Currency,
		Actor:      actor,
	}
}

// UpdateAccountStatusRequest represents a status transition request.
type UpdateAccountStatusRequest struct {
	Status string `json:"status"`
}

// CreateTransactionRequest represents a money-movement request.
type CreateTransactionRequest struct {
	FromAccountID string          `json:"from_account_id"`
	ToAccountID   string          `json:"to_account_id,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Type          string          `json:"type"`
	Description   string          `json:"description,omitempty"`
	Metadata      map[string]any  `json:"metadata,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateTransactionRequest) ToUseCaseInput(actor *domain.Actor) usecase.CreateTransactionInput {
	return usecase.CreateTransactionInput{
		FromAccountID: r.FromAccountID,
		ToAccountID:   r.ToAccountID,
		Amount:        r.Amount,
		Currency:      r.Currency,
		Type:          domain.TransactionType(r.Type),
		Description:   r.Description,
		Metadata:      r.Metadata,
		Actor:         actor,
	}
}

// CreateHoldRequest represents a request to reserve funds.
type CreateHoldRequest struct {
	AccountID string          `json:"account_id"`
	Amount    decimal.Decimal `json:"amount"`
	Metadata  map[string]any  `json:"metadata,omitempty"`
}
