package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the kind of money movement.
type TransactionType string

const (
	TransactionTypeDeposit    TransactionType = "DEPOSIT"
	TransactionTypeWithdrawal TransactionType = "WITHDRAWAL"
	TransactionTypeTransfer   TransactionType = "TRANSFER"
	TransactionTypePayment    TransactionType = "PAYMENT"
)

// Transaction records one money movement. Immutable once created.
// ToAccountID is empty for deposits and withdrawals, where the external
// clearing account supplies the offsetting leg.
type Transaction struct {
	ID            string
	ReferenceID   string
	FromAccountID string
	ToAccountID   string
	Amount        decimal.Decimal
	Currency      string
	Type          TransactionType
	Description   string
	Metadata      map[string]any
	CreatedAt     time.Time
}

// Validate checks structural invariants of a transaction request.
func (t *Transaction) Validate() error {
	if t.FromAccountID == "" {
		return ErrMissingField
	}

	if t.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	switch t.Type {
	case TransactionTypeDeposit, TransactionTypeWithdrawal:
		return nil
	case TransactionTypeTransfer, TransactionTypePayment:
		if t.ToAccountID == "" {
			return ErrMissingField
		}
		if t.ToAccountID == t.FromAccountID {
			return ErrSameAccount
		}
		return nil
	}

	return ErrMissingField
}
