package domain_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/finvault/ledger/internal/domain"
)

func TestTransactionValidate(t *testing.T) {
	tests := []struct {
		name      string
		txn       domain.Transaction
		wantError error
	}{
		{
			name: "valid deposit",
			txn: domain.Transaction{
				FromAccountID: "acc-1",
				Amount:        decimal.NewFromInt(100),
				Type:          domain.TransactionTypeDeposit,
			},
		},
		{
			name: "valid withdrawal",
			txn: domain.Transaction{
				FromAccountID: "acc-1",
				Amount:        decimal.NewFromInt(100),
				Type:          domain.TransactionTypeWithdrawal,
			},
		},
		{
			name: "valid transfer",
			txn: domain.Transaction{
				FromAccountID: "acc-1",
				ToAccountID:   "acc-2",
				Amount:        decimal.NewFromInt(100),
				Type:          domain.TransactionTypeTransfer,
			},
		},
		{
			name: "valid payment",
			txn: domain.Transaction{
				FromAccountID: "acc-1",
				ToAccountID:   "acc-2",
				Amount:        decimal.NewFromInt(100),
				Type:          domain.TransactionTypePayment,
			},
		},
		{
			name: "missing from account",
			txn: domain.Transaction{
				Amount: decimal.NewFromInt(100),
				Type:   domain.TransactionTypeDeposit,
			},
			wantError: domain.ErrMissingField,
		},
		{
			name: "zero amount",
			txn: domain.Transaction{
				FromAccountID: "acc-1",
				Amount:        decimal.Zero,
				Type:          domain.TransactionTypeDeposit,
			},
			wantError: domain.ErrInvalidAmount,
		},
		{
			name: "transfer without destination",
			txn: domain.Transaction{
				FromAccountID: "acc-1",
				Amount:        decimal.NewFromInt(100),
				Type:          domain.TransactionTypeTransfer,
			},
			wantError: domain.ErrMissingField,
		},
		{
			name: "transfer to same account",
			txn: domain.Transaction{
				FromAccountID: "acc-1",
				ToAccountID:   "acc-1",
				Amount:        decimal.NewFromInt(100),
				Type:          domain.TransactionTypeTransfer,
			},
			wantError: domain.ErrSameAccount,
		},
		{
			name: "unknown type",
			txn: domain.Transaction{
				FromAccountID: "acc-1",
				Amount:        decimal.NewFromInt(100),
				Type:          "REFUND",
			},
			wantError: domain.ErrMissingField,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.txn.Validate(); !errors.Is(err, tt.wantError) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantError)
			}
		})
	}
}

func TestHoldValidate(t *testing.T) {
	valid := domain.Hold{AccountID: "acc-1", Amount: decimal.NewFromInt(10)}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid hold rejected: %v", err)
	}

	missing := domain.Hold{Amount: decimal.NewFromInt(10)}
	if err := missing.Validate(); !errors.Is(err, domain.ErrMissingField) {
		t.Errorf("hold without account error = %v, want ErrMissingField", err)
	}

	negative := domain.Hold{AccountID: "acc-1", Amount: decimal.NewFromInt(-10)}
	if err := negative.Validate(); !errors.Is(err, domain.ErrInvalidAmount) {
		t.Errorf("negative hold error = %v, want ErrInvalidAmount", err)
	}
}
