package domain_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/finvault/ledger/internal/domain"
)

func TestValidateDebit(t *testing.T) {
	tests := []struct {
		name      string
		account   domain.Account
		amount    decimal.Decimal
		wantError error
	}{
		{
			name: "sufficient available balance",
			account: domain.Account{
				Type:             domain.AccountTypeChecking,
				AvailableBalance: decimal.NewFromInt(100),
			},
			amount: decimal.NewFromInt(50),
		},
		{
			name: "exact available balance",
			account: domain.Account{
				Type:             domain.AccountTypeChecking,
				AvailableBalance: decimal.NewFromInt(100),
			},
			amount: decimal.NewFromInt(100),
		},
		{
			name: "insufficient available balance",
			account: domain.Account{
				Type:             domain.AccountTypeChecking,
				AvailableBalance: decimal.NewFromInt(100),
			},
			amount:    decimal.NewFromFloat(100.01),
			wantError: domain.ErrInsufficientFunds,
		},
		{
			name: "hold reduces available but not booked balance",
			account: domain.Account{
				Type:             domain.AccountTypeChecking,
				Balance:          decimal.NewFromInt(100),
				AvailableBalance: decimal.NewFromInt(30),
			},
			amount:    decimal.NewFromInt(50),
			wantError: domain.ErrInsufficientFunds,
		},
		{
			name: "external account may go negative",
			account: domain.Account{
				Type:             domain.AccountTypeExternal,
				AvailableBalance: decimal.Zero,
			},
			amount: decimal.NewFromInt(1000000),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.account.ValidateDebit(tt.amount)
			if !errors.Is(err, tt.wantError) {
				t.Errorf("ValidateDebit() error = %v, want %v", err, tt.wantError)
			}
		})
	}
}

func TestApplyDebitCredit(t *testing.T) {
	account := domain.Account{Balance: decimal.NewFromFloat(10.50)}

	if got := account.ApplyDebit(decimal.NewFromFloat(0.50)); !got.Equal(decimal.NewFromInt(10)) {
		t.Errorf("ApplyDebit() = %s, want 10", got)
	}
	if got := account.ApplyCredit(decimal.NewFromFloat(4.50)); !got.Equal(decimal.NewFromInt(15)) {
		t.Errorf("ApplyCredit() = %s, want 15", got)
	}

	// Apply* never mutates the account itself.
	if !account.Balance.Equal(decimal.NewFromFloat(10.50)) {
		t.Errorf("account balance mutated to %s", account.Balance)
	}
}

func TestValidStatusTransition(t *testing.T) {
	tests := []struct {
		from domain.AccountStatus
		to   domain.AccountStatus
		want bool
	}{
		{domain.AccountStatusActive, domain.AccountStatusFrozen, true},
		{domain.AccountStatusActive, domain.AccountStatusSuspended, true},
		{domain.AccountStatusActive, domain.AccountStatusClosed, true},
		{domain.AccountStatusFrozen, domain.AccountStatusActive, true},
		{domain.AccountStatusSuspended, domain.AccountStatusActive, true},
		{domain.AccountStatusActive, domain.AccountStatusActive, false},
		{domain.AccountStatusClosed, domain.AccountStatusActive, false},
		{domain.AccountStatusClosed, domain.AccountStatusFrozen, false},
		{domain.AccountStatusFrozen, "INVALID", false},
	}

	for _, tt := range tests {
		if got := domain.ValidStatusTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("ValidStatusTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestIsActiveIsExternal(t *testing.T) {
	active := domain.Account{Status: domain.AccountStatusActive, Type: domain.AccountTypeChecking}
	if !active.IsActive() || active.IsExternal() {
		t.Error("checking ACTIVE account misclassified")
	}

	clearing := domain.Account{Status: domain.AccountStatusActive, Type: domain.AccountTypeExternal}
	if !clearing.IsExternal() {
		t.Error("external account not recognized")
	}

	frozen := domain.Account{Status: domain.AccountStatusFrozen}
	if frozen.IsActive() {
		t.Error("frozen account reported active")
	}
}
