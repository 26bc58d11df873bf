package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType classifies an account.
type AccountType string

const (
	AccountTypeChecking AccountType = "CHECKING"
	AccountTypeSavings  AccountType = "SAVINGS"

	// AccountTypeExternal marks the clearing account that offsets deposits and
	// withdrawals so every transaction stays zero-sum. It is the only account
	// allowed to carry a negative balance.
	AccountTypeExternal AccountType = "EXTERNAL"
)

// AccountStatus is the lifecycle state of an account. Transitions are driven
// by external collaborators; the ledger engine only validates them.
type AccountStatus string

const (
	AccountStatusActive    AccountStatus = "ACTIVE"
	AccountStatusFrozen    AccountStatus = "FROZEN"
	AccountStatusClosed    AccountStatus = "CLOSED"
	AccountStatusSuspended AccountStatus = "SUSPENDED"
)

// Account holds a balance for a customer. Balance fields are owned and
// mutated exclusively by the ledger engine during transaction commit.
type Account struct {
	ID               string
	CustomerID       string
	Type             AccountType
	Currency         string
	Balance          decimal.Decimal
	AvailableBalance decimal.Decimal
	Status           AccountStatus
	Version          int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsActive reports whether the account accepts money movement.
func (a *Account) IsActive() bool {
	return a.Status == AccountStatusActive
}

// IsExternal reports whether this is the clearing account.
func (a *Account) IsExternal() bool {
	return a.Type == AccountTypeExternal
}

// ValidateDebit checks that the account can cover a debit of amount from its
// available balance. The external clearing account may go negative.
func (a *Account) ValidateDebit(amount decimal.Decimal) error {
	if a.IsExternal() {
		return nil
	}
	if a.AvailableBalance.LessThan(amount) {
		return ErrInsufficientFunds
	}
	return nil
}

// ApplyDebit returns the balance after a debit.
func (a *Account) ApplyDebit(amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Sub(amount)
}

// ApplyCredit returns the balance after a credit.
func (a *Account) ApplyCredit(amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Add(amount)
}

// ValidStatusTransition reports whether status can move from -> to.
// CLOSED is terminal.
func ValidStatusTransition(from, to AccountStatus) bool {
	if from == AccountStatusClosed {
		return false
	}
	switch to {
	case AccountStatusActive, AccountStatusFrozen, AccountStatusClosed, AccountStatusSuspended:
		return from != to
	}
	return false
}
