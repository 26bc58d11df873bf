package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finvault/ledger/internal/domain"
)

// StatementUseCase builds derived read-side views over stored ledger
// entries. It holds no state of its own.
type StatementUseCase struct {
	accountRepo     AccountRepository
	transactionRepo TransactionRepository
	entryRepo       EntryRepository
}

// NewStatementUseCase creates a new StatementUseCase.
func NewStatementUseCase(
	accountRepo AccountRepository,
	transactionRepo TransactionRepository,
	entryRepo EntryRepository,
) *StatementUseCase {
	return &StatementUseCase{
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		entryRepo:       entryRepo,
	}
}

// AccountStatement is a point-in-time reconstruction of an account over a
// period. Opening and closing balances come from the balance snapshot of the
// latest entry at each boundary, zero when no entry exists yet.
type AccountStatement struct {
	AccountID      string                `json:"account_id"`
	Currency       string                `json:"currency"`
	PeriodStart    time.Time             `json:"period_start"`
	PeriodEnd      time.Time             `json:"period_end"`
	OpeningBalance decimal.Decimal       `json:"opening_balance"`
	ClosingBalance decimal.Decimal       `json:"closing_balance"`
	Transactions   []*domain.Transaction `json:"transactions"`
	Entries        []*domain.LedgerEntry `json:"entries"`
}

// GetAccountStatement reconstructs an account statement for [start, end].
func (uc *StatementUseCase) GetAccountStatement(ctx context.Context, accountID string, start, end time.Time) (*AccountStatement, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("%w: statement period end precedes start", domain.ErrMissingField)
	}

	account, err := uc.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	opening, err := uc.entryRepo.GetBalanceAt(ctx, accountID, start)
	if err != nil {
		return nil, err
	}

	closing, err := uc.entryRepo.GetBalanceAt(ctx, accountID, end)
	if err != nil {
		return nil, err
	}

	transactions, err := uc.transactionRepo.ListByAccountBetween(ctx, accountID, start, end)
	if err != nil {
		return nil, err
	}

	entries, err := uc.entryRepo.ListByAccountBetween(ctx, accountID, start, end)
	if err != nil {
		return nil, err
	}

	return &AccountStatement{
		AccountID:      account.ID,
		Currency:       account.Currency,
		PeriodStart:    start,
		PeriodEnd:      end,
		OpeningBalance: opening,
		ClosingBalance: closing,
		Transactions:   transactions,
		Entries:        entries,
	}, nil
}
