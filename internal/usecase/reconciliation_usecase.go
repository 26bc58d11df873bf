package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finvault/ledger/internal/domain"
)

// ErrInconsistentLedger is returned when the ledger is not balanced.
var ErrInconsistentLedger = errors.New("ledger is inconsistent: entries do not sum to zero")

// ReconciliationUseCase verifies the ledger's conservation and replay
// invariants.
type ReconciliationUseCase struct {
	accountRepo AccountRepository
	entryRepo   EntryRepository
}

// NewReconciliationUseCase creates a new ReconciliationUseCase.
func NewReconciliationUseCase(accountRepo AccountRepository, entryRepo EntryRepository) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		accountRepo: accountRepo,
		entryRepo:   entryRepo,
	}
}

// CheckLedgerConsistency verifies that all entries sum to zero. With every
// movement recorded as a paired debit and credit, any nonzero global sum
// means money was created or destroyed.
func (uc *ReconciliationUseCase) CheckLedgerConsistency(ctx context.Context) error {
	total, err := uc.entryRepo.SumAmounts(ctx)
	if err != nil {
		return err
	}

	if !total.IsZero() {
		return fmt.Errorf("%w: global entry sum is %s", ErrInconsistentLedger, total)
	}

	return nil
}

// ReplayResult reports one account's replay check.
type ReplayResult struct {
	AccountID        string          `json:"account_id"`
	Entries          int             `json:"entries"`
	ReplayedBalance  decimal.Decimal `json:"replayed_balance"`
	RecordedBalance  decimal.Decimal `json:"recorded_balance"`
	Consistent       bool            `json:"consistent"`
	FirstMismatchID  string          `json:"first_mismatch_id,omitempty"`
	CheckedAt        time.Time       `json:"checked_at"`
}

// ReplayAccount replays an account's entries from zero in creation order and
// compares each stored balance snapshot and the final account balance.
func (uc *ReconciliationUseCase) ReplayAccount(ctx context.Context, accountID string) (*ReplayResult, error) {
	account, err := uc.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	entries, err := uc.entryRepo.ListByAccountAsc(ctx, accountID)
	if err != nil {
		return nil, err
	}

	result := &ReplayResult{
		AccountID:       accountID,
		Entries:         len(entries),
		RecordedBalance: account.Balance,
		Consistent:      true,
		CheckedAt:       time.Now().UTC(),
	}

	running := decimal.Zero
	for _, entry := range entries {
		running = running.Add(entry.Amount)
		if !running.Equal(entry.Balance) {
			result.Consistent = false
			result.FirstMismatchID = entry.ID
			break
		}
	}

	result.ReplayedBalance = running

	if result.Consistent && !running.Equal(account.Balance) {
		result.Consistent = false
	}

	return result, nil
}

// ReconciliationReport summarizes a full replay over all accounts.
type ReconciliationReport struct {
	TotalAccounts    int             `json:"total_accounts"`
	Consistent       int             `json:"consistent"`
	Discrepancies    []*ReplayResult `json:"discrepancies"`
	LedgerConsistent bool            `json:"ledger_consistent"`
	CheckedAt        time.Time       `json:"checked_at"`
}

// GenerateReport replays every account and checks global consistency.
func (uc *ReconciliationUseCase) GenerateReport(ctx context.Context) (*ReconciliationReport, error) {
	limit, offset := domain.ValidatePagination(10000, 0)

	accounts, err := uc.accountRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}

	report := &ReconciliationReport{
		TotalAccounts: len(accounts),
		Discrepancies: make([]*ReplayResult, 0),
		CheckedAt:     time.Now().UTC(),
	}

	for _, account := range accounts {
		result, err := uc.ReplayAccount(ctx, account.ID)
		if err != nil {
			return nil, fmt.Errorf("replay account %s: %w", account.ID, err)
		}

		if result.Consistent {
			report.Consistent++
		} else {
			report.Discrepancies = append(report.Discrepancies, result)
		}
	}

	report.LedgerConsistent = uc.CheckLedgerConsistency(ctx) == nil

	return report, nil
}
