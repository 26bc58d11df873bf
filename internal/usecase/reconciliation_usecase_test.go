package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finvault/ledger/internal/usecase"
	"github.com/finvault/ledger/internal/usecase/mocks"
)

func TestCheckLedgerConsistency(t *testing.T) {
	ledgerUC, deps := newLedgerUseCase()
	deps.accountRepo.Seed(externalAccount())
	deps.accountRepo.Seed(activeAccount("acc-1", "USD", 0))

	reconUC := usecase.NewReconciliationUseCase(deps.accountRepo, deps.entryRepo)

	ctx := context.Background()

	if err := reconUC.CheckLedgerConsistency(ctx); err != nil {
		t.Fatalf("empty ledger inconsistent: %v", err)
	}

	if _, err := ledgerUC.Deposit(ctx, "acc-1", decimal.NewFromInt(100), "USD", ""); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if _, err := ledgerUC.Withdraw(ctx, "acc-1", decimal.NewFromInt(30), "USD", ""); err != nil {
		t.Fatalf("withdraw: %v", err)
	}

	if err := reconUC.CheckLedgerConsistency(ctx); err != nil {
		t.Errorf("balanced ledger reported inconsistent: %v", err)
	}
}

func TestCheckLedgerConsistencyDetectsImbalance(t *testing.T) {
	accountRepo := mocks.NewMockAccountRepository()
	entryRepo := mocks.NewMockEntryRepository()
	reconUC := usecase.NewReconciliationUseCase(accountRepo, entryRepo)

	// An orphan credit with no offsetting debit.
	seedEntry(t, entryRepo, "orphan", 100, 100, time.Now().UTC())

	err := reconUC.CheckLedgerConsistency(context.Background())
	if !errors.Is(err, usecase.ErrInconsistentLedger) {
		t.Fatalf("error = %v, want ErrInconsistentLedger", err)
	}
}

func TestReplayAccount(t *testing.T) {
	ledgerUC, deps := newLedgerUseCase()
	deps.accountRepo.Seed(externalAccount())
	deps.accountRepo.Seed(activeAccount("acc-1", "USD", 0))
	deps.accountRepo.Seed(activeAccount("acc-2", "USD", 0))

	reconUC := usecase.NewReconciliationUseCase(deps.accountRepo, deps.entryRepo)

	ctx := context.Background()

	if _, err := ledgerUC.Deposit(ctx, "acc-1", decimal.NewFromInt(200), "USD", ""); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if _, err := ledgerUC.Transfer(ctx, "acc-1", "acc-2", decimal.NewFromInt(50), "USD", ""); err != nil {
		t.Fatalf("transfer: %v", err)
	}

	result, err := reconUC.ReplayAccount(ctx, "acc-1")
	if err != nil {
		t.Fatalf("ReplayAccount: %v", err)
	}

	if !result.Consistent {
		t.Errorf("replay inconsistent, first mismatch %s", result.FirstMismatchID)
	}
	if result.Entries != 2 {
		t.Errorf("entries = %d, want 2", result.Entries)
	}
	if !result.ReplayedBalance.Equal(decimal.NewFromInt(150)) {
		t.Errorf("replayed balance = %s, want 150", result.ReplayedBalance)
	}
	if !result.RecordedBalance.Equal(result.ReplayedBalance) {
		t.Errorf("recorded %s != replayed %s", result.RecordedBalance, result.ReplayedBalance)
	}
}

func TestReplayAccountDetectsBadSnapshot(t *testing.T) {
	accountRepo := mocks.NewMockAccountRepository()
	entryRepo := mocks.NewMockEntryRepository()
	reconUC := usecase.NewReconciliationUseCase(accountRepo, entryRepo)

	accountRepo.Seed(activeAccount("acc-1", "USD", 130))

	now := time.Now().UTC()
	seedEntry(t, entryRepo, "e1", 100, 100, now)
	seedEntry(t, entryRepo, "e2", 50, 999, now.Add(time.Second)) // corrupted snapshot
	seedEntry(t, entryRepo, "e3", -20, 130, now.Add(2*time.Second))

	result, err := reconUC.ReplayAccount(context.Background(), "acc-1")
	if err != nil {
		t.Fatalf("ReplayAccount: %v", err)
	}

	if result.Consistent {
		t.Fatal("corrupted snapshot not detected")
	}
	if result.FirstMismatchID != "e2" {
		t.Errorf("first mismatch = %s, want e2", result.FirstMismatchID)
	}
}

func TestReplayAccountDetectsDriftedBalance(t *testing.T) {
	accountRepo := mocks.NewMockAccountRepository()
	entryRepo := mocks.NewMockEntryRepository()
	reconUC := usecase.NewReconciliationUseCase(accountRepo, entryRepo)

	// Snapshots are internally consistent but the stored account balance
	// disagrees with the replayed total.
	accountRepo.Seed(activeAccount("acc-1", "USD", 500))
	seedEntry(t, entryRepo, "e1", 100, 100, time.Now().UTC())

	result, err := reconUC.ReplayAccount(context.Background(), "acc-1")
	if err != nil {
		t.Fatalf("ReplayAccount: %v", err)
	}

	if result.Consistent {
		t.Error("balance drift not detected")
	}
	if result.FirstMismatchID != "" {
		t.Errorf("first mismatch = %s, want none for drift-only failure", result.FirstMismatchID)
	}
}

func TestGenerateReport(t *testing.T) {
	ledgerUC, deps := newLedgerUseCase()
	deps.accountRepo.Seed(externalAccount())
	deps.accountRepo.Seed(activeAccount("acc-1", "USD", 0))
	deps.accountRepo.Seed(activeAccount("acc-2", "USD", 0))

	reconUC := usecase.NewReconciliationUseCase(deps.accountRepo, deps.entryRepo)

	ctx := context.Background()

	if _, err := ledgerUC.Deposit(ctx, "acc-1", decimal.NewFromInt(100), "USD", ""); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if _, err := ledgerUC.Transfer(ctx, "acc-1", "acc-2", decimal.NewFromInt(40), "USD", ""); err != nil {
		t.Fatalf("transfer: %v", err)
	}

	report, err := reconUC.GenerateReport(ctx)
	if err != nil {
		t.Fatalf("GenerateReport: %v", err)
	}

	if report.TotalAccounts != 3 {
		t.Errorf("total accounts = %d, want 3 including clearing", report.TotalAccounts)
	}
	if report.Consistent != 3 {
		t.Errorf("consistent = %d, want 3", report.Consistent)
	}
	if len(report.Discrepancies) != 0 {
		t.Errorf("discrepancies = %d, want 0", len(report.Discrepancies))
	}
	if !report.LedgerConsistent {
		t.Error("ledger reported inconsistent")
	}
}
