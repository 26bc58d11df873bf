package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finvault/ledger/internal/domain"
	"github.com/finvault/ledger/internal/infrastructure/metrics"
)

// ExternalAccountID is the default id of the clearing account that offsets
// deposits and withdrawals. It keeps every transaction zero-sum.
const ExternalAccountID = "external-clearing"

// LedgerUseCase executes money movement as atomic double-entry operations.
// Every transaction produces exactly two ledger entries that sum to zero;
// deposits and withdrawals are offset against the external clearing account.
type LedgerUseCase struct {
	txManager         TransactionManager
	accountRepo       AccountRepository
	transactionRepo   TransactionRepository
	entryRepo         EntryRepository
	outboxRepo        AuditOutboxRepository
	cache             Cache
	retrier           Retrier
	idGen             IDGenerator
	metrics           *metrics.Metrics
	externalAccountID string
}

// NewLedgerUseCase creates a new LedgerUseCase. cache, retrier and metrics
// are optional.
func NewLedgerUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	transactionRepo TransactionRepository,
	entryRepo EntryRepository,
	outboxRepo AuditOutboxRepository,
	idGen IDGenerator,
	opts ...LedgerOption,
) *LedgerUseCase {
	uc := &LedgerUseCase{
		txManager:         txManager,
		accountRepo:       accountRepo,
		transactionRepo:   transactionRepo,
		entryRepo:         entryRepo,
		outboxRepo:        outboxRepo,
		idGen:             idGen,
		externalAccountID: ExternalAccountID,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

// LedgerOption configures optional LedgerUseCase collaborators.
type LedgerOption func(*LedgerUseCase)

func WithCache(cache Cache) LedgerOption {
	return func(uc *LedgerUseCase) { uc.cache = cache }
}

func WithRetrier(retrier Retrier) LedgerOption {
	return func(uc *LedgerUseCase) { uc.retrier = retrier }
}

func WithMetrics(m *metrics.Metrics) LedgerOption {
	return func(uc *LedgerUseCase) { uc.metrics = m }
}

func WithExternalAccountID(id string) LedgerOption {
	return func(uc *LedgerUseCase) { uc.externalAccountID = id }
}

// EnsureExternalAccount creates the clearing account if it does not exist.
// Called once at startup before any money movement.
func (uc *LedgerUseCase) EnsureExternalAccount(ctx context.Context, currency string) error {
	_, err := uc.accountRepo.GetByID(ctx, uc.externalAccountID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrAccountNotFound) {
		return err
	}

	now := time.Now().UTC()

	return uc.accountRepo.Create(ctx, &domain.Account{
		ID:               uc.externalAccountID,
		CustomerID:       "system",
		Type:             domain.AccountTypeExternal,
		Currency:         currency,
		Balance:          decimal.Zero,
		AvailableBalance: decimal.Zero,
		Status:           domain.AccountStatusActive,
		CreatedAt:        now,
		UpdatedAt:        now,
	})
}

// CreateTransactionInput represents a money-movement request.
// ToAccountID is required for TRANSFER and PAYMENT. For DEPOSIT and
// WITHDRAWAL the external clearing account supplies the offsetting leg, so
// ToAccountID must be empty or equal FromAccountID.
type CreateTransactionInput struct {
	FromAccountID string
	ToAccountID   string
	Amount        decimal.Decimal
	Currency      string
	Type          domain.TransactionType
	Description   string
	Metadata      map[string]any
	Actor         *domain.Actor
}

// CreateTransaction validates the request, applies the paired debit/credit
// entries and balance updates in one atomic unit of work, and queues an
// audit emission that is confirmed asynchronously after commit.
func (uc *LedgerUseCase) CreateTransaction(ctx context.Context, input CreateTransactionInput) (*domain.Transaction, error) {
	start := time.Now()

	txn, err := uc.createTransaction(ctx, input)
	if err != nil {
		uc.countError(err)
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.TransactionsCreated.WithLabelValues(string(txn.Type)).Inc()
		uc.metrics.TransactionDuration.Observe(time.Since(start).Seconds())
		amount, _ := txn.Amount.Float64()
		uc.metrics.TransactionAmount.Observe(amount)
	}

	return txn, nil
}

func (uc *LedgerUseCase) createTransaction(ctx context.Context, input CreateTransactionInput) (*domain.Transaction, error) {
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}
	if err := domain.ValidateCurrency(input.Currency); err != nil {
		return nil, err
	}
	if err := domain.ValidateMetadata(input.Metadata); err != nil {
		return nil, err
	}
	if input.FromAccountID == uc.externalAccountID || input.ToAccountID == uc.externalAccountID {
		return nil, fmt.Errorf("%w: %s is the clearing account and cannot be addressed directly", domain.ErrAccountNotActive, uc.externalAccountID)
	}

	txn := &domain.Transaction{
		ID:            uc.idGen.Generate(),
		ReferenceID:   uuid.NewString(),
		FromAccountID: input.FromAccountID,
		ToAccountID:   input.ToAccountID,
		Amount:        input.Amount,
		Currency:      input.Currency,
		Type:          input.Type,
		Description:   input.Description,
		Metadata:      input.Metadata,
	}

	if txn.Type == domain.TransactionTypeDeposit || txn.Type == domain.TransactionTypeWithdrawal {
		if txn.ToAccountID != "" && txn.ToAccountID != txn.FromAccountID {
			return nil, fmt.Errorf("%w: %s settles against the clearing account, to_account_id must match from_account_id or be empty", domain.ErrSameAccount, txn.Type)
		}
		txn.ToAccountID = ""
	}

	if err := txn.Validate(); err != nil {
		return nil, err
	}

	debitID, creditID := uc.movementLegs(txn)

	commit := func() error {
		return uc.applyMovement(ctx, txn, debitID, creditID, input.Actor)
	}

	var err error
	if uc.retrier != nil {
		err = uc.retrier.Retry(ctx, commit)
	} else {
		err = commit()
	}
	if err != nil {
		return nil, err
	}

	uc.invalidateBalance(ctx, debitID)
	uc.invalidateBalance(ctx, creditID)

	return txn, nil
}

// movementLegs resolves which account is debited and which is credited.
func (uc *LedgerUseCase) movementLegs(txn *domain.Transaction) (debitID, creditID string) {
	switch txn.Type {
	case domain.TransactionTypeDeposit:
		return uc.externalAccountID, txn.FromAccountID
	case domain.TransactionTypeWithdrawal:
		return txn.FromAccountID, uc.externalAccountID
	default:
		return txn.FromAccountID, txn.ToAccountID
	}
}

// applyMovement runs the atomic unit of work: lock both accounts in
// ascending id order, validate state, write the transaction row, the paired
// entries, the balance updates and the audit emission, then commit.
func (uc *LedgerUseCase) applyMovement(ctx context.Context, txn *domain.Transaction, debitID, creditID string, actor *domain.Actor) error {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	uow, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return err
	}
	defer func() { _ = uow.Rollback(txCtx) }()

	// Lock order is ascending id to avoid deadlock on overlapping movements.
	ids := []string{debitID, creditID}
	sort.Strings(ids)

	accounts, err := uc.accountRepo.GetByIDsForUpdate(txCtx, uow, ids)
	if err != nil {
		return err
	}
	if len(accounts) != len(ids) {
		return domain.ErrAccountNotFound
	}

	accountMap := make(map[string]*domain.Account, len(accounts))
	for _, a := range accounts {
		accountMap[a.ID] = a
	}

	debitAcc := accountMap[debitID]
	creditAcc := accountMap[creditID]

	for _, acc := range accounts {
		if acc.IsExternal() {
			continue
		}
		if !acc.IsActive() {
			return fmt.Errorf("%w: account %s is %s", domain.ErrAccountNotActive, acc.ID, acc.Status)
		}
		if acc.Currency != txn.Currency {
			return fmt.Errorf("%w: account %s holds %s", domain.ErrCurrencyMismatch, acc.ID, acc.Currency)
		}
	}

	if err := debitAcc.ValidateDebit(txn.Amount); err != nil {
		return err
	}

	now := time.Now().UTC()
	txn.CreatedAt = now

	if err := uc.transactionRepo.Create(txCtx, uow, txn); err != nil {
		return err
	}

	// Debit leg.
	debitBalance := debitAcc.ApplyDebit(txn.Amount)
	debitEntry := &domain.LedgerEntry{
		ID:            uc.idGen.Generate(),
		AccountID:     debitAcc.ID,
		TransactionID: txn.ID,
		Amount:        txn.Amount.Neg(),
		Currency:      txn.Currency,
		Type:          domain.EntryTypeDebit,
		Balance:       debitBalance,
		CreatedAt:     now,
	}
	if err := uc.entryRepo.Create(txCtx, uow, debitEntry); err != nil {
		return err
	}

	debitAvailable := debitAcc.AvailableBalance.Sub(txn.Amount)
	if err := uc.accountRepo.UpdateBalances(txCtx, uow, debitAcc.ID, debitBalance, debitAvailable, now); err != nil {
		return err
	}

	// Credit leg.
	creditBalance := creditAcc.ApplyCredit(txn.Amount)
	creditEntry := &domain.LedgerEntry{
		ID:            uc.idGen.Generate(),
		AccountID:     creditAcc.ID,
		TransactionID: txn.ID,
		Amount:        txn.Amount,
		Currency:      txn.Currency,
		Type:          domain.EntryTypeCredit,
		Balance:       creditBalance,
		CreatedAt:     now,
	}
	if err := uc.entryRepo.Create(txCtx, uow, creditEntry); err != nil {
		return err
	}

	creditAvailable := creditAcc.AvailableBalance.Add(txn.Amount)
	if err := uc.accountRepo.UpdateBalances(txCtx, uow, creditAcc.ID, creditBalance, creditAvailable, now); err != nil {
		return err
	}

	// The audit emission commits with the movement; the chain append happens
	// asynchronously and never rolls back a committed transaction.
	emission := &domain.AuditEmission{
		ID:         uc.idGen.Generate(),
		EntityType: domain.EntityTypeTransaction,
		EntityID:   txn.ID,
		Action:     domain.ActionTransactionCreated,
		Data: domain.JSON{
			"transaction_id":  txn.ID,
			"reference_id":    txn.ReferenceID,
			"type":            string(txn.Type),
			"amount":          txn.Amount.String(),
			"currency":        txn.Currency,
			"from_account_id": txn.FromAccountID,
			"to_account_id":   txn.ToAccountID,
			"description":     txn.Description,
		},
		CreatedAt: now,
	}
	if actor != nil {
		emission.UserID = actor.UserID
		emission.IPAddress = actor.IPAddress
		emission.UserAgent = actor.UserAgent
	}
	if err := uc.outboxRepo.Create(txCtx, uow, emission); err != nil {
		return err
	}

	return uow.Commit(txCtx)
}

// Deposit credits accountID from the external clearing account.
func (uc *LedgerUseCase) Deposit(ctx context.Context, accountID string, amount decimal.Decimal, currency, description string) (*domain.Transaction, error) {
	return uc.CreateTransaction(ctx, CreateTransactionInput{
		FromAccountID: accountID,
		Amount:        amount,
		Currency:      currency,
		Type:          domain.TransactionTypeDeposit,
		Description:   description,
	})
}

// Withdraw debits accountID and credits the external clearing account.
func (uc *LedgerUseCase) Withdraw(ctx context.Context, accountID string, amount decimal.Decimal, currency, description string) (*domain.Transaction, error) {
	return uc.CreateTransaction(ctx, CreateTransactionInput{
		FromAccountID: accountID,
		Amount:        amount,
		Currency:      currency,
		Type:          domain.TransactionTypeWithdrawal,
		Description:   description,
	})
}

// Transfer moves amount between two customer accounts.
func (uc *LedgerUseCase) Transfer(ctx context.Context, fromAccountID, toAccountID string, amount decimal.Decimal, currency, description string) (*domain.Transaction, error) {
	return uc.CreateTransaction(ctx, CreateTransactionInput{
		FromAccountID: fromAccountID,
		ToAccountID:   toAccountID,
		Amount:        amount,
		Currency:      currency,
		Type:          domain.TransactionTypeTransfer,
		Description:   description,
	})
}

// BalanceInfo is the read model returned by GetBalance.
type BalanceInfo struct {
	AccountID        string               `json:"account_id"`
	Balance          decimal.Decimal      `json:"balance"`
	AvailableBalance decimal.Decimal      `json:"available_balance"`
	Currency         string               `json:"currency"`
	Status           domain.AccountStatus `json:"status"`
}

// GetBalance returns the current balance of an account, served from cache
// when a recent read exists.
func (uc *LedgerUseCase) GetBalance(ctx context.Context, accountID string) (*BalanceInfo, error) {
	if info, ok := uc.cachedBalance(ctx, accountID); ok {
		return info, nil
	}

	account, err := uc.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	info := &BalanceInfo{
		AccountID:        account.ID,
		Balance:          account.Balance,
		AvailableBalance: account.AvailableBalance,
		Currency:         account.Currency,
		Status:           account.Status,
	}

	uc.storeBalance(ctx, info)

	return info, nil
}

// GetTransaction retrieves a transaction by id.
func (uc *LedgerUseCase) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	return uc.transactionRepo.GetByID(ctx, id)
}

// AccountHistory pairs the transactions touching an account with its ledger
// entries, newest first.
type AccountHistory struct {
	Transactions []*domain.Transaction `json:"transactions"`
	Entries      []*domain.LedgerEntry `json:"entries"`
}

// GetAccountHistory lists an account's transactions and entries, newest
// first, paginated.
func (uc *LedgerUseCase) GetAccountHistory(ctx context.Context, accountID string, limit, offset int) (*AccountHistory, error) {
	limit, offset = domain.ValidatePagination(limit, offset)

	if _, err := uc.accountRepo.GetByID(ctx, accountID); err != nil {
		return nil, err
	}

	transactions, err := uc.transactionRepo.ListByAccount(ctx, accountID, limit, offset)
	if err != nil {
		return nil, err
	}

	entries, err := uc.entryRepo.ListByAccount(ctx, accountID, limit, offset)
	if err != nil {
		return nil, err
	}

	return &AccountHistory{Transactions: transactions, Entries: entries}, nil
}

func (uc *LedgerUseCase) countError(err error) {
	if uc.metrics == nil {
		return
	}

	errType := "internal"
	switch {
	case errors.Is(err, domain.ErrInvalidAmount), errors.Is(err, domain.ErrInvalidCurrency), errors.Is(err, domain.ErrMissingField):
		errType = "validation"
	case errors.Is(err, domain.ErrAccountNotFound):
		errType = "not_found"
	case errors.Is(err, domain.ErrInsufficientFunds):
		errType = "insufficient_funds"
	case errors.Is(err, domain.ErrAccountNotActive):
		errType = "account_not_active"
	case errors.Is(err, domain.ErrCurrencyMismatch), errors.Is(err, domain.ErrSameAccount):
		errType = "state"
	case errors.Is(err, domain.ErrSystemBusy):
		errType = "busy"
	}

	uc.metrics.TransactionErrors.WithLabelValues(errType).Inc()
}

func balanceCacheKey(accountID string) string {
	return "balance:" + accountID
}

func (uc *LedgerUseCase) cachedBalance(ctx context.Context, accountID string) (*BalanceInfo, bool) {
	if uc.cache == nil {
		return nil, false
	}

	raw, err := uc.cache.Get(ctx, balanceCacheKey(accountID))
	if err != nil || raw == nil {
		uc.countCache("get", "miss")
		return nil, false
	}

	var info BalanceInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return nil, false
	}

	uc.countCache("get", "hit")

	return &info, true
}

func (uc *LedgerUseCase) storeBalance(ctx context.Context, info *BalanceInfo) {
	if uc.cache == nil {
		return
	}

	raw, err := json.Marshal(info)
	if err != nil {
		return
	}

	// Best effort; a failed cache write only costs a future lookup.
	_ = uc.cache.Set(ctx, balanceCacheKey(info.AccountID), raw, BalanceCacheTTL)
}

func (uc *LedgerUseCase) invalidateBalance(ctx context.Context, accountID string) {
	if uc.cache == nil {
		return
	}

	_ = uc.cache.Delete(ctx, balanceCacheKey(accountID))
}

func (uc *LedgerUseCase) countCache(operation, result string) {
	if uc.metrics != nil {
		uc.metrics.CacheOps.WithLabelValues(operation, result).Inc()
	}
}
