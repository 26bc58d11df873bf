package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finvault/ledger/internal/domain"
)

// AccountRepository defines data access for accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByIDsForUpdate(ctx context.Context, uow UnitOfWork, ids []string) ([]*domain.Account, error)
	UpdateBalances(ctx context.Context, uow UnitOfWork, id string, balance, available decimal.Decimal, updatedAt time.Time) error
	UpdateAvailableBalance(ctx context.Context, uow UnitOfWork, id string, available decimal.Decimal, updatedAt time.Time) error
	UpdateStatus(ctx context.Context, id string, status domain.AccountStatus, updatedAt time.Time) error
	List(ctx context.Context, limit, offset int) ([]*domain.Account, error)
	ListByCustomer(ctx context.Context, customerID string) ([]*domain.Account, error)
}

// TransactionRepository defines data access for transactions.
type TransactionRepository interface {
	Create(ctx context.Context, uow UnitOfWork, txn *domain.Transaction) error
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transaction, error)
	ListByAccountBetween(ctx context.Context, accountID string, start, end time.Time) ([]*domain.Transaction, error)
}

// EntryRepository defines data access for ledger entries.
type EntryRepository interface {
	Create(ctx context.Context, uow UnitOfWork, entry *domain.LedgerEntry) error
	GetByTransaction(ctx context.Context, transactionID string) ([]*domain.LedgerEntry, error)
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.LedgerEntry, error)
	ListByAccountAsc(ctx context.Context, accountID string) ([]*domain.LedgerEntry, error)
	ListByAccountBetween(ctx context.Context, accountID string, start, end time.Time) ([]*domain.LedgerEntry, error)
	// GetBalanceAt returns the balance snapshot of the latest entry with
	// CreatedAt <= at, or zero if the account has no entries by then.
	GetBalanceAt(ctx context.Context, accountID string, at time.Time) (decimal.Decimal, error)
	SumAmounts(ctx context.Context) (decimal.Decimal, error)
}

// AuditRepository defines data access for the hash-chained audit trail.
// The chain tail is the single shared mutable resource of the audit log;
// Append enforces compare-and-swap semantics on it.
type AuditRepository interface {
	// GetLatest returns the globally newest entry, or (nil, nil) when the
	// log is empty.
	GetLatest(ctx context.Context) (*domain.AuditEntry, error)
	// Append persists entry if and only if the stored tail hash still equals
	// expectedPreviousHash (domain.GenesisHash for an empty log). A moved
	// tail fails with domain.ErrAuditConflict.
	Append(ctx context.Context, entry *domain.AuditEntry, expectedPreviousHash string) error
	ListAsc(ctx context.Context) ([]*domain.AuditEntry, error)
	ListBetween(ctx context.Context, start, end time.Time) ([]*domain.AuditEntry, error)
	GetByEntity(ctx context.Context, entityType, entityID string) ([]*domain.AuditEntry, error)
	GetByCustomer(ctx context.Context, customerID string) ([]*domain.AuditEntry, error)
}

// AuditOutboxRepository defines data access for pending audit emissions.
type AuditOutboxRepository interface {
	Create(ctx context.Context, uow UnitOfWork, emission *domain.AuditEmission) error
	GetPending(ctx context.Context, limit int) ([]*domain.AuditEmission, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	MarkFailed(ctx context.Context, id string, attempts int, lastError string) error
	CountPending(ctx context.Context) (int64, error)
}

// HoldRepository defines data access for holds.
type HoldRepository interface {
	Create(ctx context.Context, uow UnitOfWork, hold *domain.Hold) error
	GetByID(ctx context.Context, id string) (*domain.Hold, error)
	GetByIDForUpdate(ctx context.Context, uow UnitOfWork, id string) (*domain.Hold, error)
	UpdateStatus(ctx context.Context, uow UnitOfWork, id string, status domain.HoldStatus, updatedAt time.Time) error
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Hold, error)
}

// UnitOfWork is a set of mutations that commit or roll back together.
type UnitOfWork interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager starts units of work.
type TransactionManager interface {
	Begin(ctx context.Context) (UnitOfWork, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Retrier retries an operation on transient datastore conflicts.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// AuditLogger is the audit surface consumed by collaborator-facing use cases.
type AuditLogger interface {
	LogAccountEvent(ctx context.Context, accountID, action string, data domain.JSON, actor *domain.Actor) (string, error)
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}
