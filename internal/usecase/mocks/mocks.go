// Package mocks provides hand-rolled, map-backed repository doubles.
// Defaults behave like a real store; per-test Func hooks override single
// methods. MockTransactionManager serializes units of work with a mutex so
// concurrency tests exercise the same mutual exclusion the database gives
// the production repositories.
package mocks

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finvault/ledger/internal/domain"
	"github.com/finvault/ledger/internal/usecase"
)

// MockUnitOfWork is a no-op unit of work whose completion releases the
// manager's lock exactly once.
type MockUnitOfWork struct {
	once    sync.Once
	release func()
}

func (t *MockUnitOfWork) Commit(ctx context.Context) error {
	t.once.Do(t.release)
	return nil
}

func (t *MockUnitOfWork) Rollback(ctx context.Context) error {
	t.once.Do(t.release)
	return nil
}

// MockTransactionManager serializes all units of work.
type MockTransactionManager struct {
	mu sync.Mutex

	BeginFunc func(ctx context.Context) (usecase.UnitOfWork, error)
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.UnitOfWork, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	m.mu.Lock()
	return &MockUnitOfWork{release: m.mu.Unlock}, nil
}

// MockIDGenerator produces process-unique sequential ids.
type MockIDGenerator struct {
	counter atomic.Int64

	GenerateFunc func() string
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	return fmt.Sprintf("id-%06d", m.counter.Add(1))
}

// MockAccountRepository is a mock implementation of AccountRepository.
type MockAccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account

	CreateFunc            func(ctx context.Context, account *domain.Account) error
	GetByIDFunc           func(ctx context.Context, id string) (*domain.Account, error)
	GetByIDsForUpdateFunc func(ctx context.Context, uow usecase.UnitOfWork, ids []string) ([]*domain.Account, error)
	UpdateBalancesFunc    func(ctx context.Context, uow usecase.UnitOfWork, id string, balance, available decimal.Decimal, updatedAt time.Time) error
}

func NewMockAccountRepository() *MockAccountRepository {
	return &MockAccountRepository{
		accounts: make(map[string]*domain.Account),
	}
}

// Seed inserts an account directly, bypassing hooks.
func (m *MockAccountRepository) Seed(account *domain.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[account.ID] = account
}

func (m *MockAccountRepository) Create(ctx context.Context, account *domain.Account) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, account)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[account.ID] = account
	return nil
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if acc, ok := m.accounts[id]; ok {
		copied := *acc
		return &copied, nil
	}
	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountRepository) GetByIDsForUpdate(ctx context.Context, uow usecase.UnitOfWork, ids []string) ([]*domain.Account, error) {
	if m.GetByIDsForUpdateFunc != nil {
		return m.GetByIDsForUpdateFunc(ctx, uow, ids)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var accounts []*domain.Account
	for _, id := range ids {
		if acc, ok := m.accounts[id]; ok {
			copied := *acc
			accounts = append(accounts, &copied)
		}
	}
	return accounts, nil
}

func (m *MockAccountRepository) UpdateBalances(ctx context.Context, uow usecase.UnitOfWork, id string, balance, available decimal.Decimal, updatedAt time.Time) error {
	if m.UpdateBalancesFunc != nil {
		return m.UpdateBalancesFunc(ctx, uow, id, balance, available, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if acc, ok := m.accounts[id]; ok {
		acc.Balance = balance
		acc.AvailableBalance = available
		acc.Version++
		acc.UpdatedAt = updatedAt
	}
	return nil
}

func (m *MockAccountRepository) UpdateAvailableBalance(ctx context.Context, uow usecase.UnitOfWork, id string, available decimal.Decimal, updatedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if acc, ok := m.accounts[id]; ok {
		acc.AvailableBalance = available
		acc.Version++
		acc.UpdatedAt = updatedAt
	}
	return nil
}

func (m *MockAccountRepository) UpdateStatus(ctx context.Context, id string, status domain.AccountStatus, updatedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	acc.Status = status
	acc.UpdatedAt = updatedAt
	return nil
}

func (m *MockAccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var accounts []*domain.Account
	for _, acc := range m.accounts {
		copied := *acc
		accounts = append(accounts, &copied)
	}
	return accounts, nil
}

func (m *MockAccountRepository) ListByCustomer(ctx context.Context, customerID string) ([]*domain.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var accounts []*domain.Account
	for _, acc := range m.accounts {
		if acc.CustomerID == customerID {
			copied := *acc
			accounts = append(accounts, &copied)
		}
	}
	return accounts, nil
}

// MockTransactionRepository is a mock implementation of TransactionRepository.
type MockTransactionRepository struct {
	mu           sync.RWMutex
	transactions map[string]*domain.Transaction
	order        []string

	CreateFunc func(ctx context.Context, uow usecase.UnitOfWork, txn *domain.Transaction) error
}

func NewMockTransactionRepository() *MockTransactionRepository {
	return &MockTransactionRepository{
		transactions: make(map[string]*domain.Transaction),
	}
}

func (m *MockTransactionRepository) Create(ctx context.Context, uow usecase.UnitOfWork, txn *domain.Transaction) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, uow, txn)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions[txn.ID] = txn
	m.order = append(m.order, txn.ID)
	return nil
}

func (m *MockTransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if t, ok := m.transactions[id]; ok {
		return t, nil
	}
	return nil, domain.ErrTransactionNotFound
}

func (m *MockTransactionRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var matched []*domain.Transaction
	for i := len(m.order) - 1; i >= 0; i-- {
		t := m.transactions[m.order[i]]
		if t.FromAccountID == accountID || t.ToAccountID == accountID {
			matched = append(matched, t)
		}
	}
	return paginate(matched, limit, offset), nil
}

func (m *MockTransactionRepository) ListByAccountBetween(ctx context.Context, accountID string, start, end time.Time) ([]*domain.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var matched []*domain.Transaction
	for _, id := range m.order {
		t := m.transactions[id]
		if t.FromAccountID != accountID && t.ToAccountID != accountID {
			continue
		}
		if t.CreatedAt.Before(start) || t.CreatedAt.After(end) {
			continue
		}
		matched = append(matched, t)
	}
	return matched, nil
}

// MockEntryRepository is a mock implementation of EntryRepository.
type MockEntryRepository struct {
	mu      sync.RWMutex
	entries []*domain.LedgerEntry

	CreateFunc func(ctx context.Context, uow usecase.UnitOfWork, entry *domain.LedgerEntry) error
}

func NewMockEntryRepository() *MockEntryRepository {
	return &MockEntryRepository{}
}

func (m *MockEntryRepository) Create(ctx context.Context, uow usecase.UnitOfWork, entry *domain.LedgerEntry) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, uow, entry)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

func (m *MockEntryRepository) GetByTransaction(ctx context.Context, transactionID string) ([]*domain.LedgerEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var matched []*domain.LedgerEntry
	for _, e := range m.entries {
		if e.TransactionID == transactionID {
			matched = append(matched, e)
		}
	}
	return matched, nil
}

func (m *MockEntryRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.LedgerEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var matched []*domain.LedgerEntry
	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.entries[i].AccountID == accountID {
			matched = append(matched, m.entries[i])
		}
	}
	return paginate(matched, limit, offset), nil
}

func (m *MockEntryRepository) ListByAccountAsc(ctx context.Context, accountID string) ([]*domain.LedgerEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var matched []*domain.LedgerEntry
	for _, e := range m.entries {
		if e.AccountID == accountID {
			matched = append(matched, e)
		}
	}
	return matched, nil
}

func (m *MockEntryRepository) ListByAccountBetween(ctx context.Context, accountID string, start, end time.Time) ([]*domain.LedgerEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var matched []*domain.LedgerEntry
	for _, e := range m.entries {
		if e.AccountID != accountID {
			continue
		}
		if e.CreatedAt.Before(start) || e.CreatedAt.After(end) {
			continue
		}
		matched = append(matched, e)
	}
	return matched, nil
}

func (m *MockEntryRepository) GetBalanceAt(ctx context.Context, accountID string, at time.Time) (decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	balance := decimal.Zero
	for _, e := range m.entries {
		if e.AccountID == accountID && !e.CreatedAt.After(at) {
			balance = e.Balance
		}
	}
	return balance, nil
}

func (m *MockEntryRepository) SumAmounts(ctx context.Context) (decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	total := decimal.Zero
	for _, e := range m.entries {
		total = total.Add(e.Amount)
	}
	return total, nil
}

// MockAuditRepository is a mock implementation of AuditRepository with real
// compare-and-swap semantics on the chain tail.
type MockAuditRepository struct {
	mu      sync.RWMutex
	entries []*domain.AuditEntry

	AppendFunc func(ctx context.Context, entry *domain.AuditEntry, expectedPreviousHash string) error
}

func NewMockAuditRepository() *MockAuditRepository {
	return &MockAuditRepository{}
}

func (m *MockAuditRepository) GetLatest(ctx context.Context) (*domain.AuditEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.entries) == 0 {
		return nil, nil
	}
	return m.entries[len(m.entries)-1], nil
}

func (m *MockAuditRepository) Append(ctx context.Context, entry *domain.AuditEntry, expectedPreviousHash string) error {
	if m.AppendFunc != nil {
		return m.AppendFunc(ctx, entry, expectedPreviousHash)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	tail := domain.GenesisHash
	if len(m.entries) > 0 {
		tail = m.entries[len(m.entries)-1].CurrentHash
	}
	if tail != expectedPreviousHash {
		return domain.ErrAuditConflict
	}
	m.entries = append(m.entries, entry)
	return nil
}

func (m *MockAuditRepository) ListAsc(ctx context.Context) ([]*domain.AuditEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.AuditEntry, len(m.entries))
	copy(out, m.entries)
	return out, nil
}

func (m *MockAuditRepository) ListBetween(ctx context.Context, start, end time.Time) ([]*domain.AuditEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var matched []*domain.AuditEntry
	for _, e := range m.entries {
		if e.CreatedAt.Before(start) || e.CreatedAt.After(end) {
			continue
		}
		matched = append(matched, e)
	}
	return matched, nil
}

func (m *MockAuditRepository) GetByEntity(ctx context.Context, entityType, entityID string) ([]*domain.AuditEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var matched []*domain.AuditEntry
	for _, e := range m.entries {
		if e.EntityType == entityType && e.EntityID == entityID {
			matched = append(matched, e)
		}
	}
	return matched, nil
}

func (m *MockAuditRepository) GetByCustomer(ctx context.Context, customerID string) ([]*domain.AuditEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var matched []*domain.AuditEntry
	for _, e := range m.entries {
		if e.EntityType == domain.EntityTypeCustomer && e.EntityID == customerID {
			matched = append(matched, e)
			continue
		}
		if id, ok := e.Data["customer_id"].(string); ok && id == customerID {
			matched = append(matched, e)
		}
	}
	return matched, nil
}

// MockAuditOutboxRepository is a mock implementation of AuditOutboxRepository.
type MockAuditOutboxRepository struct {
	mu        sync.RWMutex
	emissions map[string]*domain.AuditEmission
	order     []string

	CreateFunc func(ctx context.Context, uow usecase.UnitOfWork, emission *domain.AuditEmission) error
}

func NewMockAuditOutboxRepository() *MockAuditOutboxRepository {
	return &MockAuditOutboxRepository{
		emissions: make(map[string]*domain.AuditEmission),
	}
}

func (m *MockAuditOutboxRepository) Create(ctx context.Context, uow usecase.UnitOfWork, emission *domain.AuditEmission) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, uow, emission)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.emissions[emission.ID] = emission
	m.order = append(m.order, emission.ID)
	return nil
}

func (m *MockAuditOutboxRepository) GetPending(ctx context.Context, limit int) ([]*domain.AuditEmission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var pending []*domain.AuditEmission
	for _, id := range m.order {
		e := m.emissions[id]
		if e.Published {
			continue
		}
		pending = append(pending, e)
		if limit > 0 && len(pending) >= limit {
			break
		}
	}
	return pending, nil
}

func (m *MockAuditOutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.emissions[id]; ok {
		e.Published = true
		e.PublishedAt = &publishedAt
	}
	return nil
}

func (m *MockAuditOutboxRepository) MarkFailed(ctx context.Context, id string, attempts int, lastError string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.emissions[id]; ok {
		e.Attempts = attempts
		e.LastError = lastError
	}
	return nil
}

func (m *MockAuditOutboxRepository) CountPending(ctx context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var count int64
	for _, e := range m.emissions {
		if !e.Published {
			count++
		}
	}
	return count, nil
}

// MockHoldRepository is a mock implementation of HoldRepository.
type MockHoldRepository struct {
	mu    sync.RWMutex
	holds map[string]*domain.Hold
	order []string
}

func NewMockHoldRepository() *MockHoldRepository {
	return &MockHoldRepository{
		holds: make(map[string]*domain.Hold),
	}
}

func (m *MockHoldRepository) Create(ctx context.Context, uow usecase.UnitOfWork, hold *domain.Hold) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.holds[hold.ID] = hold
	m.order = append(m.order, hold.ID)
	return nil
}

func (m *MockHoldRepository) GetByID(ctx context.Context, id string) (*domain.Hold, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if h, ok := m.holds[id]; ok {
		return h, nil
	}
	return nil, domain.ErrHoldNotFound
}

func (m *MockHoldRepository) GetByIDForUpdate(ctx context.Context, uow usecase.UnitOfWork, id string) (*domain.Hold, error) {
	return m.GetByID(ctx, id)
}

func (m *MockHoldRepository) UpdateStatus(ctx context.Context, uow usecase.UnitOfWork, id string, status domain.HoldStatus, updatedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.holds[id]
	if !ok {
		return domain.ErrHoldNotFound
	}
	h.Status = status
	h.UpdatedAt = updatedAt
	return nil
}

func (m *MockHoldRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Hold, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var matched []*domain.Hold
	for i := len(m.order) - 1; i >= 0; i-- {
		h := m.holds[m.order[i]]
		if h.AccountID == accountID {
			matched = append(matched, h)
		}
	}
	return paginate(matched, limit, offset), nil
}

// MockCache is an in-memory Cache without TTL eviction.
type MockCache struct {
	mu     sync.RWMutex
	values map[string][]byte
}

func NewMockCache() *MockCache {
	return &MockCache{values: make(map[string][]byte)}
}

func (m *MockCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if v, ok := m.values[key]; ok {
		return v, nil
	}
	return nil, nil
}

func (m *MockCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}
