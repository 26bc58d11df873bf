package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/finvault/ledger/internal/domain"
	"github.com/finvault/ledger/internal/usecase"
)

const entryColumns = `id, account_id, transaction_id, amount, currency, type, balance, created_at`

// EntryRepository implements usecase.EntryRepository.
type EntryRepository struct {
	pool *pgxpool.Pool
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(pool *pgxpool.Pool) *EntryRepository {
	return &EntryRepository{pool: pool}
}

// Create creates a new ledger entry within a unit of work.
func (r *EntryRepository) Create(ctx context.Context, uow usecase.UnitOfWork, entry *domain.LedgerEntry) error {
	pgxTx := uow.(*Tx).PgxTx()

	query := `
		INSERT INTO ledger_entries (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := pgxTx.Exec(ctx, query,
		entry.ID,
		entry.AccountID,
		entry.TransactionID,
		decimalToNumeric(entry.Amount),
		entry.Currency,
		string(entry.Type),
		decimalToNumeric(entry.Balance),
		timeToPgTimestamptz(entry.CreatedAt),
	)

	return err
}

// GetByTransaction lists the entries of one transaction.
func (r *EntryRepository) GetByTransaction(ctx context.Context, transactionID string) ([]*domain.LedgerEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM ledger_entries WHERE transaction_id = $1 ORDER BY created_at ASC, id ASC`

	rows, err := r.pool.Query(ctx, query, transactionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectEntries(rows)
}

// ListByAccount lists an account's entries, newest first.
func (r *EntryRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.LedgerEntry, error) {
	query := `
		SELECT ` + entryColumns + ` FROM ledger_entries
		WHERE account_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, accountID, int32(limit), int32(offset))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectEntries(rows)
}

// ListByAccountAsc lists all of an account's entries in creation order.
func (r *EntryRepository) ListByAccountAsc(ctx context.Context, accountID string) ([]*domain.LedgerEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM ledger_entries WHERE account_id = $1 ORDER BY created_at ASC, id ASC`

	rows, err := r.pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectEntries(rows)
}

// ListByAccountBetween lists an account's entries within [start, end], oldest
// first.
func (r *EntryRepository) ListByAccountBetween(ctx context.Context, accountID string, start, end time.Time) ([]*domain.LedgerEntry, error) {
	query := `
		SELECT ` + entryColumns + ` FROM ledger_entries
		WHERE account_id = $1 AND created_at >= $2 AND created_at <= $3
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.pool.Query(ctx, query, accountID, timeToPgTimestamptz(start), timeToPgTimestamptz(end))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectEntries(rows)
}

// GetBalanceAt returns the balance snapshot of the latest entry at or before
// the given time, or zero if the account had no entries by then.
func (r *EntryRepository) GetBalanceAt(ctx context.Context, accountID string, at time.Time) (decimal.Decimal, error) {
	query := `
		SELECT balance FROM ledger_entries
		WHERE account_id = $1 AND created_at <= $2
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`

	var balance pgtype.Numeric
	err := r.pool.QueryRow(ctx, query, accountID, timeToPgTimestamptz(at)).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, nil
		}

		return decimal.Zero, err
	}

	return numericToDecimal(balance), nil
}

// SumAmounts returns the sum of every entry amount in the ledger. Zero on a
// consistent ledger.
func (r *EntryRepository) SumAmounts(ctx context.Context) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM ledger_entries`

	var total pgtype.Numeric
	if err := r.pool.QueryRow(ctx, query).Scan(&total); err != nil {
		return decimal.Zero, err
	}

	return numericToDecimal(total), nil
}

func collectEntries(rows pgx.Rows) ([]*domain.LedgerEntry, error) {
	var entries []*domain.LedgerEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

func scanEntry(row pgx.Row) (*domain.LedgerEntry, error) {
	var (
		entry     domain.LedgerEntry
		amount    pgtype.Numeric
		entryType string
		balance   pgtype.Numeric
		createdAt pgtype.Timestamptz
	)

	err := row.Scan(
		&entry.ID,
		&entry.AccountID,
		&entry.TransactionID,
		&amount,
		&entry.Currency,
		&entryType,
		&balance,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	entry.Amount = numericToDecimal(amount)
	entry.Type = domain.EntryType(entryType)
	entry.Balance = numericToDecimal(balance)
	entry.CreatedAt = createdAt.Time

	return &entry, nil
}
