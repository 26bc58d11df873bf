package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finvault/ledger/internal/domain"
	"github.com/finvault/ledger/internal/usecase"
)

const holdColumns = `id, account_id, amount, status, metadata, created_at, updated_at`

// HoldRepository implements usecase.HoldRepository.
type HoldRepository struct {
	pool *pgxpool.Pool
}

// NewHoldRepository creates a new HoldRepository.
func NewHoldRepository(pool *pgxpool.Pool) *HoldRepository {
	return &HoldRepository{pool: pool}
}

// Create creates a new hold within a unit of work.
func (r *HoldRepository) Create(ctx context.Context, uow usecase.UnitOfWork, hold *domain.Hold) error {
	pgxTx := uow.(*Tx).PgxTx()

	var metadata []byte
	if hold.Metadata != nil {
		var err error
		metadata, err = json.Marshal(hold.Metadata)
		if err != nil {
			return err
		}
	}

	query := `
		INSERT INTO holds (` + holdColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := pgxTx.Exec(ctx, query,
		hold.ID,
		hold.AccountID,
		decimalToNumeric(hold.Amount),
		string(hold.Status),
		metadata,
		timeToPgTimestamptz(hold.CreatedAt),
		timeToPgTimestamptz(hold.UpdatedAt),
	)

	return err
}

// GetByID retrieves a hold by ID.
func (r *HoldRepository) GetByID(ctx context.Context, id string) (*domain.Hold, error) {
	query := `SELECT ` + holdColumns + ` FROM holds WHERE id = $1`

	return r.getOne(r.pool.QueryRow(ctx, query, id))
}

// GetByIDForUpdate retrieves a hold by ID with a FOR UPDATE lock.
func (r *HoldRepository) GetByIDForUpdate(ctx context.Context, uow usecase.UnitOfWork, id string) (*domain.Hold, error) {
	pgxTx := uow.(*Tx).PgxTx()

	query := `SELECT ` + holdColumns + ` FROM holds WHERE id = $1 FOR UPDATE`

	return r.getOne(pgxTx.QueryRow(ctx, query, id))
}

func (r *HoldRepository) getOne(row pgx.Row) (*domain.Hold, error) {
	hold, err := scanHold(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrHoldNotFound
		}

		return nil, err
	}

	return hold, nil
}

// UpdateStatus updates the status of a hold within a unit of work.
func (r *HoldRepository) UpdateStatus(ctx context.Context, uow usecase.UnitOfWork, id string, status domain.HoldStatus, updatedAt time.Time) error {
	pgxTx := uow.(*Tx).PgxTx()

	query := `UPDATE holds SET status = $2, updated_at = $3 WHERE id = $1`

	tag, err := pgxTx.Exec(ctx, query, id, string(status), timeToPgTimestamptz(updatedAt))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrHoldNotFound
	}

	return nil
}

// ListByAccount lists an account's holds, newest first.
func (r *HoldRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Hold, error) {
	query := `
		SELECT ` + holdColumns + ` FROM holds
		WHERE account_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, accountID, int32(limit), int32(offset))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var holds []*domain.Hold
	for rows.Next() {
		hold, err := scanHold(rows)
		if err != nil {
			return nil, err
		}
		holds = append(holds, hold)
	}

	return holds, rows.Err()
}

func scanHold(row pgx.Row) (*domain.Hold, error) {
	var (
		hold      domain.Hold
		amount    pgtype.Numeric
		status    string
		metadata  []byte
		createdAt pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
	)

	err := row.Scan(
		&hold.ID,
		&hold.AccountID,
		&amount,
		&status,
		&metadata,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	hold.Amount = numericToDecimal(amount)
	hold.Status = domain.HoldStatus(status)
	hold.CreatedAt = createdAt.Time
	hold.UpdatedAt = updatedAt.Time

	if metadata != nil {
		_ = json.Unmarshal(metadata, &hold.Metadata)
	}

	return &hold, nil
}
