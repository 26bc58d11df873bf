package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finvault/ledger/internal/domain"
	"github.com/finvault/ledger/internal/usecase"
)

const emissionColumns = `id, entity_type, entity_id, action, data, user_id, ip_address, user_agent, attempts, last_error, published, published_at, created_at`

// AuditOutboxRepository implements usecase.AuditOutboxRepository.
type AuditOutboxRepository struct {
	pool *pgxpool.Pool
}

// NewAuditOutboxRepository creates a new AuditOutboxRepository.
func NewAuditOutboxRepository(pool *pgxpool.Pool) *AuditOutboxRepository {
	return &AuditOutboxRepository{pool: pool}
}

// Create creates a new audit emission within a unit of work.
func (r *AuditOutboxRepository) Create(ctx context.Context, uow usecase.UnitOfWork, emission *domain.AuditEmission) error {
	pgxTx := uow.(*Tx).PgxTx()

	data, err := json.Marshal(emission.Data)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO audit_outbox (` + emissionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err = pgxTx.Exec(ctx, query,
		emission.ID,
		emission.EntityType,
		emission.EntityID,
		emission.Action,
		data,
		emission.UserID,
		emission.IPAddress,
		emission.UserAgent,
		emission.Attempts,
		emission.LastError,
		emission.Published,
		nullTime(emission.PublishedAt),
		timeToPgTimestamptz(emission.CreatedAt),
	)

	return err
}

// GetPending retrieves unpublished emissions in creation order.
func (r *AuditOutboxRepository) GetPending(ctx context.Context, limit int) ([]*domain.AuditEmission, error) {
	query := `
		SELECT ` + emissionColumns + ` FROM audit_outbox
		WHERE NOT published
		ORDER BY created_at ASC, id ASC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, int32(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var emissions []*domain.AuditEmission
	for rows.Next() {
		emission, err := scanEmission(rows)
		if err != nil {
			return nil, err
		}
		emissions = append(emissions, emission)
	}

	return emissions, rows.Err()
}

// MarkPublished marks an emission as published.
func (r *AuditOutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	query := `UPDATE audit_outbox SET published = TRUE, published_at = $2 WHERE id = $1`

	_, err := r.pool.Exec(ctx, query, id, timeToPgTimestamptz(publishedAt))

	return err
}

// MarkFailed records a failed relay attempt.
func (r *AuditOutboxRepository) MarkFailed(ctx context.Context, id string, attempts int, lastError string) error {
	query := `UPDATE audit_outbox SET attempts = $2, last_error = $3 WHERE id = $1`

	_, err := r.pool.Exec(ctx, query, id, attempts, lastError)

	return err
}

// CountPending counts unpublished emissions.
func (r *AuditOutboxRepository) CountPending(ctx context.Context) (int64, error) {
	query := `SELECT COUNT(*) FROM audit_outbox WHERE NOT published`

	var count int64
	if err := r.pool.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, err
	}

	return count, nil
}

func scanEmission(row pgx.Row) (*domain.AuditEmission, error) {
	var (
		emission    domain.AuditEmission
		data        []byte
		publishedAt pgtype.Timestamptz
		createdAt   pgtype.Timestamptz
	)

	err := row.Scan(
		&emission.ID,
		&emission.EntityType,
		&emission.EntityID,
		&emission.Action,
		&data,
		&emission.UserID,
		&emission.IPAddress,
		&emission.UserAgent,
		&emission.Attempts,
		&emission.LastError,
		&emission.Published,
		&publishedAt,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	// Emission data becomes the chain entry's payload; surface corruption
	// instead of appending an empty record.
	if data != nil {
		if err := json.Unmarshal(data, &emission.Data); err != nil {
			return nil, fmt.Errorf("audit emission %s has unreadable data: %w", emission.ID, err)
		}
	}
	if publishedAt.Valid {
		t := publishedAt.Time
		emission.PublishedAt = &t
	}
	emission.CreatedAt = createdAt.Time

	return &emission, nil
}

func nullTime(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: *t, Valid: true}
}
