package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finvault/ledger/internal/domain"
)

const pgErrUniqueViolation = "23505"

const auditColumns = `id, entity_type, entity_id, action, data, user_id, ip_address, user_agent, previous_hash, current_hash, created_at`

// AuditRepository implements usecase.AuditRepository. Rows are append-only;
// the seq column gives the global chain order and a unique index on
// previous_hash makes a fork impossible even for a writer that bypasses the
// conditional insert.
type AuditRepository struct {
	pool *pgxpool.Pool
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

// GetLatest returns the newest entry, or (nil, nil) when the log is empty.
func (r *AuditRepository) GetLatest(ctx context.Context) (*domain.AuditEntry, error) {
	query := `SELECT ` + auditColumns + ` FROM audit_entries ORDER BY seq DESC LIMIT 1`

	entry, err := scanAuditEntry(r.pool.QueryRow(ctx, query))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, err
	}

	return entry, nil
}

// Append persists entry if and only if the stored tail hash still equals
// expectedPreviousHash. A moved tail fails with domain.ErrAuditConflict.
func (r *AuditRepository) Append(ctx context.Context, entry *domain.AuditEntry, expectedPreviousHash string) error {
	if entry.PreviousHash != expectedPreviousHash {
		// The entry's hash was computed over a different tail than the one
		// the caller wants to swap against; it could never verify.
		return domain.ErrAuditConflict
	}

	data, err := json.Marshal(entry.Data)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO audit_entries (` + auditColumns + `)
		SELECT $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		WHERE COALESCE(
			(SELECT current_hash FROM audit_entries ORDER BY seq DESC LIMIT 1),
			$12
		) = $9
	`

	tag, err := r.pool.Exec(ctx, query,
		entry.ID,
		entry.EntityType,
		entry.EntityID,
		entry.Action,
		data,
		entry.UserID,
		entry.IPAddress,
		entry.UserAgent,
		entry.PreviousHash,
		entry.CurrentHash,
		timeToPgTimestamptz(entry.CreatedAt),
		domain.GenesisHash,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation {
			return domain.ErrAuditConflict
		}

		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAuditConflict
	}

	return nil
}

// ListAsc lists the whole chain in append order.
func (r *AuditRepository) ListAsc(ctx context.Context) ([]*domain.AuditEntry, error) {
	query := `SELECT ` + auditColumns + ` FROM audit_entries ORDER BY seq ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAuditEntries(rows)
}

// ListBetween lists entries created within [start, end] in append order.
func (r *AuditRepository) ListBetween(ctx context.Context, start, end time.Time) ([]*domain.AuditEntry, error) {
	query := `
		SELECT ` + auditColumns + ` FROM audit_entries
		WHERE created_at >= $1 AND created_at <= $2
		ORDER BY seq ASC
	`

	rows, err := r.pool.Query(ctx, query, timeToPgTimestamptz(start), timeToPgTimestamptz(end))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAuditEntries(rows)
}

// GetByEntity lists an entity's entries in append order.
func (r *AuditRepository) GetByEntity(ctx context.Context, entityType, entityID string) ([]*domain.AuditEntry, error) {
	query := `
		SELECT ` + auditColumns + ` FROM audit_entries
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY seq ASC
	`

	rows, err := r.pool.Query(ctx, query, entityType, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAuditEntries(rows)
}

// GetByCustomer lists entries on the customer entity itself plus entries
// whose payload names the customer.
func (r *AuditRepository) GetByCustomer(ctx context.Context, customerID string) ([]*domain.AuditEntry, error) {
	query := `
		SELECT ` + auditColumns + ` FROM audit_entries
		WHERE (entity_type = $1 AND entity_id = $2)
		   OR data->>'customer_id' = $2
		ORDER BY seq ASC
	`

	rows, err := r.pool.Query(ctx, query, domain.EntityTypeCustomer, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAuditEntries(rows)
}

func collectAuditEntries(rows pgx.Rows) ([]*domain.AuditEntry, error) {
	var entries []*domain.AuditEntry
	for rows.Next() {
		entry, err := scanAuditEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

func scanAuditEntry(row pgx.Row) (*domain.AuditEntry, error) {
	var (
		entry     domain.AuditEntry
		data      []byte
		createdAt pgtype.Timestamptz
	)

	err := row.Scan(
		&entry.ID,
		&entry.EntityType,
		&entry.EntityID,
		&entry.Action,
		&data,
		&entry.UserID,
		&entry.IPAddress,
		&entry.UserAgent,
		&entry.PreviousHash,
		&entry.CurrentHash,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	// Data participates in hash recomputation; a corrupt payload must not
	// silently read back as nil.
	if data != nil {
		if err := json.Unmarshal(data, &entry.Data); err != nil {
			return nil, fmt.Errorf("audit entry %s has unreadable data: %w", entry.ID, err)
		}
	}
	entry.CreatedAt = createdAt.Time

	return &entry, nil
}
