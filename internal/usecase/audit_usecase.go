package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/finvault/ledger/internal/domain"
	"github.com/finvault/ledger/internal/infrastructure/metrics"
)

// AuditUseCase owns the hash-chained audit trail. The chain tail is reachable
// only through CreateAuditEntry: an in-process mutex serializes appends from
// this process, and the repository's compare-and-swap rejects a tail moved by
// another writer. Conflicts retry with bounded exponential backoff.
type AuditUseCase struct {
	mu          sync.Mutex
	auditRepo   AuditRepository
	idGen       IDGenerator
	metrics     *metrics.Metrics
	maxRetries  uint64
	backoffBase time.Duration
}

// NewAuditUseCase creates a new AuditUseCase. metrics is optional.
func NewAuditUseCase(auditRepo AuditRepository, idGen IDGenerator, m *metrics.Metrics) *AuditUseCase {
	return &AuditUseCase{
		auditRepo:   auditRepo,
		idGen:       idGen,
		metrics:     m,
		maxRetries:  DefaultAuditAppendRetries,
		backoffBase: 10 * time.Millisecond,
	}
}

// CreateAuditEntryInput describes an auditable action.
type CreateAuditEntryInput struct {
	EntityType string
	EntityID   string
	Action     string
	Data       domain.JSON
	Actor      *domain.Actor
}

// CreateAuditEntry appends one entry to the chain and returns its id.
// Exhausted tail conflicts surface as domain.ErrSystemBusy.
func (uc *AuditUseCase) CreateAuditEntry(ctx context.Context, input CreateAuditEntryInput) (string, error) {
	if input.EntityType == "" || input.EntityID == "" || input.Action == "" {
		return "", fmt.Errorf("%w: entity type, entity id and action are required", domain.ErrMissingField)
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	var entryID string

	appendOnce := func() error {
		latest, err := uc.auditRepo.GetLatest(ctx)
		if err != nil {
			return backoff.Permanent(err)
		}

		previousHash := domain.GenesisHash
		if latest != nil {
			previousHash = latest.CurrentHash
		}

		entry := &domain.AuditEntry{
			ID:           uc.idGen.Generate(),
			EntityType:   input.EntityType,
			EntityID:     input.EntityID,
			Action:       input.Action,
			Data:         input.Data,
			PreviousHash: previousHash,
			CreatedAt:    time.Now().UTC(),
		}
		if input.Actor != nil {
			entry.UserID = input.Actor.UserID
			entry.IPAddress = input.Actor.IPAddress
			entry.UserAgent = input.Actor.UserAgent
		}
		entry.CurrentHash = entry.ComputeHash()

		if err := uc.auditRepo.Append(ctx, entry, previousHash); err != nil {
			if errors.Is(err, domain.ErrAuditConflict) {
				if uc.metrics != nil {
					uc.metrics.AuditAppendConflicts.Inc()
				}
				return err
			}
			return backoff.Permanent(err)
		}

		entryID = entry.ID

		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = uc.backoffBase
	b.MaxInterval = 500 * time.Millisecond

	err := backoff.Retry(appendOnce, backoff.WithContext(backoff.WithMaxRetries(b, uc.maxRetries), ctx))
	if err != nil {
		if errors.Is(err, domain.ErrAuditConflict) {
			return "", fmt.Errorf("%w: audit chain tail contention", domain.ErrSystemBusy)
		}
		return "", err
	}

	if uc.metrics != nil {
		uc.metrics.AuditEntriesAppended.Inc()
	}

	return entryID, nil
}

// ChainVerification is the result of a full chain scan.
type ChainVerification struct {
	Valid     bool      `json:"is_valid"`
	BrokenAt  string    `json:"broken_at,omitempty"`
	Entries   int       `json:"entries"`
	CheckedAt time.Time `json:"checked_at"`
}

// VerifyChain recomputes every entry's hash and checks each previous-hash
// link in ascending creation order. It reports the first entry that fails
// either check. Verification never repairs anything.
func (uc *AuditUseCase) VerifyChain(ctx context.Context) (*ChainVerification, error) {
	entries, err := uc.auditRepo.ListAsc(ctx)
	if err != nil {
		return nil, err
	}

	result := &ChainVerification{
		Valid:     true,
		Entries:   len(entries),
		CheckedAt: time.Now().UTC(),
	}

	for i, entry := range entries {
		if entry.ComputeHash() != entry.CurrentHash {
			result.Valid = false
			result.BrokenAt = entry.ID
			break
		}

		if i == 0 {
			if entry.PreviousHash != domain.GenesisHash {
				result.Valid = false
				result.BrokenAt = entry.ID
				break
			}
			continue
		}

		if entry.PreviousHash != entries[i-1].CurrentHash {
			result.Valid = false
			result.BrokenAt = entry.ID
			break
		}
	}

	if uc.metrics != nil {
		label := "valid"
		if !result.Valid {
			label = "broken"
		}
		uc.metrics.ChainVerifications.WithLabelValues(label).Inc()
	}

	return result, nil
}

// GetEntityHistory lists the audit trail of one entity, oldest first.
func (uc *AuditUseCase) GetEntityHistory(ctx context.Context, entityType, entityID string) ([]*domain.AuditEntry, error) {
	if entityType == "" || entityID == "" {
		return nil, fmt.Errorf("%w: entity type and entity id are required", domain.ErrMissingField)
	}

	return uc.auditRepo.GetByEntity(ctx, entityType, entityID)
}

// GetCustomerHistory lists every audit entry attributable to a customer:
// entries on the customer entity itself plus entries whose payload names the
// customer.
func (uc *AuditUseCase) GetCustomerHistory(ctx context.Context, customerID string) ([]*domain.AuditEntry, error) {
	if customerID == "" {
		return nil, fmt.Errorf("%w: customer id is required", domain.ErrMissingField)
	}

	return uc.auditRepo.GetByCustomer(ctx, customerID)
}

// AuditSummary aggregates the trail over a period and embeds a chain
// verification.
type AuditSummary struct {
	PeriodStart  time.Time          `json:"period_start"`
	PeriodEnd    time.Time          `json:"period_end"`
	Total        int                `json:"total"`
	ByEntityType map[string]int     `json:"by_entity_type"`
	ByAction     map[string]int     `json:"by_action"`
	ByDay        map[string]int     `json:"by_day"`
	Verification *ChainVerification `json:"verification"`
	GeneratedAt  time.Time          `json:"generated_at"`
}

// GetAuditSummary aggregates entry counts by entity type, action and day.
func (uc *AuditUseCase) GetAuditSummary(ctx context.Context, start, end time.Time) (*AuditSummary, error) {
	entries, err := uc.auditRepo.ListBetween(ctx, start, end)
	if err != nil {
		return nil, err
	}

	verification, err := uc.VerifyChain(ctx)
	if err != nil {
		return nil, err
	}

	summary := &AuditSummary{
		PeriodStart:  start,
		PeriodEnd:    end,
		Total:        len(entries),
		ByEntityType: make(map[string]int),
		ByAction:     make(map[string]int),
		ByDay:        make(map[string]int),
		Verification: verification,
		GeneratedAt:  time.Now().UTC(),
	}

	for _, entry := range entries {
		summary.ByEntityType[entry.EntityType]++
		summary.ByAction[entry.Action]++
		summary.ByDay[entry.CreatedAt.UTC().Format("2006-01-02")]++
	}

	return summary, nil
}

// ExportMetadata is the provenance attestation attached to an export.
// HashAlgorithm and CanonicalForm document how a consumer recomputes the
// hashes from exported fields alone.
type ExportMetadata struct {
	ExportedAt    time.Time          `json:"exported_at"`
	PeriodStart   time.Time          `json:"period_start"`
	PeriodEnd     time.Time          `json:"period_end"`
	Count         int                `json:"count"`
	HashAlgorithm string             `json:"hash_algorithm"`
	CanonicalForm string             `json:"canonical_form"`
	Verification  *ChainVerification `json:"verification"`
}

// AuditExport is the full serialized trail for a period.
type AuditExport struct {
	Metadata ExportMetadata       `json:"metadata"`
	Entries  []*domain.AuditEntry `json:"entries"`
}

// ExportAuditTrail exports every entry in range together with an integrity
// attestation. An export whose verification is broken must not be trusted.
func (uc *AuditUseCase) ExportAuditTrail(ctx context.Context, start, end time.Time) (*AuditExport, error) {
	entries, err := uc.auditRepo.ListBetween(ctx, start, end)
	if err != nil {
		return nil, err
	}

	verification, err := uc.VerifyChain(ctx)
	if err != nil {
		return nil, err
	}

	return &AuditExport{
		Metadata: ExportMetadata{
			ExportedAt:    time.Now().UTC(),
			PeriodStart:   start,
			PeriodEnd:     end,
			Count:         len(entries),
			HashAlgorithm: "sha256",
			CanonicalForm: "compact JSON {entity_type,entity_id,action,data,user_id,ip_address,user_agent,timestamp,previous_hash}, data keys sorted, timestamp RFC3339Nano UTC",
			Verification:  verification,
		},
		Entries: entries,
	}, nil
}

// LogCustomerEvent records an audited action on a customer.
func (uc *AuditUseCase) LogCustomerEvent(ctx context.Context, customerID, action string, data domain.JSON, actor *domain.Actor) (string, error) {
	return uc.CreateAuditEntry(ctx, CreateAuditEntryInput{
		EntityType: domain.EntityTypeCustomer,
		EntityID:   customerID,
		Action:     action,
		Data:       data,
		Actor:      actor,
	})
}

// LogKYCEvent records an audited action on a KYC check.
func (uc *AuditUseCase) LogKYCEvent(ctx context.Context, checkID, action string, data domain.JSON, actor *domain.Actor) (string, error) {
	return uc.CreateAuditEntry(ctx, CreateAuditEntryInput{
		EntityType: domain.EntityTypeKYC,
		EntityID:   checkID,
		Action:     action,
		Data:       data,
		Actor:      actor,
	})
}

// LogTransactionEvent records an audited action on a transaction.
func (uc *AuditUseCase) LogTransactionEvent(ctx context.Context, transactionID, action string, data domain.JSON, actor *domain.Actor) (string, error) {
	return uc.CreateAuditEntry(ctx, CreateAuditEntryInput{
		EntityType: domain.EntityTypeTransaction,
		EntityID:   transactionID,
		Action:     action,
		Data:       data,
		Actor:      actor,
	})
}

// LogAccountEvent records an audited action on an account.
func (uc *AuditUseCase) LogAccountEvent(ctx context.Context, accountID, action string, data domain.JSON, actor *domain.Actor) (string, error) {
	return uc.CreateAuditEntry(ctx, CreateAuditEntryInput{
		EntityType: domain.EntityTypeAccount,
		EntityID:   accountID,
		Action:     action,
		Data:       data,
		Actor:      actor,
	})
}
