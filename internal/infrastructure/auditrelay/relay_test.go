package auditrelay_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finvault/ledger/internal/domain"
	"github.com/finvault/ledger/internal/infrastructure/auditrelay"
	"github.com/finvault/ledger/internal/infrastructure/metrics"
	"github.com/finvault/ledger/internal/usecase"
	"github.com/finvault/ledger/internal/usecase/mocks"
)

type failingAppender struct {
	err error
}

func (f *failingAppender) CreateAuditEntry(context.Context, usecase.CreateAuditEntryInput) (string, error) {
	return "", f.err
}

func seedEmission(t *testing.T, repo *mocks.MockAuditOutboxRepository, n int) *domain.AuditEmission {
	t.Helper()

	emission := &domain.AuditEmission{
		ID:         fmt.Sprintf("em-%03d", n),
		EntityType: domain.EntityTypeTransaction,
		EntityID:   fmt.Sprintf("txn-%03d", n),
		Action:     domain.ActionTransactionCreated,
		Data:       domain.JSON{"amount": "10"},
		UserID:     "user-1",
	}
	require.NoError(t, repo.Create(context.Background(), nil, emission))

	return emission
}

func TestDrainPublishesEmissions(t *testing.T) {
	outboxRepo := mocks.NewMockAuditOutboxRepository()
	auditRepo := mocks.NewMockAuditRepository()
	auditUC := usecase.NewAuditUseCase(auditRepo, mocks.NewMockIDGenerator(), nil)

	for i := 1; i <= 3; i++ {
		seedEmission(t, outboxRepo, i)
	}

	relay := auditrelay.New(auditrelay.Config{
		OutboxRepo: outboxRepo,
		Audit:      auditUC,
		Logger:     zerolog.Nop(),
	})

	ctx := context.Background()
	require.NoError(t, relay.Drain(ctx))

	pending, err := outboxRepo.GetPending(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending, "all emissions should be published")

	entries, err := auditRepo.ListAsc(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	// Drained entries form a valid chain carrying the emission's actor.
	verification, err := auditUC.VerifyChain(ctx)
	require.NoError(t, err)
	assert.True(t, verification.Valid)
	assert.Equal(t, "user-1", entries[0].UserID)
	assert.Equal(t, "txn-001", entries[0].EntityID)
}

func TestDrainOrderPreserved(t *testing.T) {
	outboxRepo := mocks.NewMockAuditOutboxRepository()
	auditRepo := mocks.NewMockAuditRepository()
	auditUC := usecase.NewAuditUseCase(auditRepo, mocks.NewMockIDGenerator(), nil)

	for i := 1; i <= 5; i++ {
		seedEmission(t, outboxRepo, i)
	}

	relay := auditrelay.New(auditrelay.Config{
		OutboxRepo: outboxRepo,
		Audit:      auditUC,
		Logger:     zerolog.Nop(),
	})

	ctx := context.Background()
	require.NoError(t, relay.Drain(ctx))

	entries, err := auditRepo.ListAsc(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 5)

	for i, entry := range entries {
		assert.Equal(t, fmt.Sprintf("txn-%03d", i+1), entry.EntityID, "chain order should follow outbox order")
	}
}

func TestDrainMarksFailures(t *testing.T) {
	outboxRepo := mocks.NewMockAuditOutboxRepository()
	boom := errors.New("chain unavailable")

	relay := auditrelay.New(auditrelay.Config{
		OutboxRepo:        outboxRepo,
		Audit:             &failingAppender{err: boom},
		Logger:            zerolog.Nop(),
		EscalateThreshold: 5,
	})

	seedEmission(t, outboxRepo, 1)

	ctx := context.Background()
	require.NoError(t, relay.Drain(ctx))

	pending, err := outboxRepo.GetPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1, "failed emission stays in the backlog")
	assert.Equal(t, 1, pending[0].Attempts)
	assert.Contains(t, pending[0].LastError, "chain unavailable")

	// Another drain retries and bumps the attempt count.
	require.NoError(t, relay.Drain(ctx))
	pending, _ = outboxRepo.GetPending(ctx, 10)
	require.Len(t, pending, 1)
	assert.Equal(t, 2, pending[0].Attempts)
}

func TestDrainEscalatesStuckEmissions(t *testing.T) {
	outboxRepo := mocks.NewMockAuditOutboxRepository()
	m := metrics.NewWith(prometheus.NewRegistry())

	relay := auditrelay.New(auditrelay.Config{
		OutboxRepo:        outboxRepo,
		Audit:             &failingAppender{err: errors.New("chain unavailable")},
		Logger:            zerolog.Nop(),
		Metrics:           m,
		EscalateThreshold: 2,
	})

	seedEmission(t, outboxRepo, 1)

	ctx := context.Background()

	require.NoError(t, relay.Drain(ctx))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.AuditEscalations), "below threshold, no escalation")

	require.NoError(t, relay.Drain(ctx))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.AuditEscalations), "threshold reached, escalated")

	// The emission is escalated, not dropped.
	pending, err := outboxRepo.GetPending(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestDrainUpdatesBacklogGauge(t *testing.T) {
	outboxRepo := mocks.NewMockAuditOutboxRepository()
	auditRepo := mocks.NewMockAuditRepository()
	auditUC := usecase.NewAuditUseCase(auditRepo, mocks.NewMockIDGenerator(), nil)
	m := metrics.NewWith(prometheus.NewRegistry())

	relay := auditrelay.New(auditrelay.Config{
		OutboxRepo: outboxRepo,
		Audit:      auditUC,
		Logger:     zerolog.Nop(),
		Metrics:    m,
	})

	for i := 1; i <= 4; i++ {
		seedEmission(t, outboxRepo, i)
	}

	require.NoError(t, relay.Drain(context.Background()))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.AuditBacklog), "backlog empty after drain")
}

func TestDrainRespectsBatchSize(t *testing.T) {
	outboxRepo := mocks.NewMockAuditOutboxRepository()
	auditRepo := mocks.NewMockAuditRepository()
	auditUC := usecase.NewAuditUseCase(auditRepo, mocks.NewMockIDGenerator(), nil)

	for i := 1; i <= 5; i++ {
		seedEmission(t, outboxRepo, i)
	}

	relay := auditrelay.New(auditrelay.Config{
		OutboxRepo: outboxRepo,
		Audit:      auditUC,
		Logger:     zerolog.Nop(),
		BatchSize:  2,
	})

	ctx := context.Background()
	require.NoError(t, relay.Drain(ctx))

	pending, err := outboxRepo.GetPending(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, pending, 3, "one batch drains batch-size emissions")
}
