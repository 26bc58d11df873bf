// Package auditrelay drains pending audit emissions from the outbox onto the
// hash chain. Emissions are written in the same database transaction as the
// ledger mutation they describe, so a crash between commit and append loses
// nothing; this worker replays the backlog until every emission is chained.
package auditrelay

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/finvault/ledger/internal/domain"
	"github.com/finvault/ledger/internal/infrastructure/metrics"
	"github.com/finvault/ledger/internal/usecase"
)

// Appender is the audit surface the relay drains into.
type Appender interface {
	CreateAuditEntry(ctx context.Context, input usecase.CreateAuditEntryInput) (string, error)
}

// Relay polls the outbox and appends each pending emission to the audit chain.
type Relay struct {
	outboxRepo        usecase.AuditOutboxRepository
	audit             Appender
	logger            zerolog.Logger
	metrics           *metrics.Metrics
	batchSize         int
	interval          time.Duration
	escalateThreshold int
}

// Config for Relay.
type Config struct {
	OutboxRepo usecase.AuditOutboxRepository
	Audit      Appender
	Logger     zerolog.Logger
	Metrics    *metrics.Metrics
	BatchSize  int           // Number of emissions to fetch per batch
	Interval   time.Duration // Polling interval
	// EscalateThreshold is the attempt count at which a stuck emission is
	// escalated. The emission stays in the backlog; escalation only raises
	// the alarm.
	EscalateThreshold int
}

// New creates a new Relay.
func New(cfg Config) *Relay {
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
	if cfg.Interval == 0 {
		cfg.Interval = time.Second
	}
	if cfg.EscalateThreshold == 0 {
		cfg.EscalateThreshold = 10
	}

	return &Relay{
		outboxRepo:        cfg.OutboxRepo,
		audit:             cfg.Audit,
		logger:            cfg.Logger,
		metrics:           cfg.Metrics,
		batchSize:         cfg.BatchSize,
		interval:          cfg.Interval,
		escalateThreshold: cfg.EscalateThreshold,
	}
}

// Start begins the relay worker. It runs until the context is cancelled.
func (r *Relay) Start(ctx context.Context) error {
	r.logger.Info().
		Int("batch_size", r.batchSize).
		Dur("interval", r.interval).
		Msg("audit relay started")

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	// Drain immediately on start to pick up a backlog from a previous run.
	if err := r.Drain(ctx); err != nil {
		r.logger.Error().Err(err).Msg("audit relay drain failed on start")
	}

	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("audit relay shutting down")
			return ctx.Err()
		case <-ticker.C:
			if err := r.Drain(ctx); err != nil {
				r.logger.Error().Err(err).Msg("audit relay drain failed")
			}
		}
	}
}

// Drain processes one batch of pending emissions.
func (r *Relay) Drain(ctx context.Context) error {
	emissions, err := r.outboxRepo.GetPending(ctx, r.batchSize)
	if err != nil {
		return err
	}

	r.updateBacklog(ctx)

	if len(emissions) == 0 {
		return nil
	}

	r.logger.Debug().Int("count", len(emissions)).Msg("draining audit emissions")

	for _, emission := range emissions {
		if err := r.relayOne(ctx, emission); err != nil {
			attempts := emission.Attempts + 1

			if markErr := r.outboxRepo.MarkFailed(ctx, emission.ID, attempts, err.Error()); markErr != nil {
				r.logger.Error().Err(markErr).
					Str("emission_id", emission.ID).
					Msg("failed to record emission failure")
			}

			if attempts >= r.escalateThreshold {
				r.escalate(emission, attempts, err)
			} else {
				r.logger.Warn().Err(err).
					Str("emission_id", emission.ID).
					Str("action", emission.Action).
					Int("attempts", attempts).
					Msg("audit emission failed, will retry")
			}
			continue
		}

		if err := r.outboxRepo.MarkPublished(ctx, emission.ID, time.Now().UTC()); err != nil {
			// The entry is on the chain but the emission is still pending, so
			// the next drain will append it again. Duplicate entries are
			// benign; a lost one is not.
			r.logger.Error().Err(err).
				Str("emission_id", emission.ID).
				Msg("failed to mark emission as published")
		}
	}

	r.updateBacklog(ctx)

	return nil
}

func (r *Relay) relayOne(ctx context.Context, emission *domain.AuditEmission) error {
	_, err := r.audit.CreateAuditEntry(ctx, usecase.CreateAuditEntryInput{
		EntityType: emission.EntityType,
		EntityID:   emission.EntityID,
		Action:     emission.Action,
		Data:       emission.Data,
		Actor: &domain.Actor{
			UserID:    emission.UserID,
			IPAddress: emission.IPAddress,
			UserAgent: emission.UserAgent,
		},
	})

	return err
}

func (r *Relay) escalate(emission *domain.AuditEmission, attempts int, err error) {
	r.logger.Error().Err(err).
		Str("emission_id", emission.ID).
		Str("entity_type", emission.EntityType).
		Str("entity_id", emission.EntityID).
		Str("action", emission.Action).
		Int("attempts", attempts).
		Msg("audit emission stuck, escalating")

	if r.metrics != nil {
		r.metrics.AuditEscalations.Inc()
	}
}

func (r *Relay) updateBacklog(ctx context.Context) {
	if r.metrics == nil {
		return
	}

	count, err := r.outboxRepo.CountPending(ctx)
	if err != nil {
		r.logger.Warn().Err(err).Msg("failed to count pending emissions")
		return
	}

	r.metrics.AuditBacklog.Set(float64(count))
}
