package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finvault/ledger/internal/domain"
	"github.com/finvault/ledger/internal/infrastructure/metrics"
)

// HoldUseCase reserves and releases available balance. Holds never move the
// booked balance; they only widen the gap between Balance and
// AvailableBalance that the ledger engine's debit gate checks.
type HoldUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	holdRepo    HoldRepository
	outboxRepo  AuditOutboxRepository
	idGen       IDGenerator
	metrics     *metrics.Metrics
}

// NewHoldUseCase creates a new HoldUseCase. metrics is optional.
func NewHoldUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	holdRepo HoldRepository,
	outboxRepo AuditOutboxRepository,
	idGen IDGenerator,
	m *metrics.Metrics,
) *HoldUseCase {
	return &HoldUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		holdRepo:    holdRepo,
		outboxRepo:  outboxRepo,
		idGen:       idGen,
		metrics:     m,
	}
}

// HoldFunds reserves amount from an account's available balance.
func (uc *HoldUseCase) HoldFunds(ctx context.Context, accountID string, amount decimal.Decimal, metadata map[string]any, actor *domain.Actor) (*domain.Hold, error) {
	hold := &domain.Hold{
		ID:        uc.idGen.Generate(),
		AccountID: accountID,
		Amount:    amount,
		Status:    domain.HoldStatusActive,
		Metadata:  metadata,
	}
	if err := hold.Validate(); err != nil {
		return nil, err
	}
	if err := domain.ValidateMetadata(metadata); err != nil {
		return nil, err
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	uow, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = uow.Rollback(txCtx) }()

	accounts, err := uc.accountRepo.GetByIDsForUpdate(txCtx, uow, []string{accountID})
	if err != nil {
		return nil, err
	}
	if len(accounts) != 1 {
		return nil, domain.ErrAccountNotFound
	}
	account := accounts[0]

	if !account.IsActive() {
		return nil, fmt.Errorf("%w: account %s is %s", domain.ErrAccountNotActive, account.ID, account.Status)
	}
	if account.AvailableBalance.LessThan(amount) {
		return nil, domain.ErrInsufficientFunds
	}

	now := time.Now().UTC()
	hold.CreatedAt = now
	hold.UpdatedAt = now

	if err := uc.holdRepo.Create(txCtx, uow, hold); err != nil {
		return nil, err
	}

	available := account.AvailableBalance.Sub(amount)
	if err := uc.accountRepo.UpdateAvailableBalance(txCtx, uow, accountID, available, now); err != nil {
		return nil, err
	}

	emission := uc.emission(hold, domain.ActionHoldCreated, actor, now)
	if err := uc.outboxRepo.Create(txCtx, uow, emission); err != nil {
		return nil, err
	}

	if err := uow.Commit(txCtx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.HoldsCreated.Inc()
	}

	return hold, nil
}

// ReleaseHold returns a hold's amount to the account's available balance.
func (uc *HoldUseCase) ReleaseHold(ctx context.Context, holdID string, actor *domain.Actor) (*domain.Hold, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	uow, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = uow.Rollback(txCtx) }()

	hold, err := uc.holdRepo.GetByIDForUpdate(txCtx, uow, holdID)
	if err != nil {
		return nil, err
	}
	if hold.Status != domain.HoldStatusActive {
		return nil, domain.ErrHoldNotActive
	}

	accounts, err := uc.accountRepo.GetByIDsForUpdate(txCtx, uow, []string{hold.AccountID})
	if err != nil {
		return nil, err
	}
	if len(accounts) != 1 {
		return nil, domain.ErrAccountNotFound
	}
	account := accounts[0]

	now := time.Now().UTC()

	if err := uc.holdRepo.UpdateStatus(txCtx, uow, holdID, domain.HoldStatusReleased, now); err != nil {
		return nil, err
	}

	available := account.AvailableBalance.Add(hold.Amount)
	if err := uc.accountRepo.UpdateAvailableBalance(txCtx, uow, account.ID, available, now); err != nil {
		return nil, err
	}

	emission := uc.emission(hold, domain.ActionHoldReleased, actor, now)
	if err := uc.outboxRepo.Create(txCtx, uow, emission); err != nil {
		return nil, err
	}

	if err := uow.Commit(txCtx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.HoldsReleased.Inc()
	}

	hold.Status = domain.HoldStatusReleased
	hold.UpdatedAt = now

	return hold, nil
}

// ListHoldsByAccount lists holds for an account, newest first.
func (uc *HoldUseCase) ListHoldsByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Hold, error) {
	limit, offset = domain.ValidatePagination(limit, offset)
	return uc.holdRepo.ListByAccount(ctx, accountID, limit, offset)
}

func (uc *HoldUseCase) emission(hold *domain.Hold, action string, actor *domain.Actor, now time.Time) *domain.AuditEmission {
	emission := &domain.AuditEmission{
		ID:         uc.idGen.Generate(),
		EntityType: domain.EntityTypeAccount,
		EntityID:   hold.AccountID,
		Action:     action,
		Data: domain.JSON{
			"hold_id":    hold.ID,
			"account_id": hold.AccountID,
			"amount":     hold.Amount.String(),
		},
		CreatedAt: now,
	}
	if actor != nil {
		emission.UserID = actor.UserID
		emission.IPAddress = actor.IPAddress
		emission.UserAgent = actor.UserAgent
	}

	return emission
}
