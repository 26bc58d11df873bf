package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finvault/ledger/internal/domain"
)

// AccountUseCase is the collaborator-facing account surface. It creates
// accounts and validates externally driven status transitions; balances stay
// owned by the ledger engine.
type AccountUseCase struct {
	accountRepo AccountRepository
	audit       AuditLogger
	idGen       IDGenerator
}

// NewAccountUseCase creates a new AccountUseCase. audit is optional.
func NewAccountUseCase(accountRepo AccountRepository, audit AuditLogger, idGen IDGenerator) *AccountUseCase {
	return &AccountUseCase{
		accountRepo: accountRepo,
		audit:       audit,
		idGen:       idGen,
	}
}

// CreateAccountInput represents input for creating an account.
type CreateAccountInput struct {
	CustomerID string
	Type       domain.AccountType
	Currency   string
	Actor      *domain.Actor
}

// CreateAccount creates a new active account with zero balances.
func (uc *AccountUseCase) CreateAccount(ctx context.Context, input CreateAccountInput) (*domain.Account, error) {
	if input.CustomerID == "" {
		return nil, fmt.Errorf("%w: customer id is required", domain.ErrMissingField)
	}
	if input.Type != domain.AccountTypeChecking && input.Type != domain.AccountTypeSavings {
		return nil, fmt.Errorf("%w: account type must be CHECKING or SAVINGS", domain.ErrMissingField)
	}
	if err := domain.ValidateCurrency(input.Currency); err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	account := &domain.Account{
		ID:               uc.idGen.Generate(),
		CustomerID:       input.CustomerID,
		Type:             input.Type,
		Currency:         input.Currency,
		Balance:          decimal.Zero,
		AvailableBalance: decimal.Zero,
		Status:           domain.AccountStatusActive,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := uc.accountRepo.Create(ctx, account); err != nil {
		return nil, err
	}

	uc.logEvent(ctx, account.ID, domain.ActionAccountCreated, domain.JSON{
		"account_id":  account.ID,
		"customer_id": account.CustomerID,
		"type":        string(account.Type),
		"currency":    account.Currency,
	}, input.Actor)

	return account, nil
}

// GetAccount retrieves an account by id.
func (uc *AccountUseCase) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	return uc.accountRepo.GetByID(ctx, id)
}

// UpdateStatus applies an externally driven status transition.
func (uc *AccountUseCase) UpdateStatus(ctx context.Context, id string, status domain.AccountStatus, actor *domain.Actor) (*domain.Account, error) {
	account, err := uc.accountRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !domain.ValidStatusTransition(account.Status, status) {
		return nil, fmt.Errorf("%w: cannot move %s from %s to %s", domain.ErrAccountNotActive, id, account.Status, status)
	}

	now := time.Now().UTC()
	if err := uc.accountRepo.UpdateStatus(ctx, id, status, now); err != nil {
		return nil, err
	}

	uc.logEvent(ctx, id, domain.ActionAccountStatusChanged, domain.JSON{
		"account_id": id,
		"from":       string(account.Status),
		"to":         string(status),
	}, actor)

	account.Status = status
	account.UpdatedAt = now

	return account, nil
}

// ListAccounts lists accounts with pagination.
func (uc *AccountUseCase) ListAccounts(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	limit, offset = domain.ValidatePagination(limit, offset)
	return uc.accountRepo.List(ctx, limit, offset)
}

// ListByCustomer lists a customer's accounts.
func (uc *AccountUseCase) ListByCustomer(ctx context.Context, customerID string) ([]*domain.Account, error) {
	if customerID == "" {
		return nil, fmt.Errorf("%w: customer id is required", domain.ErrMissingField)
	}
	return uc.accountRepo.ListByCustomer(ctx, customerID)
}

// logEvent records the account event directly on the chain. Account
// management is not on the money-movement path, so a failed append is logged
// by the audit component and does not fail the operation here.
func (uc *AccountUseCase) logEvent(ctx context.Context, accountID, action string, data domain.JSON, actor *domain.Actor) {
	if uc.audit == nil {
		return
	}

	_, _ = uc.audit.LogAccountEvent(ctx, accountID, action, data, actor)
}
