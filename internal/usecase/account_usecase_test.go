package usecase_test

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/finvault/ledger/internal/domain"
	"github.com/finvault/ledger/internal/usecase"
	"github.com/finvault/ledger/internal/usecase/mocks"
)

func TestCreateAccount(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	accountRepo := mocks.NewMockAccountRepository()
	audit := mocks.NewMockAuditLogger(ctrl)
	uc := usecase.NewAccountUseCase(accountRepo, audit, mocks.NewMockIDGenerator())

	audit.EXPECT().
		LogAccountEvent(gomock.Any(), gomock.Any(), domain.ActionAccountCreated, gomock.Any(), gomock.Any()).
		Return("audit-1", nil)

	account, err := uc.CreateAccount(context.Background(), usecase.CreateAccountInput{
		CustomerID: "cust-1",
		Type:       domain.AccountTypeChecking,
		Currency:   "USD",
	})
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}

	if account.ID == "" {
		t.Error("account has no id")
	}
	if account.Status != domain.AccountStatusActive {
		t.Errorf("status = %s, want ACTIVE", account.Status)
	}
	if !account.Balance.IsZero() || !account.AvailableBalance.IsZero() {
		t.Errorf("new account balances = %s/%s, want 0/0", account.Balance, account.AvailableBalance)
	}

	stored, err := accountRepo.GetByID(context.Background(), account.ID)
	if err != nil {
		t.Fatalf("account not persisted: %v", err)
	}
	if stored.CustomerID != "cust-1" {
		t.Errorf("customer id = %q, want cust-1", stored.CustomerID)
	}
}

func TestCreateAccountValidation(t *testing.T) {
	tests := []struct {
		name      string
		input     usecase.CreateAccountInput
		wantError error
	}{
		{
			name:      "missing customer",
			input:     usecase.CreateAccountInput{Type: domain.AccountTypeChecking, Currency: "USD"},
			wantError: domain.ErrMissingField,
		},
		{
			name:      "external type not creatable",
			input:     usecase.CreateAccountInput{CustomerID: "cust-1", Type: domain.AccountTypeExternal, Currency: "USD"},
			wantError: domain.ErrMissingField,
		},
		{
			name:      "invalid currency",
			input:     usecase.CreateAccountInput{CustomerID: "cust-1", Type: domain.AccountTypeSavings, Currency: "ZZZ"},
			wantError: domain.ErrInvalidCurrency,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			uc := usecase.NewAccountUseCase(mocks.NewMockAccountRepository(), mocks.NewMockAuditLogger(ctrl), mocks.NewMockIDGenerator())

			if _, err := uc.CreateAccount(context.Background(), tt.input); !errors.Is(err, tt.wantError) {
				t.Errorf("CreateAccount() error = %v, want %v", err, tt.wantError)
			}
		})
	}
}

func TestUpdateStatus(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	accountRepo := mocks.NewMockAccountRepository()
	accountRepo.Seed(activeAccount("acc-1", "USD", 0))

	audit := mocks.NewMockAuditLogger(ctrl)
	audit.EXPECT().
		LogAccountEvent(gomock.Any(), "acc-1", domain.ActionAccountStatusChanged, gomock.Any(), gomock.Any()).
		Return("audit-1", nil)

	uc := usecase.NewAccountUseCase(accountRepo, audit, mocks.NewMockIDGenerator())

	account, err := uc.UpdateStatus(context.Background(), "acc-1", domain.AccountStatusFrozen, nil)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if account.Status != domain.AccountStatusFrozen {
		t.Errorf("status = %s, want FROZEN", account.Status)
	}

	stored, _ := accountRepo.GetByID(context.Background(), "acc-1")
	if stored.Status != domain.AccountStatusFrozen {
		t.Errorf("persisted status = %s, want FROZEN", stored.Status)
	}
}

func TestUpdateStatusInvalidTransition(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	closed := activeAccount("acc-1", "USD", 0)
	closed.Status = domain.AccountStatusClosed

	accountRepo := mocks.NewMockAccountRepository()
	accountRepo.Seed(closed)

	uc := usecase.NewAccountUseCase(accountRepo, mocks.NewMockAuditLogger(ctrl), mocks.NewMockIDGenerator())

	// CLOSED is terminal.
	if _, err := uc.UpdateStatus(context.Background(), "acc-1", domain.AccountStatusActive, nil); !errors.Is(err, domain.ErrAccountNotActive) {
		t.Errorf("error = %v, want ErrAccountNotActive", err)
	}

	if _, err := uc.UpdateStatus(context.Background(), "acc-missing", domain.AccountStatusFrozen, nil); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Errorf("error = %v, want ErrAccountNotFound", err)
	}
}

func TestListByCustomer(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	accountRepo := mocks.NewMockAccountRepository()
	a := activeAccount("acc-1", "USD", 0)
	a.CustomerID = "cust-1"
	b := activeAccount("acc-2", "USD", 0)
	b.CustomerID = "cust-1"
	c := activeAccount("acc-3", "USD", 0)
	c.CustomerID = "cust-2"
	accountRepo.Seed(a)
	accountRepo.Seed(b)
	accountRepo.Seed(c)

	uc := usecase.NewAccountUseCase(accountRepo, mocks.NewMockAuditLogger(ctrl), mocks.NewMockIDGenerator())

	accounts, err := uc.ListByCustomer(context.Background(), "cust-1")
	if err != nil {
		t.Fatalf("ListByCustomer: %v", err)
	}
	if len(accounts) != 2 {
		t.Errorf("got %d accounts, want 2", len(accounts))
	}

	if _, err := uc.ListByCustomer(context.Background(), ""); !errors.Is(err, domain.ErrMissingField) {
		t.Errorf("error = %v, want ErrMissingField", err)
	}
}
