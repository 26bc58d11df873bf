package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/finvault/ledger/internal/adapter/http/dto"
	"github.com/finvault/ledger/internal/domain"
	"github.com/finvault/ledger/internal/usecase"
)

type accountServiceStub struct {
	createFunc         func(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error)
	getFunc            func(ctx context.Context, id string) (*domain.Account, error)
	updateStatusFunc   func(ctx context.Context, id string, status domain.AccountStatus, actor *domain.Actor) (*domain.Account, error)
	listFunc           func(ctx context.Context, limit, offset int) ([]*domain.Account, error)
	listByCustomerFunc func(ctx context.Context, customerID string) ([]*domain.Account, error)
}

func (s *accountServiceStub) CreateAccount(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error) {
	return s.createFunc(ctx, input)
}

func (s *accountServiceStub) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	return s.getFunc(ctx, id)
}

func (s *accountServiceStub) UpdateStatus(ctx context.Context, id string, status domain.AccountStatus, actor *domain.Actor) (*domain.Account, error) {
	return s.updateStatusFunc(ctx, id, status, actor)
}

func (s *accountServiceStub) ListAccounts(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	return s.listFunc(ctx, limit, offset)
}

func (s *accountServiceStub) ListByCustomer(ctx context.Context, customerID string) ([]*domain.Account, error) {
	return s.listByCustomerFunc(ctx, customerID)
}

func accountRouter(stub *accountServiceStub) http.Handler {
	h := NewAccountHandler(stub)
	r := chi.NewRouter()
	r.Post("/accounts", h.Create)
	r.Get("/accounts", h.List)
	r.Get("/accounts/{id}", h.Get)
	r.Put("/accounts/{id}/status", h.UpdateStatus)
	return r
}

func testAccount(id string) *domain.Account {
	return &domain.Account{
		ID:               id,
		CustomerID:       "cust-1",
		Type:             domain.AccountTypeChecking,
		Currency:         "USD",
		Balance:          decimal.NewFromInt(100),
		AvailableBalance: decimal.NewFromInt(100),
		Status:           domain.AccountStatusActive,
	}
}

func TestAccountCreate(t *testing.T) {
	stub := &accountServiceStub{
		createFunc: func(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error) {
			if input.CustomerID != "cust-1" || input.Type != domain.AccountTypeChecking {
				t.Errorf("input = %+v", input)
			}
			return testAccount("acc-1"), nil
		},
	}

	body := `{"customer_id":"cust-1","type":"CHECKING","currency":"USD"}`
	req := httptest.NewRequest(http.MethodPost, "/accounts", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()

	accountRouter(stub).ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body %s", rec.Code, rec.Body.String())
	}

	var resp dto.AccountResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if resp.ID != "acc-1" || resp.Status != "ACTIVE" {
		t.Errorf("response = %+v", resp)
	}
}

func TestAccountCreateValidationError(t *testing.T) {
	stub := &accountServiceStub{
		createFunc: func(context.Context, usecase.CreateAccountInput) (*domain.Account, error) {
			return nil, domain.ErrInvalidCurrency
		},
	}

	body := `{"customer_id":"cust-1","type":"CHECKING","currency":"ZZZ"}`
	req := httptest.NewRequest(http.MethodPost, "/accounts", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()

	accountRouter(stub).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestAccountGet(t *testing.T) {
	stub := &accountServiceStub{
		getFunc: func(ctx context.Context, id string) (*domain.Account, error) {
			if id != "acc-1" {
				return nil, domain.ErrAccountNotFound
			}
			return testAccount(id), nil
		},
	}

	router := accountRouter(stub)

	req := httptest.NewRequest(http.MethodGet, "/accounts/acc-1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/accounts/acc-missing", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestAccountUpdateStatus(t *testing.T) {
	stub := &accountServiceStub{
		updateStatusFunc: func(ctx context.Context, id string, status domain.AccountStatus, actor *domain.Actor) (*domain.Account, error) {
			if status != domain.AccountStatusFrozen {
				t.Errorf("status = %s, want FROZEN", status)
			}
			acc := testAccount(id)
			acc.Status = status
			return acc, nil
		},
	}

	body := `{"status":"FROZEN"}`
	req := httptest.NewRequest(http.MethodPut, "/accounts/acc-1/status", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()

	accountRouter(stub).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestAccountUpdateStatusRejected(t *testing.T) {
	stub := &accountServiceStub{
		updateStatusFunc: func(context.Context, string, domain.AccountStatus, *domain.Actor) (*domain.Account, error) {
			return nil, domain.ErrAccountNotActive
		},
	}

	req := httptest.NewRequest(http.MethodPut, "/accounts/acc-1/status", bytes.NewBufferString(`{"status":"ACTIVE"}`))
	rec := httptest.NewRecorder()

	accountRouter(stub).ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

func TestAccountList(t *testing.T) {
	stub := &accountServiceStub{
		listFunc: func(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
			return []*domain.Account{testAccount("acc-1"), testAccount("acc-2")}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/accounts", nil)
	rec := httptest.NewRecorder()

	accountRouter(stub).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp dto.ListAccountsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if resp.Total != 2 || len(resp.Accounts) != 2 {
		t.Errorf("response = %+v", resp)
	}
}

func TestAccountListByCustomer(t *testing.T) {
	stub := &accountServiceStub{
		listFunc: func(context.Context, int, int) ([]*domain.Account, error) {
			t.Error("unfiltered list called when customer_id is present")
			return nil, nil
		},
		listByCustomerFunc: func(ctx context.Context, customerID string) ([]*domain.Account, error) {
			if customerID != "cust-1" {
				t.Errorf("customer id = %q, want cust-1", customerID)
			}
			return []*domain.Account{testAccount("acc-1")}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/accounts?customer_id=cust-1", nil)
	rec := httptest.NewRecorder()

	accountRouter(stub).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp dto.ListAccountsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if resp.Total != 1 {
		t.Errorf("total = %d, want 1", resp.Total)
	}
}
