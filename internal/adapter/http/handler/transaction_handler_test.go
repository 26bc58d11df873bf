package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/finvault/ledger/internal/domain"
	"github.com/finvault/ledger/internal/usecase"
)

type ledgerServiceStub struct {
	createFunc  func(ctx context.Context, input usecase.CreateTransactionInput) (*domain.Transaction, error)
	getFunc     func(ctx context.Context, id string) (*domain.Transaction, error)
	balanceFunc func(ctx context.Context, accountID string) (*usecase.BalanceInfo, error)
	historyFunc func(ctx context.Context, accountID string, limit, offset int) (*usecase.AccountHistory, error)
}

func (s *ledgerServiceStub) CreateTransaction(ctx context.Context, input usecase.CreateTransactionInput) (*domain.Transaction, error) {
	return s.createFunc(ctx, input)
}

func (s *ledgerServiceStub) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	return s.getFunc(ctx, id)
}

func (s *ledgerServiceStub) GetBalance(ctx context.Context, accountID string) (*usecase.BalanceInfo, error) {
	return s.balanceFunc(ctx, accountID)
}

func (s *ledgerServiceStub) GetAccountHistory(ctx context.Context, accountID string, limit, offset int) (*usecase.AccountHistory, error) {
	return s.historyFunc(ctx, accountID, limit, offset)
}

func transactionRouter(stub *ledgerServiceStub) http.Handler {
	h := NewTransactionHandler(stub)
	r := chi.NewRouter()
	r.Post("/transactions", h.Create)
	r.Get("/transactions/{id}", h.Get)
	r.Get("/accounts/{id}/balance", h.GetBalance)
	r.Get("/accounts/{id}/history", h.History)
	return r
}

func TestTransactionCreate(t *testing.T) {
	stub := &ledgerServiceStub{
		createFunc: func(ctx context.Context, input usecase.CreateTransactionInput) (*domain.Transaction, error) {
			if input.Actor == nil || input.Actor.UserID != "user-1" {
				t.Error("actor not propagated from request headers")
			}
			return &domain.Transaction{
				ID:            "txn-1",
				FromAccountID: input.FromAccountID,
				ToAccountID:   input.ToAccountID,
				Amount:        input.Amount,
				Currency:      input.Currency,
				Type:          input.Type,
			}, nil
		},
	}

	body := `{"from_account_id":"acc-1","to_account_id":"acc-2","amount":"25.50","currency":"USD","type":"TRANSFER"}`
	req := httptest.NewRequest(http.MethodPost, "/transactions", bytes.NewBufferString(body))
	req.Header.Set("X-User-ID", "user-1")
	rec := httptest.NewRecorder()

	transactionRouter(stub).ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body %s", rec.Code, rec.Body.String())
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if resp["id"] != "txn-1" || resp["type"] != "TRANSFER" {
		t.Errorf("response = %v", resp)
	}
}

func TestTransactionCreateInvalidBody(t *testing.T) {
	stub := &ledgerServiceStub{
		createFunc: func(context.Context, usecase.CreateTransactionInput) (*domain.Transaction, error) {
			t.Error("use case called for malformed body")
			return nil, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/transactions", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()

	transactionRouter(stub).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestTransactionCreateErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"insufficient funds", domain.ErrInsufficientFunds, http.StatusUnprocessableEntity},
		{"invalid amount", domain.ErrInvalidAmount, http.StatusBadRequest},
		{"invalid currency", domain.ErrInvalidCurrency, http.StatusBadRequest},
		{"same account", domain.ErrSameAccount, http.StatusBadRequest},
		{"account not found", domain.ErrAccountNotFound, http.StatusNotFound},
		{"account frozen", domain.ErrAccountNotActive, http.StatusConflict},
		{"currency mismatch", domain.ErrCurrencyMismatch, http.StatusConflict},
		{"system busy", domain.ErrSystemBusy, http.StatusServiceUnavailable},
		{"wrapped error", fmt.Errorf("context: %w", domain.ErrInsufficientFunds), http.StatusUnprocessableEntity},
		{"unknown error", fmt.Errorf("disk on fire"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &ledgerServiceStub{
				createFunc: func(context.Context, usecase.CreateTransactionInput) (*domain.Transaction, error) {
					return nil, tt.err
				},
			}

			body := `{"from_account_id":"acc-1","amount":"10","currency":"USD","type":"DEPOSIT"}`
			req := httptest.NewRequest(http.MethodPost, "/transactions", bytes.NewBufferString(body))
			rec := httptest.NewRecorder()

			transactionRouter(stub).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestTransactionGet(t *testing.T) {
	stub := &ledgerServiceStub{
		getFunc: func(ctx context.Context, id string) (*domain.Transaction, error) {
			if id != "txn-1" {
				return nil, domain.ErrTransactionNotFound
			}
			return &domain.Transaction{ID: "txn-1", Amount: decimal.NewFromInt(10), Type: domain.TransactionTypeDeposit}, nil
		},
	}

	router := transactionRouter(stub)

	req := httptest.NewRequest(http.MethodGet, "/transactions/txn-1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/transactions/txn-missing", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestTransactionGetBalance(t *testing.T) {
	stub := &ledgerServiceStub{
		balanceFunc: func(ctx context.Context, accountID string) (*usecase.BalanceInfo, error) {
			return &usecase.BalanceInfo{
				AccountID:        accountID,
				Balance:          decimal.NewFromInt(100),
				AvailableBalance: decimal.NewFromInt(70),
				Currency:         "USD",
				Status:           domain.AccountStatusActive,
			}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/accounts/acc-1/balance", nil)
	rec := httptest.NewRecorder()

	transactionRouter(stub).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var info usecase.BalanceInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if info.AccountID != "acc-1" || !info.AvailableBalance.Equal(decimal.NewFromInt(70)) {
		t.Errorf("balance info = %+v", info)
	}
}

func TestTransactionHistoryPagination(t *testing.T) {
	var gotLimit, gotOffset int

	stub := &ledgerServiceStub{
		historyFunc: func(ctx context.Context, accountID string, limit, offset int) (*usecase.AccountHistory, error) {
			gotLimit, gotOffset = limit, offset
			return &usecase.AccountHistory{}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/accounts/acc-1/history?limit=5&offset=15", nil)
	rec := httptest.NewRecorder()

	transactionRouter(stub).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotLimit != 5 || gotOffset != 15 {
		t.Errorf("pagination = (%d, %d), want (5, 15)", gotLimit, gotOffset)
	}
}
