package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/finvault/ledger/internal/adapter/http/dto"
	"github.com/finvault/ledger/internal/usecase"
)

// StatementService defines the behavior needed by StatementHandler.
type StatementService interface {
	GetAccountStatement(ctx context.Context, accountID string, start, end time.Time) (*usecase.AccountStatement, error)
}

// StatementHandler handles statement HTTP requests.
type StatementHandler struct {
	statementUC StatementService
}

// NewStatementHandler creates a new StatementHandler.
func NewStatementHandler(statementUC StatementService) *StatementHandler {
	return &StatementHandler{statementUC: statementUC}
}

// Get reconstructs an account statement for a period. The period defaults to
// the last 30 days.
func (h *StatementHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	now := time.Now().UTC()
	start := parseTimeQuery(r, "start", now.AddDate(0, 0, -30))
	end := parseTimeQuery(r, "end", now)

	statement, err := h.statementUC.GetAccountStatement(r.Context(), id, start, end)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to build statement", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"account_id":      statement.AccountID,
		"currency":        statement.Currency,
		"period_start":    statement.PeriodStart,
		"period_end":      statement.PeriodEnd,
		"opening_balance": statement.OpeningBalance,
		"closing_balance": statement.ClosingBalance,
		"transactions":    dto.TransactionsFromDomain(statement.Transactions),
		"entries":         dto.EntriesFromDomain(statement.Entries),
	})
}
