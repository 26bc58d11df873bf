package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/finvault/ledger/internal/adapter/http/dto"
	"github.com/finvault/ledger/internal/domain"
)

// HoldService defines the behavior needed by HoldHandler.
type HoldService interface {
	HoldFunds(ctx context.Context, accountID string, amount decimal.Decimal, metadata map[string]any, actor *domain.Actor) (*domain.Hold, error)
	ReleaseHold(ctx context.Context, holdID string, actor *domain.Actor) (*domain.Hold, error)
	ListHoldsByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Hold, error)
}

// HoldHandler handles hold-related HTTP requests.
type HoldHandler struct {
	holdUC HoldService
}

// NewHoldHandler creates a new HoldHandler.
func NewHoldHandler(holdUC HoldService) *HoldHandler {
	return &HoldHandler{holdUC: holdUC}
}

// Create reserves funds on an account.
func (h *HoldHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateHoldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	hold, err := h.holdUC.HoldFunds(r.Context(), req.AccountID, req.Amount, req.Metadata, actorFromRequest(r))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to create hold", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.HoldFromDomain(hold))
}

// Release returns a hold's amount to the account's available balance.
func (h *HoldHandler) Release(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing hold ID", "")
		return
	}

	hold, err := h.holdUC.ReleaseHold(r.Context(), id, actorFromRequest(r))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to release hold", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.HoldFromDomain(hold))
}

// ListByAccount lists an account's holds, newest first.
func (h *HoldHandler) ListByAccount(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	limit := parseIntQuery(r, "limit", 20)
	offset := parseIntQuery(r, "offset", 0)

	holds, err := h.holdUC.ListHoldsByAccount(r.Context(), id, limit, offset)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list holds", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"holds": dto.HoldsFromDomain(holds),
		"total": len(holds),
	})
}
