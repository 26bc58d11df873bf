package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/finvault/ledger/internal/adapter/http/dto"
	"github.com/finvault/ledger/internal/domain"
	"github.com/finvault/ledger/internal/usecase"
)

// AuditService defines the behavior needed by AuditHandler.
type AuditService interface {
	VerifyChain(ctx context.Context) (*usecase.ChainVerification, error)
	GetEntityHistory(ctx context.Context, entityType, entityID string) ([]*domain.AuditEntry, error)
	GetCustomerHistory(ctx context.Context, customerID string) ([]*domain.AuditEntry, error)
	GetAuditSummary(ctx context.Context, start, end time.Time) (*usecase.AuditSummary, error)
	ExportAuditTrail(ctx context.Context, start, end time.Time) (*usecase.AuditExport, error)
}

// AuditHandler handles audit trail HTTP requests.
type AuditHandler struct {
	auditUC AuditService
}

// NewAuditHandler creates a new AuditHandler.
func NewAuditHandler(auditUC AuditService) *AuditHandler {
	return &AuditHandler{auditUC: auditUC}
}

// Verify runs a full chain verification.
func (h *AuditHandler) Verify(w http.ResponseWriter, r *http.Request) {
	result, err := h.auditUC.VerifyChain(r.Context())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to verify audit chain", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// EntityHistory lists the audit trail of one entity.
func (h *AuditHandler) EntityHistory(w http.ResponseWriter, r *http.Request) {
	entityType := chi.URLParam(r, "entityType")
	entityID := chi.URLParam(r, "entityID")

	entries, err := h.auditUC.GetEntityHistory(r.Context(), entityType, entityID)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get entity history", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"entries": dto.AuditEntriesFromDomain(entries),
		"total":   len(entries),
	})
}

// CustomerHistory lists every audit entry attributable to a customer.
func (h *AuditHandler) CustomerHistory(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customerID")

	entries, err := h.auditUC.GetCustomerHistory(r.Context(), customerID)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get customer history", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"entries": dto.AuditEntriesFromDomain(entries),
		"total":   len(entries),
	})
}

// Summary aggregates the audit trail over a period. The period defaults to
// the last 30 days.
func (h *AuditHandler) Summary(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	start := parseTimeQuery(r, "start", now.AddDate(0, 0, -30))
	end := parseTimeQuery(r, "end", now)

	summary, err := h.auditUC.GetAuditSummary(r.Context(), start, end)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to build audit summary", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// Export serializes the audit trail for a period with an integrity
// attestation. The period defaults to everything.
func (h *AuditHandler) Export(w http.ResponseWriter, r *http.Request) {
	start := parseTimeQuery(r, "start", time.Time{})
	end := parseTimeQuery(r, "end", time.Now().UTC())

	export, err := h.auditUC.ExportAuditTrail(r.Context(), start, end)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to export audit trail", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, export)
}
