package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/finvault/ledger/internal/adapter/http/handler"
	"github.com/finvault/ledger/internal/adapter/http/middleware"
	"github.com/finvault/ledger/internal/infrastructure/metrics"
	"github.com/finvault/ledger/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	AccountHandler     *handler.AccountHandler
	TransactionHandler *handler.TransactionHandler
	StatementHandler   *handler.StatementHandler
	AuditHandler       *handler.AuditHandler
	HoldHandler        *handler.HoldHandler
	LedgerHandler      *handler.LedgerHandler
	HealthHandler      *handler.HealthHandler
	IdempotencyStore   usecase.IdempotencyStore
	Metrics            *metrics.Metrics
	Logger             zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery)
	if cfg.Metrics != nil {
		r.Use(middleware.NewMetricsMiddleware(cfg.Metrics).Wrap)
	}

	// Health and operational endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore)
			r.Use(idempotencyMiddleware.Wrap)
		}

		// Accounts
		r.Route("/accounts", func(r chi.Router) {
			r.Post("/", cfg.AccountHandler.Create)
			r.Get("/", cfg.AccountHandler.List)
			r.Get("/{id}", cfg.AccountHandler.Get)
			r.Put("/{id}/status", cfg.AccountHandler.UpdateStatus)
			r.Get("/{id}/balance", cfg.TransactionHandler.GetBalance)
			r.Get("/{id}/history", cfg.TransactionHandler.History)
			r.Get("/{id}/statement", cfg.StatementHandler.Get)
			r.Get("/{id}/holds", cfg.HoldHandler.ListByAccount)
			r.Get("/{id}/replay", cfg.LedgerHandler.Replay)
		})

		// Transactions
		r.Route("/transactions", func(r chi.Router) {
			r.Post("/", cfg.TransactionHandler.Create)
			r.Get("/{id}", cfg.TransactionHandler.Get)
		})

		// Holds
		r.Route("/holds", func(r chi.Router) {
			r.Post("/", cfg.HoldHandler.Create)
			r.Post("/{id}/release", cfg.HoldHandler.Release)
		})

		// Audit trail
		r.Route("/audit", func(r chi.Router) {
			r.Get("/verify", cfg.AuditHandler.Verify)
			r.Get("/summary", cfg.AuditHandler.Summary)
			r.Get("/export", cfg.AuditHandler.Export)
			r.Get("/entity/{entityType}/{entityID}", cfg.AuditHandler.EntityHistory)
			r.Get("/customer/{customerID}", cfg.AuditHandler.CustomerHistory)
		})

		// Ledger-wide reconciliation
		r.Route("/ledger", func(r chi.Router) {
			r.Get("/consistency", cfg.LedgerHandler.Consistency)
			r.Get("/report", cfg.LedgerHandler.Report)
		})
	})

	return r
}
