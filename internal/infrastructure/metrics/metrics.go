package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics.
type Metrics struct {
	// Transaction metrics
	TransactionsCreated *prometheus.CounterVec
	TransactionErrors   *prometheus.CounterVec
	TransactionDuration prometheus.Histogram
	TransactionAmount   prometheus.Histogram

	// Account metrics
	AccountsCreated   prometheus.Counter
	AccountOperations *prometheus.CounterVec

	// Hold metrics
	HoldsCreated  prometheus.Counter
	HoldsReleased prometheus.Counter

	// Audit metrics
	AuditEntriesAppended prometheus.Counter
	AuditAppendConflicts prometheus.Counter
	AuditBacklog         prometheus.Gauge
	AuditEscalations     prometheus.Counter
	ChainVerifications   *prometheus.CounterVec

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Datastore metrics
	DBQueries *prometheus.CounterVec
	DBErrors  *prometheus.CounterVec
	CacheOps  *prometheus.CounterVec
}

// New creates and registers all metrics on the default registerer.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith creates and registers all metrics on reg. Tests pass a fresh
// registry to avoid duplicate registration.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		TransactionsCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finvault_transactions_created_total",
				Help: "Total number of transactions created",
			},
			[]string{"type"},
		),
		TransactionErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finvault_transaction_errors_total",
				Help: "Total number of transaction errors by type",
			},
			[]string{"error_type"},
		),
		TransactionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "finvault_transaction_duration_seconds",
			Help:    "Duration of transaction commits",
			Buckets: prometheus.DefBuckets,
		}),
		TransactionAmount: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "finvault_transaction_amount",
			Help:    "Transaction amounts",
			Buckets: []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
		}),

		AccountsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "finvault_accounts_created_total",
			Help: "Total number of accounts created",
		}),
		AccountOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finvault_account_operations_total",
				Help: "Total account operations by type",
			},
			[]string{"operation"},
		),

		HoldsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "finvault_holds_created_total",
			Help: "Total number of holds created",
		}),
		HoldsReleased: factory.NewCounter(prometheus.CounterOpts{
			Name: "finvault_holds_released_total",
			Help: "Total number of holds released",
		}),

		AuditEntriesAppended: factory.NewCounter(prometheus.CounterOpts{
			Name: "finvault_audit_entries_appended_total",
			Help: "Total number of audit entries appended to the chain",
		}),
		AuditAppendConflicts: factory.NewCounter(prometheus.CounterOpts{
			Name: "finvault_audit_append_conflicts_total",
			Help: "Total number of audit chain tail conflicts",
		}),
		AuditBacklog: factory.NewGauge(prometheus.GaugeOpts{
			Name: "finvault_audit_backlog",
			Help: "Number of committed transactions awaiting audit confirmation",
		}),
		AuditEscalations: factory.NewCounter(prometheus.CounterOpts{
			Name: "finvault_audit_escalations_total",
			Help: "Total number of audit emissions escalated to an operator alert",
		}),
		ChainVerifications: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finvault_chain_verifications_total",
				Help: "Total audit chain verifications by result",
			},
			[]string{"result"},
		),

		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finvault_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "finvault_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		DBQueries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finvault_db_queries_total",
				Help: "Total database queries",
			},
			[]string{"operation", "table"},
		),
		DBErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finvault_db_errors_total",
				Help: "Total database errors",
			},
			[]string{"operation"},
		),
		CacheOps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finvault_cache_operations_total",
				Help: "Total cache operations",
			},
			[]string{"operation", "result"},
		),
	}
}
