package usecase

import "time"

const (
	// DefaultTransactionTimeout bounds a database transaction so a stuck
	// commit cannot hold account locks indefinitely.
	DefaultTransactionTimeout = 10 * time.Second

	// DefaultAuditAppendRetries bounds compare-and-swap retries on the audit
	// chain tail before surfacing ErrSystemBusy.
	DefaultAuditAppendRetries = 5

	// BalanceCacheTTL is how long a cached balance read stays valid.
	BalanceCacheTTL = 5 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached.
	IdempotencyKeyTTL = 24 * time.Hour
)
