package domain

import "errors"

var (
	// Validation errors. Rejected before any mutation; safe to retry once corrected.
	ErrInvalidAmount   = errors.New("amount must be positive")
	ErrInvalidCurrency = errors.New("invalid currency code")
	ErrMissingField    = errors.New("missing required field")

	// Not-found errors.
	ErrAccountNotFound     = errors.New("account not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrHoldNotFound        = errors.New("hold not found")

	// Business-rule rejections. Terminal; no partial mutation occurs.
	ErrAccountNotActive  = errors.New("account is not active")
	ErrInsufficientFunds = errors.New("insufficient available funds")
	ErrCurrencyMismatch  = errors.New("currency does not match account currency")
	ErrSameAccount       = errors.New("cannot transfer to same account")
	ErrHoldNotActive     = errors.New("hold is not active")

	// Concurrency errors. ErrAuditConflict is retried internally with bounded
	// backoff; exhausted retries surface as ErrSystemBusy.
	ErrAuditConflict = errors.New("audit chain tail moved")
	ErrSystemBusy    = errors.New("system busy, retry later")

	// ErrChainIntegrity is raised when verification finds a broken link.
	// Never auto-repaired; halts trust in any export.
	ErrChainIntegrity = errors.New("audit chain integrity violation")
)
