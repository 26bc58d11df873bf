package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type HoldStatus string

const (
	HoldStatusActive   HoldStatus = "ACTIVE"
	HoldStatusReleased HoldStatus = "RELEASED"
)

// Hold reserves part of an account's available balance without moving the
// booked balance. Active holds are what make AvailableBalance differ from
// Balance.
type Hold struct {
	ID        string
	AccountID string
	Amount    decimal.Decimal
	Status    HoldStatus
	Metadata  map[string]any
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks if hold is valid.
func (h *Hold) Validate() error {
	if h.AccountID == "" {
		return ErrMissingField
	}
	if h.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	return nil
}
