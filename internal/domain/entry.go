package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryType marks the direction of a ledger entry.
type EntryType string

const (
	EntryTypeDebit  EntryType = "DEBIT"
	EntryTypeCredit EntryType = "CREDIT"
)

// LedgerEntry is an immutable record of one signed balance change tied to one
// account and one transaction. Amount is negative for debits and positive for
// credits; the entries of a transaction always sum to zero. Balance is the
// account balance immediately after applying this entry.
type LedgerEntry struct {
	ID            string
	AccountID     string
	TransactionID string
	Amount        decimal.Decimal
	Currency      string
	Type          EntryType
	Balance       decimal.Decimal
	CreatedAt     time.Time
}
