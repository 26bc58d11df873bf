package domain

import "time"

// Audit actions emitted by the core and its collaborators.
const (
	ActionTransactionCreated   = "transaction.created"
	ActionAccountCreated       = "account.created"
	ActionAccountStatusChanged = "account.status_changed"
	ActionHoldCreated          = "hold.created"
	ActionHoldReleased         = "hold.released"
	ActionCustomerCreated      = "customer.created"
	ActionKYCCheckSubmitted    = "kyc.check_submitted"
	ActionKYCCheckCompleted    = "kyc.check_completed"
)

// AuditEmission is a pending audit event written in the same database
// transaction as the ledger mutation it describes, then appended to the hash
// chain asynchronously by the audit relay. Rows that stay unpublished past
// the escalation threshold raise an operator alert, since a missing link
// breaks the chain for everything appended after it.
type AuditEmission struct {
	ID          string
	EntityType  string
	EntityID    string
	Action      string
	Data        JSON
	UserID      string
	IPAddress   string
	UserAgent   string
	Attempts    int
	LastError   string
	Published   bool
	PublishedAt *time.Time
	CreatedAt   time.Time
}
