package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// GenesisHash is the sentinel previous hash of the very first audit entry.
const GenesisHash = "genesis"

// Entity types recorded in the audit trail.
const (
	EntityTypeCustomer    = "customer"
	EntityTypeKYC         = "kyc"
	EntityTypeTransaction = "transaction"
	EntityTypeAccount     = "account"
)

// JSON is an opaque audit payload.
type JSON map[string]any

// Actor identifies who performed an audited action.
type Actor struct {
	UserID    string
	IPAddress string
	UserAgent string
}

// AuditEntry is one link of the hash chain. Append-only; never mutated or
// deleted. PreviousHash equals the prior entry's CurrentHash in global
// creation order, or GenesisHash for the first entry ever written.
type AuditEntry struct {
	ID           string
	EntityType   string
	EntityID     string
	Action       string
	Data         JSON
	UserID       string
	IPAddress    string
	UserAgent    string
	PreviousHash string
	CurrentHash  string
	CreatedAt    time.Time
}

// chainPayload is the canonical hash input. The serialization contract for
// third-party verification of an export:
//
//   - JSON object with fields in exactly this order, no insignificant
//     whitespace (Go's encoding/json compact output),
//   - "data" keys sorted lexicographically (encoding/json map ordering),
//   - "timestamp" is the entry's CreatedAt in UTC, RFC 3339 with nanoseconds,
//   - the digest is lowercase hex SHA-256 of the serialized bytes.
type chainPayload struct {
	EntityType   string `json:"entity_type"`
	EntityID     string `json:"entity_id"`
	Action       string `json:"action"`
	Data         JSON   `json:"data"`
	UserID       string `json:"user_id"`
	IPAddress    string `json:"ip_address"`
	UserAgent    string `json:"user_agent"`
	Timestamp    string `json:"timestamp"`
	PreviousHash string `json:"previous_hash"`
}

// ComputeHash returns the canonical SHA-256 digest of the entry. The stored
// CurrentHash of an untampered entry always equals this value.
func (e *AuditEntry) ComputeHash() string {
	payload := chainPayload{
		EntityType:   e.EntityType,
		EntityID:     e.EntityID,
		Action:       e.Action,
		Data:         e.Data,
		UserID:       e.UserID,
		IPAddress:    e.IPAddress,
		UserAgent:    e.UserAgent,
		Timestamp:    e.CreatedAt.UTC().Format(time.RFC3339Nano),
		PreviousHash: e.PreviousHash,
	}

	// Marshalling only strings and a map cannot fail.
	b, _ := json.Marshal(payload)
	sum := sha256.Sum256(b)

	return hex.EncodeToString(sum[:])
}

// AuditFilter narrows audit trail queries.
type AuditFilter struct {
	EntityType string
	EntityID   string
	Action     string
	StartDate  *time.Time
	EndDate    *time.Time
	Limit      int
	Offset     int
}
