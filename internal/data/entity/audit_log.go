package entity

import "github.com/google/uuid"

const (
	AuditBookToken            = "BOOK_TOKEN"
	AuditTokenStatusChange    = "TOKEN_STATUS_CHANGE"
	AuditMarkNoShow           = "MARK_NO_SHOW"
	AuditCompleteConsultation = "COMPLETE_CONSULTATION"
)

// AuditLog is append-only.
type AuditLog struct {
	Entry
	Action      string         `db:"action"`
	PerformedBy uuid.UUID      `db:"performed_by"`
	Details     map[string]any `db:"details"`
	IPAddress   *string        `db:"ip_address"`
}
