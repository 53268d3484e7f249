package entity

import "github.com/google/uuid"

type NotificationSeverity string

const (
	SeverityInfo    NotificationSeverity = "INFO"
	SeveritySuccess NotificationSeverity = "SUCCESS"
	SeverityWarning NotificationSeverity = "WARNING"
	SeverityAlert   NotificationSeverity = "ALERT"
)

type Notification struct {
	Entry
	UserID   uuid.UUID            `db:"user_id"`
	Message  string               `db:"message"`
	Severity NotificationSeverity `db:"severity"`
	Read     bool                 `db:"read"`
}
