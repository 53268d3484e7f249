package usecase

import (
	"context"

	"opd-queue/internal/data/entity"

	"github.com/google/uuid"
)

// Real-time event names.
const (
	EventQueueUpdate     = "queueUpdate"
	EventConsultationOTP = "consultationOtp"
)

// Queue update type tags.
const (
	QueueUpdateNewToken     = "NEW_TOKEN"
	QueueUpdateStatusUpdate = "STATUS_UPDATE"
)

// Notifier stores an in-app notification for a user.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, message string, severity entity.NotificationSeverity) error
}

// Broadcaster pushes an event to a room keyed by doctor id or user id.
type Broadcaster interface {
	Publish(ctx context.Context, room, event string, payload any) error
}

// SMSDispatcher delivers a text message to a phone number.
type SMSDispatcher interface {
	Send(ctx context.Context, phone, text string) error
}

// AuditRecorder appends to the audit trail.
type AuditRecorder interface {
	Record(ctx context.Context, action string, performedBy uuid.UUID, details map[string]any) error
}

// Gateways groups the outbound collaborators shared by the services.
type Gateways struct {
	Notifier    Notifier
	Broadcaster Broadcaster
	SMS         SMSDispatcher
	Audit       AuditRecorder
}
