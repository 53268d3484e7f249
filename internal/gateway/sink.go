package gateway

import (
	"context"
	"time"

	"opd-queue/internal/data/entity"
	"opd-queue/internal/data/repository"
	"opd-queue/pkg/utils"

	"github.com/google/uuid"
)

// NotificationSink stores in-app notifications.
type NotificationSink struct {
	repo repository.NotificationRepository
	now  func() time.Time
}

func NewNotificationSink(repo repository.NotificationRepository) *NotificationSink {
	return &NotificationSink{repo: repo, now: time.Now}
}

func (n *NotificationSink) Notify(ctx context.Context, userID uuid.UUID, message string, severity entity.NotificationSeverity) error {
	return n.repo.Create(ctx, &entity.Notification{
		Entry:    entity.NewEntry(n.now()),
		UserID:   userID,
		Message:  message,
		Severity: severity,
	})
}

// AuditSink appends audit log entries. The request IP is taken from ctx when present.
type AuditSink struct {
	repo repository.AuditLogRepository
	now  func() time.Time
}

func NewAuditSink(repo repository.AuditLogRepository) *AuditSink {
	return &AuditSink{repo: repo, now: time.Now}
}

func (a *AuditSink) Record(ctx context.Context, action string, performedBy uuid.UUID, details map[string]any) error {
	entry := &entity.AuditLog{
		Entry:       entity.NewEntry(a.now()),
		Action:      action,
		PerformedBy: performedBy,
		Details:     details,
	}
	if ip, ok := utils.GetClientIPFromContext(ctx); ok {
		entry.IPAddress = &ip
	}
	return a.repo.Create(ctx, entry)
}
