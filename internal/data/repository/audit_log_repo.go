package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"opd-queue/internal/data/entity"
	"opd-queue/pkg/database"

	"go.uber.org/zap"
)

type AuditLogRepository interface {
	Create(ctx context.Context, entry *entity.AuditLog) error
}

type auditLogRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewAuditLogRepository(db database.PgxIface, log *zap.Logger) AuditLogRepository {
	return &auditLogRepository{
		db:  db,
		log: log.With(zap.String("repository", "audit_log")),
	}
}

func (r *auditLogRepository) Create(ctx context.Context, entry *entity.AuditLog) error {
	details, err := json.Marshal(entry.Details)
	if err != nil {
		return fmt.Errorf("encode audit details: %w", err)
	}

	query := `
		INSERT INTO audit_logs (id, action, performed_by, details, ip_address, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err = r.db.Exec(ctx, query,
		entry.ID,
		entry.Action,
		entry.PerformedBy,
		details,
		entry.IPAddress,
		entry.CreatedAt,
	)
	if err != nil {
		r.log.Error("Failed to create audit log",
			zap.Error(err),
			zap.String("action", entry.Action),
		)
		return fmt.Errorf("create audit log %s: %w", entry.Action, err)
	}

	return nil
}
