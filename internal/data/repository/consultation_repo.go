package repository

import (
	"context"
	"fmt"
	"strings"

	"opd-queue/internal/data/entity"
	"opd-queue/pkg/database"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ConsultationRepository interface {
	// Complete writes the finalized token and its history record in one transaction.
	Complete(ctx context.Context, token *entity.Token, consultation *entity.Consultation) error
	FindByPatientID(ctx context.Context, patientID uuid.UUID, filter entity.ConsultationFilter) ([]*entity.ConsultationDetail, error)
	FindByDoctorID(ctx context.Context, doctorID uuid.UUID, filter entity.ConsultationFilter) ([]*entity.ConsultationDetail, error)
	CountByDoctorID(ctx context.Context, doctorID uuid.UUID, filter entity.ConsultationFilter) (int64, error)
}

type consultationRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewConsultationRepository(db database.PgxIface, log *zap.Logger) ConsultationRepository {
	return &consultationRepository{
		db:  db,
		log: log.With(zap.String("repository", "consultation")),
	}
}

func (r *consultationRepository) Complete(ctx context.Context, token *entity.Token, consultation *entity.Consultation) error {
	return database.InTx(ctx, r.db, func(q database.Querier) error {
		if err := updateToken(ctx, q, r.log, token); err != nil {
			return err
		}

		query := `
			INSERT INTO consultations (id, patient_id, doctor_id, token_id, department, visit_reason,
			                           problem_category, diagnosis, doctor_notes, consultation_start_time,
			                           consultation_end_time, consultation_duration, otp_verified, date,
			                           created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		`

		_, err := q.Exec(ctx, query,
			consultation.ID,
			consultation.PatientID,
			consultation.DoctorID,
			consultation.TokenID,
			consultation.Department,
			consultation.VisitReason,
			consultation.ProblemCategory,
			consultation.Diagnosis,
			consultation.DoctorNotes,
			consultation.StartTime,
			consultation.EndTime,
			consultation.Duration,
			consultation.OTPVerified,
			consultation.Date,
			consultation.CreatedAt,
			consultation.UpdatedAt,
		)
		if err != nil {
			r.log.Error("Failed to insert consultation",
				zap.Error(err),
				zap.String("token_id", consultation.TokenID.String()),
			)
			return fmt.Errorf("insert consultation for token %s: %w", consultation.TokenID.String(), err)
		}

		return nil
	})
}

// appendFilter adds the date range and category predicates starting at placeholder argCount.
func appendFilter(qb *strings.Builder, args []any, argCount int, filter entity.ConsultationFilter) ([]any, int) {
	if filter.StartDate != nil {
		qb.WriteString(fmt.Sprintf(" AND c.date >= $%d", argCount))
		args = append(args, *filter.StartDate)
		argCount++
	}
	if filter.EndDate != nil {
		qb.WriteString(fmt.Sprintf(" AND c.date <= $%d", argCount))
		args = append(args, *filter.EndDate)
		argCount++
	}
	if filter.ProblemCategory != "" {
		qb.WriteString(fmt.Sprintf(" AND c.problem_category = $%d", argCount))
		args = append(args, filter.ProblemCategory)
		argCount++
	}
	return args, argCount
}

const consultationSelect = `
		SELECT c.id, c.patient_id, c.doctor_id, c.token_id, c.department, c.visit_reason,
		       c.problem_category, c.diagnosis, c.doctor_notes, c.consultation_start_time,
		       c.consultation_end_time, c.consultation_duration, c.otp_verified, c.date,
		       c.created_at, c.updated_at, d.name, u.name, u.email
		FROM consultations c
		JOIN doctors d ON d.id = c.doctor_id
		LEFT JOIN users u ON u.id = c.patient_id
`

func (r *consultationRepository) FindByPatientID(ctx context.Context, patientID uuid.UUID, filter entity.ConsultationFilter) ([]*entity.ConsultationDetail, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(consultationSelect)
	queryBuilder.WriteString(" WHERE c.patient_id = $1")

	args, _ := appendFilter(&queryBuilder, []any{patientID}, 2, filter)
	queryBuilder.WriteString(" ORDER BY c.date DESC")

	return r.list(ctx, queryBuilder.String(), args...)
}

func (r *consultationRepository) FindByDoctorID(ctx context.Context, doctorID uuid.UUID, filter entity.ConsultationFilter) ([]*entity.ConsultationDetail, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(consultationSelect)
	queryBuilder.WriteString(" WHERE c.doctor_id = $1")

	args, argCount := appendFilter(&queryBuilder, []any{doctorID}, 2, filter)
	queryBuilder.WriteString(" ORDER BY c.date DESC")
	if filter.Limit > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
		args = append(args, filter.Limit, filter.Offset)
	}

	return r.list(ctx, queryBuilder.String(), args...)
}

func (r *consultationRepository) CountByDoctorID(ctx context.Context, doctorID uuid.UUID, filter entity.ConsultationFilter) (int64, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT COUNT(*) FROM consultations c WHERE c.doctor_id = $1`)
	args, _ := appendFilter(&queryBuilder, []any{doctorID}, 2, filter)

	var total int64
	if err := r.db.QueryRow(ctx, queryBuilder.String(), args...).Scan(&total); err != nil {
		r.log.Error("Failed to count consultations",
			zap.Error(err),
			zap.String("doctor_id", doctorID.String()),
		)
		return 0, fmt.Errorf("count consultations for doctor %s: %w", doctorID.String(), err)
	}

	return total, nil
}

func (r *consultationRepository) list(ctx context.Context, query string, args ...any) ([]*entity.ConsultationDetail, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to list consultations", zap.Error(err))
		return nil, fmt.Errorf("list consultations: %w", err)
	}
	defer rows.Close()

	var history []*entity.ConsultationDetail
	for rows.Next() {
		var c entity.ConsultationDetail
		err := rows.Scan(
			&c.ID,
			&c.PatientID,
			&c.DoctorID,
			&c.TokenID,
			&c.Department,
			&c.VisitReason,
			&c.ProblemCategory,
			&c.Diagnosis,
			&c.DoctorNotes,
			&c.StartTime,
			&c.EndTime,
			&c.Duration,
			&c.OTPVerified,
			&c.Date,
			&c.CreatedAt,
			&c.UpdatedAt,
			&c.DoctorName,
			&c.PatientName,
			&c.PatientEmail,
		)
		if err != nil {
			r.log.Error("Failed to scan consultation row", zap.Error(err))
			return nil, fmt.Errorf("scan consultation row: %w", err)
		}
		history = append(history, &c)
	}

	return history, rows.Err()
}
