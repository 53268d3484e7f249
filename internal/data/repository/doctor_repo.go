package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"opd-queue/internal/data/entity"
	"opd-queue/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type DoctorRepository interface {
	Create(ctx context.Context, doctor *entity.Doctor) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Doctor, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) (*entity.Doctor, error)
	FindAllActive(ctx context.Context) ([]*entity.Doctor, error)
	// FindActiveByDepartment lists active doctors of a department except excludeID, oldest first.
	FindActiveByDepartment(ctx context.Context, department string, excludeID uuid.UUID) ([]*entity.Doctor, error)
	Update(ctx context.Context, doctor *entity.Doctor) error
	// UpdateStats persists the moving average and consultation history only.
	UpdateStats(ctx context.Context, doctor *entity.Doctor) error
}

type doctorRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewDoctorRepository(db database.PgxIface, log *zap.Logger) DoctorRepository {
	return &doctorRepository{
		db:  db,
		log: log.With(zap.String("repository", "doctor")),
	}
}

const doctorColumns = `id, user_id, name, department, avg_consult_time, consultation_fee, active,
		       consultation_history, created_at, updated_at`

func scanDoctor(row pgx.Row) (*entity.Doctor, error) {
	var (
		d       entity.Doctor
		history []byte
	)
	err := row.Scan(
		&d.ID,
		&d.UserID,
		&d.Name,
		&d.Department,
		&d.AvgConsultTime,
		&d.ConsultationFee,
		&d.Active,
		&history,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(history) > 0 {
		if err := json.Unmarshal(history, &d.ConsultationHistory); err != nil {
			return nil, fmt.Errorf("decode consultation history: %w", err)
		}
	}
	return &d, nil
}

func encodeHistory(history []entity.ConsultRecord) ([]byte, error) {
	if history == nil {
		history = []entity.ConsultRecord{}
	}
	return json.Marshal(history)
}

func (r *doctorRepository) Create(ctx context.Context, doctor *entity.Doctor) error {
	history, err := encodeHistory(doctor.ConsultationHistory)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO doctors (id, user_id, name, department, avg_consult_time, consultation_fee,
		                     active, consultation_history, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err = r.db.Exec(ctx, query,
		doctor.ID,
		doctor.UserID,
		doctor.Name,
		doctor.Department,
		doctor.AvgConsultTime,
		doctor.ConsultationFee,
		doctor.Active,
		history,
		doctor.CreatedAt,
		doctor.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to create doctor",
			zap.Error(err),
			zap.String("name", doctor.Name),
		)
		return fmt.Errorf("create doctor: %w", err)
	}

	return nil
}

func (r *doctorRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Doctor, error) {
	query := `SELECT ` + doctorColumns + ` FROM doctors WHERE id = $1`

	doctor, err := scanDoctor(r.db.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find doctor by ID",
			zap.Error(err),
			zap.String("doctor_id", id.String()),
		)
		return nil, fmt.Errorf("find doctor by ID %s: %w", id.String(), err)
	}

	return doctor, nil
}

func (r *doctorRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*entity.Doctor, error) {
	query := `SELECT ` + doctorColumns + ` FROM doctors WHERE user_id = $1`

	doctor, err := scanDoctor(r.db.QueryRow(ctx, query, userID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find doctor by user ID",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return nil, fmt.Errorf("find doctor by user ID %s: %w", userID.String(), err)
	}

	return doctor, nil
}

func (r *doctorRepository) FindAllActive(ctx context.Context) ([]*entity.Doctor, error) {
	query := `SELECT ` + doctorColumns + ` FROM doctors WHERE active = true ORDER BY department, name`
	return r.list(ctx, query)
}

func (r *doctorRepository) FindActiveByDepartment(ctx context.Context, department string, excludeID uuid.UUID) ([]*entity.Doctor, error) {
	query := `
		SELECT ` + doctorColumns + `
		FROM doctors
		WHERE department = $1 AND active = true AND id <> $2
		ORDER BY created_at
	`
	return r.list(ctx, query, department, excludeID)
}

func (r *doctorRepository) list(ctx context.Context, query string, args ...any) ([]*entity.Doctor, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to list doctors", zap.Error(err))
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	defer rows.Close()

	var doctors []*entity.Doctor
	for rows.Next() {
		doctor, err := scanDoctor(rows)
		if err != nil {
			r.log.Error("Failed to scan doctor row", zap.Error(err))
			return nil, fmt.Errorf("scan doctor row: %w", err)
		}
		doctors = append(doctors, doctor)
	}

	return doctors, rows.Err()
}

func (r *doctorRepository) Update(ctx context.Context, doctor *entity.Doctor) error {
	query := `
		UPDATE doctors
		SET name = $2, department = $3, avg_consult_time = $4, consultation_fee = $5,
		    active = $6, updated_at = $7
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query,
		doctor.ID,
		doctor.Name,
		doctor.Department,
		doctor.AvgConsultTime,
		doctor.ConsultationFee,
		doctor.Active,
		doctor.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to update doctor",
			zap.Error(err),
			zap.String("doctor_id", doctor.ID.String()),
		)
		return fmt.Errorf("update doctor %s: %w", doctor.ID.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("doctor %s not found", doctor.ID.String())
	}

	return nil
}

func (r *doctorRepository) UpdateStats(ctx context.Context, doctor *entity.Doctor) error {
	history, err := encodeHistory(doctor.ConsultationHistory)
	if err != nil {
		return err
	}

	query := `
		UPDATE doctors
		SET avg_consult_time = $2, consultation_history = $3, updated_at = $4
		WHERE id = $1
	`

	_, err = r.db.Exec(ctx, query, doctor.ID, doctor.AvgConsultTime, history, doctor.UpdatedAt)
	if err != nil {
		r.log.Error("Failed to update doctor stats",
			zap.Error(err),
			zap.String("doctor_id", doctor.ID.String()),
		)
		return fmt.Errorf("update doctor stats %s: %w", doctor.ID.String(), err)
	}

	return nil
}
