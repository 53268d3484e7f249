package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"opd-queue/internal/data/entity"
	"opd-queue/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// ErrPhoneOTPUnavailable means the phone verification was not consumable
// at commit time (never verified, or spent by a concurrent booking).
var ErrPhoneOTPUnavailable = errors.New("phone verification not available for booking")

type TokenRepository interface {
	// CreateBooked consumes the phone verification, assigns the next token number
	// for (doctor, visit date) and inserts the token, all in one transaction.
	CreateBooked(ctx context.Context, token *entity.Token, phoneNumber string, consumedAt time.Time) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Token, error)
	FindActiveByDoctorAndDate(ctx context.Context, doctorID uuid.UUID, visitDate time.Time) ([]*entity.Token, error)
	CountActiveByDoctorAndDate(ctx context.Context, doctorID uuid.UUID, visitDate time.Time) (int, error)
	FindNextWaiting(ctx context.Context, doctorID uuid.UUID, visitDate time.Time, excludeID uuid.UUID) (*entity.Token, error)
	FindLatestByPatient(ctx context.Context, patientID uuid.UUID) (*entity.Token, error)
	Update(ctx context.Context, token *entity.Token) error
}

type tokenRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewTokenRepository(db database.PgxIface, log *zap.Logger) TokenRepository {
	return &tokenRepository{
		db:  db,
		log: log.With(zap.String("repository", "token")),
	}
}

const tokenColumns = `id, doctor_id, patient_id, token_number, patient_name, patient_age, patient_gender,
		       patient_mobile, reason, visit_date, priority, status, payment_status, consultation_fee,
		       start_time, end_time, duration, created_at, updated_at`

func scanToken(row pgx.Row) (*entity.Token, error) {
	var t entity.Token
	err := row.Scan(
		&t.ID,
		&t.DoctorID,
		&t.PatientID,
		&t.TokenNumber,
		&t.PatientName,
		&t.PatientAge,
		&t.PatientGender,
		&t.PatientMobile,
		&t.Reason,
		&t.VisitDate,
		&t.Priority,
		&t.Status,
		&t.PaymentStatus,
		&t.ConsultationFee,
		&t.StartTime,
		&t.EndTime,
		&t.Duration,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *tokenRepository) CreateBooked(ctx context.Context, token *entity.Token, phoneNumber string, consumedAt time.Time) error {
	// Concurrent bookings stay safe through two row locks. The conditional
	// phone_otps UPDATE lets one verification book at most once: a second
	// transaction re-checks used_for_booking after the first commits and
	// matches zero rows. The token_sequences upsert serializes numbering, so
	// numbers are unique and gapless per (doctor, day).
	err := database.InTx(ctx, r.db, func(q database.Querier) error {
		// 1. Spend the phone verification; losing a race leaves zero rows
		consume := `
			UPDATE phone_otps
			SET used_for_booking = true, used_at = $2, updated_at = $2
			WHERE phone_number = $1 AND verified = true AND used_for_booking = false
		`
		result, err := q.Exec(ctx, consume, phoneNumber, consumedAt)
		if err != nil {
			return fmt.Errorf("consume phone otp %s: %w", phoneNumber, err)
		}
		if result.RowsAffected() == 0 {
			return ErrPhoneOTPUnavailable
		}

		// 2. Per-(doctor, day) sequence; the row lock serializes concurrent bookings
		next := `
			INSERT INTO token_sequences (doctor_id, visit_date, last_number)
			VALUES ($1, $2, 1)
			ON CONFLICT (doctor_id, visit_date)
			DO UPDATE SET last_number = token_sequences.last_number + 1
			RETURNING last_number
		`
		if err := q.QueryRow(ctx, next, token.DoctorID, token.VisitDate).Scan(&token.TokenNumber); err != nil {
			return fmt.Errorf("next token number for doctor %s: %w", token.DoctorID.String(), err)
		}

		// 3. Insert token
		insert := `
			INSERT INTO tokens (id, doctor_id, patient_id, token_number, patient_name, patient_age,
			                    patient_gender, patient_mobile, reason, visit_date, priority, status,
			                    payment_status, consultation_fee, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		`
		_, err = q.Exec(ctx, insert,
			token.ID,
			token.DoctorID,
			token.PatientID,
			token.TokenNumber,
			token.PatientName,
			token.PatientAge,
			token.PatientGender,
			token.PatientMobile,
			token.Reason,
			token.VisitDate,
			token.Priority,
			token.Status,
			token.PaymentStatus,
			token.ConsultationFee,
			token.CreatedAt,
			token.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert token %s: %w", token.ID.String(), err)
		}
		return nil
	})

	if err != nil && !errors.Is(err, ErrPhoneOTPUnavailable) {
		r.log.Error("Failed to create booked token",
			zap.Error(err),
			zap.String("doctor_id", token.DoctorID.String()),
		)
	}
	return err
}

func (r *tokenRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Token, error) {
	query := `SELECT ` + tokenColumns + ` FROM tokens WHERE id = $1`

	token, err := scanToken(r.db.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find token by ID",
			zap.Error(err),
			zap.String("token_id", id.String()),
		)
		return nil, fmt.Errorf("find token by ID %s: %w", id.String(), err)
	}

	return token, nil
}

func (r *tokenRepository) FindActiveByDoctorAndDate(ctx context.Context, doctorID uuid.UUID, visitDate time.Time) ([]*entity.Token, error) {
	query := `
		SELECT ` + tokenColumns + `
		FROM tokens
		WHERE doctor_id = $1
		  AND visit_date = $2
		  AND status IN ('WAITING', 'IN_PROGRESS')
		ORDER BY created_at
	`

	rows, err := r.db.Query(ctx, query, doctorID, visitDate)
	if err != nil {
		r.log.Error("Failed to find active tokens",
			zap.Error(err),
			zap.String("doctor_id", doctorID.String()),
		)
		return nil, fmt.Errorf("find active tokens for doctor %s: %w", doctorID.String(), err)
	}
	defer rows.Close()

	var tokens []*entity.Token
	for rows.Next() {
		token, err := scanToken(rows)
		if err != nil {
			r.log.Error("Failed to scan token row", zap.Error(err))
			return nil, fmt.Errorf("scan token row: %w", err)
		}
		tokens = append(tokens, token)
	}

	return tokens, rows.Err()
}

func (r *tokenRepository) CountActiveByDoctorAndDate(ctx context.Context, doctorID uuid.UUID, visitDate time.Time) (int, error) {
	query := `
		SELECT COUNT(*) FROM tokens
		WHERE doctor_id = $1 AND visit_date = $2 AND status IN ('WAITING', 'IN_PROGRESS')
	`

	var count int
	if err := r.db.QueryRow(ctx, query, doctorID, visitDate).Scan(&count); err != nil {
		r.log.Error("Failed to count active tokens",
			zap.Error(err),
			zap.String("doctor_id", doctorID.String()),
		)
		return 0, fmt.Errorf("count active tokens for doctor %s: %w", doctorID.String(), err)
	}

	return count, nil
}

func (r *tokenRepository) FindNextWaiting(ctx context.Context, doctorID uuid.UUID, visitDate time.Time, excludeID uuid.UUID) (*entity.Token, error) {
	query := `
		SELECT ` + tokenColumns + `
		FROM tokens
		WHERE doctor_id = $1 AND visit_date = $2 AND status = 'WAITING' AND id <> $3
		ORDER BY created_at
		LIMIT 1
	`

	token, err := scanToken(r.db.QueryRow(ctx, query, doctorID, visitDate, excludeID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find next waiting token",
			zap.Error(err),
			zap.String("doctor_id", doctorID.String()),
		)
		return nil, fmt.Errorf("find next waiting token for doctor %s: %w", doctorID.String(), err)
	}

	return token, nil
}

func (r *tokenRepository) FindLatestByPatient(ctx context.Context, patientID uuid.UUID) (*entity.Token, error) {
	query := `
		SELECT ` + tokenColumns + `
		FROM tokens
		WHERE patient_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	token, err := scanToken(r.db.QueryRow(ctx, query, patientID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find latest token by patient",
			zap.Error(err),
			zap.String("patient_id", patientID.String()),
		)
		return nil, fmt.Errorf("find latest token for patient %s: %w", patientID.String(), err)
	}

	return token, nil
}

func (r *tokenRepository) Update(ctx context.Context, token *entity.Token) error {
	return updateToken(ctx, r.db, r.log, token)
}

// updateToken writes the mutable lifecycle fields; shared with the consultation transaction.
func updateToken(ctx context.Context, q database.Querier, log *zap.Logger, token *entity.Token) error {
	query := `
		UPDATE tokens
		SET status = $2, payment_status = $3, consultation_fee = $4,
		    start_time = $5, end_time = $6, duration = $7, updated_at = $8
		WHERE id = $1
	`

	result, err := q.Exec(ctx, query,
		token.ID,
		token.Status,
		token.PaymentStatus,
		token.ConsultationFee,
		token.StartTime,
		token.EndTime,
		token.Duration,
		token.UpdatedAt,
	)
	if err != nil {
		log.Error("Failed to update token",
			zap.Error(err),
			zap.String("token_id", token.ID.String()),
		)
		return fmt.Errorf("update token %s: %w", token.ID.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("token %s not found", token.ID.String())
	}

	return nil
}
