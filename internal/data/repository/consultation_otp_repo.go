package repository

import (
	"context"
	"fmt"

	"opd-queue/internal/data/entity"
	"opd-queue/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type ConsultationOTPRepository interface {
	FindByTokenID(ctx context.Context, tokenID uuid.UUID) (*entity.ConsultationOTP, error)
	// Upsert overwrites any earlier code for the same token.
	// Issue stores a fresh code, replacing any earlier one for the token. A
	// non-nil token is written in the same transaction so the code and the
	// PENDING_VERIFICATION status land together or not at all.
	Issue(ctx context.Context, otp *entity.ConsultationOTP, token *entity.Token) error
	Update(ctx context.Context, otp *entity.ConsultationOTP) error
}

type consultationOTPRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewConsultationOTPRepository(db database.PgxIface, log *zap.Logger) ConsultationOTPRepository {
	return &consultationOTPRepository{
		db:  db,
		log: log.With(zap.String("repository", "consultation_otp")),
	}
}

func (r *consultationOTPRepository) FindByTokenID(ctx context.Context, tokenID uuid.UUID) (*entity.ConsultationOTP, error) {
	query := `
		SELECT id, token_id, otp_hash, expires_at, otp_generated_at, verified, attempts,
		       created_at, updated_at
		FROM consultation_otps
		WHERE token_id = $1
	`

	var otp entity.ConsultationOTP
	err := r.db.QueryRow(ctx, query, tokenID).Scan(
		&otp.ID,
		&otp.TokenID,
		&otp.OTPHash,
		&otp.ExpiresAt,
		&otp.GeneratedAt,
		&otp.Verified,
		&otp.Attempts,
		&otp.CreatedAt,
		&otp.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find consultation OTP",
			zap.Error(err),
			zap.String("token_id", tokenID.String()),
		)
		return nil, fmt.Errorf("find consultation OTP for token %s: %w", tokenID.String(), err)
	}

	return &otp, nil
}

func (r *consultationOTPRepository) Issue(ctx context.Context, otp *entity.ConsultationOTP, token *entity.Token) error {
	return database.InTx(ctx, r.db, func(q database.Querier) error {
		query := `
			INSERT INTO consultation_otps (id, token_id, otp_hash, expires_at, otp_generated_at,
			                               verified, attempts, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (token_id) DO UPDATE
			SET otp_hash = EXCLUDED.otp_hash,
			    expires_at = EXCLUDED.expires_at,
			    otp_generated_at = EXCLUDED.otp_generated_at,
			    verified = EXCLUDED.verified,
			    attempts = EXCLUDED.attempts,
			    updated_at = EXCLUDED.updated_at
		`

		_, err := q.Exec(ctx, query,
			otp.ID,
			otp.TokenID,
			otp.OTPHash,
			otp.ExpiresAt,
			otp.GeneratedAt,
			otp.Verified,
			otp.Attempts,
			otp.CreatedAt,
			otp.UpdatedAt,
		)
		if err != nil {
			r.log.Error("Failed to upsert consultation OTP",
				zap.Error(err),
				zap.String("token_id", otp.TokenID.String()),
			)
			return fmt.Errorf("upsert consultation OTP for token %s: %w", otp.TokenID.String(), err)
		}

		if token == nil {
			return nil
		}
		return updateToken(ctx, q, r.log, token)
	})
}

func (r *consultationOTPRepository) Update(ctx context.Context, otp *entity.ConsultationOTP) error {
	query := `
		UPDATE consultation_otps
		SET verified = $2, attempts = $3, updated_at = $4
		WHERE token_id = $1
	`

	result, err := r.db.Exec(ctx, query, otp.TokenID, otp.Verified, otp.Attempts, otp.UpdatedAt)
	if err != nil {
		r.log.Error("Failed to update consultation OTP",
			zap.Error(err),
			zap.String("token_id", otp.TokenID.String()),
		)
		return fmt.Errorf("update consultation OTP for token %s: %w", otp.TokenID.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("consultation OTP for token %s not found", otp.TokenID.String())
	}

	return nil
}
