package repository

import (
	"context"
	"fmt"

	"opd-queue/internal/data/entity"
	"opd-queue/pkg/database"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type PhoneOTPRepository interface {
	FindByPhone(ctx context.Context, phoneNumber string) (*entity.PhoneOTP, error)
	// Upsert keeps one row per phone number; a resend overwrites it in place.
	Upsert(ctx context.Context, otp *entity.PhoneOTP) error
	Update(ctx context.Context, otp *entity.PhoneOTP) error
}

type phoneOTPRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewPhoneOTPRepository(db database.PgxIface, log *zap.Logger) PhoneOTPRepository {
	return &phoneOTPRepository{
		db:  db,
		log: log.With(zap.String("repository", "phone_otp")),
	}
}

func (r *phoneOTPRepository) FindByPhone(ctx context.Context, phoneNumber string) (*entity.PhoneOTP, error) {
	query := `
		SELECT id, phone_number, otp_hash, expires_at, attempts, verified,
		       locked_until, used_for_booking, used_at, created_at, updated_at
		FROM phone_otps
		WHERE phone_number = $1
	`

	var otp entity.PhoneOTP
	err := r.db.QueryRow(ctx, query, phoneNumber).Scan(
		&otp.ID,
		&otp.PhoneNumber,
		&otp.OTPHash,
		&otp.ExpiresAt,
		&otp.Attempts,
		&otp.Verified,
		&otp.LockedUntil,
		&otp.UsedForBooking,
		&otp.UsedAt,
		&otp.CreatedAt,
		&otp.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find phone OTP",
			zap.Error(err),
			zap.String("phone_number", phoneNumber),
		)
		return nil, fmt.Errorf("find phone OTP for %s: %w", phoneNumber, err)
	}

	return &otp, nil
}

func (r *phoneOTPRepository) Upsert(ctx context.Context, otp *entity.PhoneOTP) error {
	query := `
		INSERT INTO phone_otps (id, phone_number, otp_hash, expires_at, attempts, verified,
		                        locked_until, used_for_booking, used_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (phone_number) DO UPDATE
		SET otp_hash = EXCLUDED.otp_hash,
		    expires_at = EXCLUDED.expires_at,
		    attempts = EXCLUDED.attempts,
		    verified = EXCLUDED.verified,
		    locked_until = EXCLUDED.locked_until,
		    used_for_booking = EXCLUDED.used_for_booking,
		    used_at = EXCLUDED.used_at,
		    updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.Exec(ctx, query,
		otp.ID,
		otp.PhoneNumber,
		otp.OTPHash,
		otp.ExpiresAt,
		otp.Attempts,
		otp.Verified,
		otp.LockedUntil,
		otp.UsedForBooking,
		otp.UsedAt,
		otp.CreatedAt,
		otp.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to upsert phone OTP",
			zap.Error(err),
			zap.String("phone_number", otp.PhoneNumber),
		)
		return fmt.Errorf("upsert phone OTP for %s: %w", otp.PhoneNumber, err)
	}

	return nil
}

func (r *phoneOTPRepository) Update(ctx context.Context, otp *entity.PhoneOTP) error {
	query := `
		UPDATE phone_otps
		SET attempts = $2, verified = $3, locked_until = $4, updated_at = $5
		WHERE phone_number = $1
	`

	result, err := r.db.Exec(ctx, query,
		otp.PhoneNumber,
		otp.Attempts,
		otp.Verified,
		otp.LockedUntil,
		otp.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to update phone OTP",
			zap.Error(err),
			zap.String("phone_number", otp.PhoneNumber),
		)
		return fmt.Errorf("update phone OTP for %s: %w", otp.PhoneNumber, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("phone OTP for %s not found", otp.PhoneNumber)
	}

	return nil
}
