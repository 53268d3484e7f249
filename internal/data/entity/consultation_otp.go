package entity

import (
	"time"

	"github.com/google/uuid"
)

type ConsultationOTPStatus string

const (
	ConsultationOTPNone      ConsultationOTPStatus = "NONE"
	ConsultationOTPGenerated ConsultationOTPStatus = "GENERATED"
	ConsultationOTPVerified  ConsultationOTPStatus = "VERIFIED"
	ConsultationOTPExpired   ConsultationOTPStatus = "EXPIRED"
)

// ConsultationOTP gates completion of one token; unique on TokenID.
type ConsultationOTP struct {
	Row
	TokenID     uuid.UUID `db:"token_id"`
	OTPHash     string    `db:"otp_hash"`
	ExpiresAt   time.Time `db:"expires_at"`
	GeneratedAt time.Time `db:"otp_generated_at"`
	Verified    bool      `db:"verified"`
	Attempts    int       `db:"attempts"`
}

// ConsultationOTPStatusOf derives the status from stored fields. A nil record is NONE.
func ConsultationOTPStatusOf(rec *ConsultationOTP, now time.Time) ConsultationOTPStatus {
	switch {
	case rec == nil:
		return ConsultationOTPNone
	case rec.Verified:
		return ConsultationOTPVerified
	case now.After(rec.ExpiresAt):
		return ConsultationOTPExpired
	default:
		return ConsultationOTPGenerated
	}
}
