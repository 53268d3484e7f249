package usecase

import "errors"

// Sentinel errors surfaced to handlers. Services wrap them with
// fmt.Errorf("%w: ...") so callers can match with errors.Is.
var (
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("validation failed")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrPhoneNotVerified  = errors.New("phone verification required")
	ErrOtpNotVerified    = errors.New("consultation otp not verified")
	ErrAlreadyVerified   = errors.New("already verified")
	ErrInvalidCode       = errors.New("invalid otp")
	ErrExpired           = errors.New("otp expired")
	ErrRateLimited       = errors.New("too many wrong attempts")
	ErrBookingSuspended  = errors.New("booking suspended")
	ErrDoctorInactive    = errors.New("doctor is not accepting bookings")
)
