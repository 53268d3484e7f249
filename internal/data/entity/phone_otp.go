package entity

import "time"

// PhoneOTP is the single reusable verification record of a phone number.
type PhoneOTP struct {
	Row
	PhoneNumber    string     `db:"phone_number"`
	OTPHash        string     `db:"otp_hash"`
	ExpiresAt      time.Time  `db:"expires_at"`
	Attempts       int        `db:"attempts"`
	Verified       bool       `db:"verified"`
	LockedUntil    *time.Time `db:"locked_until"`
	UsedForBooking bool       `db:"used_for_booking"`
	UsedAt         *time.Time `db:"used_at"`
}

func NewPhoneOTP(phone string, now time.Time) *PhoneOTP {
	return &PhoneOTP{
		Row:         NewRow(now),
		PhoneNumber: phone,
	}
}

func (p *PhoneOTP) IsLocked(now time.Time) bool {
	return p.LockedUntil != nil && p.LockedUntil.After(now)
}

func (p *PhoneOTP) IsExpired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}

// Consumable reports whether a booking may spend this verification.
func (p *PhoneOTP) Consumable() bool {
	return p.Verified && !p.UsedForBooking
}

// Reset installs a fresh code and clears every verification flag.
func (p *PhoneOTP) Reset(hash string, expiresAt, now time.Time) {
	p.OTPHash = hash
	p.ExpiresAt = expiresAt
	p.Attempts = 0
	p.Verified = false
	p.UsedForBooking = false
	p.UsedAt = nil
	p.Touch(now)
}
