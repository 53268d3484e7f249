package entity

import "time"

type UserRole string

const (
	RoleAdmin   UserRole = "ADMIN"
	RoleDoctor  UserRole = "DOCTOR"
	RolePatient UserRole = "PATIENT"
)

type User struct {
	SoftDeletable
	Name                 string     `db:"name"`
	Email                string     `db:"email"`
	PasswordHash         string     `db:"password"`
	Mobile               *string    `db:"mobile"`
	Role                 UserRole   `db:"role"`
	NoShowCount          int        `db:"no_show_count"`
	BookingCooldownUntil *time.Time `db:"booking_cooldown_until"`
	IsActive             bool       `db:"is_active"`
}

// IsSuspended reports an active no-show cooldown.
func (u *User) IsSuspended(now time.Time) bool {
	return u.BookingCooldownUntil != nil && u.BookingCooldownUntil.After(now)
}

// RegisterNoShow counts one no-show. Reaching limit starts a cooldown and
// resets the counter; the return value reports whether that happened.
func (u *User) RegisterNoShow(now time.Time, limit int, cooldown time.Duration) bool {
	u.NoShowCount++
	u.Touch(now)
	if u.NoShowCount < limit {
		return false
	}
	until := now.Add(cooldown)
	u.BookingCooldownUntil = &until
	u.NoShowCount = 0
	return true
}
