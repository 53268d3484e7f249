package entity

import (
	"time"

	"github.com/google/uuid"
)

// Session is a bearer login. Sessions are issued outside this service; the
// API only resolves them to a user and role.
type Session struct {
	Entry
	UserID    uuid.UUID  `db:"user_id"`
	Token     uuid.UUID  `db:"token"`
	ExpiresAt time.Time  `db:"expires_at"`
	RevokedAt *time.Time `db:"revoked_at"`
}

func (s *Session) IsValid(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}
