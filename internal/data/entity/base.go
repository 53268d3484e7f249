package entity

import (
	"time"

	"github.com/google/uuid"
)

// Row is the metadata of a mutable table row that is never deleted
// (tokens, OTP records, doctors, consultations).
type Row struct {
	ID        uuid.UUID `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func NewRow(now time.Time) Row {
	return Row{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}
}

func (r *Row) Touch(now time.Time) {
	r.UpdatedAt = now
}

// SoftDeletable rows are hidden by deleted_at instead of being removed.
type SoftDeletable struct {
	ID        uuid.UUID  `db:"id"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt time.Time  `db:"updated_at"`
	DeletedAt *time.Time `db:"deleted_at"`
}

func (s *SoftDeletable) Touch(now time.Time) {
	s.UpdatedAt = now
}

func (s *SoftDeletable) IsDeleted() bool {
	return s.DeletedAt != nil
}

// Entry is an append-only row: audit logs, notifications, sessions.
type Entry struct {
	ID        uuid.UUID `db:"id"`
	CreatedAt time.Time `db:"created_at"`
}

func NewEntry(now time.Time) Entry {
	return Entry{ID: uuid.New(), CreatedAt: now}
}
