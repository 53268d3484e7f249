package entity

import (
	"time"

	"github.com/google/uuid"
)

type TokenStatus string

const (
	TokenStatusWaiting             TokenStatus = "WAITING"
	TokenStatusInProgress          TokenStatus = "IN_PROGRESS"
	TokenStatusPendingVerification TokenStatus = "PENDING_VERIFICATION"
	TokenStatusDone                TokenStatus = "DONE"
	TokenStatusNoShow              TokenStatus = "NO_SHOW"
)

type Priority string

const (
	PriorityNormal    Priority = "NORMAL"
	PriorityEmergency Priority = "EMERGENCY"
)

// tokenTransitions is the forward-only lifecycle graph.
// PENDING_VERIFICATION -> PENDING_VERIFICATION is a regenerated consultation code.
var tokenTransitions = map[TokenStatus][]TokenStatus{
	TokenStatusWaiting:             {TokenStatusInProgress, TokenStatusNoShow},
	TokenStatusInProgress:          {TokenStatusPendingVerification, TokenStatusNoShow},
	TokenStatusPendingVerification: {TokenStatusPendingVerification, TokenStatusDone, TokenStatusNoShow},
}

// CanTransitionTo reports whether the lifecycle allows moving from s to next.
func (s TokenStatus) CanTransitionTo(next TokenStatus) bool {
	for _, allowed := range tokenTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s TokenStatus) IsTerminal() bool {
	return s == TokenStatusDone || s == TokenStatusNoShow
}

// IsActive reports whether a token in this status is part of the live queue.
func (s TokenStatus) IsActive() bool {
	return s == TokenStatusWaiting || s == TokenStatusInProgress
}

// Token is one patient's claim on a doctor's queue for one visit day.
// TokenNumber is unique per (DoctorID, VisitDate) only.
type Token struct {
	Row
	DoctorID        uuid.UUID     `db:"doctor_id"`
	PatientID       *uuid.UUID    `db:"patient_id"`
	TokenNumber     int           `db:"token_number"`
	PatientName     string        `db:"patient_name"`
	PatientAge      *int          `db:"patient_age"`
	PatientGender   *string       `db:"patient_gender"`
	PatientMobile   string        `db:"patient_mobile"`
	Reason          *string       `db:"reason"`
	VisitDate       time.Time     `db:"visit_date"`
	Priority        Priority      `db:"priority"`
	Status          TokenStatus   `db:"status"`
	PaymentStatus   PaymentStatus `db:"payment_status"`
	ConsultationFee float64       `db:"consultation_fee"`
	StartTime       *time.Time    `db:"start_time"`
	EndTime         *time.Time    `db:"end_time"`
	Duration        *float64      `db:"duration"` // minutes
}
