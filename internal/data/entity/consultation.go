package entity

import (
	"time"

	"github.com/google/uuid"
)

type ProblemCategory string

const (
	ProblemFever    ProblemCategory = "Fever"
	ProblemCold     ProblemCategory = "Cold"
	ProblemHeadache ProblemCategory = "Headache"
	ProblemInjury   ProblemCategory = "Injury"
	ProblemOthers   ProblemCategory = "Others"
)

// Consultation is the history record written when a token is finalized.
type Consultation struct {
	Row
	PatientID       *uuid.UUID      `db:"patient_id"`
	DoctorID        uuid.UUID       `db:"doctor_id"`
	TokenID         uuid.UUID       `db:"token_id"`
	Department      string          `db:"department"`
	VisitReason     *string         `db:"visit_reason"`
	ProblemCategory ProblemCategory `db:"problem_category"`
	Diagnosis       *string         `db:"diagnosis"`
	DoctorNotes     *string         `db:"doctor_notes"`
	StartTime       time.Time       `db:"consultation_start_time"`
	EndTime         time.Time       `db:"consultation_end_time"`
	Duration        float64         `db:"consultation_duration"`
	OTPVerified     bool            `db:"otp_verified"`
	Date            time.Time       `db:"date"`
}

// ConsultationDetail is a history row joined with the doctor and patient names.
type ConsultationDetail struct {
	Consultation
	DoctorName   string  `db:"doctor_name"`
	PatientName  *string `db:"patient_name"`
	PatientEmail *string `db:"patient_email"`
}

// ConsultationFilter narrows history reads. Zero values mean "no filter".
type ConsultationFilter struct {
	StartDate       *time.Time
	EndDate         *time.Time
	ProblemCategory ProblemCategory
	Limit           int
	Offset          int
}
