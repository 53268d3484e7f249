package response

import (
	"time"

	"opd-queue/internal/data/entity"
)

type ConsultationResponse struct {
	ID              string                 `json:"id"`
	TokenID         string                 `json:"tokenId"`
	DoctorID        string                 `json:"doctorId"`
	DoctorName      string                 `json:"doctorName,omitempty"`
	PatientID       *string                `json:"patientId,omitempty"`
	PatientName     *string                `json:"patientName,omitempty"`
	PatientEmail    *string                `json:"patientEmail,omitempty"`
	Department      string                 `json:"department"`
	VisitReason     *string                `json:"visitReason,omitempty"`
	ProblemCategory entity.ProblemCategory `json:"problemCategory"`
	Diagnosis       *string                `json:"diagnosis,omitempty"`
	DoctorNotes     *string                `json:"doctorNotes,omitempty"`
	StartTime       time.Time              `json:"consultationStartTime"`
	EndTime         time.Time              `json:"consultationEndTime"`
	Duration        float64                `json:"consultationDuration"`
	OTPVerified     bool                   `json:"otpVerified"`
	Date            time.Time              `json:"date"`
}
