package response

import (
	"time"

	"opd-queue/internal/data/entity"
)

type TokenResponse struct {
	ID              string               `json:"id"`
	DoctorID        string               `json:"doctorId"`
	PatientID       *string              `json:"patientId,omitempty"`
	TokenNumber     int                  `json:"tokenNumber"`
	PatientName     string               `json:"patientName"`
	PatientAge      *int                 `json:"patientAge,omitempty"`
	PatientGender   *string              `json:"patientGender,omitempty"`
	PatientMobile   string               `json:"patientMobile"`
	Reason          *string              `json:"reason,omitempty"`
	VisitDate       string               `json:"visitDate"`
	Priority        entity.Priority      `json:"priority"`
	Status          entity.TokenStatus   `json:"status"`
	PaymentStatus   entity.PaymentStatus `json:"paymentStatus"`
	ConsultationFee float64              `json:"consultationFee"`
	StartTime       *time.Time           `json:"startTime,omitempty"`
	EndTime         *time.Time           `json:"endTime,omitempty"`
	Duration        *float64             `json:"duration,omitempty"`
	CreatedAt       time.Time            `json:"createdAt"`
	UpdatedAt       time.Time            `json:"updatedAt"`
}

// QueueEntryResponse is a token with its 1-based place in the live queue.
type QueueEntryResponse struct {
	TokenResponse
	Position int `json:"position"`
}

type SuggestionResponse struct {
	DoctorID   string  `json:"doctorId"`
	DoctorName string  `json:"doctorName"`
	WaitTime   float64 `json:"waitTime"`
	Message    string  `json:"message"`
}

type BookingResponse struct {
	Token      TokenResponse       `json:"token"`
	Suggestion *SuggestionResponse `json:"suggestion"`
	WaitTime   float64             `json:"waitTime"`
}
