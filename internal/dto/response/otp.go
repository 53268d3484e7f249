package response

import (
	"time"

	"opd-queue/internal/data/entity"
)

type ConsultationOTPStatusResponse struct {
	Status      entity.ConsultationOTPStatus `json:"status"`
	GeneratedAt *time.Time                   `json:"generatedAt,omitempty"`
	ExpiresAt   *time.Time                   `json:"expiresAt,omitempty"`
	Verified    bool                         `json:"verified"`
}

type VerifyConsultationOTPResponse struct {
	Verified bool `json:"verified"`
}
