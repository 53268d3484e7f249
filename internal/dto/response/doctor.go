package response

import "time"

type DoctorResponse struct {
	ID              string    `json:"id"`
	UserID          *string   `json:"userId,omitempty"`
	Name            string    `json:"name"`
	Department      string    `json:"department"`
	AvgConsultTime  float64   `json:"avgConsultTime"`
	ConsultationFee float64   `json:"consultationFee"`
	Active          bool      `json:"active"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}
