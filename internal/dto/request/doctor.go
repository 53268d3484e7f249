package request

type CreateDoctorRequest struct {
	UserID          *string  `json:"userId,omitempty" validate:"omitempty,uuid4"`
	Name            string   `json:"name" validate:"required,min=2,max=100"`
	Department      string   `json:"department" validate:"omitempty,max=100"`
	AvgConsultTime  *float64 `json:"avgConsultTime,omitempty" validate:"omitempty,gte=1,lte=240"`
	ConsultationFee float64  `json:"consultationFee" validate:"gte=0"`
}

type UpdateDoctorRequest struct {
	Name            *string  `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Department      *string  `json:"department,omitempty" validate:"omitempty,max=100"`
	AvgConsultTime  *float64 `json:"avgConsultTime,omitempty" validate:"omitempty,gte=1,lte=240"`
	ConsultationFee *float64 `json:"consultationFee,omitempty" validate:"omitempty,gte=0"`
	Active          *bool    `json:"active,omitempty"`
}
