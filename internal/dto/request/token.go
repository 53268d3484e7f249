package request

type BookTokenRequest struct {
	DoctorID      string  `json:"doctorId" validate:"required,uuid4"`
	PatientName   string  `json:"patientName" validate:"required,max=100"`
	PatientAge    *int    `json:"patientAge,omitempty" validate:"omitempty,gte=0,lte=150"`
	PatientGender *string `json:"patientGender,omitempty" validate:"omitempty,max=20"`
	PatientMobile string  `json:"patientMobile" validate:"required,len=10,numeric"`
	Reason        *string `json:"reason,omitempty" validate:"omitempty,max=500"`
	// VisitDate is YYYY-MM-DD; empty books for today.
	VisitDate string `json:"visitDate,omitempty"`
	Priority  string `json:"priority,omitempty" validate:"omitempty,oneof=NORMAL EMERGENCY"`
}

type UpdateTokenStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=WAITING IN_PROGRESS PENDING_VERIFICATION DONE NO_SHOW"`
}
