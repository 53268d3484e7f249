package request

type CompleteConsultationRequest struct {
	TokenID         string  `json:"tokenId" validate:"required,uuid4"`
	VisitReason     *string `json:"visitReason,omitempty" validate:"omitempty,max=500"`
	ProblemCategory string  `json:"problemCategory,omitempty" validate:"omitempty,oneof=Fever Cold Headache Injury Others"`
	Diagnosis       *string `json:"diagnosis,omitempty" validate:"omitempty,max=2000"`
	Notes           *string `json:"notes,omitempty" validate:"omitempty,max=5000"`
}

// ConsultationHistoryRequest carries query-string filters. Dates are YYYY-MM-DD or RFC3339.
type ConsultationHistoryRequest struct {
	PaginatedRequest
	StartDate       string `json:"startDate"`
	EndDate         string `json:"endDate"`
	ProblemCategory string `json:"problemCategory" validate:"omitempty,oneof=All Fever Cold Headache Injury Others"`
}
