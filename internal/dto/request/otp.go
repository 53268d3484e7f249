package request

type SendOTPRequest struct {
	PhoneNumber string `json:"phoneNumber" validate:"required,len=10,numeric"`
}

type VerifyOTPRequest struct {
	PhoneNumber string `json:"phoneNumber" validate:"required,len=10,numeric"`
	Code        string `json:"code" validate:"required,len=6,numeric"`
}

type GenerateConsultationOTPRequest struct {
	TokenID string `json:"tokenId" validate:"required,uuid4"`
}

type VerifyConsultationOTPRequest struct {
	TokenID string `json:"tokenId" validate:"required,uuid4"`
	Code    string `json:"code" validate:"required,len=6,numeric"`
}
