package adaptor

import (
	"net/http"

	"opd-queue/internal/dto/request"
	"opd-queue/internal/usecase"
	"opd-queue/pkg/utils"

	"go.uber.org/zap"
)

// OTPHandler serves both the phone verification and the consultation verification endpoints.
type OTPHandler struct {
	phone   usecase.PhoneOTPService
	consult usecase.ConsultationOTPService
	log     *zap.Logger
}

func NewOTPHandler(phone usecase.PhoneOTPService, consult usecase.ConsultationOTPService, log *zap.Logger) *OTPHandler {
	return &OTPHandler{
		phone:   phone,
		consult: consult,
		log:     log.With(zap.String("handler", "otp")),
	}
}

// SendPhoneOTP handles POST /api/otp/send (public)
func (h *OTPHandler) SendPhoneOTP(w http.ResponseWriter, r *http.Request) {
	var req request.SendOTPRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.phone.Send(r.Context(), &req); err != nil {
		handleServiceError(w, h.log, err, "send otp")
		return
	}

	utils.ResponseSuccess(w, "OTP sent successfully", nil)
}

// VerifyPhoneOTP handles POST /api/otp/verify (public)
func (h *OTPHandler) VerifyPhoneOTP(w http.ResponseWriter, r *http.Request) {
	var req request.VerifyOTPRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.phone.Verify(r.Context(), &req); err != nil {
		handleServiceError(w, h.log, err, "verify otp")
		return
	}

	utils.ResponseSuccess(w, "Phone number verified", nil)
}

// GenerateConsultationOTP handles POST /api/consultation-otp/generate (doctor)
func (h *OTPHandler) GenerateConsultationOTP(w http.ResponseWriter, r *http.Request) {
	actorID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.GenerateConsultationOTPRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.consult.RequestCompletion(r.Context(), actorID, &req); err != nil {
		handleServiceError(w, h.log, err, "generate consultation otp")
		return
	}

	utils.ResponseSuccess(w, "Consultation OTP generated", nil)
}

// VerifyConsultationOTP handles POST /api/consultation-otp/verify (doctor)
func (h *OTPHandler) VerifyConsultationOTP(w http.ResponseWriter, r *http.Request) {
	var req request.VerifyConsultationOTPRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.consult.Verify(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "verify consultation otp")
		return
	}

	utils.ResponseSuccess(w, "Consultation verified", result)
}

// LatestConsultationOTP handles GET /api/consultation-otp/latest?tokenId= (doctor)
func (h *OTPHandler) LatestConsultationOTP(w http.ResponseWriter, r *http.Request) {
	status, err := h.consult.GetStatus(r.Context(), r.URL.Query().Get("tokenId"))
	if err != nil {
		handleServiceError(w, h.log, err, "get consultation otp status")
		return
	}

	utils.ResponseSuccess(w, "success", status)
}

// PatientLastOTP handles GET /api/consultation-otp/patient/last-otp (patient)
func (h *OTPHandler) PatientLastOTP(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	status, err := h.consult.PatientLatestStatus(r.Context(), userID)
	if err != nil {
		handleServiceError(w, h.log, err, "get patient consultation otp status")
		return
	}

	utils.ResponseSuccess(w, "success", status)
}
