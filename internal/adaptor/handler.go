package adaptor

import (
	"encoding/json"
	"errors"
	"net/http"

	"opd-queue/internal/usecase"
	"opd-queue/pkg/utils"

	"go.uber.org/zap"
)

type Handler struct {
	Token        *TokenHandler
	OTP          *OTPHandler
	Consultation *ConsultationHandler
	Doctor       *DoctorHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		Token:        NewTokenHandler(service.Token, log),
		OTP:          NewOTPHandler(service.PhoneOTP, service.ConsultationOTP, log),
		Consultation: NewConsultationHandler(service.Consultation, log),
		Doctor:       NewDoctorHandler(service.Doctor, log),
	}
}

// handleServiceError maps usecase sentinel errors to HTTP responses.
func handleServiceError(w http.ResponseWriter, log *zap.Logger, err error, operation string) {
	errMsg := err.Error()
	warn := func(kind string) {
		log.Warn(operation+" failed - "+kind,
			zap.Error(err),
			zap.String("operation", operation))
	}

	switch {
	case errors.Is(err, usecase.ErrNotFound):
		warn("not found")
		utils.ResponseNotFound(w, errMsg)

	case errors.Is(err, usecase.ErrValidation),
		errors.Is(err, usecase.ErrExpired),
		errors.Is(err, usecase.ErrInvalidCode),
		errors.Is(err, usecase.ErrOtpNotVerified),
		errors.Is(err, usecase.ErrDoctorInactive):
		warn("bad request")
		utils.ResponseBadRequest(w, errMsg, nil)

	case errors.Is(err, usecase.ErrPhoneNotVerified),
		errors.Is(err, usecase.ErrBookingSuspended):
		warn("forbidden")
		utils.ResponseForbidden(w, errMsg)

	case errors.Is(err, usecase.ErrInvalidTransition),
		errors.Is(err, usecase.ErrAlreadyVerified):
		warn("conflict")
		utils.ResponseConflict(w, errMsg)

	case errors.Is(err, usecase.ErrRateLimited):
		warn("rate limited")
		utils.ResponseTooManyRequests(w, errMsg)

	default:
		log.Error("Failed to "+operation,
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseInternalError(w, "Internal server error")
	}
}

// decodeAndValidate reads a JSON body into req and writes a 400 on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, req any) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return false
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return false
	}
	return true
}
