package adaptor

import (
	"net/http"

	"opd-queue/internal/dto/request"
	"opd-queue/internal/usecase"
	"opd-queue/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type TokenHandler struct {
	service usecase.TokenService
	log     *zap.Logger
}

func NewTokenHandler(service usecase.TokenService, log *zap.Logger) *TokenHandler {
	return &TokenHandler{
		service: service,
		log:     log.With(zap.String("handler", "token")),
	}
}

// BookToken handles POST /api/token/book (patient)
func (h *TokenHandler) BookToken(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}
	h.book(w, r, &userID)
}

// BookWalkIn handles POST /api/admin/token/book. The token has no patient
// account, so completion codes go out by SMS.
func (h *TokenHandler) BookWalkIn(w http.ResponseWriter, r *http.Request) {
	h.book(w, r, nil)
}

func (h *TokenHandler) book(w http.ResponseWriter, r *http.Request, patientID *uuid.UUID) {
	var req request.BookTokenRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	booking, err := h.service.BookToken(r.Context(), patientID, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "book token")
		return
	}

	utils.ResponseCreated(w, "Token booked successfully", booking)
}

// GetQueue handles GET /api/token/queue/{doctorId} (public)
func (h *TokenHandler) GetQueue(w http.ResponseWriter, r *http.Request) {
	doctorID := chi.URLParam(r, "doctorId")
	if doctorID == "" {
		utils.ResponseBadRequest(w, "Doctor ID is required", nil)
		return
	}

	queue, err := h.service.GetQueue(r.Context(), doctorID)
	if err != nil {
		handleServiceError(w, h.log, err, "get queue")
		return
	}

	utils.ResponseSuccess(w, "success", queue)
}

// UpdateStatus handles PATCH /api/token/{id}/status (doctor)
func (h *TokenHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	actorID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	tokenID := chi.URLParam(r, "id")
	if tokenID == "" {
		utils.ResponseBadRequest(w, "Token ID is required", nil)
		return
	}

	var req request.UpdateTokenStatusRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	token, err := h.service.UpdateStatus(r.Context(), actorID, tokenID, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "update token status")
		return
	}

	utils.ResponseSuccess(w, "Status updated", token)
}
