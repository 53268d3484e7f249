package adaptor

import (
	"net/http"

	"opd-queue/internal/dto/request"
	"opd-queue/internal/usecase"
	"opd-queue/pkg/utils"

	"go.uber.org/zap"
)

type ConsultationHandler struct {
	service usecase.ConsultationService
	log     *zap.Logger
}

func NewConsultationHandler(service usecase.ConsultationService, log *zap.Logger) *ConsultationHandler {
	return &ConsultationHandler{
		service: service,
		log:     log.With(zap.String("handler", "consultation")),
	}
}

// Complete handles POST /api/consultations/complete (doctor)
func (h *ConsultationHandler) Complete(w http.ResponseWriter, r *http.Request) {
	actorID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.CompleteConsultationRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	consultation, err := h.service.Complete(r.Context(), actorID, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "complete consultation")
		return
	}

	utils.ResponseSuccess(w, "Consultation completed", consultation)
}

func parseHistoryQuery(r *http.Request) *request.ConsultationHistoryRequest {
	query := r.URL.Query()
	return &request.ConsultationHistoryRequest{
		PaginatedRequest: request.PaginatedRequest{
			Page:    utils.ParseInt(query.Get("page"), 1),
			PerPage: utils.ParseInt(query.Get("per_page"), 10),
		},
		StartDate:       query.Get("startDate"),
		EndDate:         query.Get("endDate"),
		ProblemCategory: query.Get("problemCategory"),
	}
}

// PatientHistory handles GET /api/consultations/patient/history (patient)
func (h *ConsultationHandler) PatientHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	history, err := h.service.PatientHistory(r.Context(), userID, parseHistoryQuery(r))
	if err != nil {
		handleServiceError(w, h.log, err, "get patient history")
		return
	}

	utils.ResponseSuccess(w, "success", history)
}

// DoctorHistory handles GET /api/consultations/doctor/history (doctor)
func (h *ConsultationHandler) DoctorHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	history, err := h.service.DoctorHistory(r.Context(), userID, parseHistoryQuery(r))
	if err != nil {
		handleServiceError(w, h.log, err, "get doctor history")
		return
	}

	utils.ResponseSuccess(w, "success", history)
}
