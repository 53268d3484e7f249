package adaptor

import (
	"net/http"

	"opd-queue/internal/dto/request"
	"opd-queue/internal/usecase"
	"opd-queue/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type DoctorHandler struct {
	service usecase.DoctorService
	log     *zap.Logger
}

func NewDoctorHandler(service usecase.DoctorService, log *zap.Logger) *DoctorHandler {
	return &DoctorHandler{
		service: service,
		log:     log.With(zap.String("handler", "doctor")),
	}
}

// List handles GET /api/doctors (public)
func (h *DoctorHandler) List(w http.ResponseWriter, r *http.Request) {
	doctors, err := h.service.ListActive(r.Context())
	if err != nil {
		handleServiceError(w, h.log, err, "list doctors")
		return
	}

	utils.ResponseSuccess(w, "success", doctors)
}

// Get handles GET /api/doctors/{id} (public)
func (h *DoctorHandler) Get(w http.ResponseWriter, r *http.Request) {
	doctor, err := h.service.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err, "get doctor")
		return
	}

	utils.ResponseSuccess(w, "success", doctor)
}

// Profile handles GET /api/doctors/profile/me (doctor)
func (h *DoctorHandler) Profile(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	doctor, err := h.service.Profile(r.Context(), userID)
	if err != nil {
		handleServiceError(w, h.log, err, "get doctor profile")
		return
	}

	utils.ResponseSuccess(w, "success", doctor)
}

// Create handles POST /api/admin/doctors (admin)
func (h *DoctorHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateDoctorRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	doctor, err := h.service.Create(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "create doctor")
		return
	}

	utils.ResponseCreated(w, "Doctor created", doctor)
}

// Update handles PUT /api/admin/doctors/{id} (admin)
func (h *DoctorHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req request.UpdateDoctorRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	doctor, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "update doctor")
		return
	}

	utils.ResponseSuccess(w, "Doctor updated", doctor)
}
