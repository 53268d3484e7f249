package wire

import (
	"opd-queue/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireConsultation(r chi.Router, h *adaptor.ConsultationHandler, g guards) {
	r.Route("/api/consultations", func(r chi.Router) {
		r.Use(g.auth)

		r.With(g.doctor).Post("/complete", h.Complete)
		r.With(g.doctor).Get("/doctor/history", h.DoctorHistory)
		r.With(g.patient).Get("/patient/history", h.PatientHistory)
	})
}
