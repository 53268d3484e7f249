package wire

import (
	"opd-queue/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireToken(r chi.Router, h *adaptor.TokenHandler, g guards) {
	r.Route("/api/token", func(r chi.Router) {
		// GET /api/token/queue/{doctorId} - live queue (public display boards)
		r.Get("/queue/{doctorId}", h.GetQueue)

		r.Group(func(r chi.Router) {
			r.Use(g.auth, g.patient, g.bookingLimit)
			r.Post("/book", h.BookToken)
		})

		r.Group(func(r chi.Router) {
			r.Use(g.auth, g.doctor)
			r.Patch("/{id}/status", h.UpdateStatus)
		})
	})

	// POST /api/admin/token/book - front desk walk-in booking without a patient account
	r.Group(func(r chi.Router) {
		r.Use(g.auth, g.admin, g.bookingLimit)
		r.Post("/api/admin/token/book", h.BookWalkIn)
	})
}
