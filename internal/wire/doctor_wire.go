package wire

import (
	"opd-queue/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireDoctor(r chi.Router, h *adaptor.DoctorHandler, g guards) {
	r.Route("/api/doctors", func(r chi.Router) {
		r.Get("/", h.List)
		r.With(g.auth, g.doctor).Get("/profile/me", h.Profile)
		r.Get("/{id}", h.Get)
	})

	r.Route("/api/admin/doctors", func(r chi.Router) {
		r.Use(g.auth, g.admin)
		r.Post("/", h.Create)
		r.Put("/{id}", h.Update)
	})
}
