package wire

import (
	"opd-queue/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireOTP(r chi.Router, h *adaptor.OTPHandler, g guards) {
	r.Route("/api/otp", func(r chi.Router) {
		r.Use(g.otpLimit)
		r.Post("/send", h.SendPhoneOTP)
		r.Post("/verify", h.VerifyPhoneOTP)
	})

	r.Route("/api/consultation-otp", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(g.auth, g.doctor)
			r.With(g.consultLimit).Post("/generate", h.GenerateConsultationOTP)
			r.With(g.consultLimit).Post("/verify", h.VerifyConsultationOTP)
			r.Get("/latest", h.LatestConsultationOTP)
		})

		r.With(g.auth, g.patient).Get("/patient/last-otp", h.PatientLastOTP)
	})
}
