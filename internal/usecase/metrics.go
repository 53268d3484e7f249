package usecase

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	tokensBooked = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "opd_tokens_booked_total",
		Help: "Tokens created by booking, by priority.",
	}, []string{"priority"})

	tokenTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "opd_token_transitions_total",
		Help: "Token status transitions, by target status.",
	}, []string{"to"})

	otpVerifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "opd_otp_verifications_total",
		Help: "OTP verification attempts, by purpose and result.",
	}, []string{"purpose", "result"})
)
