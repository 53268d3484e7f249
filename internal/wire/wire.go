package wire

import (
	"net/http"
	"time"

	"opd-queue/internal/adaptor"
	"opd-queue/internal/data/entity"
	"opd-queue/internal/data/repository"
	"opd-queue/internal/gateway"
	"opd-queue/internal/usecase"
	"opd-queue/pkg/middleware"
	"opd-queue/pkg/utils"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// App holds the wired HTTP router
type App struct {
	Router *chi.Mux
}

// NewGateways picks the collaborator implementations. A nil redis client or
// missing Twilio credentials fall back to log-only delivery.
func NewGateways(repo *repository.Repository, rdb redis.Cmdable, config *utils.Config, logger *zap.Logger) usecase.Gateways {
	gw := usecase.Gateways{
		Notifier:    gateway.NewNotificationSink(repo.Notification),
		Audit:       gateway.NewAuditSink(repo.AuditLog),
		Broadcaster: gateway.NewLogBroadcaster(logger),
		SMS:         gateway.NewLogSMS(logger),
	}

	if rdb != nil {
		gw.Broadcaster = gateway.NewRedisBroadcaster(rdb, config.Redis.Channel, logger)
	}
	if config.Twilio.Enabled() {
		gw.SMS = gateway.NewTwilioSMS(config.Twilio, logger)
	}
	return gw
}

// Wiring builds services, handlers and routes
func Wiring(repo *repository.Repository, gateways usecase.Gateways, config *utils.Config, logger *zap.Logger) *App {
	service := usecase.NewService(repo, gateways, config, logger)
	handler := adaptor.NewHandler(service, logger)

	return &App{
		Router: setupRouter(handler, repo, config, logger),
	}
}

// guards bundles the auth middleware shared by the route groups
type guards struct {
	auth         func(http.Handler) http.Handler
	patient      func(http.Handler) http.Handler
	doctor       func(http.Handler) http.Handler
	admin        func(http.Handler) http.Handler
	otpLimit     func(http.Handler) http.Handler
	consultLimit func(http.Handler) http.Handler
	bookingLimit func(http.Handler) http.Handler
}

func newGuards(repo *repository.Repository, config *utils.Config, logger *zap.Logger) guards {
	return guards{
		auth:    middleware.AuthSession(repo.Session, repo.User, logger),
		patient: middleware.RequireRole(logger, entity.RolePatient),
		doctor:  middleware.RequireRole(logger, entity.RoleDoctor),
		admin:   middleware.RequireRole(logger, entity.RoleAdmin),
		otpLimit: middleware.NewRateLimiter(config.RateLimit.OTPPer15Min, 15*time.Minute,
			"Too many OTP requests, please try again later").Handler,
		consultLimit: middleware.NewRateLimiter(config.RateLimit.ConsultOTPPer15Min, 15*time.Minute,
			"Too many consultation OTP requests, please try again later").Handler,
		bookingLimit: middleware.NewRateLimiter(config.RateLimit.BookingPerHour, time.Hour,
			"Too many booking attempts, please try again later").Handler,
	}
}

func setupRouter(handler *adaptor.Handler, repo *repository.Repository, config *utils.Config, logger *zap.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.Metrics)

	g := newGuards(repo, config, logger)

	wireToken(r, handler.Token, g)
	wireOTP(r, handler.OTP, g)
	wireConsultation(r, handler.Consultation, g)
	wireDoctor(r, handler.Doctor, g)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		utils.ResponseSuccess(w, "OK", nil)
	})
	r.Handle("/metrics", promhttp.Handler())

	return r
}
