package repository

import (
	"opd-queue/pkg/database"

	"go.uber.org/zap"
)

type Repository struct {
	User            UserRepository
	Session         SessionRepository
	Doctor          DoctorRepository
	Token           TokenRepository
	PhoneOTP        PhoneOTPRepository
	ConsultationOTP ConsultationOTPRepository
	Consultation    ConsultationRepository
	AuditLog        AuditLogRepository
	Notification    NotificationRepository
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	return &Repository{
		User:            NewUserRepository(db, log),
		Session:         NewSessionRepository(db, log),
		Doctor:          NewDoctorRepository(db, log),
		Token:           NewTokenRepository(db, log),
		PhoneOTP:        NewPhoneOTPRepository(db, log),
		ConsultationOTP: NewConsultationOTPRepository(db, log),
		Consultation:    NewConsultationRepository(db, log),
		AuditLog:        NewAuditLogRepository(db, log),
		Notification:    NewNotificationRepository(db, log),
	}
}
