package usecase

import (
	"opd-queue/internal/data/repository"
	"opd-queue/pkg/utils"

	"go.uber.org/zap"
)

type Service struct {
	PhoneOTP        PhoneOTPService
	ConsultationOTP ConsultationOTPService
	Token           TokenService
	Consultation    ConsultationService
	Doctor          DoctorService
}

func NewService(repo *repository.Repository, gateways Gateways, config *utils.Config, log *zap.Logger) *Service {
	return &Service{
		PhoneOTP:        NewPhoneOTPService(repo.PhoneOTP, gateways.SMS, config.OTP, log),
		ConsultationOTP: NewConsultationOTPService(repo, gateways, config.OTP, log),
		Token:           NewTokenService(repo, gateways, config.Queue, log),
		Consultation:    NewConsultationService(repo, gateways, log),
		Doctor:          NewDoctorService(repo.Doctor, log),
	}
}
