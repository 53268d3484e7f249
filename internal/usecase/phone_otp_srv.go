package usecase

import (
	"context"
	"fmt"
	"time"

	"opd-queue/internal/data/entity"
	"opd-queue/internal/data/repository"
	"opd-queue/internal/dto/request"
	"opd-queue/pkg/utils"

	"go.uber.org/zap"
)

// PhoneOTPService proves phone ownership once before a booking.
type PhoneOTPService interface {
	Send(ctx context.Context, req *request.SendOTPRequest) error
	Verify(ctx context.Context, req *request.VerifyOTPRequest) error
}

type phoneOTPService struct {
	repo   repository.PhoneOTPRepository
	sms    SMSDispatcher
	config utils.OTPConfig
	log    *zap.Logger
	now    func() time.Time
}

func NewPhoneOTPService(repo repository.PhoneOTPRepository, sms SMSDispatcher, config utils.OTPConfig, log *zap.Logger) PhoneOTPService {
	return &phoneOTPService{
		repo:   repo,
		sms:    sms,
		config: config,
		log:    log.With(zap.String("service", "phone_otp")),
		now:    time.Now,
	}
}

func (s *phoneOTPService) validatePhone(req any, phone string) error {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}
	if !utils.IsValidPhone(phone) {
		return fmt.Errorf("%w: invalid phone number format", ErrValidation)
	}
	return nil
}

func (s *phoneOTPService) Send(ctx context.Context, req *request.SendOTPRequest) error {
	if err := s.validatePhone(req, req.PhoneNumber); err != nil {
		return err
	}

	now := s.now()
	rec, err := s.repo.FindByPhone(ctx, req.PhoneNumber)
	if err != nil {
		return fmt.Errorf("find phone otp: %w", err)
	}
	if rec != nil && rec.IsLocked(now) {
		s.log.Warn("OTP send rejected, number locked", zap.String("phone_number", req.PhoneNumber))
		return fmt.Errorf("%w: try again after %s", ErrRateLimited, rec.LockedUntil.Format(time.Kitchen))
	}

	code, err := utils.GenerateOTP()
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}
	hash, err := utils.HashOTP(code)
	if err != nil {
		return fmt.Errorf("hash otp: %w", err)
	}

	if rec == nil {
		rec = entity.NewPhoneOTP(req.PhoneNumber, now)
	}
	rec.Reset(hash, now.Add(s.config.PhoneExpiry), now)

	if err := s.repo.Upsert(ctx, rec); err != nil {
		return fmt.Errorf("save phone otp: %w", err)
	}

	var fx effects
	fx.add("sms", func(ctx context.Context) error {
		return s.sms.Send(ctx, req.PhoneNumber, fmt.Sprintf("Your verification code is %s", code))
	})
	fx.run(ctx, s.log)

	s.log.Info("Phone OTP sent", zap.String("phone_number", req.PhoneNumber))
	return nil
}

func (s *phoneOTPService) Verify(ctx context.Context, req *request.VerifyOTPRequest) error {
	if err := s.validatePhone(req, req.PhoneNumber); err != nil {
		return err
	}

	now := s.now()
	rec, err := s.repo.FindByPhone(ctx, req.PhoneNumber)
	if err != nil {
		return fmt.Errorf("find phone otp: %w", err)
	}
	if rec == nil {
		return fmt.Errorf("%w: otp not found, please request again", ErrNotFound)
	}
	if rec.IsLocked(now) {
		otpVerifications.WithLabelValues("phone", "locked").Inc()
		return fmt.Errorf("%w: try again after %s", ErrRateLimited, rec.LockedUntil.Format(time.Kitchen))
	}
	if rec.IsExpired(now) {
		otpVerifications.WithLabelValues("phone", "expired").Inc()
		return fmt.Errorf("%w: please request a new one", ErrExpired)
	}

	if !utils.CompareOTP(req.Code, rec.OTPHash) {
		rec.Attempts++
		if rec.Attempts >= s.config.PhoneMaxAttempts {
			lock := now.Add(s.config.PhoneLockDuration)
			rec.LockedUntil = &lock
			s.log.Warn("Phone number locked after failed attempts",
				zap.String("phone_number", req.PhoneNumber),
				zap.Int("attempts", rec.Attempts),
			)
		}
		rec.Touch(now)
		if err := s.repo.Update(ctx, rec); err != nil {
			return fmt.Errorf("record failed attempt: %w", err)
		}
		otpVerifications.WithLabelValues("phone", "mismatch").Inc()
		return ErrInvalidCode
	}

	// The hash stays in place; UsedForBooking guards against reuse.
	rec.Verified = true
	rec.Touch(now)
	if err := s.repo.Update(ctx, rec); err != nil {
		return fmt.Errorf("mark phone verified: %w", err)
	}

	otpVerifications.WithLabelValues("phone", "verified").Inc()
	s.log.Info("Phone number verified", zap.String("phone_number", req.PhoneNumber))
	return nil
}
