package usecase

import (
	"context"
	"fmt"
	"time"

	"opd-queue/internal/data/entity"
	"opd-queue/internal/data/repository"
	"opd-queue/internal/dto/request"
	"opd-queue/internal/dto/response"
	"opd-queue/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ConsultationOTPService gates completion of a consultation on a code the
// patient confirms in the room.
type ConsultationOTPService interface {
	// RequestCompletion issues a fresh code for the token and moves it to PENDING_VERIFICATION.
	RequestCompletion(ctx context.Context, actorID uuid.UUID, req *request.GenerateConsultationOTPRequest) error
	Verify(ctx context.Context, req *request.VerifyConsultationOTPRequest) (*response.VerifyConsultationOTPResponse, error)
	GetStatus(ctx context.Context, tokenID string) (*response.ConsultationOTPStatusResponse, error)
	PatientLatestStatus(ctx context.Context, patientID uuid.UUID) (*response.ConsultationOTPStatusResponse, error)
}

type consultationOTPService struct {
	repo     *repository.Repository
	gateways Gateways
	config   utils.OTPConfig
	log      *zap.Logger
	now      func() time.Time
}

func NewConsultationOTPService(repo *repository.Repository, gateways Gateways, config utils.OTPConfig, log *zap.Logger) ConsultationOTPService {
	return &consultationOTPService{
		repo:     repo,
		gateways: gateways,
		config:   config,
		log:      log.With(zap.String("service", "consultation_otp")),
		now:      time.Now,
	}
}

func parseTokenID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid token ID format %s", ErrValidation, raw)
	}
	return id, nil
}

func (s *consultationOTPService) findToken(ctx context.Context, tokenID uuid.UUID) (*entity.Token, error) {
	token, err := s.repo.Token.FindByID(ctx, tokenID)
	if err != nil {
		return nil, fmt.Errorf("find token: %w", err)
	}
	if token == nil {
		return nil, fmt.Errorf("%w: token %s", ErrNotFound, tokenID.String())
	}
	return token, nil
}

func (s *consultationOTPService) RequestCompletion(ctx context.Context, actorID uuid.UUID, req *request.GenerateConsultationOTPRequest) error {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}
	tokenID, err := parseTokenID(req.TokenID)
	if err != nil {
		return err
	}

	token, err := s.findToken(ctx, tokenID)
	if err != nil {
		return err
	}
	if !token.Status.CanTransitionTo(entity.TokenStatusPendingVerification) {
		return fmt.Errorf("%w: cannot request completion of a %s token", ErrInvalidTransition, token.Status)
	}

	rec, err := s.repo.ConsultationOTP.FindByTokenID(ctx, tokenID)
	if err != nil {
		return fmt.Errorf("find consultation otp: %w", err)
	}
	if rec != nil && rec.Verified {
		return fmt.Errorf("%w: consultation already verified", ErrAlreadyVerified)
	}

	code, err := utils.GenerateOTP()
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}
	hash, err := utils.HashOTP(code)
	if err != nil {
		return fmt.Errorf("hash otp: %w", err)
	}

	now := s.now()
	if rec == nil {
		rec = &entity.ConsultationOTP{Row: entity.NewRow(now), TokenID: tokenID}
	}
	rec.OTPHash = hash
	rec.ExpiresAt = now.Add(s.config.ConsultationExpiry)
	rec.GeneratedAt = now
	rec.Verified = false
	rec.Attempts = 0
	rec.Touch(now)

	// A regenerated code leaves an already pending token untouched.
	from := token.Status
	var moved *entity.Token
	if from != entity.TokenStatusPendingVerification {
		token.Status = entity.TokenStatusPendingVerification
		token.Touch(now)
		moved = token
	}

	if err := s.repo.ConsultationOTP.Issue(ctx, rec, moved); err != nil {
		return fmt.Errorf("issue consultation otp: %w", err)
	}
	if moved != nil {
		tokenTransitions.WithLabelValues(string(token.Status)).Inc()
	}

	var fx effects
	if token.PatientID != nil {
		patientID := *token.PatientID
		fx.add("push_code", func(ctx context.Context) error {
			return s.gateways.Broadcaster.Publish(ctx, patientID.String(), EventConsultationOTP, map[string]any{
				"tokenId": tokenID.String(),
				"code":    code,
			})
		})
		fx.add("notify_patient", func(ctx context.Context) error {
			return s.gateways.Notifier.Notify(ctx, patientID, "Your consultation verification code is generated.", entity.SeverityInfo)
		})
	} else {
		fx.add("sms_code", func(ctx context.Context) error {
			return s.gateways.SMS.Send(ctx, token.PatientMobile, fmt.Sprintf("Your consultation verification code is %s", code))
		})
	}
	fx.add("queue_update", func(ctx context.Context) error {
		return s.gateways.Broadcaster.Publish(ctx, token.DoctorID.String(), EventQueueUpdate, queueUpdatePayload(QueueUpdateStatusUpdate, token))
	})
	if from != token.Status {
		fx.add("audit", func(ctx context.Context) error {
			return s.gateways.Audit.Record(ctx, entity.AuditTokenStatusChange, actorID, map[string]any{
				"tokenId": tokenID.String(),
				"from":    string(from),
				"to":      string(token.Status),
			})
		})
	}
	fx.run(ctx, s.log)

	s.log.Info("Consultation OTP generated",
		zap.String("token_id", tokenID.String()),
		zap.Time("expires_at", rec.ExpiresAt),
	)
	return nil
}

func (s *consultationOTPService) Verify(ctx context.Context, req *request.VerifyConsultationOTPRequest) (*response.VerifyConsultationOTPResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}
	tokenID, err := parseTokenID(req.TokenID)
	if err != nil {
		return nil, err
	}

	if _, err := s.findToken(ctx, tokenID); err != nil {
		return nil, err
	}

	rec, err := s.repo.ConsultationOTP.FindByTokenID(ctx, tokenID)
	if err != nil {
		return nil, fmt.Errorf("find consultation otp: %w", err)
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: consultation otp for token %s", ErrNotFound, tokenID.String())
	}

	now := s.now()
	switch entity.ConsultationOTPStatusOf(rec, now) {
	case entity.ConsultationOTPVerified:
		return nil, fmt.Errorf("%w: consultation already verified", ErrAlreadyVerified)
	case entity.ConsultationOTPExpired:
		otpVerifications.WithLabelValues("consultation", "expired").Inc()
		return nil, fmt.Errorf("%w: consultation otp expired", ErrExpired)
	}

	if !utils.CompareOTP(req.Code, rec.OTPHash) {
		rec.Attempts++
		rec.Touch(now)
		if err := s.repo.ConsultationOTP.Update(ctx, rec); err != nil {
			return nil, fmt.Errorf("record failed attempt: %w", err)
		}
		otpVerifications.WithLabelValues("consultation", "mismatch").Inc()
		return nil, ErrInvalidCode
	}

	rec.Verified = true
	rec.Touch(now)
	if err := s.repo.ConsultationOTP.Update(ctx, rec); err != nil {
		return nil, fmt.Errorf("mark consultation verified: %w", err)
	}

	otpVerifications.WithLabelValues("consultation", "verified").Inc()
	s.log.Info("Consultation verified", zap.String("token_id", tokenID.String()))
	return &response.VerifyConsultationOTPResponse{Verified: true}, nil
}

func (s *consultationOTPService) GetStatus(ctx context.Context, tokenID string) (*response.ConsultationOTPStatusResponse, error) {
	if tokenID == "" {
		return nil, fmt.Errorf("%w: token ID required", ErrValidation)
	}
	id, err := parseTokenID(tokenID)
	if err != nil {
		return nil, err
	}

	rec, err := s.repo.ConsultationOTP.FindByTokenID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find consultation otp: %w", err)
	}

	return convertOTPStatus(rec, entity.ConsultationOTPStatusOf(rec, s.now())), nil
}

func (s *consultationOTPService) PatientLatestStatus(ctx context.Context, patientID uuid.UUID) (*response.ConsultationOTPStatusResponse, error) {
	token, err := s.repo.Token.FindLatestByPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("find latest token: %w", err)
	}
	if token == nil {
		return convertOTPStatus(nil, entity.ConsultationOTPNone), nil
	}

	rec, err := s.repo.ConsultationOTP.FindByTokenID(ctx, token.ID)
	if err != nil {
		return nil, fmt.Errorf("find consultation otp: %w", err)
	}

	return convertOTPStatus(rec, entity.ConsultationOTPStatusOf(rec, s.now())), nil
}
