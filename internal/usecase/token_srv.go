package usecase

import (
	"context"
	"errors"
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

// TokenService owns the token lifecycle up to PENDING_VERIFICATION and the live queue.
type TokenService interface {
	// BookToken books for an authenticated patient when patientID is set, otherwise as a guest.
	BookToken(ctx context.Context, patientID *uuid.UUID, req *request.BookTokenRequest) (*response.BookingResponse, error)
	GetQueue(ctx context.Context, doctorID string) ([]response.QueueEntryResponse, error)
	// UpdateStatus accepts IN_PROGRESS and NO_SHOW only; completion goes through the consultation service.
	UpdateStatus(ctx context.Context, actorID uuid.UUID, tokenID string, req *request.UpdateTokenStatusRequest) (*response.TokenResponse, error)
	StartConsult(ctx context.Context, actorID, tokenID uuid.UUID) (*response.TokenResponse, error)
	MarkNoShow(ctx context.Context, actorID, tokenID uuid.UUID) (*response.TokenResponse, error)
}

type tokenService struct {
	repo     *repository.Repository
	gateways Gateways
	config   utils.QueueConfig
	log      *zap.Logger
	now      func() time.Time
}

func NewTokenService(repo *repository.Repository, gateways Gateways, config utils.QueueConfig, log *zap.Logger) TokenService {
	return &tokenService{
		repo:     repo,
		gateways: gateways,
		config:   config,
		log:      log.With(zap.String("service", "token")),
		now:      time.Now,
	}
}

func queueUpdatePayload(kind string, t *entity.Token) map[string]any {
	return map[string]any{
		"type":  kind,
		"token": convertTokenResponse(t),
	}
}

func (s *tokenService) BookToken(ctx context.Context, patientID *uuid.UUID, req *request.BookTokenRequest) (*response.BookingResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Book token validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	doctorID, err := uuid.Parse(req.DoctorID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid doctor ID format %s", ErrValidation, req.DoctorID)
	}

	now := s.now()
	visitDate := utils.StartOfDay(now)
	if req.VisitDate != "" {
		parsed, err := utils.ParseDate(req.VisitDate)
		if err != nil {
			return nil, fmt.Errorf("%w: visitDate must be YYYY-MM-DD", ErrValidation)
		}
		visitDate = utils.StartOfDay(*parsed)
		if visitDate.Before(utils.StartOfDay(now)) {
			return nil, fmt.Errorf("%w: visitDate is in the past", ErrValidation)
		}
	}

	doctor, err := s.repo.Doctor.FindByID(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("find doctor: %w", err)
	}
	if doctor == nil {
		return nil, fmt.Errorf("%w: doctor %s", ErrNotFound, req.DoctorID)
	}
	if !doctor.Active {
		return nil, fmt.Errorf("%w: Dr. %s", ErrDoctorInactive, doctor.Name)
	}

	if patientID != nil {
		user, err := s.repo.User.FindByID(ctx, *patientID)
		if err != nil {
			return nil, fmt.Errorf("find patient: %w", err)
		}
		if user != nil && user.IsSuspended(now) {
			return nil, fmt.Errorf("%w: until %s due to frequent no-shows",
				ErrBookingSuspended, user.BookingCooldownUntil.Format(time.RFC3339))
		}
	}

	// Early check for a precise message; CreateBooked re-checks atomically.
	phoneOTP, err := s.repo.PhoneOTP.FindByPhone(ctx, req.PatientMobile)
	if err != nil {
		return nil, fmt.Errorf("find phone otp: %w", err)
	}
	if phoneOTP == nil || !phoneOTP.Consumable() {
		reason := "phone verification required before booking"
		if phoneOTP != nil && phoneOTP.UsedForBooking {
			reason = "otp already used for booking"
		}
		return nil, fmt.Errorf("%w: %s", ErrPhoneNotVerified, reason)
	}

	activeBefore, err := s.repo.Token.CountActiveByDoctorAndDate(ctx, doctorID, visitDate)
	if err != nil {
		return nil, fmt.Errorf("count active tokens: %w", err)
	}

	priority := entity.PriorityNormal
	if req.Priority != "" {
		priority = entity.Priority(req.Priority)
	}

	token := &entity.Token{
		Row:             entity.NewRow(now),
		DoctorID:        doctorID,
		PatientID:       patientID,
		PatientName:     req.PatientName,
		PatientAge:      req.PatientAge,
		PatientGender:   req.PatientGender,
		PatientMobile:   req.PatientMobile,
		Reason:          req.Reason,
		VisitDate:       visitDate,
		Priority:        priority,
		Status:          entity.TokenStatusWaiting,
		PaymentStatus:   entity.PaymentStatusNA,
		ConsultationFee: doctor.ConsultationFee,
	}

	if err := s.repo.Token.CreateBooked(ctx, token, req.PatientMobile, now); err != nil {
		if errors.Is(err, repository.ErrPhoneOTPUnavailable) {
			return nil, fmt.Errorf("%w: otp already used for booking", ErrPhoneNotVerified)
		}
		return nil, fmt.Errorf("create token: %w", err)
	}
	tokensBooked.WithLabelValues(string(priority)).Inc()

	result := &response.BookingResponse{
		Token:    convertTokenResponse(token),
		WaitTime: doctor.EstimatedWait(activeBefore),
	}
	if activeBefore+1 > s.config.SuggestThreshold {
		result.Suggestion = s.suggestAlternative(ctx, doctor, visitDate)
	}

	var fx effects
	fx.add("queue_update", func(ctx context.Context) error {
		return s.gateways.Broadcaster.Publish(ctx, doctorID.String(), EventQueueUpdate, queueUpdatePayload(QueueUpdateNewToken, token))
	})
	if patientID != nil {
		fx.add("notify_patient", func(ctx context.Context) error {
			msg := fmt.Sprintf("Token #%d booked successfully for Dr. %s", token.TokenNumber, doctor.Name)
			if priority == entity.PriorityEmergency {
				msg = fmt.Sprintf("EMERGENCY Token #%d booked!", token.TokenNumber)
			}
			return s.gateways.Notifier.Notify(ctx, *patientID, msg, entity.SeveritySuccess)
		})
		fx.add("audit", func(ctx context.Context) error {
			return s.gateways.Audit.Record(ctx, entity.AuditBookToken, *patientID, map[string]any{
				"tokenId":     token.ID.String(),
				"doctorId":    doctorID.String(),
				"tokenNumber": token.TokenNumber,
				"priority":    string(priority),
			})
		})
	}
	fx.run(ctx, s.log)

	s.log.Info("Token booked",
		zap.String("token_id", token.ID.String()),
		zap.String("doctor_id", doctorID.String()),
		zap.Int("token_number", token.TokenNumber),
		zap.Int("queue_before", activeBefore),
	)

	return result, nil
}

// suggestAlternative returns the first active same-department doctor whose
// queue is below the configured maximum. Lookup failures only drop the suggestion.
func (s *tokenService) suggestAlternative(ctx context.Context, doctor *entity.Doctor, visitDate time.Time) *response.SuggestionResponse {
	alternatives, err := s.repo.Doctor.FindActiveByDepartment(ctx, doctor.Department, doctor.ID)
	if err != nil {
		s.log.Warn("Failed to load alternative doctors", zap.Error(err))
		return nil
	}

	for _, alt := range alternatives {
		queueLen, err := s.repo.Token.CountActiveByDoctorAndDate(ctx, alt.ID, visitDate)
		if err != nil {
			s.log.Warn("Failed to count alternative queue",
				zap.Error(err),
				zap.String("doctor_id", alt.ID.String()),
			)
			continue
		}
		if queueLen < s.config.AltQueueMax {
			return &response.SuggestionResponse{
				DoctorID:   alt.ID.String(),
				DoctorName: alt.Name,
				WaitTime:   alt.EstimatedWait(queueLen),
				Message:    fmt.Sprintf("Dr. %s has a long wait. Dr. %s is available sooner.", doctor.Name, alt.Name),
			}
		}
	}

	return nil
}

func (s *tokenService) GetQueue(ctx context.Context, doctorID string) ([]response.QueueEntryResponse, error) {
	id, err := uuid.Parse(doctorID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid doctor ID format %s", ErrValidation, doctorID)
	}

	tokens, err := s.repo.Token.FindActiveByDoctorAndDate(ctx, id, utils.StartOfDay(s.now()))
	if err != nil {
		return nil, fmt.Errorf("load queue: %w", err)
	}

	ordered := OrderQueue(tokens)
	queue := make([]response.QueueEntryResponse, len(ordered))
	for i, t := range ordered {
		queue[i] = response.QueueEntryResponse{
			TokenResponse: convertTokenResponse(t),
			Position:      i + 1,
		}
	}

	return queue, nil
}

func (s *tokenService) UpdateStatus(ctx context.Context, actorID uuid.UUID, tokenID string, req *request.UpdateTokenStatusRequest) (*response.TokenResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	id, err := parseTokenID(tokenID)
	if err != nil {
		return nil, err
	}

	switch entity.TokenStatus(req.Status) {
	case entity.TokenStatusInProgress:
		return s.StartConsult(ctx, actorID, id)
	case entity.TokenStatusNoShow:
		return s.MarkNoShow(ctx, actorID, id)
	case entity.TokenStatusDone:
		return nil, fmt.Errorf("%w: DONE requires a verified consultation, use consultation completion", ErrInvalidTransition)
	default:
		return nil, fmt.Errorf("%w: status %s cannot be set directly", ErrInvalidTransition, req.Status)
	}
}

func (s *tokenService) loadToken(ctx context.Context, tokenID uuid.UUID) (*entity.Token, error) {
	token, err := s.repo.Token.FindByID(ctx, tokenID)
	if err != nil {
		return nil, fmt.Errorf("find token: %w", err)
	}
	if token == nil {
		return nil, fmt.Errorf("%w: token %s", ErrNotFound, tokenID.String())
	}
	return token, nil
}

func (s *tokenService) StartConsult(ctx context.Context, actorID, tokenID uuid.UUID) (*response.TokenResponse, error) {
	token, err := s.loadToken(ctx, tokenID)
	if err != nil {
		return nil, err
	}

	from := token.Status
	if !from.CanTransitionTo(entity.TokenStatusInProgress) {
		return nil, fmt.Errorf("%w: cannot start a %s token", ErrInvalidTransition, from)
	}

	now := s.now()
	token.Status = entity.TokenStatusInProgress
	token.StartTime = &now
	token.Touch(now)

	if err := s.repo.Token.Update(ctx, token); err != nil {
		return nil, fmt.Errorf("update token: %w", err)
	}
	tokenTransitions.WithLabelValues(string(token.Status)).Inc()

	var fx effects
	if token.PatientID != nil {
		patientID := *token.PatientID
		fx.add("notify_patient", func(ctx context.Context) error {
			name := "your doctor"
			if doctor, err := s.repo.Doctor.FindByID(ctx, token.DoctorID); err == nil && doctor != nil {
				name = "Dr. " + doctor.Name
			}
			return s.gateways.Notifier.Notify(ctx, patientID, fmt.Sprintf("Your turn with %s is starting now!", name), entity.SeverityAlert)
		})
	}
	fx.add("notify_next", func(ctx context.Context) error {
		next, err := s.repo.Token.FindNextWaiting(ctx, token.DoctorID, token.VisitDate, token.ID)
		if err != nil {
			return err
		}
		if next == nil || next.PatientID == nil {
			return nil
		}
		return s.gateways.Notifier.Notify(ctx, *next.PatientID, "You are next in line! Please be ready.", entity.SeverityInfo)
	})
	s.addTransitionEffects(&fx, actorID, token, from)
	fx.run(ctx, s.log)

	s.log.Info("Consultation started",
		zap.String("token_id", token.ID.String()),
		zap.String("doctor_id", token.DoctorID.String()),
	)

	resp := convertTokenResponse(token)
	return &resp, nil
}

func (s *tokenService) MarkNoShow(ctx context.Context, actorID, tokenID uuid.UUID) (*response.TokenResponse, error) {
	token, err := s.loadToken(ctx, tokenID)
	if err != nil {
		return nil, err
	}

	from := token.Status
	if !from.CanTransitionTo(entity.TokenStatusNoShow) {
		return nil, fmt.Errorf("%w: cannot mark a %s token as no-show", ErrInvalidTransition, from)
	}

	now := s.now()
	token.Status = entity.TokenStatusNoShow
	token.Touch(now)

	if err := s.repo.Token.Update(ctx, token); err != nil {
		return nil, fmt.Errorf("update token: %w", err)
	}
	tokenTransitions.WithLabelValues(string(token.Status)).Inc()

	var fx effects
	if token.PatientID != nil {
		// The token is already NO_SHOW; a failed penalty write is logged, not returned.
		user, suspended, err := s.penalizeNoShow(ctx, *token.PatientID, now)
		if err != nil {
			s.log.Error("Failed to apply no-show penalty",
				zap.Error(err),
				zap.String("patient_id", token.PatientID.String()),
			)
		}
		if user != nil {
			fx.add("notify_patient", func(ctx context.Context) error {
				if suspended {
					msg := fmt.Sprintf("Booking suspended until %s due to frequent no-shows.",
						user.BookingCooldownUntil.Format(time.Kitchen))
					return s.gateways.Notifier.Notify(ctx, user.ID, msg, entity.SeverityAlert)
				}
				msg := fmt.Sprintf("You were marked as no-show (%d/%d). Repeated no-shows will suspend booking.",
					user.NoShowCount, s.config.NoShowLimit)
				return s.gateways.Notifier.Notify(ctx, user.ID, msg, entity.SeverityWarning)
			})
			fx.add("audit_no_show", func(ctx context.Context) error {
				return s.gateways.Audit.Record(ctx, entity.AuditMarkNoShow, actorID, map[string]any{
					"tokenId":     token.ID.String(),
					"patientId":   user.ID.String(),
					"noShowCount": user.NoShowCount,
					"suspended":   suspended,
				})
			})
		}
	}
	s.addTransitionEffects(&fx, actorID, token, from)
	fx.run(ctx, s.log)

	s.log.Info("Token marked no-show", zap.String("token_id", token.ID.String()))

	resp := convertTokenResponse(token)
	return &resp, nil
}

// penalizeNoShow counts a no-show against the patient and reports whether it started a cooldown.
func (s *tokenService) penalizeNoShow(ctx context.Context, patientID uuid.UUID, now time.Time) (*entity.User, bool, error) {
	user, err := s.repo.User.FindByID(ctx, patientID)
	if err != nil {
		return nil, false, fmt.Errorf("find patient: %w", err)
	}
	if user == nil {
		return nil, false, nil
	}

	suspended := user.RegisterNoShow(now, s.config.NoShowLimit, s.config.NoShowCooldown)
	if err := s.repo.User.UpdateNoShow(ctx, user); err != nil {
		return nil, false, fmt.Errorf("save no-show count: %w", err)
	}

	if suspended {
		s.log.Warn("Patient booking suspended",
			zap.String("patient_id", patientID.String()),
			zap.Time("until", *user.BookingCooldownUntil),
		)
	}
	return user, suspended, nil
}

func (s *tokenService) addTransitionEffects(fx *effects, actorID uuid.UUID, token *entity.Token, from entity.TokenStatus) {
	fx.add("queue_update", func(ctx context.Context) error {
		return s.gateways.Broadcaster.Publish(ctx, token.DoctorID.String(), EventQueueUpdate, queueUpdatePayload(QueueUpdateStatusUpdate, token))
	})
	fx.add("audit", func(ctx context.Context) error {
		return s.gateways.Audit.Record(ctx, entity.AuditTokenStatusChange, actorID, map[string]any{
			"tokenId": token.ID.String(),
			"from":    string(from),
			"to":      string(token.Status),
		})
	})
}
