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

const (
	fallbackConsultDuration = 10 * time.Minute
	defaultDepartment       = "General"
)

// ConsultationService finalizes verified consultations and serves their history.
type ConsultationService interface {
	Complete(ctx context.Context, actorID uuid.UUID, req *request.CompleteConsultationRequest) (*response.ConsultationResponse, error)
	PatientHistory(ctx context.Context, patientID uuid.UUID, req *request.ConsultationHistoryRequest) ([]response.ConsultationResponse, error)
	DoctorHistory(ctx context.Context, userID uuid.UUID, req *request.ConsultationHistoryRequest) (*response.PaginatedResponse[response.ConsultationResponse], error)
}

type consultationService struct {
	repo     *repository.Repository
	gateways Gateways
	log      *zap.Logger
	now      func() time.Time
}

func NewConsultationService(repo *repository.Repository, gateways Gateways, log *zap.Logger) ConsultationService {
	return &consultationService{
		repo:     repo,
		gateways: gateways,
		log:      log.With(zap.String("service", "consultation")),
		now:      time.Now,
	}
}

func (s *consultationService) Complete(ctx context.Context, actorID uuid.UUID, req *request.CompleteConsultationRequest) (*response.ConsultationResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}
	tokenID, err := parseTokenID(req.TokenID)
	if err != nil {
		return nil, err
	}

	token, err := s.repo.Token.FindByID(ctx, tokenID)
	if err != nil {
		return nil, fmt.Errorf("find token: %w", err)
	}
	if token == nil {
		return nil, fmt.Errorf("%w: token %s", ErrNotFound, req.TokenID)
	}

	otp, err := s.repo.ConsultationOTP.FindByTokenID(ctx, tokenID)
	if err != nil {
		return nil, fmt.Errorf("find consultation otp: %w", err)
	}
	if otp == nil || !otp.Verified {
		return nil, fmt.Errorf("%w: consultation otp not verified yet", ErrOtpNotVerified)
	}

	from := token.Status
	if !from.CanTransitionTo(entity.TokenStatusDone) {
		return nil, fmt.Errorf("%w: cannot complete a %s token", ErrInvalidTransition, from)
	}

	end := s.now()
	if token.StartTime == nil {
		start := end.Add(-fallbackConsultDuration)
		token.StartTime = &start
		s.log.Warn("Token had no start time, using fallback",
			zap.String("token_id", token.ID.String()),
		)
	}
	duration := end.Sub(*token.StartTime).Minutes()
	token.EndTime = &end
	token.Duration = &duration
	token.Status = entity.TokenStatusDone
	token.Touch(end)

	doctor, err := s.repo.Doctor.FindByID(ctx, token.DoctorID)
	if err != nil {
		return nil, fmt.Errorf("find doctor: %w", err)
	}

	department := defaultDepartment
	if doctor != nil && doctor.Department != "" {
		department = doctor.Department
	}
	category := entity.ProblemOthers
	if req.ProblemCategory != "" {
		category = entity.ProblemCategory(req.ProblemCategory)
	}
	visitReason := token.Reason
	if req.VisitReason != nil && *req.VisitReason != "" {
		visitReason = req.VisitReason
	}

	consultation := &entity.Consultation{
		Row:             entity.NewRow(end),
		PatientID:       token.PatientID,
		DoctorID:        token.DoctorID,
		TokenID:         token.ID,
		Department:      department,
		VisitReason:     visitReason,
		ProblemCategory: category,
		Diagnosis:       req.Diagnosis,
		DoctorNotes:     req.Notes,
		StartTime:       *token.StartTime,
		EndTime:         end,
		Duration:        duration,
		OTPVerified:     true,
		Date:            end,
	}

	if err := s.repo.Consultation.Complete(ctx, token, consultation); err != nil {
		return nil, fmt.Errorf("complete consultation: %w", err)
	}
	tokenTransitions.WithLabelValues(string(token.Status)).Inc()

	if doctor != nil {
		doctor.RecordConsultation(duration, end)
		if err := s.repo.Doctor.UpdateStats(ctx, doctor); err != nil {
			s.log.Error("Failed to update doctor stats",
				zap.Error(err),
				zap.String("doctor_id", doctor.ID.String()),
			)
		}
	}

	var fx effects
	fx.add("queue_update", func(ctx context.Context) error {
		return s.gateways.Broadcaster.Publish(ctx, token.DoctorID.String(), EventQueueUpdate, queueUpdatePayload(QueueUpdateStatusUpdate, token))
	})
	fx.add("audit", func(ctx context.Context) error {
		return s.gateways.Audit.Record(ctx, entity.AuditCompleteConsultation, actorID, map[string]any{
			"tokenId":         token.ID.String(),
			"consultationId":  consultation.ID.String(),
			"from":            string(from),
			"duration":        duration,
			"problemCategory": string(category),
		})
	})
	fx.run(ctx, s.log)

	s.log.Info("Consultation completed",
		zap.String("token_id", token.ID.String()),
		zap.Float64("duration_minutes", duration),
	)

	resp := convertConsultationResponse(consultation)
	if doctor != nil {
		resp.DoctorName = doctor.Name
	}
	return resp, nil
}

func (s *consultationService) buildFilter(req *request.ConsultationHistoryRequest) (entity.ConsultationFilter, error) {
	var filter entity.ConsultationFilter
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return filter, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	// A date range applies only when both ends are given.
	if req.StartDate != "" && req.EndDate != "" {
		start, err := utils.ParseDate(req.StartDate)
		if err != nil {
			return filter, fmt.Errorf("%w: invalid startDate", ErrValidation)
		}
		end, err := utils.ParseDate(req.EndDate)
		if err != nil {
			return filter, fmt.Errorf("%w: invalid endDate", ErrValidation)
		}
		endOfDay := utils.EndOfDay(*end)
		filter.StartDate = start
		filter.EndDate = &endOfDay
	}

	if req.ProblemCategory != "" && req.ProblemCategory != "All" {
		filter.ProblemCategory = entity.ProblemCategory(req.ProblemCategory)
	}

	return filter, nil
}

func (s *consultationService) PatientHistory(ctx context.Context, patientID uuid.UUID, req *request.ConsultationHistoryRequest) ([]response.ConsultationResponse, error) {
	filter, err := s.buildFilter(req)
	if err != nil {
		return nil, err
	}

	history, err := s.repo.Consultation.FindByPatientID(ctx, patientID, filter)
	if err != nil {
		return nil, fmt.Errorf("load patient history: %w", err)
	}

	result := make([]response.ConsultationResponse, len(history))
	for i, c := range history {
		result[i] = convertConsultationDetail(c)
	}
	return result, nil
}

func (s *consultationService) DoctorHistory(ctx context.Context, userID uuid.UUID, req *request.ConsultationHistoryRequest) (*response.PaginatedResponse[response.ConsultationResponse], error) {
	filter, err := s.buildFilter(req)
	if err != nil {
		return nil, err
	}

	doctor, err := s.repo.Doctor.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("find doctor profile: %w", err)
	}
	if doctor == nil {
		return nil, fmt.Errorf("%w: doctor profile", ErrNotFound)
	}

	filter.Limit = req.Limit()
	filter.Offset = req.Offset()

	history, err := s.repo.Consultation.FindByDoctorID(ctx, doctor.ID, filter)
	if err != nil {
		return nil, fmt.Errorf("load doctor history: %w", err)
	}
	total, err := s.repo.Consultation.CountByDoctorID(ctx, doctor.ID, filter)
	if err != nil {
		return nil, fmt.Errorf("count doctor history: %w", err)
	}

	data := make([]response.ConsultationResponse, len(history))
	for i, c := range history {
		data[i] = convertConsultationDetail(c)
	}
	return response.NewPaginatedResponse(data, req.Page, req.Limit(), total), nil
}
