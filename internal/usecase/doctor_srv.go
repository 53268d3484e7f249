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

type DoctorService interface {
	ListActive(ctx context.Context) ([]*response.DoctorResponse, error)
	GetByID(ctx context.Context, id string) (*response.DoctorResponse, error)
	// Profile returns the doctor record linked to a DOCTOR user account.
	Profile(ctx context.Context, userID uuid.UUID) (*response.DoctorResponse, error)
	Create(ctx context.Context, req *request.CreateDoctorRequest) (*response.DoctorResponse, error)
	Update(ctx context.Context, id string, req *request.UpdateDoctorRequest) (*response.DoctorResponse, error)
}

type doctorService struct {
	repo repository.DoctorRepository
	log  *zap.Logger
	now  func() time.Time
}

func NewDoctorService(repo repository.DoctorRepository, log *zap.Logger) DoctorService {
	return &doctorService{
		repo: repo,
		log:  log.With(zap.String("service", "doctor")),
		now:  time.Now,
	}
}

func (s *doctorService) ListActive(ctx context.Context) ([]*response.DoctorResponse, error) {
	doctors, err := s.repo.FindAllActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}

	result := make([]*response.DoctorResponse, len(doctors))
	for i, d := range doctors {
		result[i] = convertDoctorResponse(d)
	}
	return result, nil
}

func (s *doctorService) find(ctx context.Context, id string) (*entity.Doctor, error) {
	doctorID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid doctor ID format %s", ErrValidation, id)
	}

	doctor, err := s.repo.FindByID(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("find doctor: %w", err)
	}
	if doctor == nil {
		return nil, fmt.Errorf("%w: doctor %s", ErrNotFound, id)
	}
	return doctor, nil
}

func (s *doctorService) GetByID(ctx context.Context, id string) (*response.DoctorResponse, error) {
	doctor, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return convertDoctorResponse(doctor), nil
}

func (s *doctorService) Profile(ctx context.Context, userID uuid.UUID) (*response.DoctorResponse, error) {
	doctor, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("find doctor profile: %w", err)
	}
	if doctor == nil {
		return nil, fmt.Errorf("%w: doctor profile", ErrNotFound)
	}
	return convertDoctorResponse(doctor), nil
}

func (s *doctorService) Create(ctx context.Context, req *request.CreateDoctorRequest) (*response.DoctorResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	now := s.now()
	doctor := &entity.Doctor{
		Row:             entity.NewRow(now),
		Name:            req.Name,
		Department:      req.Department,
		AvgConsultTime:  entity.DefaultConsultMinutes,
		ConsultationFee: req.ConsultationFee,
		Active:          true,
	}
	if doctor.Department == "" {
		doctor.Department = defaultDepartment
	}
	if req.AvgConsultTime != nil {
		doctor.AvgConsultTime = *req.AvgConsultTime
	}
	if req.UserID != nil {
		userID, err := uuid.Parse(*req.UserID)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid user ID format %s", ErrValidation, *req.UserID)
		}
		doctor.UserID = &userID
	}

	if err := s.repo.Create(ctx, doctor); err != nil {
		return nil, fmt.Errorf("create doctor: %w", err)
	}

	s.log.Info("Doctor created",
		zap.String("doctor_id", doctor.ID.String()),
		zap.String("department", doctor.Department),
	)
	return convertDoctorResponse(doctor), nil
}

func (s *doctorService) Update(ctx context.Context, id string, req *request.UpdateDoctorRequest) (*response.DoctorResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	doctor, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		doctor.Name = *req.Name
	}
	if req.Department != nil && *req.Department != "" {
		doctor.Department = *req.Department
	}
	if req.AvgConsultTime != nil {
		doctor.AvgConsultTime = *req.AvgConsultTime
	}
	if req.ConsultationFee != nil {
		doctor.ConsultationFee = *req.ConsultationFee
	}
	if req.Active != nil {
		doctor.Active = *req.Active
	}
	doctor.Touch(s.now())

	if err := s.repo.Update(ctx, doctor); err != nil {
		return nil, fmt.Errorf("update doctor: %w", err)
	}

	s.log.Info("Doctor updated", zap.String("doctor_id", doctor.ID.String()))
	return convertDoctorResponse(doctor), nil
}
