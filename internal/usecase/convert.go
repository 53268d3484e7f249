package usecase

import (
	"opd-queue/internal/data/entity"
	"opd-queue/internal/dto/response"

	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

func uuidPtrString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func convertTokenResponse(t *entity.Token) response.TokenResponse {
	return response.TokenResponse{
		ID:              t.ID.String(),
		DoctorID:        t.DoctorID.String(),
		PatientID:       uuidPtrString(t.PatientID),
		TokenNumber:     t.TokenNumber,
		PatientName:     t.PatientName,
		PatientAge:      t.PatientAge,
		PatientGender:   t.PatientGender,
		PatientMobile:   t.PatientMobile,
		Reason:          t.Reason,
		VisitDate:       t.VisitDate.Format(dateLayout),
		Priority:        t.Priority,
		Status:          t.Status,
		PaymentStatus:   t.PaymentStatus,
		ConsultationFee: t.ConsultationFee,
		StartTime:       t.StartTime,
		EndTime:         t.EndTime,
		Duration:        t.Duration,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}

func convertDoctorResponse(d *entity.Doctor) *response.DoctorResponse {
	return &response.DoctorResponse{
		ID:              d.ID.String(),
		UserID:          uuidPtrString(d.UserID),
		Name:            d.Name,
		Department:      d.Department,
		AvgConsultTime:  d.AvgConsultTime,
		ConsultationFee: d.ConsultationFee,
		Active:          d.Active,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

func convertConsultationResponse(c *entity.Consultation) *response.ConsultationResponse {
	return &response.ConsultationResponse{
		ID:              c.ID.String(),
		TokenID:         c.TokenID.String(),
		DoctorID:        c.DoctorID.String(),
		PatientID:       uuidPtrString(c.PatientID),
		Department:      c.Department,
		VisitReason:     c.VisitReason,
		ProblemCategory: c.ProblemCategory,
		Diagnosis:       c.Diagnosis,
		DoctorNotes:     c.DoctorNotes,
		StartTime:       c.StartTime,
		EndTime:         c.EndTime,
		Duration:        c.Duration,
		OTPVerified:     c.OTPVerified,
		Date:            c.Date,
	}
}

func convertConsultationDetail(c *entity.ConsultationDetail) response.ConsultationResponse {
	resp := convertConsultationResponse(&c.Consultation)
	resp.DoctorName = c.DoctorName
	resp.PatientName = c.PatientName
	resp.PatientEmail = c.PatientEmail
	return *resp
}

func convertOTPStatus(rec *entity.ConsultationOTP, status entity.ConsultationOTPStatus) *response.ConsultationOTPStatusResponse {
	if rec == nil {
		return &response.ConsultationOTPStatusResponse{Status: entity.ConsultationOTPNone}
	}
	generatedAt := rec.GeneratedAt
	if generatedAt.IsZero() {
		generatedAt = rec.CreatedAt
	}
	expiresAt := rec.ExpiresAt
	return &response.ConsultationOTPStatusResponse{
		Status:      status,
		GeneratedAt: &generatedAt,
		ExpiresAt:   &expiresAt,
		Verified:    rec.Verified,
	}
}
