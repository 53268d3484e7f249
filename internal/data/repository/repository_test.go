package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"opd-queue/internal/data/entity"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func bookedToken(now time.Time) *entity.Token {
	return &entity.Token{
		Row:           entity.NewRow(now),
		DoctorID:      uuid.New(),
		PatientName:   "Asha",
		PatientMobile: "9876543210",
		VisitDate:     time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		Priority:      entity.PriorityNormal,
		Status:        entity.TokenStatusWaiting,
		PaymentStatus: entity.PaymentStatusNA,
	}
}

func TestTokenRepository_CreateBooked(t *testing.T) {
	mock := newMock(t)
	repo := NewTokenRepository(mock, zap.NewNop())

	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	token := bookedToken(now)

	insertArgs := make([]any, 16)
	for i := range insertArgs {
		insertArgs[i] = pgxmock.AnyArg()
	}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE phone_otps").
		WithArgs("9876543210", now).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectQuery("INSERT INTO token_sequences").
		WithArgs(token.DoctorID, token.VisitDate).
		WillReturnRows(pgxmock.NewRows([]string{"last_number"}).AddRow(7))
	mock.ExpectExec("INSERT INTO tokens").
		WithArgs(insertArgs...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	err := repo.CreateBooked(context.Background(), token, "9876543210", now)
	require.NoError(t, err)
	assert.Equal(t, 7, token.TokenNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenRepository_CreateBooked_PhoneAlreadySpent(t *testing.T) {
	mock := newMock(t)
	repo := NewTokenRepository(mock, zap.NewNop())

	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	token := bookedToken(now)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE phone_otps").
		WithArgs("9876543210", now).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	err := repo.CreateBooked(context.Background(), token, "9876543210", now)
	assert.ErrorIs(t, err, ErrPhoneOTPUnavailable)
	assert.Zero(t, token.TokenNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenRepository_FindByID_NotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewTokenRepository(mock, zap.NewNop())

	id := uuid.New()
	mock.ExpectQuery("FROM tokens WHERE id").
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)

	token, err := repo.FindByID(context.Background(), id)
	assert.NoError(t, err)
	assert.Nil(t, token)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenRepository_CountActiveByDoctorAndDate(t *testing.T) {
	mock := newMock(t)
	repo := NewTokenRepository(mock, zap.NewNop())

	doctorID := uuid.New()
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT COUNT").
		WithArgs(doctorID, day).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(4))

	count, err := repo.CountActiveByDoctorAndDate(context.Background(), doctorID, day)
	require.NoError(t, err)
	assert.Equal(t, 4, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDoctorRepository_UpdateStats(t *testing.T) {
	mock := newMock(t)
	repo := NewDoctorRepository(mock, zap.NewNop())

	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	doctor := &entity.Doctor{Row: entity.NewRow(now), AvgConsultTime: 10}
	doctor.RecordConsultation(20, now)

	history, err := json.Marshal(doctor.ConsultationHistory)
	require.NoError(t, err)

	mock.ExpectExec("UPDATE doctors").
		WithArgs(doctor.ID, 11.0, history, now).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.UpdateStats(context.Background(), doctor))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPhoneOTPRepository_Update_NotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewPhoneOTPRepository(mock, zap.NewNop())

	now := time.Now()
	otp := entity.NewPhoneOTP("9876543210", now)
	mock.ExpectExec("UPDATE phone_otps").
		WithArgs(otp.PhoneNumber, 0, false, pgxmock.AnyArg(), otp.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.Update(context.Background(), otp)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_FindValidSession(t *testing.T) {
	mock := newMock(t)
	repo := NewSessionRepository(mock, zap.NewNop())

	token := uuid.New()
	userID := uuid.New()
	now := time.Now()
	mock.ExpectQuery("FROM sessions").
		WithArgs(token).
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "token", "expires_at", "revoked_at", "created_at"}).
			AddRow(uuid.New(), userID, token, now.Add(time.Hour), (*time.Time)(nil), now))

	session, err := repo.FindValidSession(context.Background(), token.String())
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, userID, session.UserID)
	assert.True(t, session.IsValid(now))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_MalformedTokenSkipsQuery(t *testing.T) {
	mock := newMock(t)
	repo := NewSessionRepository(mock, zap.NewNop())

	session, err := repo.FindValidSession(context.Background(), "not-a-uuid")
	assert.NoError(t, err)
	assert.Nil(t, session)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_UpdateNoShow(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock, zap.NewNop())

	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	user := &entity.User{SoftDeletable: entity.SoftDeletable{ID: uuid.New()}, NoShowCount: 2}
	require.True(t, user.RegisterNoShow(now, 3, 24*time.Hour))

	mock.ExpectExec("UPDATE users").
		WithArgs(user.ID, 0, user.BookingCooldownUntil, now).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.UpdateNoShow(context.Background(), user))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditLogRepository_Create(t *testing.T) {
	mock := newMock(t)
	repo := NewAuditLogRepository(mock, zap.NewNop())

	ip := "10.0.0.7"
	entry := &entity.AuditLog{
		Entry:       entity.NewEntry(time.Now()),
		Action:      entity.AuditMarkNoShow,
		PerformedBy: uuid.New(),
		Details:     map[string]any{"tokenNumber": 3},
		IPAddress:   &ip,
	}

	mock.ExpectExec("INSERT INTO audit_logs").
		WithArgs(entry.ID, entity.AuditMarkNoShow, entry.PerformedBy, []byte(`{"tokenNumber":3}`), &ip, entry.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Create(context.Background(), entry))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConsultationOTPRepository_Issue_RollsBackOnTokenFailure(t *testing.T) {
	mock := newMock(t)
	repo := NewConsultationOTPRepository(mock, zap.NewNop())

	now := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	token := bookedToken(now)
	token.Status = entity.TokenStatusPendingVerification
	otp := &entity.ConsultationOTP{Row: entity.NewRow(now), TokenID: token.ID, OTPHash: "hash", ExpiresAt: now.Add(10 * time.Minute)}

	otpArgs := make([]any, 9)
	for i := range otpArgs {
		otpArgs[i] = pgxmock.AnyArg()
	}
	tokenArgs := make([]any, 8)
	for i := range tokenArgs {
		tokenArgs[i] = pgxmock.AnyArg()
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO consultation_otps").
		WithArgs(otpArgs...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("UPDATE tokens").
		WithArgs(tokenArgs...).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := repo.Issue(context.Background(), otp, token)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConsultationOTPRepository_Issue_RegenerateSkipsToken(t *testing.T) {
	mock := newMock(t)
	repo := NewConsultationOTPRepository(mock, zap.NewNop())

	now := time.Now()
	otp := &entity.ConsultationOTP{Row: entity.NewRow(now), TokenID: uuid.New(), OTPHash: "hash"}

	otpArgs := make([]any, 9)
	for i := range otpArgs {
		otpArgs[i] = pgxmock.AnyArg()
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO consultation_otps").
		WithArgs(otpArgs...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Issue(context.Background(), otp, nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}
