package usecase

import (
	"context"
	"testing"

	"opd-queue/internal/data/entity"
	"opd-queue/internal/dto/request"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoctorService_CreateDefaults(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	doc, err := env.doctor.Create(ctx, &request.CreateDoctorRequest{Name: "Rao", ConsultationFee: 250})
	require.NoError(t, err)
	assert.Equal(t, "General", doc.Department)
	assert.Equal(t, float64(entity.DefaultConsultMinutes), doc.AvgConsultTime)
	assert.True(t, doc.Active)

	userID := uuid.NewString()
	avg := 12.5
	doc, err = env.doctor.Create(ctx, &request.CreateDoctorRequest{
		UserID: &userID, Name: "Iyer", Department: "Cardiology", AvgConsultTime: &avg,
	})
	require.NoError(t, err)
	assert.Equal(t, 12.5, doc.AvgConsultTime)
	assert.Len(t, env.db.doctors, 2)

	profile, err := env.doctor.Profile(ctx, uuid.MustParse(userID))
	require.NoError(t, err)
	assert.Equal(t, doc.ID, profile.ID)
	_, err = env.doctor.Profile(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.doctor.Create(ctx, &request.CreateDoctorRequest{Name: "X"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDoctorService_ListAndUpdate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	rao := env.addDoctor("Rao", "General", 10)
	env.addDoctor("Iyer", "Cardiology", 15)

	list, err := env.doctor.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Rao", list[0].Name)

	inactive := false
	fee := 500.0
	updated, err := env.doctor.Update(ctx, rao.ID.String(), &request.UpdateDoctorRequest{Active: &inactive, ConsultationFee: &fee})
	require.NoError(t, err)
	assert.False(t, updated.Active)
	assert.Equal(t, 500.0, updated.ConsultationFee)
	assert.Equal(t, "General", updated.Department)

	list, err = env.doctor.ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	got, err := env.doctor.GetByID(ctx, rao.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "Rao", got.Name)

	_, err = env.doctor.GetByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = env.doctor.GetByID(ctx, "nope")
	assert.ErrorIs(t, err, ErrValidation)
}
