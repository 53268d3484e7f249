package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTokenStatus_Transitions(t *testing.T) {
	cases := []struct {
		from, to TokenStatus
		ok       bool
	}{
		{TokenStatusWaiting, TokenStatusInProgress, true},
		{TokenStatusWaiting, TokenStatusNoShow, true},
		{TokenStatusWaiting, TokenStatusDone, false},
		{TokenStatusWaiting, TokenStatusPendingVerification, false},
		{TokenStatusInProgress, TokenStatusPendingVerification, true},
		{TokenStatusInProgress, TokenStatusWaiting, false},
		{TokenStatusInProgress, TokenStatusDone, false},
		{TokenStatusPendingVerification, TokenStatusDone, true},
		{TokenStatusPendingVerification, TokenStatusPendingVerification, true},
		{TokenStatusPendingVerification, TokenStatusInProgress, false},
		{TokenStatusDone, TokenStatusNoShow, false},
		{TokenStatusNoShow, TokenStatusWaiting, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.ok, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}

	assert.True(t, TokenStatusDone.IsTerminal())
	assert.True(t, TokenStatusNoShow.IsTerminal())
	assert.False(t, TokenStatusPendingVerification.IsTerminal())
	assert.True(t, TokenStatusInProgress.IsActive())
	assert.False(t, TokenStatusPendingVerification.IsActive())
}

func TestDoctor_RecordConsultation(t *testing.T) {
	d := &Doctor{AvgConsultTime: 10}
	at := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

	d.RecordConsultation(20, at)

	assert.InDelta(t, 11.0, d.AvgConsultTime, 1e-9)
	assert.Len(t, d.ConsultationHistory, 1)
	assert.InDelta(t, 33.0, d.EstimatedWait(3), 1e-9)
}

func TestDoctor_HistoryIsBounded(t *testing.T) {
	d := &Doctor{AvgConsultTime: 10}
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < ConsultHistoryLimit+7; i++ {
		d.RecordConsultation(float64(i), base.Add(time.Duration(i)*time.Minute))
	}

	assert.Len(t, d.ConsultationHistory, ConsultHistoryLimit)
	assert.Equal(t, 7.0, d.ConsultationHistory[0].Duration)
	assert.Equal(t, float64(ConsultHistoryLimit+6), d.ConsultationHistory[ConsultHistoryLimit-1].Duration)
}

func TestUser_RegisterNoShow(t *testing.T) {
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	u := &User{}

	assert.False(t, u.RegisterNoShow(now, 3, 24*time.Hour))
	assert.False(t, u.RegisterNoShow(now, 3, 24*time.Hour))
	assert.Equal(t, 2, u.NoShowCount)
	assert.False(t, u.IsSuspended(now))

	assert.True(t, u.RegisterNoShow(now, 3, 24*time.Hour))
	assert.Equal(t, 0, u.NoShowCount)
	assert.True(t, u.IsSuspended(now.Add(23*time.Hour)))
	assert.False(t, u.IsSuspended(now.Add(24*time.Hour+time.Second)))
}

func TestConsultationOTPStatusOf(t *testing.T) {
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)

	assert.Equal(t, ConsultationOTPNone, ConsultationOTPStatusOf(nil, now))

	rec := &ConsultationOTP{ExpiresAt: now.Add(10 * time.Minute)}
	assert.Equal(t, ConsultationOTPGenerated, ConsultationOTPStatusOf(rec, now))
	assert.Equal(t, ConsultationOTPExpired, ConsultationOTPStatusOf(rec, now.Add(11*time.Minute)))

	rec.Verified = true
	assert.Equal(t, ConsultationOTPVerified, ConsultationOTPStatusOf(rec, now.Add(time.Hour)))
}

func TestPhoneOTP_ResetClearsFlags(t *testing.T) {
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	used := now.Add(-time.Minute)
	p := &PhoneOTP{Attempts: 3, Verified: true, UsedForBooking: true, UsedAt: &used}

	assert.False(t, p.Consumable())

	p.Reset("hash", now.Add(5*time.Minute), now)

	assert.Equal(t, 0, p.Attempts)
	assert.False(t, p.Verified)
	assert.False(t, p.UsedForBooking)
	assert.Nil(t, p.UsedAt)
	assert.False(t, p.IsExpired(now))
	assert.True(t, p.IsExpired(now.Add(6*time.Minute)))
}
