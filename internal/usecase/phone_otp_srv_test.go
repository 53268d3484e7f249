package usecase

import (
	"context"
	"testing"
	"time"

	"opd-queue/internal/dto/request"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhoneOTP_SendAndVerify(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	phone := phoneFor(1)

	require.NoError(t, env.phone.Send(ctx, &request.SendOTPRequest{PhoneNumber: phone}))

	rec := env.db.phoneOTPs[phone]
	assert.False(t, rec.Verified)
	assert.NotEqual(t, env.gw.lastCode(t, phone), rec.OTPHash)
	assert.Equal(t, env.clock.Now().Add(5*time.Minute), rec.ExpiresAt)

	code := env.gw.lastCode(t, phone)
	assert.Len(t, code, 6)
	require.NoError(t, env.phone.Verify(ctx, &request.VerifyOTPRequest{PhoneNumber: phone, Code: code}))

	rec = env.db.phoneOTPs[phone]
	assert.True(t, rec.Verified)
	assert.False(t, rec.UsedForBooking)
	assert.NotEmpty(t, rec.OTPHash)
}

func TestPhoneOTP_RejectsMalformedNumbers(t *testing.T) {
	env := newTestEnv(t)

	for _, phone := range []string{"", "12345", "98765432101", "98765abcde"} {
		err := env.phone.Send(context.Background(), &request.SendOTPRequest{PhoneNumber: phone})
		assert.ErrorIs(t, err, ErrValidation, phone)
	}
	assert.Empty(t, env.db.phoneOTPs)
}

func TestPhoneOTP_VerifyFailures(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	phone := phoneFor(2)

	err := env.phone.Verify(ctx, &request.VerifyOTPRequest{PhoneNumber: phone, Code: "123456"})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, env.phone.Send(ctx, &request.SendOTPRequest{PhoneNumber: phone}))
	code := env.gw.lastCode(t, phone)

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	err = env.phone.Verify(ctx, &request.VerifyOTPRequest{PhoneNumber: phone, Code: wrong})
	assert.ErrorIs(t, err, ErrInvalidCode)
	assert.Equal(t, 1, env.db.phoneOTPs[phone].Attempts)

	env.clock.Advance(5*time.Minute + time.Second)
	err = env.phone.Verify(ctx, &request.VerifyOTPRequest{PhoneNumber: phone, Code: code})
	assert.ErrorIs(t, err, ErrExpired)
}

func TestPhoneOTP_LockoutAfterFiveMismatches(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	phone := phoneFor(3)

	require.NoError(t, env.phone.Send(ctx, &request.SendOTPRequest{PhoneNumber: phone}))
	code := env.gw.lastCode(t, phone)
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}

	for i := 0; i < 5; i++ {
		err := env.phone.Verify(ctx, &request.VerifyOTPRequest{PhoneNumber: phone, Code: wrong})
		require.ErrorIs(t, err, ErrInvalidCode)
	}

	// Correct code is refused while locked.
	err := env.phone.Verify(ctx, &request.VerifyOTPRequest{PhoneNumber: phone, Code: code})
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.False(t, env.db.phoneOTPs[phone].Verified)

	// So is a resend.
	err = env.phone.Send(ctx, &request.SendOTPRequest{PhoneNumber: phone})
	assert.ErrorIs(t, err, ErrRateLimited)

	env.clock.Advance(15*time.Minute + time.Second)
	require.NoError(t, env.phone.Send(ctx, &request.SendOTPRequest{PhoneNumber: phone}))
	assert.Zero(t, env.db.phoneOTPs[phone].Attempts)

	code = env.gw.lastCode(t, phone)
	assert.NoError(t, env.phone.Verify(ctx, &request.VerifyOTPRequest{PhoneNumber: phone, Code: code}))
}

func TestPhoneOTP_SmsFailureIsNotFatal(t *testing.T) {
	env := newTestEnv(t)
	env.gw.fail = true

	err := env.phone.Send(context.Background(), &request.SendOTPRequest{PhoneNumber: phoneFor(4)})
	assert.NoError(t, err)
	assert.Contains(t, env.db.phoneOTPs, phoneFor(4))
}

func TestPhoneOTP_ResendResetsConsumption(t *testing.T) {
	env := newTestEnv(t)
	doctor := env.addDoctor("Rao", "General", 10)
	phone := phoneFor(5)

	env.book(t, doctor, nil, phone)
	assert.True(t, env.db.phoneOTPs[phone].UsedForBooking)

	require.NoError(t, env.phone.Send(context.Background(), &request.SendOTPRequest{PhoneNumber: phone}))
	rec := env.db.phoneOTPs[phone]
	assert.False(t, rec.UsedForBooking)
	assert.False(t, rec.Verified)
	assert.Nil(t, rec.UsedAt)
}
