package repository

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"testing"
	"time"

	"opd-queue/internal/data/entity"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newLivePool connects to TEST_DATABASE_URL and applies the schema.
// Row locks and conditional updates only behave like production against a
// real Postgres, so these tests are skipped without one.
func newLivePool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	schema, err := os.ReadFile("../../../migrations/001_init.sql")
	require.NoError(t, err)
	_, err = pool.Exec(ctx, string(schema))
	require.NoError(t, err)
	return pool
}

func randomMobile(r *rand.Rand) string {
	return fmt.Sprintf("9%09d", r.Intn(1_000_000_000))
}

func TestTokenRepository_CreateBooked_ConcurrentBookings(t *testing.T) {
	pool := newLivePool(t)
	ctx := context.Background()
	repo := NewTokenRepository(pool, zap.NewNop())

	now := time.Now().UTC()
	visitDate := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	doctorID := uuid.New()
	_, err := pool.Exec(ctx,
		`INSERT INTO doctors (id, name, department) VALUES ($1, $2, $3)`,
		doctorID, "Dr. Load", "General")
	require.NoError(t, err)

	const phones = 20
	const attemptsPerPhone = 3

	r := rand.New(rand.NewSource(now.UnixNano()))
	seen := map[string]bool{}
	mobiles := make([]string, 0, phones)
	for len(mobiles) < phones {
		mobile := randomMobile(r)
		if seen[mobile] {
			continue
		}
		seen[mobile] = true
		_, err := pool.Exec(ctx, `
			INSERT INTO phone_otps (id, phone_number, otp_hash, expires_at, verified)
			VALUES ($1, $2, 'x', $3, true)
			ON CONFLICT (phone_number)
			DO UPDATE SET verified = true, used_for_booking = false, used_at = NULL`,
			uuid.New(), mobile, now.Add(5*time.Minute))
		require.NoError(t, err)
		mobiles = append(mobiles, mobile)
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		numbers  []int
		perPhone = map[string]int{}
		spent    int
	)
	for _, mobile := range mobiles {
		for i := 0; i < attemptsPerPhone; i++ {
			wg.Add(1)
			go func(mobile string) {
				defer wg.Done()
				token := &entity.Token{
					Row:           entity.NewRow(now),
					DoctorID:      doctorID,
					PatientName:   "Walk In",
					PatientMobile: mobile,
					VisitDate:     visitDate,
					Priority:      entity.PriorityNormal,
					Status:        entity.TokenStatusWaiting,
					PaymentStatus: entity.PaymentStatusNA,
				}
				err := repo.CreateBooked(ctx, token, mobile, now)

				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					numbers = append(numbers, token.TokenNumber)
					perPhone[mobile]++
				case errors.Is(err, ErrPhoneOTPUnavailable):
					spent++
				default:
					t.Errorf("unexpected error for %s: %v", mobile, err)
				}
			}(mobile)
		}
	}
	wg.Wait()

	// each verification books exactly once
	assert.Len(t, perPhone, phones)
	for mobile, n := range perPhone {
		assert.Equal(t, 1, n, mobile)
	}
	assert.Equal(t, phones*(attemptsPerPhone-1), spent)

	// numbers are gapless and unique: 1..phones
	sort.Ints(numbers)
	want := make([]int, phones)
	for i := range want {
		want[i] = i + 1
	}
	assert.Equal(t, want, numbers)

	var stored int
	err = pool.QueryRow(ctx,
		`SELECT COUNT(DISTINCT token_number) FROM tokens WHERE doctor_id = $1 AND visit_date = $2`,
		doctorID, visitDate).Scan(&stored)
	require.NoError(t, err)
	assert.Equal(t, phones, stored)
}
