package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"opd-queue/pkg/utils"

	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter allows limit requests per window for each client IP.
// Buckets are process-local; idle ones are dropped after ttl.
type RateLimiter struct {
	every    rate.Limit
	interval time.Duration
	burst    int
	message  string
	ttl      time.Duration

	mu       sync.Mutex
	visitors map[string]*visitor
	lookups  int
}

func NewRateLimiter(limit int, window time.Duration, message string) *RateLimiter {
	if limit <= 0 {
		limit = 1
	}
	ttl := 2 * window
	if ttl < 10*time.Minute {
		ttl = 10 * time.Minute
	}
	interval := window / time.Duration(limit)
	return &RateLimiter{
		every:    rate.Every(interval),
		interval: interval,
		burst:    limit,
		message:  message,
		ttl:      ttl,
		visitors: make(map[string]*visitor),
	}
}

func (rl *RateLimiter) limiterFor(key string, now time.Time) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	// sweep before touching key so a stale bucket can be evicted
	rl.lookups++
	if rl.lookups >= 5000 {
		for k, v := range rl.visitors {
			if now.Sub(v.lastSeen) >= rl.ttl {
				delete(rl.visitors, k)
			}
		}
		rl.lookups = 0
	}

	if v, ok := rl.visitors[key]; ok {
		v.lastSeen = now
		return v.limiter
	}

	lim := rate.NewLimiter(rl.every, rl.burst)
	rl.visitors[key] = &visitor{limiter: lim, lastSeen: now}
	return lim
}

func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lim := rl.limiterFor(clientIP(r), time.Now())
		if !lim.Allow() {
			w.Header().Set("Retry-After", strconv.Itoa(int(rl.interval.Seconds())+1))
			utils.ResponseTooManyRequests(w, rl.message)
			return
		}
		next.ServeHTTP(w, r)
	})
}
