package http

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/hwstore/hwstore-server/internal/config"
)

// RateCounter increments a shared counter that expires after ttl.
// It lets several server instances enforce one budget.
type RateCounter interface {
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

type limiter interface {
	allow(ctx context.Context, key string) bool
}

func newLimiter(counter RateCounter, cfg config.RateLimitConfig, logger *zerolog.Logger) limiter {
	local := newRateLimiter(cfg.Requests, cfg.Window)
	if counter == nil || local.limit <= 0 {
		return local
	}
	return &sharedRateLimiter{
		counter:  counter,
		limit:    cfg.Requests,
		window:   cfg.Window,
		now:      time.Now,
		fallback: local,
		logger:   logger,
	}
}

// rateLimiter is a fixed-window counter keyed by client.
type rateLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu        sync.Mutex
	windows   map[string]*window
	lastSweep time.Time
}

type window struct {
	start time.Time
	count int
}

func newRateLimiter(limit int, period time.Duration) *rateLimiter {
	if limit <= 0 || period <= 0 {
		return &rateLimiter{limit: 0}
	}
	return &rateLimiter{
		limit:   limit,
		window:  period,
		now:     time.Now,
		windows: make(map[string]*window),
	}
}

func (r *rateLimiter) allow(_ context.Context, key string) bool {
	if r == nil || r.limit <= 0 {
		return true
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.sweep(now)

	w, ok := r.windows[key]
	if !ok || now.Sub(w.start) >= r.window {
		r.windows[key] = &window{start: now, count: 1}
		return true
	}
	w.count++
	return w.count <= r.limit
}

// sweep drops expired windows at most once per period. Caller holds mu.
func (r *rateLimiter) sweep(now time.Time) {
	if now.Sub(r.lastSweep) < r.window {
		return
	}
	r.lastSweep = now
	for key, w := range r.windows {
		if now.Sub(w.start) >= r.window {
			delete(r.windows, key)
		}
	}
}

// sharedRateLimiter counts per time bucket in a RateCounter. When the
// counter is unavailable the request is judged by the local limiter instead.
type sharedRateLimiter struct {
	counter  RateCounter
	limit    int
	window   time.Duration
	now      func() time.Time
	fallback *rateLimiter
	logger   *zerolog.Logger
}

func (r *sharedRateLimiter) allow(ctx context.Context, key string) bool {
	bucket := r.now().UnixNano() / int64(r.window)
	count, err := r.counter.Incr(ctx, "ratelimit:ip:"+key+":"+strconv.FormatInt(bucket, 10), r.window)
	if err != nil {
		r.logger.Warn().Err(err).Str("ip", key).Msg("shared rate limit unavailable, using local counts")
		return r.fallback.allow(ctx, key)
	}
	return count <= int64(r.limit)
}
