package mw

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/MrSnakeDoc/smartmarks/internal/logger"
	"github.com/MrSnakeDoc/smartmarks/internal/utils"
)

type RateLimitConfig struct {
	Burst             int
	RefillPerIPPerMin int
	IdleTTL           time.Duration // buckets unused this long are forgotten
	TrustProxy        bool          // resolve IP from proxy headers when true
	Now               func() time.Time
	Log               logger.Logger
}

type bucket struct {
	mu      sync.Mutex
	tokens  float64
	lastRef time.Time
}

// limiter is a token bucket per client IP. Idle buckets expire from the cache.
type limiter struct {
	cfg      RateLimitConfig
	rate     float64 // tokens per second
	capacity float64
	buckets  *cache.Cache
	mu       sync.Mutex
}

func newLimiter(cfg RateLimitConfig) *limiter {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 15 * time.Minute
	}
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	if cfg.RefillPerIPPerMin < 1 {
		cfg.RefillPerIPPerMin = 1
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Log == nil {
		cfg.Log = logger.NewNop()
	}
	return &limiter{
		cfg:      cfg,
		rate:     float64(cfg.RefillPerIPPerMin) / 60.0,
		capacity: float64(cfg.Burst),
		buckets:  cache.New(cfg.IdleTTL, cfg.IdleTTL),
	}
}

func (l *limiter) getBucket(key string, now time.Time) *bucket {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets.Get(key)
	if !ok {
		b = &bucket{tokens: l.capacity, lastRef: now}
	}
	// Re-set on every hit so the idle timer restarts.
	l.buckets.SetDefault(key, b)
	return b.(*bucket)
}

func (l *limiter) allow(key string, now time.Time) (ok bool, remaining int, retryAfterSec int) {
	b := l.getBucket(key, now)

	b.mu.Lock()
	defer b.mu.Unlock()

	elapsed := now.Sub(b.lastRef).Seconds()
	if elapsed > 0 {
		b.tokens = math.Min(l.capacity, b.tokens+elapsed*l.rate)
		b.lastRef = now
	}

	if b.tokens >= 1.0 {
		b.tokens -= 1.0
		return true, int(math.Floor(b.tokens)), 0
	}

	sec := int(math.Ceil((1.0 - b.tokens) / l.rate))
	if sec < 1 {
		sec = 1
	}
	return false, 0, sec
}

// RateLimit rejects clients that exceed the configured rate with 429.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	l := newLimiter(cfg)
	limitStr := strconv.Itoa(l.cfg.Burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := utils.ClientIP(r, l.cfg.TrustProxy)

			ok, remaining, retry := l.allow(key, l.cfg.Now())
			w.Header().Set("X-RateLimit-Limit", limitStr)
			if !ok {
				l.cfg.Log.Warn("rate limited",
					logger.String("ip", key),
					logger.String("path", r.URL.Path),
					logger.Int("retry_after", retry))
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				w.Header().Set("X-RateLimit-Remaining", "0")
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			next.ServeHTTP(w, r)
		})
	}
}
