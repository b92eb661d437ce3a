package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/DukeRupert/ordoflow/internal/domain"
	"github.com/DukeRupert/ordoflow/internal/handler"
	"github.com/DukeRupert/ordoflow/internal/metrics"
	"github.com/redis/go-redis/v9"
)

// Decision is the outcome of one rate limit check.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration // zero when Allowed
}

// Limiter counts requests per key in fixed windows.
type Limiter interface {
	Take(ctx context.Context, key string) (Decision, error)
}

// =============================================================================
// In-memory Limiter
// =============================================================================

// RateLimiter is a per-process fixed window limiter. It suits a single
// instance and tests; RedisLimiter shares counts between replicas.
type RateLimiter struct {
	maxAttempts int
	window      time.Duration
	logger      *slog.Logger
	now         func() time.Time

	mu      sync.Mutex
	entries map[string]*rateLimitEntry
}

type rateLimitEntry struct {
	count       int
	windowStart time.Time
}

// NewRateLimiter creates an in-memory limiter allowing maxAttempts per
// window. Expired entries are swept once per window.
func NewRateLimiter(maxAttempts int, window time.Duration, logger *slog.Logger) *RateLimiter {
	rl := &RateLimiter{
		maxAttempts: maxAttempts,
		window:      window,
		logger:      logger,
		now:         time.Now,
		entries:     make(map[string]*rateLimitEntry),
	}
	go rl.cleanup()
	return rl
}

// Allow reports whether key may make another request and counts it.
func (rl *RateLimiter) Allow(key string) bool {
	d, _ := rl.Take(context.Background(), key)
	return d.Allowed
}

// Take counts a request for key.
func (rl *RateLimiter) Take(_ context.Context, key string) (Decision, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	entry, ok := rl.entries[key]
	if !ok || now.Sub(entry.windowStart) >= rl.window {
		entry = &rateLimitEntry{windowStart: now}
		rl.entries[key] = entry
	}

	d := Decision{Limit: rl.maxAttempts}
	if entry.count >= rl.maxAttempts {
		d.RetryAfter = rl.window - now.Sub(entry.windowStart)
		return d, nil
	}

	entry.count++
	d.Allowed = true
	d.Remaining = rl.maxAttempts - entry.count
	return d, nil
}

// Reset clears the count of key.
func (rl *RateLimiter) Reset(key string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.entries, key)
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		now := rl.now()
		for key, entry := range rl.entries {
			if now.Sub(entry.windowStart) >= rl.window {
				delete(rl.entries, key)
			}
		}
		rl.mu.Unlock()
	}
}

// =============================================================================
// Redis Limiter
// =============================================================================

// takeScript increments the window counter, starts the window on the first
// hit and returns the count with the remaining window in milliseconds.
var takeScript = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {n, redis.call("PTTL", KEYS[1])}
`)

// RedisLimiter is a fixed window limiter stored in Redis, so every server
// instance sees the same counts.
type RedisLimiter struct {
	client      *redis.Client
	prefix      string
	maxAttempts int
	window      time.Duration
}

// NewRedisLimiter creates a limiter whose keys live under prefix.
func NewRedisLimiter(client *redis.Client, prefix string, maxAttempts int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client:      client,
		prefix:      prefix,
		maxAttempts: maxAttempts,
		window:      window,
	}
}

// Take counts a request for key.
func (l *RedisLimiter) Take(ctx context.Context, key string) (Decision, error) {
	res, err := takeScript.Run(ctx, l.client, []string{l.prefix + ":" + key}, l.window.Milliseconds()).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit %s: %w", key, err)
	}
	if len(res) != 2 {
		return Decision{}, fmt.Errorf("rate limit %s: unexpected reply %v", key, res)
	}

	count, ttl := int(res[0]), time.Duration(res[1])*time.Millisecond
	d := Decision{Limit: l.maxAttempts}
	if count > l.maxAttempts {
		d.RetryAfter = ttl
		return d, nil
	}
	d.Allowed = true
	d.Remaining = l.maxAttempts - count
	return d, nil
}

// =============================================================================
// Rate Limit Middleware
// =============================================================================

// RateLimitMiddleware limits requests per client IP.
type RateLimitMiddleware struct {
	limiter Limiter
	route   string // metrics label and key namespace
	logger  *slog.Logger
}

// NewRateLimitMiddleware creates a new rate limit middleware. route names
// the guarded endpoint group in metrics.
func NewRateLimitMiddleware(limiter Limiter, route string, logger *slog.Logger) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		limiter: limiter,
		route:   route,
		logger:  logger,
	}
}

// Limit returns middleware that rate limits requests per client IP. When
// the limiter itself fails the request is let through.
func (m *RateLimitMiddleware) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientIP := handler.ClientIP(r)

		d, err := m.limiter.Take(r.Context(), m.route+":"+clientIP)
		if err != nil {
			m.logger.Warn("rate limiter unavailable", "route", m.route, "error", err)
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))

		if !d.Allowed {
			m.logger.Warn("rate limit exceeded",
				"ip", clientIP,
				"path", r.URL.Path,
				"method", r.Method,
			)
			metrics.RateLimitedTotal.WithLabelValues(m.route).Inc()

			retryAfter := int(d.RetryAfter.Round(time.Second).Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			handler.ErrorResponse(w, r, m.logger, domain.RateLimit("ratelimit."+m.route))
			return
		}

		next.ServeHTTP(w, r)
	})
}
