package middlewares

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// WindowStore counts hits per key in a fixed window. IncrWindow returns the
// count after this hit and the time left in the window.
type WindowStore interface {
	IncrWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

type RateLimitObserver interface {
	IncRateLimited(route string)
}

type RateLimiter struct {
	store    WindowStore
	limit    int64
	window   time.Duration
	prefix   string
	observer RateLimitObserver
	log      *slog.Logger
}

func NewRateLimiter(store WindowStore, limit int, window time.Duration, observer RateLimitObserver, log *slog.Logger) *RateLimiter {
	if log == nil {
		log = slog.Default()
	}
	return &RateLimiter{
		store:    store,
		limit:    int64(limit),
		window:   window,
		prefix:   "ratelimit:",
		observer: observer,
		log:      log,
	}
}

// RateLimiterMiddleware enforces the limit for the key derived by keyFn.
// Store failures let the request through.
func (rl *RateLimiter) RateLimiterMiddleware(keyFn func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFn(c)
		if key == "" {
			// fallback to IP if key cannot be derived
			key = clientIP(c)
		}

		count, ttl, err := rl.store.IncrWindow(c.Request.Context(), rl.prefix+key, rl.window)
		if err != nil {
			rl.log.WarnContext(c.Request.Context(), "ratelimit.store_error", "err", err)
			c.Next()
			return
		}

		remaining := max(rl.limit-count, 0)
		c.Header("X-RateLimit-Limit", strconv.FormatInt(rl.limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > rl.limit {
			retryAfter := int(ttl.Seconds())
			if retryAfter < 0 {
				retryAfter = 0
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))

			if rl.observer != nil {
				route := c.FullPath()
				if route == "" {
					route = "unmatched"
				}
				rl.observer.IncRateLimited(route)
			}

			abortWithError(c, http.StatusTooManyRequests, "rate_limited", "Too many requests. Please try again shortly.")
			return
		}

		c.Next()
	}
}

// MemoryStore is a process-local WindowStore for single-replica setups.
type MemoryStore struct {
	mu      sync.Mutex
	now     func() time.Time
	clients map[string]*clientBucket
}

type clientBucket struct {
	count     int64
	windowEnd time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now, clients: make(map[string]*clientBucket)}
}

func (s *MemoryStore) IncrWindow(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.clients[key]
	if !ok || !now.Before(b.windowEnd) {
		s.sweep(now)
		b = &clientBucket{windowEnd: now.Add(window)}
		s.clients[key] = b
	}

	b.count++
	return b.count, b.windowEnd.Sub(now), nil
}

// sweep drops expired buckets. Caller holds mu.
func (s *MemoryStore) sweep(now time.Time) {
	for k, b := range s.clients {
		if !now.Before(b.windowEnd) {
			delete(s.clients, k)
		}
	}
}

// for unauthenticated endpoints: rate limit by IP
func KeyByIP(c *gin.Context) string {
	return clientIP(c)
}

// For authenticated endpoints: rate limit by userID if available
func KeyByUserOrIP(c *gin.Context) string {
	id, ok := UserIDFromContext(c)

	if ok && id != "" {
		return "user:" + id
	}

	return clientIP(c)
}

func clientIP(c *gin.Context) string {
	ip := c.ClientIP()

	host, _, err := net.SplitHostPort(ip)
	if err == nil && host != "" {
		return host
	}

	return ip
}
