package server

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"resumetailor/internal/errors"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

// clientKey identifies who a token bucket belongs to. API keys are kept
// only as a hash.
type clientKey struct {
	kind string // "api" or "ip"
	id   string
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[clientKey]*bucket
	rate    rate.Limit
	burst   int
	done    chan struct{}
	logger  *errors.Logger
	now     func() time.Time
}

// NewRateLimiter allows requestsPerMin per client with bursts of up to
// burstCapacity requests. Idle buckets are dropped in the background.
func NewRateLimiter(requestsPerMin int, burstCapacity int, logger *errors.Logger) *RateLimiter {
	m := &RateLimiter{
		buckets: make(map[clientKey]*bucket),
		rate:    rate.Limit(float64(requestsPerMin) / 60.0),
		burst:   max(burstCapacity, 1),
		done:    make(chan struct{}),
		logger:  logger,
		now:     time.Now,
	}
	go m.evictLoop(limiterIdleTTL)
	return m
}

// reserve takes a token for key. When none is available it returns the
// wait until the next one and consumes nothing.
func (m *RateLimiter) reserve(key clientKey) (bool, time.Duration) {
	m.mu.Lock()
	b, ok := m.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(m.rate, m.burst)}
		m.buckets[key] = b
	}
	now := m.now()
	b.lastSeen = now
	m.mu.Unlock()

	r := b.limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, time.Minute
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// GetStats reports bucket counts per client kind and the configured rate
func (m *RateLimiter) GetStats() map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()

	byKind := map[string]int{}
	for key := range m.buckets {
		byKind[key.kind]++
	}
	return map[string]any{
		"active_limiters": len(m.buckets),
		"by_kind":         byKind,
		"rate_per_minute": float64(m.rate) * 60.0,
		"burst_capacity":  m.burst,
	}
}

func (m *RateLimiter) evictLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.evictIdle(every)
		case <-m.done:
			return
		}
	}
}

// evictIdle drops buckets not used within idle
func (m *RateLimiter) evictIdle(idle time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-idle)
	for key, b := range m.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(m.buckets, key)
		}
	}
	if m.logger != nil {
		m.logger.Debug("Rate limiter eviction completed", "remaining_limiters", len(m.buckets))
	}
}

// Close stops background eviction
func (m *RateLimiter) Close() {
	close(m.done)
}

// rateLimitMiddleware answers 429 with a Retry-After header once a
// client's bucket is empty
func (s *Server) rateLimitMiddleware() func(http.HandlerFunc) http.HandlerFunc {
	if s.RateLimit == nil || !s.RateLimit.Enabled || s.RateLimiter == nil {
		return func(next http.HandlerFunc) http.HandlerFunc { return next }
	}

	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			key, ok := rateLimitKey(r, s.RateLimit.ByAPIKey, s.RateLimit.ByIP)
			if !ok {
				next(w, r)
				return
			}

			allowed, wait := s.RateLimiter.reserve(key)
			if !allowed {
				s.Observability.RecordRateLimitHit(r.Context(), key.kind)
				s.Logger.Info("Rate limit exceeded",
					"key_type", key.kind,
					"endpoint", r.URL.Path,
					"client_ip", getClientIP(r),
					"retry_after", wait)
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
				writeErrorResponse(w, "Rate limit exceeded", "Too many requests", http.StatusTooManyRequests)
				return
			}
			next(w, r)
		}
	}
}

// rateLimitKey prefers the API key over the client address
func rateLimitKey(r *http.Request, byAPIKey, byIP bool) (clientKey, bool) {
	if byAPIKey {
		if apiKey := requestAPIKey(r); apiKey != "" {
			return clientKey{kind: "api", id: strconv.FormatUint(xxhash.Sum64String(apiKey), 16)}, true
		}
	}
	if byIP {
		return clientKey{kind: "ip", id: getClientIP(r)}, true
	}
	return clientKey{}, false
}

// getClientIP extracts the client IP address from the request
func getClientIP(r *http.Request) string {
	// First valid address in X-Forwarded-For, then X-Real-IP
	for ip := range strings.SplitSeq(r.Header.Get("X-Forwarded-For"), ",") {
		if ip = strings.TrimSpace(ip); net.ParseIP(ip) != nil {
			return ip
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); net.ParseIP(xri) != nil {
		return xri
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
