package server

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"barbershop/internal/api"
	"barbershop/internal/logger"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per client IP.
type RateLimiter struct {
	visitors map[string]*visitor
	mu       sync.Mutex
	rate     rate.Limit
	burst    int
	ttl      time.Duration
	now      func() time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows rps requests per second per IP with the given burst.
// A non-positive rps disables limiting.
func NewRateLimiter(rps float64, burst int, ttl time.Duration) *RateLimiter {
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		rate:     limit,
		burst:    burst,
		ttl:      ttl,
		now:      time.Now,
	}
}

// prune drops visitors idle for longer than ttl. Called with mu held.
func (rl *RateLimiter) prune(now time.Time) {
	for ip, v := range rl.visitors {
		if now.Sub(v.lastSeen) > rl.ttl {
			delete(rl.visitors, ip)
		}
	}
}

func (rl *RateLimiter) getVisitor(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if len(rl.visitors) > 1024 {
		rl.prune(now)
	}

	v, exists := rl.visitors[ip]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter
}

func (rl *RateLimiter) Allow(ip string) bool {
	return rl.getVisitor(ip).Allow()
}

func (rl *RateLimiter) visitorCount() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.visitors)
}

func RateLimitMiddleware(rps float64, burst int) gin.HandlerFunc {
	limiter := NewRateLimiter(rps, burst, 3*time.Minute)
	retryAfter := "1"
	if rps > 0 && rps < 1 {
		retryAfter = strconv.Itoa(int(1/rps + 0.5))
	}

	return func(c *gin.Context) {
		if ip := c.ClientIP(); !limiter.Allow(ip) {
			logger.Debugf("rate limit exceeded for %s on %s", ip, c.FullPath())
			c.Header("Retry-After", retryAfter)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, api.ErrorResponse{Error: "Too many requests, please try again shortly"})
			return
		}
		c.Next()
	}
}
