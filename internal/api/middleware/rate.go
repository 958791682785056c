package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimitConfig defines rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int
	Burst             int
	// IdleTimeout drops per-client state after this long without requests.
	IdleTimeout time.Duration
}

// DefaultRateLimitConfig returns a budget sized for framebuffer pulls, which
// each fork a producer.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 5,
		Burst:             10,
		IdleTimeout:       10 * time.Minute,
	}
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// clients tracks one limiter per client IP.
type clients struct {
	cfg   RateLimitConfig
	now   func() time.Time
	mu    sync.Mutex
	byIP  map[string]*client
	swept time.Time
}

func newClients(cfg RateLimitConfig) *clients {
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = DefaultRateLimitConfig().IdleTimeout
	}
	return &clients{
		cfg:  cfg,
		now:  time.Now,
		byIP: make(map[string]*client),
	}
}

func (cs *clients) get(ip string) *rate.Limiter {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	now := cs.now()
	if now.Sub(cs.swept) > cs.cfg.IdleTimeout {
		for k, c := range cs.byIP {
			if now.Sub(c.lastSeen) > cs.cfg.IdleTimeout {
				delete(cs.byIP, k)
			}
		}
		cs.swept = now
	}

	c, ok := cs.byIP[ip]
	if !ok {
		c = &client{limiter: newLimiter(cs.cfg)}
		cs.byIP[ip] = c
	}
	c.lastSeen = now
	return c.limiter
}

func (cs *clients) len() int {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return len(cs.byIP)
}

func newLimiter(cfg RateLimitConfig) *rate.Limiter {
	return rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst)
}

// RateLimit creates a per-IP rate limiting middleware.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	cs := newClients(cfg)
	return func(c *gin.Context) {
		if !cs.get(c.ClientIP()).Allow() {
			reject(c, cfg)
			return
		}
		c.Next()
	}
}

// GlobalRateLimit creates a global rate limiting middleware.
func GlobalRateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	limiter := newLimiter(cfg)
	return func(c *gin.Context) {
		if !limiter.Allow() {
			reject(c, cfg)
			return
		}
		c.Next()
	}
}

func reject(c *gin.Context, cfg RateLimitConfig) {
	retry := 1
	if cfg.RequestsPerSecond > 0 {
		retry = int(math.Ceil(1 / float64(cfg.RequestsPerSecond)))
	}
	c.Header("Retry-After", strconv.Itoa(retry))
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
		"success": false,
		"error":   "rate limit exceeded",
	})
}
