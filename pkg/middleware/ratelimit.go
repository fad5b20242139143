package middleware

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64
}

// IPRateLimiter keeps one token bucket per client IP. Buckets of clients
// that went quiet are dropped by Sweep.
type IPRateLimiter struct {
	limiters sync.Map
	rate     rate.Limit
	burst    int
	log      *zap.Logger
}

// NewIPRateLimiter creates a limiter allowing r events per second with the given burst.
func NewIPRateLimiter(r rate.Limit, burst int, log *zap.Logger) *IPRateLimiter {
	return &IPRateLimiter{rate: r, burst: burst, log: log}
}

func (i *IPRateLimiter) getLimiter(ip string) *rate.Limiter {
	entry, exists := i.limiters.Load(ip)
	if !exists {
		entry, _ = i.limiters.LoadOrStore(ip, &ipLimiter{limiter: rate.NewLimiter(i.rate, i.burst)})
	}
	l := entry.(*ipLimiter)
	l.lastSeen.Store(time.Now().UnixNano())
	return l.limiter
}

// Sweep drops the buckets of clients not seen for longer than maxIdle and
// returns how many were dropped.
func (i *IPRateLimiter) Sweep(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle).UnixNano()
	dropped := 0
	i.limiters.Range(func(key, value any) bool {
		if value.(*ipLimiter).lastSeen.Load() < cutoff {
			i.limiters.Delete(key)
			dropped++
		}
		return true
	})
	return dropped
}

// Len returns the number of tracked client IPs.
func (i *IPRateLimiter) Len() int {
	n := 0
	i.limiters.Range(func(any, any) bool {
		n++
		return true
	})
	return n
}

// RunSweeper calls Sweep every interval until ctx is done.
func (i *IPRateLimiter) RunSweeper(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := i.Sweep(maxIdle); n > 0 && i.log != nil {
				i.log.Debug("idle rate limiters dropped", zap.Int("count", n))
			}
		}
	}
}

// RateLimit rejects requests over the per-IP limit with 429.
func (i *IPRateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !i.getLimiter(ip).Allow() {
			if i.log != nil {
				i.log.Warn("rate limit exceeded",
					zap.String("client_ip", ip),
					zap.String("path", c.Request.URL.Path),
				)
			}
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
