// internal/middleware/rate_limit.go
package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/artcurio/curio-backend/internal/config"
	"github.com/artcurio/curio-backend/internal/utils"
)

// limiterPool hands out one token bucket per key and evicts buckets
// that have been idle for a few minutes.
type limiterPool struct {
	mu      sync.Mutex
	buckets map[string]*tokenBucket
	rate    rate.Limit
	burst   int
}

type tokenBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newLimiterPool(r rate.Limit, burst int) *limiterPool {
	p := &limiterPool{
		buckets: make(map[string]*tokenBucket),
		rate:    r,
		burst:   burst,
	}
	go p.evictIdle()
	return p
}

func (p *limiterPool) evictIdle() {
	for {
		time.Sleep(time.Minute)
		p.mu.Lock()
		for key, b := range p.buckets {
			if time.Since(b.lastSeen) > 3*time.Minute {
				delete(p.buckets, key)
			}
		}
		p.mu.Unlock()
	}
}

func (p *limiterPool) allow(key string) bool {
	p.mu.Lock()
	b, ok := p.buckets[key]
	if !ok {
		b = &tokenBucket{limiter: rate.NewLimiter(p.rate, p.burst)}
		p.buckets[key] = b
	}
	b.lastSeen = time.Now()
	p.mu.Unlock()

	return b.limiter.Allow()
}

// Limits bundles the service's throttling tiers, sized from config.
// General, auth and upload tiers key on client IP; the purchase tier
// keys on the authenticated identity, since every purchase serializes
// on the registry's single writer and holds it across the payout calls.
type Limits struct {
	general  *limiterPool
	auth     *limiterPool
	purchase *limiterPool
	upload   *limiterPool
}

func NewLimits(cfg config.RateLimitConfig) *Limits {
	return &Limits{
		general:  newLimiterPool(rate.Limit(cfg.GeneralPerSecond), cfg.GeneralPerSecond),
		auth:     newLimiterPool(perMinute(cfg.AuthPerMinute), cfg.AuthPerMinute),
		purchase: newLimiterPool(perMinute(cfg.PurchasePerMinute), cfg.PurchasePerMinute),
		upload:   newLimiterPool(perMinute(cfg.UploadPerMinute), cfg.UploadPerMinute),
	}
}

func perMinute(n int) rate.Limit {
	return rate.Limit(float64(n) / 60)
}

func (l *Limits) General() gin.HandlerFunc {
	return byClientIP(l.general)
}

func (l *Limits) Auth() gin.HandlerFunc {
	return byClientIP(l.auth)
}

func (l *Limits) Upload() gin.HandlerFunc {
	return byClientIP(l.upload)
}

// Purchase throttles per identity so one hot buyer cannot crowd the
// serialized purchase path for everyone else. Requests that somehow
// arrive unauthenticated fall back to the client IP.
func (l *Limits) Purchase() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if userID, ok := utils.GetUserIDFromContext(c); ok {
			key = userID
		}
		if !l.purchase.allow(key) {
			tooManyRequests(c)
			return
		}
		c.Next()
	}
}

func byClientIP(p *limiterPool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !p.allow(c.ClientIP()) {
			tooManyRequests(c)
			return
		}
		c.Next()
	}
}

func tooManyRequests(c *gin.Context) {
	c.JSON(http.StatusTooManyRequests, gin.H{
		"error": "Rate limit exceeded. Please try again later.",
	})
	c.Abort()
}
