package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter allows r requests per second per client IP with bursts of b.
// Visitors idle for longer than idleTTL are forgotten on the next request.
func RateLimiter(r rate.Limit, b int, idleTTL time.Duration) gin.HandlerFunc {
	visitors := make(map[string]*visitor)
	var mu sync.Mutex
	lastSweep := time.Now()

	getVisitor := func(ip string, now time.Time) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()

		if idleTTL > 0 && now.Sub(lastSweep) > idleTTL {
			for key, v := range visitors {
				if now.Sub(v.lastSeen) > idleTTL {
					delete(visitors, key)
				}
			}
			lastSweep = now
		}

		v, exists := visitors[ip]
		if !exists {
			v = &visitor{limiter: rate.NewLimiter(r, b)}
			visitors[ip] = v
		}
		v.lastSeen = now
		return v.limiter
	}

	return func(c *gin.Context) {
		if !getVisitor(c.ClientIP(), time.Now()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			return
		}
		c.Next()
	}
}
