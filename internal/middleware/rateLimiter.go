package middleware

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type IPRateLimiter struct {
	ips       map[string]*ipLimiter
	mu        sync.Mutex
	rateLimit rate.Limit
	burstRate int
	idleAfter time.Duration
}

func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	return &IPRateLimiter{ips: make(map[string]*ipLimiter), rateLimit: r, burstRate: b, idleAfter: 10 * time.Minute}
}

// GetLimiter also drops limiters of addresses not seen for idleAfter, so the
// map does not grow with every client ever seen.
func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()
	now := time.Now()
	entry, exists := i.ips[ip]
	if !exists {
		entry = &ipLimiter{limiter: rate.NewLimiter(i.rateLimit, i.burstRate)}
		i.ips[ip] = entry
		i.evictIdle(now)
	}
	entry.lastSeen = now
	return entry.limiter
}

func (i *IPRateLimiter) evictIdle(now time.Time) {
	for ip, e := range i.ips {
		if now.Sub(e.lastSeen) > i.idleAfter && !e.lastSeen.IsZero() {
			delete(i.ips, ip)
		}
	}
}
