package site

import (
	"sync"
	"time"

	"github.com/dacweb/dac/pkg/errcodes"
	"github.com/dacweb/dac/pkg/metrics"
	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ContactLimiter caps contact form submissions per client IP.
type ContactLimiter struct {
	rate  rate.Limit
	burst int

	mu          sync.Mutex
	perIP       map[string]*ipLimiter
	lastCleanup time.Time
	now         func() time.Time
}

// NewContactLimiter allows perMinute submissions per IP with the given burst.
func NewContactLimiter(perMinute, burst int) *ContactLimiter {
	return &ContactLimiter{
		rate:        rate.Every(time.Minute / time.Duration(perMinute)),
		burst:       burst,
		perIP:       map[string]*ipLimiter{},
		lastCleanup: time.Now(),
		now:         time.Now,
	}
}

func (l *ContactLimiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	entry, ok := l.perIP[ip]
	if !ok {
		entry = &ipLimiter{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.perIP[ip] = entry
	}
	entry.lastSeen = now

	if now.Sub(l.lastCleanup) > limiterIdleTTL {
		for key, e := range l.perIP {
			if now.Sub(e.lastSeen) > limiterIdleTTL {
				delete(l.perIP, key)
			}
		}
		l.lastCleanup = now
	}

	return entry.limiter.AllowN(now, 1)
}

func (l *ContactLimiter) Middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !l.Allow(c.RealIP()) {
			metrics.IncContactRateLimited()
			return errcodes.TooManyRequests("Too many messages, please try again later.")
		}
		return next(c)
	}
}
