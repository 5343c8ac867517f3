package middleware

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"natours/internal/platform/apperr"
)

// MsgTooManyLogins is returned when a client retries credentials too quickly.
const MsgTooManyLogins = "Too many login attempts, please try again later."

type ipLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// LoginThrottle はIPごとのトークンバケットでログイン試行を制限する。
type LoginThrottle struct {
	perMinute int
	idleTTL   time.Duration

	mu       sync.Mutex
	limiters map[string]*ipLimiter
	now      func() time.Time
}

// NewLoginThrottle は1分あたりperMinute回までの試行を許可するLoginThrottleを生成する。
func NewLoginThrottle(perMinute int) *LoginThrottle {
	if perMinute <= 0 {
		perMinute = 1
	}
	return &LoginThrottle{
		perMinute: perMinute,
		idleTTL:   10 * time.Minute,
		limiters:  make(map[string]*ipLimiter),
		now:       time.Now,
	}
}

// Middleware returns the gin handler.
func (lt *LoginThrottle) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !lt.allow(c.ClientIP()) {
			slog.Warn("rate limit exceeded", "remote_addr", c.ClientIP(), "limit_type", "login")
			_ = c.Error(apperr.New(apperr.ErrTooManyRequests, MsgTooManyLogins))
			c.Abort()
			return
		}
		c.Next()
	}
}

func (lt *LoginThrottle) allow(ip string) bool {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	now := lt.now()
	lt.prune(now)

	l, ok := lt.limiters[ip]
	if !ok {
		l = &ipLimiter{limiter: rate.NewLimiter(rate.Limit(float64(lt.perMinute)/60.0), lt.perMinute)}
		lt.limiters[ip] = l
	}
	l.lastAccess = now
	return l.limiter.AllowN(now, 1)
}

// prune drops idle limiters. Callers hold mu.
func (lt *LoginThrottle) prune(now time.Time) {
	for ip, l := range lt.limiters {
		if now.Sub(l.lastAccess) > lt.idleTTL {
			delete(lt.limiters, ip)
		}
	}
}

// Len returns the number of tracked clients.
func (lt *LoginThrottle) Len() int {
	lt.mu.Lock()
	defer lt.mu.Unlock()
	return len(lt.limiters)
}
