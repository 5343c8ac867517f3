package middleware

import (
	"log/slog"
	"math"
	"strconv"

	"github.com/gin-gonic/gin"

	"natours/internal/platform/apperr"
	"natours/internal/shared/ratelimiter"
)

// MsgTooManyRequests is returned once a client exhausts its window.
const MsgTooManyRequests = "Too many requests from this IP, please try again in an hour!"

// RateLimitMiddleware はクライアントIPごとに固定ウィンドウ内のリクエスト数を制限する。
// カウンターが失敗した場合はリクエストを通す。
func RateLimitMiddleware(counter ratelimiter.Counter, max int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		count, resetIn, err := counter.Hit(c.Request.Context(), c.ClientIP())
		if err != nil {
			slog.Error("rate limit counter failed", "error", err, "remote_addr", c.ClientIP())
			c.Next()
			return
		}

		remaining := max - count
		if remaining < 0 {
			remaining = 0
		}
		h := c.Writer.Header()
		h.Set("X-RateLimit-Limit", strconv.FormatInt(max, 10))
		h.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		h.Set("X-RateLimit-Reset", strconv.Itoa(int(math.Ceil(resetIn.Seconds()))))

		if count > max {
			h.Set("Retry-After", strconv.Itoa(int(math.Ceil(resetIn.Seconds()))))
			slog.Warn("rate limit exceeded", "remote_addr", c.ClientIP(), "limit_type", "general")
			_ = c.Error(apperr.New(apperr.ErrTooManyRequests, MsgTooManyRequests))
			c.Abort()
			return
		}
		c.Next()
	}
}
