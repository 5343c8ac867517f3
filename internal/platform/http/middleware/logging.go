package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	jwtmw "natours/internal/platform/jwt"
)

// LoggingMiddleware はリクエストごとに構造化ログを1行出力する。
// ログにはmethod、path、status、duration_ms、user_id（認証済みの場合）を含む。
func LoggingMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		durationMs := float64(time.Since(start).Nanoseconds()) / float64(time.Millisecond)

		args := []any{
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", status),
			slog.Float64("duration_ms", durationMs),
			slog.String("remote_addr", c.ClientIP()),
		}
		if id := RequestID(c); id != "" {
			args = append(args, slog.String("request_id", id))
		}
		if v, ok := c.Get(jwtmw.ContextUserID); ok {
			args = append(args, slog.Any("user_id", v))
		}

		level := slog.LevelInfo
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		} else if status >= http.StatusBadRequest {
			level = slog.LevelWarn
		}

		logger.Log(c.Request.Context(), level, "http_request", args...)
	}
}
