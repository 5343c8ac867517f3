package middleware

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/gin-gonic/gin"
)

// Recovery はハンドラー内のpanicを回復し、スタックトレースをログに記録する。
// レスポンスはErrorHandlerが500として書き込む。
func Recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		slog.Error("panic recovered",
			"panic", recovered,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"request_id", RequestID(c),
			"stack", string(debug.Stack()),
		)
		_ = c.Error(fmt.Errorf("panic: %v", recovered))
		c.Abort()
	})
}
