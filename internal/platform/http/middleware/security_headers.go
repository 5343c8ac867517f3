package middleware

import "github.com/gin-gonic/gin"

// contentSecurityPolicy allows the map tiles, fonts and scripts the rendered pages load.
const contentSecurityPolicy = "default-src 'self'; " +
	"base-uri 'self'; " +
	"font-src 'self' https: data:; " +
	"img-src 'self' data: blob: https://*.tile.openstreetmap.org; " +
	"object-src 'none'; " +
	"script-src 'self' https://unpkg.com https://js.stripe.com; " +
	"style-src 'self' https: 'unsafe-inline'; " +
	"connect-src 'self' ws://localhost:*; " +
	"frame-src https://js.stripe.com; " +
	"frame-ancestors 'none'"

// SecurityHeadersMiddleware はセキュリティ関連のHTTPレスポンスヘッダーを付与する。
// HSTSは本番環境でのみ送る。
func SecurityHeadersMiddleware(production bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-DNS-Prefetch-Control", "off")
		h.Set("X-Download-Options", "noopen")
		h.Set("X-XSS-Protection", "0")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
		h.Set("Cross-Origin-Opener-Policy", "same-origin")
		h.Set("Content-Security-Policy", contentSecurityPolicy)
		if production {
			h.Set("Strict-Transport-Security", "max-age=15552000; includeSubDomains")
		}
		c.Next()
	}
}
