package middleware

import (
	"github.com/gin-gonic/gin"
)

// ParameterPollution はホワイトリスト外のクエリパラメータの重複を最後の値に畳み込む。
// ホワイトリスト内のパラメータは重複したまま残り、$in フィルタとして扱われる。
func ParameterPollution(whitelist ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(whitelist))
	for _, k := range whitelist {
		allowed[k] = struct{}{}
	}
	return func(c *gin.Context) {
		q := c.Request.URL.Query()
		changed := false
		for k, vs := range q {
			if len(vs) < 2 {
				continue
			}
			if _, ok := allowed[k]; ok {
				continue
			}
			q[k] = vs[len(vs)-1:]
			changed = true
		}
		if changed {
			c.Request.URL.RawQuery = q.Encode()
		}
		c.Next()
	}
}
