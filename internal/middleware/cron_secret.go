package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ==================== 定时触发鉴权中间件 ====================

// CronSecretHeader 调度器携带共享密钥的请求头
const CronSecretHeader = "X-Cron-Secret"

// CronSecret 定时触发鉴权中间件
// 批量同步端点由外部调度器按固定间隔调用，校验共享密钥而非用户身份
func CronSecret(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"code":    503,
				"message": "同步触发端点未配置密钥",
			})
			c.Abort()
			return
		}

		provided := c.GetHeader(CronSecretHeader)
		if subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":    401,
				"message": "调度密钥无效",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
