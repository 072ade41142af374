package middleware

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"
)

// RealIP resolves the client IP behind proxies and stores it in the Gin
// context under "real_ip". X-Forwarded-For (left-most entry) wins, then
// c.ClientIP().
func RealIP() gin.HandlerFunc {
	return func(c *gin.Context) {
		if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
			first := strings.TrimSpace(strings.Split(xff, ",")[0])
			if ip := net.ParseIP(first); ip != nil {
				c.Set("real_ip", ip.String())
				c.Next()
				return
			}
		}
		c.Set("real_ip", c.ClientIP())
		c.Next()
	}
}
