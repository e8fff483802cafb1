package apikeymw

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// HeaderName は API キーを受け取るヘッダーです。
const HeaderName = "X-API-Key"

// Required returns a Gin middleware that only lets through requests carrying
// the configured key in the X-API-Key header.
func Required(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			// Server misconfiguration (API_KEY not set)
			slog.Error("API_KEY is not configured")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "server misconfigured: API_KEY not set"})
			return
		}

		provided := c.GetHeader(HeaderName)
		if provided == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "missing authentication header",
				"hint":  "send the API key in the " + HeaderName + " header",
			})
			return
		}

		if subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
			slog.Warn("invalid API key", "path", c.FullPath(), "remote", c.ClientIP())
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid API key"})
			return
		}
		c.Next()
	}
}
