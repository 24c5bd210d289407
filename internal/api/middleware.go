package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// APIKeyMiddleware rejects requests whose X-API-KEY header does not match apiKey.
func APIKeyMiddleware(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		providedKey := c.GetHeader("X-API-KEY")
		if providedKey == "" || providedKey != apiKey {
			log.Warn().Str("middleware", "APIKeyMiddleware").Str("path", c.FullPath()).Msg("Invalid or missing API key")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": &ApiError{
				Code:    ErrCodeUnauthorized,
				Message: "Invalid or missing API key",
			}})
			return
		}
		c.Next()
	}
}
