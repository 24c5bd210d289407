package api

import (
	"github.com/cankoe/survey-runner/internal/hub"

	"github.com/gin-gonic/gin"
)

func streamHandler(stream *hub.StreamServer) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Upgrade failures are already answered by the upgrader.
		_ = stream.Serve(c.Writer, c.Request, c.Param("tenant_id"))
	}
}
