package api

import (
	"net/http"
	"time"

	"github.com/cankoe/survey-runner/internal/events"
	"github.com/cankoe/survey-runner/internal/hub"
	"github.com/cankoe/survey-runner/internal/runs"
	"github.com/cankoe/survey-runner/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Deps are the collaborators the HTTP surface reads from and writes through.
type Deps struct {
	Store    store.Store
	EventLog *events.Log
	Engine   *runs.Engine
	Stream   *hub.StreamServer

	// UserAPIKey guards /api when non-empty. The websocket stream stays open
	// since browsers cannot attach custom headers to an upgrade.
	UserAPIKey string
}

// RegisterRoutes registers all top-level domain routes.
func RegisterRoutes(r *gin.Engine, deps Deps) {
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"service": "survey-runner", "ts": time.Now().UTC()})
	})

	group := r.Group("/api")
	if deps.UserAPIKey != "" {
		group.Use(APIKeyMiddleware(deps.UserAPIKey))
	} else {
		log.Warn().Msg("No user API key configured, /api is unauthenticated")
	}
	{
		group.POST("/run-now", runNowHandler(deps.Engine))
		group.GET("/runs/:id", getRunHandler(deps.Store))
		group.GET("/runs/:id/events", getRunEventsHandler(deps.Store, deps.EventLog))
		group.GET("/accounts", listAccountsHandler(deps.Store))
		group.POST("/accounts", createAccountHandler(deps.Store))
	}

	r.GET("/ws/:tenant_id", streamHandler(deps.Stream))
}

func respondError(c *gin.Context, route string, err error) {
	statusCode, apiErr := mapErrorToStatusCode(err)
	if statusCode >= http.StatusInternalServerError {
		log.Error().Err(err).Str("route", route).Msg("Request failed")
	} else {
		log.Debug().Err(err).Str("route", route).Msg("Request rejected")
	}
	c.JSON(statusCode, gin.H{"error": apiErr})
}
