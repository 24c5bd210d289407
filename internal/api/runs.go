package api

import (
	"net/http"

	"github.com/cankoe/survey-runner/internal/events"
	"github.com/cankoe/survey-runner/internal/models"
	"github.com/cankoe/survey-runner/internal/runs"
	"github.com/cankoe/survey-runner/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type runNowRequest struct {
	TenantID  string `json:"tenant_id" binding:"required"`
	AccountID string `json:"account_id" binding:"required"`
}

func runNowHandler(engine *runs.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req runNowRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, "POST /api/run-now", &ApiError{
				Code:    ErrCodeInvalidRequest,
				Message: "Request body must carry tenant_id and account_id",
			})
			return
		}

		runID, err := engine.StartRun(c.Request.Context(), req.TenantID, req.AccountID)
		if err != nil {
			respondError(c, "POST /api/run-now", err)
			return
		}

		log.Info().Str("run_id", runID).Str("tenant_id", req.TenantID).Str("account_id", req.AccountID).Msg("Run accepted")
		c.JSON(http.StatusAccepted, gin.H{"run_id": runID, "status": "processing"})
	}
}

func getRunHandler(registry store.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		run, err := registry.GetRun(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, "GET /api/runs/:id", err)
			return
		}
		c.JSON(http.StatusOK, run)
	}
}

func getRunEventsHandler(registry store.Registry, eventLog *events.Log) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		runID := c.Param("id")
		if _, err := registry.GetRun(ctx, runID); err != nil {
			respondError(c, "GET /api/runs/:id/events", err)
			return
		}

		list, err := eventLog.List(ctx, runID)
		if err != nil {
			respondError(c, "GET /api/runs/:id/events", err)
			return
		}
		if list == nil {
			list = []models.RunEvent{}
		}
		c.JSON(http.StatusOK, gin.H{"run_id": runID, "events": list})
	}
}
