package hub

import (
	"time"

	"github.com/cankoe/survey-runner/internal/models"
)

// Message types pushed to observers.
const (
	TypeConnected = "connected"
	TypeRunEvent  = "run_event"
)

// ConnectedMessage acknowledges a new subscription.
type ConnectedMessage struct {
	Type     string    `json:"type"`
	TenantID string    `json:"tenantId"`
	Ts       time.Time `json:"ts"`
}

// RunEventMessage carries one run event to observers.
type RunEventMessage struct {
	Type    string                 `json:"type"`
	RunID   string                 `json:"runId"`
	Level   models.Level           `json:"level"`
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data"`
	Ts      time.Time              `json:"ts"`
}

func NewRunEventMessage(event models.RunEvent) RunEventMessage {
	return RunEventMessage{
		Type:    TypeRunEvent,
		RunID:   event.RunID,
		Level:   event.Level,
		Code:    event.Code,
		Message: event.Message,
		Data:    event.Data,
		Ts:      event.Ts,
	}
}
