package models

import "time"

type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

func (l Level) Valid() bool {
	return l == LevelInfo || l == LevelWarn || l == LevelError
}

// RunEvent is an immutable fact recorded during a run.
type RunEvent struct {
	ID       string                 `bson:"_id,omitempty" json:"id,omitempty"`
	TenantID string                 `bson:"tenant_id" json:"tenant_id"`
	RunID    string                 `bson:"run_id" json:"run_id"`
	Ts       time.Time              `bson:"ts" json:"ts"`
	Level    Level                  `bson:"level" json:"level"`
	Code     string                 `bson:"code" json:"code"`
	Message  string                 `bson:"message" json:"message"`
	Data     map[string]interface{} `bson:"data,omitempty" json:"data,omitempty"`
}
