// Package events is the append-only log of run events.
package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cankoe/survey-runner/internal/models"

	"github.com/rs/zerolog/log"
)

// Appender is the persistence the log writes through.
type Appender interface {
	AppendEvent(ctx context.Context, event *models.RunEvent) (string, error)
	ListEvents(ctx context.Context, runID string) ([]models.RunEvent, error)
}

// Log stamps and persists run events. Timestamps handed out for one run never
// go backwards, even if the wall clock does.
type Log struct {
	store Appender
	now   func() time.Time

	mu   sync.Mutex
	last map[string]time.Time
}

func NewLog(store Appender) *Log {
	return &Log{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		last:  make(map[string]time.Time),
	}
}

// Stamp returns the next timestamp for runID.
func (l *Log) Stamp(runID string) time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	ts := l.now()
	if prev, ok := l.last[runID]; ok && ts.Before(prev) {
		ts = prev
	}
	l.last[runID] = ts
	return ts
}

// Append persists event, stamping it first if Ts is unset.
func (l *Log) Append(ctx context.Context, event *models.RunEvent) (string, error) {
	if event.RunID == "" || event.TenantID == "" {
		return "", fmt.Errorf("event %q is missing its run or tenant", event.Code)
	}
	if !event.Level.Valid() {
		return "", fmt.Errorf("event %q has invalid level %q", event.Code, event.Level)
	}
	if event.Ts.IsZero() {
		event.Ts = l.Stamp(event.RunID)
	}

	id, err := l.store.AppendEvent(ctx, event)
	if err != nil {
		log.Error().Err(err).Str("run_id", event.RunID).Str("code", event.Code).Msg("Failed to append run event")
		return "", err
	}
	log.Debug().Str("run_id", event.RunID).Str("code", event.Code).Str("level", string(event.Level)).Msg("Run event appended")
	return id, nil
}

// List returns the events of runID in emission order.
func (l *Log) List(ctx context.Context, runID string) ([]models.RunEvent, error) {
	return l.store.ListEvents(ctx, runID)
}

// Forget drops the timestamp bookkeeping for a finished run.
func (l *Log) Forget(runID string) {
	l.mu.Lock()
	delete(l.last, runID)
	l.mu.Unlock()
}
