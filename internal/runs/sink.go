package runs

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/cankoe/survey-runner/internal/adapters"
	"github.com/cankoe/survey-runner/internal/models"

	"github.com/rs/zerolog/log"
)

// sink applies the emissions of one run. Each emission updates the run, is
// appended to the event log and is then broadcast, in that order, before the
// next emission is looked at.
type sink struct {
	engine *Engine

	mu  sync.Mutex
	run *models.Run
}

func newSink(e *Engine, run *models.Run) *sink {
	return &sink{engine: e, run: run}
}

func (s *sink) status() models.RunStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.run.Status
}

func (s *sink) apply(ctx context.Context, level models.Level, code, message string, data map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.run.Status.Terminal() {
		return fmt.Errorf("%s after %s: %w", code, s.run.Status, ErrRunTerminal)
	}
	if !level.Valid() {
		return fmt.Errorf("emission %s has invalid level %q", code, level)
	}

	var update models.RunUpdate
	changed := false
	if next, ok := StatusForCode(code); ok {
		if !CanTransition(s.run.Status, next) {
			return fmt.Errorf("%s: %s -> %s: %w", code, s.run.Status, next, ErrInvalidTransition)
		}
		update.Status = &next
		changed = true
		if next == models.RunStatusError {
			msg := message
			update.Error = &msg
		}
	}
	totals, err := applyTotals(&update, s.run, data)
	if err != nil {
		return fmt.Errorf("%s: %w", code, err)
	}
	if totals {
		changed = true
	}

	ts := s.engine.eventLog.Stamp(s.run.ID)
	if changed {
		update.UpdatedAt = ts
		if err := s.engine.registry.UpdateRun(ctx, s.run.ID, update); err != nil {
			return fmt.Errorf("failed to update run %s: %w", s.run.ID, err)
		}
		from := s.run.Status
		update.Apply(s.run)
		if update.Status != nil {
			log.Debug().Str("run_id", s.run.ID).Str("from", string(from)).Str("to", string(s.run.Status)).Msg("Run transitioned")
		}
	}

	event := models.RunEvent{
		TenantID: s.run.TenantID,
		RunID:    s.run.ID,
		Ts:       ts,
		Level:    level,
		Code:     code,
		Message:  message,
		Data:     data,
	}
	if _, err := s.engine.eventLog.Append(ctx, &event); err != nil {
		return fmt.Errorf("failed to append %s for run %s: %w", code, s.run.ID, err)
	}
	s.engine.bus.Publish(s.run.TenantID, event)
	return nil
}

// fail moves the run to ERROR with an error-level event describing reason.
func (s *sink) fail(ctx context.Context, code, reason string) {
	err := s.apply(ctx, models.LevelError, code, reason, map[string]interface{}{"error": reason})
	if errors.Is(err, ErrRunTerminal) {
		log.Warn().Str("run_id", s.run.ID).Str("reason", reason).Msg("Failure reported after run ended")
		return
	}
	if err != nil {
		log.Error().Err(err).Str("run_id", s.run.ID).Msg("Failed to record run failure")
	}
}

// applyTotals copies payout and duration totals from data onto update and
// recomputes revenue per hour from the resulting totals. Totals must be
// finite and non-negative; durations are rounded to whole seconds.
func applyTotals(update *models.RunUpdate, run *models.Run, data map[string]interface{}) (bool, error) {
	if data == nil {
		return false, nil
	}
	payout, duration := run.PayoutTotal, run.DurationSecTotal
	totals := false

	if v, ok := number(data[adapters.DataPayoutTotal]); ok {
		if !validTotal(v) {
			return false, fmt.Errorf("%s=%v: %w", adapters.DataPayoutTotal, v, ErrInvalidTotals)
		}
		payout = v
		update.PayoutTotal = &payout
		totals = true
	}
	if v, ok := number(data[adapters.DataDurationSecTotal]); ok {
		if !validTotal(v) || v > maxDurationSec {
			return false, fmt.Errorf("%s=%v: %w", adapters.DataDurationSecTotal, v, ErrInvalidTotals)
		}
		duration = int(math.Round(v))
		update.DurationSecTotal = &duration
		totals = true
	}
	if v, ok := number(data[adapters.DataEVScoreAvg]); ok {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false, fmt.Errorf("%s=%v: %w", adapters.DataEVScoreAvg, v, ErrInvalidTotals)
		}
		update.EVScoreAvg = &v
		totals = true
	}
	if totals {
		revenue := models.RevenuePerHour(payout, duration)
		update.RevenueHour = &revenue
	}
	return totals, nil
}

// maxDurationSec keeps the int conversion exact on every platform.
const maxDurationSec = math.MaxInt32

func validTotal(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

func number(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
