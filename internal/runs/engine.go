// Package runs drives survey runs through their lifecycle and turns adapter
// emissions into run updates, logged events and live broadcasts.
package runs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cankoe/survey-runner/internal/adapters"
	"github.com/cankoe/survey-runner/internal/events"
	"github.com/cankoe/survey-runner/internal/models"
	"github.com/cankoe/survey-runner/internal/store"

	"github.com/rs/zerolog/log"
)

var (
	ErrInvalidTransition = errors.New("invalid run transition")
	ErrRunTerminal       = errors.New("run already in a terminal state")
	ErrInvalidTotals     = errors.New("invalid run totals")
)

// Broadcaster delivers an event to the live observers of a tenant.
type Broadcaster interface {
	Publish(tenantID string, event models.RunEvent)
}

// Engine starts runs and owns every write made on their behalf.
type Engine struct {
	registry store.Registry
	eventLog *events.Log
	bus      Broadcaster
	adapters *adapters.Registry

	ctx context.Context
	wg  sync.WaitGroup
}

// NewEngine builds an engine whose runs execute under ctx. Runs are not tied
// to the request that started them.
func NewEngine(ctx context.Context, registry store.Registry, eventLog *events.Log, bus Broadcaster, adapterRegistry *adapters.Registry) *Engine {
	return &Engine{
		registry: registry,
		eventLog: eventLog,
		bus:      bus,
		adapters: adapterRegistry,
		ctx:      ctx,
	}
}

// StartRun creates an INIT run for accountID and executes it in the
// background. It returns as soon as the run is recorded; the outcome is only
// observable through the run record, the event log and the hub.
func (e *Engine) StartRun(ctx context.Context, tenantID, accountID string) (string, error) {
	account, err := e.registry.GetAccount(ctx, accountID)
	if err != nil {
		return "", err
	}
	if account.TenantID != tenantID {
		return "", fmt.Errorf("account %s for tenant %s: %w", accountID, tenantID, store.ErrNotFound)
	}

	now := time.Now().UTC()
	run := &models.Run{
		TenantID:  tenantID,
		AccountID: accountID,
		Site:      account.Site,
		Status:    models.RunStatusInit,
		CreatedAt: now,
		UpdatedAt: now,
	}
	runID, err := e.registry.CreateRun(ctx, run)
	if err != nil {
		return "", fmt.Errorf("failed to create run: %w", err)
	}
	run.ID = runID

	s := newSink(e, run)
	if err := s.apply(ctx, models.LevelInfo, adapters.CodeRunEnqueued, "Run enqueued", nil); err != nil {
		log.Error().Err(err).Str("run_id", runID).Msg("Failed to record enqueue event")
	}

	e.wg.Add(1)
	go e.execute(s, account)

	log.Info().Str("run_id", runID).Str("tenant_id", tenantID).Str("site", account.Site).Msg("Run started")
	return runID, nil
}

// Wait blocks until every run started so far has returned.
func (e *Engine) Wait() {
	e.wg.Wait()
}

func (e *Engine) execute(s *sink, account *models.Account) {
	defer e.wg.Done()
	defer e.eventLog.Forget(s.run.ID)

	ctx := e.ctx
	adapter, err := e.adapters.Lookup(account.Site)
	if err != nil {
		log.Error().Err(err).Str("run_id", s.run.ID).Msg("No adapter for run")
		s.fail(ctx, adapters.CodeAdapterMissing, err.Error())
		return
	}

	if err := invoke(ctx, adapter, s, account); err != nil {
		log.Error().Err(err).Str("run_id", s.run.ID).Str("site", account.Site).Msg("Adapter failed")
		// The failure must be recorded even when ctx is what stopped the adapter.
		s.fail(context.WithoutCancel(ctx), adapters.CodeRunError, err.Error())
		return
	}

	if status := s.status(); !status.Terminal() {
		log.Error().Str("run_id", s.run.ID).Str("status", string(status)).Msg("Adapter returned before reaching a terminal state")
		s.fail(context.WithoutCancel(ctx), adapters.CodeRunError, fmt.Sprintf("adapter returned in %s before reaching a terminal state", status))
	}
}


func invoke(ctx context.Context, adapter adapters.Adapter, s *sink, account *models.Account) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("adapter panic: %v", r)
		}
	}()
	return adapter.Execute(ctx, s.run.TenantID, account, s.run.ID, func(level models.Level, code, message string, data map[string]interface{}) error {
		return s.apply(ctx, level, code, message, data)
	})
}
