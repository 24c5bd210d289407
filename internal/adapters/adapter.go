// Package adapters holds the site automation drivers and the fixed registry
// the run engine dispatches through.
package adapters

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/cankoe/survey-runner/internal/models"
)

// Emission codes understood by the run engine.
const (
	CodeRunEnqueued        = "RUN_ENQUEUED"
	CodeRunStarted         = "RUN_STARTED"
	CodeLoginOK            = "LOGIN_OK"
	CodeSurveysFound       = "SURVEYS_FOUND"
	CodeSurveySelected     = "SURVEY_SELECTED"
	CodeSurveyStarted      = "SURVEY_STARTED"
	CodeSurveyCompleted    = "SURVEY_COMPLETED"
	CodeSurveyDisqualified = "SURVEY_DISQUALIFIED"
	CodeNoSurveys          = "NO_SURVEYS"
	CodeRunFinished        = "RUN_FINISHED"
	CodeRunError           = "RUN_ERROR"
	CodeAdapterMissing     = "ADAPTER_MISSING"
)

// Data keys the engine copies onto the run record.
const (
	DataPayoutTotal      = "payout_total"
	DataDurationSecTotal = "duration_sec_total"
	DataEVScoreAvg       = "ev_score_avg"
	DataRevenueHour      = "revenue_hour"
)

var ErrAdapterMissing = errors.New("no adapter registered")

// EmitFunc reports one state transition or outcome back to the engine. It
// returns once the emission has been applied, persisted and broadcast.
type EmitFunc func(level models.Level, code, message string, data map[string]interface{}) error

// Adapter drives one site for one run. It must report every transition via
// emit and never write the run record itself. A returned error ends the run
// in ERROR.
type Adapter interface {
	Execute(ctx context.Context, tenantID string, account *models.Account, runID string, emit EmitFunc) error
}

// AdapterFunc lets a plain function serve as an Adapter.
type AdapterFunc func(ctx context.Context, tenantID string, account *models.Account, runID string, emit EmitFunc) error

func (f AdapterFunc) Execute(ctx context.Context, tenantID string, account *models.Account, runID string, emit EmitFunc) error {
	return f(ctx, tenantID, account, runID, emit)
}

// Registry maps site identifiers to adapters. It is fixed at construction.
type Registry struct {
	adapters map[string]Adapter
}

func NewRegistry(entries map[string]Adapter) *Registry {
	adapters := make(map[string]Adapter, len(entries))
	for site, a := range entries {
		adapters[site] = a
	}
	return &Registry{adapters: adapters}
}

// Default returns the registry of every site this build can drive.
func Default(stepDelay time.Duration) *Registry {
	return NewRegistry(map[string]Adapter{
		SiteFiveSurveys: NewFiveSurveys(stepDelay),
	})
}

func (r *Registry) Lookup(site string) (Adapter, error) {
	a, ok := r.adapters[site]
	if !ok {
		return nil, fmt.Errorf("site %q: %w", site, ErrAdapterMissing)
	}
	return a, nil
}

func (r *Registry) Sites() []string {
	sites := make([]string, 0, len(r.adapters))
	for site := range r.adapters {
		sites = append(sites, site)
	}
	sort.Strings(sites)
	return sites
}
