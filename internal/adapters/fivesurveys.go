package adapters

import (
	"context"
	"fmt"
	"time"

	"github.com/cankoe/survey-runner/internal/models"
)

const SiteFiveSurveys = "FIVE_SURVEYS"

// FiveSurveys is a placeholder driver: it walks the happy path with timed
// waits standing in for browser interaction and reports one fixed survey.
type FiveSurveys struct {
	StepDelay   time.Duration
	Payout      float64
	DurationSec int
}

func NewFiveSurveys(stepDelay time.Duration) *FiveSurveys {
	return &FiveSurveys{StepDelay: stepDelay, Payout: 0.75, DurationSec: 80}
}

func (a *FiveSurveys) Execute(ctx context.Context, tenantID string, account *models.Account, runID string, emit EmitFunc) error {
	if err := emit(models.LevelInfo, CodeRunStarted, "Run started", map[string]interface{}{
		"site":     account.Site,
		"username": account.Username,
	}); err != nil {
		return err
	}
	if err := a.wait(ctx); err != nil {
		return err
	}

	if err := emit(models.LevelInfo, CodeLoginOK, fmt.Sprintf("Logged in as %s", account.Username), nil); err != nil {
		return err
	}
	if err := a.wait(ctx); err != nil {
		return err
	}

	if err := emit(models.LevelInfo, CodeSurveysFound, "Surveys available", map[string]interface{}{"count": 1}); err != nil {
		return err
	}
	if err := a.wait(ctx); err != nil {
		return err
	}

	totals := map[string]interface{}{
		DataPayoutTotal:      a.Payout,
		DataDurationSecTotal: a.DurationSec,
		DataRevenueHour:      models.RevenuePerHour(a.Payout, a.DurationSec),
	}
	completed := map[string]interface{}{
		"survey_id":    "placeholder-1",
		"payout":       a.Payout,
		"duration_sec": a.DurationSec,
	}
	for k, v := range totals {
		completed[k] = v
	}
	if err := emit(models.LevelInfo, CodeSurveyCompleted, "Survey completed", completed); err != nil {
		return err
	}

	return emit(models.LevelInfo, CodeRunFinished, "Run finished", totals)
}

func (a *FiveSurveys) wait(ctx context.Context) error {
	if a.StepDelay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(a.StepDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
