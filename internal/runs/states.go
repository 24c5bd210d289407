package runs

import (
	"github.com/cankoe/survey-runner/internal/adapters"
	"github.com/cankoe/survey-runner/internal/models"
)

// transitions lists the forward edges of the run lifecycle. ERROR is reachable
// from every non-terminal state and is not repeated here.
var transitions = map[models.RunStatus][]models.RunStatus{
	models.RunStatusInit:         {models.RunStatusLogin},
	models.RunStatusLogin:        {models.RunStatusCheckSurveys},
	models.RunStatusCheckSurveys: {models.RunStatusSelectSurvey, models.RunStatusInSurvey, models.RunStatusNoSurveys},
	models.RunStatusSelectSurvey: {models.RunStatusStartSurvey},
	models.RunStatusStartSurvey:  {models.RunStatusInSurvey},
	models.RunStatusInSurvey:     {models.RunStatusCompleted, models.RunStatusDisqualified},
	models.RunStatusCompleted:    {models.RunStatusFinished, models.RunStatusCheckSurveys},
}

// codeStatus maps emission codes to the state they move a run into. Codes
// missing here are informational.
var codeStatus = map[string]models.RunStatus{
	adapters.CodeRunStarted:         models.RunStatusLogin,
	adapters.CodeLoginOK:            models.RunStatusCheckSurveys,
	adapters.CodeSurveySelected:     models.RunStatusSelectSurvey,
	adapters.CodeSurveyStarted:      models.RunStatusStartSurvey,
	adapters.CodeSurveysFound:       models.RunStatusInSurvey,
	adapters.CodeSurveyCompleted:    models.RunStatusCompleted,
	adapters.CodeSurveyDisqualified: models.RunStatusDisqualified,
	adapters.CodeNoSurveys:          models.RunStatusNoSurveys,
	adapters.CodeRunFinished:        models.RunStatusFinished,
	adapters.CodeRunError:           models.RunStatusError,
	adapters.CodeAdapterMissing:     models.RunStatusError,
}

// StatusForCode returns the state implied by an emission code.
func StatusForCode(code string) (models.RunStatus, bool) {
	s, ok := codeStatus[code]
	return s, ok
}

// CanTransition reports whether a run in from may move to to.
func CanTransition(from, to models.RunStatus) bool {
	if from.Terminal() {
		return false
	}
	if to == models.RunStatusError {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
