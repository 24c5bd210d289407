package models

import "time"

// RunStatus is the persisted lifecycle state of a run. Values are stored
// verbatim and read by existing observer clients.
type RunStatus string

const (
	RunStatusInit         RunStatus = "INIT"
	RunStatusLogin        RunStatus = "LOGIN"
	RunStatusCheckSurveys RunStatus = "CHECK_SURVEYS"
	RunStatusSelectSurvey RunStatus = "SELECT_SURVEY"
	RunStatusStartSurvey  RunStatus = "START_SURVEY"
	RunStatusInSurvey     RunStatus = "IN_SURVEY"
	RunStatusCompleted    RunStatus = "COMPLETED"
	RunStatusDisqualified RunStatus = "DISQUALIFIED"
	RunStatusNoSurveys    RunStatus = "NO_SURVEYS"
	RunStatusError        RunStatus = "ERROR"
	RunStatusFinished     RunStatus = "FINISHED"
)

// Terminal reports whether no further transitions may follow s.
func (s RunStatus) Terminal() bool {
	switch s {
	case RunStatusFinished, RunStatusError, RunStatusDisqualified, RunStatusNoSurveys:
		return true
	}
	return false
}

type Run struct {
	ID               string    `bson:"_id,omitempty" json:"id,omitempty"`
	TenantID         string    `bson:"tenant_id" json:"tenant_id"`
	AccountID        string    `bson:"account_id" json:"account_id"`
	Site             string    `bson:"site" json:"site"`
	Status           RunStatus `bson:"status" json:"status"`
	PayoutTotal      float64   `bson:"payout_total" json:"payout_total"`
	DurationSecTotal int       `bson:"duration_sec_total" json:"duration_sec_total"`
	EVScoreAvg       float64   `bson:"ev_score_avg" json:"ev_score_avg"`
	RevenueHour      float64   `bson:"revenue_hour" json:"revenue_hour"`
	Error            *string   `bson:"error" json:"error"`
	CreatedAt        time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt        time.Time `bson:"updated_at" json:"updated_at"`
}

// RunUpdate carries the fields to overwrite on a run record. Nil fields are
// left untouched. UpdatedAt is always written.
type RunUpdate struct {
	Status           *RunStatus
	PayoutTotal      *float64
	DurationSecTotal *int
	EVScoreAvg       *float64
	RevenueHour      *float64
	Error            *string
	UpdatedAt        time.Time
}

// Apply copies the non-nil fields of u onto r.
func (u RunUpdate) Apply(r *Run) {
	if u.Status != nil {
		r.Status = *u.Status
	}
	if u.PayoutTotal != nil {
		r.PayoutTotal = *u.PayoutTotal
	}
	if u.DurationSecTotal != nil {
		r.DurationSecTotal = *u.DurationSecTotal
	}
	if u.EVScoreAvg != nil {
		r.EVScoreAvg = *u.EVScoreAvg
	}
	if u.RevenueHour != nil {
		r.RevenueHour = *u.RevenueHour
	}
	if u.Error != nil {
		msg := *u.Error
		r.Error = &msg
	}
	r.UpdatedAt = u.UpdatedAt
}

// revenueHourEpsilon is the smallest duration, in hours, used as a divisor.
const revenueHourEpsilon = 1e-6

// RevenuePerHour converts a payout earned over durationSec seconds into an
// hourly rate.
func RevenuePerHour(payout float64, durationSec int) float64 {
	hours := float64(durationSec) / 3600
	if hours < revenueHourEpsilon {
		hours = revenueHourEpsilon
	}
	return payout / hours
}
