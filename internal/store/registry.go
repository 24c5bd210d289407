// Package store persists tenants' accounts, runs and run events.
package store

import (
	"context"
	"errors"

	"github.com/cankoe/survey-runner/internal/models"
)

// ErrNotFound is returned when a referenced account or run does not exist.
var ErrNotFound = errors.New("not found")

// Registry is the persistence boundary used by the run engine.
//
// UpdateRun is last-write-wins; implementations keep updated_at from moving
// backwards when two writers race on the same run.
type Registry interface {
	CreateRun(ctx context.Context, run *models.Run) (string, error)
	UpdateRun(ctx context.Context, runID string, update models.RunUpdate) error
	GetRun(ctx context.Context, runID string) (*models.Run, error)
	GetAccount(ctx context.Context, accountID string) (*models.Account, error)
	AppendEvent(ctx context.Context, event *models.RunEvent) (string, error)
	ListEvents(ctx context.Context, runID string) ([]models.RunEvent, error)
}

// AccountStore backs the account listing endpoints.
type AccountStore interface {
	CreateAccount(ctx context.Context, account *models.Account) (string, error)
	ListAccounts(ctx context.Context, tenantID string) ([]models.Account, error)
}

// Store is a Registry that also serves accounts.
type Store interface {
	Registry
	AccountStore
}
