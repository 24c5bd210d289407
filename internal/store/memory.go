package store

import (
	"context"
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/cankoe/survey-runner/internal/models"
	"github.com/oklog/ulid/v2"
)

// NewID generates a ULID-based identifier.
func NewID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}

// MemoryStore is an in-process Registry and AccountStore. It is used by
// tests and by the API when no Mongo URI is configured.
type MemoryStore struct {
	mu       sync.RWMutex
	accounts map[string]models.Account
	runs     map[string]models.Run
	events   map[string][]models.RunEvent
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts: make(map[string]models.Account),
		runs:     make(map[string]models.Run),
		events:   make(map[string][]models.RunEvent),
	}
}

func (s *MemoryStore) CreateAccount(_ context.Context, account *models.Account) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if account.ID == "" {
		account.ID = NewID()
	}
	s.accounts[account.ID] = *account
	return account.ID, nil
}

func (s *MemoryStore) ListAccounts(_ context.Context, tenantID string) ([]models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Account, 0, len(s.accounts))
	for _, acc := range s.accounts {
		if tenantID == "" || acc.TenantID == tenantID {
			out = append(out, acc)
		}
	}
	return out, nil
}

func (s *MemoryStore) GetAccount(_ context.Context, accountID string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acc, ok := s.accounts[accountID]
	if !ok {
		return nil, fmt.Errorf("account %s: %w", accountID, ErrNotFound)
	}
	return &acc, nil
}

func (s *MemoryStore) CreateRun(_ context.Context, run *models.Run) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run.ID = NewID()
	s.runs[run.ID] = *run
	return run.ID, nil
}

func (s *MemoryStore) UpdateRun(_ context.Context, runID string, update models.RunUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[runID]
	if !ok {
		return fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	if update.UpdatedAt.Before(run.UpdatedAt) {
		update.UpdatedAt = run.UpdatedAt
	}
	update.Apply(&run)
	s.runs[runID] = run
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, runID string) (*models.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[runID]
	if !ok {
		return nil, fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	if run.Error != nil {
		msg := *run.Error
		run.Error = &msg
	}
	return &run, nil
}

func (s *MemoryStore) AppendEvent(_ context.Context, event *models.RunEvent) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	event.ID = NewID()
	s.events[event.RunID] = append(s.events[event.RunID], *event)
	return event.ID, nil
}

func (s *MemoryStore) ListEvents(_ context.Context, runID string) ([]models.RunEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.RunEvent, len(s.events[runID]))
	copy(out, s.events[runID])
	return out, nil
}
