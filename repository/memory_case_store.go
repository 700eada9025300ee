package repository

import (
	"context"
	"sync"
	"time"

	"bailreckoner-backend/models"

	"github.com/google/uuid"
)

// MemoryCaseStore is an in-memory CaseStore with the same atomicity
// contract as the Postgres repository. It backs unit tests and
// database-less development.
type MemoryCaseStore struct {
	mu    sync.RWMutex
	cases map[uuid.UUID]*models.Case
	order []uuid.UUID
}

// NewMemoryCaseStore creates an empty in-memory case store
func NewMemoryCaseStore() *MemoryCaseStore {
	return &MemoryCaseStore{
		cases: make(map[uuid.UUID]*models.Case),
	}
}

// Create creates a new case
func (s *MemoryCaseStore) Create(ctx context.Context, c *models.Case) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Annotations == nil {
		c.Annotations = models.Annotations{}
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	s.cases[c.ID] = c.Clone()
	s.order = append(s.order, c.ID)
	return nil
}

// GetByID retrieves a case by ID
func (s *MemoryCaseStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.cases[id]
	if !ok {
		return nil, ErrCaseNotFound
	}
	return c.Clone(), nil
}

// List retrieves all cases in creation order
func (s *MemoryCaseStore) List(ctx context.Context) ([]*models.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cases := make([]*models.Case, 0, len(s.order))
	for _, id := range s.order {
		cases = append(cases, s.cases[id].Clone())
	}
	return cases, nil
}

// SetPredictionDetails merges prediction details, at most once unless
// overwrite is set
func (s *MemoryCaseStore) SetPredictionDetails(ctx context.Context, id uuid.UUID, details models.PredictionDetails, overwrite bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.cases[id]
	if !ok {
		return ErrCaseNotFound
	}
	if c.PredictionDetails != nil && !overwrite {
		return ErrPredictionExists
	}
	pd := details
	c.PredictionDetails = &pd
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// UpdateJudicialStatus performs the verdict compare-and-set
func (s *MemoryCaseStore) UpdateJudicialStatus(ctx context.Context, id uuid.UUID, expected, next models.JudicialStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.cases[id]
	if !ok {
		return ErrCaseNotFound
	}
	if c.JudicialStatus != expected {
		return ErrStatusConflict
	}
	c.JudicialStatus = next
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// AppendAnnotation appends one annotation to the case history
func (s *MemoryCaseStore) AppendAnnotation(ctx context.Context, id uuid.UUID, a models.Annotation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.cases[id]
	if !ok {
		return ErrCaseNotFound
	}
	c.Annotations = append(c.Annotations, a)
	c.UpdatedAt = time.Now().UTC()
	return nil
}
