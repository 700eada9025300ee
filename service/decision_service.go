package service

import (
	"context"
	"errors"

	"bailreckoner-backend/models"
	"bailreckoner-backend/repository"

	"github.com/google/uuid"
)

// DecisionService is the only writer of a case's judicial status. Every
// transition is a single compare-and-set against the store, so at most
// one of any set of concurrent decisions commits.
type DecisionService struct {
	store repository.CaseStore
}

// DecisionServiceOption is a functional option for DecisionService
type DecisionServiceOption func(*DecisionService)

// DecisionWithCaseStore sets the case store
func DecisionWithCaseStore(store repository.CaseStore) DecisionServiceOption {
	return func(s *DecisionService) {
		s.store = store
	}
}

// NewDecisionService creates a new decision service
func NewDecisionService(opts ...DecisionServiceOption) *DecisionService {
	s := &DecisionService{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DecideRequest represents a verdict request from the authority role
type DecideRequest struct {
	CaseID uuid.UUID
	Status models.JudicialStatus
}

// DecideResult represents the result of committing a verdict
type DecideResult struct {
	Case *models.Case
}

// Decide commits the verdict Pending -> Accepted|Rejected. A case whose
// status is already set fails with ErrAlreadyDecided and is not written;
// the duplicate caller observes the conflict, never a silent overwrite.
func (s *DecisionService) Decide(ctx context.Context, req DecideRequest) (*DecideResult, error) {
	if s.store == nil {
		return nil, errors.New("case store not set")
	}

	if req.Status != models.StatusAccepted && req.Status != models.StatusRejected {
		return nil, &ValidationError{Field: "status", Message: `must be "Accepted" or "Rejected"`}
	}

	err := s.store.UpdateJudicialStatus(ctx, req.CaseID, models.StatusPending, req.Status)
	if err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			return nil, ErrAlreadyDecided
		}
		if errors.Is(err, repository.ErrCaseNotFound) {
			return nil, ErrCaseNotFound
		}
		return nil, err
	}

	c, err := s.store.GetByID(ctx, req.CaseID)
	if err != nil {
		return nil, err
	}

	return &DecideResult{Case: c}, nil
}

// ResetRequest represents a request to clear a committed verdict
type ResetRequest struct {
	CaseID uuid.UUID
}

// ResetResult represents the result of clearing a verdict
type ResetResult struct {
	Case *models.Case
}

// Reset is the operational escape hatch: Accepted|Rejected -> Pending,
// preserving prediction details and annotations. Resetting a case that
// is already pending fails with ErrResetNotAllowed.
func (s *DecisionService) Reset(ctx context.Context, req ResetRequest) (*ResetResult, error) {
	if s.store == nil {
		return nil, errors.New("case store not set")
	}

	c, err := s.store.GetByID(ctx, req.CaseID)
	if err != nil {
		if errors.Is(err, repository.ErrCaseNotFound) {
			return nil, ErrCaseNotFound
		}
		return nil, err
	}

	if !c.JudicialStatus.Decided() {
		return nil, ErrResetNotAllowed
	}

	err = s.store.UpdateJudicialStatus(ctx, req.CaseID, c.JudicialStatus, models.StatusPending)
	if err != nil {
		// A concurrent reset won the race; the case is pending now
		// either way, so the loser gets the same signal as resetting a
		// pending case.
		if errors.Is(err, repository.ErrStatusConflict) {
			return nil, ErrResetNotAllowed
		}
		return nil, err
	}

	c, err = s.store.GetByID(ctx, req.CaseID)
	if err != nil {
		return nil, err
	}

	return &ResetResult{Case: c}, nil
}
