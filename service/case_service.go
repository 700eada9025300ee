package service

import (
	"context"
	"errors"
	"fmt"

	"bailreckoner-backend/models"
	"bailreckoner-backend/repository"

	"github.com/google/uuid"
)

const defaultMinimumAge = 18

// CaseService handles intake and retrieval of cases
type CaseService struct {
	store      repository.CaseStore
	minimumAge int
}

// CaseServiceOption is a functional option for CaseService
type CaseServiceOption func(*CaseService)

// WithCaseStore sets the case store
func WithCaseStore(store repository.CaseStore) CaseServiceOption {
	return func(s *CaseService) {
		s.store = store
	}
}

// WithMinimumAge overrides the configured intake minimum age
func WithMinimumAge(age int) CaseServiceOption {
	return func(s *CaseService) {
		s.minimumAge = age
	}
}

// NewCaseService creates a new case service
func NewCaseService(opts ...CaseServiceOption) *CaseService {
	s := &CaseService{minimumAge: defaultMinimumAge}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CaseFeatures is the complete intake feature set for one case
type CaseFeatures struct {
	PrisonerName     string
	Age              int
	PriorConvictions int
	YearsServed      float64
	Statute          string
	OffenseCategory  string
	PenaltyClass     string
	RiskFlags        models.RiskFlags
}

// CreateCaseRequest represents a request to create a case
type CreateCaseRequest struct {
	Features CaseFeatures
}

// CreateCaseResult represents the result of creating a case
type CreateCaseResult struct {
	Case *models.Case
}

// validate rejects incomplete or out-of-range features before anything
// touches the store
func (s *CaseService) validate(f CaseFeatures) error {
	if f.PrisonerName == "" {
		return &ValidationError{Field: "prisoner_name", Message: "required"}
	}
	if f.Age < s.minimumAge {
		return &ValidationError{Field: "age", Message: fmt.Sprintf("must be at least %d", s.minimumAge)}
	}
	if f.PriorConvictions < 0 {
		return &ValidationError{Field: "prior_convictions", Message: "must be non-negative"}
	}
	if f.YearsServed < 0 {
		return &ValidationError{Field: "years_served", Message: "must be non-negative"}
	}
	if !models.ValidStatute(f.Statute) {
		return &ValidationError{Field: "statute", Message: fmt.Sprintf("must be one of %v", models.Statutes)}
	}
	if !models.ValidOffenseCategory(f.OffenseCategory) {
		return &ValidationError{Field: "offense_category", Message: fmt.Sprintf("must be one of %v", models.OffenseCategories)}
	}
	if !models.ValidPenaltyClass(f.PenaltyClass) {
		return &ValidationError{Field: "penalty_class", Message: fmt.Sprintf("must be one of %v", models.PenaltyClasses)}
	}
	return nil
}

// CreateCase validates the intake features and creates a pending case
// with no prediction and no annotations
func (s *CaseService) CreateCase(ctx context.Context, req CreateCaseRequest) (*CreateCaseResult, error) {
	if s.store == nil {
		return nil, errors.New("case store not set")
	}

	if err := s.validate(req.Features); err != nil {
		return nil, err
	}

	f := req.Features
	c := &models.Case{
		ID:               uuid.New(),
		PrisonerName:     f.PrisonerName,
		OffenseCategory:  f.OffenseCategory,
		Statute:          f.Statute,
		PenaltyClass:     f.PenaltyClass,
		Age:              f.Age,
		PriorConvictions: f.PriorConvictions,
		YearsServed:      f.YearsServed,
		RiskFlags:        f.RiskFlags,
		JudicialStatus:   models.StatusPending,
		Annotations:      models.Annotations{},
	}

	if err := s.store.Create(ctx, c); err != nil {
		return nil, err
	}

	return &CreateCaseResult{Case: c}, nil
}

// GetCaseRequest represents a request to get a case
type GetCaseRequest struct {
	ID uuid.UUID
}

// GetCaseResult represents the result of getting a case
type GetCaseResult struct {
	Case *models.Case
}

// GetCase retrieves a case by ID
func (s *CaseService) GetCase(ctx context.Context, req GetCaseRequest) (*GetCaseResult, error) {
	if s.store == nil {
		return nil, errors.New("case store not set")
	}

	c, err := s.store.GetByID(ctx, req.ID)
	if err != nil {
		if errors.Is(err, repository.ErrCaseNotFound) {
			return nil, ErrCaseNotFound
		}
		return nil, err
	}

	return &GetCaseResult{Case: c}, nil
}

// ListCasesResult represents the result of listing cases
type ListCasesResult struct {
	Cases []*models.Case
}

// ListCases lists all cases in creation order
func (s *CaseService) ListCases(ctx context.Context) (*ListCasesResult, error) {
	if s.store == nil {
		return nil, errors.New("case store not set")
	}

	cases, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}

	return &ListCasesResult{Cases: cases}, nil
}
