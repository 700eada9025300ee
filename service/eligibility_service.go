package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"bailreckoner-backend/models"
	"bailreckoner-backend/repository"

	"github.com/google/uuid"
)

const (
	defaultPredictorURL = "http://localhost:5000/api/predict"
	maxRetries          = 3
	initialBackoff      = time.Second
	predictorTimeout    = 30 * time.Second
)

// EligibilityService calls the external bail-eligibility predictor and
// merges its normalized result into the case store. The external call
// always happens before the store write; a failed or timed-out call
// leaves the case unmodified.
type EligibilityService struct {
	store        repository.CaseStore
	predictorURL string
	httpClient   *http.Client
}

// EligibilityServiceOption is a functional option for EligibilityService
type EligibilityServiceOption func(*EligibilityService)

// EligibilityWithCaseStore sets the case store
func EligibilityWithCaseStore(store repository.CaseStore) EligibilityServiceOption {
	return func(s *EligibilityService) {
		s.store = store
	}
}

// EligibilityWithPredictorURL sets the external predictor endpoint
func EligibilityWithPredictorURL(url string) EligibilityServiceOption {
	return func(s *EligibilityService) {
		s.predictorURL = url
	}
}

// EligibilityWithHTTPClient sets the HTTP client used for predictor calls
func EligibilityWithHTTPClient(client *http.Client) EligibilityServiceOption {
	return func(s *EligibilityService) {
		s.httpClient = client
	}
}

// NewEligibilityService creates a new eligibility service
func NewEligibilityService(opts ...EligibilityServiceOption) *EligibilityService {
	s := &EligibilityService{
		predictorURL: defaultPredictorURL,
		httpClient:   &http.Client{Timeout: predictorTimeout},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// predictorRequest matches the field names the external predictor
// expects. The key casing is part of the external contract.
type predictorRequest struct {
	PrisonerName               string `json:"prisonerName"`
	Age                        int    `json:"age"`
	PriorConvictions           int    `json:"priorConvictions"`
	Statute                    string `json:"statute"`
	OffenseCategory            string `json:"offenseCategory"`
	Penalty                    string `json:"penalty"`
	RiskOfEscape               bool   `json:"riskOfEscape"`
	RiskOfInfluence            bool   `json:"riskOfInfluence"`
	ServedHalfTerm             bool   `json:"servedHalfTerm"`
	SuretyBondRequired         bool   `json:"surety_bond_required"`
	PersonalBondRequired       bool   `json:"personal_bond_required"`
	FinesApplicable            bool   `json:"fines_applicable"`
	ImprisonmentDurationServed int    `json:"imprisonment_duration_served"`
}

// predictorResponse uses pointers so a missing required field is
// distinguishable from a zero value
type predictorResponse struct {
	BailEligibility   *int     `json:"bail_eligibility"`
	ProbabilityBail   *float64 `json:"probability_bail"`
	ProbabilityNoBail *float64 `json:"probability_no_bail"`
	Reason            string   `json:"reason"`
}

// PredictRequest represents a request to run the predictor for a case
type PredictRequest struct {
	CaseID uuid.UUID

	// Rerun marks an explicit re-run. Without it a case that already
	// has prediction details is not overwritten.
	Rerun bool
}

// PredictResult represents the result of a prediction run
type PredictResult struct {
	Case *models.Case
}

// Predict sends the case features to the external predictor, normalizes
// the response, and merges it into the case. The merge is rejected with
// ErrPredictionExists when details are already present and the run was
// not an explicit re-run.
func (s *EligibilityService) Predict(ctx context.Context, req PredictRequest) (*PredictResult, error) {
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

	if c.PredictionDetails != nil && !req.Rerun {
		return nil, ErrPredictionExists
	}

	details, err := s.callPredictor(ctx, c)
	if err != nil {
		return nil, err
	}

	err = s.store.SetPredictionDetails(ctx, c.ID, *details, req.Rerun)
	if err != nil {
		if errors.Is(err, repository.ErrPredictionExists) {
			return nil, ErrPredictionExists
		}
		if errors.Is(err, repository.ErrCaseNotFound) {
			return nil, ErrCaseNotFound
		}
		return nil, err
	}

	c, err = s.store.GetByID(ctx, c.ID)
	if err != nil {
		return nil, err
	}

	return &PredictResult{Case: c}, nil
}

// callPredictor performs the external call with retry and exponential
// backoff. Transport failures and 5xx responses are retried and surface
// as ErrPredictionUnavailable; 4xx responses and malformed bodies are
// terminal and surface as ErrPredictionInvalid.
func (s *EligibilityService) callPredictor(ctx context.Context, c *models.Case) (*models.PredictionDetails, error) {
	daysServed := int(math.Floor(c.YearsServed * 365.25))

	reqBody := predictorRequest{
		PrisonerName:               c.PrisonerName,
		Age:                        c.Age,
		PriorConvictions:           c.PriorConvictions,
		Statute:                    c.Statute,
		OffenseCategory:            c.OffenseCategory,
		Penalty:                    c.PenaltyClass,
		RiskOfEscape:               c.RiskFlags.FlightRisk,
		RiskOfInfluence:            c.RiskFlags.WitnessInfluenceRisk,
		ServedHalfTerm:             c.RiskFlags.HalfTermServed,
		SuretyBondRequired:         c.RiskFlags.SuretyBondRequired,
		PersonalBondRequired:       c.RiskFlags.PersonalBondRequired,
		FinesApplicable:            c.RiskFlags.FinesApplicable,
		ImprisonmentDurationServed: daysServed,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal predictor request: %w", err)
	}

	var lastErr error
	backoff := initialBackoff
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", ErrPredictionUnavailable, ctx.Err())
			}
			backoff *= 2
		}

		httpReq, err := http.NewRequestWithContext(ctx, "POST", s.predictorURL, bytes.NewBuffer(jsonData))
		if err != nil {
			return nil, fmt.Errorf("failed to create predictor request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := s.httpClient.Do(httpReq)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode == http.StatusOK {
			var apiResp predictorResponse
			err := json.NewDecoder(resp.Body).Decode(&apiResp)
			resp.Body.Close()
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrPredictionInvalid, err)
			}
			return normalizePrediction(apiResp)
		}

		resp.Body.Close()

		// Client errors mean the request itself was rejected; retrying
		// the same payload cannot succeed.
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return nil, fmt.Errorf("%w: predictor rejected request with status %d", ErrPredictionInvalid, resp.StatusCode)
		}

		lastErr = fmt.Errorf("predictor returned status %d", resp.StatusCode)
	}

	return nil, fmt.Errorf("%w: %v", ErrPredictionUnavailable, lastErr)
}

// normalizePrediction validates required fields and clamps probabilities
// to [0,100]. bail_eligibility is passed through from the predictor,
// never re-derived from the probabilities, so the stored flag can never
// disagree with the external decision.
func normalizePrediction(resp predictorResponse) (*models.PredictionDetails, error) {
	if resp.BailEligibility == nil {
		return nil, fmt.Errorf("%w: missing bail_eligibility", ErrPredictionInvalid)
	}
	if resp.ProbabilityBail == nil {
		return nil, fmt.Errorf("%w: missing probability_bail", ErrPredictionInvalid)
	}
	if resp.ProbabilityNoBail == nil {
		return nil, fmt.Errorf("%w: missing probability_no_bail", ErrPredictionInvalid)
	}
	if *resp.BailEligibility != 0 && *resp.BailEligibility != 1 {
		return nil, fmt.Errorf("%w: bail_eligibility must be 0 or 1, got %d", ErrPredictionInvalid, *resp.BailEligibility)
	}

	return &models.PredictionDetails{
		ProbabilityBail:   clampProbability(*resp.ProbabilityBail),
		ProbabilityNoBail: clampProbability(*resp.ProbabilityNoBail),
		BailEligibility:   *resp.BailEligibility,
		Reason:            resp.Reason,
	}, nil
}

func clampProbability(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
