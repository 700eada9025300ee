package service

import (
	"context"
	"sync"
	"testing"

	"bailreckoner-backend/models"
	"bailreckoner-backend/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedCase(t *testing.T, store repository.CaseStore) *models.Case {
	t.Helper()
	c := &models.Case{
		PrisonerName:     "Arjun Mehta",
		OffenseCategory:  "Economic Offence",
		Statute:          "NDPS",
		PenaltyClass:     "Severe",
		Age:              41,
		PriorConvictions: 2,
		YearsServed:      3,
		JudicialStatus:   models.StatusPending,
		Annotations:      models.Annotations{},
	}
	require.NoError(t, store.Create(context.Background(), c))
	return c
}

func TestDecideCommitsVerdict(t *testing.T) {
	store := repository.NewMemoryCaseStore()
	svc := NewDecisionService(DecisionWithCaseStore(store))
	c := seedCase(t, store)

	result, err := svc.Decide(context.Background(), DecideRequest{CaseID: c.ID, Status: models.StatusRejected})
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, result.Case.JudicialStatus)
}

func TestDecideRejectsInvalidStatus(t *testing.T) {
	store := repository.NewMemoryCaseStore()
	svc := NewDecisionService(DecisionWithCaseStore(store))
	c := seedCase(t, store)

	_, err := svc.Decide(context.Background(), DecideRequest{CaseID: c.ID, Status: "Granted"})
	assert.True(t, IsValidation(err))

	_, err = svc.Decide(context.Background(), DecideRequest{CaseID: c.ID, Status: models.StatusPending})
	assert.True(t, IsValidation(err))
}

func TestDecideMissingCase(t *testing.T) {
	store := repository.NewMemoryCaseStore()
	svc := NewDecisionService(DecisionWithCaseStore(store))

	_, err := svc.Decide(context.Background(), DecideRequest{CaseID: uuid.New(), Status: models.StatusAccepted})
	assert.ErrorIs(t, err, ErrCaseNotFound)
}

func TestDecideResetDecideLifecycle(t *testing.T) {
	store := repository.NewMemoryCaseStore()
	svc := NewDecisionService(DecisionWithCaseStore(store))
	ctx := context.Background()
	c := seedCase(t, store)

	// First verdict commits
	result, err := svc.Decide(ctx, DecideRequest{CaseID: c.ID, Status: models.StatusRejected})
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, result.Case.JudicialStatus)

	// Second verdict observes the conflict, never a silent overwrite
	_, err = svc.Decide(ctx, DecideRequest{CaseID: c.ID, Status: models.StatusAccepted})
	assert.ErrorIs(t, err, ErrAlreadyDecided)

	got, err := store.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, got.JudicialStatus)

	// Reset reopens the case
	resetResult, err := svc.Reset(ctx, ResetRequest{CaseID: c.ID})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, resetResult.Case.JudicialStatus)

	// A fresh verdict is accepted again
	result, err = svc.Decide(ctx, DecideRequest{CaseID: c.ID, Status: models.StatusAccepted})
	require.NoError(t, err)
	assert.Equal(t, models.StatusAccepted, result.Case.JudicialStatus)
}

func TestResetPendingCaseNotAllowed(t *testing.T) {
	store := repository.NewMemoryCaseStore()
	svc := NewDecisionService(DecisionWithCaseStore(store))
	c := seedCase(t, store)

	_, err := svc.Reset(context.Background(), ResetRequest{CaseID: c.ID})
	assert.ErrorIs(t, err, ErrResetNotAllowed)
}

func TestResetMissingCase(t *testing.T) {
	store := repository.NewMemoryCaseStore()
	svc := NewDecisionService(DecisionWithCaseStore(store))

	_, err := svc.Reset(context.Background(), ResetRequest{CaseID: uuid.New()})
	assert.ErrorIs(t, err, ErrCaseNotFound)
}

func TestResetPreservesPredictionAndAnnotations(t *testing.T) {
	store := repository.NewMemoryCaseStore()
	svc := NewDecisionService(DecisionWithCaseStore(store))
	ctx := context.Background()
	c := seedCase(t, store)

	pd := models.PredictionDetails{ProbabilityBail: 62, ProbabilityNoBail: 38, BailEligibility: 1, Reason: "served over half term"}
	require.NoError(t, store.SetPredictionDetails(ctx, c.ID, pd, false))
	require.NoError(t, store.AppendAnnotation(ctx, c.ID, models.Annotation{Kind: models.AnnotationChat, Query: "q", Text: "a"}))

	_, err := svc.Decide(ctx, DecideRequest{CaseID: c.ID, Status: models.StatusAccepted})
	require.NoError(t, err)

	result, err := svc.Reset(ctx, ResetRequest{CaseID: c.ID})
	require.NoError(t, err)
	require.NotNil(t, result.Case.PredictionDetails)
	assert.Equal(t, "served over half term", result.Case.PredictionDetails.Reason)
	assert.Len(t, result.Case.Annotations, 1)
}

func TestConcurrentDecideSingleWinner(t *testing.T) {
	store := repository.NewMemoryCaseStore()
	svc := NewDecisionService(DecisionWithCaseStore(store))
	ctx := context.Background()
	c := seedCase(t, store)

	const workers = 10
	var wg sync.WaitGroup
	errs := make(chan error, workers)

	for i := 0; i < workers; i++ {
		status := models.StatusAccepted
		if i%2 == 1 {
			status = models.StatusRejected
		}
		wg.Add(1)
		go func(next models.JudicialStatus) {
			defer wg.Done()
			_, err := svc.Decide(ctx, DecideRequest{CaseID: c.ID, Status: next})
			errs <- err
		}(status)
	}
	wg.Wait()
	close(errs)

	var wins int
	for err := range errs {
		if err == nil {
			wins++
		} else {
			require.ErrorIs(t, err, ErrAlreadyDecided)
		}
	}
	assert.Equal(t, 1, wins)
}
