package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"bailreckoner-backend/models"
	"bailreckoner-backend/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEligibilityFixture(t *testing.T, handler http.HandlerFunc) (*EligibilityService, *repository.MemoryCaseStore, *models.Case) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	store := repository.NewMemoryCaseStore()
	c := seedCase(t, store)

	svc := NewEligibilityService(
		EligibilityWithCaseStore(store),
		EligibilityWithPredictorURL(server.URL),
	)
	return svc, store, c
}

func predictorReply(eligibility int, pBail, pNoBail float64, reason string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"bail_eligibility":    eligibility,
			"probability_bail":    pBail,
			"probability_no_bail": pNoBail,
			"reason":              reason,
		})
	}
}

func TestPredictStoresNormalizedOutcome(t *testing.T) {
	var captured map[string]interface{}
	svc, _, c := newEligibilityFixture(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		predictorReply(1, 72.4, 27.6, "served over half of the maximum term")(w, r)
	})

	result, err := svc.Predict(context.Background(), PredictRequest{CaseID: c.ID})
	require.NoError(t, err)

	pd := result.Case.PredictionDetails
	require.NotNil(t, pd)
	assert.Equal(t, 1, pd.BailEligibility)
	assert.InDelta(t, 72.4, pd.ProbabilityBail, 0.001)
	assert.InDelta(t, 27.6, pd.ProbabilityNoBail, 0.001)
	assert.Equal(t, "served over half of the maximum term", pd.Reason)

	// The outgoing payload uses the predictor's field names
	assert.Equal(t, "Arjun Mehta", captured["prisonerName"])
	assert.Equal(t, "NDPS", captured["statute"])
	assert.Equal(t, "Severe", captured["penalty"])
	assert.Contains(t, captured, "imprisonment_duration_served")
}

func TestPredictClampsProbabilities(t *testing.T) {
	svc, _, c := newEligibilityFixture(t, predictorReply(0, 130.0, -4.5, "out of range"))

	result, err := svc.Predict(context.Background(), PredictRequest{CaseID: c.ID})
	require.NoError(t, err)

	pd := result.Case.PredictionDetails
	assert.Equal(t, 100.0, pd.ProbabilityBail)
	assert.Equal(t, 0.0, pd.ProbabilityNoBail)
}

func TestPredictMissingCase(t *testing.T) {
	svc, _, _ := newEligibilityFixture(t, predictorReply(1, 50, 50, ""))

	_, err := svc.Predict(context.Background(), PredictRequest{CaseID: uuid.New()})
	assert.ErrorIs(t, err, ErrCaseNotFound)
}

func TestPredictSecondRunRequiresExplicitRerun(t *testing.T) {
	var calls atomic.Int32
	svc, _, c := newEligibilityFixture(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		predictorReply(1, 60, 40, "run")(w, r)
	})
	ctx := context.Background()

	_, err := svc.Predict(ctx, PredictRequest{CaseID: c.ID})
	require.NoError(t, err)

	// Implicit second run is rejected without calling the predictor
	_, err = svc.Predict(ctx, PredictRequest{CaseID: c.ID})
	assert.ErrorIs(t, err, ErrPredictionExists)
	assert.Equal(t, int32(1), calls.Load())

	// Explicit re-run overwrites
	result, err := svc.Predict(ctx, PredictRequest{CaseID: c.ID, Rerun: true})
	require.NoError(t, err)
	require.NotNil(t, result.Case.PredictionDetails)
	assert.Equal(t, int32(2), calls.Load())
}

func TestPredictMalformedResponse(t *testing.T) {
	svc, store, c := newEligibilityFixture(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"probability_bail": 60.0,
			// bail_eligibility and probability_no_bail missing
		})
	})

	_, err := svc.Predict(context.Background(), PredictRequest{CaseID: c.ID})
	assert.ErrorIs(t, err, ErrPredictionInvalid)

	got, err := store.GetByID(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Nil(t, got.PredictionDetails)
}

func TestPredictOutOfRangeEligibility(t *testing.T) {
	svc, _, c := newEligibilityFixture(t, predictorReply(2, 50, 50, ""))

	_, err := svc.Predict(context.Background(), PredictRequest{CaseID: c.ID})
	assert.ErrorIs(t, err, ErrPredictionInvalid)
}

func TestPredictClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	svc, _, c := newEligibilityFixture(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	})

	_, err := svc.Predict(context.Background(), PredictRequest{CaseID: c.ID})
	assert.ErrorIs(t, err, ErrPredictionInvalid)
	assert.Equal(t, int32(1), calls.Load())
}

func TestPredictServerErrorRetriedThenUnavailable(t *testing.T) {
	var calls atomic.Int32
	svc, store, c := newEligibilityFixture(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := svc.Predict(context.Background(), PredictRequest{CaseID: c.ID})
	assert.ErrorIs(t, err, ErrPredictionUnavailable)
	assert.Equal(t, int32(3), calls.Load())

	// The case survives untouched and can be retried later
	got, err := store.GetByID(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Nil(t, got.PredictionDetails)
	assert.Equal(t, models.StatusPending, got.JudicialStatus)
}

func TestPredictRecoversAfterTransientFailure(t *testing.T) {
	var calls atomic.Int32
	svc, _, c := newEligibilityFixture(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		predictorReply(0, 20, 80, "flight risk")(w, r)
	})

	result, err := svc.Predict(context.Background(), PredictRequest{CaseID: c.ID})
	require.NoError(t, err)
	require.NotNil(t, result.Case.PredictionDetails)
	assert.Equal(t, 0, result.Case.PredictionDetails.BailEligibility)
}
