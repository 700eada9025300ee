package repository

import (
	"context"
	"sync"
	"testing"

	"bailreckoner-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCase() *models.Case {
	return &models.Case{
		PrisonerName:     "Ravi Kumar",
		OffenseCategory:  "Economic Offence",
		Statute:          "IPC",
		PenaltyClass:     "Moderate",
		Age:              34,
		PriorConvictions: 1,
		YearsServed:      2.5,
		JudicialStatus:   models.StatusPending,
		Annotations:      models.Annotations{},
	}
}

func TestMemoryCaseStoreCreateAndGet(t *testing.T) {
	store := NewMemoryCaseStore()
	ctx := context.Background()

	c := newTestCase()
	require.NoError(t, store.Create(ctx, c))
	require.NotEqual(t, uuid.Nil, c.ID)
	assert.False(t, c.CreatedAt.IsZero())

	got, err := store.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.PrisonerName, got.PrisonerName)
	assert.Equal(t, models.StatusPending, got.JudicialStatus)
	assert.Nil(t, got.PredictionDetails)
	assert.NotNil(t, got.Annotations)
	assert.Empty(t, got.Annotations)
}

func TestMemoryCaseStoreGetMissing(t *testing.T) {
	store := NewMemoryCaseStore()

	_, err := store.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrCaseNotFound)
}

func TestMemoryCaseStoreGetReturnsCopy(t *testing.T) {
	store := NewMemoryCaseStore()
	ctx := context.Background()

	c := newTestCase()
	require.NoError(t, store.Create(ctx, c))

	first, err := store.GetByID(ctx, c.ID)
	require.NoError(t, err)
	first.PrisonerName = "mutated"
	first.Annotations = append(first.Annotations, models.Annotation{Kind: models.AnnotationChat})

	second, err := store.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ravi Kumar", second.PrisonerName)
	assert.Empty(t, second.Annotations)
}

func TestMemoryCaseStoreListCreationOrder(t *testing.T) {
	store := NewMemoryCaseStore()
	ctx := context.Background()

	var ids []uuid.UUID
	for i := 0; i < 5; i++ {
		c := newTestCase()
		require.NoError(t, store.Create(ctx, c))
		ids = append(ids, c.ID)
	}

	cases, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, cases, 5)
	for i, c := range cases {
		assert.Equal(t, ids[i], c.ID)
	}
}

func TestMemoryCaseStoreSetPredictionOnce(t *testing.T) {
	store := NewMemoryCaseStore()
	ctx := context.Background()

	c := newTestCase()
	require.NoError(t, store.Create(ctx, c))

	first := models.PredictionDetails{ProbabilityBail: 70, ProbabilityNoBail: 30, BailEligibility: 1, Reason: "first"}
	require.NoError(t, store.SetPredictionDetails(ctx, c.ID, first, false))

	second := models.PredictionDetails{ProbabilityBail: 10, ProbabilityNoBail: 90, BailEligibility: 0, Reason: "second"}
	err := store.SetPredictionDetails(ctx, c.ID, second, false)
	assert.ErrorIs(t, err, ErrPredictionExists)

	got, err := store.GetByID(ctx, c.ID)
	require.NoError(t, err)
	require.NotNil(t, got.PredictionDetails)
	assert.Equal(t, "first", got.PredictionDetails.Reason)

	// Explicit overwrite is allowed
	require.NoError(t, store.SetPredictionDetails(ctx, c.ID, second, true))
	got, err = store.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "second", got.PredictionDetails.Reason)
}

func TestMemoryCaseStoreStatusCompareAndSet(t *testing.T) {
	store := NewMemoryCaseStore()
	ctx := context.Background()

	c := newTestCase()
	require.NoError(t, store.Create(ctx, c))

	require.NoError(t, store.UpdateJudicialStatus(ctx, c.ID, models.StatusPending, models.StatusRejected))

	err := store.UpdateJudicialStatus(ctx, c.ID, models.StatusPending, models.StatusAccepted)
	assert.ErrorIs(t, err, ErrStatusConflict)

	got, err := store.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, got.JudicialStatus)
}

func TestMemoryCaseStoreConcurrentDecideSingleWinner(t *testing.T) {
	store := NewMemoryCaseStore()
	ctx := context.Background()

	c := newTestCase()
	require.NoError(t, store.Create(ctx, c))

	const workers = 16
	var wg sync.WaitGroup
	results := make(chan error, workers)

	for i := 0; i < workers; i++ {
		status := models.StatusAccepted
		if i%2 == 1 {
			status = models.StatusRejected
		}
		wg.Add(1)
		go func(next models.JudicialStatus) {
			defer wg.Done()
			results <- store.UpdateJudicialStatus(ctx, c.ID, models.StatusPending, next)
		}(status)
	}
	wg.Wait()
	close(results)

	var wins, conflicts int
	for err := range results {
		switch {
		case err == nil:
			wins++
		default:
			require.ErrorIs(t, err, ErrStatusConflict)
			conflicts++
		}
	}

	assert.Equal(t, 1, wins)
	assert.Equal(t, workers-1, conflicts)

	got, err := store.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, got.JudicialStatus.Decided())
}

func TestMemoryCaseStoreAppendAnnotation(t *testing.T) {
	store := NewMemoryCaseStore()
	ctx := context.Background()

	c := newTestCase()
	require.NoError(t, store.Create(ctx, c))

	require.NoError(t, store.AppendAnnotation(ctx, c.ID, models.Annotation{Kind: models.AnnotationChat, Query: "q1", Text: "a1"}))
	require.NoError(t, store.AppendAnnotation(ctx, c.ID, models.Annotation{Kind: models.AnnotationSummary, Query: "doc.pdf", Text: "s1"}))

	got, err := store.GetByID(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, got.Annotations, 2)
	assert.Equal(t, "q1", got.Annotations[0].Query)
	assert.Equal(t, models.AnnotationSummary, got.Annotations[1].Kind)
}

func TestMemoryCaseStoreResetPreservesPredictionAndAnnotations(t *testing.T) {
	store := NewMemoryCaseStore()
	ctx := context.Background()

	c := newTestCase()
	require.NoError(t, store.Create(ctx, c))

	pd := models.PredictionDetails{ProbabilityBail: 55, ProbabilityNoBail: 45, BailEligibility: 1, Reason: "borderline"}
	require.NoError(t, store.SetPredictionDetails(ctx, c.ID, pd, false))
	require.NoError(t, store.AppendAnnotation(ctx, c.ID, models.Annotation{Kind: models.AnnotationChat, Query: "q", Text: "a"}))
	require.NoError(t, store.UpdateJudicialStatus(ctx, c.ID, models.StatusPending, models.StatusAccepted))

	require.NoError(t, store.UpdateJudicialStatus(ctx, c.ID, models.StatusAccepted, models.StatusPending))

	got, err := store.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, got.JudicialStatus)
	require.NotNil(t, got.PredictionDetails)
	assert.Equal(t, "borderline", got.PredictionDetails.Reason)
	require.Len(t, got.Annotations, 1)
}
