package repository

import (
	"context"
	"errors"

	"bailreckoner-backend/models"

	"github.com/google/uuid"
)

var (
	ErrCaseNotFound     = errors.New("case not found")
	ErrPredictionExists = errors.New("prediction details already set")
	ErrStatusConflict   = errors.New("judicial status changed concurrently")
)

// CaseStore is the single owner of authoritative case state. All
// mutation goes through field-scoped operations; callers cannot patch
// arbitrary fields. Each write is atomic: readers never observe a
// partially-applied update.
type CaseStore interface {
	Create(ctx context.Context, c *models.Case) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Case, error)

	// List returns all cases in creation order.
	List(ctx context.Context) ([]*models.Case, error)

	// SetPredictionDetails merges a prediction into the case. Unless
	// overwrite is set (an explicit re-run), a case that already has
	// prediction details is left untouched and ErrPredictionExists is
	// returned.
	SetPredictionDetails(ctx context.Context, id uuid.UUID, details models.PredictionDetails, overwrite bool) error

	// UpdateJudicialStatus is a compare-and-set keyed by the current
	// status. ErrStatusConflict is returned, and nothing written, when
	// the stored status differs from expected.
	UpdateJudicialStatus(ctx context.Context, id uuid.UUID, expected, next models.JudicialStatus) error

	// AppendAnnotation appends exactly one annotation. Annotations are
	// never removed or reordered.
	AppendAnnotation(ctx context.Context, id uuid.UUID, a models.Annotation) error
}
