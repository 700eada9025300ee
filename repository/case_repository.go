package repository

import (
	"context"
	"errors"

	"bailreckoner-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CaseRepository is the Postgres-backed CaseStore
type CaseRepository struct {
	db *pgxpool.Pool
}

// NewCaseRepository creates a new case repository
func NewCaseRepository(db *pgxpool.Pool) *CaseRepository {
	return &CaseRepository{db: db}
}

// Create creates a new case
func (r *CaseRepository) Create(ctx context.Context, c *models.Case) error {
	query := `
		INSERT INTO cases (
			id, prisoner_name, offense_category, statute, penalty_class,
			age, prior_convictions, years_served, risk_flags,
			judicial_status, annotations
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		) RETURNING created_at, updated_at`

	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Annotations == nil {
		c.Annotations = models.Annotations{}
	}

	err := r.db.QueryRow(
		ctx, query,
		c.ID,
		c.PrisonerName,
		c.OffenseCategory,
		c.Statute,
		c.PenaltyClass,
		c.Age,
		c.PriorConvictions,
		c.YearsServed,
		c.RiskFlags,
		c.JudicialStatus,
		c.Annotations,
	).Scan(&c.CreatedAt, &c.UpdatedAt)

	return err
}

// GetByID retrieves a case by ID
func (r *CaseRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Case, error) {
	c := &models.Case{}
	query := `
		SELECT id, prisoner_name, offense_category, statute, penalty_class,
			age, prior_convictions, years_served, risk_flags,
			prediction_details, judicial_status, annotations,
			created_at, updated_at
		FROM cases
		WHERE id = $1`

	err := r.db.QueryRow(ctx, query, id).Scan(
		&c.ID,
		&c.PrisonerName,
		&c.OffenseCategory,
		&c.Statute,
		&c.PenaltyClass,
		&c.Age,
		&c.PriorConvictions,
		&c.YearsServed,
		&c.RiskFlags,
		&c.PredictionDetails,
		&c.JudicialStatus,
		&c.Annotations,
		&c.CreatedAt,
		&c.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCaseNotFound
		}
		return nil, err
	}

	if c.Annotations == nil {
		c.Annotations = models.Annotations{}
	}

	return c, nil
}

// List retrieves all cases in creation order
func (r *CaseRepository) List(ctx context.Context) ([]*models.Case, error) {
	query := `
		SELECT id, prisoner_name, offense_category, statute, penalty_class,
			age, prior_convictions, years_served, risk_flags,
			prediction_details, judicial_status, annotations,
			created_at, updated_at
		FROM cases
		ORDER BY created_at ASC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cases []*models.Case
	for rows.Next() {
		c := &models.Case{}
		err := rows.Scan(
			&c.ID,
			&c.PrisonerName,
			&c.OffenseCategory,
			&c.Statute,
			&c.PenaltyClass,
			&c.Age,
			&c.PriorConvictions,
			&c.YearsServed,
			&c.RiskFlags,
			&c.PredictionDetails,
			&c.JudicialStatus,
			&c.Annotations,
			&c.CreatedAt,
			&c.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		if c.Annotations == nil {
			c.Annotations = models.Annotations{}
		}
		cases = append(cases, c)
	}

	return cases, rows.Err()
}

// SetPredictionDetails merges prediction details into a case. The guard
// on prediction_details IS NULL makes the set-at-most-once rule a single
// atomic statement rather than a read-then-write.
func (r *CaseRepository) SetPredictionDetails(ctx context.Context, id uuid.UUID, details models.PredictionDetails, overwrite bool) error {
	query := `
		UPDATE cases SET
			prediction_details = $2,
			updated_at = NOW()
		WHERE id = $1`
	if !overwrite {
		query += ` AND prediction_details IS NULL`
	}

	tag, err := r.db.Exec(ctx, query, id, details)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return ErrPredictionExists
	}
	return nil
}

// UpdateJudicialStatus performs the verdict compare-and-set. Concurrent
// decisions on the same case race on the WHERE clause; exactly one wins.
func (r *CaseRepository) UpdateJudicialStatus(ctx context.Context, id uuid.UUID, expected, next models.JudicialStatus) error {
	query := `
		UPDATE cases SET
			judicial_status = $3,
			updated_at = NOW()
		WHERE id = $1 AND judicial_status = $2`

	tag, err := r.db.Exec(ctx, query, id, expected, next)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return ErrStatusConflict
	}
	return nil
}

// AppendAnnotation appends one annotation to the case history
func (r *CaseRepository) AppendAnnotation(ctx context.Context, id uuid.UUID, a models.Annotation) error {
	query := `
		UPDATE cases SET
			annotations = annotations || $2::jsonb,
			updated_at = NOW()
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, models.Annotations{a})
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCaseNotFound
	}
	return nil
}
