package repository

import (
	"context"
	"errors"

	"bailreckoner-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// FileRepository handles database operations for case documents
type FileRepository struct {
	db *pgxpool.Pool
}

// NewFileRepository creates a new file repository
func NewFileRepository(db *pgxpool.Pool) *FileRepository {
	return &FileRepository{db: db}
}

// Create creates a new case file record
func (r *FileRepository) Create(ctx context.Context, file *models.CaseFile) error {
	query := `
		INSERT INTO case_files (
			id, case_id, filename, mime_type, size, storage_path
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`

	if file.ID == uuid.Nil {
		file.ID = uuid.New()
	}

	err := r.db.QueryRow(
		ctx, query,
		file.ID,
		file.CaseID,
		file.Filename,
		file.MimeType,
		file.Size,
		file.StoragePath,
	).Scan(&file.CreatedAt)

	return err
}

// GetByID retrieves a case file by ID
func (r *FileRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.CaseFile, error) {
	file := &models.CaseFile{}
	query := `
		SELECT id, case_id, filename, mime_type, size, storage_path, created_at
		FROM case_files
		WHERE id = $1`

	err := r.db.QueryRow(ctx, query, id).Scan(
		&file.ID,
		&file.CaseID,
		&file.Filename,
		&file.MimeType,
		&file.Size,
		&file.StoragePath,
		&file.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCaseNotFound
		}
		return nil, err
	}

	return file, nil
}

// ListByCaseID retrieves all documents uploaded against a case
func (r *FileRepository) ListByCaseID(ctx context.Context, caseID uuid.UUID) ([]*models.CaseFile, error) {
	query := `
		SELECT id, case_id, filename, mime_type, size, storage_path, created_at
		FROM case_files
		WHERE case_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []*models.CaseFile
	for rows.Next() {
		file := &models.CaseFile{}
		err := rows.Scan(
			&file.ID,
			&file.CaseID,
			&file.Filename,
			&file.MimeType,
			&file.Size,
			&file.StoragePath,
			&file.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}

	return files, rows.Err()
}

// Delete deletes a case file record
func (r *FileRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM case_files WHERE id = $1`
	_, err := r.db.Exec(ctx, query, id)
	return err
}
