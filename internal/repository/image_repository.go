package repository

import (
	"context"
	"database/sql"

	"github.com/jjoyayroo/alphathreads/internal/domain"
)

// ImageRepository defines the interface for image metadata access
type ImageRepository interface {
	Insert(ctx context.Context, rec domain.ImageRecord) error
	ListByOwner(ctx context.Context, ownerID string) ([]domain.ImageRecord, error)
	ExistsByOwnerAndName(ctx context.Context, ownerID, fileName string) (bool, error)
}

// PostgresImageRepository implements ImageRepository for PostgreSQL
type PostgresImageRepository struct {
	db *sql.DB
}

// NewPostgresImageRepository creates a new PostgreSQL image repository
func NewPostgresImageRepository(db *sql.DB) *PostgresImageRepository {
	return &PostgresImageRepository{db: db}
}

// Insert writes one image metadata record
func (r *PostgresImageRepository) Insert(ctx context.Context, rec domain.ImageRecord) error {
	query := `
		INSERT INTO images (id, owner_id, prompt, model, file_name, storage_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(ctx, query,
		rec.ID,
		rec.OwnerID,
		rec.Prompt,
		rec.Model,
		rec.FileName,
		rec.StorageURL,
		rec.CreatedAt,
	)
	return err
}

// ListByOwner retrieves all records belonging to ownerID, newest first
func (r *PostgresImageRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.ImageRecord, error) {
	query := `
		SELECT id, owner_id, prompt, model, file_name, storage_url, created_at
		FROM images
		WHERE owner_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]domain.ImageRecord, 0)
	for rows.Next() {
		var rec domain.ImageRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.OwnerID,
			&rec.Prompt,
			&rec.Model,
			&rec.FileName,
			&rec.StorageURL,
			&rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// ExistsByOwnerAndName reports whether any record references the stored
// blob. The match is on owner and file name, never on the storage URL,
// which embeds a base URL that may change between deployments.
func (r *PostgresImageRepository) ExistsByOwnerAndName(ctx context.Context, ownerID, fileName string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM images WHERE owner_id = $1 AND file_name = $2
		)
	`

	var exists bool
	err := r.db.QueryRowContext(ctx, query, ownerID, fileName).Scan(&exists)
	if err != nil {
		return false, err
	}

	return exists, nil
}
