package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"github.com/verisite/visit-service/internal/models"
)

type PhotoRepository interface {
	Create(ctx context.Context, p *models.Photo) error
	// GetByID returns the photo including its content, or nil when absent.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Photo, error)
	// GetDigest returns the stored content digest without loading the
	// bytes; exists=false when no such photo was uploaded.
	GetDigest(ctx context.Context, id uuid.UUID) (digest string, exists bool, err error)
}

type photoRepo struct {
	db DB
}

func NewPhotoRepository(db DB) PhotoRepository {
	return &photoRepo{db: db}
}

func (r *photoRepo) Create(ctx context.Context, p *models.Photo) error {
	q := `
        INSERT INTO photos (id, digest, content_type, size_bytes, content)
        VALUES ($1, $2, $3, $4, $5)
    `
	_, err := r.db.Exec(ctx, q, p.ID, p.Digest, p.ContentType, p.SizeBytes, p.Content)
	return err
}

func (r *photoRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Photo, error) {
	q := `
        SELECT id, digest, content_type, size_bytes, content, created_at
        FROM photos
        WHERE id = $1
    `
	var p models.Photo
	err := r.db.QueryRow(ctx, q, id).Scan(
		&p.ID, &p.Digest, &p.ContentType, &p.SizeBytes, &p.Content, &p.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *photoRepo) GetDigest(ctx context.Context, id uuid.UUID) (string, bool, error) {
	var digest string
	err := r.db.QueryRow(ctx, `SELECT digest FROM photos WHERE id = $1`, id).Scan(&digest)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return digest, true, nil
}
