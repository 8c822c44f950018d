package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"

	"github.com/verisite/visit-service/internal/models"
	"github.com/verisite/visit-service/internal/repositories"
)

// PhotoService stores uploaded site photos and computes the content
// digest devices bind their signatures to.
type PhotoService interface {
	// Store persists the photo bytes and returns the stored record with
	// its server-computed SHA-256 digest (lowercase hex).
	Store(ctx context.Context, content []byte, contentType string) (*models.Photo, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Photo, error)
}

type photoService struct {
	photoRepo repositories.PhotoRepository
}

func NewPhotoService(photoRepo repositories.PhotoRepository) PhotoService {
	return &photoService{photoRepo: photoRepo}
}

func (s *photoService) Store(ctx context.Context, content []byte, contentType string) (*models.Photo, error) {
	sum := sha256.Sum256(content)
	p := &models.Photo{
		ID:          uuid.New(),
		Digest:      hex.EncodeToString(sum[:]),
		ContentType: contentType,
		SizeBytes:   int64(len(content)),
		Content:     content,
	}
	if err := s.photoRepo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("storing photo: %w", err)
	}
	return p, nil
}

func (s *photoService) Get(ctx context.Context, id uuid.UUID) (*models.Photo, error) {
	return s.photoRepo.GetByID(ctx, id)
}
