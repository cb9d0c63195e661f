package service

import (
	"context"
	"fmt"

	"github.com/jjoyayroo/alphathreads/internal/domain"
	"github.com/jjoyayroo/alphathreads/internal/repository"
)

// GalleryService is the read path over persisted image records.
type GalleryService struct {
	repo repository.ImageRepository
}

// NewGalleryService creates a new gallery service
func NewGalleryService(repo repository.ImageRepository) *GalleryService {
	return &GalleryService{repo: repo}
}

// ListFor returns the owner's records, newest first. The query is always
// owner-scoped; an empty collection yields an empty slice, not an error.
func (s *GalleryService) ListFor(ctx context.Context, ownerID string) ([]domain.ImageRecord, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("owner id must not be empty")
	}
	return s.repo.ListByOwner(ctx, ownerID)
}
