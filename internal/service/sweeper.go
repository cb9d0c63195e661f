package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jjoyayroo/alphathreads/internal/domain"
	"github.com/jjoyayroo/alphathreads/internal/repository"
)

// Sweeper removes orphaned uploads: stored blobs that have no metadata
// record. A grace period keeps it from racing an in-flight persist.
type Sweeper struct {
	repo  repository.ImageRepository
	blobs domain.BlobStore
	grace time.Duration
	now   func() time.Time
	log   zerolog.Logger
}

// NewSweeper creates a new orphan sweeper
func NewSweeper(repo repository.ImageRepository, blobs domain.BlobStore, grace time.Duration, log zerolog.Logger) *Sweeper {
	return &Sweeper{
		repo:  repo,
		blobs: blobs,
		grace: grace,
		now:   time.Now,
		log:   log,
	}
}

// Sweep deletes every blob older than the grace period that no image
// record references.
func (s *Sweeper) Sweep(ctx context.Context) error {
	blobs, err := s.blobs.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list blobs: %w", err)
	}

	cutoff := s.now().Add(-s.grace)
	removed := 0

	for _, blob := range blobs {
		if blob.ModTime.After(cutoff) {
			continue
		}

		// Match on owner and file name: the storage URL in the record
		// embeds whatever base URL was configured at creation time.
		exists, err := s.repo.ExistsByOwnerAndName(ctx, blob.OwnerID, blob.Name)
		if err != nil {
			return fmt.Errorf("failed to check record for %s: %w", blob.URL, err)
		}
		if exists {
			continue
		}

		if err := s.blobs.Delete(ctx, blob.OwnerID, blob.Name); err != nil {
			s.log.Error().Err(err).Str("url", blob.URL).Msg("failed to delete orphaned upload")
			continue
		}

		removed++
		s.log.Info().Str("url", blob.URL).Msg("removed orphaned upload")
	}

	if removed > 0 {
		s.log.Info().Int("removed", removed).Msg("orphan sweep finished")
	}
	return nil
}
