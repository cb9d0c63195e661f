package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jjoyayroo/alphathreads/internal/domain"
	"github.com/jjoyayroo/alphathreads/internal/repository"
)

// maxArtifactSize caps how much of a provider output we will materialize.
const maxArtifactSize = 32 << 20

// PersistenceService stores generated artifacts and their metadata. It is
// the only writer of image records.
type PersistenceService struct {
	repo       repository.ImageRepository
	blobs      domain.BlobStore
	httpClient *http.Client
	now        func() time.Time
	log        zerolog.Logger
}

// NewPersistenceService creates a new persistence service
func NewPersistenceService(repo repository.ImageRepository, blobs domain.BlobStore, log zerolog.Logger) *PersistenceService {
	return &PersistenceService{
		repo:  repo,
		blobs: blobs,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		now: time.Now,
		log: log,
	}
}

// Persist materializes the generation output, uploads it to the owner's
// storage namespace and writes the metadata record. If the metadata write
// fails the uploaded blob is removed again so no orphan is left behind.
func (s *PersistenceService) Persist(ctx context.Context, result domain.GenerationResult, prompt, modelID, ownerID string) (domain.ImageRecord, error) {
	if ownerID == "" {
		return domain.ImageRecord{}, fmt.Errorf("owner id must not be empty")
	}

	data, err := s.materialize(ctx, result.OutputRef)
	if err != nil {
		return domain.ImageRecord{}, fmt.Errorf("failed to materialize output: %w", err)
	}

	id := uuid.NewString()
	createdAt := s.now().UnixMilli()
	name := fmt.Sprintf("%d-%s.webp", createdAt, id)

	storageURL, err := s.blobs.Put(ctx, ownerID, name, data)
	if err != nil {
		return domain.ImageRecord{}, fmt.Errorf("failed to upload artifact: %w", err)
	}

	rec := domain.ImageRecord{
		ID:         id,
		OwnerID:    ownerID,
		Prompt:     prompt,
		Model:      modelID,
		FileName:   name,
		StorageURL: storageURL,
		CreatedAt:  createdAt,
	}

	if err := s.repo.Insert(ctx, rec); err != nil {
		// Compensate: the upload already succeeded, remove it again.
		if delErr := s.blobs.Delete(ctx, ownerID, name); delErr != nil {
			s.log.Error().Err(delErr).
				Str("owner_id", ownerID).
				Str("name", name).
				Msg("failed to remove orphaned upload")
		}
		return domain.ImageRecord{}, fmt.Errorf("failed to save image metadata: %w", err)
	}

	return rec, nil
}

// materialize turns an output reference into the binary payload: inline
// data URIs are decoded, https URLs fetched.
func (s *PersistenceService) materialize(ctx context.Context, ref string) ([]byte, error) {
	switch {
	case strings.HasPrefix(ref, "data:"):
		return decodeDataURI(ref)
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return s.fetch(ctx, ref)
	default:
		return nil, fmt.Errorf("unsupported output reference %q", ref)
	}
}

func (s *PersistenceService) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch artifact: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code fetching artifact: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxArtifactSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}
	if len(data) > maxArtifactSize {
		return nil, fmt.Errorf("artifact exceeds %d bytes", maxArtifactSize)
	}

	return data, nil
}

func decodeDataURI(ref string) ([]byte, error) {
	header, payload, ok := strings.Cut(ref, ",")
	if !ok || !strings.HasSuffix(header, ";base64") {
		return nil, fmt.Errorf("malformed data URI")
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode data URI: %w", err)
	}
	return data, nil
}
