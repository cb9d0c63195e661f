package domain

import (
	"context"
	"time"
)

// GenerationRequest carries the caller-supplied parameters for one
// image generation call.
type GenerationRequest struct {
	Prompt string `json:"prompt"`
	Model  string `json:"model"`
}

// GenerationResult holds the provider's output reference: either an
// https URL or an inline data URI.
type GenerationResult struct {
	OutputRef string `json:"output"`
}

// GenerationProvider is the narrow capability interface over the external
// generation service. modelRef is the provider-side model reference, input
// the merged parameter payload. Returns the provider's output reference.
type GenerationProvider interface {
	Generate(ctx context.Context, modelRef string, input map[string]any) (string, error)
}

// BlobInfo describes one stored binary artifact.
type BlobInfo struct {
	OwnerID string
	Name    string
	URL     string
	ModTime time.Time
}

// BlobStore persists binary artifacts in owner-scoped storage.
type BlobStore interface {
	// Put stores data under the owner's namespace and returns a durable URL.
	Put(ctx context.Context, ownerID, name string, data []byte) (string, error)
	Delete(ctx context.Context, ownerID, name string) error
	List(ctx context.Context) ([]BlobInfo, error)
}
