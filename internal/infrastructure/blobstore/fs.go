// Package blobstore persists generated artifacts on local disk, one
// directory per owner, and maps them to durable URLs under a public prefix.
package blobstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jjoyayroo/alphathreads/internal/domain"
)

// Store is a filesystem-backed blob store.
type Store struct {
	basePath string
	baseURL  string
}

// New creates a store rooted at basePath. baseURL is the public URL prefix
// returned for stored blobs, e.g. "http://localhost:8080/files".
func New(basePath, baseURL string) *Store {
	return &Store{
		basePath: basePath,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}
}

// Put stores data under the owner's directory and returns its durable URL.
func (s *Store) Put(_ context.Context, ownerID, name string, data []byte) (string, error) {
	if err := validateSegment(ownerID); err != nil {
		return "", err
	}
	if err := validateSegment(name); err != nil {
		return "", err
	}

	dir := filepath.Join(s.basePath, ownerID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create owner directory: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write blob: %w", err)
	}

	return s.URL(ownerID, name), nil
}

// Delete removes a stored blob. Deleting a missing blob is not an error.
func (s *Store) Delete(_ context.Context, ownerID, name string) error {
	path, err := s.Path(ownerID, name)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete blob: %w", err)
	}
	return nil
}

// List walks the store and returns every blob with its modification time.
func (s *Store) List(_ context.Context) ([]domain.BlobInfo, error) {
	ownerDirs, err := os.ReadDir(s.basePath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read storage root: %w", err)
	}

	var blobs []domain.BlobInfo
	for _, ownerDir := range ownerDirs {
		if !ownerDir.IsDir() {
			continue
		}

		entries, err := os.ReadDir(filepath.Join(s.basePath, ownerDir.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read owner directory: %w", err)
		}

		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				return nil, fmt.Errorf("failed to stat blob: %w", err)
			}
			blobs = append(blobs, domain.BlobInfo{
				OwnerID: ownerDir.Name(),
				Name:    entry.Name(),
				URL:     s.URL(ownerDir.Name(), entry.Name()),
				ModTime: info.ModTime(),
			})
		}
	}

	return blobs, nil
}

// Path resolves the on-disk location of a blob, rejecting path traversal.
func (s *Store) Path(ownerID, name string) (string, error) {
	if err := validateSegment(ownerID); err != nil {
		return "", err
	}
	if err := validateSegment(name); err != nil {
		return "", err
	}
	return filepath.Join(s.basePath, ownerID, name), nil
}

// URL returns the durable URL for a stored blob.
func (s *Store) URL(ownerID, name string) string {
	return s.baseURL + "/" + ownerID + "/" + name
}

func validateSegment(segment string) error {
	if segment == "" || segment == "." || segment == ".." ||
		strings.ContainsAny(segment, `/\`) {
		return fmt.Errorf("invalid path segment %q", segment)
	}
	return nil
}
