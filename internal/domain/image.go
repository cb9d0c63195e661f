package domain

// ImageRecord is the persisted metadata for one generated-and-stored image.
// Written exactly once by the persistence workflow, never mutated afterwards.
type ImageRecord struct {
	ID         string `json:"id"`
	OwnerID    string `json:"owner_id"`
	Prompt     string `json:"prompt"`
	Model      string `json:"model"`
	FileName   string `json:"file_name"`
	StorageURL string `json:"storage_url"`
	CreatedAt  int64  `json:"created_at"` // epoch milliseconds
}
