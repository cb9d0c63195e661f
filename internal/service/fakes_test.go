package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jjoyayroo/alphathreads/internal/domain"
)

type fakeProvider struct {
	out   string
	err   error
	calls int

	gotRef   string
	gotInput map[string]any
}

func (p *fakeProvider) Generate(_ context.Context, modelRef string, input map[string]any) (string, error) {
	p.calls++
	p.gotRef = modelRef
	p.gotInput = input
	if p.err != nil {
		return "", p.err
	}
	return p.out, nil
}

type fakeRepo struct {
	mu        sync.Mutex
	records   []domain.ImageRecord
	insertErr error
	existing  map[string]bool
}

func (r *fakeRepo) Insert(_ context.Context, rec domain.ImageRecord) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
	return nil
}

func (r *fakeRepo) ListByOwner(_ context.Context, ownerID string) ([]domain.ImageRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.ImageRecord, 0)
	for _, rec := range r.records {
		if rec.OwnerID == ownerID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	return out, nil
}

func (r *fakeRepo) ExistsByOwnerAndName(_ context.Context, ownerID, fileName string) (bool, error) {
	if r.existing != nil {
		return r.existing[ownerID+"/"+fileName], nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.OwnerID == ownerID && rec.FileName == fileName {
			return true, nil
		}
	}
	return false, nil
}

type fakeBlobs struct {
	mu      sync.Mutex
	stored  map[string][]byte
	mods    map[string]time.Time
	deleted []string
	putErr  error
	listErr error
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{
		stored: make(map[string][]byte),
		mods:   make(map[string]time.Time),
	}
}

func (b *fakeBlobs) key(ownerID, name string) string {
	return ownerID + "/" + name
}

func (b *fakeBlobs) Put(_ context.Context, ownerID, name string, data []byte) (string, error) {
	if b.putErr != nil {
		return "", b.putErr
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stored[b.key(ownerID, name)] = data
	return "http://blobs.test/" + b.key(ownerID, name), nil
}

func (b *fakeBlobs) Delete(_ context.Context, ownerID, name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	key := b.key(ownerID, name)
	if _, ok := b.stored[key]; !ok {
		return fmt.Errorf("blob %s not stored", key)
	}
	delete(b.stored, key)
	b.deleted = append(b.deleted, key)
	return nil
}

func (b *fakeBlobs) List(_ context.Context) ([]domain.BlobInfo, error) {
	if b.listErr != nil {
		return nil, b.listErr
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	keys := make([]string, 0, len(b.stored))
	for key := range b.stored {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var infos []domain.BlobInfo
	for _, key := range keys {
		ownerID, name, _ := strings.Cut(key, "/")
		infos = append(infos, domain.BlobInfo{
			OwnerID: ownerID,
			Name:    name,
			URL:     "http://blobs.test/" + key,
			ModTime: b.mods[key],
		})
	}
	return infos, nil
}
