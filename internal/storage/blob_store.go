package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"gpscam/internal/models"
	"gpscam/internal/providers"
	"gpscam/internal/storage/interfaces"
)

// blobDocument is the on-disk format of the fallback backend: one compressed
// JSON document holding every record.
type blobDocument struct {
	Locations []*models.SavedLocation   `json:"locations"`
	Templates []*models.OverlayTemplate `json:"templates"`
}

// BlobStore is the document-blob record backend used when the structured
// store is unavailable. Records live in memory and the whole document is
// atomically rewritten on every mutation.
type BlobStore struct {
	mu         sync.RWMutex
	path       string
	compressor interfaces.CompressorInterface
	logger     providers.Logger
	doc        blobDocument
}

func OpenBlob(path string, compressor interfaces.CompressorInterface, logger providers.Logger) (*BlobStore, error) {
	bs := &BlobStore{
		path:       path,
		compressor: compressor,
		logger:     logger,
	}
	if err := bs.load(); err != nil {
		return nil, err
	}
	return bs, nil
}

func (bs *BlobStore) load() error {
	data, err := os.ReadFile(bs.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read blob document: %w", err)
	}

	decompressed, err := bs.compressor.Decompress(data)
	if err != nil {
		return fmt.Errorf("decompress blob document: %w", err)
	}
	if err := json.Unmarshal(decompressed, &bs.doc); err != nil {
		return fmt.Errorf("parse blob document: %w", err)
	}
	return nil
}

// persistLocked writes the document atomically. Must be called under bs.mu.
func (bs *BlobStore) persistLocked() error {
	jsonData, err := json.Marshal(&bs.doc)
	if err != nil {
		return fmt.Errorf("marshal blob document: %w", err)
	}
	compressed, err := bs.compressor.Compress(jsonData)
	if err != nil {
		return fmt.Errorf("compress blob document: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(bs.path), 0o755); err != nil {
		return fmt.Errorf("create blob directory: %w", err)
	}

	tmpFile := bs.path + ".tmp"
	file, err := os.Create(tmpFile)
	if err != nil {
		return err
	}
	if _, err = file.Write(compressed); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}
	if err = file.Sync(); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}
	if err = file.Close(); err != nil {
		os.Remove(tmpFile)
		return err
	}
	return os.Rename(tmpFile, bs.path)
}

func (bs *BlobStore) Backend() string { return "blob" }

// Flush re-persists the in-memory document.
func (bs *BlobStore) Flush() error {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	return bs.persistLocked()
}

func (bs *BlobStore) Close() error {
	return bs.Flush()
}

func (bs *BlobStore) CreateLocation(_ context.Context, loc *models.SavedLocation) (*models.SavedLocation, error) {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	now := time.Now().UTC()
	created := *loc
	created.ID = uuid.NewString()
	created.CreatedAt = now
	created.UpdatedAt = now
	if created.Coordinates.CapturedAt.IsZero() {
		created.Coordinates.CapturedAt = now
	}

	// Most recent first, matching the list ordering.
	bs.doc.Locations = append([]*models.SavedLocation{&created}, bs.doc.Locations...)
	if err := bs.persistLocked(); err != nil {
		bs.doc.Locations = bs.doc.Locations[1:]
		return nil, err
	}
	out := created
	return &out, nil
}

func (bs *BlobStore) GetLocation(_ context.Context, id string) (*models.SavedLocation, error) {
	bs.mu.RLock()
	defer bs.mu.RUnlock()

	for _, loc := range bs.doc.Locations {
		if loc.ID == id {
			out := *loc
			return &out, nil
		}
	}
	return nil, models.ErrNotFound
}

func (bs *BlobStore) ListLocations(_ context.Context) ([]*models.SavedLocation, error) {
	bs.mu.RLock()
	defer bs.mu.RUnlock()

	out := make([]*models.SavedLocation, len(bs.doc.Locations))
	for i, loc := range bs.doc.Locations {
		cp := *loc
		out[i] = &cp
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (bs *BlobStore) UpdateLocation(_ context.Context, loc *models.SavedLocation) error {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	for i, existing := range bs.doc.Locations {
		if existing.ID == loc.ID {
			updated := *loc
			updated.CreatedAt = existing.CreatedAt
			updated.UpdatedAt = time.Now().UTC()
			bs.doc.Locations[i] = &updated
			loc.UpdatedAt = updated.UpdatedAt
			return bs.persistLocked()
		}
	}
	return models.ErrNotFound
}

func (bs *BlobStore) DeleteLocation(_ context.Context, id string) error {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	for i, existing := range bs.doc.Locations {
		if existing.ID == id {
			bs.doc.Locations = append(bs.doc.Locations[:i], bs.doc.Locations[i+1:]...)
			return bs.persistLocked()
		}
	}
	return nil
}

func (bs *BlobStore) CountLocations(_ context.Context) (int, error) {
	bs.mu.RLock()
	defer bs.mu.RUnlock()
	return len(bs.doc.Locations), nil
}

func (bs *BlobStore) CreateTemplate(_ context.Context, tpl *models.OverlayTemplate) (*models.OverlayTemplate, error) {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	now := time.Now().UTC()
	created := *tpl
	created.ID = uuid.NewString()
	created.CreatedAt = now
	created.UpdatedAt = now

	bs.doc.Templates = append(bs.doc.Templates, &created)
	if err := bs.persistLocked(); err != nil {
		bs.doc.Templates = bs.doc.Templates[:len(bs.doc.Templates)-1]
		return nil, err
	}
	out := created
	return &out, nil
}

func (bs *BlobStore) GetTemplate(_ context.Context, id string) (*models.OverlayTemplate, error) {
	bs.mu.RLock()
	defer bs.mu.RUnlock()

	for _, tpl := range bs.doc.Templates {
		if tpl.ID == id {
			out := *tpl
			return &out, nil
		}
	}
	return nil, models.ErrNotFound
}

func (bs *BlobStore) ListTemplates(_ context.Context) ([]*models.OverlayTemplate, error) {
	bs.mu.RLock()
	defer bs.mu.RUnlock()

	out := make([]*models.OverlayTemplate, len(bs.doc.Templates))
	for i, tpl := range bs.doc.Templates {
		cp := *tpl
		out[i] = &cp
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (bs *BlobStore) UpdateTemplate(_ context.Context, tpl *models.OverlayTemplate) error {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	for i, existing := range bs.doc.Templates {
		if existing.ID == tpl.ID {
			updated := *tpl
			updated.CreatedAt = existing.CreatedAt
			updated.UpdatedAt = time.Now().UTC()
			bs.doc.Templates[i] = &updated
			tpl.UpdatedAt = updated.UpdatedAt
			return bs.persistLocked()
		}
	}
	return models.ErrNotFound
}

func (bs *BlobStore) DeleteTemplate(_ context.Context, id string) error {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	for i, existing := range bs.doc.Templates {
		if existing.ID == id {
			bs.doc.Templates = append(bs.doc.Templates[:i], bs.doc.Templates[i+1:]...)
			return bs.persistLocked()
		}
	}
	return nil
}

func (bs *BlobStore) CountTemplates(_ context.Context) (int, error) {
	bs.mu.RLock()
	defer bs.mu.RUnlock()
	return len(bs.doc.Templates), nil
}
