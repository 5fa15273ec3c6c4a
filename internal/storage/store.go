package storage

import (
	"context"

	"gpscam/internal/models"
	"gpscam/internal/providers"
	"gpscam/internal/storage/interfaces"
	"gpscam/internal/structures"
)

// RecordStore is the persistence facade for the two record types. Both
// backends expose identical CRUD semantics: create assigns a fresh id and
// initial timestamps, update requires the record to exist and refreshes
// updated_at, delete is idempotent. Saved locations list by updated_at
// descending, templates by name ascending.
type RecordStore interface {
	Backend() string
	Flush() error
	Close() error

	CreateLocation(ctx context.Context, loc *models.SavedLocation) (*models.SavedLocation, error)
	GetLocation(ctx context.Context, id string) (*models.SavedLocation, error)
	ListLocations(ctx context.Context) ([]*models.SavedLocation, error)
	UpdateLocation(ctx context.Context, loc *models.SavedLocation) error
	DeleteLocation(ctx context.Context, id string) error
	CountLocations(ctx context.Context) (int, error)

	CreateTemplate(ctx context.Context, tpl *models.OverlayTemplate) (*models.OverlayTemplate, error)
	GetTemplate(ctx context.Context, id string) (*models.OverlayTemplate, error)
	ListTemplates(ctx context.Context) ([]*models.OverlayTemplate, error)
	UpdateTemplate(ctx context.Context, tpl *models.OverlayTemplate) error
	DeleteTemplate(ctx context.Context, id string) error
	CountTemplates(ctx context.Context) (int, error)
}

// NewRecordStore selects the backend once at startup. The structured sqlite
// store is preferred; if it fails to initialize, the facade falls back
// permanently to the document-blob backend for the session. The fallback
// never touches sqlite-resident data.
func NewRecordStore(conf *structures.Config, compressor interfaces.CompressorInterface, logger providers.Logger) (RecordStore, error) {
	ctx := context.Background()

	store, err := OpenSQLite(conf.Database.Path)
	if err == nil {
		if err = store.InitSchema(ctx); err == nil {
			if err = seedDefaults(ctx, store, logger); err == nil {
				logger.Infof(providers.TypeStorage, "Record store backend: sqlite (%s)", conf.Database.Path)
				return store, nil
			}
		}
		_ = store.Close()
	}
	logger.Errorf(providers.TypeStorage, "SQLite unavailable, falling back to document store: %s", err)

	blob, err := OpenBlob(conf.Database.BlobPath, compressor, logger)
	if err != nil {
		return nil, err
	}
	if err := seedDefaults(ctx, blob, logger); err != nil {
		_ = blob.Close()
		return nil, err
	}
	logger.Infof(providers.TypeStorage, "Record store backend: blob (%s)", conf.Database.BlobPath)
	return blob, nil
}

// seedDefaults inserts the default overlay template on first-ever
// initialization, when no template exists yet.
func seedDefaults(ctx context.Context, store RecordStore, logger providers.Logger) error {
	count, err := store.CountTemplates(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	if _, err := store.CreateTemplate(ctx, models.DefaultTemplate()); err != nil {
		return err
	}
	logger.Infof(providers.TypeStorage, "Seeded default overlay template")
	return nil
}
