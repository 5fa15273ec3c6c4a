package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gpscam/internal/structures"
	"gpscam/internal/testutil"
)

func facadeConfig(t *testing.T) *structures.Config {
	t.Helper()
	dir := t.TempDir()
	return &structures.Config{
		Database: structures.DatabaseConfig{
			Path:     filepath.Join(dir, "records.db"),
			BlobPath: filepath.Join(dir, "records.blob"),
		},
	}
}

func TestNewRecordStore_PrefersSQLite(t *testing.T) {
	comp, err := NewZstdCompressor()
	require.NoError(t, err)
	defer comp.Close()

	store, err := NewRecordStore(facadeConfig(t), comp, &testutil.MockLogger{})
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, "sqlite", store.Backend())
}

func TestNewRecordStore_SeedsDefaultTemplate(t *testing.T) {
	comp, err := NewZstdCompressor()
	require.NoError(t, err)
	defer comp.Close()

	store, err := NewRecordStore(facadeConfig(t), comp, &testutil.MockLogger{})
	require.NoError(t, err)
	defer store.Close()

	templates, err := store.ListTemplates(context.Background())
	require.NoError(t, err)
	require.Len(t, templates, 1)
	assert.Equal(t, "Default GPS Overlay", templates[0].Name)
}

func TestNewRecordStore_SeedsOnlyOnce(t *testing.T) {
	conf := facadeConfig(t)
	comp, err := NewZstdCompressor()
	require.NoError(t, err)
	defer comp.Close()
	logger := &testutil.MockLogger{}

	store, err := NewRecordStore(conf, comp, logger)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := NewRecordStore(conf, comp, logger)
	require.NoError(t, err)
	defer reopened.Close()

	n, err := reopened.CountTemplates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestNewRecordStore_FallsBackToBlob(t *testing.T) {
	conf := facadeConfig(t)
	// A directory at the db path makes sqlite initialization fail.
	conf.Database.Path = t.TempDir()

	comp, err := NewZstdCompressor()
	require.NoError(t, err)
	defer comp.Close()
	logger := &testutil.MockLogger{}

	store, err := NewRecordStore(conf, comp, logger)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, "blob", store.Backend())
	assert.True(t, logger.HasLevel("error"))

	// The fallback backend is seeded and fully usable.
	templates, err := store.ListTemplates(context.Background())
	require.NoError(t, err)
	assert.Len(t, templates, 1)
}
