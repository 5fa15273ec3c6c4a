package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"gpscam/internal/models"
	"gpscam/internal/providers"
	"gpscam/internal/structures"
)

// StoredPair is the result of persisting one capture. In degraded mode no
// queryable records exist and DownloadPath points at the exported file.
type StoredPair struct {
	Raw          *models.StoredFile
	Processed    *models.StoredFile
	DownloadPath string
}

// ArtifactStore writes image artifacts under an application-private root,
// split into raw and processed folders. When the root is not writable the
// store runs in download mode: captures are exported to a user-visible
// directory and no StoredFile records are produced.
type ArtifactStore struct {
	root         string
	rawFolder    string
	procFolder   string
	downloadDir  string
	format       string
	degraded     bool
	logger       providers.Logger
	metrics      providers.MetricsProviderInterface
}

func NewArtifactStore(conf *structures.Config, logger providers.Logger, metrics providers.MetricsProviderInterface) *ArtifactStore {
	s := &ArtifactStore{
		root:        conf.Storage.Root,
		rawFolder:   conf.Storage.RawFolder,
		procFolder:  conf.Storage.ProcessedFolder,
		downloadDir: conf.Storage.DownloadDir,
		format:      conf.Storage.Format,
		logger:      logger,
		metrics:     metrics,
	}

	if err := os.MkdirAll(s.root, 0o755); err != nil {
		logger.Errorf(providers.TypeStorage, "Storage root unavailable, running in download mode: %s", err)
		s.degraded = true
		if s.downloadDir == "" {
			if home, herr := os.UserHomeDir(); herr == nil {
				s.downloadDir = filepath.Join(home, "Downloads")
			}
		}
		return s
	}

	// Folder creation failures are non-fatal; the per-file write will
	// surface the real error.
	for _, folder := range []string{s.rawFolder, s.procFolder} {
		if err := os.MkdirAll(filepath.Join(s.root, folder), 0o755); err != nil {
			logger.Warnf(providers.TypeStorage, "Create folder %s: %s", folder, err)
		}
	}
	return s
}

func (s *ArtifactStore) Degraded() bool { return s.degraded }

// SaveFile writes one artifact and returns its record.
func (s *ArtifactStore) SaveFile(data []byte, filename string, typ models.ArtifactType, meta *models.CaptureMetadata) (*models.StoredFile, error) {
	folder := s.rawFolder
	if typ == models.ArtifactProcessed {
		folder = s.procFolder
	}
	relPath := filepath.Join(folder, filename)

	if err := s.writeFile(filepath.Join(s.root, relPath), data); err != nil {
		return nil, fmt.Errorf("save %s artifact: %w", typ, err)
	}

	s.metrics.AddArtifactBytes(int64(len(data)))

	return &models.StoredFile{
		ID:        uuid.NewString(),
		Filename:  filename,
		Path:      relPath,
		Type:      typ,
		Size:      int64(len(data)),
		CreatedAt: time.Now(),
		Metadata:  meta,
	}, nil
}

// SavePair persists the raw and processed artifacts of one capture. Both
// filenames share a single timestamp token and both writes run concurrently;
// the call succeeds only if both succeed, and a partial artifact is removed
// so no orphan survives a failure.
func (s *ArtifactStore) SavePair(raw, processed []byte, baseName string, meta *models.CaptureMetadata) (*StoredPair, error) {
	stamp := time.Now()
	if meta != nil && !meta.Timestamp.IsZero() {
		stamp = meta.Timestamp
	}
	token := models.TimestampToken(stamp)
	rawName := fmt.Sprintf("%s_%s_raw.%s", baseName, token, s.format)
	procName := fmt.Sprintf("%s_%s_processed.%s", baseName, token, s.format)

	if s.degraded {
		path, err := s.SaveToDownloads(processed, procName)
		if err != nil {
			return nil, err
		}
		s.logger.Warnf(providers.TypeStorage, "Download mode: exported %s without a stored record", procName)
		return &StoredPair{DownloadPath: path}, nil
	}

	type result struct {
		file *models.StoredFile
		err  error
	}
	rawCh := make(chan result, 1)
	procCh := make(chan result, 1)

	go func() {
		f, err := s.SaveFile(raw, rawName, models.ArtifactRaw, meta)
		rawCh <- result{f, err}
	}()
	go func() {
		f, err := s.SaveFile(processed, procName, models.ArtifactProcessed, meta)
		procCh <- result{f, err}
	}()

	rawRes := <-rawCh
	procRes := <-procCh

	if rawRes.err != nil || procRes.err != nil {
		// Never leave half a pair behind.
		if rawRes.err == nil {
			_ = s.DeleteFile(rawRes.file.Path)
		}
		if procRes.err == nil {
			_ = s.DeleteFile(procRes.file.Path)
		}
		if rawRes.err != nil {
			return nil, rawRes.err
		}
		return nil, procRes.err
	}

	return &StoredPair{Raw: rawRes.file, Processed: procRes.file}, nil
}

// SaveToDownloads exports a single flattened output to the user-visible
// download directory. Degraded-mode path: no StoredFile record is created.
func (s *ArtifactStore) SaveToDownloads(data []byte, filename string) (string, error) {
	if s.downloadDir == "" {
		return "", fmt.Errorf("save %s: no download directory available", filename)
	}
	if err := os.MkdirAll(s.downloadDir, 0o755); err != nil {
		return "", fmt.Errorf("create download directory: %w", err)
	}
	path := filepath.Join(s.downloadDir, filename)
	if err := s.writeFile(path, data); err != nil {
		return "", fmt.Errorf("export %s: %w", filename, err)
	}
	return path, nil
}

func (s *ArtifactStore) ReadFile(relPath string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.root, relPath))
	if err != nil {
		return nil, fmt.Errorf("read artifact %s: %w", relPath, err)
	}
	return data, nil
}

func (s *ArtifactStore) DeleteFile(relPath string) error {
	if err := os.Remove(filepath.Join(s.root, relPath)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete artifact %s: %w", relPath, err)
	}
	return nil
}

// ListFiles returns the filenames in one logical folder ("raw" or
// "processed").
func (s *ArtifactStore) ListFiles(folder string) ([]string, error) {
	if folder == "" {
		folder = s.rawFolder
	}
	entries, err := os.ReadDir(filepath.Join(s.root, folder))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list %s: %w", folder, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// Info reports the bytes currently used under the storage root.
func (s *ArtifactStore) Info() (used int64) {
	for _, folder := range []string{s.rawFolder, s.procFolder} {
		entries, err := os.ReadDir(filepath.Join(s.root, folder))
		if err != nil {
			continue
		}
		for _, e := range entries {
			if info, err := e.Info(); err == nil && !e.IsDir() {
				used += info.Size()
			}
		}
	}
	return used
}

// writeFile writes atomically: tmp file, sync, rename.
func (s *ArtifactStore) writeFile(path string, data []byte) error {
	tmpFile := path + ".tmp"
	file, err := os.Create(tmpFile)
	if err != nil {
		return err
	}
	if _, err = file.Write(data); err != nil {
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
	return os.Rename(tmpFile, path)
}
