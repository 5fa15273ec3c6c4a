package services

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/atomic"

	"gpscam/internal/models"
	"gpscam/internal/overlay"
	"gpscam/internal/providers"
	"gpscam/internal/storage"
)

type CaptureServiceInterface interface {
	CaptureWithOverlay(ctx context.Context, raw image.Image, reading *models.CoordinateReading, tpl *models.OverlayTemplate, custom map[string]string) (*models.CaptureResult, error)
	RenderPreview(reading *models.CoordinateReading, tpl *models.OverlayTemplate, width int, custom map[string]string) ([]byte, error)
	LastCapture() *models.CaptureResult
	ClearLastCapture()
	Captures() (success, failed uint64)
	IsCapturing() bool
}

// CaptureService orchestrates the capture pipeline: composite the overlay,
// encode both variants and persist them as a pair. A single capture runs at
// a time; a second request while one is in flight fails fast with
// ErrCaptureBusy instead of queuing.
type CaptureService struct {
	compositor *overlay.Compositor
	artifacts  *storage.ArtifactStore
	cache      providers.CacheProviderInterface
	metrics    providers.MetricsProviderInterface
	logger     providers.Logger

	busy      atomic.Bool
	successes atomic.Uint64
	failures  atomic.Uint64

	lastCapture atomic.Pointer[models.CaptureResult]
}

func NewCaptureService(
	compositor *overlay.Compositor,
	artifacts *storage.ArtifactStore,
	cache providers.CacheProviderInterface,
	metrics providers.MetricsProviderInterface,
	logger providers.Logger,
) CaptureServiceInterface {
	return &CaptureService{
		compositor: compositor,
		artifacts:  artifacts,
		cache:      cache,
		metrics:    metrics,
		logger:     logger,
	}
}

func (s *CaptureService) CaptureWithOverlay(ctx context.Context, raw image.Image, reading *models.CoordinateReading, tpl *models.OverlayTemplate, custom map[string]string) (*models.CaptureResult, error) {
	if !s.busy.CompareAndSwap(false, true) {
		return nil, models.ErrCaptureBusy
	}
	defer s.busy.Store(false)

	start := time.Now()
	result, err := s.capture(ctx, raw, reading, tpl, custom, start)
	s.metrics.ObserveCaptureDuration(time.Since(start))

	if err != nil {
		s.failures.Inc()
		s.metrics.IncCapturesTotal("failure")
		s.logger.Errorf(providers.TypeCapture, "Capture failed: %v", err)
		return nil, err
	}

	s.successes.Inc()
	s.metrics.IncCapturesTotal("success")
	s.lastCapture.Store(result)
	return result, nil
}

func (s *CaptureService) capture(ctx context.Context, raw image.Image, reading *models.CoordinateReading, tpl *models.OverlayTemplate, custom map[string]string, timestamp time.Time) (*models.CaptureResult, error) {
	if raw == nil {
		return nil, fmt.Errorf("no frame to capture: %w", models.ErrUninitialized)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	processed, err := s.compositor.Composite(raw, reading, tpl, custom)
	if err != nil {
		return nil, fmt.Errorf("composite overlay: %w", err)
	}

	rawBytes, err := s.compositor.Encode(raw)
	if err != nil {
		return nil, fmt.Errorf("encode raw frame: %w", err)
	}
	procBytes, err := s.compositor.Encode(processed)
	if err != nil {
		return nil, fmt.Errorf("encode processed frame: %w", err)
	}

	meta := &models.CaptureMetadata{
		GPSData:    reading,
		Template:   tpl,
		CustomData: custom,
		Timestamp:  timestamp,
	}
	baseName := fmt.Sprintf("photo_%d", timestamp.UnixMilli())

	persistStart := time.Now()
	pair, err := s.artifacts.SavePair(rawBytes, procBytes, baseName, meta)
	if err != nil {
		return nil, fmt.Errorf("persist capture pair: %w", err)
	}
	s.metrics.ObservePersistenceDuration(time.Since(persistStart))

	bounds := processed.Bounds()
	result := &models.CaptureResult{
		RawImage:       raw,
		ProcessedImage: processed,
		Raw:            pair.Raw,
		Processed:      pair.Processed,
		Timestamp:      timestamp,
		Metadata: models.ImageMetadata{
			Width:  bounds.Dx(),
			Height: bounds.Dy(),
			Format: s.compositor.Format(),
			Size:   int64(len(rawBytes) + len(procBytes)),
		},
	}

	if pair.DownloadPath != "" {
		s.logger.Infof(providers.TypeCapture, "Capture exported to %s (download mode)", pair.DownloadPath)
	} else {
		s.logger.Infof(providers.TypeCapture, "Capture stored: %s (%s)", pair.Processed.Filename, models.FormatFileSize(result.Metadata.Size))
	}
	return result, nil
}

// RenderPreview rasterizes just the overlay band at the given width, serving
// repeated renders of an unchanged template and reading from cache.
func (s *CaptureService) RenderPreview(reading *models.CoordinateReading, tpl *models.OverlayTemplate, width int, custom map[string]string) ([]byte, error) {
	if tpl == nil {
		tpl = models.DefaultTemplate()
	}
	if width <= 0 {
		width = 640
	}

	key := previewKey(reading, tpl, width, custom)
	if data, ok := s.cache.Get(key); ok {
		s.metrics.IncCacheHits()
		return data, nil
	}
	s.metrics.IncCacheMisses()

	band := s.compositor.RenderBand(width, reading, tpl, custom)
	data, err := s.compositor.Encode(band)
	if err != nil {
		return nil, fmt.Errorf("encode preview band: %w", err)
	}

	s.cache.Set(key, data)
	return data, nil
}

func previewKey(reading *models.CoordinateReading, tpl *models.OverlayTemplate, width int, custom map[string]string) string {
	pos := "none"
	if reading != nil {
		pos = fmt.Sprintf("%.6f,%.6f,%d", reading.Latitude, reading.Longitude, reading.CapturedAt.Unix())
	}
	extra, _ := json.Marshal(custom)
	return fmt.Sprintf("preview:%s:%d:%d:%s:%s", tpl.ID, tpl.UpdatedAt.UnixNano(), width, pos, extra)
}

func (s *CaptureService) LastCapture() *models.CaptureResult {
	return s.lastCapture.Load()
}

func (s *CaptureService) ClearLastCapture() {
	s.lastCapture.Store(nil)
}

func (s *CaptureService) Captures() (success, failed uint64) {
	return s.successes.Load(), s.failures.Load()
}

func (s *CaptureService) IsCapturing() bool {
	return s.busy.Load()
}
