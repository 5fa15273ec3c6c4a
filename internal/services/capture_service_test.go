package services

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gpscam/internal/models"
	"gpscam/internal/overlay"
	"gpscam/internal/storage"
	"gpscam/internal/structures"
	"gpscam/internal/testutil"
)

type captureFixture struct {
	svc       CaptureServiceInterface
	artifacts *storage.ArtifactStore
	cache     *testutil.MockCache
	metrics   *testutil.MockMetrics
	logger    *testutil.MockLogger
}

func newCaptureFixture(t *testing.T) *captureFixture {
	t.Helper()
	conf := &structures.Config{
		Storage: structures.StorageConfig{
			Root: filepath.Join(t.TempDir(), "photos"),
		},
	}
	conf.ApplyDefaults()

	logger := &testutil.MockLogger{}
	metrics := testutil.NewMockMetrics()
	cache := testutil.NewMockCache()

	compositor, err := overlay.NewCompositor(conf, logger)
	require.NoError(t, err)
	compositor.WithClock(func() time.Time {
		return time.Date(2024, 3, 15, 14, 30, 45, 0, time.UTC)
	})
	artifacts := storage.NewArtifactStore(conf, logger, metrics)

	return &captureFixture{
		svc:       NewCaptureService(compositor, artifacts, cache, metrics, logger),
		artifacts: artifacts,
		cache:     cache,
		metrics:   metrics,
		logger:    logger,
	}
}

func capturedReading() *models.CoordinateReading {
	return &models.CoordinateReading{
		Latitude:   37.7749,
		Longitude:  -122.4194,
		CapturedAt: time.Date(2024, 3, 15, 14, 30, 45, 0, time.UTC),
	}
}

func TestCaptureService_EndToEnd(t *testing.T) {
	f := newCaptureFixture(t)
	frame := testutil.TestFrame(640, 480)

	result, err := f.svc.CaptureWithOverlay(context.Background(), frame, capturedReading(), models.DefaultTemplate(), nil)
	require.NoError(t, err)

	// Both artifacts exist and their names share one timestamp token.
	require.NotNil(t, result.Raw)
	require.NotNil(t, result.Processed)
	rawToken := strings.TrimSuffix(result.Raw.Filename[strings.Index(result.Raw.Filename, "_")+1:], "_raw.jpeg")
	procToken := strings.TrimSuffix(result.Processed.Filename[strings.Index(result.Processed.Filename, "_")+1:], "_processed.jpeg")
	assert.Equal(t, rawToken, procToken)

	rawData, err := f.artifacts.ReadFile(result.Raw.Path)
	require.NoError(t, err)
	assert.NotEmpty(t, rawData)
	procData, err := f.artifacts.ReadFile(result.Processed.Path)
	require.NoError(t, err)
	assert.NotEmpty(t, procData)

	// Output metadata reflects the real composited bounds.
	assert.Equal(t, 640, result.Metadata.Width)
	assert.Equal(t, 480, result.Metadata.Height)
	assert.Equal(t, "jpeg", result.Metadata.Format)
	assert.EqualValues(t, len(rawData)+len(procData), result.Metadata.Size)

	// The metadata snapshot rode along with both artifacts.
	require.NotNil(t, result.Raw.Metadata)
	assert.Equal(t, 37.7749, result.Raw.Metadata.GPSData.Latitude)

	// The overlay band carries the expected lines.
	lines := overlay.ResolveLines(models.DefaultTemplate(), capturedReading(), nil, time.Time{})
	require.Len(t, lines, 3)
	assert.Equal(t, "Lat: 37.774900", lines[0])
	assert.Equal(t, "Lng: -122.419400", lines[1])
	assert.Equal(t, "Time: 2024-03-15 14:30:45", lines[2])

	ok, failed := f.svc.Captures()
	assert.EqualValues(t, 1, ok)
	assert.EqualValues(t, 0, failed)
	assert.Equal(t, 1, f.metrics.CaptureCount("success"))
	assert.Equal(t, result, f.svc.LastCapture())

	// The stored-capture log line names the processed artifact.
	var logged bool
	for _, e := range f.logger.Logs {
		if strings.HasPrefix(e.Format, "Capture stored") {
			require.NotEmpty(t, e.Args)
			assert.Equal(t, result.Processed.Filename, e.Args[0])
			logged = true
		}
	}
	assert.True(t, logged)
}

func TestCaptureService_NilFrame(t *testing.T) {
	f := newCaptureFixture(t)

	_, err := f.svc.CaptureWithOverlay(context.Background(), nil, capturedReading(), models.DefaultTemplate(), nil)
	assert.ErrorIs(t, err, models.ErrUninitialized)

	_, failed := f.svc.Captures()
	assert.EqualValues(t, 1, failed)
	assert.Equal(t, 1, f.metrics.CaptureCount("failure"))
	assert.Nil(t, f.svc.LastCapture())
	// The guard resets even on failure.
	assert.False(t, f.svc.IsCapturing())
}

func TestCaptureService_BusyGuard(t *testing.T) {
	f := newCaptureFixture(t)
	// Large enough that the first capture is still encoding when the
	// second request arrives.
	frame := testutil.TestFrame(2400, 1800)

	done := make(chan error, 1)
	go func() {
		_, err := f.svc.CaptureWithOverlay(context.Background(), frame, capturedReading(), models.DefaultTemplate(), nil)
		done <- err
	}()

	require.Eventually(t, func() bool { return f.svc.IsCapturing() }, 2*time.Second, time.Millisecond)

	_, err := f.svc.CaptureWithOverlay(context.Background(), frame, capturedReading(), models.DefaultTemplate(), nil)
	assert.ErrorIs(t, err, models.ErrCaptureBusy)

	require.NoError(t, <-done)
	assert.False(t, f.svc.IsCapturing())

	// A later capture proceeds normally once the slot frees up.
	_, err = f.svc.CaptureWithOverlay(context.Background(), testutil.TestFrame(64, 48), capturedReading(), models.DefaultTemplate(), nil)
	assert.NoError(t, err)
}

func TestCaptureService_CanceledContext(t *testing.T) {
	f := newCaptureFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.svc.CaptureWithOverlay(ctx, testutil.TestFrame(64, 48), capturedReading(), models.DefaultTemplate(), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCaptureService_ClearLastCapture(t *testing.T) {
	f := newCaptureFixture(t)

	_, err := f.svc.CaptureWithOverlay(context.Background(), testutil.TestFrame(64, 48), capturedReading(), models.DefaultTemplate(), nil)
	require.NoError(t, err)
	require.NotNil(t, f.svc.LastCapture())

	f.svc.ClearLastCapture()
	assert.Nil(t, f.svc.LastCapture())
}

func TestCaptureService_RenderPreview_Cached(t *testing.T) {
	f := newCaptureFixture(t)
	tpl := models.DefaultTemplate()

	first, err := f.svc.RenderPreview(capturedReading(), tpl, 640, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, first)
	assert.Equal(t, 1, f.metrics.CacheMisses)

	second, err := f.svc.RenderPreview(capturedReading(), tpl, 640, nil)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, f.metrics.CacheHits)
}

func TestCaptureService_RenderPreview_KeyedByTemplateVersion(t *testing.T) {
	f := newCaptureFixture(t)
	tpl := models.DefaultTemplate()

	_, err := f.svc.RenderPreview(capturedReading(), tpl, 640, nil)
	require.NoError(t, err)

	tpl.UpdatedAt = tpl.UpdatedAt.Add(time.Second)
	_, err = f.svc.RenderPreview(capturedReading(), tpl, 640, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, f.metrics.CacheMisses)
	assert.Equal(t, 2, f.cache.Len())
}

func TestCaptureService_RenderPreview_NilTemplateUsesDefault(t *testing.T) {
	f := newCaptureFixture(t)

	data, err := f.svc.RenderPreview(capturedReading(), nil, 0, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}
