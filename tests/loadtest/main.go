package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"gpscam/internal/models"
	"gpscam/internal/overlay"
	"gpscam/internal/providers"
	"gpscam/internal/services"
	"gpscam/internal/storage"
	"gpscam/internal/structures"
	"gpscam/internal/testutil"
)

const (
	numCaptures  = 200
	numPreviews  = 2000
	concurrency  = 8
	frameWidth   = 1280
	frameHeight  = 720
	previewWidth = 640
)

type stats struct {
	mu        sync.Mutex
	count     int64
	errors    int64
	busy      int64
	latencies []time.Duration
}

func main() {
	fmt.Println("=== GPSCam Pipeline Load Test ===")
	fmt.Printf("Captures: %d | Previews: %d | Frame: %dx%d\n\n", numCaptures, numPreviews, frameWidth, frameHeight)

	root, err := os.MkdirTemp("", "gpscam-loadtest-*")
	if err != nil {
		fmt.Println("FAILED:", err)
		return
	}
	defer os.RemoveAll(root)

	conf := &structures.Config{
		AppName: "GPSCam",
		Storage: structures.StorageConfig{Root: root + "/photos"},
		Database: structures.DatabaseConfig{
			Path:     root + "/gpscam.db",
			BlobPath: root + "/gpscam.blob",
		},
		Cache: structures.CacheConfig{Enabled: true, Size: 16, TTL: time.Minute},
	}
	conf.ApplyDefaults()

	logger := &testutil.MockLogger{}
	metrics := testutil.NewMockMetrics()
	cache := providers.NewCacheProvider(conf, logger)

	compositor, err := overlay.NewCompositor(conf, logger)
	if err != nil {
		fmt.Println("FAILED:", err)
		return
	}
	artifacts := storage.NewArtifactStore(conf, logger, metrics)
	captureSvc := services.NewCaptureService(compositor, artifacts, cache, metrics, logger)

	frames := &services.SyntheticFrameProvider{Width: frameWidth, Height: frameHeight}
	_ = frames.Start(context.Background(), services.CameraSettings{})
	frame, _ := frames.Frame()

	reading := &models.CoordinateReading{
		Latitude:   37.7749,
		Longitude:  -122.4194,
		Accuracy:   models.Float64Ptr(5),
		CapturedAt: time.Now(),
	}
	tpl := models.DefaultTemplate()

	// Phase 1: sequential captures, full pipeline latency.
	fmt.Println("--- Phase 1: Sequential captures ---")
	capStats := &stats{}
	for i := 0; i < numCaptures; i++ {
		start := time.Now()
		_, err := captureSvc.CaptureWithOverlay(context.Background(), frame, reading, tpl, nil)
		record(capStats, start, err)
	}
	report("capture", capStats)

	// Phase 2: concurrent capture attempts; overlapping requests are
	// rejected rather than queued, so rejections are expected here.
	fmt.Println("\n--- Phase 2: Concurrent capture attempts ---")
	conStats := &stats{}
	var wg sync.WaitGroup
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < numCaptures/concurrency; i++ {
				start := time.Now()
				_, err := captureSvc.CaptureWithOverlay(context.Background(), frame, reading, tpl, nil)
				record(conStats, start, err)
			}
		}()
	}
	wg.Wait()
	report("capture", conStats)

	// Phase 3: preview renders, exercising the cache.
	fmt.Println("\n--- Phase 3: Preview renders ---")
	prevStats := &stats{}
	for i := 0; i < numPreviews; i++ {
		start := time.Now()
		_, err := captureSvc.RenderPreview(reading, tpl, previewWidth, nil)
		record(prevStats, start, err)
	}
	report("preview", prevStats)
	fmt.Printf("cache: %d hits / %d misses\n", metrics.CacheHits, metrics.CacheMisses)

	used := artifacts.Info()
	ok, failed := captureSvc.Captures()
	fmt.Printf("\nartifacts: %s | captures ok=%d failed=%d\n", models.FormatFileSize(used), ok, failed)
}

func record(s *stats, start time.Time, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count++
	switch {
	case errors.Is(err, models.ErrCaptureBusy):
		s.busy++
	case err != nil:
		s.errors++
	default:
		s.latencies = append(s.latencies, time.Since(start))
	}
}

func report(name string, s *stats) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.latencies) == 0 {
		fmt.Printf("%s: %d requests, %d errors, %d busy, no successful samples\n", name, s.count, s.errors, s.busy)
		return
	}
	sorted := make([]time.Duration, len(s.latencies))
	copy(sorted, s.latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var total time.Duration
	for _, l := range sorted {
		total += l
	}
	fmt.Printf("%s: %d ok / %d errors / %d busy\n", name, len(sorted), s.errors, s.busy)
	fmt.Printf("  avg=%v p50=%v p95=%v p99=%v max=%v\n",
		total/time.Duration(len(sorted)),
		percentile(sorted, 0.50), percentile(sorted, 0.95), percentile(sorted, 0.99),
		sorted[len(sorted)-1])
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	idx := int(float64(len(sorted)-1) * p)
	return sorted[idx]
}
