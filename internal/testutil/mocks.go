package testutil

import (
	"image"
	"image/color"
	"sync"
	"time"

	"gpscam/internal/providers"
)

// MockLogger implements providers.Logger and records calls.
type MockLogger struct {
	mu   sync.Mutex
	Logs []LogEntry
}

type LogEntry struct {
	Level  string
	Type   providers.TypeEnum
	Format string
	Args   []interface{}
}

func (m *MockLogger) record(level string, t providers.TypeEnum, format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Logs = append(m.Logs, LogEntry{Level: level, Type: t, Format: format, Args: args})
}

func (m *MockLogger) Errorf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("error", t, format, args...)
}
func (m *MockLogger) Warnf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("warn", t, format, args...)
}
func (m *MockLogger) Debugf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("debug", t, format, args...)
}
func (m *MockLogger) Infof(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("info", t, format, args...)
}
func (m *MockLogger) Fatalf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("fatal", t, format, args...)
}
func (m *MockLogger) Close() {}

// HasLevel reports whether any recorded entry carries the given level.
func (m *MockLogger) HasLevel(level string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.Logs {
		if e.Level == level {
			return true
		}
	}
	return false
}

// MockMetrics implements providers.MetricsProviderInterface and counts calls.
type MockMetrics struct {
	mu sync.Mutex

	Captures     map[string]int
	CacheHits    int
	CacheMisses  int
	Records      map[string]int
	ArtifactSize int64
	Durations    int
}

func NewMockMetrics() *MockMetrics {
	return &MockMetrics{Captures: map[string]int{}, Records: map[string]int{}}
}

func (m *MockMetrics) IncCapturesTotal(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Captures[outcome]++
}

func (m *MockMetrics) ObserveCaptureDuration(_ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Durations++
}

func (m *MockMetrics) ObservePersistenceDuration(_ time.Duration) {}

func (m *MockMetrics) IncCacheHits() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheHits++
}

func (m *MockMetrics) IncCacheMisses() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheMisses++
}

func (m *MockMetrics) SetRecordsTotal(kind string, count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Records[kind] = count
}

func (m *MockMetrics) AddArtifactBytes(n int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ArtifactSize += n
}

func (m *MockMetrics) IncRequestsTotal(_ string, _ int)                  {}
func (m *MockMetrics) ObserveRequestDuration(_ string, _ time.Duration)  {}

func (m *MockMetrics) CaptureCount(outcome string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Captures[outcome]
}

// MockCache implements providers.CacheProviderInterface with a plain map.
type MockCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewMockCache() *MockCache {
	return &MockCache{data: map[string][]byte{}}
}

func (m *MockCache) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok
}

func (m *MockCache) Set(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
}

func (m *MockCache) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}

// TestFrame builds a small deterministic gradient image.
func TestFrame(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x * 7), G: uint8(y * 5), B: 128, A: 255})
		}
	}
	return img
}
