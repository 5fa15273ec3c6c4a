package services

import (
	"context"
	"image"
	"sync"

	"gpscam/internal/models"
	"gpscam/internal/testutil"
)

// MockPositionProvider implements PositionProvider with scripted
// responses.
type MockPositionProvider struct {
	mu sync.Mutex

	PermissionErr error
	CurrentValue  *models.CoordinateReading
	CurrentErr    error
	WatchErr      error

	PermissionCalls int
	CurrentCalls    int
	WatchCalls      int

	subs []*MockSubscription
}

func (m *MockPositionProvider) RequestPermission(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PermissionCalls++
	return m.PermissionErr
}

func (m *MockPositionProvider) Current(_ context.Context, _ AcquireOptions) (*models.CoordinateReading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CurrentCalls++
	if m.CurrentErr != nil {
		return nil, m.CurrentErr
	}
	if m.CurrentValue == nil {
		return nil, nil
	}
	out := *m.CurrentValue
	return &out, nil
}

func (m *MockPositionProvider) Watch(_ context.Context, _ AcquireOptions) (Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.WatchCalls++
	if m.WatchErr != nil {
		return nil, m.WatchErr
	}
	sub := NewMockSubscription()
	m.subs = append(m.subs, sub)
	return sub, nil
}

// LastSubscription returns the most recently issued subscription, or nil.
func (m *MockPositionProvider) LastSubscription() *MockSubscription {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.subs) == 0 {
		return nil
	}
	return m.subs[len(m.subs)-1]
}

// MockSubscription is a hand-driven positioning stream. Tests push readings
// with Emit and terminate the stream with Fail or Stop.
type MockSubscription struct {
	updates  chan models.CoordinateReading
	stopOnce sync.Once

	mu      sync.Mutex
	err     error
	stopped bool
}

func NewMockSubscription() *MockSubscription {
	return &MockSubscription{updates: make(chan models.CoordinateReading, 16)}
}

func (s *MockSubscription) Updates() <-chan models.CoordinateReading { return s.updates }

func (s *MockSubscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *MockSubscription) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
	s.stopOnce.Do(func() { close(s.updates) })
}

func (s *MockSubscription) Emit(r models.CoordinateReading) {
	s.updates <- r
}

func (s *MockSubscription) Fail(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
	s.stopOnce.Do(func() { close(s.updates) })
}

func (s *MockSubscription) Stopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

// MockFrameProvider implements FrameProvider.
type MockFrameProvider struct {
	mu sync.Mutex

	PermissionErr error
	StartErr      error
	FrameErr      error
	FrameValue    image.Image

	StartCalls    int
	StopCalls     int
	FrameCalls    int
	LastSettings  CameraSettings
	started       bool
}

func (m *MockFrameProvider) RequestPermission(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.PermissionErr
}

func (m *MockFrameProvider) Start(_ context.Context, settings CameraSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StartCalls++
	m.LastSettings = settings
	if m.StartErr != nil {
		return m.StartErr
	}
	m.started = true
	return nil
}

func (m *MockFrameProvider) Frame() (image.Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FrameCalls++
	if m.FrameErr != nil {
		return nil, m.FrameErr
	}
	if m.FrameValue != nil {
		return m.FrameValue, nil
	}
	return testutil.TestFrame(64, 48), nil
}

func (m *MockFrameProvider) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StopCalls++
	m.started = false
}

func (m *MockFrameProvider) Started() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.started
}
