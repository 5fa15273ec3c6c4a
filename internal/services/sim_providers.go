package services

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"sync"
	"time"

	"gpscam/internal/models"
)

// SimulatedPositionProvider emits jittered readings around a fixed point.
// It stands in for real positioning hardware in the standalone binary and
// in load testing.
type SimulatedPositionProvider struct {
	Latitude  float64
	Longitude float64
	Interval  time.Duration
}

func (p *SimulatedPositionProvider) RequestPermission(_ context.Context) error { return nil }

func (p *SimulatedPositionProvider) Current(_ context.Context, _ AcquireOptions) (*models.CoordinateReading, error) {
	return &models.CoordinateReading{
		Latitude:   p.Latitude,
		Longitude:  p.Longitude,
		Accuracy:   models.Float64Ptr(5),
		CapturedAt: time.Now(),
	}, nil
}

func (p *SimulatedPositionProvider) Watch(ctx context.Context, _ AcquireOptions) (Subscription, error) {
	interval := p.Interval
	if interval == 0 {
		interval = time.Second
	}

	sub := &simSubscription{
		updates: make(chan models.CoordinateReading),
		stop:    make(chan struct{}),
	}

	go func() {
		defer close(sub.updates)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		step := 0.0
		for {
			select {
			case <-sub.stop:
				return
			case <-ctx.Done():
				sub.setErr(ctx.Err())
				return
			case <-ticker.C:
				step += 0.000001
				reading := models.CoordinateReading{
					Latitude:   p.Latitude + step,
					Longitude:  p.Longitude + step,
					Accuracy:   models.Float64Ptr(5),
					CapturedAt: time.Now(),
				}
				select {
				case sub.updates <- reading:
				case <-sub.stop:
					return
				}
			}
		}
	}()

	return sub, nil
}

type simSubscription struct {
	updates  chan models.CoordinateReading
	stop     chan struct{}
	stopOnce sync.Once

	mu  sync.Mutex
	err error
}

func (s *simSubscription) Updates() <-chan models.CoordinateReading { return s.updates }

func (s *simSubscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *simSubscription) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *simSubscription) setErr(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

// SyntheticFrameProvider renders a gradient test frame instead of reading a
// camera device.
type SyntheticFrameProvider struct {
	Width  int
	Height int

	mu      sync.Mutex
	started bool
}

func (p *SyntheticFrameProvider) RequestPermission(_ context.Context) error { return nil }

func (p *SyntheticFrameProvider) Start(_ context.Context, _ CameraSettings) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.started = true
	return nil
}

func (p *SyntheticFrameProvider) Frame() (image.Image, error) {
	p.mu.Lock()
	started := p.started
	p.mu.Unlock()
	if !started {
		return nil, fmt.Errorf("frame source stopped: %w", models.ErrUninitialized)
	}

	w, h := p.Width, p.Height
	if w <= 0 {
		w = 1280
	}
	if h <= 0 {
		h = 720
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{
				R: uint8(x * 255 / w),
				G: uint8(y * 255 / h),
				B: 96,
				A: 255,
			})
		}
	}
	return img, nil
}

func (p *SyntheticFrameProvider) Stop() {
	p.mu.Lock()
	p.started = false
	p.mu.Unlock()
}
