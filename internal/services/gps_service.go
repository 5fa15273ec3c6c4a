package services

import (
	"context"
	"sync"
	"time"

	"gpscam/internal/models"
	"gpscam/internal/providers"
	"gpscam/internal/structures"
)

type GPSMode string

const (
	GPSModeReal   GPSMode = "real"
	GPSModeManual GPSMode = "manual"
)

// AcquireOptions tune a positioning read or watch.
type AcquireOptions struct {
	HighAccuracy bool
	Timeout      time.Duration
	MaxSampleAge time.Duration
}

// Subscription is a cancelable positioning stream. Updates closes after
// Stop or a stream error; Err reports the terminal error, if any.
type Subscription interface {
	Updates() <-chan models.CoordinateReading
	Err() error
	Stop()
}

// PositionProvider is the platform positioning collaborator. Implementations
// must honor the acquisition timeout and report permission denials as
// models.ErrPermissionDenied.
type PositionProvider interface {
	RequestPermission(ctx context.Context) error
	Current(ctx context.Context, opts AcquireOptions) (*models.CoordinateReading, error)
	Watch(ctx context.Context, opts AcquireOptions) (Subscription, error)
}

type GPSServiceInterface interface {
	Mode() GPSMode
	SetMode(ctx context.Context, mode GPSMode)
	CurrentReading() *models.CoordinateReading
	AcquireOnce(ctx context.Context) (*models.CoordinateReading, error)
	SelectManual(loc *models.SavedLocation)
	SelectedManual() *models.SavedLocation
	Tracking() bool
	LastError() string
	Stop()
}

// GPSService is the coordinate source. In real mode it holds the newest
// sample of a positioning subscription; in manual mode it mirrors the
// operator-selected saved location. Failures surface as a human-readable
// error string and are never retried automatically.
type GPSService struct {
	provider PositionProvider
	opts     AcquireOptions
	logger   providers.Logger

	mu      sync.Mutex
	mode    GPSMode
	reading *models.CoordinateReading
	manual  *models.SavedLocation
	sub     Subscription
	lastErr string
}

func NewGPSService(conf *structures.Config, provider PositionProvider, logger providers.Logger) GPSServiceInterface {
	return &GPSService{
		provider: provider,
		opts: AcquireOptions{
			HighAccuracy: conf.GPS.HighAccuracy,
			Timeout:      conf.GPS.AcquireTimeout,
			MaxSampleAge: conf.GPS.MaxSampleAge,
		},
		logger: logger,
		mode:   GPSModeReal,
	}
}

func (g *GPSService) Mode() GPSMode {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.mode
}

// SetMode switches the coordinate source. Entering real mode starts the
// positioning subscription if not already active; entering manual mode
// stops it.
func (g *GPSService) SetMode(ctx context.Context, mode GPSMode) {
	g.mu.Lock()
	if g.mode == mode {
		g.mu.Unlock()
		return
	}
	g.mode = mode
	g.mu.Unlock()

	switch mode {
	case GPSModeReal:
		g.startTracking(ctx)
	case GPSModeManual:
		g.stopTracking()
	}
}

func (g *GPSService) startTracking(ctx context.Context) {
	g.mu.Lock()
	if g.sub != nil {
		g.mu.Unlock()
		return
	}
	g.mu.Unlock()

	if err := g.provider.RequestPermission(ctx); err != nil {
		g.setError("Location permission not granted: " + err.Error())
		return
	}

	sub, err := g.provider.Watch(ctx, g.opts)
	if err != nil {
		g.setError("Failed to start position watch: " + err.Error())
		return
	}

	g.mu.Lock()
	// The guard above ran without the lock held across the provider calls;
	// a concurrent mode change or second entry may have raced past it.
	if g.mode != GPSModeReal || g.sub != nil {
		g.mu.Unlock()
		sub.Stop()
		return
	}
	g.sub = sub
	g.lastErr = ""
	g.mu.Unlock()

	go g.consume(sub)
}

func (g *GPSService) consume(sub Subscription) {
	// Latest sample wins; no smoothing or outlier rejection.
	for reading := range sub.Updates() {
		r := reading
		g.mu.Lock()
		if g.mode == GPSModeReal {
			g.reading = &r
		}
		g.mu.Unlock()
	}

	if err := sub.Err(); err != nil {
		g.setError("Position stream ended: " + err.Error())
	}

	g.mu.Lock()
	if g.sub == sub {
		g.sub = nil
	}
	g.mu.Unlock()
}

func (g *GPSService) stopTracking() {
	g.mu.Lock()
	sub := g.sub
	g.sub = nil
	g.mu.Unlock()

	if sub != nil {
		sub.Stop()
	}
}

// AcquireOnce performs a one-off positioning read and, on success, replaces
// the held reading.
func (g *GPSService) AcquireOnce(ctx context.Context) (*models.CoordinateReading, error) {
	reading, err := g.provider.Current(ctx, g.opts)
	if err != nil {
		g.setError("Failed to get current position: " + err.Error())
		return nil, err
	}

	g.mu.Lock()
	g.reading = reading
	g.lastErr = ""
	g.mu.Unlock()
	return reading, nil
}

// SelectManual copies a saved location's coordinates as the current reading.
// The switch is synchronous and immediate.
func (g *GPSService) SelectManual(loc *models.SavedLocation) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.manual = loc
	if loc != nil {
		coords := loc.Coordinates
		g.reading = &coords
	}
}

func (g *GPSService) SelectedManual() *models.SavedLocation {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.manual
}

// CurrentReading returns the held reading, or nil when none was ever
// acquired or selected.
func (g *GPSService) CurrentReading() *models.CoordinateReading {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.reading == nil {
		return nil
	}
	out := *g.reading
	return &out
}

func (g *GPSService) Tracking() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.sub != nil
}

func (g *GPSService) LastError() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastErr
}

func (g *GPSService) Stop() {
	g.stopTracking()
}

func (g *GPSService) setError(msg string) {
	g.logger.Errorf(providers.TypeGPS, "%s", msg)
	g.mu.Lock()
	g.lastErr = msg
	g.mu.Unlock()
}
