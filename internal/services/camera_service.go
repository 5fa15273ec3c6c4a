package services

import (
	"context"
	"fmt"
	"image"
	"sync"

	"gpscam/internal/models"
	"gpscam/internal/overlay"
	"gpscam/internal/providers"
	"gpscam/internal/structures"
)

// CameraSettings describe the requested stream configuration.
type CameraSettings struct {
	AspectRatio string
	FacingMode  string
}

// FrameProvider is the platform camera collaborator. At most one stream is
// active at a time; Start on an already-started provider replaces the stream.
type FrameProvider interface {
	RequestPermission(ctx context.Context) error
	Start(ctx context.Context, settings CameraSettings) error
	Frame() (image.Image, error)
	Stop()
}

type CameraServiceInterface interface {
	Initialize(ctx context.Context) error
	Capture() (image.Image, error)
	SwitchFacing(ctx context.Context) error
	Settings() CameraSettings
	Initialized() bool
	LastError() string
	Stop()
}

// CameraService owns the exclusive frame stream and hands out still frames
// for the capture pipeline.
type CameraService struct {
	provider FrameProvider
	logger   providers.Logger

	mu          sync.Mutex
	settings    CameraSettings
	initialized bool
	lastErr     string
}

func NewCameraService(conf *structures.Config, provider FrameProvider, logger providers.Logger) CameraServiceInterface {
	return &CameraService{
		provider: provider,
		logger:   logger,
		settings: CameraSettings{
			AspectRatio: conf.Camera.AspectRatio,
			FacingMode:  conf.Camera.FacingMode,
		},
	}
}

// Initialize acquires the camera stream. Any previous stream is torn down
// first so only one is ever active.
func (c *CameraService) Initialize(ctx context.Context) error {
	c.mu.Lock()
	settings := c.settings
	wasInitialized := c.initialized
	c.mu.Unlock()

	if wasInitialized {
		c.provider.Stop()
	}

	if err := c.provider.RequestPermission(ctx); err != nil {
		c.setError("Camera permission not granted: " + err.Error())
		return err
	}

	if err := c.provider.Start(ctx, settings); err != nil {
		c.setError("Failed to start camera stream: " + err.Error())
		c.mu.Lock()
		c.initialized = false
		c.mu.Unlock()
		return err
	}

	c.mu.Lock()
	c.initialized = true
	c.lastErr = ""
	c.mu.Unlock()
	c.logger.Infof(providers.TypeCapture, "Camera stream started (aspect %s, facing %s)", settings.AspectRatio, settings.FacingMode)
	return nil
}

// Capture grabs the current frame. Fails with ErrUninitialized before
// Initialize succeeds or after Stop.
func (c *CameraService) Capture() (image.Image, error) {
	c.mu.Lock()
	initialized := c.initialized
	ratio := c.settings.AspectRatio
	c.mu.Unlock()

	if !initialized {
		return nil, fmt.Errorf("camera not started: %w", models.ErrUninitialized)
	}

	frame, err := c.provider.Frame()
	if err != nil {
		c.setError("Failed to capture frame: " + err.Error())
		return nil, err
	}

	// Providers deliver frames at their native sensor ratio; the stored
	// photo honors the configured one.
	if ratio != "" && ratio != "full" {
		w, h := AspectRatio(ratio)
		frame = overlay.CropToAspect(frame, w, h)
	}
	return frame, nil
}

// SwitchFacing toggles between front and rear camera by tearing the stream
// down and reinitializing with the other facing mode.
func (c *CameraService) SwitchFacing(ctx context.Context) error {
	c.mu.Lock()
	if c.settings.FacingMode == "environment" {
		c.settings.FacingMode = "user"
	} else {
		c.settings.FacingMode = "environment"
	}
	c.mu.Unlock()

	return c.Initialize(ctx)
}

func (c *CameraService) Settings() CameraSettings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settings
}

func (c *CameraService) Initialized() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initialized
}

func (c *CameraService) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

func (c *CameraService) Stop() {
	c.mu.Lock()
	initialized := c.initialized
	c.initialized = false
	c.mu.Unlock()

	if initialized {
		c.provider.Stop()
	}
}

// AspectRatio resolves a named ratio to its width and height components.
// Unknown names fall back to 4:3.
func AspectRatio(name string) (w, h int) {
	switch name {
	case "16:9":
		return 16, 9
	case "1:1":
		return 1, 1
	case "3:4":
		return 3, 4
	case "9:16":
		return 9, 16
	default:
		return 4, 3
	}
}

func (c *CameraService) setError(msg string) {
	c.logger.Errorf(providers.TypeCapture, "%s", msg)
	c.mu.Lock()
	c.lastErr = msg
	c.mu.Unlock()
}
