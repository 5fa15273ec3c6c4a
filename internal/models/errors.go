package models

import "errors"

// Sentinel errors for the capture pipeline. Callers match with errors.Is;
// IO and encoding failures are wrapped with context at the point of failure.
var (
	ErrPermissionDenied  = errors.New("permission denied")
	ErrDeviceUnsupported = errors.New("device not supported")
	ErrUninitialized     = errors.New("not initialized")
	ErrNotFound          = errors.New("record not found")
	ErrCaptureBusy       = errors.New("capture already in progress")
)
