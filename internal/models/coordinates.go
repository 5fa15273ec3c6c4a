package models

import "time"

// CoordinateReading is a single positioning sample. Immutable once produced;
// in real mode the newest sample unconditionally replaces the previous one.
type CoordinateReading struct {
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Altitude   *float64  `json:"altitude,omitempty"`
	Accuracy   *float64  `json:"accuracy,omitempty"`
	CapturedAt time.Time `json:"captured_at"`
}

// SavedLocation is a named coordinate record usable as a manual GPS source.
type SavedLocation struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Coordinates CoordinateReading `json:"coordinates"`
	Address     string            `json:"address,omitempty"`
	Description string            `json:"description,omitempty"`
	Tags        []string          `json:"tags,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// Float64Ptr is a convenience for optional altitude/accuracy values.
func Float64Ptr(v float64) *float64 {
	return &v
}
