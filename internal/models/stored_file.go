package models

import "time"

type ArtifactType string

const (
	ArtifactRaw       ArtifactType = "raw"
	ArtifactProcessed ArtifactType = "processed"
)

// StoredFile is a persisted image artifact record. Raw and processed
// artifacts of one capture always exist as a pair with a shared filename
// timestamp token.
type StoredFile struct {
	ID        string           `json:"id"`
	Filename  string           `json:"filename"`
	Path      string           `json:"path"`
	Type      ArtifactType     `json:"type"`
	Size      int64            `json:"size"`
	CreatedAt time.Time        `json:"created_at"`
	Metadata  *CaptureMetadata `json:"metadata,omitempty"`
}

// CaptureMetadata is the constitutive snapshot attached identically to both
// artifacts of a pair: the reading, the template and the custom values that
// produced the processed image.
type CaptureMetadata struct {
	GPSData    *CoordinateReading `json:"gps_data,omitempty"`
	Template   *OverlayTemplate   `json:"template,omitempty"`
	CustomData map[string]string  `json:"custom_data,omitempty"`
	Timestamp  time.Time          `json:"timestamp"`
}
