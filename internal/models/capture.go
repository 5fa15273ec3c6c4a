package models

import (
	"image"
	"time"
)

// ImageMetadata describes the composited output of a capture.
type ImageMetadata struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Format string `json:"format"`
	Size   int64  `json:"size"`
}

// CaptureResult is the outcome of a single capture action. It is created
// once, never regenerated from a later template, and only its two bitmaps
// are persisted.
type CaptureResult struct {
	RawImage       image.Image
	ProcessedImage image.Image
	Raw            *StoredFile
	Processed      *StoredFile
	Timestamp      time.Time
	Metadata       ImageMetadata
}
