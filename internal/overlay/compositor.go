package overlay

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"sync"
	"time"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	"gpscam/internal/models"
	"gpscam/internal/providers"
	"gpscam/internal/structures"
)

// Band geometry. The overlay is a full-width strip flush against the bottom
// edge; text is left-aligned at a fixed inset, the logo sits near the band's
// bottom edge.
const (
	BandHeight       = 120
	textInset        = 20
	logoText         = "GPS CAM"
	logoBottomOffset = 20
)

var (
	defaultBandColor = color.NRGBA{A: 179} // rgba(0, 0, 0, 0.7)
	defaultTextColor = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)

// Compositor burns a template's resolved field values onto captured frames.
// Output depends only on its inputs (and the injected clock for templates
// rendering a datetime field without a reading), so repeated calls with the
// same arguments produce byte-identical results.
type Compositor struct {
	format  string
	quality int
	logger  providers.Logger
	now     func() time.Time

	mu    sync.Mutex
	font  *opentype.Font
	faces map[int]font.Face
}

func NewCompositor(conf *structures.Config, logger providers.Logger) (*Compositor, error) {
	fnt, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse overlay font: %w", err)
	}
	return &Compositor{
		format:  conf.Storage.Format,
		quality: conf.Storage.Quality,
		logger:  logger,
		now:     time.Now,
		font:    fnt,
		faces:   make(map[int]font.Face),
	}, nil
}

// WithClock replaces the wall clock used for datetime fields when no reading
// is supplied. Intended for tests.
func (c *Compositor) WithClock(now func() time.Time) *Compositor {
	c.now = now
	return c
}

// Composite copies the raw frame and draws the overlay band over its bottom
// BandHeight pixels. Pixels above the band are never altered. A nil reading
// skips coordinate fields entirely; the band background is drawn regardless.
func (c *Compositor) Composite(raw image.Image, reading *models.CoordinateReading, tpl *models.OverlayTemplate, custom map[string]string) (*image.RGBA, error) {
	if raw == nil {
		return nil, fmt.Errorf("composite: %w", models.ErrUninitialized)
	}

	bounds := raw.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), raw, bounds.Min, draw.Src)

	c.drawBand(dst, reading, tpl, custom)
	return dst, nil
}

// RenderBand draws the overlay band alone at the given width. Used for the
// live preview the template editor shows.
func (c *Compositor) RenderBand(width int, reading *models.CoordinateReading, tpl *models.OverlayTemplate, custom map[string]string) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, BandHeight))
	c.drawBand(dst, reading, tpl, custom)
	return dst
}

func (c *Compositor) drawBand(dst *image.RGBA, reading *models.CoordinateReading, tpl *models.OverlayTemplate, custom map[string]string) {
	width := dst.Bounds().Dx()
	height := dst.Bounds().Dy()
	bandY := height - BandHeight
	if bandY < 0 {
		bandY = 0
	}

	bg, err := ParseCSSColor(tpl.BackgroundColor)
	if err != nil {
		c.logger.Warnf(providers.TypeCapture, "Bad template background %q, using default", tpl.BackgroundColor)
		bg = defaultBandColor
	}
	fg, err := ParseCSSColor(tpl.TextColor)
	if err != nil {
		c.logger.Warnf(providers.TypeCapture, "Bad template text color %q, using default", tpl.TextColor)
		fg = defaultTextColor
	}

	dc := gg.NewContextForRGBA(dst)
	dc.SetColor(bg)
	dc.DrawRectangle(0, float64(bandY), float64(width), float64(BandHeight))
	dc.Fill()

	lines := ResolveLines(tpl, reading, custom, c.now())

	fontSize := tpl.FontSize
	if fontSize <= 0 {
		fontSize = 14
	}

	if len(lines) > 0 {
		if face := c.face(fontSize); face != nil {
			dc.SetFontFace(face)
		}
		dc.SetColor(fg)

		lineHeight := fontSize + 4
		startY := bandY + (BandHeight-len(lines)*lineHeight)/2
		for i, line := range lines {
			y := float64(startY + i*lineHeight + lineHeight/2)
			dc.DrawStringAnchored(line, textInset, y, 0, 0.4)
		}
	}

	if tpl.ShowLogo {
		if face := c.face(fontSize - 2); face != nil {
			dc.SetFontFace(face)
		}
		dc.SetColor(fg)

		logoWidth, _ := dc.MeasureString(logoText)
		logoX := float64(textInset)
		switch tpl.LogoPosition {
		case models.LogoRight:
			logoX = float64(width) - logoWidth - textInset
		case models.LogoCenter:
			logoX = (float64(width) - logoWidth) / 2
		}
		logoY := float64(bandY + BandHeight - logoBottomOffset)
		dc.DrawStringAnchored(logoText, logoX, logoY, 0, 0.4)
	}
}

// ResolveLines resolves the template's visible fields, ascending by order,
// into the text lines the band renders. Fields whose resolved value is empty
// contribute nothing.
func ResolveLines(tpl *models.OverlayTemplate, reading *models.CoordinateReading, custom map[string]string, now time.Time) []string {
	var lines []string
	for _, f := range tpl.SortedVisibleFields() {
		value := resolveField(f, reading, custom, now)
		if value == "" {
			continue
		}
		lines = append(lines, f.Label+": "+value)
	}
	return lines
}

func resolveField(f models.OverlayField, reading *models.CoordinateReading, custom map[string]string, now time.Time) string {
	switch f.Type {
	case models.FieldCoordinate:
		if reading == nil {
			return ""
		}
		switch f.ID {
		case "lat":
			return fmt.Sprintf("%.6f", reading.Latitude)
		case "lng":
			return fmt.Sprintf("%.6f", reading.Longitude)
		case "alt":
			if reading.Altitude == nil {
				return "N/A"
			}
			return fmt.Sprintf("%.1f", *reading.Altitude)
		}
		return ""
	case models.FieldDatetime:
		ts := now
		if reading != nil {
			ts = reading.CapturedAt
		}
		return models.FormatTimestamp(ts, "long")
	case models.FieldCustom:
		if v, ok := custom[f.ID]; ok && v != "" {
			return v
		}
		return f.Value
	default:
		return f.Value
	}
}

// Encode compresses a composited surface in the configured output format.
func (c *Compositor) Encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	switch c.format {
	case "png":
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encode png: %w", err)
		}
	default:
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: c.quality}); err != nil {
			return nil, fmt.Errorf("encode jpeg: %w", err)
		}
	}
	return buf.Bytes(), nil
}

// Format returns the output format extension ("jpeg" or "png").
func (c *Compositor) Format() string {
	if c.format == "" {
		return "jpeg"
	}
	return c.format
}

func (c *Compositor) face(size int) font.Face {
	if size < 1 {
		size = 1
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if f, ok := c.faces[size]; ok {
		return f
	}
	f, err := opentype.NewFace(c.font, &opentype.FaceOptions{
		Size:    float64(size),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		// goregular parses at any positive size; fall back to the basicfont
		// the gg context already carries.
		c.logger.Errorf(providers.TypeCapture, "Font face at size %d: %s", size, err)
		return nil
	}
	c.faces[size] = f
	return f
}
