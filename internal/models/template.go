package models

import (
	"sort"
	"time"
)

type Layout string

const (
	LayoutHorizontal Layout = "horizontal"
	LayoutVertical   Layout = "vertical"
	LayoutGrid       Layout = "grid"
)

type LogoPosition string

const (
	LogoLeft   LogoPosition = "left"
	LogoRight  LogoPosition = "right"
	LogoCenter LogoPosition = "center"
)

type FieldType string

const (
	FieldText       FieldType = "text"
	FieldCoordinate FieldType = "coordinate"
	FieldDatetime   FieldType = "datetime"
	FieldCustom     FieldType = "custom"
)

// OverlayField is one line candidate of the overlay band. Value acts as the
// static fallback for text and custom fields.
type OverlayField struct {
	ID      string    `json:"id"`
	Label   string    `json:"label"`
	Value   string    `json:"value"`
	Type    FieldType `json:"type"`
	Visible bool      `json:"visible"`
	Order   int       `json:"order"`
}

// OverlayTemplate describes which fields are burned onto a captured photo
// and how they are styled. Exactly one template is active at a time.
type OverlayTemplate struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	Fields          []OverlayField `json:"fields"`
	Layout          Layout         `json:"layout"`
	BackgroundColor string         `json:"background_color"`
	TextColor       string         `json:"text_color"`
	FontSize        int            `json:"font_size"`
	ShowLogo        bool           `json:"show_logo"`
	LogoPosition    LogoPosition   `json:"logo_position,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// SortedVisibleFields returns the visible fields ordered by ascending Order.
// The sort is stable: ties keep their original sequence position.
func (t *OverlayTemplate) SortedVisibleFields() []OverlayField {
	fields := make([]OverlayField, 0, len(t.Fields))
	for _, f := range t.Fields {
		if f.Visible {
			fields = append(fields, f)
		}
	}
	sort.SliceStable(fields, func(i, j int) bool {
		return fields[i].Order < fields[j].Order
	})
	return fields
}

// DefaultTemplate is the template seeded on first-ever initialization when
// no overlay template exists yet.
func DefaultTemplate() *OverlayTemplate {
	return &OverlayTemplate{
		ID:   "default",
		Name: "Default GPS Overlay",
		Fields: []OverlayField{
			{ID: "lat", Label: "Lat", Type: FieldCoordinate, Visible: true, Order: 1},
			{ID: "lng", Label: "Lng", Type: FieldCoordinate, Visible: true, Order: 2},
			{ID: "timestamp", Label: "Time", Type: FieldDatetime, Visible: true, Order: 3},
		},
		Layout:          LayoutHorizontal,
		BackgroundColor: "rgba(0, 0, 0, 0.7)",
		TextColor:       "#ffffff",
		FontSize:        14,
		ShowLogo:        true,
		LogoPosition:    LogoRight,
	}
}
