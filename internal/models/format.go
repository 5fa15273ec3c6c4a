package models

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Timestamp layouts. Local-locale rendering from the original UI is replaced
// with fixed layouts so composited output stays deterministic.
const (
	TimestampShort = "2006-01-02 15:04"
	TimestampLong  = "2006-01-02 15:04:05"
)

// FormatCoordinates renders a lat/lng pair in decimal ("37.774900°N,
// 122.419400°W") or DMS format.
func FormatCoordinates(latitude, longitude float64, format string) string {
	if format == "dms" {
		return FormatDMS(latitude, true) + ", " + FormatDMS(longitude, false)
	}

	latDir := "N"
	if latitude < 0 {
		latDir = "S"
	}
	lngDir := "E"
	if longitude < 0 {
		lngDir = "W"
	}
	return fmt.Sprintf("%.6f°%s, %.6f°%s", math.Abs(latitude), latDir, math.Abs(longitude), lngDir)
}

// FormatDMS renders a decimal degree value as degrees/minutes/seconds with
// a hemisphere suffix, e.g. 37.7749 → `37°46'29.64"N`.
func FormatDMS(decimal float64, isLatitude bool) string {
	abs := math.Abs(decimal)
	degrees := math.Floor(abs)
	minutes := math.Floor((abs - degrees) * 60)
	seconds := (abs - degrees - minutes/60) * 3600

	var direction string
	if isLatitude {
		direction = "N"
		if decimal < 0 {
			direction = "S"
		}
	} else {
		direction = "E"
		if decimal < 0 {
			direction = "W"
		}
	}

	return fmt.Sprintf("%d°%d'%.2f\"%s", int(degrees), int(minutes), seconds, direction)
}

// FormatTimestamp renders a timestamp in one of the styles short, long, iso.
func FormatTimestamp(t time.Time, style string) string {
	switch style {
	case "long":
		return t.Format(TimestampLong)
	case "iso":
		return t.UTC().Format(time.RFC3339)
	default:
		return t.Format(TimestampShort)
	}
}

// FormatFileSize renders a byte count as a human-readable size.
func FormatFileSize(bytes int64) string {
	if bytes == 0 {
		return "0 B"
	}
	sizes := []string{"B", "KB", "MB", "GB"}
	i := int(math.Floor(math.Log(float64(bytes)) / math.Log(1024)))
	if i >= len(sizes) {
		i = len(sizes) - 1
	}
	return fmt.Sprintf("%.2f %s", float64(bytes)/math.Pow(1024, float64(i)), sizes[i])
}

// FormatDistance renders meters, switching to kilometers at 1000m.
func FormatDistance(meters float64) string {
	if meters < 1000 {
		return fmt.Sprintf("%.0fm", meters)
	}
	return fmt.Sprintf("%.1fkm", meters/1000)
}

// FormatAccuracy renders a positioning accuracy radius.
func FormatAccuracy(accuracy float64) string {
	if accuracy < 1 {
		return fmt.Sprintf("±%.0fcm", accuracy*100)
	}
	return fmt.Sprintf("±%.0fm", accuracy)
}

// TimestampToken converts a timestamp into the filesystem-safe token shared
// by both artifacts of a capture: ISO-8601 with ':' and '.' replaced by '-'.
func TimestampToken(t time.Time) string {
	iso := t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
	return strings.NewReplacer(":", "-", ".", "-").Replace(iso)
}

// GenerateFilename builds "<prefix>_<date>_<time>.<ext>" from a timestamp.
func GenerateFilename(prefix string, t time.Time, ext string) string {
	if prefix == "" {
		prefix = "photo"
	}
	if ext == "" {
		ext = "jpg"
	}
	token := TimestampToken(t)
	date, clock, _ := strings.Cut(token, "T")
	return fmt.Sprintf("%s_%s_%s.%s", prefix, date, clock, ext)
}

var (
	decimalPairRe = regexp.MustCompile(`^(-?\d+\.?\d*),\s*(-?\d+\.?\d*)$`)
	dmsPairRe     = regexp.MustCompile(`^(\d+)°(\d+)'([\d.]+)"([NSns]),\s*(\d+)°(\d+)'([\d.]+)"([EWew])$`)
	spacedPairRe  = regexp.MustCompile(`^(-?\d+\.?\d*)\s+(-?\d+\.?\d*)$`)
)

// ParseCoordinates parses operator input in decimal-pair, DMS-pair or
// space-separated decimal form. Returns ok=false when nothing matches.
func ParseCoordinates(input string) (latitude, longitude float64, ok bool) {
	input = strings.TrimSpace(input)

	if m := dmsPairRe.FindStringSubmatch(input); m != nil {
		lat := dmsToDecimal(m[1], m[2], m[3])
		if strings.EqualFold(m[4], "S") {
			lat = -lat
		}
		lng := dmsToDecimal(m[5], m[6], m[7])
		if strings.EqualFold(m[8], "W") {
			lng = -lng
		}
		return lat, lng, true
	}

	for _, re := range []*regexp.Regexp{decimalPairRe, spacedPairRe} {
		if m := re.FindStringSubmatch(input); m != nil {
			lat, err1 := strconv.ParseFloat(m[1], 64)
			lng, err2 := strconv.ParseFloat(m[2], 64)
			if err1 == nil && err2 == nil {
				return lat, lng, true
			}
		}
	}
	return 0, 0, false
}

func dmsToDecimal(deg, min, sec string) float64 {
	d, _ := strconv.ParseFloat(deg, 64)
	m, _ := strconv.ParseFloat(min, 64)
	s, _ := strconv.ParseFloat(sec, 64)
	return d + m/60 + s/3600
}
