package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatDMS_Latitude(t *testing.T) {
	assert.Equal(t, `37°46'29.64"N`, FormatDMS(37.7749, true))
	assert.Equal(t, `37°46'29.64"S`, FormatDMS(-37.7749, true))
}

func TestFormatDMS_Longitude(t *testing.T) {
	assert.Equal(t, `122°25'9.84"W`, FormatDMS(-122.4194, false))
	assert.Equal(t, `122°25'9.84"E`, FormatDMS(122.4194, false))
}

func TestFormatDMS_Zero(t *testing.T) {
	assert.Equal(t, `0°0'0.00"N`, FormatDMS(0, true))
	assert.Equal(t, `0°0'0.00"E`, FormatDMS(0, false))
}

func TestFormatCoordinates_Decimal(t *testing.T) {
	got := FormatCoordinates(37.7749, -122.4194, "decimal")
	assert.Equal(t, "37.774900°N, 122.419400°W", got)
}

func TestFormatCoordinates_DMS(t *testing.T) {
	got := FormatCoordinates(37.7749, -122.4194, "dms")
	assert.Equal(t, `37°46'29.64"N, 122°25'9.84"W`, got)
}

func TestFormatCoordinates_SouthEast(t *testing.T) {
	got := FormatCoordinates(-33.8688, 151.2093, "decimal")
	assert.Equal(t, "33.868800°S, 151.209300°E", got)
}

func TestFormatTimestamp_Styles(t *testing.T) {
	ts := time.Date(2024, 3, 15, 14, 30, 45, 0, time.UTC)
	assert.Equal(t, "2024-03-15 14:30", FormatTimestamp(ts, "short"))
	assert.Equal(t, "2024-03-15 14:30:45", FormatTimestamp(ts, "long"))
	assert.Equal(t, "2024-03-15T14:30:45Z", FormatTimestamp(ts, "iso"))
}

func TestTimestampToken_NoUnsafeChars(t *testing.T) {
	ts := time.Date(2024, 3, 15, 14, 30, 45, 123*int(time.Millisecond), time.UTC)
	token := TimestampToken(ts)

	assert.Equal(t, "2024-03-15T14-30-45-123Z", token)
	assert.NotContains(t, token, ":")
	assert.NotContains(t, token, ".")
}

func TestTimestampToken_NormalizesToUTC(t *testing.T) {
	loc := time.FixedZone("PST", -8*3600)
	local := time.Date(2024, 3, 15, 6, 30, 45, 0, loc)
	utc := time.Date(2024, 3, 15, 14, 30, 45, 0, time.UTC)

	assert.Equal(t, TimestampToken(utc), TimestampToken(local))
}

func TestGenerateFilename(t *testing.T) {
	ts := time.Date(2024, 3, 15, 14, 30, 45, 0, time.UTC)

	got := GenerateFilename("photo", ts, "jpg")
	assert.Equal(t, "photo_2024-03-15_14-30-45-000Z.jpg", got)
}

func TestGenerateFilename_Defaults(t *testing.T) {
	ts := time.Date(2024, 3, 15, 14, 30, 45, 0, time.UTC)

	got := GenerateFilename("", ts, "")
	assert.True(t, strings.HasPrefix(got, "photo_"))
	assert.True(t, strings.HasSuffix(got, ".jpg"))
}

func TestParseCoordinates_DecimalPair(t *testing.T) {
	lat, lng, ok := ParseCoordinates("37.7749, -122.4194")
	require.True(t, ok)
	assert.InDelta(t, 37.7749, lat, 1e-9)
	assert.InDelta(t, -122.4194, lng, 1e-9)
}

func TestParseCoordinates_SpaceSeparated(t *testing.T) {
	lat, lng, ok := ParseCoordinates("37.7749 -122.4194")
	require.True(t, ok)
	assert.InDelta(t, 37.7749, lat, 1e-9)
	assert.InDelta(t, -122.4194, lng, 1e-9)
}

func TestParseCoordinates_DMSPair(t *testing.T) {
	lat, lng, ok := ParseCoordinates(`37°46'29.64"N, 122°25'9.84"W`)
	require.True(t, ok)
	assert.InDelta(t, 37.7749, lat, 1e-4)
	assert.InDelta(t, -122.4194, lng, 1e-4)
}

func TestParseCoordinates_RoundTripsDMS(t *testing.T) {
	lat, lng, ok := ParseCoordinates(FormatCoordinates(37.7749, -122.4194, "dms"))
	require.True(t, ok)
	assert.InDelta(t, 37.7749, lat, 1e-4)
	assert.InDelta(t, -122.4194, lng, 1e-4)
}

func TestParseCoordinates_Invalid(t *testing.T) {
	for _, input := range []string{"", "not coordinates", "37.7749", "37.7749;-122.4194"} {
		_, _, ok := ParseCoordinates(input)
		assert.False(t, ok, "input %q", input)
	}
}

func TestFormatFileSize(t *testing.T) {
	assert.Equal(t, "0 B", FormatFileSize(0))
	assert.Equal(t, "512.00 B", FormatFileSize(512))
	assert.Equal(t, "1.00 KB", FormatFileSize(1024))
	assert.Equal(t, "1.50 MB", FormatFileSize(1572864))
}

func TestFormatDistance(t *testing.T) {
	assert.Equal(t, "500m", FormatDistance(500))
	assert.Equal(t, "1.5km", FormatDistance(1500))
}

func TestFormatAccuracy(t *testing.T) {
	assert.Equal(t, "±50cm", FormatAccuracy(0.5))
	assert.Equal(t, "±5m", FormatAccuracy(5))
}
