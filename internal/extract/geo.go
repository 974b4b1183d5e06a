package extract

import (
	"strconv"
	"strings"
)

// ParseLocation parses a free-text "latitude,longitude" string into a
// validated coordinate pair. Any malformed input (wrong component count,
// non-numeric values, coordinates out of range, empty string) yields
// (nil, nil); the caller writes that as an explicit NULL, not a skip.
func ParseLocation(s string) (*float64, *float64) {
	// exports occasionally carry the unicode minus sign
	s = strings.ReplaceAll(strings.TrimSpace(s), "−", "-")
	if s == "" {
		return nil, nil
	}

	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return nil, nil
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return nil, nil
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return nil, nil
	}

	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil, nil
	}
	return &lat, &lon
}
