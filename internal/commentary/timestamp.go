package commentary

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"crosstalk/internal/services"
)

// ParseTimestamp converts "MM:SS" (seconds may be fractional) into seconds
// from timeline zero. Seconds above 59 are accepted as-is.
func ParseTimestamp(value string) (float64, error) {
	trimmed := strings.TrimSpace(value)
	parts := strings.Split(trimmed, ":")
	if len(parts) != 2 {
		return 0, timestampError(value, "expected exactly one colon")
	}

	minutes, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, timestampError(value, "minutes must be an integer")
	}
	seconds, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return 0, timestampError(value, "seconds must be a number")
	}
	if minutes < 0 || seconds < 0 {
		return 0, timestampError(value, "negative offset")
	}
	return float64(minutes)*60 + seconds, nil
}

// FormatSeconds renders an offset in the "MM:SS.s" form used by plan output.
func FormatSeconds(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	minutes := int(seconds / 60)
	rest := seconds - float64(minutes*60)
	return fmt.Sprintf("%02d:%04.1f", minutes, rest)
}

func timestampError(value, reason string) error {
	return services.Wrap(services.ErrFormat, "commentary", "parse timestamp", fmt.Sprintf("%q: %s", value, reason), nil)
}
