package captions

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"transcribr/internal/services"
)

const (
	msPerHour   = 3_600_000
	msPerMinute = 60_000
	msPerSecond = 1_000
)

// FormatTimestamp renders seconds as [HH:]MM:SS<decimalMarker>mmm.
//
// Milliseconds are rounded half-up, so 3661.2345 becomes 01:01:01,235. The hours
// field is dropped only when alwaysIncludeHours is false and the hour component
// is zero. Negative or non-finite input returns ErrInvalidInput.
func FormatTimestamp(seconds float64, alwaysIncludeHours bool, decimalMarker string) (string, error) {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return "", services.Wrap(services.ErrInvalidInput, "captions", "format timestamp", fmt.Sprintf("non-finite value %v", seconds), nil)
	}
	if seconds < 0 {
		return "", services.Wrap(services.ErrInvalidInput, "captions", "format timestamp", fmt.Sprintf("negative value %v", seconds), nil)
	}

	ms := int64(math.Round(seconds * 1000))
	hours := ms / msPerHour
	ms -= hours * msPerHour
	minutes := ms / msPerMinute
	ms -= minutes * msPerMinute
	secs := ms / msPerSecond
	ms -= secs * msPerSecond

	hoursMarker := ""
	if alwaysIncludeHours || hours > 0 {
		hoursMarker = fmt.Sprintf("%02d:", hours)
	}
	return fmt.Sprintf("%s%02d:%02d%s%03d", hoursMarker, minutes, secs, decimalMarker, ms), nil
}

// ParseTimestamp converts an HH:MM:SS,mmm value back to seconds. A period is
// accepted in place of the comma.
func ParseTimestamp(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty timestamp")
	}
	value = strings.ReplaceAll(value, ".", ",")
	timeParts := strings.Split(value, ",")
	if len(timeParts) != 2 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hms := strings.Split(timeParts[0], ":")
	if len(hms) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hours, errH := strconv.Atoi(hms[0])
	minutes, errM := strconv.Atoi(hms[1])
	secs, errS := strconv.Atoi(hms[2])
	millis, errMS := strconv.Atoi(timeParts[1])
	if errH != nil || errM != nil || errS != nil || errMS != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	return float64(hours*3600+minutes*60+secs) + float64(millis)/1000, nil
}
