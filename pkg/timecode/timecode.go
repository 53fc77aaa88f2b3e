package timecode

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformed is returned by Parse for input that is not a mm:ss timecode.
var ErrMalformed = errors.New("malformed timecode")

// Format renders a non-negative second offset as mm:ss, or hh:mm:ss once the
// total reaches one hour. Fractional seconds are truncated. Callers comparing
// timecodes must compare the numeric seconds, not the strings: the string
// ordering breaks across the hour boundary.
func Format(seconds float64) string {
	total := int(seconds)
	if total < 0 {
		total = 0
	}
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// ForFilename renders the same value with dashes instead of colons, safe for
// use inside a download filename.
func ForFilename(seconds float64) string {
	return strings.ReplaceAll(Format(seconds), ":", "-")
}

// Parse converts a mm:ss timecode back to whole seconds.
func Parse(tc string) (int, error) {
	parts := strings.Split(tc, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrMalformed, tc)
	}
	m, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("%w: minutes in %q", ErrMalformed, tc)
	}
	s, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("%w: seconds in %q", ErrMalformed, tc)
	}
	if m < 0 || s < 0 {
		return 0, fmt.Errorf("%w: negative field in %q", ErrMalformed, tc)
	}
	return m*60 + s, nil
}
