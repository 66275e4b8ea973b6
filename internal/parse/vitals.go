package parse

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidVitals marks input that cannot become a reading.
var ErrInvalidVitals = errors.New("invalid vitals input")

var (
	// accepts "98", "98%", " 98 % "
	percentRe = regexp.MustCompile(`^\s*(-?\d+)\s*%?\s*$`)
	spaceRe   = regexp.MustCompile(`\s+`)
)

// Vitals is the parsed form of the three bedside input fields.
type Vitals struct {
	HeartRate     int
	SpO2          int
	BloodPressure string
}

// ParseVitals turns raw field values into a Vitals. Heart rate and SpO2 must
// be integers; ranges are not checked. Blood pressure is free text and only
// has its whitespace collapsed.
func ParseVitals(heartRate, spO2, bloodPressure string) (Vitals, error) {
	hr, err := strconv.Atoi(strings.TrimSpace(heartRate))
	if err != nil {
		return Vitals{}, fmt.Errorf("%w: heart rate %q is not an integer", ErrInvalidVitals, heartRate)
	}

	m := percentRe.FindStringSubmatch(spO2)
	if m == nil {
		return Vitals{}, fmt.Errorf("%w: SpO2 %q is not an integer", ErrInvalidVitals, spO2)
	}
	sat, err := strconv.Atoi(m[1])
	if err != nil {
		return Vitals{}, fmt.Errorf("%w: SpO2 %q: %v", ErrInvalidVitals, spO2, err)
	}

	bp := strings.TrimSpace(spaceRe.ReplaceAllString(bloodPressure, " "))
	return Vitals{HeartRate: hr, SpO2: sat, BloodPressure: bp}, nil
}

// timestampLayouts are tried in order after RFC 3339.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// ParseTimestamp reads a monitor timestamp. It accepts RFC 3339, local
// "2006-01-02 15:04:05" in loc, or epoch milliseconds.
func ParseTimestamp(raw string, loc *time.Location) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	if loc == nil {
		loc = time.UTC
	}

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms), nil
	}
	return time.Time{}, fmt.Errorf("failed to parse timestamp %q", raw)
}
