package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Duration is an elapsed time split into hours, minutes and seconds.
type Duration struct {
	Hours   int
	Minutes int
	Seconds int
}

// DurationFromMillis decomposes elapsed milliseconds, truncating any remainder.
func DurationFromMillis(elapsedMs int64) Duration {
	if elapsedMs < 0 {
		elapsedMs = 0
	}
	seconds := elapsedMs / 1000
	minutes := seconds / 60
	seconds %= 60
	hours := minutes / 60
	minutes %= 60
	return Duration{Hours: int(hours), Minutes: int(minutes), Seconds: int(seconds)}
}

// IsZero reports whether all components are zero.
func (duration Duration) IsZero() bool {
	return duration.Hours == 0 && duration.Minutes == 0 && duration.Seconds == 0
}

// Normalize carries overflowing seconds into minutes and minutes into hours.
func (duration Duration) Normalize() Duration {
	if duration.Seconds >= 60 {
		duration.Minutes += duration.Seconds / 60
		duration.Seconds %= 60
	}
	if duration.Minutes >= 60 {
		duration.Hours += duration.Minutes / 60
		duration.Minutes %= 60
	}
	return duration
}

// String renders the duration as HH:MM:SS.
func (duration Duration) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", duration.Hours, duration.Minutes, duration.Seconds)
}

// Decimal renders hours and minutes as fractional hours. Seconds are ignored.
func (duration Duration) Decimal() string {
	return fmt.Sprintf("%.2f", float64(duration.Hours)+float64(duration.Minutes)/60)
}

// Format picks the decimal or HH:MM:SS rendering.
func (duration Duration) Format(decimal bool) string {
	if decimal {
		return duration.Decimal()
	}
	return duration.String()
}

// ParseDuration reads a colon-joined H:M:S string.
func ParseDuration(value string) (Duration, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 3 {
		return Duration{}, fmt.Errorf("parse duration %q: want 3 fields, got %d", value, len(parts))
	}
	numbers := make([]int, len(parts))
	for i, part := range parts {
		number, err := strconv.Atoi(part)
		if err != nil {
			return Duration{}, fmt.Errorf("parse duration %q: %w", value, err)
		}
		numbers[i] = number
	}
	return Duration{Hours: numbers[0], Minutes: numbers[1], Seconds: numbers[2]}, nil
}
