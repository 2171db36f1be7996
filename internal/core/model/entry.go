package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ncruces/go-strftime"
)

// ErrInvalidNotes indicates notes that cannot be stored on a single log line.
var ErrInvalidNotes = errors.New("notes must not contain '|' or line breaks")

// DefaultDateFormat is the strftime layout used when none is configured.
const DefaultDateFormat = "%Y-%m-%d %H:%M:%S"

// LogEntry is a single committed time log record.
type LogEntry struct {
	Timestamp time.Time
	Duration  Duration
	Notes     string
}

// Snapshot is the in-progress session state persisted for crash recovery.
type Snapshot struct {
	Timestamp time.Time
	ElapsedMs int64
	Notes     string
}

// NormalizeTimestamp drops sub-second precision and zone data, keeping the wall clock.
func NormalizeTimestamp(timestamp time.Time) time.Time {
	return time.Date(
		timestamp.Year(),
		timestamp.Month(),
		timestamp.Day(),
		timestamp.Hour(),
		timestamp.Minute(),
		timestamp.Second(),
		0,
		time.Local,
	)
}

// ValidateNotes rejects text containing the record delimiter or line breaks.
func ValidateNotes(notes string) error {
	if strings.ContainsAny(notes, "|\r\n") {
		return ErrInvalidNotes
	}
	return nil
}

// TimestampString renders the timestamp in the log file form, e.g. 2024-1-2-14-30-25.
func (entry LogEntry) TimestampString() string {
	return joinTimestamp(entry.Timestamp, "-")
}

// FormatTimestamp renders the timestamp with a strftime layout.
func (entry LogEntry) FormatTimestamp(layout string) string {
	if layout == "" {
		layout = DefaultDateFormat
	}
	return strftime.Format(layout, entry.Timestamp)
}

// Line renders the entry as one log file line without the trailing newline.
func (entry LogEntry) Line() string {
	return entry.TimestampString() + "|" + entry.Duration.String() + "|" + entry.Notes
}

// ParseTimestamp reads a dash-joined year-month-day[-hour[-minute[-second]]] string.
func ParseTimestamp(value string) (time.Time, error) {
	return parseTimestampFields(value, "-")
}

// FormatBackupTimestamp renders the colon-joined form used by crash backups.
func FormatBackupTimestamp(timestamp time.Time) string {
	return joinTimestamp(timestamp, ":")
}

// ParseBackupTimestamp reads the colon-joined form used by crash backups.
func ParseBackupTimestamp(value string) (time.Time, error) {
	return parseTimestampFields(value, ":")
}

func joinTimestamp(timestamp time.Time, sep string) string {
	return fmt.Sprintf("%d%s%d%s%d%s%d%s%d%s%d",
		timestamp.Year(), sep,
		int(timestamp.Month()), sep,
		timestamp.Day(), sep,
		timestamp.Hour(), sep,
		timestamp.Minute(), sep,
		timestamp.Second(),
	)
}

func parseTimestampFields(value, sep string) (time.Time, error) {
	parts := strings.Split(strings.TrimSpace(value), sep)
	if len(parts) < 3 || len(parts) > 6 {
		return time.Time{}, fmt.Errorf("parse timestamp %q: want 3 to 6 fields, got %d", value, len(parts))
	}

	fields := [6]int{}
	for i, part := range parts {
		number, err := strconv.Atoi(part)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse timestamp %q: %w", value, err)
		}
		fields[i] = number
	}

	timestamp := time.Date(fields[0], time.Month(fields[1]), fields[2], fields[3], fields[4], fields[5], 0, time.Local)
	// time.Date normalizes out-of-range fields; a valid timestamp survives unchanged.
	if timestamp.Year() != fields[0] ||
		int(timestamp.Month()) != fields[1] ||
		timestamp.Day() != fields[2] ||
		timestamp.Hour() != fields[3] ||
		timestamp.Minute() != fields[4] ||
		timestamp.Second() != fields[5] {
		return time.Time{}, fmt.Errorf("parse timestamp %q: field out of range", value)
	}
	return timestamp, nil
}
