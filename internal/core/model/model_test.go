package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDurationFromMillis(t *testing.T) {
	tests := []struct {
		name     string
		ms       int64
		expected Duration
	}{
		{"zero", 0, Duration{}},
		{"sub second truncates", 999, Duration{}},
		{"one hour five minutes three seconds", (3600 + 5*60 + 3) * 1000, Duration{1, 5, 3}},
		{"minute boundary", 60_000, Duration{0, 1, 0}},
		{"negative clamps", -5000, Duration{}},
		{"large", 100 * 3600 * 1000, Duration{100, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DurationFromMillis(tt.ms))
		})
	}
}

func TestDuration_Normalize(t *testing.T) {
	assert.Equal(t, Duration{1, 1, 0}, Duration{0, 60, 60}.Normalize())
	assert.Equal(t, Duration{2, 5, 3}, Duration{1, 65, 3}.Normalize())
	assert.Equal(t, Duration{0, 59, 59}, Duration{0, 59, 59}.Normalize())
}

func TestDuration_Format(t *testing.T) {
	duration := Duration{1, 30, 45}
	assert.Equal(t, "01:30:45", duration.String())
	assert.Equal(t, "1.50", duration.Decimal())
	assert.Equal(t, "1.50", duration.Format(true))
	assert.Equal(t, "01:30:45", duration.Format(false))
}

func TestParseDuration(t *testing.T) {
	duration, err := ParseDuration("01:05:03")
	require.NoError(t, err)
	assert.Equal(t, Duration{1, 5, 3}, duration)

	_, err = ParseDuration("01:05")
	assert.Error(t, err)

	_, err = ParseDuration("aa:05:03")
	assert.Error(t, err)
}

func TestTimestampRoundTrip(t *testing.T) {
	timestamp := time.Date(2024, 1, 2, 14, 30, 25, 0, time.Local)
	entry := LogEntry{Timestamp: timestamp, Duration: Duration{1, 5, 3}, Notes: "Drafted report"}

	assert.Equal(t, "2024-1-2-14-30-25", entry.TimestampString())
	assert.Equal(t, "2024-1-2-14-30-25|01:05:03|Drafted report", entry.Line())

	parsed, err := ParseTimestamp(entry.TimestampString())
	require.NoError(t, err)
	assert.True(t, parsed.Equal(timestamp))

	backup := FormatBackupTimestamp(timestamp)
	assert.Equal(t, "2024:1:2:14:30:25", backup)
	parsed, err = ParseBackupTimestamp(backup)
	require.NoError(t, err)
	assert.True(t, parsed.Equal(timestamp))
}

func TestParseTimestamp_Invalid(t *testing.T) {
	for _, value := range []string{"", "2024-1", "2024-13-1-0-0-0", "2024-2-30", "2024-1-1-0-0-0-0", "x-1-1"} {
		_, err := ParseTimestamp(value)
		assert.Error(t, err, value)
	}

	parsed, err := ParseTimestamp("2024-6-1")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.Local), parsed)
}

func TestNormalizeTimestamp(t *testing.T) {
	raw := time.Date(2024, 6, 1, 9, 0, 0, 999_000_000, time.Local)
	assert.Equal(t, time.Date(2024, 6, 1, 9, 0, 0, 0, time.Local), NormalizeTimestamp(raw))
}

func TestValidateNotes(t *testing.T) {
	assert.NoError(t, ValidateNotes("Drafted report"))
	assert.NoError(t, ValidateNotes(""))
	assert.ErrorIs(t, ValidateNotes("a|b"), ErrInvalidNotes)
	assert.ErrorIs(t, ValidateNotes("a\nb"), ErrInvalidNotes)
	assert.ErrorIs(t, ValidateNotes("a\rb"), ErrInvalidNotes)
}

func TestLogEntry_FormatTimestamp(t *testing.T) {
	entry := LogEntry{Timestamp: time.Date(2024, 1, 2, 14, 30, 25, 0, time.Local)}
	assert.Equal(t, "2024-01-02 14:30:25", entry.FormatTimestamp(""))
	assert.Equal(t, "02/01/2024", entry.FormatTimestamp("%d/%m/%Y"))
}
