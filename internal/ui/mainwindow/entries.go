package mainwindow

import (
	"fmt"
	"strings"

	"timecard/internal/core/model"
)

func formatEntry(entry model.LogEntry, layout string, decimal bool) string {
	row := entry.FormatTimestamp(layout) + "   " + entry.Duration.Format(decimal)
	if entry.Notes != "" {
		row += "   " + entry.Notes
	}
	return row
}

// newestFirst returns a reversed copy of entries sorted oldest first.
func newestFirst(entries []model.LogEntry) []model.LogEntry {
	reversed := make([]model.LogEntry, len(entries))
	for i, entry := range entries {
		reversed[len(entries)-1-i] = entry
	}
	return reversed
}

// parseEdit reads the edit form fields. The duration is normalized so that
// 00:90:00 is stored as 01:30:00.
func parseEdit(timestamp, duration, notes string) (model.LogEntry, error) {
	ts, err := model.ParseTimestamp(timestamp)
	if err != nil {
		return model.LogEntry{}, fmt.Errorf("timestamp: %w", err)
	}
	d, err := model.ParseDuration(duration)
	if err != nil {
		return model.LogEntry{}, fmt.Errorf("duration: %w", err)
	}
	if d.Hours < 0 || d.Minutes < 0 || d.Seconds < 0 {
		return model.LogEntry{}, fmt.Errorf("duration %q must not be negative", duration)
	}
	notes = strings.TrimSpace(notes)
	if err := model.ValidateNotes(notes); err != nil {
		return model.LogEntry{}, err
	}
	return model.LogEntry{Timestamp: ts, Duration: d.Normalize(), Notes: notes}, nil
}
