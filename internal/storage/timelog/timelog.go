// Package timelog stores committed sessions in a pipe-delimited text file,
// one entry per line, keyed by timestamp.
package timelog

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"timecard/internal/core/model"
	"timecard/internal/storage"
)

// maxLoggedLine caps how much of a malformed line ends up in a warning.
const maxLoggedLine = 200

// ErrPersist indicates the log changed in memory but could not be written.
var ErrPersist = errors.New("time log not persisted")

// PathProvider resolves where the log lives. It is consulted on every load
// and save so a changed setting applies on the next forced load.
type PathProvider interface {
	LogDir() string
	LogPath() string
}

// TimeLog is the write-through store of committed entries.
type TimeLog struct {
	mu      sync.Mutex
	paths   PathProvider
	logger  *zap.Logger
	entries map[int64]model.LogEntry
	loaded  bool
}

// New creates a TimeLog. Nothing is read until first use.
func New(paths PathProvider, logger *zap.Logger) *TimeLog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimeLog{
		paths:   paths,
		logger:  logger,
		entries: make(map[int64]model.LogEntry),
	}
}

// Load reads the log file. An already loaded log is kept unless force is set.
// A missing file yields an empty log.
func (log *TimeLog) Load(force bool) error {
	log.mu.Lock()
	defer log.mu.Unlock()
	return log.loadLocked(force)
}

// Save rewrites the whole log file.
func (log *TimeLog) Save() error {
	log.mu.Lock()
	defer log.mu.Unlock()
	return log.saveLocked()
}

// AddEntry stores a new entry and returns the timestamp it was stored under,
// which is later than requested when that second is already taken.
func (log *TimeLog) AddEntry(timestamp time.Time, duration model.Duration, notes string) (time.Time, error) {
	if err := model.ValidateNotes(notes); err != nil {
		return time.Time{}, err
	}

	log.mu.Lock()
	defer log.mu.Unlock()

	if err := log.loadLocked(false); err != nil {
		return time.Time{}, err
	}

	stored := log.insertLocked(model.LogEntry{Timestamp: timestamp, Duration: duration, Notes: notes})
	if err := log.saveLocked(); err != nil {
		return stored, fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return stored, nil
}

// EditEntry replaces the entry stored at old. The replacement goes through the
// same collision resolution as AddEntry. ok is false when old is not in the log.
func (log *TimeLog) EditEntry(old, timestamp time.Time, duration model.Duration, notes string) (stored time.Time, ok bool, err error) {
	if err := model.ValidateNotes(notes); err != nil {
		return time.Time{}, false, err
	}

	log.mu.Lock()
	defer log.mu.Unlock()

	if err := log.loadLocked(false); err != nil {
		return time.Time{}, false, err
	}

	key := keyOf(old)
	if _, found := log.entries[key]; !found {
		log.logger.Warn("cannot edit entry at unknown timestamp", zap.Time("timestamp", old))
		return time.Time{}, false, nil
	}
	delete(log.entries, key)

	stored = log.insertLocked(model.LogEntry{Timestamp: timestamp, Duration: duration, Notes: notes})
	if err := log.saveLocked(); err != nil {
		return stored, true, fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return stored, true, nil
}

// RemoveEntry deletes the entry stored at timestamp. ok is false when there is none.
func (log *TimeLog) RemoveEntry(timestamp time.Time) (bool, error) {
	log.mu.Lock()
	defer log.mu.Unlock()

	if err := log.loadLocked(false); err != nil {
		return false, err
	}

	key := keyOf(timestamp)
	if _, found := log.entries[key]; !found {
		log.logger.Warn("cannot delete entry at unknown timestamp", zap.Time("timestamp", timestamp))
		return false, nil
	}
	delete(log.entries, key)

	if err := log.saveLocked(); err != nil {
		return true, fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return true, nil
}

// RetrieveAll returns every entry, oldest first.
func (log *TimeLog) RetrieveAll() ([]model.LogEntry, error) {
	log.mu.Lock()
	defer log.mu.Unlock()

	if err := log.loadLocked(false); err != nil {
		return nil, err
	}
	return log.sortedLocked(), nil
}

// RetrieveOne returns the entry stored at timestamp.
func (log *TimeLog) RetrieveOne(timestamp time.Time) (model.LogEntry, bool) {
	log.mu.Lock()
	defer log.mu.Unlock()

	if err := log.loadLocked(false); err != nil {
		log.logger.Warn("time log unavailable", zap.Error(err))
		return model.LogEntry{}, false
	}

	entry, found := log.entries[keyOf(timestamp)]
	if !found {
		log.logger.Warn("cannot access entry at unknown timestamp", zap.Time("timestamp", timestamp))
		return model.LogEntry{}, false
	}
	return entry, true
}

func (log *TimeLog) loadLocked(force bool) error {
	if log.loaded && !force {
		return nil
	}

	path := log.paths.LogPath()
	log.logger.Debug("loading time log", zap.String("path", path))

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.entries = make(map[int64]model.LogEntry)
			log.loaded = true
			return nil
		}
		return fmt.Errorf("read time log: %w", err)
	}

	entries := make(map[int64]model.LogEntry)
	for i, line := range strings.Split(string(data), "\n") {
		lineNo := i + 1
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		fields := strings.Split(line, "|")
		if len(fields) != 3 {
			log.logger.Warn("invalid time log entry",
				zap.String("path", path),
				zap.Int("line", lineNo),
				zap.String("content", truncate(line, maxLoggedLine)),
			)
			continue
		}

		entry := model.LogEntry{Notes: fields[2]}
		if timestamp, err := model.ParseTimestamp(fields[0]); err != nil {
			log.logger.Debug("time log timestamp left at default", zap.Int("line", lineNo), zap.Error(err))
		} else {
			entry.Timestamp = timestamp
		}
		if duration, err := model.ParseDuration(fields[1]); err != nil {
			log.logger.Debug("time log duration left at default", zap.Int("line", lineNo), zap.Error(err))
		} else {
			entry.Duration = duration
		}
		insert(entries, entry)
	}

	log.entries = entries
	log.loaded = true
	return nil
}

func (log *TimeLog) saveLocked() error {
	if err := os.MkdirAll(log.paths.LogDir(), 0o755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}

	var buf bytes.Buffer
	for _, entry := range log.sortedLocked() {
		buf.WriteString(entry.Line())
		buf.WriteByte('\n')
	}

	path := log.paths.LogPath()
	if err := storage.WriteFileAtomic(path, buf.Bytes(), 0o644); err != nil {
		log.logger.Error("failed to save time log", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("save time log: %w", err)
	}
	return nil
}

func (log *TimeLog) insertLocked(entry model.LogEntry) time.Time {
	return insert(log.entries, entry)
}

// insert stores entry at the first free second at or after its timestamp.
func insert(entries map[int64]model.LogEntry, entry model.LogEntry) time.Time {
	timestamp := model.NormalizeTimestamp(entry.Timestamp)
	for {
		if _, taken := entries[keyOf(timestamp)]; !taken {
			break
		}
		timestamp = timestamp.Add(time.Second)
	}
	entry.Timestamp = timestamp
	entries[keyOf(timestamp)] = entry
	return timestamp
}

func truncate(value string, limit int) string {
	if len(value) <= limit {
		return value
	}
	return value[:limit] + "..."
}

func (log *TimeLog) sortedLocked() []model.LogEntry {
	entries := make([]model.LogEntry, 0, len(log.entries))
	for _, entry := range log.entries {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Timestamp.Before(entries[j].Timestamp)
	})
	return entries
}

func keyOf(timestamp time.Time) int64 {
	return model.NormalizeTimestamp(timestamp).Unix()
}
