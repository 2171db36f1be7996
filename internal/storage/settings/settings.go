// Package settings is the user-facing preference store: a key=value file read
// through on every access and written through on every change.
package settings

import (
	"bytes"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"timecard/internal/core/model"
	"timecard/internal/storage"
)

const (
	KeyLogDir         = "logdir"
	KeyLogName        = "logname"
	KeyPersist        = "persist"
	KeyDateFormat     = "datefmt"
	KeyDecimal        = "decdur"
	KeyFocus          = "focus"
	KeyFocusRandomize = "focus_randomize"
)

const (
	defaultLogName = "time.log"
	valueTrue      = "True"
	valueFalse     = "False"
	migratedHeader = "# Your settings have automatically been migrated!"
)

var lineBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

// Options contains the locations the store reads and writes.
type Options struct {
	// Path is the primary settings file.
	Path string
	// LegacyPaths are read when Path does not exist, but never written
	// except for a migration notice.
	LegacyPaths []string
	// DefaultLogDir is used when no log directory is configured.
	DefaultLogDir string
}

// Store holds the settings map.
type Store struct {
	mu         sync.Mutex
	options    Options
	logger     *zap.Logger
	values     map[string]string
	loaded     bool
	fromLegacy bool
}

// New creates a Store. Nothing is read until first use.
func New(options Options, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		options: options,
		logger:  logger,
		values:  make(map[string]string),
	}
}

// Path returns the primary settings file.
func (store *Store) Path() string {
	return store.options.Path
}

// Load reads the settings file. An already loaded store is kept unless force
// is set. When no file exists the defaults are written out.
func (store *Store) Load(force bool) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	return store.loadLocked(force)
}

// Save writes the primary settings file.
func (store *Store) Save() error {
	store.mu.Lock()
	defer store.mu.Unlock()
	return store.saveLocked()
}

// LogDir returns the directory holding the time log.
func (store *Store) LogDir() string {
	if value, ok := store.get(KeyLogDir); ok && value != "" {
		return filepath.Clean(value)
	}
	return store.options.DefaultLogDir
}

// SetLogDir changes the time log directory.
func (store *Store) SetLogDir(dir string) error {
	return store.set(map[string]string{KeyLogDir: dir})
}

// LogName returns the time log file name.
func (store *Store) LogName() string {
	if value, ok := store.get(KeyLogName); ok && value != "" {
		return value
	}
	return defaultLogName
}

// SetLogName changes the time log file name.
func (store *Store) SetLogName(name string) error {
	return store.set(map[string]string{KeyLogName: name})
}

// LogPath returns the full time log path.
func (store *Store) LogPath() string {
	return filepath.Join(store.LogDir(), store.LogName())
}

// Persist reports whether closing the window hides it instead of quitting.
func (store *Store) Persist() bool {
	return store.getBool(KeyPersist, true)
}

// SetPersist changes the close behaviour.
func (store *Store) SetPersist(persist bool) error {
	return store.set(map[string]string{KeyPersist: formatBool(persist)})
}

// DateFormat returns the strftime layout for displayed timestamps.
func (store *Store) DateFormat() string {
	if value, ok := store.get(KeyDateFormat); ok {
		return value
	}
	return model.DefaultDateFormat
}

// SetDateFormat changes the timestamp display layout.
func (store *Store) SetDateFormat(layout string) error {
	return store.set(map[string]string{KeyDateFormat: layout})
}

// DecimalDuration reports whether durations display as fractional hours.
func (store *Store) DecimalDuration() bool {
	return store.getBool(KeyDecimal, false)
}

// SetDecimalDuration changes the duration display mode.
func (store *Store) SetDecimalDuration(decimal bool) error {
	return store.set(map[string]string{KeyDecimal: formatBool(decimal)})
}

// Focus returns the reminder interval in minutes and whether it is randomized.
// An unreadable interval counts as disabled.
func (store *Store) Focus() (int, bool) {
	randomize := store.getBool(KeyFocusRandomize, false)
	value, ok := store.get(KeyFocus)
	if !ok {
		return 0, randomize
	}
	interval, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || interval < 0 {
		return 0, randomize
	}
	return interval, randomize
}

// SetFocus changes the reminder settings.
func (store *Store) SetFocus(interval int, randomize bool) error {
	return store.set(map[string]string{
		KeyFocus:          strconv.Itoa(interval),
		KeyFocusRandomize: formatBool(randomize),
	})
}

func (store *Store) get(key string) (string, bool) {
	store.mu.Lock()
	defer store.mu.Unlock()
	if err := store.loadLocked(false); err != nil {
		store.logger.Warn("settings unavailable, using defaults", zap.Error(err))
	}
	value, ok := store.values[key]
	return value, ok
}

func (store *Store) getBool(key string, fallback bool) bool {
	value, ok := store.get(key)
	if !ok {
		return fallback
	}
	return value != valueFalse
}

func (store *Store) set(changes map[string]string) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	if err := store.loadLocked(false); err != nil {
		store.logger.Warn("settings unavailable, overwriting", zap.Error(err))
	}
	for key, value := range changes {
		store.values[key] = lineBreaks.Replace(value)
	}
	return store.saveLocked()
}

func (store *Store) loadLocked(force bool) error {
	if store.loaded && !force {
		return nil
	}

	candidates := append([]string{store.options.Path}, store.options.LegacyPaths...)
	for i, path := range candidates {
		values, err := store.readFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return err
		}
		store.values = values
		store.fromLegacy = i > 0
		store.loaded = true
		return nil
	}

	store.logger.Info("no settings file found, writing defaults", zap.String("path", store.options.Path))
	store.values = map[string]string{
		KeyDateFormat: model.DefaultDateFormat,
		KeyDecimal:    valueFalse,
		KeyLogDir:     store.options.DefaultLogDir,
		KeyLogName:    defaultLogName,
		KeyPersist:    valueTrue,
	}
	store.fromLegacy = false
	store.loaded = true
	return store.saveLocked()
}

func (store *Store) readFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		return nil, fmt.Errorf("read settings: %w", err)
	}

	store.logger.Debug("loading settings", zap.String("path", path))

	values := make(map[string]string)
	for i, raw := range strings.Split(string(data), "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, found := strings.Cut(line, "=")
		key = strings.TrimSpace(key)
		if !found || key == "" {
			store.logger.Warn("invalid settings entry",
				zap.String("path", path),
				zap.Int("line", i+1),
				zap.String("content", line),
			)
			continue
		}
		values[key] = strings.TrimSpace(value)
	}
	return values, nil
}

func (store *Store) saveLocked() error {
	var buf bytes.Buffer
	for _, key := range slices.Sorted(maps.Keys(store.values)) {
		buf.WriteString(key)
		buf.WriteByte('=')
		buf.WriteString(store.values[key])
		buf.WriteByte('\n')
	}

	if err := storage.WriteFileAtomic(store.options.Path, buf.Bytes(), 0o644); err != nil {
		store.logger.Error("failed to save settings", zap.String("path", store.options.Path), zap.Error(err))
		return fmt.Errorf("save settings: %w", err)
	}

	if store.fromLegacy {
		store.markLegacyMigrated()
	}
	return nil
}

// markLegacyMigrated prefixes every legacy file with a notice pointing at the
// primary path. A notice from an earlier migration is replaced.
func (store *Store) markLegacyMigrated() {
	header := []string{migratedHeader, "# See " + store.options.Path}

	for _, path := range store.options.LegacyPaths {
		data, err := os.ReadFile(path)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				store.logger.Warn("cannot read legacy settings", zap.String("path", path), zap.Error(err))
			}
			continue
		}

		lines := strings.SplitAfter(string(data), "\n")
		if len(lines) >= 2 &&
			strings.TrimRight(lines[0], "\r\n") == header[0] &&
			strings.TrimRight(lines[1], "\r\n") == header[1] {
			continue
		}
		if len(lines) >= 1 && strings.TrimRight(lines[0], "\r\n") == header[0] {
			lines = lines[min(2, len(lines)):]
		}

		content := header[0] + "\n" + header[1] + "\n" + strings.Join(lines, "")
		info, err := os.Stat(path)
		perm := os.FileMode(0o644)
		if err == nil {
			perm = info.Mode().Perm()
		}
		if err := storage.WriteFileAtomic(path, []byte(content), perm); err != nil {
			store.logger.Warn("cannot annotate legacy settings", zap.String("path", path), zap.Error(err))
		}
	}
}

func formatBool(value bool) string {
	if value {
		return valueTrue
	}
	return valueFalse
}
