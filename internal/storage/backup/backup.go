// Package backup snapshots the running session to a scratch directory so it
// can be offered for recovery after a crash, and recovers snapshots left
// behind by instances that are no longer alive.
package backup

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"timecard/internal/core/event"
	"timecard/internal/core/model"
)

const (
	backupExt  = ".backup"
	stagingExt = ".backup~"
	queryExt   = ".query"
	clockKey   = "backup"
)

// DefaultQueryDelay is how long a liveness query waits for the owner to answer.
const DefaultQueryDelay = time.Second

// ErrBusy is returned by a Restorer that cannot take a session right now. The
// backup is left in place for a later scan.
var ErrBusy = errors.New("restorer busy")

// Source supplies the session state to snapshot.
type Source interface {
	Snapshot() model.Snapshot
}

// Restorer accepts a recovered session.
type Restorer interface {
	Recover(timestamp time.Time, elapsedMs int64, notes string) error
}

// Ticker is the subscription half of the clock.
type Ticker interface {
	Connect(key string, onTick func(time.Time)) bool
	Disconnect(key string) bool
}

// Subscriber is the subscription half of the event bus.
type Subscriber interface {
	Subscribe(eventType event.Type, handler event.Handler) string
	Unsubscribe(id string) bool
}

// Config contains runtime options for Backup.
type Config struct {
	// Dir is the scratch directory shared by all instances.
	Dir string
	// ID names this instance's files. Defaults to a fresh UUIDv7.
	ID string
	// QueryDelay defaults to DefaultQueryDelay.
	QueryDelay time.Duration
}

// Backup owns this instance's snapshot files.
type Backup struct {
	mu            sync.Mutex
	dir           string
	id            string
	queryDelay    time.Duration
	source        Source
	logger        *zap.Logger
	active        bool
	clock         Ticker
	bus           Subscriber
	subscriptions []string
}

// New creates a Backup. No files are touched until StartMonitoring.
func New(source Source, logger *zap.Logger, options Config) (*Backup, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if options.Dir == "" {
		return nil, errors.New("backup directory is required")
	}
	if options.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return nil, fmt.Errorf("generate instance id: %w", err)
		}
		options.ID = id.String()
	}
	if options.QueryDelay <= 0 {
		options.QueryDelay = DefaultQueryDelay
	}
	return &Backup{
		dir:        options.Dir,
		id:         options.ID,
		queryDelay: options.QueryDelay,
		source:     source,
		logger:     logger.With(zap.String("instance", options.ID)),
	}, nil
}

// ID returns the instance identifier.
func (b *Backup) ID() string { return b.id }

func (b *Backup) storagePath() string { return filepath.Join(b.dir, b.id+backupExt) }
func (b *Backup) stagingPath() string { return filepath.Join(b.dir, b.id+stagingExt) }
func (b *Backup) queryPath() string   { return filepath.Join(b.dir, b.id+queryExt) }

// StartMonitoring answers liveness queries on every clock tick, snapshots the
// session on every elapsed minute and drops the snapshot when the session is
// erased. Calling it again does nothing.
func (b *Backup) StartMonitoring(clock Ticker, bus Subscriber) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.active {
		return nil
	}
	if err := os.MkdirAll(b.dir, 0o755); err != nil {
		return fmt.Errorf("create backup directory: %w", err)
	}

	clock.Connect(clockKey, func(time.Time) { b.answerQuery() })
	b.subscriptions = append(b.subscriptions,
		bus.Subscribe(event.TypeMinute, func(e event.Event) {
			if minute, ok := e.(event.MinuteEvent); ok {
				if err := b.Remember(minute.Elapsed); err != nil {
					b.logger.Warn("failed to write backup", zap.Error(err))
				}
			}
		}),
		bus.Subscribe(event.TypeSessionReset, func(e event.Event) {
			if reset, ok := e.(event.SessionResetEvent); ok && reset.Erased {
				b.Forget()
			}
		}),
	)
	b.clock = clock
	b.bus = bus
	b.active = true
	b.logger.Debug("backup monitoring started", zap.String("dir", b.dir))
	return nil
}

// StopMonitoring detaches from the clock and the bus. The snapshot on disk is kept.
func (b *Backup) StopMonitoring() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.active {
		return
	}
	b.clock.Disconnect(clockKey)
	for _, id := range b.subscriptions {
		b.bus.Unsubscribe(id)
	}
	b.subscriptions = nil
	b.active = false
}

// Remember writes the current session snapshot. Sessions shorter than a
// minute are not worth keeping and are skipped.
func (b *Backup) Remember(elapsed model.Duration) error {
	if elapsed.Hours == 0 && elapsed.Minutes == 0 {
		return nil
	}
	snapshot := b.source.Snapshot()

	var buf bytes.Buffer
	buf.WriteString(model.FormatBackupTimestamp(snapshot.Timestamp))
	buf.WriteByte('\n')
	buf.WriteString(strconv.FormatInt(snapshot.ElapsedMs, 10))
	buf.WriteByte('\n')
	buf.WriteString(strings.NewReplacer("\r", " ", "\n", " ").Replace(snapshot.Notes))
	buf.WriteByte('\n')

	if err := os.WriteFile(b.stagingPath(), buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write backup staging: %w", err)
	}
	if err := os.Rename(b.stagingPath(), b.storagePath()); err != nil {
		return fmt.Errorf("move backup into place: %w", err)
	}
	return nil
}

// Forget removes this instance's snapshot.
func (b *Backup) Forget() {
	for _, path := range []string{b.storagePath(), b.stagingPath()} {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			b.logger.Warn("failed to remove backup", zap.String("path", path), zap.Error(err))
		}
	}
}

// CheckForRecall looks for a snapshot left by an instance that is no longer
// running and hands the first one found to restorer. Every candidate's owner
// is checked by creating its query file and waiting QueryDelay; a live owner
// deletes the file on its next tick. Corrupted snapshots are deleted and the
// scan continues. A restorer answering ErrBusy ends the scan and keeps the file.
func (b *Backup) CheckForRecall(ctx context.Context, restorer Restorer) (bool, error) {
	candidates, err := filepath.Glob(filepath.Join(b.dir, "*"+backupExt))
	if err != nil {
		return false, fmt.Errorf("list backups: %w", err)
	}

	for _, candidate := range candidates {
		owner := strings.TrimSuffix(filepath.Base(candidate), backupExt)
		if owner == b.id {
			continue
		}
		query := filepath.Join(b.dir, owner+queryExt)

		if err := os.WriteFile(query, nil, 0o644); err != nil {
			b.logger.Warn("failed to query backup owner", zap.String("owner", owner), zap.Error(err))
			continue
		}

		timer := time.NewTimer(b.queryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			os.Remove(query)
			return false, ctx.Err()
		case <-timer.C:
		}

		if _, err := os.Stat(query); errors.Is(err, os.ErrNotExist) {
			b.logger.Debug("backup owner is alive", zap.String("owner", owner))
			continue
		}

		snapshot, err := readSnapshot(candidate)
		if err != nil {
			b.logger.Warn("corrupted backup file", zap.String("path", candidate), zap.Error(err))
			removeQuietly(candidate, query)
			continue
		}

		err = restorer.Recover(snapshot.Timestamp, snapshot.ElapsedMs, snapshot.Notes)
		if errors.Is(err, ErrBusy) {
			removeQuietly(query)
			b.logger.Info("backup recovery deferred", zap.String("owner", owner), zap.Error(err))
			return false, nil
		}
		removeQuietly(candidate, query)
		if err != nil {
			b.logger.Warn("backup not recovered", zap.String("owner", owner), zap.Error(err))
			continue
		}
		b.logger.Info("recovered session from backup",
			zap.String("owner", owner),
			zap.Time("timestamp", snapshot.Timestamp),
			zap.Int64("elapsed_ms", snapshot.ElapsedMs),
		)
		return true, nil
	}
	return false, nil
}

func (b *Backup) answerQuery() {
	if err := os.Remove(b.queryPath()); err != nil && !errors.Is(err, os.ErrNotExist) {
		b.logger.Debug("failed to answer query", zap.Error(err))
	}
}

func readSnapshot(path string) (model.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Snapshot{}, err
	}

	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		lines = append(lines, strings.TrimSpace(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return model.Snapshot{}, err
	}
	if len(lines) < 3 {
		return model.Snapshot{}, fmt.Errorf("want 3 lines, got %d", len(lines))
	}

	timestamp, err := model.ParseBackupTimestamp(lines[0])
	if err != nil {
		return model.Snapshot{}, err
	}
	elapsedMs, err := strconv.ParseInt(lines[1], 10, 64)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("parse elapsed: %w", err)
	}
	return model.Snapshot{Timestamp: timestamp, ElapsedMs: elapsedMs, Notes: lines[2]}, nil
}

func removeQuietly(paths ...string) {
	for _, path := range paths {
		_ = os.Remove(path)
	}
}
