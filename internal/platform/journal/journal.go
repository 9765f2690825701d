// Package journal is an append-only, capacity-bounded record log mirrored to a
// single JSON array file so several processes on one host can share it.
//
// Writers serialise on an in-process mutex and an exclusive flock on a
// sidecar lock file, merge whatever another process wrote since the last
// read, append, and atomically replace the file. Readers reload only when the
// file's modification time or size changed.
package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sys/unix"

	"trustrag/pkg/platform/ringbuffer"
)

// DefaultCapacity bounds how many records are kept in memory and on disk.
const DefaultCapacity = 1000

// fileStamp identifies one version of the file. The inode changes on every
// atomic replace, which covers writes landing within one mtime tick.
type fileStamp struct {
	modTime time.Time
	size    int64
	inode   uint64
}

func stampOf(info os.FileInfo) fileStamp {
	st := fileStamp{modTime: info.ModTime(), size: info.Size()}
	if sys, ok := info.Sys().(*syscall.Stat_t); ok {
		st.inode = sys.Ino
	}
	return st
}

// Journal holds the newest records of type T.
type Journal[T any] struct {
	mu       sync.Mutex
	path     string
	lockPath string
	buf      *ringbuffer.RingBuffer[T]
	stamp    fileStamp

	logger          *slog.Logger
	tracer          trace.Tracer
	persistFailures atomic.Int64
}

type settings struct {
	logger   *slog.Logger
	tracer   trace.Tracer
	capacity int
}

// Option configures a Journal.
type Option func(*settings)

func WithLogger(l *slog.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *settings) {
		if t != nil {
			s.tracer = t
		}
	}
}

func WithCapacity(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.capacity = n
		}
	}
}

// Open creates the parent directory if needed and loads any existing file.
// A missing or unreadable file starts the journal empty.
func Open[T any](path string, opts ...Option) (*Journal[T], error) {
	if path == "" {
		return nil, errors.New("journal path is required")
	}
	cfg := settings{
		logger:   slog.Default(),
		tracer:   otel.Tracer("trustrag/journal"),
		capacity: DefaultCapacity,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}

	j := &Journal[T]{
		path:     path,
		lockPath: path + ".lock",
		buf:      ringbuffer.New[T](cfg.capacity),
		logger:   cfg.logger,
		tracer:   cfg.tracer,
	}
	j.mu.Lock()
	j.reloadLocked(true)
	j.mu.Unlock()
	return j, nil
}

// Path returns the backing file.
func (j *Journal[T]) Path() string { return j.path }

// Append records item and persists the whole journal. Persistence failures
// are logged and counted; the in-memory record is kept either way.
func (j *Journal[T]) Append(ctx context.Context, item T) {
	_, span := j.tracer.Start(ctx, "journal.append",
		trace.WithAttributes(attribute.String("journal.path", j.path)))
	defer span.End()

	j.mu.Lock()
	defer j.mu.Unlock()

	unlock, err := j.lockFile()
	if err != nil {
		j.logger.WarnContext(ctx, "journal lock unavailable, writing without cross-process lock",
			"path", j.path, "error", err)
	} else {
		defer unlock()
	}

	j.reloadLocked(false)
	j.buf.Enqueue(item)

	if err := j.writeLocked(); err != nil {
		j.persistFailures.Add(1)
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist failed")
		j.logger.ErrorContext(ctx, "could not persist journal", "path", j.path, "error", err)
	}
}

// Snapshot returns all records oldest first, reloading from disk if another
// writer changed the file.
func (j *Journal[T]) Snapshot(ctx context.Context) []T {
	_, span := j.tracer.Start(ctx, "journal.snapshot",
		trace.WithAttributes(attribute.String("journal.path", j.path)))
	defer span.End()

	j.mu.Lock()
	defer j.mu.Unlock()
	j.reloadLocked(false)
	return j.buf.Snapshot()
}

// Len returns the number of records held.
func (j *Journal[T]) Len() int { return j.buf.Len() }

// PersistFailures counts failed file writes since Open.
func (j *Journal[T]) PersistFailures() int64 { return j.persistFailures.Load() }

func (j *Journal[T]) reloadLocked(force bool) {
	info, err := os.Stat(j.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			j.logger.Warn("could not stat journal", "path", j.path, "error", err)
		}
		return
	}
	current := stampOf(info)
	if !force && current == j.stamp {
		return
	}

	raw, err := os.ReadFile(j.path)
	if err != nil {
		j.logger.Warn("could not load journal", "path", j.path, "error", err)
		return
	}
	var items []T
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &items); err != nil {
			j.logger.Warn("could not decode journal", "path", j.path, "error", err)
			return
		}
	}
	j.buf.Replace(items)
	j.stamp = current
	j.logger.Debug("journal reloaded", "path", j.path, "records", j.buf.Len())
}

func (j *Journal[T]) writeLocked() error {
	data, err := json.MarshalIndent(j.buf.Snapshot(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal journal: %w", err)
	}
	if err := writeFileAtomic(j.path, data, 0o600); err != nil {
		return err
	}
	info, err := os.Stat(j.path)
	if err != nil {
		return fmt.Errorf("stat journal: %w", err)
	}
	j.stamp = stampOf(info)
	return nil
}

// lockFile takes an exclusive advisory lock shared with other processes.
func (j *Journal[T]) lockFile() (func(), error) {
	f, err := os.OpenFile(j.lockPath, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("flock: %w", err)
	}
	return func() {
		_ = unix.Flock(int(f.Fd()), unix.LOCK_UN)
		_ = f.Close()
	}, nil
}

// writeFileAtomic writes data to a temp file in the same directory, syncs it
// and renames it over path, so readers see either the old or the new file.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
