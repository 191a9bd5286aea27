package persist

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/stickies/internal/checksum"
	"github.com/starford/stickies/internal/models"
)

const defaultDebounce = 150 * time.Millisecond

// File keeps one JSON file per key inside a directory.
type File struct {
	dir      string // absolute
	debounce time.Duration
	logger   *slog.Logger

	mu   sync.Mutex
	seen map[string]string // key -> checksum of the content last read or written
}

// FileOption configures a File backend.
type FileOption func(*File)

// WithDebounce sets how long Watch waits for a burst of events to settle.
func WithDebounce(d time.Duration) FileOption {
	return func(f *File) { f.debounce = d }
}

// WithFileLogger sets the logger.
func WithFileLogger(l *slog.Logger) FileOption {
	return func(f *File) { f.logger = l }
}

// NewFile creates a File backend rooted at dir, creating it if needed.
func NewFile(dir string, opts ...FileOption) (*File, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("persist: resolve dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("persist: mkdir: %w", err)
	}
	f := &File{dir: abs, debounce: defaultDebounce, seen: make(map[string]string)}
	for _, opt := range opts {
		opt(f)
	}
	f.logger = orDefault(f.logger)
	return f, nil
}

// Path returns the file holding key.
func (f *File) Path(key string) (string, error) {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) {
		return "", fmt.Errorf("persist: invalid key %q", key)
	}
	return filepath.Join(f.dir, key+".json"), nil
}

// Load reads the collection stored under key. A missing file is an empty
// collection.
func (f *File) Load(_ context.Context, key string) ([]models.Note, error) {
	path, err := f.Path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		f.remember(key, "")
		return []models.Note{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("persist: read %s: %w", key, err)
	}
	f.remember(key, checksum.Sum(data))
	notes, err := models.DecodeNotes(data)
	if err != nil {
		return nil, fmt.Errorf("persist: load %s: %w", key, err)
	}
	return notes, nil
}

// Commit atomically replaces the file for key: tmp file → fsync → rename.
func (f *File) Commit(_ context.Context, key string, notes []models.Note) error {
	path, err := f.Path(key)
	if err != nil {
		return err
	}
	data, err := models.EncodeNotes(notes)
	if err != nil {
		return fmt.Errorf("persist: encode: %w", err)
	}

	tmp, err := os.CreateTemp(f.dir, ".stickies-tmp-*")
	if err != nil {
		return fmt.Errorf("persist: create temp: %w", err)
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("persist: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("persist: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("persist: close temp: %w", err)
	}
	// Recorded before the rename so the watcher never sees an unknown sum.
	sum := checksum.Sum(data)
	prev := f.swapSum(key, sum)
	if err := os.Rename(tmpName, path); err != nil {
		f.restoreSum(key, sum, prev)
		return fmt.Errorf("persist: rename: %w", err)
	}
	success = true
	return nil
}

// Watch calls onChange whenever the file for key changes on disk with
// content this backend did not write or last read itself.
func (f *File) Watch(ctx context.Context, key string, onChange func()) error {
	path, err := f.Path(key)
	if err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("persist: watcher: %w", err)
	}
	defer w.Close()

	// Watch the directory: an atomic rename replaces the file's inode.
	if err := w.Add(f.dir); err != nil {
		return fmt.Errorf("persist: watch %s: %w", f.dir, err)
	}
	f.logger.Info("watcher: started", slog.String("path", path))

	var settle *time.Timer
	var settleCh <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if settle != nil {
				settle.Stop()
			}
			f.logger.Info("watcher: stopped", slog.String("path", path))
			return nil

		case <-settleCh:
			if f.changed(key, path) {
				f.logger.Debug("watcher: external change", slog.String("key", key))
				onChange()
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != path {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if settle == nil {
				settle = time.NewTimer(f.debounce)
				settleCh = settle.C
			} else {
				settle.Reset(f.debounce)
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			f.logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// changed compares the file's current checksum with the last one seen and
// records the new value.
func (f *File) changed(key, path string) bool {
	sum := ""
	if data, err := os.ReadFile(path); err == nil {
		sum = checksum.Sum(data)
	} else if !errors.Is(err, fs.ErrNotExist) {
		f.logger.Warn("watcher: read failed", slog.String("key", key), slog.String("error", err.Error()))
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.seen[key] == sum {
		return false
	}
	f.seen[key] = sum
	return true
}

func (f *File) remember(key, sum string) {
	f.mu.Lock()
	f.seen[key] = sum
	f.mu.Unlock()
}

func (f *File) swapSum(key, sum string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	prev := f.seen[key]
	f.seen[key] = sum
	return prev
}

// restoreSum puts prev back unless the watcher or a load replaced sum meanwhile.
func (f *File) restoreSum(key, sum, prev string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.seen[key] == sum {
		f.seen[key] = prev
	}
}
