package internal

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/stickies/internal/kvstore"
	"github.com/starford/stickies/internal/persist"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOpenKVSQLite(t *testing.T) {
	cfg := KVConfig{Backend: KVBackendSQLite, SQLite: SQLiteConfig{Path: filepath.Join(t.TempDir(), "kv.db")}}
	kv, err := openKV(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer kv.Close()
	if _, ok := kv.(*kvstore.SQLite); !ok {
		t.Errorf("provider = %T, want *kvstore.SQLite", kv)
	}
}

func TestOpenKVCached(t *testing.T) {
	cfg := KVConfig{
		Backend: KVBackendSQLite,
		SQLite:  SQLiteConfig{Path: filepath.Join(t.TempDir(), "kv.db")},
		Cache:   CacheConfig{TTL: time.Minute},
	}
	kv, err := openKV(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer kv.Close()
	if _, ok := kv.(*kvstore.Cached); !ok {
		t.Errorf("provider = %T, want *kvstore.Cached", kv)
	}
}

func TestNewBackend(t *testing.T) {
	cfg := NewDefaultConfig().Board

	b, err := newBackend(cfg, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := b.(*persist.HTTP); !ok {
		t.Errorf("backend = %T, want *persist.HTTP", b)
	}

	cfg.Backend = BoardBackendFile
	cfg.FilePath = t.TempDir()
	b, err = newBackend(cfg, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := b.(*persist.File); !ok {
		t.Errorf("backend = %T, want *persist.File", b)
	}
}

// burstWatcher reports a burst of changes and then blocks until cancelled.
type burstWatcher struct {
	burst int
	fired chan struct{}
}

func (w *burstWatcher) Watch(ctx context.Context, _ string, onChange func()) error {
	for i := 0; i < w.burst; i++ {
		onChange()
	}
	close(w.fired)
	<-ctx.Done()
	return nil
}

func TestWatchChangesCoalesces(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	changes := make(chan struct{}, 1)
	done := make(chan struct{})
	w := &burstWatcher{burst: 5, fired: make(chan struct{})}
	go func() {
		watchChanges(ctx, w, "k", changes, quietLogger())
		close(done)
	}()

	select {
	case <-w.fired:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not fire")
	}
	cancel()
	<-done

	if got := len(changes); got != 1 {
		t.Errorf("pending notifications = %d, want 1", got)
	}
}
