// Package persist implements the canvas persistence collaborators: a client
// of the notes KV service and a local JSON file backend. Both can also report
// changes made by someone else so an idle board can refresh itself.
package persist

import (
	"context"
	"log/slog"

	"github.com/starford/stickies/internal/canvas"
)

// Watcher reports external changes to the collection stored under key.
// Watch blocks until ctx is cancelled or the change source fails. onChange
// is called from the watcher's goroutine.
type Watcher interface {
	Watch(ctx context.Context, key string, onChange func()) error
}

// Backend is a persistence collaborator that can also watch for changes.
type Backend interface {
	canvas.Persistence
	Watcher
}

// Verify backends satisfy Backend at compile time.
var (
	_ Backend = (*HTTP)(nil)
	_ Backend = (*File)(nil)
)

func orDefault(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
