// Package canvas implements the note canvas engine: the note collection with
// its optimistic dirty/commit/reset lifecycle, drag physics with the
// off-canvas delete gesture, and multi-select alignment.
//
// Nothing in this package is safe for concurrent use. Hosts deliver one event
// at a time; only Load and Commit block, on the Persistence collaborator.
package canvas

import (
	"context"

	"github.com/starford/stickies/internal/models"
)

// Persistence reads and writes a whole note collection under a key.
// Load returns an empty slice and a nil error when nothing is stored yet.
type Persistence interface {
	Load(ctx context.Context, key string) ([]models.Note, error)
	Commit(ctx context.Context, key string, notes []models.Note) error
}

// ConfirmFunc asks the user a yes/no question.
type ConfirmFunc func(message string) bool

// DeletePrompt is the question asked before a note is deleted.
const DeletePrompt = "Delete note?"
