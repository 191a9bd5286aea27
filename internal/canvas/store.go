package canvas

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/starford/stickies/internal/apperr"
	"github.com/starford/stickies/internal/models"
)

// Store owns the canonical note collection and its dirty flag.
type Store struct {
	persist Persistence
	key     string
	logger  *slog.Logger
	newID   func() string
	now     func() time.Time

	notes []models.Note
	dirty bool
	sel   *Selection
	// revision counts replacements of the collection; a commit only clears
	// dirty when it wrote the current revision.
	revision uint64

	// reloadArmed is cleared when an empty collection has scheduled a reload
	// and set again once the collection holds notes.
	reloadArmed   bool
	reloadPending bool
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the logger used for lifecycle events.
func WithLogger(l *slog.Logger) StoreOption {
	return func(s *Store) { s.logger = l }
}

// WithIDGenerator overrides note id generation.
func WithIDGenerator(fn func() string) StoreOption {
	return func(s *Store) { s.newID = fn }
}

// WithClock overrides the clock used to stamp SavedAt.
func WithClock(fn func() time.Time) StoreOption {
	return func(s *Store) { s.now = fn }
}

// NewStore creates an empty store persisted under key. The empty collection
// immediately schedules one reload; see PendingReload.
func NewStore(p Persistence, key string, opts ...StoreOption) *Store {
	s := &Store{
		persist:     p,
		key:         key,
		logger:      slog.Default(),
		newID:       models.NewID,
		now:         time.Now,
		notes:       []models.Note{},
		sel:         &Selection{},
		reloadArmed: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.trackEmpty()
	return s
}

// Key returns the persistence key.
func (s *Store) Key() string { return s.key }

// Persistence returns the collaborator the store loads from and commits to.
func (s *Store) Persistence() Persistence { return s.persist }

// Selection returns the selection controller bound to this store.
func (s *Store) Selection() *Selection { return s.sel }

// Dirty reports whether the collection has edits since the last load or commit.
func (s *Store) Dirty() bool { return s.dirty }

// Len returns the number of notes.
func (s *Store) Len() int { return len(s.notes) }

// Notes returns a copy of the collection in z-order.
func (s *Store) Notes() []models.Note {
	return models.CloneNotes(s.notes)
}

// Note returns the note with the given id.
func (s *Store) Note(id string) (models.Note, bool) {
	i := s.indexOf(id)
	if i < 0 {
		return models.Note{}, false
	}
	return s.notes[i].Clone(), true
}

// PendingReload reports, once, that the collection became empty and should
// be reloaded. Subsequent calls return false until the collection has held
// notes and emptied again.
func (s *Store) PendingReload() bool {
	p := s.reloadPending
	s.reloadPending = false
	return p
}

// Load replaces the collection with the persisted one and clears dirty.
// A failed or unparseable fetch leaves an empty collection; the error is
// returned for reporting only.
func (s *Store) Load(ctx context.Context) error {
	notes, err := s.persist.Load(ctx, s.key)
	return s.ApplyLoad(notes, err)
}

// ApplyLoad installs the result of a persistence load. Hosts that fetch off
// their event loop call it when the fetch completes.
func (s *Store) ApplyLoad(notes []models.Note, err error) error {
	if err != nil {
		s.logger.Warn("canvas: load failed", slog.String("key", s.key), slog.String("error", err.Error()))
		notes = nil
	}
	s.notes = s.sanitize(notes)
	s.dirty = false
	s.revision++
	s.sel.retain(func(id string) bool { return s.indexOf(id) >= 0 })
	s.trackEmpty()
	s.logger.Debug("canvas: loaded", slog.String("key", s.key), slog.Int("notes", len(s.notes)))
	if err != nil {
		return fmt.Errorf("canvas: load: %w", err)
	}
	return nil
}

// Reset discards unsaved edits by reloading the persisted collection.
func (s *Store) Reset(ctx context.Context) error {
	return s.Load(ctx)
}

// Commit persists the whole collection. On success dirty is cleared and every
// note is stamped with the commit time; on failure dirty stays set.
func (s *Store) Commit(ctx context.Context) error {
	snap := s.CommitSnapshot()
	err := s.persist.Commit(ctx, s.key, snap.Notes)
	return s.ApplyCommit(snap, err)
}

// Snapshot is the collection as handed to a commit.
type Snapshot struct {
	Notes []models.Note
	Stamp time.Time

	revision uint64
}

// CommitSnapshot returns the collection as it will be written, stamped with
// the commit time.
func (s *Store) CommitSnapshot() Snapshot {
	stamp := s.now().UTC()
	notes := models.CloneNotes(s.notes)
	for i := range notes {
		t := stamp
		notes[i].SavedAt = &t
	}
	return Snapshot{Notes: notes, Stamp: stamp, revision: s.revision}
}

// ApplyCommit installs the outcome of writing snap. Notes added while the
// write was in flight keep no SavedAt, and any mutation made in that window
// keeps the store dirty.
func (s *Store) ApplyCommit(snap Snapshot, err error) error {
	if err != nil {
		s.logger.Error("canvas: commit failed", slog.String("key", s.key), slog.String("error", err.Error()))
		return fmt.Errorf("canvas: %w: %w", apperr.ErrCommitFailed, err)
	}
	committed := make(map[string]struct{}, len(snap.Notes))
	for _, n := range snap.Notes {
		committed[n.ID] = struct{}{}
	}
	for i := range s.notes {
		if _, ok := committed[s.notes[i].ID]; ok {
			t := snap.Stamp
			s.notes[i].SavedAt = &t
		}
	}
	if snap.revision == s.revision {
		s.dirty = false
	} else {
		s.logger.Debug("canvas: collection changed during commit", slog.String("key", s.key))
	}
	s.logger.Info("canvas: committed", slog.String("key", s.key), slog.Int("notes", len(snap.Notes)))
	return nil
}

// touch marks the collection as edited.
func (s *Store) touch() {
	s.dirty = true
	s.revision++
}

// AddNote appends a default note with a fresh id.
func (s *Store) AddNote() models.Note {
	id := s.newID()
	for s.indexOf(id) >= 0 {
		id = s.newID()
	}
	n := models.NewNote(id)
	s.notes = append(s.notes, n)
	s.touch()
	s.trackEmpty()
	return n.Clone()
}

// UpdateNote replaces the note with the same id in place. An unknown id is a
// no-op and returns false.
func (s *Store) UpdateNote(note models.Note) bool {
	i := s.indexOf(note.ID)
	if i < 0 {
		s.logger.Debug("canvas: update of unknown note ignored", slog.String("id", note.ID))
		return false
	}
	s.notes[i] = note.Normalize().Clone()
	s.touch()
	return true
}

// DeleteNotes removes every note whose id is listed and clears the selection
// and select-mode. It returns the number of notes removed.
func (s *Store) DeleteNotes(ids ...string) int {
	s.sel.ToggleSelectMode(false)
	before := len(s.notes)
	s.notes = slices.DeleteFunc(s.notes, func(n models.Note) bool {
		return slices.Contains(ids, n.ID)
	})
	removed := before - len(s.notes)
	if removed > 0 {
		s.touch()
	}
	s.trackEmpty()
	return removed
}

// Align sets the axis coordinate of every selected note to that of the first
// selected note, then clears the selection and leaves select-mode.
func (s *Store) Align(axis Axis) error {
	aligned, err := Align(s.notes, s.sel.IDs(), axis)
	if err != nil {
		return err
	}
	s.notes = aligned
	s.touch()
	s.sel.ToggleSelectMode(false)
	return nil
}

func (s *Store) indexOf(id string) int {
	return slices.IndexFunc(s.notes, func(n models.Note) bool { return n.ID == id })
}

// sanitize normalizes loaded notes and drops records that would break id
// uniqueness.
func (s *Store) sanitize(notes []models.Note) []models.Note {
	out := make([]models.Note, 0, len(notes))
	seen := make(map[string]struct{}, len(notes))
	for _, n := range notes {
		if n.ID == "" {
			s.logger.Warn("canvas: dropping note without id")
			continue
		}
		if _, dup := seen[n.ID]; dup {
			s.logger.Warn("canvas: dropping duplicate note", slog.String("id", n.ID))
			continue
		}
		seen[n.ID] = struct{}{}
		out = append(out, n.Normalize().Clone())
	}
	return out
}

func (s *Store) trackEmpty() {
	if len(s.notes) > 0 {
		s.reloadArmed = true
		return
	}
	if s.reloadArmed {
		s.reloadArmed = false
		s.reloadPending = true
	}
}
