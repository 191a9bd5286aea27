package canvas

import (
	"context"

	"github.com/starford/stickies/internal/models"
)

// Board is the surface a presentation layer binds to: the store, its
// selection, and one widget per note.
type Board struct {
	store   *Store
	confirm ConfirmFunc
	widgets map[string]*Widget
}

// NewBoard wraps store. confirm answers delete questions; it may be nil, in
// which case every delete is declined unless the caller supplies its own.
func NewBoard(store *Store, confirm ConfirmFunc) *Board {
	return &Board{store: store, confirm: confirm, widgets: make(map[string]*Widget)}
}

// Store returns the underlying note store.
func (b *Board) Store() *Store { return b.store }

// Selection returns the selection controller.
func (b *Board) Selection() *Selection { return b.store.Selection() }

// Widget returns the widget for id, creating it on first use.
func (b *Board) Widget(id string) (*Widget, bool) {
	if _, ok := b.store.Note(id); !ok {
		delete(b.widgets, id)
		return nil, false
	}
	w, ok := b.widgets[id]
	if !ok {
		w = newWidget(id, b.store, b.confirm)
		b.widgets[id] = w
	}
	return w, true
}

// Widgets returns a widget per note in z-order and drops widgets whose notes
// are gone.
func (b *Board) Widgets() []*Widget {
	notes := b.store.Notes()
	live := make(map[string]struct{}, len(notes))
	out := make([]*Widget, 0, len(notes))
	for _, n := range notes {
		live[n.ID] = struct{}{}
		w, _ := b.Widget(n.ID)
		out = append(out, w)
	}
	for id := range b.widgets {
		if _, ok := live[id]; !ok {
			delete(b.widgets, id)
		}
	}
	return out
}

// AddNote appends a default note and returns its widget.
func (b *Board) AddNote() *Widget {
	n := b.store.AddNote()
	w, _ := b.Widget(n.ID)
	return w
}

// ToggleSelectMode enters or leaves select-mode.
func (b *Board) ToggleSelectMode(enabled bool) {
	b.store.Selection().ToggleSelectMode(enabled)
}

// ToggleSelect toggles id in the selection.
func (b *Board) ToggleSelect(id string) bool {
	if _, ok := b.store.Note(id); !ok {
		return false
	}
	return b.store.Selection().ToggleSelect(id)
}

// Align aligns the selected notes on axis.
func (b *Board) Align(axis Axis) error {
	return b.store.Align(axis)
}

// DeleteSelected removes every selected note after one confirmation.
func (b *Board) DeleteSelected(confirm ConfirmFunc) int {
	ids := b.store.Selection().IDs()
	if len(ids) == 0 {
		return 0
	}
	if confirm == nil {
		confirm = b.confirm
	}
	if confirm == nil || !confirm(DeletePrompt) {
		return 0
	}
	return b.store.DeleteNotes(ids...)
}

// Commit persists the collection.
func (b *Board) Commit(ctx context.Context) error { return b.store.Commit(ctx) }

// Reset discards unsaved edits.
func (b *Board) Reset(ctx context.Context) error {
	err := b.store.Reset(ctx)
	b.Widgets()
	return err
}

// Load fetches the persisted collection.
func (b *Board) Load(ctx context.Context) error {
	err := b.store.Load(ctx)
	b.Widgets()
	return err
}

// Notes returns the collection in z-order.
func (b *Board) Notes() []models.Note { return b.store.Notes() }
