package canvas

import "github.com/starford/stickies/internal/models"

// Widget binds one note to the store: its editable fields, its drag tracker
// and its local edit mode. Every change writes through to the store.
type Widget struct {
	id      string
	store   *Store
	tracker Tracker
	editing bool
	confirm ConfirmFunc
}

func newWidget(id string, store *Store, confirm ConfirmFunc) *Widget {
	w := &Widget{id: id, store: store, confirm: confirm}
	if n, ok := store.Note(id); ok && n.Text == "" {
		w.editing = true
	}
	return w
}

// ID returns the bound note id.
func (w *Widget) ID() string { return w.id }

// Note returns the current note record.
func (w *Widget) Note() (models.Note, bool) { return w.store.Note(w.id) }

// Editing reports whether the widget is in text-edit mode.
func (w *Widget) Editing() bool { return w.editing }

// Dragging reports whether a drag gesture is in progress.
func (w *Widget) Dragging() bool { return w.tracker.Dragging() }

// ToggleEdit flips edit mode. It is refused while dragging.
func (w *Widget) ToggleEdit() bool {
	if w.tracker.Dragging() {
		return w.editing
	}
	w.editing = !w.editing
	return w.editing
}

// SetText replaces the text, truncated to the maximum length.
func (w *Widget) SetText(text string) bool {
	return w.mutate(func(n *models.Note) { n.Text = models.TruncateText(text) })
}

// SetSeverity changes the color class. Unknown severities are ignored.
func (w *Widget) SetSeverity(sev models.Severity) bool {
	if !models.ValidSeverity(sev) {
		return false
	}
	return w.mutate(func(n *models.Note) { n.Severity = sev })
}

// ToggleBreakpoint adds or removes bp from the visibility set.
func (w *Widget) ToggleBreakpoint(bp models.Breakpoint) bool {
	return w.mutate(func(n *models.Note) { *n = n.ToggleBreakpoint(bp) })
}

// SetPinned sets the pinned flag.
func (w *Widget) SetPinned(pinned bool) bool {
	return w.mutate(func(n *models.Note) { n.Pinned = pinned })
}

// PointerPress starts a drag at pointer unless the note is being edited.
func (w *Widget) PointerPress(pointer Point) bool {
	n, ok := w.store.Note(w.id)
	if !ok {
		return false
	}
	return w.tracker.Press(pointer, n.Position, w.editing)
}

// PointerMove moves the note by the pointer delta.
func (w *Widget) PointerMove(pointer Point) bool {
	pos, ok := w.tracker.Move(pointer)
	if !ok {
		return false
	}
	return w.setPosition(pos)
}

// OffCanvas reports whether releasing now would ask to delete the note.
func (w *Widget) OffCanvas() bool { return w.tracker.OffCanvas() }

// PointerRelease ends the drag, asking the widget's confirm primitive when
// the note was dropped off-canvas.
func (w *Widget) PointerRelease() ReleaseResult {
	return w.ReleaseWith(w.confirm)
}

// ReleaseWith ends the drag using confirm for the delete question.
func (w *Widget) ReleaseWith(confirm ConfirmFunc) ReleaseResult {
	res := w.tracker.Release(confirm)
	switch res.Outcome {
	case ReleaseDeleted:
		w.store.DeleteNotes(w.id)
	case ReleaseSnapBack:
		w.setPosition(res.Position)
	}
	return res
}

// CancelDrag abandons the drag and restores the position it started from.
func (w *Widget) CancelDrag() bool {
	anchor, ok := w.tracker.Cancel()
	if !ok {
		return false
	}
	return w.setPosition(anchor)
}

// Nudge moves the note one step in dir. It only acts in select-mode.
func (w *Widget) Nudge(dir Direction) bool {
	if !w.store.Selection().Active() {
		return false
	}
	n, ok := w.store.Note(w.id)
	if !ok {
		return false
	}
	return w.setPosition(Nudge(n.Position, dir))
}

// Delete removes the note after confirmation.
func (w *Widget) Delete() bool {
	return w.DeleteWith(w.confirm)
}

// DeleteWith removes the note if confirm accepts. Declining changes nothing.
func (w *Widget) DeleteWith(confirm ConfirmFunc) bool {
	if confirm == nil || !confirm(DeletePrompt) {
		return false
	}
	return w.store.DeleteNotes(w.id) > 0
}

func (w *Widget) setPosition(pos models.Position) bool {
	return w.mutate(func(n *models.Note) { n.Position = pos })
}

func (w *Widget) mutate(fn func(n *models.Note)) bool {
	n, ok := w.store.Note(w.id)
	if !ok {
		return false
	}
	fn(&n)
	return w.store.UpdateNote(n)
}
