package canvas

import "github.com/starford/stickies/internal/models"

// NudgeStep is the distance, in pixels, an arrow key moves a note.
const NudgeStep = 4

// Point is a pointer coordinate reported by the host.
type Point struct {
	X, Y int
}

// Direction is an arrow-key direction.
type Direction int

const (
	DirUp Direction = iota
	DirDown
	DirLeft
	DirRight
)

// DragSession is the state of one drag gesture.
type DragSession struct {
	Origin   Point           // pointer at press
	Last     Point           // pointer at the previous event
	Anchor   models.Position // note position at press
	Position models.Position // live note position
}

// BeginDrag starts a session for a note at pos grabbed at pointer.
func BeginDrag(pointer Point, pos models.Position) DragSession {
	return DragSession{Origin: pointer, Last: pointer, Anchor: pos, Position: pos}
}

// Move applies the pointer delta since the previous event.
func (d DragSession) Move(pointer Point) DragSession {
	d.Position.X += pointer.X - d.Last.X
	d.Position.Y += pointer.Y - d.Last.Y
	d.Last = pointer
	return d
}

// OffCanvas reports whether the live position is past the left edge.
func (d DragSession) OffCanvas() bool {
	return d.Position.X < 0
}

// ReleaseOutcome is how a drag gesture ended.
type ReleaseOutcome int

const (
	ReleaseNone      ReleaseOutcome = iota // no gesture in progress
	ReleaseCommitted                       // note stays where it was dropped
	ReleaseDeleted                         // dropped off-canvas and deletion accepted
	ReleaseSnapBack                        // deletion declined or cancelled; back to anchor
)

func (o ReleaseOutcome) String() string {
	switch o {
	case ReleaseCommitted:
		return "committed"
	case ReleaseDeleted:
		return "deleted"
	case ReleaseSnapBack:
		return "snap-back"
	}
	return "none"
}

// ReleaseResult carries the final position for the outcome.
type ReleaseResult struct {
	Outcome  ReleaseOutcome
	Position models.Position
}

// Tracker is the per-widget drag state machine: Idle -> Dragging -> Idle.
type Tracker struct {
	session *DragSession
}

// Dragging reports whether a gesture is in progress.
func (t *Tracker) Dragging() bool { return t.session != nil }

// Session returns a copy of the current session.
func (t *Tracker) Session() (DragSession, bool) {
	if t.session == nil {
		return DragSession{}, false
	}
	return *t.session, true
}

// Press starts a gesture unless the widget is being edited.
func (t *Tracker) Press(pointer Point, pos models.Position, editing bool) bool {
	if editing {
		return false
	}
	s := BeginDrag(pointer, pos)
	t.session = &s
	return true
}

// Move advances the gesture and returns the new live position.
func (t *Tracker) Move(pointer Point) (models.Position, bool) {
	if t.session == nil {
		return models.Position{}, false
	}
	next := t.session.Move(pointer)
	t.session = &next
	return next.Position, true
}

// OffCanvas reports whether releasing now would trigger the delete gesture.
func (t *Tracker) OffCanvas() bool {
	return t.session != nil && t.session.OffCanvas()
}

// Release ends the gesture. Past the left edge, confirm decides between
// deletion and snapping back to the anchor; a nil confirm declines.
func (t *Tracker) Release(confirm ConfirmFunc) ReleaseResult {
	if t.session == nil {
		return ReleaseResult{Outcome: ReleaseNone}
	}
	s := *t.session
	t.session = nil
	if !s.OffCanvas() {
		return ReleaseResult{Outcome: ReleaseCommitted, Position: s.Position}
	}
	if confirm != nil && confirm(DeletePrompt) {
		return ReleaseResult{Outcome: ReleaseDeleted, Position: s.Position}
	}
	return ReleaseResult{Outcome: ReleaseSnapBack, Position: s.Anchor}
}

// Cancel abandons the gesture and returns the anchor position.
func (t *Tracker) Cancel() (models.Position, bool) {
	if t.session == nil {
		return models.Position{}, false
	}
	anchor := t.session.Anchor
	t.session = nil
	return anchor, true
}

// Nudge returns pos moved one NudgeStep in dir.
func Nudge(pos models.Position, dir Direction) models.Position {
	switch dir {
	case DirUp:
		pos.Y -= NudgeStep
	case DirDown:
		pos.Y += NudgeStep
	case DirLeft:
		pos.X -= NudgeStep
	case DirRight:
		pos.X += NudgeStep
	}
	return pos
}
