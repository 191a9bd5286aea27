// Package models defines the domain types for the sticky-note canvas.
package models

import (
	"slices"
	"time"
	"unicode/utf8"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

// MaxTextLength is the maximum number of characters a note may hold.
const MaxTextLength = 300

// Defaults applied to freshly added notes.
const (
	DefaultText = "New Note"
	DefaultX    = 400
	DefaultY    = 200
)

// Severity is the color class of a note.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
	SeveritySuccess Severity = "success"
)

// Severities lists every severity in display order.
var Severities = []Severity{SeverityInfo, SeverityWarning, SeverityError, SeveritySuccess}

// Breakpoint is a layout size class at which a note can be shown.
type Breakpoint string

const (
	BreakpointSmall Breakpoint = "small"
	BreakpointLarge Breakpoint = "large"
)

// Position is a pixel coordinate on the canvas. Negative values are allowed.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Note is one sticky note record. Its JSON shape is the contract with the
// persistence service.
type Note struct {
	ID                 string       `json:"id"`
	Text               string       `json:"text"`
	Severity           Severity     `json:"severity"`
	Position           Position     `json:"position"`
	VisibleBreakpoints []Breakpoint `json:"visibleBreakpoints"`
	Pinned             bool         `json:"pinned"`
	SavedAt            *time.Time   `json:"savedAt,omitempty"`
}

// NewID returns a fresh opaque note identifier.
func NewID() string {
	return uuid.NewString()
}

// NewNote returns a note with the default text, severity and position.
func NewNote(id string) Note {
	return Note{
		ID:                 id,
		Text:               DefaultText,
		Severity:           SeverityInfo,
		Position:           Position{X: DefaultX, Y: DefaultY},
		VisibleBreakpoints: []Breakpoint{},
	}
}

// Validate checks the note record.
func (n Note) Validate() error {
	return validation.ValidateStruct(&n,
		validation.Field(&n.ID, validation.Required),
		validation.Field(&n.Text, validation.RuneLength(0, MaxTextLength)),
		validation.Field(&n.Severity, validation.Required,
			validation.In(SeverityInfo, SeverityWarning, SeverityError, SeveritySuccess)),
		validation.Field(&n.VisibleBreakpoints,
			validation.Each(validation.In(BreakpointSmall, BreakpointLarge))),
	)
}

// Normalize fills defaults for fields older records may lack.
func (n Note) Normalize() Note {
	if n.Severity == "" {
		n.Severity = SeverityInfo
	}
	if n.VisibleBreakpoints == nil {
		n.VisibleBreakpoints = []Breakpoint{}
	}
	n.Text = TruncateText(n.Text)
	return n
}

// Clone returns a deep copy of the note.
func (n Note) Clone() Note {
	n.VisibleBreakpoints = slices.Clone(n.VisibleBreakpoints)
	if n.VisibleBreakpoints == nil {
		n.VisibleBreakpoints = []Breakpoint{}
	}
	if n.SavedAt != nil {
		t := *n.SavedAt
		n.SavedAt = &t
	}
	return n
}

// HasBreakpoint reports whether bp is explicitly listed.
func (n Note) HasBreakpoint(bp Breakpoint) bool {
	return slices.Contains(n.VisibleBreakpoints, bp)
}

// VisibleAt reports whether the note is shown at the given breakpoint.
// An empty set means visible everywhere.
func (n Note) VisibleAt(bp Breakpoint) bool {
	return len(n.VisibleBreakpoints) == 0 || n.HasBreakpoint(bp)
}

// ToggleBreakpoint returns a copy of the note with bp added or removed.
func (n Note) ToggleBreakpoint(bp Breakpoint) Note {
	n = n.Clone()
	if i := slices.Index(n.VisibleBreakpoints, bp); i >= 0 {
		n.VisibleBreakpoints = slices.Delete(n.VisibleBreakpoints, i, i+1)
		return n
	}
	n.VisibleBreakpoints = append(n.VisibleBreakpoints, bp)
	slices.Sort(n.VisibleBreakpoints)
	return n
}

// TruncateText caps s to MaxTextLength characters.
func TruncateText(s string) string {
	if utf8.RuneCountInString(s) <= MaxTextLength {
		return s
	}
	return string([]rune(s)[:MaxTextLength])
}

// ValidSeverity reports whether s is a known severity.
func ValidSeverity(s Severity) bool {
	return slices.Contains(Severities, s)
}

// CloneNotes deep-copies a slice of notes.
func CloneNotes(notes []Note) []Note {
	out := make([]Note, len(notes))
	for i, n := range notes {
		out[i] = n.Clone()
	}
	return out
}
