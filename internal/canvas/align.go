package canvas

import (
	"fmt"
	"slices"
	"strings"

	"github.com/starford/stickies/internal/apperr"
	"github.com/starford/stickies/internal/models"
)

// Axis is the coordinate alignment acts on.
type Axis string

const (
	AxisX Axis = "x"
	AxisY Axis = "y"
)

// ParseAxis accepts "x"/"horizontal" and "y"/"vertical".
func ParseAxis(s string) (Axis, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "x", "horizontal":
		return AxisX, nil
	case "y", "vertical":
		return AxisY, nil
	}
	return "", fmt.Errorf("%w: %q", apperr.ErrInvalidAxis, s)
}

// Align returns a copy of notes where every note listed in ids has its axis
// coordinate set to that of the note named by ids[0]. Notes not listed are
// untouched. At least two ids are required and the anchor must exist.
func Align(notes []models.Note, ids []string, axis Axis) ([]models.Note, error) {
	if axis != AxisX && axis != AxisY {
		return notes, fmt.Errorf("%w: %q", apperr.ErrInvalidAxis, axis)
	}
	if len(ids) < 2 {
		return notes, apperr.ErrAlignPrecondition
	}
	anchor := slices.IndexFunc(notes, func(n models.Note) bool { return n.ID == ids[0] })
	if anchor < 0 {
		return notes, fmt.Errorf("%w: anchor %s", apperr.ErrUnknownNote, ids[0])
	}
	value := coord(notes[anchor].Position, axis)

	out := models.CloneNotes(notes)
	for i := range out {
		if !slices.Contains(ids, out[i].ID) {
			continue
		}
		if axis == AxisX {
			out[i].Position.X = value
		} else {
			out[i].Position.Y = value
		}
	}
	return out, nil
}

func coord(p models.Position, axis Axis) int {
	if axis == AxisX {
		return p.X
	}
	return p.Y
}
