package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/starford/stickies/internal/models"
)

// editor is an in-place text editor for one note. Newlines are kept in the
// buffer; the cursor is a rune offset.
type editor struct {
	id     string
	text   []rune
	cursor int
}

func newEditor(id, text string) *editor {
	runes := []rune(text)
	return &editor{id: id, text: runes, cursor: len(runes)}
}

func (e *editor) value() string { return string(e.text) }

// update applies a key and reports whether the text changed.
func (e *editor) update(message tea.KeyMsg) bool {
	switch message.Type {
	case tea.KeyRunes, tea.KeySpace:
		changed := false
		for _, character := range message.Runes {
			changed = e.insert(character) || changed
		}
		return changed

	case tea.KeyEnter:
		return e.insert('\n')

	case tea.KeyBackspace:
		if e.cursor == 0 {
			return false
		}
		e.text = append(e.text[:e.cursor-1], e.text[e.cursor:]...)
		e.cursor--
		return true

	case tea.KeyDelete:
		if e.cursor >= len(e.text) {
			return false
		}
		e.text = append(e.text[:e.cursor], e.text[e.cursor+1:]...)
		return true

	case tea.KeyLeft:
		if e.cursor > 0 {
			e.cursor--
		}

	case tea.KeyRight:
		if e.cursor < len(e.text) {
			e.cursor++
		}

	case tea.KeyHome, tea.KeyCtrlA:
		e.cursor = 0

	case tea.KeyEnd, tea.KeyCtrlE:
		e.cursor = len(e.text)
	}
	return false
}

// insert adds a rune at the cursor. Input past the length cap is dropped.
func (e *editor) insert(character rune) bool {
	if len(e.text) >= models.MaxTextLength {
		return false
	}
	line := make([]rune, len(e.text)+1)
	copy(line, e.text[:e.cursor])
	line[e.cursor] = character
	copy(line[e.cursor+1:], e.text[e.cursor:])
	e.text = line
	e.cursor++
	return true
}

// display returns the text with a cursor glyph at the insertion point.
func (e *editor) display() string {
	out := make([]rune, 0, len(e.text)+1)
	out = append(out, e.text[:e.cursor]...)
	out = append(out, '▏')
	out = append(out, e.text[e.cursor:]...)
	return string(out)
}
