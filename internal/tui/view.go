package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"

	"github.com/starford/stickies/internal/canvas"
	"github.com/starford/stickies/internal/models"
)

type border struct {
	topLeft, topRight, bottomLeft, bottomRight rune
	horizontal, vertical                       rune
}

var (
	singleBorder = border{'┌', '┐', '└', '┘', '─', '│'}
	doubleBorder = border{'╔', '╗', '╚', '╝', '═', '║'}
)

// cell is one terminal cell of the canvas grid.
type cell struct {
	r     rune
	style *lipgloss.Style
}

// grid is a fixed-size canvas of styled cells. Runs of cells sharing a
// style are rendered together.
type grid struct {
	cols, rows int
	cells      [][]cell
}

func newGrid(cols, rows int) *grid {
	g := &grid{cols: cols, rows: rows, cells: make([][]cell, rows)}
	for r := range g.cells {
		g.cells[r] = make([]cell, cols)
		for c := range g.cells[r] {
			g.cells[r][c] = cell{r: ' '}
		}
	}
	return g
}

func (g *grid) set(col, row int, r rune, style *lipgloss.Style) {
	if col < 0 || row < 0 || col >= g.cols || row >= g.rows {
		return
	}
	g.cells[row][col] = cell{r: r, style: style}
}

func (g *grid) text(col, row int, s string, style *lipgloss.Style) {
	for _, r := range s {
		g.set(col, row, r, style)
		col++
	}
}

func (g *grid) String() string {
	var b strings.Builder
	for r, line := range g.cells {
		if r > 0 {
			b.WriteByte('\n')
		}
		start := 0
		for c := 1; c <= len(line); c++ {
			if c < len(line) && line[c].style == line[start].style {
				continue
			}
			run := make([]rune, 0, c-start)
			for _, cl := range line[start:c] {
				run = append(run, cl.r)
			}
			if style := line[start].style; style != nil {
				b.WriteString(style.Render(string(run)))
			} else {
				b.WriteString(string(run))
			}
			start = c
		}
	}
	return b.String()
}

// View implements tea.Model.
func (model Model) View() string {
	if model.quitting {
		return ""
	}
	if model.width <= 0 || model.height <= 0 {
		return "loading…"
	}
	rows := max(model.height-headerRows-footerRows, 0)
	return lipgloss.JoinVertical(lipgloss.Left,
		model.headerView(),
		model.canvasView(model.width, rows),
		model.footerView(),
	)
}

func (model Model) headerView() string {
	store := model.board.Store()
	parts := []string{"stickies", fmt.Sprintf("%d notes", store.Len())}
	if store.Dirty() {
		parts = append(parts, "unsaved")
	}
	if sel := store.Selection(); sel.Active() {
		parts = append(parts, fmt.Sprintf("select: %d", sel.Len()))
	}
	if model.busy > 0 {
		parts = append(parts, model.busyVerb+"…")
	}
	line := " " + strings.Join(parts, " · ")

	status := model.status
	statusColor := model.theme.Muted
	if model.isError {
		statusColor = model.theme.Error
	}
	if model.prompt != nil {
		status = model.prompt.message + " (y/n)"
		statusColor = model.theme.Warning
	}

	base := lipgloss.NewStyle().Background(model.theme.Header).Foreground(model.theme.Text)
	if status != "" {
		line += "  " + lipgloss.NewStyle().Background(model.theme.Header).Foreground(statusColor).Render(status)
	}
	line = xansi.Truncate(line, model.width, "…")
	return base.Width(model.width).MaxWidth(model.width).Render(line)
}

func (model Model) footerView() string {
	if model.prompt != nil {
		return model.help.ShortHelpView([]key.Binding{model.keys.Confirm, model.keys.Decline})
	}
	return model.help.ShortHelpView(model.shortHelp())
}

func (model Model) shortHelp() []key.Binding {
	keys := model.keys
	switch {
	case model.editor != nil:
		return []key.Binding{keys.Escape}
	case model.busy > 0:
		return []key.Binding{keys.FocusNext, keys.Quit}
	case model.board.Selection().Active():
		return []key.Binding{keys.Select, keys.AlignH, keys.AlignV, keys.NudgeUp, keys.Delete, keys.Escape}
	}
	keys.Save.SetEnabled(model.board.Store().Dirty())
	return []key.Binding{
		keys.Add, keys.Save, keys.Undo, keys.FocusNext, keys.Edit,
		keys.Info, keys.Pin, keys.Breakpoints, keys.SelectMode, keys.Delete, keys.Quit,
	}
}

func (model Model) canvasView(cols, rows int) string {
	g := newGrid(cols, rows)
	sel := model.board.Selection()
	for _, w := range model.visibleWidgets() {
		n, ok := w.Note()
		if !ok {
			continue
		}
		model.drawNote(g, w, n, sel.Contains(n.ID))
	}
	return g.String()
}

func (model Model) drawNote(g *grid, w *canvas.Widget, n models.Note, selected bool) {
	col, row := model.geo.cell(n.Position)

	accent := model.theme.SeverityColor(n.Severity)
	b := singleBorder
	frameColor := accent
	if selected {
		b = doubleBorder
		frameColor = model.theme.Selected
	}
	if w.Dragging() && w.OffCanvas() {
		frameColor = model.theme.Error
	}
	frame := lipgloss.NewStyle().Foreground(frameColor)
	if n.ID == model.focus {
		frame = frame.Bold(true)
	}
	body := lipgloss.NewStyle().Foreground(model.theme.Text)
	label := lipgloss.NewStyle().Foreground(accent).Bold(true)

	inner := noteCols - 2
	for r := 0; r < noteRows; r++ {
		for c := 0; c < noteCols; c++ {
			ch := ' '
			style := &body
			switch {
			case r == 0 && c == 0:
				ch, style = b.topLeft, &frame
			case r == 0 && c == noteCols-1:
				ch, style = b.topRight, &frame
			case r == noteRows-1 && c == 0:
				ch, style = b.bottomLeft, &frame
			case r == noteRows-1 && c == noteCols-1:
				ch, style = b.bottomRight, &frame
			case r == 0 || r == noteRows-1:
				ch, style = b.horizontal, &frame
			case c == 0 || c == noteCols-1:
				ch, style = b.vertical, &frame
			}
			g.set(col+c, row+r, ch, style)
		}
	}

	title := " " + string(n.Severity) + " "
	if n.Pinned {
		title += "pin "
	}
	g.text(col+2, row, title, &label)

	text := n.Text
	if model.editor != nil && model.editor.id == n.ID {
		text = model.editor.display()
	}
	for i, line := range wrapText(text, inner, noteRows-2) {
		g.text(col+1, row+1+i, line, &body)
	}
}

// wrapText word-wraps s to width and keeps at most lines lines. An overflow
// is marked on the last kept line.
func wrapText(s string, width, lines int) []string {
	wrapped := xansi.Hardwrap(xansi.Wordwrap(s, width, ""), width, true)
	out := strings.Split(wrapped, "\n")
	if len(out) > lines {
		out = out[:lines]
		out[lines-1] = xansi.Truncate(out[lines-1]+"…", width, "…")
	}
	return out
}
