package tui

import (
	"github.com/starford/stickies/internal/canvas"
	"github.com/starford/stickies/internal/models"
)

// Note boxes have a fixed size in terminal cells, borders included.
const (
	noteCols = 24
	noteRows = 6

	headerRows = 1
	footerRows = 1

	// smallBreakpointCols is the terminal width below which the board
	// counts as a small screen for note visibility.
	smallBreakpointCols = 100
)

// geometry converts between terminal cells and canvas pixels.
type geometry struct {
	cellWidth  int
	cellHeight int
}

func (g geometry) pointer(col, row int) canvas.Point {
	return canvas.Point{X: col * g.cellWidth, Y: row * g.cellHeight}
}

// cell returns the top-left cell of a note at pos. Negative positions round
// toward negative infinity so a note just past the left edge starts off-screen.
func (g geometry) cell(pos models.Position) (col, row int) {
	return floorDiv(pos.X, g.cellWidth), floorDiv(pos.Y, g.cellHeight)
}

func (g geometry) contains(pos models.Position, col, row int) bool {
	c, r := g.cell(pos)
	return col >= c && col < c+noteCols && row >= r && row < r+noteRows
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func breakpointFor(width int) models.Breakpoint {
	if width < smallBreakpointCols {
		return models.BreakpointSmall
	}
	return models.BreakpointLarge
}
