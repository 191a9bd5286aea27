// Package tui is the terminal host for the note canvas: a bubbletea model
// that turns mouse and keyboard input into board operations and renders the
// notes as boxes on a cell grid.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/starford/stickies/internal/canvas"
	"github.com/starford/stickies/internal/models"
)

// loadedMsg carries the result of a Load started by the model.
type loadedMsg struct {
	notes []models.Note
	err   error
}

// committedMsg carries the result of a Commit started by the model.
type committedMsg struct {
	snapshot canvas.Snapshot
	err      error
}

// externalChangeMsg reports that someone else changed the stored collection.
type externalChangeMsg struct{}

// prompt is a yes/no question that captures all input until answered.
type prompt struct {
	message string
	answer  func(model *Model, yes bool) tea.Cmd
}

// Option configures a Model.
type Option func(*Model)

// WithKeyMap replaces the key bindings.
func WithKeyMap(keys KeyMap) Option {
	return func(m *Model) { m.keys = keys }
}

// WithTheme replaces the color scheme.
func WithTheme(theme Theme) Option {
	return func(m *Model) { m.theme = theme }
}

// WithCellSize sets how many canvas pixels one terminal cell covers.
func WithCellSize(width, height int) Option {
	return func(m *Model) {
		if width > 0 && height > 0 {
			m.geo = geometry{cellWidth: width, cellHeight: height}
		}
	}
}

// WithTimeout bounds every Load and Commit the model starts.
func WithTimeout(d time.Duration) Option {
	return func(m *Model) { m.timeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Model) { m.logger = l }
}

// WithChanges subscribes the model to external change notifications.
func WithChanges(ch <-chan struct{}) Option {
	return func(m *Model) { m.changes = ch }
}

// Model is the bubbletea model for the board.
type Model struct {
	board   *canvas.Board
	keys    KeyMap
	theme   Theme
	help    help.Model
	geo     geometry
	timeout time.Duration
	logger  *slog.Logger
	changes <-chan struct{}

	width  int
	height int

	focus    string  // id of the focused note
	dragID   string  // id of the note under an active drag
	editor   *editor // non-nil while a note's text is being edited
	prompt   *prompt // non-nil while a question is open
	busy     int     // loads and commits in flight
	busyVerb string
	status   string
	isError  bool
	initLoad bool
	quitting bool
}

// NewModel creates a model bound to board.
func NewModel(board *canvas.Board, opts ...Option) Model {
	model := Model{
		board:   board,
		keys:    DefaultKeyMap,
		theme:   DefaultTheme,
		help:    help.New(),
		geo:     geometry{cellWidth: 10, cellHeight: 20},
		timeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(&model)
	}
	if model.logger == nil {
		model.logger = slog.Default()
	}
	// The first mount of an empty store always schedules one load.
	if board.Store().PendingReload() {
		model.initLoad = true
		model.busy++
		model.busyVerb = "loading"
	}
	return model
}

// Init implements tea.Model.
func (model Model) Init() tea.Cmd {
	var commands []tea.Cmd
	if model.initLoad {
		commands = append(commands, model.loadCmd())
	}
	if model.changes != nil {
		commands = append(commands, listenForChanges(model.changes))
	}
	return tea.Batch(commands...)
}

// listenForChanges blocks until the change channel fires.
func listenForChanges(channel <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-channel; !ok {
			return nil
		}
		return externalChangeMsg{}
	}
}

// Update implements tea.Model.
func (model Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	var command tea.Cmd
	switch message := message.(type) {
	case tea.WindowSizeMsg:
		model.width = message.Width
		model.height = message.Height
		model.help.Width = message.Width

	case tea.KeyMsg:
		command = model.handleKey(message)

	case tea.MouseMsg:
		command = model.handleMouse(message)

	case loadedMsg:
		model.busy--
		if err := model.board.Store().ApplyLoad(message.notes, message.err); err != nil {
			model.setError(fmt.Sprintf("load failed: %v", err))
		} else {
			model.setStatus(fmt.Sprintf("loaded %d notes", model.board.Store().Len()))
		}
		model.afterCollectionChange()

	case committedMsg:
		model.busy--
		store := model.board.Store()
		switch err := store.ApplyCommit(message.snapshot, message.err); {
		case err != nil:
			model.setError(fmt.Sprintf("save failed: %v", err))
		case store.Dirty():
			model.setStatus(fmt.Sprintf("saved %d notes; newer edits unsaved", len(message.snapshot.Notes)))
		default:
			model.setStatus(fmt.Sprintf("saved %d notes", len(message.snapshot.Notes)))
		}

	case externalChangeMsg:
		command = model.handleExternalChange()
		if model.changes != nil {
			command = tea.Batch(listenForChanges(model.changes), command)
		}
	}

	if model.quitting {
		return model, command
	}
	if model.board.Store().PendingReload() {
		command = tea.Batch(command, model.load())
	}
	return model, command
}

func (model *Model) handleExternalChange() tea.Cmd {
	store := model.board.Store()
	if store.Dirty() || model.busy > 0 || model.dragID != "" || model.editor != nil || model.prompt != nil {
		model.setStatus("stored notes changed elsewhere; u to reload")
		return nil
	}
	model.logger.Info("tui: reloading after external change", slog.String("key", store.Key()))
	return model.load()
}

func (model *Model) handleKey(message tea.KeyMsg) tea.Cmd {
	keys := model.keys

	if model.prompt != nil {
		switch {
		case key.Matches(message, keys.Confirm):
			return model.answerPrompt(true)
		case key.Matches(message, keys.Decline):
			return model.answerPrompt(false)
		}
		return nil
	}

	if message.Type == tea.KeyCtrlC {
		model.quitting = true
		return tea.Quit
	}

	if model.editor != nil {
		if key.Matches(message, keys.Escape) {
			model.finishEdit()
			return nil
		}
		if w, ok := model.board.Widget(model.editor.id); ok && model.editor.update(message) {
			w.SetText(model.editor.value())
		}
		return nil
	}

	if model.dragID != "" {
		if key.Matches(message, keys.Escape) {
			if w, ok := model.board.Widget(model.dragID); ok {
				w.CancelDrag()
			}
			model.dragID = ""
			model.setStatus("drag cancelled")
		}
		return nil
	}

	// The collection stays untouched while a load or commit is outstanding.
	if model.busy > 0 && !key.Matches(message, keys.Quit, keys.FocusNext) {
		model.setBusyHint()
		return nil
	}

	selection := model.board.Selection()
	switch {
	case key.Matches(message, keys.Quit):
		model.quitting = true
		return tea.Quit

	case key.Matches(message, keys.Add):
		w := model.board.AddNote()
		model.focus = w.ID()
		model.setStatus("note added")

	case key.Matches(message, keys.Save):
		return model.commit()

	case key.Matches(message, keys.Undo):
		model.finishEdit()
		model.setStatus("reverting to stored notes")
		return model.load()

	case key.Matches(message, keys.FocusNext):
		model.focusNext()

	case key.Matches(message, keys.SelectMode):
		model.board.ToggleSelectMode(!selection.Active())
		if selection.Active() {
			model.setStatus("select mode: space or click to select")
		} else {
			model.setStatus("")
		}

	case key.Matches(message, keys.Escape):
		if selection.Active() {
			model.board.ToggleSelectMode(false)
			model.setStatus("")
		}

	case selection.Active() && key.Matches(message, keys.Select):
		if model.focus != "" {
			model.board.ToggleSelect(model.focus)
		}

	case selection.Active() && key.Matches(message, keys.AlignH):
		model.align(canvas.AxisX)

	case selection.Active() && key.Matches(message, keys.AlignV):
		model.align(canvas.AxisY)

	case selection.Active() && key.Matches(message, keys.NudgeUp):
		model.nudge(canvas.DirUp)
	case selection.Active() && key.Matches(message, keys.NudgeDown):
		model.nudge(canvas.DirDown)
	case selection.Active() && key.Matches(message, keys.NudgeLeft):
		model.nudge(canvas.DirLeft)
	case selection.Active() && key.Matches(message, keys.NudgeRight):
		model.nudge(canvas.DirRight)

	case key.Matches(message, keys.Delete):
		model.askDelete()

	default:
		model.handleNoteKey(message, keys)
	}
	return nil
}

// handleNoteKey applies keys that change the focused note.
func (model *Model) handleNoteKey(message tea.KeyMsg, keys KeyMap) {
	w, ok := model.focused()
	if !ok {
		return
	}
	note, _ := w.Note()
	switch {
	case key.Matches(message, keys.Edit):
		if !w.Editing() {
			w.ToggleEdit()
		}
		if w.Editing() {
			model.editor = newEditor(w.ID(), note.Text)
		}
	case key.Matches(message, keys.Pin):
		w.SetPinned(!note.Pinned)
	case key.Matches(message, keys.Breakpoints):
		cycleBreakpoints(w, note)
	case key.Matches(message, keys.Info):
		w.SetSeverity(models.SeverityInfo)
	case key.Matches(message, keys.Warning):
		w.SetSeverity(models.SeverityWarning)
	case key.Matches(message, keys.Error):
		w.SetSeverity(models.SeverityError)
	case key.Matches(message, keys.Success):
		w.SetSeverity(models.SeveritySuccess)
	}
}

// cycleBreakpoints steps visibility through all → small → large → all.
func cycleBreakpoints(w *canvas.Widget, note models.Note) {
	small := note.HasBreakpoint(models.BreakpointSmall)
	large := note.HasBreakpoint(models.BreakpointLarge)
	switch {
	case !small && !large:
		w.ToggleBreakpoint(models.BreakpointSmall)
	case small && !large:
		w.ToggleBreakpoint(models.BreakpointSmall)
		w.ToggleBreakpoint(models.BreakpointLarge)
	case large && !small:
		w.ToggleBreakpoint(models.BreakpointLarge)
	default:
		w.ToggleBreakpoint(models.BreakpointSmall)
		w.ToggleBreakpoint(models.BreakpointLarge)
	}
}

func (model *Model) handleMouse(message tea.MouseMsg) tea.Cmd {
	if model.prompt != nil {
		return nil
	}
	col, row := message.X, message.Y-headerRows
	pointer := model.geo.pointer(col, row)

	switch message.Action {
	case tea.MouseActionPress:
		if message.Button != tea.MouseButtonLeft {
			return nil
		}
		if model.busy > 0 {
			model.setBusyHint()
			return nil
		}
		w, ok := model.hit(col, row)
		if !ok {
			return nil
		}
		if model.editor != nil && model.editor.id != w.ID() {
			model.finishEdit()
		}
		model.focus = w.ID()
		if model.board.Selection().Active() {
			model.board.ToggleSelect(w.ID())
			return nil
		}
		if w.PointerPress(pointer) {
			model.dragID = w.ID()
		}

	case tea.MouseActionMotion:
		if model.dragID == "" {
			return nil
		}
		if w, ok := model.board.Widget(model.dragID); ok {
			w.PointerMove(pointer)
		}

	case tea.MouseActionRelease:
		if model.dragID == "" {
			return nil
		}
		w, ok := model.board.Widget(model.dragID)
		model.dragID = ""
		if !ok {
			return nil
		}
		if !w.OffCanvas() {
			w.ReleaseWith(nil)
			return nil
		}
		// The gesture stays open until the question is answered.
		model.prompt = &prompt{
			message: canvas.DeletePrompt,
			answer: func(model *Model, yes bool) tea.Cmd {
				res := w.ReleaseWith(answer(yes))
				if res.Outcome == canvas.ReleaseDeleted {
					model.setStatus("note deleted")
				} else {
					model.setStatus("note kept")
				}
				model.afterCollectionChange()
				return nil
			},
		}
	}
	return nil
}

// answer returns a confirm primitive that always gives yes.
func answer(yes bool) canvas.ConfirmFunc {
	return func(string) bool { return yes }
}

func (model *Model) answerPrompt(yes bool) tea.Cmd {
	p := model.prompt
	model.prompt = nil
	return p.answer(model, yes)
}

func (model *Model) askDelete() {
	selection := model.board.Selection()
	if selection.Active() && selection.Len() > 0 {
		n := selection.Len()
		model.prompt = &prompt{
			message: fmt.Sprintf("Delete %d selected notes?", n),
			answer: func(model *Model, yes bool) tea.Cmd {
				if removed := model.board.DeleteSelected(answer(yes)); removed > 0 {
					model.setStatus(fmt.Sprintf("deleted %d notes", removed))
				}
				model.afterCollectionChange()
				return nil
			},
		}
		return
	}
	w, ok := model.focused()
	if !ok {
		return
	}
	model.prompt = &prompt{
		message: canvas.DeletePrompt,
		answer: func(model *Model, yes bool) tea.Cmd {
			if w.DeleteWith(answer(yes)) {
				model.setStatus("note deleted")
			}
			model.afterCollectionChange()
			return nil
		},
	}
}

func (model *Model) align(axis canvas.Axis) {
	n := model.board.Selection().Len()
	if err := model.board.Align(axis); err != nil {
		model.setError(fmt.Sprintf("align: %v", err))
		return
	}
	model.setStatus(fmt.Sprintf("aligned %d notes", n))
}

// nudge moves every selected note, or the focused note when nothing is
// selected.
func (model *Model) nudge(dir canvas.Direction) {
	ids := model.board.Selection().IDs()
	if len(ids) == 0 && model.focus != "" {
		ids = []string{model.focus}
	}
	for _, id := range ids {
		if w, ok := model.board.Widget(id); ok {
			w.Nudge(dir)
		}
	}
}

func (model *Model) finishEdit() {
	if model.editor == nil {
		return
	}
	if w, ok := model.board.Widget(model.editor.id); ok && w.Editing() {
		w.ToggleEdit()
	}
	model.editor = nil
}

func (model *Model) focused() (*canvas.Widget, bool) {
	if model.focus == "" {
		return nil, false
	}
	return model.board.Widget(model.focus)
}

func (model *Model) focusNext() {
	visible := model.visibleWidgets()
	if len(visible) == 0 {
		model.focus = ""
		return
	}
	for i, w := range visible {
		if w.ID() == model.focus {
			model.focus = visible[(i+1)%len(visible)].ID()
			return
		}
	}
	model.focus = visible[0].ID()
}

// afterCollectionChange drops references to notes that no longer exist.
func (model *Model) afterCollectionChange() {
	widgets := model.board.Widgets()
	if model.editor != nil {
		if _, ok := model.board.Widget(model.editor.id); !ok {
			model.editor = nil
		}
	}
	if _, ok := model.focused(); !ok {
		model.focus = ""
		if len(widgets) > 0 {
			model.focus = widgets[len(widgets)-1].ID()
		}
	}
}

// visibleWidgets returns the widgets shown at the current width, in z-order.
func (model *Model) visibleWidgets() []*canvas.Widget {
	bp := breakpointFor(model.width)
	var out []*canvas.Widget
	for _, w := range model.board.Widgets() {
		if n, ok := w.Note(); ok && n.VisibleAt(bp) {
			out = append(out, w)
		}
	}
	return out
}

// hit returns the topmost visible note covering the cell.
func (model *Model) hit(col, row int) (*canvas.Widget, bool) {
	visible := model.visibleWidgets()
	for i := len(visible) - 1; i >= 0; i-- {
		n, _ := visible[i].Note()
		if model.geo.contains(n.Position, col, row) {
			return visible[i], true
		}
	}
	return nil, false
}

func (model *Model) load() tea.Cmd {
	model.busy++
	model.busyVerb = "loading"
	return model.loadCmd()
}

func (model Model) loadCmd() tea.Cmd {
	store := model.board.Store()
	p, storeKey, timeout := store.Persistence(), store.Key(), model.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		notes, err := p.Load(ctx, storeKey)
		return loadedMsg{notes: notes, err: err}
	}
}

func (model *Model) commit() tea.Cmd {
	store := model.board.Store()
	if !store.Dirty() {
		model.setStatus("nothing to save")
		return nil
	}
	model.finishEdit()
	snapshot := store.CommitSnapshot()
	model.busy++
	model.busyVerb = "saving"
	p, storeKey, timeout := store.Persistence(), store.Key(), model.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		err := p.Commit(ctx, storeKey, snapshot.Notes)
		return committedMsg{snapshot: snapshot, err: err}
	}
}

func (model *Model) setStatus(s string) {
	model.status = s
	model.isError = false
}

func (model *Model) setBusyHint() {
	model.setStatus(model.busyVerb + " in progress; wait for it to finish")
}

func (model *Model) setError(s string) {
	model.status = s
	model.isError = true
	model.logger.Warn("tui: "+s, slog.String("key", model.board.Store().Key()))
}
