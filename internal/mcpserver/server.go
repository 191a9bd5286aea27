// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the sticky-note board as tools over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/stickies/internal/apperr"
	"github.com/starford/stickies/internal/canvas"
	"github.com/starford/stickies/internal/models"
)

// Server wraps the MCP server with the note tools. Every tool call loads
// the collection, applies one engine operation and commits the result.
type Server struct {
	mcp     *server.MCPServer
	persist canvas.Persistence
	key     string
	logger  *slog.Logger

	// Serializes load → mutate → commit cycles.
	mu sync.Mutex
}

// New creates a new MCP server bound to the collection stored under key.
func New(p canvas.Persistence, key string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{persist: p, key: key, logger: logger}

	s.mcp = server.NewMCPServer(
		"Stickies",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List every sticky note on the board in z-order (last is on top)."),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("add_note",
		mcp.WithDescription("Add a sticky note. Unset fields take the defaults of a freshly added note. "+
			"Read the note format via the stickies://note-format resource first."),
		mcp.WithString("text", mcp.Description("Note text, at most 300 characters")),
		mcp.WithString("severity", mcp.Description("Color class"), mcp.Enum(severityNames()...)),
		mcp.WithNumber("x", mcp.Description("Horizontal canvas position in pixels")),
		mcp.WithNumber("y", mcp.Description("Vertical canvas position in pixels")),
		mcp.WithBoolean("pinned", mcp.Description("Pinned flag")),
	), s.addNote)

	s.mcp.AddTool(mcp.NewTool("update_note",
		mcp.WithDescription("Change fields of an existing note. Only the given fields are modified."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
		mcp.WithString("text", mcp.Description("New text, at most 300 characters")),
		mcp.WithString("severity", mcp.Description("Color class"), mcp.Enum(severityNames()...)),
		mcp.WithNumber("x", mcp.Description("Horizontal canvas position in pixels")),
		mcp.WithNumber("y", mcp.Description("Vertical canvas position in pixels")),
		mcp.WithBoolean("pinned", mcp.Description("Pinned flag")),
		mcp.WithArray("visible_breakpoints",
			mcp.Description("Breakpoints the note is shown at; empty means everywhere"),
			mcp.WithStringEnumItems([]string{string(models.BreakpointSmall), string(models.BreakpointLarge)}),
		),
	), s.updateNote)

	s.mcp.AddTool(mcp.NewTool("delete_notes",
		mcp.WithDescription("Delete notes by id."),
		mcp.WithArray("ids", mcp.Required(), mcp.Description("Ids of the notes to delete"), mcp.WithStringItems()),
	), s.deleteNotes)

	s.mcp.AddTool(mcp.NewTool("align_notes",
		mcp.WithDescription("Align notes on one axis. Every listed note takes the coordinate of the first one. "+
			"At least two ids are required."),
		mcp.WithArray("ids", mcp.Required(), mcp.Description("Ids of the notes to align; the first is the anchor"), mcp.WithStringItems()),
		mcp.WithString("axis", mcp.Required(), mcp.Description("x (horizontal) or y (vertical)"), mcp.Enum("x", "y", "horizontal", "vertical")),
	), s.alignNotes)

	s.mcp.AddTool(mcp.NewTool("get_note_contract",
		mcp.WithDescription("Returns the sticky note record format. "+
			"Call this before adding or updating notes."),
	), s.getNoteContract)

	// Resource: note format contract.
	s.mcp.AddResource(
		mcp.NewResource(contractURI, "Note Format Contract",
			mcp.WithResourceDescription("JSON record format of a sticky note."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readNoteFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func severityNames() []string {
	out := make([]string, len(models.Severities))
	for i, sev := range models.Severities {
		out[i] = string(sev)
	}
	return out
}

// transact loads the collection, runs fn and commits when fn reports a
// change. The loaded collection is never committed after a failed load.
func (s *Server) transact(ctx context.Context, fn func(store *canvas.Store) (bool, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	store := canvas.NewStore(s.persist, s.key, canvas.WithLogger(s.logger))
	if err := store.Load(ctx); err != nil {
		return err
	}
	changed, err := fn(store)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	if err := store.Commit(ctx); err != nil {
		return err
	}
	s.logger.Info("mcp: committed notes", slog.String("key", s.key), slog.Int("notes", store.Len()))
	return nil
}

func jsonResult(v any) *mcp.CallToolResult {
	out, _ := json.MarshalIndent(v, "", "  ")
	return mcp.NewToolResultText(string(out))
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var notes []models.Note
	err := s.transact(ctx, func(store *canvas.Store) (bool, error) {
		notes = store.Notes()
		return false, nil
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(notes), nil
}

// applyFields copies the optional note fields present in the request.
func applyFields(req mcp.CallToolRequest, n *models.Note) error {
	args := req.GetArguments()
	if _, ok := args["text"]; ok {
		n.Text = models.TruncateText(req.GetString("text", n.Text))
	}
	if _, ok := args["severity"]; ok {
		sev := models.Severity(req.GetString("severity", ""))
		if !models.ValidSeverity(sev) {
			return fmt.Errorf("%w: unknown severity %q", apperr.ErrInvalidNote, sev)
		}
		n.Severity = sev
	}
	n.Position.X = req.GetInt("x", n.Position.X)
	n.Position.Y = req.GetInt("y", n.Position.Y)
	n.Pinned = req.GetBool("pinned", n.Pinned)
	if _, ok := args["visible_breakpoints"]; ok {
		bps := req.GetStringSlice("visible_breakpoints", nil)
		n.VisibleBreakpoints = nil
		for _, bp := range bps {
			b := models.Breakpoint(bp)
			if !n.HasBreakpoint(b) {
				*n = n.ToggleBreakpoint(b)
			}
		}
	}
	if err := n.Validate(); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrInvalidNote, err)
	}
	return nil
}

func (s *Server) addNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var (
		st *canvas.Store
		id string
	)
	err := s.transact(ctx, func(store *canvas.Store) (bool, error) {
		n := store.AddNote()
		if err := applyFields(req, &n); err != nil {
			return false, err
		}
		store.UpdateNote(n)
		st, id = store, n.ID
		return true, nil
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	added, _ := st.Note(id)
	return jsonResult(added), nil
}

func (s *Server) updateNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var st *canvas.Store
	err = s.transact(ctx, func(store *canvas.Store) (bool, error) {
		n, ok := store.Note(id)
		if !ok {
			return false, fmt.Errorf("%w: %s", apperr.ErrUnknownNote, id)
		}
		if err := applyFields(req, &n); err != nil {
			return false, err
		}
		st = store
		return store.UpdateNote(n), nil
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	updated, _ := st.Note(id)
	return jsonResult(updated), nil
}

func (s *Server) deleteNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids, err := req.RequireStringSlice("ids")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var removed int
	err = s.transact(ctx, func(store *canvas.Store) (bool, error) {
		removed = store.DeleteNotes(ids...)
		return removed > 0, nil
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted: %d", removed)), nil
}

func (s *Server) alignNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids, err := req.RequireStringSlice("ids")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rawAxis, err := req.RequireString("axis")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	axis, err := canvas.ParseAxis(rawAxis)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	err = s.transact(ctx, func(store *canvas.Store) (bool, error) {
		sel := store.Selection()
		sel.ToggleSelectMode(true)
		for _, id := range ids {
			if _, ok := store.Note(id); !ok {
				return false, fmt.Errorf("%w: %s", apperr.ErrUnknownNote, id)
			}
			if !sel.Contains(id) {
				sel.ToggleSelect(id)
			}
		}
		if err := store.Align(axis); err != nil {
			return false, err
		}
		return true, nil
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("aligned %d notes on %s", len(ids), axis)), nil
}

func (s *Server) getNoteContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(NoteFormatContract), nil
}

func (s *Server) readNoteFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      contractURI,
			MIMEType: "text/markdown",
			Text:     NoteFormatContract,
		},
	}, nil
}
