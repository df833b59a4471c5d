// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Murmur notes to LLM clients via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/murmur/internal/backend"
	"github.com/starford/murmur/internal/models"
	"github.com/starford/murmur/internal/notestore"
)

const noteFormatURI = "murmur://note-format"

// NoteFormat documents the note record the tools read and write.
const NoteFormat = `# Murmur note format

A note is a JSON object:

    {"id": 1718000000000, "title": "Groceries", "content": "milk\n\n#errands", "timestamp": "2024-06-10T08:00:00Z"}

- id: positive integer assigned by Murmur on create; never changes.
- title: required, non-empty.
- content: free text; inline #tags are indexed for search.
- timestamp: refreshed on every create or update.
`

// Server wraps the MCP server with Murmur tools.
type Server struct {
	mcp    *server.MCPServer
	notes  *notestore.Store
	search backend.Searcher
}

// New creates an MCP server whose mutations go through the note store.
// search may be nil, in which case search_notes reports an error.
func New(notes *notestore.Store, search backend.Searcher) *Server {
	s := &Server{notes: notes, search: search}

	s.mcp = server.NewMCPServer(
		"Murmur",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List all notes, newest first, as id/title/timestamp."),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read one note by id."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Note id")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create a note. The id and timestamp are assigned by Murmur."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Non-empty note title")),
		mcp.WithString("content", mcp.Description("Note body")),
	), s.createNote)

	s.mcp.AddTool(mcp.NewTool("update_note",
		mcp.WithDescription("Replace the title and content of an existing note."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Note id")),
		mcp.WithString("title", mcp.Required(), mcp.Description("Non-empty note title")),
		mcp.WithString("content", mcp.Description("New note body")),
	), s.updateNote)

	s.mcp.AddTool(mcp.NewTool("delete_note",
		mcp.WithDescription("Delete a note by id."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Note id")),
	), s.deleteNote)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Full-text search through note titles, content and tags."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithNumber("limit", mcp.Description("Maximum results (default 20)")),
	), s.searchNotes)

	s.mcp.AddResource(
		mcp.NewResource(noteFormatURI, "Note Format",
			mcp.WithResourceDescription("Shape of the note records returned and accepted by the tools."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readNoteFormat,
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

type noteSummary struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Timestamp string `json:"timestamp"`
}

func (s *Server) listNotes(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.notes.GetNotes(ctx); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	notes := s.notes.Notes()
	out := make([]noteSummary, 0, len(notes))
	for _, n := range notes {
		out = append(out, noteSummary{ID: n.ID, Title: n.Title, Timestamp: n.Timestamp.Format("2006-01-02T15:04:05Z07:00")})
	}
	return jsonResult(out)
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, ok := s.find(id)
	if !ok {
		if err := s.notes.GetNotes(ctx); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		n, ok = s.find(id)
	}
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %d", id)), nil
	}
	return jsonResult(n)
}

func (s *Server) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil || title == "" {
		return mcp.NewToolResultError("title is required"), nil
	}
	content := req.GetString("content", "")

	n, err := s.notes.CreateNote(ctx, title, content)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(n)
}

func (s *Server) updateNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	title, err := req.RequireString("title")
	if err != nil || title == "" {
		return mcp.NewToolResultError("title is required"), nil
	}
	content := req.GetString("content", "")

	n, err := s.notes.UpdateNote(ctx, id, title, content)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(n)
}

func (s *Server) deleteNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.notes.DeleteNote(ctx, id); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted: %d", id)), nil
}

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.search == nil {
		return mcp.NewToolResultError("search is not available"), nil
	}
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	limit := int(req.GetFloat("limit", 20))
	results, err := s.search.SearchNotes(ctx, query, limit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(results)
}

func (s *Server) readNoteFormat(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      noteFormatURI,
			MIMEType: "text/markdown",
			Text:     NoteFormat,
		},
	}, nil
}

func (s *Server) find(id int64) (models.Note, bool) {
	for _, n := range s.notes.Notes() {
		if n.ID == id {
			return n, true
		}
	}
	return models.Note{}, false
}

func requireID(req mcp.CallToolRequest) (int64, error) {
	f, err := req.RequireFloat("id")
	if err != nil {
		return 0, err
	}
	if f < 1 || f != math.Trunc(f) || f >= math.MaxInt64 {
		return 0, fmt.Errorf("id must be a positive integer")
	}
	return int64(f), nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}
