package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"stickycheck/internal/store"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Server exposes the notes to MCP clients. All tools are read-only.
type Server struct {
	store store.Store
}

func NewMCPServer(s store.Store) *Server {
	return &Server{store: s}
}

func (s *Server) listNotesHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	notes, err := s.store.ListNotes(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("database error: %v", err)), nil
	}

	if len(notes) == 0 {
		return mcp.NewToolResultText("No notes yet."), nil
	}

	lines := make([]string, 0, len(notes))
	for _, n := range notes {
		completed, total := n.Progress()
		lines = append(lines, fmt.Sprintf("[%d] %s (%d/%d completed)", n.ID, n.Title, completed, total))
	}

	return mcp.NewToolResultText(fmt.Sprintf("Found %d notes:\n%s", len(notes), strings.Join(lines, "\n"))), nil
}

func (s *Server) getNoteHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	noteID, err := request.RequireInt("note_id")
	if err != nil {
		return mcp.NewToolResultError("note_id is required"), nil
	}

	note, err := s.store.GetNote(ctx, int64(noteID))
	if errors.Is(err, store.ErrNotFound) {
		return mcp.NewToolResultError("note not found"), nil
	} else if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("database error: %v", err)), nil
	}

	var b strings.Builder
	completed, total := note.Progress()
	fmt.Fprintf(&b, "%s (%d/%d completed)\n", note.Title, completed, total)
	if total == 0 {
		b.WriteString("No items yet.")
	}
	for _, it := range note.Items {
		mark := " "
		if it.Completed {
			mark = "x"
		}
		fmt.Fprintf(&b, "[%s] %s\n", mark, it.Text)
	}

	return mcp.NewToolResultText(strings.TrimRight(b.String(), "\n")), nil
}

// Handler builds the stateless streamable HTTP endpoint.
func (s *Server) Handler() *server.StreamableHTTPServer {
	mcpServer := server.NewMCPServer("StickyCheck", "1.0.0")

	listTool := mcp.NewTool("list_notes",
		mcp.WithDescription("List every note with its checklist progress."),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	getTool := mcp.NewTool("get_note",
		mcp.WithDescription("Show one note's checklist items and whether each is completed."),
		mcp.WithNumber("note_id", mcp.Required(), mcp.Description("Numeric id of the note, as shown by list_notes")),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	mcpServer.AddTool(listTool, s.listNotesHandler)
	mcpServer.AddTool(getTool, s.getNoteHandler)

	return server.NewStreamableHTTPServer(mcpServer, server.WithStateLess(true))
}
