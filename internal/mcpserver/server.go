// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Supporton console tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kazukitoyoda1215-max/Supporton/internal/apperr"
	"github.com/kazukitoyoda1215-max/Supporton/internal/console"
)

const sheetFormatURI = "supporton://sheet-format"

// Server wraps the MCP server with console tools.
type Server struct {
	mcp *server.MCPServer
	svc *console.Service
}

// New creates a new MCP server with all console tools registered.
func New(svc *console.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Supporton",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_phones",
		mcp.WithDescription("Search the phone directory. Matches name or note case-insensitively and number verbatim. "+
			"Entries typed danger must not be called back."),
		mcp.WithString("query", mcp.Description("Search text (empty lists everything)")),
	), s.searchPhones)

	s.mcp.AddTool(mcp.NewTool("browse_flow",
		mcp.WithDescription("Show a node of the support flow with its children and breadcrumbs. "+
			"Pass the ids from the root in order; an empty path shows the top level."),
		mcp.WithArray("path", mcp.WithStringItems(), mcp.Description("Node ids from the root")),
	), s.browseFlow)

	s.mcp.AddTool(mcp.NewTool("search_flow",
		mcp.WithDescription("Fuzzy search over flow node titles. Each hit carries the id path for browse_flow."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchFlow)

	s.mcp.AddTool(mcp.NewTool("export_flow_csv",
		mcp.WithDescription("Export the whole flow tree as CSV (id, parentId, title, content, template)."),
	), s.exportFlowCSV)

	s.mcp.AddTool(mcp.NewTool("sync_now",
		mcp.WithDescription("Re-fetch the flow and phone spreadsheets. Reports per-sheet failures with hints."),
	), s.syncNow)

	s.mcp.AddTool(mcp.NewTool("get_sheet_format",
		mcp.WithDescription("Returns the spreadsheet format guide. "+
			"Call this before drafting or fixing a flow, label or phone sheet."),
	), s.getSheetFormat)

	s.mcp.AddResource(
		mcp.NewResource(sheetFormatURI, "Sheet Format Guide",
			mcp.WithResourceDescription("Column layout and rules for the flow, label and phone sheets."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readSheetFormatResource,
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

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

func (s *Server) searchPhones(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.svc.Phones(req.GetString("query", ""))), nil
}

// flowView trims children to what a caller needs to pick the next step.
type flowView struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Content     string      `json:"content,omitempty"`
	Template    string      `json:"template,omitempty"`
	Breadcrumbs []string    `json:"breadcrumbs"`
	Children    []childView `json:"children"`
}

type childView struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Answer      bool   `json:"answer,omitempty"`
}

func (s *Server) browseFlow(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	view, err := s.svc.Node(req.GetStringSlice("path", nil))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError("path does not resolve; start again from an empty path"), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	out := flowView{
		ID:          view.Node.ID,
		Title:       view.Node.Title,
		Content:     view.Node.Content,
		Template:    view.Node.Template,
		Breadcrumbs: make([]string, len(view.Breadcrumbs)),
		Children:    make([]childView, len(view.Node.Children)),
	}
	for i, b := range view.Breadcrumbs {
		out.Breadcrumbs[i] = b.Title
	}
	for i, c := range view.Node.Children {
		out.Children[i] = childView{ID: c.ID, Title: c.Title, Description: c.Description, Answer: c.IsAnswer()}
	}
	return jsonResult(out), nil
}

func (s *Server) searchFlow(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	type hit struct {
		ID    string   `json:"id"`
		Title string   `json:"title"`
		Path  []string `json:"path"`
	}
	matches := s.svc.SearchFlow(query)
	hits := make([]hit, len(matches))
	for i, m := range matches {
		hits[i] = hit{ID: m.Node.ID, Title: m.Node.Title, Path: m.Path}
	}
	return jsonResult(hits), nil
}

func (s *Server) exportFlowCSV(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, err := s.svc.ExportFlowCSV()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) syncNow(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	report, err := s.svc.Sync(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("sync unavailable: %v", err)), nil
	}
	res := jsonResult(report)
	res.IsError = report.Failed()
	return res, nil
}

func (s *Server) getSheetFormat(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(SheetFormatGuide), nil
}

func (s *Server) readSheetFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      sheetFormatURI,
			MIMEType: "text/markdown",
			Text:     SheetFormatGuide,
		},
	}, nil
}
