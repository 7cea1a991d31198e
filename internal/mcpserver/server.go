// Package mcpserver exposes option extraction as MCP tools over stdio.
package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/thellimist/lanemeta/internal/fetch"
	"github.com/thellimist/lanemeta/internal/nameutil"
	"github.com/thellimist/lanemeta/internal/options"
	"github.com/thellimist/lanemeta/internal/schema"
)

// Extraction is the JSON payload returned by the tools.
type Extraction struct {
	Name        string            `json:"name,omitempty"`
	Arguments   []schema.Argument `json:"arguments"`
	Diagnostics []string          `json:"diagnostics,omitempty"`
}

// Server holds the collaborators of the MCP tool handlers.
type Server struct {
	fetcher fetch.Fetcher
	logger  *slog.Logger
}

// New creates a Server. fetcher may be nil, in which case extract_source is
// not registered.
func New(fetcher fetch.Fetcher, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{fetcher: fetcher, logger: logger}
}

// MCPServer builds the MCP server with every tool registered.
func (s *Server) MCPServer(version string) *server.MCPServer {
	srv := server.NewMCPServer("lanemeta", version, server.WithToolCapabilities(false))

	srv.AddTool(
		mcp.NewTool("extract_options",
			mcp.WithDescription("Extracts the option declarations of an options.rb source and derives their argument descriptors"),
			mcp.WithString("source", mcp.Required(), mcp.Description("Ruby source text containing def self.available_options")),
			mcp.WithString("name", mcp.Description("Source name used in diagnostics")),
			mcp.WithBoolean("is_action", mcp.Description("Derive action-style formats (key:{value}) instead of tool flags")),
		),
		s.handleExtractOptions,
	)

	if s.fetcher != nil {
		srv.AddTool(
			mcp.NewTool("extract_source",
				mcp.WithDescription("Fetches an options.rb source by URL or path and derives its argument descriptors"),
				mcp.WithString("location", mcp.Required(), mcp.Description("URL or local path of the source")),
				mcp.WithBoolean("is_action", mcp.Description("Derive action-style formats (key:{value}) instead of tool flags")),
			),
			s.handleExtractSource,
		)
	}
	return srv
}

// ServeStdio serves the MCP tools on stdin/stdout until the client
// disconnects.
func (s *Server) ServeStdio(version string) error {
	if err := server.ServeStdio(s.MCPServer(version)); err != nil {
		return fmt.Errorf("mcpserver: %w", err)
	}
	return nil
}

func (s *Server) handleExtractOptions(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	source, err := request.RequireString("source")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	name := request.GetString("name", "")
	isAction := request.GetBool("is_action", false)
	return s.extract(source, name, isAction)
}

func (s *Server) handleExtractSource(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	location, err := request.RequireString("location")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	isAction := request.GetBool("is_action", false)

	text, err := s.fetcher.Fetch(ctx, location)
	if err != nil {
		s.logger.Warn("fetch failed", "location", location, "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.extract(text, nameutil.InferSourceName(location), isAction)
}

func (s *Server) extract(text, name string, isAction bool) (*mcp.CallToolResult, error) {
	props, errs := options.Parse(text, name, isAction)

	out := Extraction{Name: name, Arguments: schema.DeriveAll(props)}
	for _, err := range errs {
		out.Diagnostics = append(out.Diagnostics, err.Error())
	}
	s.logger.Debug("extracted options", "source", name, "arguments", len(out.Arguments), "diagnostics", len(out.Diagnostics))

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return nil, fmt.Errorf("marshal extraction: %w", err)
	}
	return mcp.NewToolResultText(buf.String()), nil
}
