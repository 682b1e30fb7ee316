// Package mcp provides Model Context Protocol server functionality.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/docvecdev/docvec/application/service"
	"github.com/docvecdev/docvec/domain/library"
	"github.com/docvecdev/docvec/domain/snippet"
)

// Retriever answers documentation queries for MCP tools.
type Retriever interface {
	Query(ctx context.Context, libraryName, query string, opts ...service.SearchOption) ([]snippet.Scored, error)
}

// LibraryLister lists indexed libraries for MCP tools.
type LibraryLister interface {
	List(ctx context.Context) ([]library.Library, error)
}

// Server wraps the MCP server with documentation retrieval tools.
type Server struct {
	mcpServer *server.MCPServer
	retrieval Retriever
	libraries LibraryLister
	logger    *slog.Logger
}

// NewServer creates a new MCP server with the given dependencies.
func NewServer(retrieval Retriever, libraries LibraryLister, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		retrieval: retrieval,
		libraries: libraries,
		logger:    logger,
	}

	mcpServer := server.NewMCPServer(
		"docvec",
		"0.1.0",
		server.WithToolCapabilities(true),
	)

	s.registerTools(mcpServer)

	s.mcpServer = mcpServer
	return s
}

// registerTools registers all docvec tools with the MCP server.
func (s *Server) registerTools(mcpServer *server.MCPServer) {
	docsTool := mcp.NewTool("get-library-docs",
		mcp.WithDescription("Retrieve code snippets from an indexed library's documentation, ranked by relevance to a topic"),
		mcp.WithString("library",
			mcp.Required(),
			mcp.Description("Library name in owner/repo form, e.g. gin-gonic/gin"),
		),
		mcp.WithString("topic",
			mcp.Required(),
			mcp.Description("What to look for, e.g. 'middleware error handling'"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of snippets to return"),
		),
		mcp.WithBoolean("cross_provider",
			mcp.Description("Include snippets indexed with any embedding provider"),
		),
	)
	mcpServer.AddTool(docsTool, s.handleGetLibraryDocs)

	listTool := mcp.NewTool("list-libraries",
		mcp.WithDescription("List the libraries that have been indexed and are available for retrieval"),
	)
	mcpServer.AddTool(listTool, s.handleListLibraries)
}

// handleGetLibraryDocs handles the get-library-docs tool invocation.
// Failures come back as readable tool errors, never protocol errors.
func (s *Server) handleGetLibraryDocs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	libraryName, err := request.RequireString("library")
	if err != nil {
		return mcp.NewToolResultError("library is required (owner/repo form)"), nil
	}

	topic, err := request.RequireString("topic")
	if err != nil {
		return mcp.NewToolResultError("topic is required"), nil
	}

	var opts []service.SearchOption
	if limit := request.GetInt("limit", 0); limit > 0 {
		opts = append(opts, service.WithLimit(limit))
	}
	if request.GetBool("cross_provider", false) {
		opts = append(opts, service.WithCrossProvider(true))
	}

	scored, err := s.retrieval.Query(ctx, libraryName, topic, opts...)
	if err != nil {
		s.logger.Error("documentation query failed",
			slog.String("library", libraryName),
			slog.Any("error", err))
		return mcp.NewToolResultError(fmt.Sprintf("failed to query %s: %v", libraryName, err)), nil
	}

	if len(scored) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No snippets found in %s for %q.", libraryName, topic)), nil
	}

	return mcp.NewToolResultText(formatSnippets(scored)), nil
}

// handleListLibraries handles the list-libraries tool invocation.
func (s *Server) handleListLibraries(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	libs, err := s.libraries.List(ctx)
	if err != nil {
		s.logger.Error("failed to list libraries", slog.Any("error", err))
		return mcp.NewToolResultError(fmt.Sprintf("failed to list libraries: %v", err)), nil
	}

	type libraryResult struct {
		Name         string `json:"name"`
		Description  string `json:"description"`
		CommitSHA    string `json:"commit_sha"`
		FileCount    int    `json:"file_count"`
		SnippetCount int    `json:"snippet_count"`
	}

	results := make([]libraryResult, len(libs))
	for i, lib := range libs {
		results[i] = libraryResult{
			Name:         lib.Name(),
			Description:  lib.Description(),
			CommitSHA:    lib.CommitSHA(),
			FileCount:    lib.FileCount(),
			SnippetCount: lib.SnippetCount(),
		}
	}

	jsonBytes, err := json.Marshal(results)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal results: %v", err)), nil
	}

	return mcp.NewToolResultText(string(jsonBytes)), nil
}

// formatSnippets renders scored snippets as markdown sections, best first.
func formatSnippets(scored []snippet.Scored) string {
	var b strings.Builder
	for i, sc := range scored {
		sn := sc.Snippet()
		if i > 0 {
			b.WriteString("\n----------------------------------------\n\n")
		}
		fmt.Fprintf(&b, "TITLE: %s\n", sn.Title())
		if sn.Description() != "" {
			fmt.Fprintf(&b, "DESCRIPTION: %s\n", sn.Description())
		}
		fmt.Fprintf(&b, "SOURCE: %s\n\n", sn.Path())
		fmt.Fprintf(&b, "```%s\n%s\n```\n", sn.Language(), strings.TrimRight(sn.Content(), "\n"))
	}
	return b.String()
}

// MCPServer returns the underlying MCP server for stdio or HTTP serving.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio runs the MCP server on stdio.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
