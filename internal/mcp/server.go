// ABOUTME: MCP server exposing the reconciled health view to AI assistants.
// ABOUTME: Wraps the query engine, export formatter, and chunk cache.
package mcp

import (
	"context"
	"time"

	"github.com/harperreed/healthhub/internal/chunkstore"
	"github.com/harperreed/healthhub/internal/export"
	"github.com/harperreed/healthhub/internal/query"
	"github.com/harperreed/healthhub/internal/storage"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server wraps the MCP server with read access to the reconciled store.
// Tools are read-only: ingestion and canonicalization stay on the CLI/batch
// side of the boundary.
type Server struct {
	mcpServer   *mcp.Server
	repo        storage.Repository
	queries     *query.Engine
	formatter   *export.Formatter
	cache       *chunkstore.Store
	defaultUser string
}

// Options configures the MCP server.
type Options struct {
	// DefaultUser is used when a tool call omits user_id.
	DefaultUser string
	// MaxChunkSize is the export chunk budget.
	MaxChunkSize int
	// Cache is optional; when nil, export always recomputes.
	Cache *chunkstore.Store
}

// NewServer creates a new MCP server over the given store.
func NewServer(repo storage.Repository, opts Options) (*Server, error) {
	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "healthhub",
			Version: "1.0.0",
		},
		nil,
	)

	s := &Server{
		mcpServer:   mcpServer,
		repo:        repo,
		queries:     query.NewEngine(repo),
		formatter:   export.NewFormatter(opts.MaxChunkSize),
		cache:       opts.Cache,
		defaultUser: opts.DefaultUser,
	}
	if s.defaultUser == "" {
		s.defaultUser = "default"
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Serve starts the MCP server using stdio transport.
func (s *Server) Serve(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}

// user resolves the effective user id for a tool call.
func (s *Server) user(userID string) string {
	if userID == "" {
		return s.defaultUser
	}
	return userID
}

// parseDate accepts YYYY-MM-DD or RFC 3339 timestamps.
func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}

// parseRange resolves start/end strings, defaulting to the last 30 days.
func parseRange(startStr, endStr string) (time.Time, time.Time, error) {
	now := time.Now().UTC()
	start := now.AddDate(0, 0, -30)
	end := now

	if startStr != "" {
		t, err := parseDate(startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		start = t
	}
	if endStr != "" {
		t, err := parseDate(endStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		end = t
	}
	return start, end, nil
}
