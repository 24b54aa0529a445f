// ABOUTME: MCP resource implementations for the reconciled health view.
// ABOUTME: Provides healthhub://summary/recent and healthhub://events/recent.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) registerResources() {
	// healthhub://summary/recent - last 30 days snapshot for the default user
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         "healthhub://summary/recent",
		Name:        "Recent Health Summary",
		Description: "Period snapshot of the last 30 days of canonical health data",
		MIMEType:    "application/json",
	}, s.handleSummaryResource)

	// healthhub://events/recent - last 10 events for the default user
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         "healthhub://events/recent",
		Name:        "Recent Health Events",
		Description: "Last 10 workouts, sleep sessions, and meals",
		MIMEType:    "application/json",
	}, s.handleRecentEventsResource)
}

// Resource handlers

func (s *Server) handleSummaryResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -30)

	summary, err := s.queries.Summarize(ctx, s.defaultUser, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize: %w", err)
	}

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal summary: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      "healthhub://summary/recent",
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

func (s *Server) handleRecentEventsResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	events, err := s.repo.ListEvents(ctx, s.defaultUser, time.Time{}, time.Time{}, nil, 10)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	result := map[string]interface{}{
		"events": events,
		"count":  len(events),
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      "healthhub://events/recent",
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
