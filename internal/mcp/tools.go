// ABOUTME: MCP tool implementations over the reconciled health view.
// ABOUTME: Time series, correlation, daily metrics, events, search, summary, export.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/harperreed/healthhub/internal/chunkstore"
	"github.com/harperreed/healthhub/internal/export"
	"github.com/harperreed/healthhub/internal/models"
	"github.com/harperreed/healthhub/internal/query"
	"github.com/harperreed/healthhub/internal/registry"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_time_series",
		Description: "Get a time series for one metric type, optionally bucketed (bucket values are averages)",
	}, s.handleTimeSeries)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "correlate_metrics",
		Description: "Align several metric types on a shared date axis for correlation analysis",
	}, s.handleCorrelate)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_daily_metrics",
		Description: "Get pre-aggregated daily metric rows for a date range",
	}, s.handleDailyMetrics)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_health_events",
		Description: "List workouts, sleep sessions, and meals in a date range, newest first",
	}, s.handleHealthEvents)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "search_health_data",
		Description: "Full-text search over measurement descriptions and event titles",
	}, s.handleSearch)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_health_summary",
		Description: "Get a period snapshot: averages, totals, event counts, and day coverage",
	}, s.handleSummary)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "export_context",
		Description: "Export the period as bounded text chunks for retrieval-augmented prompting",
	}, s.handleExportContext)
}

// Tool input/output types

type timeSeriesInput struct {
	UserID      string `json:"user_id,omitempty" jsonschema:"User id (defaults to the configured user)"`
	MetricType  string `json:"metric_type" jsonschema:"Canonical metric type (steps, weight, heart_rate, sleep_hours, protein_g, ...)"`
	Start       string `json:"start,omitempty" jsonschema:"Start date (YYYY-MM-DD), defaults to 30 days ago"`
	End         string `json:"end,omitempty" jsonschema:"End date (YYYY-MM-DD), defaults to today"`
	Aggregation string `json:"aggregation,omitempty" jsonschema:"Bucket interval: none, hourly, daily, weekly, monthly"`
	Limit       int    `json:"limit,omitempty" jsonschema:"Max points returned"`
}

type timeSeriesOutput struct {
	MetricType string        `json:"metric_type"`
	Unit       string        `json:"unit"`
	Points     []query.Point `json:"points"`
}

type correlateInput struct {
	UserID      string   `json:"user_id,omitempty" jsonschema:"User id (defaults to the configured user)"`
	MetricTypes []string `json:"metric_types" jsonschema:"Canonical metric types to align"`
	Start       string   `json:"start,omitempty" jsonschema:"Start date (YYYY-MM-DD)"`
	End         string   `json:"end,omitempty" jsonschema:"End date (YYYY-MM-DD)"`
}

type correlateOutput struct {
	Rows []query.CorrelationRow `json:"rows"`
}

type dailyMetricsInput struct {
	UserID string `json:"user_id,omitempty" jsonschema:"User id (defaults to the configured user)"`
	Start  string `json:"start,omitempty" jsonschema:"Start date (YYYY-MM-DD)"`
	End    string `json:"end,omitempty" jsonschema:"End date (YYYY-MM-DD)"`
}

type dailyMetricsOutput struct {
	Days []*models.DailyAggregate `json:"days"`
}

type healthEventsInput struct {
	UserID     string   `json:"user_id,omitempty" jsonschema:"User id (defaults to the configured user)"`
	Start      string   `json:"start,omitempty" jsonschema:"Start date (YYYY-MM-DD)"`
	End        string   `json:"end,omitempty" jsonschema:"End date (YYYY-MM-DD)"`
	EventTypes []string `json:"event_types,omitempty" jsonschema:"Filter by event type (workout, sleep, meal)"`
}

type healthEventsOutput struct {
	Events []*models.HealthEvent `json:"events"`
}

type searchInput struct {
	UserID string `json:"user_id,omitempty" jsonschema:"User id (defaults to the configured user)"`
	Query  string `json:"query" jsonschema:"Substring to search for (case-insensitive)"`
	Scope  string `json:"scope,omitempty" jsonschema:"Search scope: all, records, events"`
}

type summaryInput struct {
	UserID string `json:"user_id,omitempty" jsonschema:"User id (defaults to the configured user)"`
	Start  string `json:"start,omitempty" jsonschema:"Start date (YYYY-MM-DD)"`
	End    string `json:"end,omitempty" jsonschema:"End date (YYYY-MM-DD)"`
}

type exportContextInput struct {
	UserID string `json:"user_id,omitempty" jsonschema:"User id (defaults to the configured user)"`
	Start  string `json:"start,omitempty" jsonschema:"Start date (YYYY-MM-DD)"`
	End    string `json:"end,omitempty" jsonschema:"End date (YYYY-MM-DD)"`
}

type exportContextOutput struct {
	Chunks []export.Chunk `json:"chunks"`
	Cached bool           `json:"cached"`
}

// Tool handlers

func (s *Server) handleTimeSeries(ctx context.Context, req *mcp.CallToolRequest, input timeSeriesInput) (*mcp.CallToolResult, timeSeriesOutput, error) {
	if !registry.IsValidMetricType(input.MetricType) {
		return nil, timeSeriesOutput{}, fmt.Errorf("unknown metric type: %s", input.MetricType)
	}
	mt := registry.MetricType(input.MetricType)

	start, end, err := parseRange(input.Start, input.End)
	if err != nil {
		return nil, timeSeriesOutput{}, err
	}

	points, err := s.queries.TimeSeries(ctx, s.user(input.UserID), mt, start, end, query.TimeSeriesOptions{
		Aggregation: query.Aggregation(input.Aggregation),
		Limit:       input.Limit,
	})
	if err != nil {
		return nil, timeSeriesOutput{}, err
	}

	def, _ := registry.Lookup(mt)
	return nil, timeSeriesOutput{
		MetricType: input.MetricType,
		Unit:       def.CanonicalUnit,
		Points:     points,
	}, nil
}

func (s *Server) handleCorrelate(ctx context.Context, req *mcp.CallToolRequest, input correlateInput) (*mcp.CallToolResult, correlateOutput, error) {
	types := make([]registry.MetricType, 0, len(input.MetricTypes))
	for _, mt := range input.MetricTypes {
		if !registry.IsValidMetricType(mt) {
			return nil, correlateOutput{}, fmt.Errorf("unknown metric type: %s", mt)
		}
		types = append(types, registry.MetricType(mt))
	}

	start, end, err := parseRange(input.Start, input.End)
	if err != nil {
		return nil, correlateOutput{}, err
	}

	rows, err := s.queries.Correlation(ctx, s.user(input.UserID), types, start, end, query.AggregationDaily)
	if err != nil {
		return nil, correlateOutput{}, err
	}
	return nil, correlateOutput{Rows: rows}, nil
}

func (s *Server) handleDailyMetrics(ctx context.Context, req *mcp.CallToolRequest, input dailyMetricsInput) (*mcp.CallToolResult, dailyMetricsOutput, error) {
	start, end, err := parseRange(input.Start, input.End)
	if err != nil {
		return nil, dailyMetricsOutput{}, err
	}

	days, err := s.queries.DailyMetrics(ctx, s.user(input.UserID), start, end)
	if err != nil {
		return nil, dailyMetricsOutput{}, err
	}
	return nil, dailyMetricsOutput{Days: days}, nil
}

func (s *Server) handleHealthEvents(ctx context.Context, req *mcp.CallToolRequest, input healthEventsInput) (*mcp.CallToolResult, healthEventsOutput, error) {
	start, end, err := parseRange(input.Start, input.End)
	if err != nil {
		return nil, healthEventsOutput{}, err
	}

	events, err := s.queries.HealthEvents(ctx, s.user(input.UserID), start, end.AddDate(0, 0, 1), input.EventTypes)
	if err != nil {
		return nil, healthEventsOutput{}, err
	}
	return nil, healthEventsOutput{Events: events}, nil
}

func (s *Server) handleSearch(ctx context.Context, req *mcp.CallToolRequest, input searchInput) (*mcp.CallToolResult, *query.SearchResults, error) {
	results, err := s.queries.Search(ctx, s.user(input.UserID), input.Query, query.SearchScope(input.Scope))
	if err != nil {
		return nil, nil, err
	}
	return nil, results, nil
}

func (s *Server) handleSummary(ctx context.Context, req *mcp.CallToolRequest, input summaryInput) (*mcp.CallToolResult, *query.Summary, error) {
	start, end, err := parseRange(input.Start, input.End)
	if err != nil {
		return nil, nil, err
	}

	summary, err := s.queries.Summarize(ctx, s.user(input.UserID), start, end)
	if err != nil {
		return nil, nil, err
	}
	return nil, summary, nil
}

func (s *Server) handleExportContext(ctx context.Context, req *mcp.CallToolRequest, input exportContextInput) (*mcp.CallToolResult, exportContextOutput, error) {
	start, end, err := parseRange(input.Start, input.End)
	if err != nil {
		return nil, exportContextOutput{}, err
	}
	userID := s.user(input.UserID)
	startKey := start.UTC().Format("2006-01-02")
	endKey := end.UTC().Format("2006-01-02")

	if s.cache != nil {
		if chunks, err := s.cache.Get(userID, "context", startKey, endKey); err == nil {
			return nil, exportContextOutput{Chunks: chunks, Cached: true}, nil
		} else if !errors.Is(err, chunkstore.ErrNotFound) {
			return nil, exportContextOutput{}, err
		}
	}

	chunks, err := s.buildContextChunks(ctx, userID, start, end)
	if err != nil {
		return nil, exportContextOutput{}, err
	}

	if s.cache != nil {
		if err := s.cache.Put(userID, "context", startKey, endKey, chunks); err != nil {
			return nil, exportContextOutput{}, err
		}
	}
	return nil, exportContextOutput{Chunks: chunks}, nil
}

// buildContextChunks assembles the full export: summary first, then daily
// metrics, then events.
func (s *Server) buildContextChunks(ctx context.Context, userID string, start, end time.Time) ([]export.Chunk, error) {
	summary, err := s.queries.Summarize(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}
	days, err := s.queries.DailyMetrics(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}
	events, err := s.queries.HealthEvents(ctx, userID, start, end.AddDate(0, 0, 1), nil)
	if err != nil {
		return nil, err
	}

	chunks := []export.Chunk{s.formatter.SummaryChunk(summary)}
	chunks = append(chunks, s.formatter.DailyMetricChunks(days)...)
	chunks = append(chunks, s.formatter.EventChunks(events)...)
	return chunks, nil
}
