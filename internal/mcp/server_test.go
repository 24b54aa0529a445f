// ABOUTME: Tests for MCP server, tools, and resources.
// ABOUTME: Covers NewServer, read-only tool handlers, and export caching.
package mcp

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/harperreed/healthhub/internal/chunkstore"
	"github.com/harperreed/healthhub/internal/models"
	"github.com/harperreed/healthhub/internal/registry"
	"github.com/harperreed/healthhub/internal/storage"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func setupTestDB(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "healthhub.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func setupServer(t *testing.T, db *storage.DB) *Server {
	t.Helper()
	server, err := NewServer(db, Options{DefaultUser: "u1"})
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	return server
}

func seedRecord(t *testing.T, db *storage.DB, mt registry.MetricType, value float64, at time.Time) {
	t.Helper()
	r := models.NewMeasurementRecord("u1", mt, value, at).WithProducer(registry.ProducerAppleHealth)
	if _, err := db.UpsertRecords(context.Background(), []*models.MeasurementRecord{r}); err != nil {
		t.Fatalf("seed record: %v", err)
	}
}

func TestNewServer(t *testing.T) {
	db := setupTestDB(t)
	server := setupServer(t, db)

	if server.mcpServer == nil {
		t.Error("Expected non-nil mcpServer")
	}
	if server.queries == nil {
		t.Error("Expected non-nil query engine")
	}
	if server.defaultUser != "u1" {
		t.Errorf("Expected default user u1, got %s", server.defaultUser)
	}
}

func TestNewServerDefaultUserFallback(t *testing.T) {
	db := setupTestDB(t)
	server, err := NewServer(db, Options{})
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	if server.defaultUser != "default" {
		t.Errorf("Expected fallback user 'default', got %s", server.defaultUser)
	}
}

func TestHandleTimeSeries(t *testing.T) {
	db := setupTestDB(t)
	server := setupServer(t, db)
	ctx := context.Background()

	day := time.Now().UTC().AddDate(0, 0, -1)
	seedRecord(t, db, registry.MetricHeartRate, 60, day)
	seedRecord(t, db, registry.MetricHeartRate, 70, day.Add(time.Minute))

	_, output, err := server.handleTimeSeries(ctx, &mcp.CallToolRequest{}, timeSeriesInput{
		MetricType:  "heart_rate",
		Aggregation: "daily",
	})
	if err != nil {
		t.Fatalf("handleTimeSeries failed: %v", err)
	}
	if output.Unit != "bpm" {
		t.Errorf("Expected bpm, got %s", output.Unit)
	}
	if len(output.Points) != 1 {
		t.Fatalf("Expected 1 daily bucket, got %d", len(output.Points))
	}
	if output.Points[0].Value != 65 {
		t.Errorf("daily bucket should average to 65, got %v", output.Points[0].Value)
	}
}

func TestHandleTimeSeriesInvalidType(t *testing.T) {
	db := setupTestDB(t)
	server := setupServer(t, db)

	_, _, err := server.handleTimeSeries(context.Background(), &mcp.CallToolRequest{}, timeSeriesInput{
		MetricType: "not_a_metric",
	})
	if err == nil || !strings.Contains(err.Error(), "unknown metric type") {
		t.Fatalf("Expected unknown metric type error, got %v", err)
	}
}

func TestHandleCorrelate(t *testing.T) {
	db := setupTestDB(t)
	server := setupServer(t, db)
	ctx := context.Background()

	day := time.Now().UTC().AddDate(0, 0, -2)
	seedRecord(t, db, registry.MetricSteps, 8000, day)
	seedRecord(t, db, registry.MetricSleepHours, 7.5, day)

	_, output, err := server.handleCorrelate(ctx, &mcp.CallToolRequest{}, correlateInput{
		MetricTypes: []string{"steps", "sleep_hours"},
	})
	if err != nil {
		t.Fatalf("handleCorrelate failed: %v", err)
	}
	if len(output.Rows) != 1 {
		t.Fatalf("Expected 1 row, got %d", len(output.Rows))
	}
	if len(output.Rows[0].Values) != 2 {
		t.Errorf("Expected both metrics on the row, got %d", len(output.Rows[0].Values))
	}
}

func TestHandleSummaryEmpty(t *testing.T) {
	db := setupTestDB(t)
	server := setupServer(t, db)

	_, output, err := server.handleSummary(context.Background(), &mcp.CallToolRequest{}, summaryInput{})
	if err != nil {
		t.Fatalf("handleSummary on empty store failed: %v", err)
	}
	if output.DayCount != 0 {
		t.Errorf("Expected DayCount 0, got %d", output.DayCount)
	}
}

func TestHandleSearch(t *testing.T) {
	db := setupTestDB(t)
	server := setupServer(t, db)
	ctx := context.Background()

	ev := models.NewHealthEvent("u1", "workout", "Track intervals", time.Now().UTC().AddDate(0, 0, -1))
	if err := db.UpsertEvent(ctx, ev); err != nil {
		t.Fatalf("seed event: %v", err)
	}

	_, output, err := server.handleSearch(ctx, &mcp.CallToolRequest{}, searchInput{Query: "intervals"})
	if err != nil {
		t.Fatalf("handleSearch failed: %v", err)
	}
	if len(output.Events) != 1 {
		t.Errorf("Expected 1 event hit, got %d", len(output.Events))
	}
}

func TestHandleExportContextCaching(t *testing.T) {
	db := setupTestDB(t)
	cache, err := chunkstore.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	t.Cleanup(func() { cache.Close() })

	server, err := NewServer(db, Options{DefaultUser: "u1", Cache: cache})
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	ctx := context.Background()

	input := exportContextInput{Start: "2025-08-01", End: "2025-08-31"}

	_, first, err := server.handleExportContext(ctx, &mcp.CallToolRequest{}, input)
	if err != nil {
		t.Fatalf("first export failed: %v", err)
	}
	if first.Cached {
		t.Error("first call should compute, not hit the cache")
	}
	if len(first.Chunks) == 0 {
		t.Fatal("export should at least contain the summary chunk")
	}

	_, second, err := server.handleExportContext(ctx, &mcp.CallToolRequest{}, input)
	if err != nil {
		t.Fatalf("second export failed: %v", err)
	}
	if !second.Cached {
		t.Error("second call should hit the cache")
	}
	if len(second.Chunks) != len(first.Chunks) {
		t.Errorf("cached chunks differ: %d vs %d", len(second.Chunks), len(first.Chunks))
	}
}

func TestHandleExportContextNoCache(t *testing.T) {
	db := setupTestDB(t)
	server := setupServer(t, db)

	_, output, err := server.handleExportContext(context.Background(), &mcp.CallToolRequest{}, exportContextInput{
		Start: "2025-08-01",
		End:   "2025-08-31",
	})
	if err != nil {
		t.Fatalf("export without cache failed: %v", err)
	}
	if output.Cached {
		t.Error("no cache configured, result cannot be cached")
	}
	if output.Chunks[0].Type != "summary" {
		t.Errorf("first chunk should be the summary, got %s", output.Chunks[0].Type)
	}
}
