// ABOUTME: End-to-end integration test for the reconciliation pipeline.
// ABOUTME: Ingest -> canonicalize -> aggregate -> query -> export on one store.
package test

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harperreed/healthhub/internal/aggregate"
	"github.com/harperreed/healthhub/internal/canonical"
	"github.com/harperreed/healthhub/internal/export"
	"github.com/harperreed/healthhub/internal/models"
	"github.com/harperreed/healthhub/internal/normalize"
	"github.com/harperreed/healthhub/internal/query"
	"github.com/harperreed/healthhub/internal/registry"
	"github.com/harperreed/healthhub/internal/storage"
)

func TestFullPipeline(t *testing.T) {
	ctx := context.Background()
	logger := log.New(io.Discard)

	db, err := storage.Open(filepath.Join(t.TempDir(), "healthhub.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer db.Close()

	// Two producers report overlapping step counts in the same hour: the
	// native device at 09:15 and a third-party service at 09:40. Plus
	// nutrition data only the third party knows about.
	day := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	samples := []normalize.RawSample{
		{
			UserID: "u1", Producer: "apple_health",
			Field: "HKQuantityTypeIdentifierStepCount",
			Value: 1000, Unit: "count",
			RecordedAt: day.Add(9*time.Hour + 15*time.Minute),
		},
		{
			UserID: "u1", Producer: "fitbit",
			Field: "activities-steps",
			Value: 950, Unit: "count",
			RecordedAt: day.Add(9*time.Hour + 40*time.Minute),
		},
		{
			UserID: "u1", Producer: "myfitnesspal",
			Field: "protein",
			Value: 95, Unit: "g",
			RecordedAt: day.Add(13 * time.Hour),
		},
		// Unit conversion on the way in: 5200 m of walking.
		{
			UserID: "u1", Producer: "apple_health",
			Field: "HKQuantityTypeIdentifierDistanceWalkingRunning",
			Value: 5200, Unit: "m",
			RecordedAt: day.Add(18 * time.Hour),
		},
	}

	// Ingest.
	records, stats := normalize.Batch(logger, samples)
	if stats.Normalized != 4 {
		t.Fatalf("Expected 4 normalized samples, got %d", stats.Normalized)
	}
	if _, err := db.UpsertRecords(ctx, records); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	// Canonicalize.
	engine, err := canonical.NewEngine(db, logger)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	touched := []registry.MetricType{registry.MetricSteps, registry.MetricProtein, registry.MetricDistance}
	result, err := engine.RunCheck(ctx, "u1", touched, nil)
	if err != nil {
		t.Fatalf("canonicalize: %v", err)
	}
	if result.UpdatedCount != 1 {
		t.Fatalf("Expected exactly the fitbit record demoted, got %d updates", result.UpdatedCount)
	}

	// A workout event alongside the measurements.
	ev := models.NewHealthEvent("u1", "workout", "Morning run", day.Add(9*time.Hour)).
		WithProducer("strava").
		WithEnd(day.Add(9*time.Hour + 45*time.Minute))
	if err := db.UpsertEvent(ctx, ev); err != nil {
		t.Fatalf("upsert event: %v", err)
	}

	// Aggregate.
	builder := aggregate.NewBuilder(db, logger)
	if _, err := builder.Build(ctx, "u1", day, day); err != nil {
		t.Fatalf("aggregate: %v", err)
	}

	// Query: the daily rollup reflects only the native step count, never the
	// demoted duplicate, and carries the exclusive nutrition data.
	q := query.NewEngine(db)
	days, err := q.DailyMetrics(ctx, "u1", day, day)
	if err != nil {
		t.Fatalf("daily metrics: %v", err)
	}
	if len(days) != 1 {
		t.Fatalf("Expected 1 daily row, got %d", len(days))
	}
	d := days[0]
	if d.Steps == nil || *d.Steps != 1000 {
		t.Errorf("daily steps should be the native 1000, got %v", d.Steps)
	}
	if d.ProteinG == nil || *d.ProteinG != 95 {
		t.Errorf("protein should survive untouched, got %v", d.ProteinG)
	}
	if d.DistanceKM == nil || *d.DistanceKM != 5.2 {
		t.Errorf("distance should be converted to 5.2 km, got %v", d.DistanceKM)
	}
	if d.WorkoutCount != 1 {
		t.Errorf("Expected 1 workout, got %d", d.WorkoutCount)
	}

	// Re-running the whole reconciliation is a no-op.
	if _, err := db.UpsertRecords(ctx, records); err != nil {
		t.Fatalf("replay upsert: %v", err)
	}
	result, err = engine.RunCheck(ctx, "u1", touched, nil)
	if err != nil {
		t.Fatalf("replay canonicalize: %v", err)
	}
	if result.UpdatedCount != 0 {
		t.Errorf("replay must not flip any flags, got %d", result.UpdatedCount)
	}

	// Export: the summary names the day coverage, daily chunks carry the
	// reconciled numbers, and every chunk honors the budget.
	summary, err := q.Summarize(ctx, "u1", day, day)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if summary.DayCount != 1 {
		t.Errorf("Expected DayCount 1, got %d", summary.DayCount)
	}

	f := export.NewFormatter(500)
	chunks := []export.Chunk{f.SummaryChunk(summary)}
	chunks = append(chunks, f.DailyMetricChunks(days)...)

	events, err := q.HealthEvents(ctx, "u1", day, day.AddDate(0, 0, 1), nil)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	chunks = append(chunks, f.EventChunks(events)...)

	var sawSteps bool
	for i, c := range chunks {
		if len(c.Content) > 500 {
			t.Errorf("chunk %d exceeds budget: %d chars", i, len(c.Content))
		}
		if strings.Contains(c.Content, "1000 steps") {
			sawSteps = true
		}
		if strings.Contains(c.Content, "950") {
			t.Error("demoted duplicate leaked into the export")
		}
	}
	if !sawSteps {
		t.Error("export should carry the canonical step total")
	}
}
