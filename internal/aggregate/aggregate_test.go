// ABOUTME: Tests for the daily aggregation builder.
// ABOUTME: Sum vs mean semantics, canonical-only input, and completeness scoring.
package aggregate

import (
	"context"
	"io"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/harperreed/healthhub/internal/models"
	"github.com/harperreed/healthhub/internal/registry"
	"github.com/harperreed/healthhub/internal/storage"
)

func setupBuilder(t *testing.T) (*Builder, *storage.DB) {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewBuilder(db, log.New(io.Discard)), db
}

func seed(t *testing.T, db *storage.DB, mt registry.MetricType, value float64, at time.Time, producer string) *models.MeasurementRecord {
	t.Helper()
	r := models.NewMeasurementRecord("u1", mt, value, at).WithProducer(producer)
	if _, err := db.UpsertRecords(context.Background(), []*models.MeasurementRecord{r}); err != nil {
		t.Fatalf("seed record: %v", err)
	}
	return r
}

func TestBuildSumsAndMeans(t *testing.T) {
	builder, db := setupBuilder(t)
	ctx := context.Background()
	day := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)

	// Cumulative metrics sum across the day.
	seed(t, db, registry.MetricSteps, 4000, day.Add(9*time.Hour), registry.ProducerAppleHealth)
	seed(t, db, registry.MetricSteps, 3000, day.Add(15*time.Hour), registry.ProducerAppleHealth)
	seed(t, db, registry.MetricProtein, 40, day.Add(12*time.Hour), registry.ProducerMyFitnessPal)
	seed(t, db, registry.MetricProtein, 35, day.Add(19*time.Hour), registry.ProducerMyFitnessPal)

	// Level metrics average.
	seed(t, db, registry.MetricRestingHeartRate, 50, day.Add(7*time.Hour), registry.ProducerAppleHealth)
	seed(t, db, registry.MetricRestingHeartRate, 54, day.Add(22*time.Hour), registry.ProducerAppleHealth)

	built, err := builder.Build(ctx, "u1", day, day)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if built != 1 {
		t.Fatalf("Expected 1 day built, got %d", built)
	}

	aggs, err := db.ListDailyAggregates(ctx, "u1", day, day)
	if err != nil {
		t.Fatalf("ListDailyAggregates failed: %v", err)
	}
	if len(aggs) != 1 {
		t.Fatalf("Expected 1 aggregate, got %d", len(aggs))
	}

	a := aggs[0]
	if a.Steps == nil || *a.Steps != 7000 {
		t.Errorf("steps should sum to 7000, got %v", a.Steps)
	}
	if a.ProteinG == nil || *a.ProteinG != 75 {
		t.Errorf("protein should sum to 75, got %v", a.ProteinG)
	}
	if a.RestingHeartRate == nil || *a.RestingHeartRate != 52 {
		t.Errorf("resting HR should average to 52, got %v", a.RestingHeartRate)
	}
	if a.SleepHours != nil {
		t.Error("absent sleep should be nil")
	}

	// 3 of 9 tracked fields present.
	if math.Abs(a.Completeness-3.0/9.0) > 1e-9 {
		t.Errorf("Expected completeness 3/9, got %v", a.Completeness)
	}
}

func TestBuildIgnoresNonCanonical(t *testing.T) {
	builder, db := setupBuilder(t)
	ctx := context.Background()
	day := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)

	seed(t, db, registry.MetricSteps, 4000, day.Add(9*time.Hour), registry.ProducerAppleHealth)
	demoted := seed(t, db, registry.MetricSteps, 3900, day.Add(9*time.Hour+10*time.Minute), registry.ProducerFitbit)
	if _, err := db.SetCanonicalFlags(ctx, []uuid.UUID{demoted.ID}, false); err != nil {
		t.Fatalf("demote: %v", err)
	}

	if _, err := builder.Build(ctx, "u1", day, day); err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	aggs, _ := db.ListDailyAggregates(ctx, "u1", day, day)
	if len(aggs) != 1 {
		t.Fatalf("Expected 1 aggregate, got %d", len(aggs))
	}
	if *aggs[0].Steps != 4000 {
		t.Errorf("demoted record must not double-count: got %v", *aggs[0].Steps)
	}
}

func TestBuildCountsWorkoutEvents(t *testing.T) {
	builder, db := setupBuilder(t)
	ctx := context.Background()
	day := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 2; i++ {
		e := models.NewHealthEvent("u1", "workout", "Session", day.Add(time.Duration(8+i)*time.Hour))
		if err := db.UpsertEvent(ctx, e); err != nil {
			t.Fatalf("seed event: %v", err)
		}
	}

	if _, err := builder.Build(ctx, "u1", day, day); err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	aggs, _ := db.ListDailyAggregates(ctx, "u1", day, day)
	if len(aggs) != 1 {
		t.Fatalf("Expected 1 aggregate, got %d", len(aggs))
	}
	if aggs[0].WorkoutCount != 2 {
		t.Errorf("Expected 2 workouts, got %d", aggs[0].WorkoutCount)
	}
}

func TestBuildSkipsEmptyDays(t *testing.T) {
	builder, db := setupBuilder(t)
	ctx := context.Background()
	start := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)

	// Data on day 1 and day 3 only.
	seed(t, db, registry.MetricSteps, 1000, start.Add(9*time.Hour), registry.ProducerAppleHealth)
	seed(t, db, registry.MetricSteps, 2000, start.AddDate(0, 0, 2).Add(9*time.Hour), registry.ProducerAppleHealth)

	built, err := builder.Build(ctx, "u1", start, start.AddDate(0, 0, 2))
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if built != 2 {
		t.Errorf("empty middle day should not produce a row, got %d built", built)
	}
}
