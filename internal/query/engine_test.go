// ABOUTME: Tests for the query engine.
// ABOUTME: Bucket averaging, correlation sparsity, search caps, and summary math.
package query

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/harperreed/healthhub/internal/models"
	"github.com/harperreed/healthhub/internal/registry"
	"github.com/harperreed/healthhub/internal/storage"
)

func setupEngine(t *testing.T) (*Engine, *storage.DB) {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewEngine(db), db
}

func seedRecord(t *testing.T, db *storage.DB, mt registry.MetricType, value float64, at time.Time) {
	t.Helper()
	r := models.NewMeasurementRecord("u1", mt, value, at).WithProducer(registry.ProducerAppleHealth)
	if _, err := db.UpsertRecords(context.Background(), []*models.MeasurementRecord{r}); err != nil {
		t.Fatalf("seed record: %v", err)
	}
}

func TestTimeSeriesRaw(t *testing.T) {
	engine, db := setupEngine(t)
	base := time.Date(2025, 8, 1, 8, 0, 0, 0, time.UTC)
	seedRecord(t, db, registry.MetricHeartRate, 60, base)
	seedRecord(t, db, registry.MetricHeartRate, 70, base.Add(time.Hour))

	points, err := engine.TimeSeries(context.Background(), "u1", registry.MetricHeartRate,
		base.Add(-time.Hour), base.Add(2*time.Hour), TimeSeriesOptions{})
	if err != nil {
		t.Fatalf("TimeSeries failed: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("Expected 2 points, got %d", len(points))
	}
	if points[0].Value != 60 || points[1].Value != 70 {
		t.Errorf("points out of order or wrong: %+v", points)
	}
}

func TestTimeSeriesDailyAverageNotSum(t *testing.T) {
	engine, db := setupEngine(t)

	// Three readings in one day: the daily bucket is their mean, not total.
	day := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	seedRecord(t, db, registry.MetricHeartRate, 10, day.Add(8*time.Hour))
	seedRecord(t, db, registry.MetricHeartRate, 20, day.Add(12*time.Hour))
	seedRecord(t, db, registry.MetricHeartRate, 30, day.Add(20*time.Hour))

	points, err := engine.TimeSeries(context.Background(), "u1", registry.MetricHeartRate,
		day, day.AddDate(0, 0, 1), TimeSeriesOptions{Aggregation: AggregationDaily})
	if err != nil {
		t.Fatalf("TimeSeries failed: %v", err)
	}
	if len(points) != 1 {
		t.Fatalf("Expected 1 daily bucket, got %d", len(points))
	}
	if points[0].Value != 20 {
		t.Errorf("daily bucket should average to 20, got %v", points[0].Value)
	}
	if !points[0].Timestamp.Equal(day) {
		t.Errorf("bucket timestamp should be midnight UTC, got %v", points[0].Timestamp)
	}
}

func TestTimeSeriesEmptyRange(t *testing.T) {
	engine, _ := setupEngine(t)
	start := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)

	points, err := engine.TimeSeries(context.Background(), "u1", registry.MetricSteps,
		start, start.AddDate(0, 0, 7), TimeSeriesOptions{})
	if err != nil {
		t.Fatalf("empty range must not error: %v", err)
	}
	if len(points) != 0 {
		t.Errorf("Expected empty series, got %d points", len(points))
	}
}

func TestTimeSeriesWeeklyBuckets(t *testing.T) {
	engine, db := setupEngine(t)

	// 2025-08-04 is a Monday; 2025-08-08 (Friday) lands in the same week,
	// 2025-08-11 starts the next.
	seedRecord(t, db, registry.MetricWeight, 80, time.Date(2025, 8, 4, 8, 0, 0, 0, time.UTC))
	seedRecord(t, db, registry.MetricWeight, 82, time.Date(2025, 8, 8, 8, 0, 0, 0, time.UTC))
	seedRecord(t, db, registry.MetricWeight, 84, time.Date(2025, 8, 11, 8, 0, 0, 0, time.UTC))

	points, err := engine.TimeSeries(context.Background(), "u1", registry.MetricWeight,
		time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 8, 15, 0, 0, 0, 0, time.UTC),
		TimeSeriesOptions{Aggregation: AggregationWeekly})
	if err != nil {
		t.Fatalf("TimeSeries failed: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("Expected 2 weekly buckets, got %d", len(points))
	}
	if points[0].Value != 81 {
		t.Errorf("first week should average to 81, got %v", points[0].Value)
	}
	if points[0].Timestamp.Weekday() != time.Monday {
		t.Errorf("weekly buckets should start Monday, got %v", points[0].Timestamp.Weekday())
	}
}

func TestTimeSeriesLimit(t *testing.T) {
	engine, db := setupEngine(t)
	base := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		seedRecord(t, db, registry.MetricSteps, float64(i), base.Add(time.Duration(i)*time.Hour))
	}

	points, err := engine.TimeSeries(context.Background(), "u1", registry.MetricSteps,
		base, base.AddDate(0, 0, 1), TimeSeriesOptions{Limit: 3})
	if err != nil {
		t.Fatalf("TimeSeries failed: %v", err)
	}
	if len(points) != 3 {
		t.Errorf("Expected 3 points with limit, got %d", len(points))
	}
}

func TestCorrelationNoZeroFill(t *testing.T) {
	engine, db := setupEngine(t)

	day1 := time.Date(2025, 8, 1, 8, 0, 0, 0, time.UTC)
	day2 := time.Date(2025, 8, 2, 8, 0, 0, 0, time.UTC)
	seedRecord(t, db, registry.MetricSleepHours, 7.5, day1)
	seedRecord(t, db, registry.MetricSteps, 8000, day1)
	// Day 2 has steps but no sleep.
	seedRecord(t, db, registry.MetricSteps, 4000, day2)

	rows, err := engine.Correlation(context.Background(), "u1",
		[]registry.MetricType{registry.MetricSleepHours, registry.MetricSteps},
		day1.Add(-time.Hour), day2.AddDate(0, 0, 1), AggregationDaily)
	if err != nil {
		t.Fatalf("Correlation failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(rows))
	}

	if rows[0].Date != "2025-08-01" {
		t.Errorf("rows should be date ascending, got %s first", rows[0].Date)
	}
	if len(rows[0].Values) != 2 {
		t.Errorf("day 1 should have both metrics, got %d", len(rows[0].Values))
	}
	// Missing sleep on day 2 must be absent, not 0.
	if _, present := rows[1].Values[registry.MetricSleepHours]; present {
		t.Error("missing metric must be omitted, never zero-filled")
	}
	if rows[1].Values[registry.MetricSteps] != 4000 {
		t.Errorf("day 2 steps wrong: %v", rows[1].Values[registry.MetricSteps])
	}
}

func TestCorrelationWidensSubDailyAggregation(t *testing.T) {
	engine, db := setupEngine(t)

	// Two readings in different hours of the same day. Rows are keyed by
	// date, so an hourly request must not leave just the last hour's
	// average on the row; it widens to the daily mean.
	day := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	seedRecord(t, db, registry.MetricHeartRate, 60, day.Add(8*time.Hour))
	seedRecord(t, db, registry.MetricHeartRate, 70, day.Add(20*time.Hour))

	rows, err := engine.Correlation(context.Background(), "u1",
		[]registry.MetricType{registry.MetricHeartRate},
		day, day.AddDate(0, 0, 1), AggregationHourly)
	if err != nil {
		t.Fatalf("Correlation failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("Expected 1 row, got %d", len(rows))
	}
	if rows[0].Values[registry.MetricHeartRate] != 65 {
		t.Errorf("Expected the daily mean 65, got %v", rows[0].Values[registry.MetricHeartRate])
	}
}

func TestSearchScopes(t *testing.T) {
	engine, db := setupEngine(t)
	ctx := context.Background()

	at := time.Date(2025, 8, 1, 8, 0, 0, 0, time.UTC)
	r := models.NewMeasurementRecord("u1", registry.MetricSteps, 8000, at).
		WithProducer(registry.ProducerManual).
		WithDescription("morning run")
	if _, err := db.UpsertRecords(ctx, []*models.MeasurementRecord{r}); err != nil {
		t.Fatalf("seed record: %v", err)
	}
	ev := models.NewHealthEvent("u1", "workout", "Morning run intervals", at)
	if err := db.UpsertEvent(ctx, ev); err != nil {
		t.Fatalf("seed event: %v", err)
	}

	results, err := engine.Search(ctx, "u1", "morning run", ScopeAll)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results.Records) != 1 || len(results.Events) != 1 {
		t.Errorf("scope all should hit both sets, got %d/%d", len(results.Records), len(results.Events))
	}

	results, _ = engine.Search(ctx, "u1", "morning run", ScopeEvents)
	if len(results.Records) != 0 || len(results.Events) != 1 {
		t.Errorf("scope events should skip records, got %d/%d", len(results.Records), len(results.Events))
	}
}

func TestSearchCap(t *testing.T) {
	engine, db := setupEngine(t)
	ctx := context.Background()

	base := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	records := make([]*models.MeasurementRecord, 0, DefaultSearchLimit+10)
	for i := 0; i < DefaultSearchLimit+10; i++ {
		r := models.NewMeasurementRecord("u1", registry.MetricSteps, float64(i), base.Add(time.Duration(i)*time.Minute)).
			WithProducer(registry.ProducerManual).
			WithDescription("walk session")
		records = append(records, r)
	}
	if _, err := db.UpsertRecords(ctx, records); err != nil {
		t.Fatalf("seed records: %v", err)
	}

	results, err := engine.Search(ctx, "u1", "walk", ScopeRecords)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results.Records) != DefaultSearchLimit {
		t.Errorf("Expected cap of %d, got %d", DefaultSearchLimit, len(results.Records))
	}
}

func TestSummarize(t *testing.T) {
	engine, db := setupEngine(t)
	ctx := context.Background()

	start := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	steps := []float64{8000, 10000}
	distance := []float64{5, 7}
	for i := 0; i < 2; i++ {
		agg := &models.DailyAggregate{
			UserID:       "u1",
			Date:         start.AddDate(0, 0, i),
			Steps:        &steps[i],
			DistanceKM:   &distance[i],
			WorkoutCount: 1,
			Completeness: 2.0 / 9.0,
		}
		if err := db.UpsertDailyAggregate(ctx, agg); err != nil {
			t.Fatalf("seed aggregate: %v", err)
		}
	}
	if err := db.UpsertEvent(ctx, models.NewHealthEvent("u1", "workout", "Run", start.Add(18*time.Hour))); err != nil {
		t.Fatalf("seed event: %v", err)
	}

	s, err := engine.Summarize(ctx, "u1", start, start.AddDate(0, 0, 29))
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}

	// Sparse data is visible: 2 days with data in a 30-day window.
	if s.DayCount != 2 {
		t.Errorf("Expected DayCount 2, got %d", s.DayCount)
	}
	if s.AvgSteps == nil || *s.AvgSteps != 9000 {
		t.Errorf("Expected avg steps 9000, got %v", s.AvgSteps)
	}
	if s.TotalDistanceKM == nil || *s.TotalDistanceKM != 12 {
		t.Errorf("Expected total distance 12, got %v", s.TotalDistanceKM)
	}
	if s.AvgSleepHours != nil {
		t.Error("absent sleep data should yield nil, not zero")
	}
	if s.TotalWorkouts != 2 {
		t.Errorf("Expected 2 workouts from aggregates, got %d", s.TotalWorkouts)
	}
	if s.EventCounts["workout"] != 1 {
		t.Errorf("Expected 1 workout event, got %d", s.EventCounts["workout"])
	}
}

func TestSummarizeEmpty(t *testing.T) {
	engine, _ := setupEngine(t)
	start := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)

	s, err := engine.Summarize(context.Background(), "u1", start, start.AddDate(0, 0, 29))
	if err != nil {
		t.Fatalf("Summarize on empty store must not error: %v", err)
	}
	if s.DayCount != 0 {
		t.Errorf("Expected DayCount 0, got %d", s.DayCount)
	}
	if s.AvgSteps != nil {
		t.Error("no data should yield nil averages")
	}
}
