// ABOUTME: Daily aggregation job building daily_aggregates from canonical records.
// ABOUTME: Sums activity/nutrition fields, averages sleep and resting heart rate.
package aggregate

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harperreed/healthhub/internal/models"
	"github.com/harperreed/healthhub/internal/registry"
	"github.com/harperreed/healthhub/internal/storage"
)

// trackedFields is the number of aggregate fields the completeness score is
// measured against.
const trackedFields = 9

// Builder computes daily aggregate rows from canonical measurement records.
// It only ever reads canonical data, so it should run after the
// canonicalization pass for the same batch.
type Builder struct {
	store  storage.Repository
	logger *log.Logger
}

// NewBuilder creates an aggregation builder.
func NewBuilder(store storage.Repository, logger *log.Logger) *Builder {
	return &Builder{store: store, logger: logger}
}

// Build recomputes aggregates for every day in [start, end] (dates,
// inclusive) and upserts one row per day that has any data.
func (b *Builder) Build(ctx context.Context, userID string, start, end time.Time) (int, error) {
	startDay := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	endDay := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)

	records, err := b.store.ListRecords(ctx, storage.RecordFilter{
		UserID: userID,
		Start:  startDay,
		End:    endDay.AddDate(0, 0, 1),
	})
	if err != nil {
		return 0, fmt.Errorf("load records: %w", err)
	}

	byDay := make(map[time.Time][]*models.MeasurementRecord)
	for _, r := range records {
		t := r.RecordedAt.UTC()
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		byDay[day] = append(byDay[day], r)
	}

	built := 0
	for day := startDay; !day.After(endDay); day = day.AddDate(0, 0, 1) {
		dayRecords := byDay[day]

		workouts, err := b.store.CountEventsByType(ctx, userID, day, day.AddDate(0, 0, 1))
		if err != nil {
			return built, fmt.Errorf("count events for %s: %w", day.Format("2006-01-02"), err)
		}

		agg := buildDay(userID, day, dayRecords, workouts["workout"])
		if agg == nil {
			continue
		}
		if err := b.store.UpsertDailyAggregate(ctx, agg); err != nil {
			return built, fmt.Errorf("upsert aggregate for %s: %w", day.Format("2006-01-02"), err)
		}
		built++
	}

	b.logger.Info("daily aggregation complete",
		"user", userID,
		"from", startDay.Format("2006-01-02"),
		"to", endDay.Format("2006-01-02"),
		"days", built)
	return built, nil
}

// buildDay folds one day's canonical records into an aggregate row, or nil
// when the day has no data at all.
func buildDay(userID string, day time.Time, records []*models.MeasurementRecord, workoutCount int) *models.DailyAggregate {
	if len(records) == 0 && workoutCount == 0 {
		return nil
	}

	sums := make(map[registry.MetricType]float64)
	counts := make(map[registry.MetricType]int)
	for _, r := range records {
		sums[r.MetricType] += r.Value
		counts[r.MetricType]++
	}

	sum := func(mt registry.MetricType) *float64 {
		if counts[mt] == 0 {
			return nil
		}
		v := sums[mt]
		return &v
	}
	mean := func(mt registry.MetricType) *float64 {
		if counts[mt] == 0 {
			return nil
		}
		v := sums[mt] / float64(counts[mt])
		return &v
	}

	agg := &models.DailyAggregate{
		UserID:           userID,
		Date:             day,
		Steps:            sum(registry.MetricSteps),
		DistanceKM:       sum(registry.MetricDistance),
		ActiveCalories:   sum(registry.MetricActiveCalories),
		CaloriesIn:       sum(registry.MetricCaloriesIn),
		ProteinG:         sum(registry.MetricProtein),
		CarbsG:           sum(registry.MetricCarbs),
		FatG:             sum(registry.MetricFat),
		SleepHours:       mean(registry.MetricSleepHours),
		RestingHeartRate: mean(registry.MetricRestingHeartRate),
		WorkoutCount:     workoutCount,
	}

	present := 0
	for _, v := range []*float64{
		agg.Steps, agg.DistanceKM, agg.ActiveCalories, agg.CaloriesIn,
		agg.ProteinG, agg.CarbsG, agg.FatG, agg.SleepHours,
		agg.RestingHeartRate,
	} {
		if v != nil {
			present++
		}
	}
	agg.Completeness = float64(present) / float64(trackedFields)

	return agg
}
