// ABOUTME: DailyAggregate persistence, one row per (user, date).
// ABOUTME: Written by the aggregation job, read directly by dailyMetrics queries.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/harperreed/healthhub/internal/models"
)

const aggregateColumns = `user_id, date, steps, distance_km, active_calories,
	calories_in, protein_g, carbs_g, fat_g, sleep_hours, resting_heart_rate,
	workout_count, completeness, updated_at`

// UpsertDailyAggregate inserts or replaces the aggregate row for (user, date).
func (d *DB) UpsertDailyAggregate(ctx context.Context, a *models.DailyAggregate) error {
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO daily_aggregates (`+aggregateColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, date) DO UPDATE SET
			steps = excluded.steps,
			distance_km = excluded.distance_km,
			active_calories = excluded.active_calories,
			calories_in = excluded.calories_in,
			protein_g = excluded.protein_g,
			carbs_g = excluded.carbs_g,
			fat_g = excluded.fat_g,
			sleep_hours = excluded.sleep_hours,
			resting_heart_rate = excluded.resting_heart_rate,
			workout_count = excluded.workout_count,
			completeness = excluded.completeness,
			updated_at = excluded.updated_at`,
		a.UserID,
		a.Date.UTC().Format("2006-01-02"),
		a.Steps, a.DistanceKM, a.ActiveCalories, a.CaloriesIn,
		a.ProteinG, a.CarbsG, a.FatG, a.SleepHours, a.RestingHeartRate,
		a.WorkoutCount, a.Completeness,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upsert daily aggregate: %w", err)
	}
	return nil
}

// ListDailyAggregates returns aggregate rows for the date range, ordered by
// date ascending. End is inclusive (a date, not an instant).
func (d *DB) ListDailyAggregates(ctx context.Context, userID string, start, end time.Time) ([]*models.DailyAggregate, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT `+aggregateColumns+` FROM daily_aggregates
		WHERE user_id = ? AND date >= ? AND date <= ?
		ORDER BY date ASC`,
		userID,
		start.UTC().Format("2006-01-02"),
		end.UTC().Format("2006-01-02"),
	)
	if err != nil {
		return nil, fmt.Errorf("list daily aggregates: %w", err)
	}
	defer rows.Close()

	var aggs []*models.DailyAggregate
	for rows.Next() {
		var a models.DailyAggregate
		var date, updatedAt string
		var steps, distance, activeCal, caloriesIn, protein, carbs, fat, sleep, rhr sql.NullFloat64

		err := rows.Scan(&a.UserID, &date, &steps, &distance, &activeCal,
			&caloriesIn, &protein, &carbs, &fat, &sleep, &rhr,
			&a.WorkoutCount, &a.Completeness, &updatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan daily aggregate: %w", err)
		}

		a.Date, _ = time.Parse("2006-01-02", date)
		a.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		a.Steps = nullableFloat(steps)
		a.DistanceKM = nullableFloat(distance)
		a.ActiveCalories = nullableFloat(activeCal)
		a.CaloriesIn = nullableFloat(caloriesIn)
		a.ProteinG = nullableFloat(protein)
		a.CarbsG = nullableFloat(carbs)
		a.FatG = nullableFloat(fat)
		a.SleepHours = nullableFloat(sleep)
		a.RestingHeartRate = nullableFloat(rhr)

		aggs = append(aggs, &a)
	}

	return aggs, rows.Err()
}

func nullableFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
