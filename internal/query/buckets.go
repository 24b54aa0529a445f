// ABOUTME: Time bucketing helpers for time-series aggregation.
// ABOUTME: Bucket values are arithmetic means of the raw values they contain.
package query

import (
	"sort"
	"time"

	"github.com/harperreed/healthhub/internal/models"
)

// bucketStart truncates a timestamp to the start of its aggregation bucket
// in UTC. Weekly buckets start on Monday.
func bucketStart(t time.Time, agg Aggregation) time.Time {
	t = t.UTC()
	switch agg {
	case AggregationHourly:
		return t.Truncate(time.Hour)
	case AggregationDaily:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	case AggregationWeekly:
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case AggregationMonthly:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return t
	}
}

// bucketAverage groups records into aggregation buckets and averages the raw
// values in each, returning points ordered by bucket start.
func bucketAverage(records []*models.MeasurementRecord, agg Aggregation) []Point {
	sums := make(map[time.Time]float64)
	counts := make(map[time.Time]int)

	for _, r := range records {
		b := bucketStart(r.RecordedAt, agg)
		sums[b] += r.Value
		counts[b]++
	}

	points := make([]Point, 0, len(sums))
	for b, sum := range sums {
		points = append(points, Point{
			Timestamp: b,
			Value:     sum / float64(counts[b]),
		})
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Timestamp.Before(points[j].Timestamp)
	})
	return points
}
