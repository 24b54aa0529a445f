// ABOUTME: Read-side query engine over the canonical measurement store.
// ABOUTME: Time series, correlation, daily metrics, events, search, summary.
package query

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/harperreed/healthhub/internal/models"
	"github.com/harperreed/healthhub/internal/registry"
	"github.com/harperreed/healthhub/internal/storage"
)

// DefaultSearchLimit caps each search result set to bound response size.
const DefaultSearchLimit = 50

// Aggregation selects the time-series bucketing interval.
type Aggregation string

const (
	AggregationNone    Aggregation = "none"
	AggregationHourly  Aggregation = "hourly"
	AggregationDaily   Aggregation = "daily"
	AggregationWeekly  Aggregation = "weekly"
	AggregationMonthly Aggregation = "monthly"
)

// Point is one (timestamp, value) pair in a time series.
type Point struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// Engine serves reads over the store. Every operation is side-effect free
// and safe to call with unlimited concurrency. Store failures propagate to
// the caller; an empty result always means "no data", never "couldn't check".
type Engine struct {
	store storage.Repository
}

// NewEngine creates a query engine over the given store.
func NewEngine(store storage.Repository) *Engine {
	return &Engine{store: store}
}

// TimeSeriesOptions tunes a TimeSeries call.
type TimeSeriesOptions struct {
	Aggregation Aggregation
	Limit       int
	// IncludeNonCanonical is for audit and debugging only; default
	// user-facing reads see canonical records exclusively.
	IncludeNonCanonical bool
}

// TimeSeries returns ordered (timestamp, value) pairs for one metric type.
// With an aggregation, raw values in each bucket are averaged; summation
// lives in DailyMetrics. An empty range yields an empty sequence, not an
// error.
func (e *Engine) TimeSeries(ctx context.Context, userID string, mt registry.MetricType, start, end time.Time, opts TimeSeriesOptions) ([]Point, error) {
	records, err := e.store.ListRecords(ctx, storage.RecordFilter{
		UserID:              userID,
		MetricTypes:         []registry.MetricType{mt},
		Start:               start,
		End:                 end,
		IncludeNonCanonical: opts.IncludeNonCanonical,
	})
	if err != nil {
		return nil, fmt.Errorf("time series %s: %w", mt, err)
	}

	var points []Point
	if opts.Aggregation == "" || opts.Aggregation == AggregationNone {
		points = make([]Point, 0, len(records))
		for _, r := range records {
			points = append(points, Point{Timestamp: r.RecordedAt, Value: r.Value})
		}
	} else {
		points = bucketAverage(records, opts.Aggregation)
	}

	if opts.Limit > 0 && len(points) > opts.Limit {
		points = points[:opts.Limit]
	}
	return points, nil
}

// CorrelationRow is one date's values across the requested metric types.
// Metrics with no data that day are simply absent, never zero-filled.
type CorrelationRow struct {
	Date   string                          `json:"date"`
	Values map[registry.MetricType]float64 `json:"values"`
}

// Correlation aligns several metric types on a shared date axis, one row per
// date that has data for at least one of the requested types. Rows are keyed
// by date, so sub-daily aggregations are widened to daily; anything coarser
// (weekly, monthly) is honored as given.
func (e *Engine) Correlation(ctx context.Context, userID string, metricTypes []registry.MetricType, start, end time.Time, agg Aggregation) ([]CorrelationRow, error) {
	switch agg {
	case AggregationWeekly, AggregationMonthly:
	default:
		agg = AggregationDaily
	}

	byDate := make(map[string]map[registry.MetricType]float64)
	for _, mt := range metricTypes {
		points, err := e.TimeSeries(ctx, userID, mt, start, end, TimeSeriesOptions{Aggregation: agg})
		if err != nil {
			return nil, fmt.Errorf("correlation %s: %w", mt, err)
		}
		for _, p := range points {
			day := p.Timestamp.UTC().Format("2006-01-02")
			if byDate[day] == nil {
				byDate[day] = make(map[registry.MetricType]float64)
			}
			byDate[day][mt] = p.Value
		}
	}

	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	rows := make([]CorrelationRow, 0, len(dates))
	for _, d := range dates {
		rows = append(rows, CorrelationRow{Date: d, Values: byDate[d]})
	}
	return rows, nil
}

// DailyMetrics reads pre-aggregated daily rows directly. It never recomputes
// aggregates from raw records.
func (e *Engine) DailyMetrics(ctx context.Context, userID string, start, end time.Time) ([]*models.DailyAggregate, error) {
	aggs, err := e.store.ListDailyAggregates(ctx, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("daily metrics: %w", err)
	}
	return aggs, nil
}

// HealthEvents returns events whose start time falls in range, newest first.
func (e *Engine) HealthEvents(ctx context.Context, userID string, start, end time.Time, eventTypes []string) ([]*models.HealthEvent, error) {
	events, err := e.store.ListEvents(ctx, userID, start, end, eventTypes, 0)
	if err != nil {
		return nil, fmt.Errorf("health events: %w", err)
	}
	return events, nil
}

// SearchScope selects which result sets a search populates.
type SearchScope string

const (
	ScopeAll     SearchScope = "all"
	ScopeRecords SearchScope = "records"
	ScopeEvents  SearchScope = "events"
)

// SearchResults holds separate result sets for point measurements and
// events, each capped at the search limit.
type SearchResults struct {
	Records []*models.MeasurementRecord `json:"records"`
	Events  []*models.HealthEvent       `json:"events"`
}

// Search matches the query against record descriptions and event
// titles/descriptions, case-insensitive substring semantics.
func (e *Engine) Search(ctx context.Context, userID, query string, scope SearchScope) (*SearchResults, error) {
	results := &SearchResults{}

	if scope == ScopeAll || scope == ScopeRecords || scope == "" {
		records, err := e.store.SearchRecords(ctx, userID, query, false, DefaultSearchLimit)
		if err != nil {
			return nil, fmt.Errorf("search records: %w", err)
		}
		results.Records = records
	}

	if scope == ScopeAll || scope == ScopeEvents || scope == "" {
		events, err := e.store.SearchEvents(ctx, userID, query, DefaultSearchLimit)
		if err != nil {
			return nil, fmt.Errorf("search events: %w", err)
		}
		results.Events = events
	}

	return results, nil
}

// Summary is a cheap period snapshot computed from daily aggregates.
// DayCount is explicit so callers can detect sparse data: two days of data
// over a thirty-day window should not read as representative.
type Summary struct {
	UserID            string         `json:"user_id"`
	Start             string         `json:"start"`
	End               string         `json:"end"`
	DayCount          int            `json:"day_count"`
	AvgSteps          *float64       `json:"avg_steps,omitempty"`
	AvgSleepHours     *float64       `json:"avg_sleep_hours,omitempty"`
	AvgCaloriesIn     *float64       `json:"avg_calories_in,omitempty"`
	AvgProteinG       *float64       `json:"avg_protein_g,omitempty"`
	AvgRestingHR      *float64       `json:"avg_resting_heart_rate,omitempty"`
	TotalDistanceKM   *float64       `json:"total_distance_km,omitempty"`
	TotalActiveCal    *float64       `json:"total_active_calories,omitempty"`
	TotalWorkouts     int            `json:"total_workouts"`
	EventCounts       map[string]int `json:"event_counts"`
	AvgCompleteness   float64        `json:"avg_completeness"`
}

// Summarize computes arithmetic means and sums over the dailyMetrics result
// for a fixed set of fields, plus event-type counts.
func (e *Engine) Summarize(ctx context.Context, userID string, start, end time.Time) (*Summary, error) {
	aggs, err := e.DailyMetrics(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}

	eventCounts, err := e.store.CountEventsByType(ctx, userID, start, end.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("summary event counts: %w", err)
	}

	s := &Summary{
		UserID:      userID,
		Start:       start.UTC().Format("2006-01-02"),
		End:         end.UTC().Format("2006-01-02"),
		DayCount:    len(aggs),
		EventCounts: eventCounts,
	}

	var completeness float64
	steps := meanAccumulator{}
	sleep := meanAccumulator{}
	caloriesIn := meanAccumulator{}
	protein := meanAccumulator{}
	restingHR := meanAccumulator{}
	distance := sumAccumulator{}
	activeCal := sumAccumulator{}

	for _, a := range aggs {
		steps.add(a.Steps)
		sleep.add(a.SleepHours)
		caloriesIn.add(a.CaloriesIn)
		protein.add(a.ProteinG)
		restingHR.add(a.RestingHeartRate)
		distance.add(a.DistanceKM)
		activeCal.add(a.ActiveCalories)
		s.TotalWorkouts += a.WorkoutCount
		completeness += a.Completeness
	}

	s.AvgSteps = steps.mean()
	s.AvgSleepHours = sleep.mean()
	s.AvgCaloriesIn = caloriesIn.mean()
	s.AvgProteinG = protein.mean()
	s.AvgRestingHR = restingHR.mean()
	s.TotalDistanceKM = distance.total()
	s.TotalActiveCal = activeCal.total()
	if len(aggs) > 0 {
		s.AvgCompleteness = completeness / float64(len(aggs))
	}

	return s, nil
}

type meanAccumulator struct {
	sum float64
	n   int
}

func (m *meanAccumulator) add(v *float64) {
	if v != nil {
		m.sum += *v
		m.n++
	}
}

func (m *meanAccumulator) mean() *float64 {
	if m.n == 0 {
		return nil
	}
	v := m.sum / float64(m.n)
	return &v
}

type sumAccumulator struct {
	sum float64
	n   int
}

func (s *sumAccumulator) add(v *float64) {
	if v != nil {
		s.sum += *v
		s.n++
	}
}

func (s *sumAccumulator) total() *float64 {
	if s.n == 0 {
		return nil
	}
	v := s.sum
	return &v
}
