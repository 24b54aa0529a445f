// ABOUTME: DailyAggregate model, one pre-computed row per user and date.
// ABOUTME: Built by the aggregation job; the query engine only reads it.
package models

import "time"

// DailyAggregate carries pre-summed/averaged canonical values for a fixed
// set of metric types, one row per (user, date).
type DailyAggregate struct {
	UserID           string
	Date             time.Time // midnight UTC
	Steps            *float64
	DistanceKM       *float64
	ActiveCalories   *float64
	CaloriesIn       *float64
	ProteinG         *float64
	CarbsG           *float64
	FatG             *float64
	SleepHours       *float64
	RestingHeartRate *float64
	WorkoutCount     int
	// Completeness is the fraction of tracked fields present, 0.0-1.0.
	Completeness float64
	UpdatedAt    time.Time
}

// Day formats the aggregate's date as YYYY-MM-DD.
func (a *DailyAggregate) Day() string {
	return a.Date.Format("2006-01-02")
}
