// ABOUTME: HealthEvent model for time-bounded occurrences.
// ABOUTME: Workouts, sleep sessions, and meals; unique by (user, type, start).
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/healthhub/internal/registry"
)

// HealthEvent is a time-bounded occurrence with an event-specific metrics
// bag. Events are created once per discrete occurrence and are never subject
// to the same-instant dedup rule that governs measurement records.
type HealthEvent struct {
	ID              uuid.UUID
	UserID          string
	EventType       string
	StartTime       time.Time
	EndTime         *time.Time
	DurationSeconds *int
	Title           string
	Description     *string
	Metrics         map[string]any
	Producer        string
	QualityScore    float64
	CreatedAt       time.Time
}

// NewHealthEvent creates an event with a generated UUID.
func NewHealthEvent(userID, eventType, title string, start time.Time) *HealthEvent {
	return &HealthEvent{
		ID:        uuid.New(),
		UserID:    userID,
		EventType: eventType,
		Title:     title,
		StartTime: start,
		CreatedAt: time.Now(),
	}
}

// WithProducer sets producer provenance and the derived quality score.
func (e *HealthEvent) WithProducer(producer string) *HealthEvent {
	e.Producer = producer
	e.QualityScore = registry.QualityScore(producer)
	return e
}

// WithEnd sets the end time and derives duration.
func (e *HealthEvent) WithEnd(end time.Time) *HealthEvent {
	e.EndTime = &end
	secs := int(end.Sub(e.StartTime).Seconds())
	e.DurationSeconds = &secs
	return e
}

// WithDescription sets free text used by search.
func (e *HealthEvent) WithDescription(desc string) *HealthEvent {
	e.Description = &desc
	return e
}
