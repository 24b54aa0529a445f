// ABOUTME: HealthEvent persistence for workouts, sleep sessions, and meals.
// ABOUTME: Events are unique by (user, event_type, start_time) and never deduped by hour bucket.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/healthhub/internal/models"
)

const eventColumns = `id, user_id, event_type, start_time, end_time,
	duration_seconds, title, description, metrics, producer, quality_score,
	created_at`

// UpsertEvent inserts an event, ignoring exact duplicates on
// (user_id, event_type, start_time).
func (d *DB) UpsertEvent(ctx context.Context, e *models.HealthEvent) error {
	metrics, err := marshalBag(e.Metrics)
	if err != nil {
		return fmt.Errorf("marshal event metrics: %w", err)
	}

	var endTime interface{}
	if e.EndTime != nil {
		endTime = e.EndTime.UTC().Format(time.RFC3339)
	}

	_, err = d.db.ExecContext(ctx, `
		INSERT INTO health_events (`+eventColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, event_type, start_time) DO NOTHING`,
		e.ID.String(),
		e.UserID,
		e.EventType,
		e.StartTime.UTC().Format(time.RFC3339),
		endTime,
		e.DurationSeconds,
		e.Title,
		e.Description,
		metrics,
		e.Producer,
		e.QualityScore,
		e.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upsert event: %w", err)
	}
	return nil
}

// ListEvents returns events whose start_time falls in [start, end), newest
// first, optionally filtered by event type.
func (d *DB) ListEvents(ctx context.Context, userID string, start, end time.Time, eventTypes []string, limit int) ([]*models.HealthEvent, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + eventColumns + ` FROM health_events WHERE user_id = ?`)
	args := []interface{}{userID}

	if !start.IsZero() {
		sb.WriteString(" AND start_time >= ?")
		args = append(args, start.UTC().Format(time.RFC3339))
	}
	if !end.IsZero() {
		sb.WriteString(" AND start_time < ?")
		args = append(args, end.UTC().Format(time.RFC3339))
	}
	if len(eventTypes) > 0 {
		sb.WriteString(" AND event_type IN (" + placeholders(len(eventTypes)) + ")")
		for _, et := range eventTypes {
			args = append(args, et)
		}
	}

	sb.WriteString(" ORDER BY start_time DESC")
	if limit > 0 {
		sb.WriteString(" LIMIT ?")
		args = append(args, limit)
	}

	rows, err := d.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// SearchEvents matches events whose title or description contains the query,
// case-insensitive, newest first.
func (d *DB) SearchEvents(ctx context.Context, userID, query string, limit int) ([]*models.HealthEvent, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT `+eventColumns+` FROM health_events
		WHERE user_id = ?
		AND (LOWER(title) LIKE '%' || LOWER(?) || '%'
			OR (description IS NOT NULL AND LOWER(description) LIKE '%' || LOWER(?) || '%'))
		ORDER BY start_time DESC LIMIT ?`,
		userID, query, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// CountEventsByType returns per-type event counts for the range.
func (d *DB) CountEventsByType(ctx context.Context, userID string, start, end time.Time) (map[string]int, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT event_type, COUNT(*) FROM health_events
		WHERE user_id = ? AND start_time >= ? AND start_time < ?
		GROUP BY event_type`,
		userID,
		start.UTC().Format(time.RFC3339),
		end.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("count events: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var et string
		var n int
		if err := rows.Scan(&et, &n); err != nil {
			return nil, fmt.Errorf("scan event count: %w", err)
		}
		counts[et] = n
	}
	return counts, rows.Err()
}

func scanEvents(rows *sql.Rows) ([]*models.HealthEvent, error) {
	var events []*models.HealthEvent

	for rows.Next() {
		var e models.HealthEvent
		var idStr, startTime, createdAt string
		var endTime, description, metrics sql.NullString
		var duration sql.NullInt64

		err := rows.Scan(&idStr, &e.UserID, &e.EventType, &startTime, &endTime,
			&duration, &e.Title, &description, &metrics, &e.Producer,
			&e.QualityScore, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}

		e.ID, _ = uuid.Parse(idStr)
		e.StartTime, _ = time.Parse(time.RFC3339, startTime)
		e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		if endTime.Valid {
			t, _ := time.Parse(time.RFC3339, endTime.String)
			e.EndTime = &t
		}
		if duration.Valid {
			secs := int(duration.Int64)
			e.DurationSeconds = &secs
		}
		if description.Valid {
			e.Description = &description.String
		}
		if metrics.Valid && metrics.String != "" {
			_ = json.Unmarshal([]byte(metrics.String), &e.Metrics)
		}

		events = append(events, &e)
	}

	return events, rows.Err()
}
