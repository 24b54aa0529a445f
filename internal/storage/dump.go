// ABOUTME: Full-store export and import for backup and migration.
// ABOUTME: Supports JSON and YAML dump formats.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/harperreed/healthhub/internal/models"
	"gopkg.in/yaml.v3"
)

// ExportData represents the full dump format for a user's data.
type ExportData struct {
	Version    string                      `json:"version" yaml:"version"`
	ExportedAt time.Time                   `json:"exported_at" yaml:"exported_at"`
	Tool       string                      `json:"tool" yaml:"tool"`
	UserID     string                      `json:"user_id" yaml:"user_id"`
	Records    []*models.MeasurementRecord `json:"records" yaml:"records"`
	Events     []*models.HealthEvent       `json:"events" yaml:"events"`
	Aggregates []*models.DailyAggregate    `json:"aggregates" yaml:"aggregates"`
}

// GetAllData retrieves everything stored for a user, including
// non-canonical records so a dump is a faithful copy.
func (d *DB) GetAllData(ctx context.Context, userID string) (*ExportData, error) {
	records, err := d.ListRecords(ctx, RecordFilter{
		UserID:              userID,
		IncludeNonCanonical: true,
		IncludeAggregated:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}

	events, err := d.ListEvents(ctx, userID, time.Time{}, time.Time{}, nil, 0)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	aggregates, err := d.ListDailyAggregates(ctx, userID,
		time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC))
	if err != nil {
		return nil, fmt.Errorf("list aggregates: %w", err)
	}

	return &ExportData{
		Version:    "1.0",
		ExportedAt: time.Now(),
		Tool:       "healthhub",
		UserID:     userID,
		Records:    records,
		Events:     events,
		Aggregates: aggregates,
	}, nil
}

// ImportData imports a previously exported dump. Upsert semantics make the
// import idempotent.
func (d *DB) ImportData(ctx context.Context, data *ExportData) error {
	if _, err := d.UpsertRecords(ctx, data.Records); err != nil {
		return fmt.Errorf("import records: %w", err)
	}
	for _, e := range data.Events {
		if err := d.UpsertEvent(ctx, e); err != nil {
			return fmt.Errorf("import event %s: %w", e.ID, err)
		}
	}
	for _, a := range data.Aggregates {
		if err := d.UpsertDailyAggregate(ctx, a); err != nil {
			return fmt.Errorf("import aggregate %s: %w", a.Day(), err)
		}
	}
	return nil
}

// ExportJSON dumps a user's data as JSON.
func (d *DB) ExportJSON(ctx context.Context, userID string) ([]byte, error) {
	data, err := d.GetAllData(ctx, userID)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(data, "", "  ")
}

// ExportYAML dumps a user's data as YAML.
func (d *DB) ExportYAML(ctx context.Context, userID string) ([]byte, error) {
	data, err := d.GetAllData(ctx, userID)
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(data)
}

// ImportJSON imports a dump from JSON bytes.
func (d *DB) ImportJSON(ctx context.Context, data []byte) error {
	var exportData ExportData
	if err := json.Unmarshal(data, &exportData); err != nil {
		return fmt.Errorf("unmarshal JSON: %w", err)
	}
	return d.ImportData(ctx, &exportData)
}
