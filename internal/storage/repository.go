// ABOUTME: Repository interface for the measurement store.
// ABOUTME: Defines the contract the engines depend on; swappable for testing.
package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/healthhub/internal/models"
)

// Repository defines the storage contract for the reconciliation engine.
// Write operations are confined to ingestion (upserts) and the
// canonicalization engine (flag updates); every other consumer is read-only.
type Repository interface {
	// Measurement records
	UpsertRecords(ctx context.Context, records []*models.MeasurementRecord) (int, error)
	ListRecords(ctx context.Context, f RecordFilter) ([]*models.MeasurementRecord, error)
	SetCanonicalFlags(ctx context.Context, ids []uuid.UUID, canonical bool) (int, error)
	SearchRecords(ctx context.Context, userID, query string, includeNonCanonical bool, limit int) ([]*models.MeasurementRecord, error)

	// Daily aggregates
	UpsertDailyAggregate(ctx context.Context, a *models.DailyAggregate) error
	ListDailyAggregates(ctx context.Context, userID string, start, end time.Time) ([]*models.DailyAggregate, error)

	// Health events
	UpsertEvent(ctx context.Context, e *models.HealthEvent) error
	ListEvents(ctx context.Context, userID string, start, end time.Time, eventTypes []string, limit int) ([]*models.HealthEvent, error)
	SearchEvents(ctx context.Context, userID, query string, limit int) ([]*models.HealthEvent, error)
	CountEventsByType(ctx context.Context, userID string, start, end time.Time) (map[string]int, error)

	// Export/Import
	GetAllData(ctx context.Context, userID string) (*ExportData, error)
	ImportData(ctx context.Context, data *ExportData) error

	// Lifecycle
	Close() error
}
