// ABOUTME: Shared test helpers for storage tests.
// ABOUTME: Provides setupTestDB and record fixtures in canonical units.
package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/harperreed/healthhub/internal/models"
	"github.com/harperreed/healthhub/internal/registry"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testRecord(userID string, mt registry.MetricType, value float64, at time.Time, producer string) *models.MeasurementRecord {
	r := models.NewMeasurementRecord(userID, mt, value, at)
	r.WithProducer(producer)
	return r
}
