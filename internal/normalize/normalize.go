// ABOUTME: Normalizer converting raw producer samples into canonical records.
// ABOUTME: Pure function with no I/O; batch helper applies skip-and-log policy.
package normalize

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harperreed/healthhub/internal/models"
	"github.com/harperreed/healthhub/internal/registry"
)

// RawSample is one measurement as delivered by producer-specific ingestion.
type RawSample struct {
	UserID     string         `json:"user_id"`
	Producer   string         `json:"producer"`
	Field      string         `json:"field"`
	Value      float64        `json:"value"`
	Unit       string         `json:"unit"`
	RecordedAt time.Time      `json:"recorded_at"`
	Device     string         `json:"device,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// ErrNotMapped means the producer field is not in the mapping table. Callers
// log and drop the sample; producers evolve their schemas, so this is not
// fatal and must not abort the batch.
var ErrNotMapped = errors.New("producer field not mapped")

// Normalize converts a single raw sample into a canonical MeasurementRecord.
// Returns ErrNotMapped for unknown fields and *registry.ConversionError when
// the unit pair has no conversion. A conversion failure must never be worked
// around by storing the raw value.
func Normalize(s RawSample) (*models.MeasurementRecord, error) {
	mapping, ok := registry.LookupMapping(s.Producer, s.Field)
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", s.Producer, s.Field, ErrNotMapped)
	}

	def, ok := registry.Lookup(mapping.MetricType)
	if !ok {
		return nil, &registry.ConflictError{
			MetricType: mapping.MetricType,
			Reason:     "mapping targets unregistered metric type",
		}
	}

	// The sample may carry its own unit; when absent, the mapping's declared
	// unit applies.
	fromUnit := s.Unit
	if fromUnit == "" {
		fromUnit = mapping.Unit
	}

	value, err := registry.Convert(s.Value, fromUnit, def.CanonicalUnit)
	if err != nil {
		return nil, err
	}

	rec := models.NewMeasurementRecord(s.UserID, mapping.MetricType, value, s.RecordedAt)
	rec.WithProducer(s.Producer)
	if s.Device != "" {
		rec.WithDevice(s.Device)
	}
	if len(s.Metadata) > 0 {
		rec.Metadata = s.Metadata
	}
	return rec, nil
}

// BatchStats summarizes a batch normalization pass.
type BatchStats struct {
	Normalized int
	Unmapped   int
	Failed     int
}

// Batch normalizes an order-independent batch of raw samples. Unmapped
// fields are logged and dropped; conversion failures are logged and counted
// but do not abort the rest of the batch.
func Batch(logger *log.Logger, samples []RawSample) ([]*models.MeasurementRecord, BatchStats) {
	records := make([]*models.MeasurementRecord, 0, len(samples))
	var stats BatchStats

	for _, s := range samples {
		rec, err := Normalize(s)
		if err != nil {
			if errors.Is(err, ErrNotMapped) {
				stats.Unmapped++
				logger.Debug("dropping unmapped sample",
					"producer", s.Producer, "field", s.Field)
				continue
			}
			stats.Failed++
			logger.Error("normalization failed",
				"producer", s.Producer, "field", s.Field, "err", err)
			continue
		}
		records = append(records, rec)
		stats.Normalized++
	}

	return records, stats
}
