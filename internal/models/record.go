// ABOUTME: MeasurementRecord model, the central entity of the reconciliation engine.
// ABOUTME: Records carry canonical-unit values plus provenance and the canonical flag.
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/healthhub/internal/registry"
)

// MeasurementRecord is a single normalized measurement. Value is always in
// the metric type's canonical unit; raw producer units never persist.
// IsCanonical is the only field mutated after insert, and only by the
// canonicalization engine.
type MeasurementRecord struct {
	ID           uuid.UUID
	UserID       string
	MetricType   registry.MetricType
	Value        float64
	Unit         string
	RecordedAt   time.Time
	Producer     string
	SourceDevice *string
	QualityScore float64
	Category     registry.Category
	IsCanonical  bool
	IsAggregated bool
	Description  *string
	Metadata     map[string]any
	CreatedAt    time.Time
}

// NewMeasurementRecord creates a record with a generated UUID. The caller is
// expected to have already converted value to the canonical unit.
func NewMeasurementRecord(userID string, mt registry.MetricType, value float64, recordedAt time.Time) *MeasurementRecord {
	def, _ := registry.Lookup(mt)
	return &MeasurementRecord{
		ID:          uuid.New(),
		UserID:      userID,
		MetricType:  mt,
		Value:       value,
		Unit:        def.CanonicalUnit,
		RecordedAt:  recordedAt,
		Category:    def.Category,
		IsCanonical: true,
		CreatedAt:   time.Now(),
	}
}

// WithProducer sets producer provenance and the derived quality score.
func (r *MeasurementRecord) WithProducer(producer string) *MeasurementRecord {
	r.Producer = producer
	r.QualityScore = registry.QualityScore(producer)
	return r
}

// WithDevice sets the source device.
func (r *MeasurementRecord) WithDevice(device string) *MeasurementRecord {
	r.SourceDevice = &device
	return r
}

// WithDescription sets free text used by search.
func (r *MeasurementRecord) WithDescription(desc string) *MeasurementRecord {
	r.Description = &desc
	return r
}

// HourBucket returns the wall-clock hour bucket containing RecordedAt.
// Buckets never span an hour boundary: 12:59 and 13:01 are different
// buckets even though two minutes apart.
func (r *MeasurementRecord) HourBucket() time.Time {
	return r.RecordedAt.UTC().Truncate(time.Hour)
}
