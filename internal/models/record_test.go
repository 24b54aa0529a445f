// ABOUTME: Tests for the MeasurementRecord model.
// ABOUTME: Constructor defaults, builders, and hour bucket semantics.
package models

import (
	"testing"
	"time"

	"github.com/harperreed/healthhub/internal/registry"
)

func TestNewMeasurementRecord(t *testing.T) {
	at := time.Date(2025, 8, 1, 9, 15, 0, 0, time.UTC)
	r := NewMeasurementRecord("u1", registry.MetricWeight, 82.5, at)

	if r.ID.String() == "" {
		t.Error("Expected generated UUID")
	}
	if r.Unit != "kg" {
		t.Errorf("Expected canonical unit kg, got %s", r.Unit)
	}
	if r.Category != registry.CategoryBodyMeasurement {
		t.Errorf("Expected body_measurement, got %s", r.Category)
	}
	if !r.IsCanonical {
		t.Error("records start canonical until the engine says otherwise")
	}
}

func TestRecordBuilders(t *testing.T) {
	at := time.Date(2025, 8, 1, 9, 15, 0, 0, time.UTC)
	r := NewMeasurementRecord("u1", registry.MetricSteps, 1000, at).
		WithProducer(registry.ProducerOura).
		WithDevice("Oura Ring").
		WithDescription("afternoon walk")

	if r.QualityScore != 0.90 {
		t.Errorf("Expected oura score 0.90, got %v", r.QualityScore)
	}
	if r.SourceDevice == nil || *r.SourceDevice != "Oura Ring" {
		t.Error("device builder failed")
	}
	if r.Description == nil || *r.Description != "afternoon walk" {
		t.Error("description builder failed")
	}
}

func TestHourBucket(t *testing.T) {
	mk := func(h, m int) *MeasurementRecord {
		return NewMeasurementRecord("u1", registry.MetricSteps, 1,
			time.Date(2025, 8, 1, h, m, 30, 0, time.UTC))
	}

	if !mk(12, 0).HourBucket().Equal(mk(12, 59).HourBucket()) {
		t.Error("12:00 and 12:59 share a bucket")
	}
	if mk(12, 59).HourBucket().Equal(mk(13, 1).HourBucket()) {
		t.Error("12:59 and 13:01 are in different buckets")
	}

	// Zone-shifted timestamps bucket by UTC wall clock.
	est := time.FixedZone("EST", -5*3600)
	r := NewMeasurementRecord("u1", registry.MetricSteps, 1,
		time.Date(2025, 8, 1, 7, 30, 0, 0, est))
	want := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	if !r.HourBucket().Equal(want) {
		t.Errorf("Expected bucket %v, got %v", want, r.HourBucket())
	}
}
