// ABOUTME: CLI command for ingesting producer batch files.
// ABOUTME: Normalizes raw samples, upserts records, and runs canonicalization.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"time"

	"github.com/fatih/color"
	"github.com/harperreed/healthhub/internal/aggregate"
	"github.com/harperreed/healthhub/internal/canonical"
	"github.com/harperreed/healthhub/internal/models"
	"github.com/harperreed/healthhub/internal/normalize"
	"github.com/harperreed/healthhub/internal/registry"
	"github.com/spf13/cobra"
)

var (
	ingestSkipCanonical bool
	ingestAggregate     bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <batch.json> [batch.json...]",
	Short: "Ingest producer batch files",
	Long: `Ingest one or more producer batch files.

A batch file is a JSON array of raw samples:

  [
    {
      "user_id": "u1",
      "producer": "apple_health",
      "field": "HKQuantityTypeIdentifierStepCount",
      "value": 1042,
      "unit": "count",
      "recorded_at": "2025-08-01T09:15:00Z",
      "device": "Apple Watch"
    }
  ]

Samples with unmapped producer fields are logged and dropped; samples whose
units cannot be converted are rejected individually without aborting the
batch. Re-ingesting the same batch is idempotent.

After the upsert, a canonicalization pass runs scoped to the metric types
the batch touched (disable with --skip-canonical).`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		engine, err := canonical.NewEngine(repo, logger)
		if err != nil {
			return err
		}

		for _, path := range args {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read batch %s: %w", path, err)
			}

			var samples []normalize.RawSample
			if err := json.Unmarshal(data, &samples); err != nil {
				return fmt.Errorf("parse batch %s: %w", path, err)
			}

			records, stats := normalize.Batch(logger, samples)
			inserted, err := repo.UpsertRecords(ctx, records)
			if err != nil {
				return fmt.Errorf("store batch %s: %w", path, err)
			}

			color.Green("✓ %s: %d normalized, %d inserted", path, stats.Normalized, inserted)
			if stats.Unmapped > 0 || stats.Failed > 0 {
				color.Yellow("  %d unmapped (dropped), %d failed conversion", stats.Unmapped, stats.Failed)
			}

			if ingestSkipCanonical {
				continue
			}

			// One pass per user, scoped to the metric types just touched.
			for userID, touched := range touchedByUser(records) {
				result, err := engine.RunCheck(ctx, userID, touched, nil)
				if err != nil {
					return fmt.Errorf("canonicalize %s: %w", userID, err)
				}
				if result.UpdatedCount > 0 {
					fmt.Printf("  canonicalized %s: %d flags updated\n", userID, result.UpdatedCount)
				}

				if ingestAggregate {
					start, end := recordDateRange(records, userID)
					builder := aggregate.NewBuilder(repo, logger)
					if _, err := builder.Build(ctx, userID, start, end); err != nil {
						return fmt.Errorf("aggregate %s: %w", userID, err)
					}
				}
			}
		}

		return nil
	},
}

// touchedByUser collects the distinct metric types each user's records touch.
func touchedByUser(records []*models.MeasurementRecord) map[string][]registry.MetricType {
	seen := make(map[string]map[registry.MetricType]bool)
	for _, r := range records {
		if seen[r.UserID] == nil {
			seen[r.UserID] = make(map[registry.MetricType]bool)
		}
		seen[r.UserID][r.MetricType] = true
	}

	out := make(map[string][]registry.MetricType, len(seen))
	for userID, types := range seen {
		for mt := range types {
			out[userID] = append(out[userID], mt)
		}
	}
	return out
}

// recordDateRange returns the earliest and latest recorded_at for a user's
// records in the batch.
func recordDateRange(records []*models.MeasurementRecord, userID string) (time.Time, time.Time) {
	var start, end time.Time
	for _, r := range records {
		if r.UserID != userID {
			continue
		}
		if start.IsZero() || r.RecordedAt.Before(start) {
			start = r.RecordedAt
		}
		if end.IsZero() || r.RecordedAt.After(end) {
			end = r.RecordedAt
		}
	}
	return start, end
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestSkipCanonical, "skip-canonical", false, "skip the canonicalization pass")
	ingestCmd.Flags().BoolVar(&ingestAggregate, "aggregate", false, "rebuild daily aggregates for the ingested range")
	rootCmd.AddCommand(ingestCmd)
}
