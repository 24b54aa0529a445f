// ABOUTME: CLI command for running the canonicalization pass on demand.
// ABOUTME: Used after bulk imports or to audit flags over a time range.
package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/harperreed/healthhub/internal/canonical"
	"github.com/harperreed/healthhub/internal/registry"
	"github.com/spf13/cobra"
)

var (
	canonFrom  string
	canonTo    string
	canonTypes []string
)

var canonicalizeCmd = &cobra.Command{
	Use:   "canonicalize",
	Short: "Recompute canonical flags for a user",
	Long: `Recompute canonical flags across contested hour buckets.

Within each wall-clock hour, a native-producer record (apple_health or
health_connect) outranks any third-party record for the same metric type.
Third-party records are never deleted, only flagged non-canonical.

The pass is idempotent: running it twice in a row updates nothing the
second time. With no flags it covers the user's entire history.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := canonical.NewEngine(repo, logger)
		if err != nil {
			return err
		}

		var types []registry.MetricType
		for _, raw := range canonTypes {
			if !registry.IsValidMetricType(raw) {
				return fmt.Errorf("unknown metric type: %s", raw)
			}
			types = append(types, registry.MetricType(raw))
		}

		var timeRange *canonical.TimeRange
		if canonFrom != "" || canonTo != "" {
			start, end, err := parseRangeFlags(canonFrom, canonTo)
			if err != nil {
				return err
			}
			timeRange = &canonical.TimeRange{Start: start, End: end}
		}

		result, err := engine.RunCheck(cmd.Context(), currentUser(), types, timeRange)
		if err != nil {
			return fmt.Errorf("canonicalization failed: %w", err)
		}

		color.Green("✓ %d buckets examined, %d flags updated", result.BucketsExamined, result.UpdatedCount)
		return nil
	},
}

func init() {
	canonicalizeCmd.Flags().StringVar(&canonFrom, "from", "", "start of range (default: all history)")
	canonicalizeCmd.Flags().StringVar(&canonTo, "to", "", "end of range")
	canonicalizeCmd.Flags().StringSliceVar(&canonTypes, "type", nil, "restrict to metric types (repeatable)")
	rootCmd.AddCommand(canonicalizeCmd)
}
