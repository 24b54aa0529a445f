// ABOUTME: CLI command for rebuilding daily aggregate rows.
// ABOUTME: Sums, averages, and completeness computed from canonical records.
package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/harperreed/healthhub/internal/aggregate"
	"github.com/spf13/cobra"
)

var (
	aggregateFrom string
	aggregateTo   string
)

var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Rebuild daily aggregates from canonical records",
	Long: `Recompute the daily rollup rows for a date range. Sums apply to
cumulative metrics (steps, distance, calories, macros); averages apply to
level metrics (sleep hours, resting heart rate). Only canonical records
feed the rollups, so duplicate producer data never double-counts.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		start, end, err := parseRangeFlags(aggregateFrom, aggregateTo)
		if err != nil {
			return err
		}

		builder := aggregate.NewBuilder(repo, logger)
		days, err := builder.Build(cmd.Context(), currentUser(), start, end)
		if err != nil {
			return fmt.Errorf("aggregation failed: %w", err)
		}

		color.Green("✓ %d daily aggregates rebuilt", days)
		return nil
	},
}

func init() {
	aggregateCmd.Flags().StringVar(&aggregateFrom, "from", "", "start date (default 30 days ago)")
	aggregateCmd.Flags().StringVar(&aggregateTo, "to", "", "end date (default now)")
	rootCmd.AddCommand(aggregateCmd)
}
