// ABOUTME: CLI command for multi-metric correlation tables.
// ABOUTME: One row per date; metrics without data that day are left blank.
package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/harperreed/healthhub/internal/query"
	"github.com/harperreed/healthhub/internal/registry"
	"github.com/spf13/cobra"
)

var (
	correlateFrom string
	correlateTo   string
)

var correlateCmd = &cobra.Command{
	Use:   "correlate <metric_type> <metric_type> [metric_type...]",
	Short: "Align metrics on a shared date axis",
	Long: `Build a correlation table: one row per date, one column per metric type.
Dates with no data for a metric leave that column blank rather than
implying a zero measurement.

EXAMPLE:

  healthhub correlate sleep_hours steps --from 2025-07-01`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		types := make([]registry.MetricType, 0, len(args))
		for _, arg := range args {
			if !registry.IsValidMetricType(arg) {
				return fmt.Errorf("unknown metric type: %s", arg)
			}
			types = append(types, registry.MetricType(arg))
		}

		start, end, err := parseRangeFlags(correlateFrom, correlateTo)
		if err != nil {
			return err
		}

		engine := query.NewEngine(repo)
		rows, err := engine.Correlation(cmd.Context(), currentUser(), types, start, end, query.AggregationDaily)
		if err != nil {
			return fmt.Errorf("failed to correlate: %w", err)
		}

		if len(rows) == 0 {
			fmt.Println("No data in range.")
			return nil
		}

		header := []string{"date"}
		for _, mt := range types {
			header = append(header, string(mt))
		}
		color.New(color.Bold).Println(strings.Join(header, "\t"))

		for _, row := range rows {
			cells := []string{row.Date}
			for _, mt := range types {
				if v, ok := row.Values[mt]; ok {
					cells = append(cells, fmt.Sprintf("%.2f", v))
				} else {
					cells = append(cells, "-")
				}
			}
			fmt.Println(strings.Join(cells, "\t"))
		}
		return nil
	},
}

func init() {
	correlateCmd.Flags().StringVar(&correlateFrom, "from", "", "start date (default 30 days ago)")
	correlateCmd.Flags().StringVar(&correlateTo, "to", "", "end date (default now)")
	rootCmd.AddCommand(correlateCmd)
}
