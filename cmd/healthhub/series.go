// ABOUTME: CLI command for time-series queries.
// ABOUTME: Supports hourly/daily/weekly/monthly bucketing (bucket values are averages).
package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/harperreed/healthhub/internal/query"
	"github.com/harperreed/healthhub/internal/registry"
	"github.com/spf13/cobra"
)

var (
	seriesFrom         string
	seriesTo           string
	seriesAgg          string
	seriesLimit        int
	seriesNonCanonical bool
)

var seriesCmd = &cobra.Command{
	Use:   "series <metric_type>",
	Short: "Query a metric time series",
	Long: `Query the canonical time series for one metric type.

With --agg, raw values in each bucket are averaged. Summation semantics
live in 'healthhub daily', which reads the pre-computed daily rollups.

EXAMPLES:

  healthhub series steps --agg daily
  healthhub series weight --from 2025-07-01 --to 2025-08-01
  healthhub series heart_rate --agg hourly --non-canonical`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !registry.IsValidMetricType(args[0]) {
			return fmt.Errorf("unknown metric type: %s", args[0])
		}
		mt := registry.MetricType(args[0])

		start, end, err := parseRangeFlags(seriesFrom, seriesTo)
		if err != nil {
			return err
		}

		engine := query.NewEngine(repo)
		points, err := engine.TimeSeries(cmd.Context(), currentUser(), mt, start, end, query.TimeSeriesOptions{
			Aggregation:         query.Aggregation(seriesAgg),
			Limit:               seriesLimit,
			IncludeNonCanonical: seriesNonCanonical,
		})
		if err != nil {
			return fmt.Errorf("failed to query series: %w", err)
		}

		if len(points) == 0 {
			fmt.Println("No data in range.")
			return nil
		}

		def, _ := registry.Lookup(mt)
		faint := color.New(color.Faint)
		for _, p := range points {
			fmt.Printf("%s %.2f %s\n",
				faint.Sprint(p.Timestamp.Format("2006-01-02 15:04")),
				p.Value, def.CanonicalUnit)
		}
		return nil
	},
}

func init() {
	seriesCmd.Flags().StringVar(&seriesFrom, "from", "", "start date (default 30 days ago)")
	seriesCmd.Flags().StringVar(&seriesTo, "to", "", "end date (default now)")
	seriesCmd.Flags().StringVar(&seriesAgg, "agg", "", "bucket interval: hourly, daily, weekly, monthly")
	seriesCmd.Flags().IntVarP(&seriesLimit, "limit", "n", 0, "max number of points")
	seriesCmd.Flags().BoolVar(&seriesNonCanonical, "non-canonical", false, "include non-canonical records (audit)")
	rootCmd.AddCommand(seriesCmd)
}
