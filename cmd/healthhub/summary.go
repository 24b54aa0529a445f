// ABOUTME: CLI command for the period health summary.
// ABOUTME: Averages and totals computed from daily aggregates.
package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/harperreed/healthhub/internal/query"
	"github.com/spf13/cobra"
)

var (
	summaryFrom string
	summaryTo   string
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show a period health snapshot",
	Long: `Compute a period snapshot from the daily rollups: average steps, sleep,
calories and protein, total distance, workout and event counts.

DayCount reports how many days in the window actually have data, so a
two-day sample over a thirty-day window is visible as such.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		start, end, err := parseRangeFlags(summaryFrom, summaryTo)
		if err != nil {
			return err
		}

		engine := query.NewEngine(repo)
		s, err := engine.Summarize(cmd.Context(), currentUser(), start, end)
		if err != nil {
			return fmt.Errorf("failed to summarize: %w", err)
		}

		color.New(color.Bold).Printf("Summary %s to %s (%d days with data)\n", s.Start, s.End, s.DayCount)
		if s.DayCount == 0 {
			fmt.Println("No daily aggregates in range. Run 'healthhub aggregate' first.")
			return nil
		}

		printSummaryStat("Avg steps", s.AvgSteps, "")
		printSummaryStat("Avg sleep", s.AvgSleepHours, "h")
		printSummaryStat("Avg calories in", s.AvgCaloriesIn, "kcal")
		printSummaryStat("Avg protein", s.AvgProteinG, "g")
		printSummaryStat("Avg resting HR", s.AvgRestingHR, "bpm")
		printSummaryStat("Total distance", s.TotalDistanceKM, "km")
		printSummaryStat("Total active calories", s.TotalActiveCal, "kcal")
		fmt.Printf("  Workouts: %d\n", s.TotalWorkouts)
		for et, n := range s.EventCounts {
			fmt.Printf("  %s events: %d\n", et, n)
		}
		fmt.Printf("  Data completeness: %.0f%%\n", s.AvgCompleteness*100)
		return nil
	},
}

func printSummaryStat(label string, v *float64, unit string) {
	if v == nil {
		return
	}
	if unit != "" {
		fmt.Printf("  %s: %.1f %s\n", label, *v, unit)
		return
	}
	fmt.Printf("  %s: %.1f\n", label, *v)
}

func init() {
	summaryCmd.Flags().StringVar(&summaryFrom, "from", "", "start date (default 30 days ago)")
	summaryCmd.Flags().StringVar(&summaryTo, "to", "", "end date (default now)")
	rootCmd.AddCommand(summaryCmd)
}
