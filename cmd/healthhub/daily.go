// ABOUTME: CLI command for pre-aggregated daily metrics.
// ABOUTME: Reads daily_aggregates directly; never recomputes from raw records.
package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/harperreed/healthhub/internal/query"
	"github.com/spf13/cobra"
)

var (
	dailyFrom string
	dailyTo   string
)

var dailyCmd = &cobra.Command{
	Use:   "daily",
	Short: "Show pre-aggregated daily metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		start, end, err := parseRangeFlags(dailyFrom, dailyTo)
		if err != nil {
			return err
		}

		engine := query.NewEngine(repo)
		days, err := engine.DailyMetrics(cmd.Context(), currentUser(), start, end)
		if err != nil {
			return fmt.Errorf("failed to query daily metrics: %w", err)
		}

		if len(days) == 0 {
			fmt.Println("No daily aggregates in range. Run 'healthhub aggregate' first.")
			return nil
		}

		faint := color.New(color.Faint)
		for _, d := range days {
			fmt.Printf("%s", faint.Sprint(d.Day()))
			printStat(" steps=%.0f", d.Steps)
			printStat(" distance=%.2fkm", d.DistanceKM)
			printStat(" sleep=%.1fh", d.SleepHours)
			printStat(" kcal_in=%.0f", d.CaloriesIn)
			printStat(" protein=%.0fg", d.ProteinG)
			if d.WorkoutCount > 0 {
				fmt.Printf(" workouts=%d", d.WorkoutCount)
			}
			fmt.Printf(" (%.0f%% complete)\n", d.Completeness*100)
		}
		return nil
	},
}

func printStat(format string, v *float64) {
	if v != nil {
		fmt.Printf(format, *v)
	}
}

func init() {
	dailyCmd.Flags().StringVar(&dailyFrom, "from", "", "start date (default 30 days ago)")
	dailyCmd.Flags().StringVar(&dailyTo, "to", "", "end date (default now)")
	rootCmd.AddCommand(dailyCmd)
}
