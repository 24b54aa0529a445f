// ABOUTME: CLI command for free-text search across records and events.
// ABOUTME: Case-insensitive substring match, capped result set.
package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/harperreed/healthhub/internal/query"
	"github.com/spf13/cobra"
)

var searchScope string

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search measurement descriptions and events",
	Long: `Case-insensitive substring search across measurement descriptions and
event titles/descriptions. Results are capped at 50 per kind.

EXAMPLES:

  healthhub search "morning run"
  healthhub search migraine --scope events`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine := query.NewEngine(repo)
		results, err := engine.Search(cmd.Context(), currentUser(), args[0], query.SearchScope(searchScope))
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}

		if len(results.Records) == 0 && len(results.Events) == 0 {
			fmt.Println("No matches.")
			return nil
		}

		faint := color.New(color.Faint)
		if len(results.Records) > 0 {
			color.New(color.Bold).Printf("Records (%d)\n", len(results.Records))
			for _, r := range results.Records {
				desc := ""
				if r.Description != nil {
					desc = *r.Description
				}
				fmt.Printf("  %s %s %.2f %s  %s\n",
					faint.Sprint(r.RecordedAt.Format("2006-01-02")),
					r.MetricType, r.Value, r.Unit, desc)
			}
		}
		if len(results.Events) > 0 {
			color.New(color.Bold).Printf("Events (%d)\n", len(results.Events))
			for _, ev := range results.Events {
				fmt.Printf("  %s %s %s\n",
					faint.Sprint(ev.StartTime.Format("2006-01-02")),
					ev.EventType, ev.Title)
			}
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().StringVar(&searchScope, "scope", "all", "search scope: records, events, all")
	rootCmd.AddCommand(searchCmd)
}
