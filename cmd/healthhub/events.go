// ABOUTME: CLI command for listing discrete health events.
// ABOUTME: Events are workouts, illnesses, and similar episodes, newest first.
package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/harperreed/healthhub/internal/query"
	"github.com/spf13/cobra"
)

var (
	eventsFrom  string
	eventsTo    string
	eventsType  string
	eventsLimit int
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List health events, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		start, end, err := parseRangeFlags(eventsFrom, eventsTo)
		if err != nil {
			return err
		}

		var types []string
		if eventsType != "" {
			types = []string{eventsType}
		}

		engine := query.NewEngine(repo)
		events, err := engine.HealthEvents(cmd.Context(), currentUser(), start, end, types)
		if err != nil {
			return fmt.Errorf("failed to query events: %w", err)
		}
		if eventsLimit > 0 && len(events) > eventsLimit {
			events = events[:eventsLimit]
		}

		if len(events) == 0 {
			fmt.Println("No events in range.")
			return nil
		}

		faint := color.New(color.Faint)
		bold := color.New(color.Bold)
		for _, ev := range events {
			fmt.Printf("%s %s %s",
				faint.Sprint(ev.StartTime.Format("2006-01-02 15:04")),
				bold.Sprint(ev.EventType),
				ev.Title)
			if ev.Producer != "" {
				fmt.Printf(" [%s]", ev.Producer)
			}
			fmt.Println()
			if ev.Description != nil && *ev.Description != "" {
				fmt.Printf("    %s\n", *ev.Description)
			}
		}
		return nil
	},
}

func init() {
	eventsCmd.Flags().StringVar(&eventsFrom, "from", "", "start date (default 30 days ago)")
	eventsCmd.Flags().StringVar(&eventsTo, "to", "", "end date (default now)")
	eventsCmd.Flags().StringVar(&eventsType, "type", "", "filter by event type (e.g. workout)")
	eventsCmd.Flags().IntVarP(&eventsLimit, "limit", "n", 0, "max number of events")
	rootCmd.AddCommand(eventsCmd)
}
