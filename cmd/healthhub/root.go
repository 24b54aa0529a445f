// ABOUTME: Root Cobra command for healthhub CLI.
// ABOUTME: Opens storage in PersistentPreRunE and closes it in PostRunE.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harperreed/healthhub/internal/config"
	"github.com/harperreed/healthhub/internal/storage"
	"github.com/spf13/cobra"
)

var (
	cfg    *config.Config
	repo   *storage.DB
	logger *log.Logger

	flagUser string
)

var rootCmd = &cobra.Command{
	Use:   "healthhub",
	Short: "Multi-producer health data reconciliation engine",
	Long: `Healthhub ingests time-stamped health measurements from multiple producers
(a device-native health store plus third-party fitness and nutrition
services), reconciles overlapping measurements into a single canonical view,
and serves that view as time series, correlation tables, search hits, and
retrieval-ready text chunks.

PRODUCERS:

  Native      apple_health, health_connect
  Third-party fitbit, oura, withings, garmin, strava, myfitnesspal, manual

  When a native producer and a third-party producer report the same metric
  in the same hour, the native record wins; the third-party record is kept
  but marked non-canonical. Metrics only third parties report (macros,
  sets/reps, elevation detail) are always canonical.

QUICK START:

  $ healthhub ingest batch.json          # Normalize + store a producer batch
  $ healthhub series steps --agg daily   # Daily step averages
  $ healthhub summary                    # Period snapshot
  $ healthhub export                     # RAG chunks for AI context

MCP INTEGRATION:

  Run 'healthhub mcp' to start the Model Context Protocol server for use
  with Claude Desktop or other MCP-compatible AI assistants:

  {
    "mcpServers": {
      "healthhub": { "command": "healthhub", "args": ["mcp"] }
    }
  }

DATA STORAGE:

  Records are stored in SQLite at ~/.local/share/healthhub/healthhub.db.
  Export chunks are cached in a local Badger store next to it.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		repo, err = cfg.OpenStorage()
		if err != nil {
			return fmt.Errorf("open storage: %w", err)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if repo != nil {
			return repo.Close()
		}
		return nil
	},
}

func init() {
	logger = log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
	})
	rootCmd.PersistentFlags().StringVarP(&flagUser, "user", "u", "", "user id (defaults to configured user)")
}

// currentUser resolves the effective user id for a command.
func currentUser() string {
	if flagUser != "" {
		return flagUser
	}
	return cfg.GetDefaultUser()
}

// parseTime accepts YYYY-MM-DD or "YYYY-MM-DD HH:MM" or RFC 3339.
func parseTime(value string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", "2006-01-02 15:04", time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", value)
}

// parseRangeFlags resolves --from/--to, defaulting to the last 30 days.
func parseRangeFlags(fromStr, toStr string) (time.Time, time.Time, error) {
	now := time.Now().UTC()
	start := now.AddDate(0, 0, -30)
	end := now

	if fromStr != "" {
		t, err := parseTime(fromStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		start = t
	}
	if toStr != "" {
		t, err := parseTime(toStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		end = t
	}
	return start, end, nil
}
