// ABOUTME: CLI commands for export: RAG chunks, full dumps, and imports.
// ABOUTME: Chunk output is cached in Badger keyed by (user, range).
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/harperreed/healthhub/internal/chunkstore"
	"github.com/harperreed/healthhub/internal/export"
	"github.com/harperreed/healthhub/internal/query"
	"github.com/spf13/cobra"
)

var (
	exportFrom    string
	exportTo      string
	exportJSONOut bool
	exportNoCache bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export health data as retrieval-ready text chunks",
	Long: `Format the period's summary, daily metrics, and events as bounded text
chunks suitable for retrieval-augmented AI context. Each chunk carries
provenance metadata (type, date range, sequence number).

Chunk size is bounded by the configured budget (default 2000 characters),
and a day's metrics are never split across two chunks. Identical input
always produces identical chunks, so results are cached for 24 hours;
use --no-cache to force recomputation.

EXAMPLES:

  healthhub export --from 2025-07-01 --to 2025-08-01
  healthhub export --json > chunks.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		userID := currentUser()

		start, end, err := parseRangeFlags(exportFrom, exportTo)
		if err != nil {
			return err
		}
		startKey := start.UTC().Format("2006-01-02")
		endKey := end.UTC().Format("2006-01-02")

		var cache *chunkstore.Store
		if !exportNoCache {
			cache, err = chunkstore.Open(cfg.ChunkCacheDir())
			if err != nil {
				logger.Warn("chunk cache unavailable", "error", err)
			} else {
				defer cache.Close()
			}
		}

		var chunks []export.Chunk
		if cache != nil {
			cached, err := cache.Get(userID, "context", startKey, endKey)
			if err == nil {
				chunks = cached
			} else if !errors.Is(err, chunkstore.ErrNotFound) {
				logger.Warn("chunk cache read failed", "error", err)
			}
		}

		if chunks == nil {
			engine := query.NewEngine(repo)
			formatter := export.NewFormatter(cfg.GetMaxChunkSize())

			summary, err := engine.Summarize(ctx, userID, start, end)
			if err != nil {
				return fmt.Errorf("export summary: %w", err)
			}
			days, err := engine.DailyMetrics(ctx, userID, start, end)
			if err != nil {
				return fmt.Errorf("export daily metrics: %w", err)
			}
			events, err := engine.HealthEvents(ctx, userID, start, end, nil)
			if err != nil {
				return fmt.Errorf("export events: %w", err)
			}

			chunks = []export.Chunk{formatter.SummaryChunk(summary)}
			chunks = append(chunks, formatter.DailyMetricChunks(days)...)
			chunks = append(chunks, formatter.EventChunks(events)...)

			if cache != nil {
				if err := cache.Put(userID, "context", startKey, endKey, chunks); err != nil {
					logger.Warn("chunk cache write failed", "error", err)
				}
			}
		}

		if exportJSONOut {
			data, err := json.MarshalIndent(chunks, "", "  ")
			if err != nil {
				return fmt.Errorf("marshal chunks: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		faint := color.New(color.Faint)
		for i, c := range chunks {
			faint.Printf("--- chunk %d [%s] %d chars ---\n", i, c.Type, len(c.Content))
			fmt.Println(c.Content)
		}
		return nil
	},
}

var (
	dumpFormat string
	dumpOutput string
)

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Dump all stored data for backup or migration",
	Long: `Write a full dump of the user's records (canonical and non-canonical),
events, and daily aggregates. The dump round-trips through 'healthhub
import' without loss.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var data []byte
		var err error
		switch dumpFormat {
		case "json":
			data, err = repo.ExportJSON(cmd.Context(), currentUser())
		case "yaml":
			data, err = repo.ExportYAML(cmd.Context(), currentUser())
		default:
			return fmt.Errorf("unknown dump format: %s", dumpFormat)
		}
		if err != nil {
			return fmt.Errorf("dump failed: %w", err)
		}

		if dumpOutput == "" {
			fmt.Print(string(data))
			return nil
		}
		if err := os.WriteFile(dumpOutput, data, 0o600); err != nil {
			return fmt.Errorf("write dump: %w", err)
		}
		color.Green("✓ dumped to %s", dumpOutput)
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <dump.json>",
	Short: "Import a previously dumped JSON file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read dump: %w", err)
		}
		if err := repo.ImportJSON(cmd.Context(), data); err != nil {
			return fmt.Errorf("import failed: %w", err)
		}
		color.Green("✓ imported %s", args[0])
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFrom, "from", "", "start date (default 30 days ago)")
	exportCmd.Flags().StringVar(&exportTo, "to", "", "end date (default now)")
	exportCmd.Flags().BoolVar(&exportJSONOut, "json", false, "emit chunks as JSON")
	exportCmd.Flags().BoolVar(&exportNoCache, "no-cache", false, "bypass the chunk cache")
	rootCmd.AddCommand(exportCmd)

	dumpCmd.Flags().StringVar(&dumpFormat, "format", "json", "dump format: json or yaml")
	dumpCmd.Flags().StringVarP(&dumpOutput, "output", "o", "", "write to file instead of stdout")
	rootCmd.AddCommand(dumpCmd)

	rootCmd.AddCommand(importCmd)
}
