// ABOUTME: Export formatter turning query results into bounded text chunks.
// ABOUTME: Deterministic chunking for retrieval-augmented AI consumption.
package export

import (
	"fmt"
	"sort"
	"strings"

	"github.com/harperreed/healthhub/internal/models"
	"github.com/harperreed/healthhub/internal/query"
)

// DefaultMaxChunkSize is the default character budget per chunk.
const DefaultMaxChunkSize = 2000

// Chunk types emitted by the formatter.
const (
	ChunkTypeSummary      = "summary"
	ChunkTypeDailyMetrics = "daily_metrics"
	ChunkTypeHealthEvents = "health_events"
)

// Chunk is one bounded-size text unit with provenance metadata, so a
// downstream consumer can cite its origin without re-parsing the text.
type Chunk struct {
	Type     string            `json:"type"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata"`
}

// Formatter converts query engine output into chunks. Given identical input
// and the same budget, output is reproducible byte-for-byte: no randomness,
// no wall-clock dependence.
type Formatter struct {
	maxChunkSize int
}

// NewFormatter creates a formatter with the given character budget per
// chunk; zero or negative means DefaultMaxChunkSize.
func NewFormatter(maxChunkSize int) *Formatter {
	if maxChunkSize <= 0 {
		maxChunkSize = DefaultMaxChunkSize
	}
	return &Formatter{maxChunkSize: maxChunkSize}
}

// SummaryChunk renders a period summary as a single chunk.
func (f *Formatter) SummaryChunk(s *query.Summary) Chunk {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Health summary for %s to %s (%d days with data):\n", s.Start, s.End, s.DayCount)
	writeStat(&sb, "Average steps", s.AvgSteps, "per day")
	writeStat(&sb, "Average sleep", s.AvgSleepHours, "hours")
	writeStat(&sb, "Average calories consumed", s.AvgCaloriesIn, "kcal")
	writeStat(&sb, "Average protein", s.AvgProteinG, "g")
	writeStat(&sb, "Average resting heart rate", s.AvgRestingHR, "bpm")
	writeStat(&sb, "Total distance", s.TotalDistanceKM, "km")
	writeStat(&sb, "Total active calories", s.TotalActiveCal, "kcal")
	if s.TotalWorkouts > 0 {
		fmt.Fprintf(&sb, "- Workouts: %d\n", s.TotalWorkouts)
	}
	for _, et := range sortedKeys(s.EventCounts) {
		fmt.Fprintf(&sb, "- %s events: %d\n", et, s.EventCounts[et])
	}

	return Chunk{
		Type:    ChunkTypeSummary,
		Content: strings.TrimRight(sb.String(), "\n"),
		Metadata: map[string]string{
			"type":       ChunkTypeSummary,
			"start_date": s.Start,
			"end_date":   s.End,
			"day_count":  fmt.Sprintf("%d", s.DayCount),
		},
	}
}

// DailyMetricChunks renders one human-readable block per day and packs the
// blocks into chunks. A day's block is never split mid-day: when appending
// the next block would exceed the budget, the current chunk closes and a new
// one starts.
func (f *Formatter) DailyMetricChunks(aggs []*models.DailyAggregate) []Chunk {
	blocks := make([]string, 0, len(aggs))
	for _, a := range aggs {
		blocks = append(blocks, formatDayBlock(a))
	}
	return f.packBlocks(ChunkTypeDailyMetrics, blocks, dateRangeMetadata(aggs))
}

// EventChunks renders one block per event with the same packing rule.
func (f *Formatter) EventChunks(events []*models.HealthEvent) []Chunk {
	blocks := make([]string, 0, len(events))
	for _, e := range events {
		blocks = append(blocks, formatEventBlock(e))
	}

	meta := map[string]string{"count": fmt.Sprintf("%d", len(events))}
	if len(events) > 0 {
		// Events arrive newest first.
		meta["start_date"] = events[len(events)-1].StartTime.UTC().Format("2006-01-02")
		meta["end_date"] = events[0].StartTime.UTC().Format("2006-01-02")
	}
	return f.packBlocks(ChunkTypeHealthEvents, blocks, meta)
}

// packBlocks concatenates blocks into chunks within the budget. An oversized
// single block falls back to splitting at line boundaries so no chunk ever
// exceeds the budget.
func (f *Formatter) packBlocks(chunkType string, blocks []string, baseMeta map[string]string) []Chunk {
	var chunks []Chunk
	var current strings.Builder

	flush := func() {
		if current.Len() == 0 {
			return
		}
		chunks = append(chunks, f.newChunk(chunkType, current.String(), baseMeta, len(chunks)))
		current.Reset()
	}

	for _, block := range blocks {
		if block == "" {
			continue
		}
		if len(block) > f.maxChunkSize {
			flush()
			for _, piece := range splitByLines(block, f.maxChunkSize) {
				chunks = append(chunks, f.newChunk(chunkType, piece, baseMeta, len(chunks)))
			}
			continue
		}

		need := len(block)
		if current.Len() > 0 {
			need += 1 // separating newline
		}
		if current.Len()+need > f.maxChunkSize {
			flush()
		}
		if current.Len() > 0 {
			current.WriteByte('\n')
		}
		current.WriteString(block)
	}
	flush()

	return chunks
}

func (f *Formatter) newChunk(chunkType, content string, baseMeta map[string]string, seq int) Chunk {
	meta := map[string]string{
		"type":  chunkType,
		"chunk": fmt.Sprintf("%d", seq),
	}
	for k, v := range baseMeta {
		meta[k] = v
	}
	return Chunk{Type: chunkType, Content: content, Metadata: meta}
}

// splitByLines cuts an oversized block at line boundaries, and only as a
// last resort mid-line when a single line alone exceeds the budget.
func splitByLines(block string, budget int) []string {
	var pieces []string
	var current strings.Builder

	for _, line := range strings.Split(block, "\n") {
		for len(line) > budget {
			if current.Len() > 0 {
				pieces = append(pieces, current.String())
				current.Reset()
			}
			pieces = append(pieces, line[:budget])
			line = line[budget:]
		}
		need := len(line)
		if current.Len() > 0 {
			need += 1
		}
		if current.Len()+need > budget {
			pieces = append(pieces, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte('\n')
		}
		current.WriteString(line)
	}
	if current.Len() > 0 {
		pieces = append(pieces, current.String())
	}
	return pieces
}

func dateRangeMetadata(aggs []*models.DailyAggregate) map[string]string {
	meta := map[string]string{"count": fmt.Sprintf("%d", len(aggs))}
	if len(aggs) > 0 {
		meta["start_date"] = aggs[0].Day()
		meta["end_date"] = aggs[len(aggs)-1].Day()
	}
	return meta
}

func formatDayBlock(a *models.DailyAggregate) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s:", a.Day())
	parts := make([]string, 0, 8)
	parts = appendStat(parts, "steps", a.Steps, "%.0f")
	parts = appendStatUnit(parts, "distance", a.DistanceKM, "%.2f", "km")
	parts = appendStatUnit(parts, "active calories", a.ActiveCalories, "%.0f", "kcal")
	parts = appendStatUnit(parts, "sleep", a.SleepHours, "%.1f", "h")
	parts = appendStatUnit(parts, "calories in", a.CaloriesIn, "%.0f", "kcal")
	parts = appendStatUnit(parts, "protein", a.ProteinG, "%.0f", "g")
	parts = appendStatUnit(parts, "resting HR", a.RestingHeartRate, "%.0f", "bpm")
	if a.WorkoutCount > 0 {
		parts = append(parts, fmt.Sprintf("%d workout(s)", a.WorkoutCount))
	}
	if len(parts) == 0 {
		parts = append(parts, "no data")
	}
	sb.WriteString(" " + strings.Join(parts, ", "))
	return sb.String()
}

func formatEventBlock(e *models.HealthEvent) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s: %s",
		e.StartTime.UTC().Format("2006-01-02 15:04"), e.EventType, e.Title)
	if e.DurationSeconds != nil {
		fmt.Fprintf(&sb, " (%d min)", *e.DurationSeconds/60)
	}
	if e.Description != nil && *e.Description != "" {
		fmt.Fprintf(&sb, " - %s", *e.Description)
	}
	return sb.String()
}

func writeStat(sb *strings.Builder, label string, v *float64, unit string) {
	if v == nil {
		return
	}
	fmt.Fprintf(sb, "- %s: %.1f %s\n", label, *v, unit)
}

func appendStat(parts []string, label string, v *float64, format string) []string {
	if v == nil {
		return parts
	}
	return append(parts, fmt.Sprintf(format+" %s", *v, label))
}

func appendStatUnit(parts []string, label string, v *float64, format, unit string) []string {
	if v == nil {
		return parts
	}
	return append(parts, fmt.Sprintf(format+" %s %s", *v, unit, label))
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// Deterministic output requires stable key order.
	sort.Strings(keys)
	return keys
}
