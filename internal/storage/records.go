// ABOUTME: MeasurementRecord persistence: idempotent upsert, filtered reads,
// ABOUTME: chunked canonical-flag updates, and substring search.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/healthhub/internal/models"
	"github.com/harperreed/healthhub/internal/registry"
)

// flagUpdateChunkSize bounds a single bulk canonical-flag statement.
const flagUpdateChunkSize = 500

const recordColumns = `id, user_id, metric_type, value, unit, recorded_at, producer,
	source_device, quality_score, category, is_canonical, is_aggregated,
	description, metadata, created_at`

// UpsertRecords inserts a batch of records with ignore-on-conflict semantics
// on (user_id, metric_type, recorded_at, producer). Re-ingesting the same
// producer batch is idempotent. Returns the number of rows actually inserted.
func (d *DB) UpsertRecords(ctx context.Context, records []*models.MeasurementRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin upsert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO measurement_records (`+recordColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, metric_type, recorded_at, producer) DO NOTHING
	`)
	if err != nil {
		return 0, fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, r := range records {
		metadata, err := marshalBag(r.Metadata)
		if err != nil {
			return inserted, fmt.Errorf("marshal metadata for %s: %w", r.ID, err)
		}
		res, err := stmt.ExecContext(ctx,
			r.ID.String(),
			r.UserID,
			string(r.MetricType),
			r.Value,
			r.Unit,
			r.RecordedAt.UTC().Format(time.RFC3339),
			r.Producer,
			r.SourceDevice,
			r.QualityScore,
			string(r.Category),
			boolToInt(r.IsCanonical),
			boolToInt(r.IsAggregated),
			r.Description,
			metadata,
			r.CreatedAt.UTC().Format(time.RFC3339),
		)
		if err != nil {
			return inserted, fmt.Errorf("upsert record %s: %w", r.ID, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return inserted, fmt.Errorf("commit upsert: %w", err)
	}
	return inserted, nil
}

// RecordFilter selects measurement records. Zero times mean unbounded.
type RecordFilter struct {
	UserID              string
	MetricTypes         []registry.MetricType
	Category            registry.Category
	Start               time.Time
	End                 time.Time
	Producers           []string
	IncludeNonCanonical bool
	IncludeAggregated   bool
	Limit               int
}

// ListRecords retrieves records matching the filter, ordered by recorded_at
// ascending. Reads are side-effect free.
func (d *DB) ListRecords(ctx context.Context, f RecordFilter) ([]*models.MeasurementRecord, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + recordColumns + ` FROM measurement_records WHERE user_id = ?`)
	args := []interface{}{f.UserID}

	if len(f.MetricTypes) > 0 {
		sb.WriteString(" AND metric_type IN (" + placeholders(len(f.MetricTypes)) + ")")
		for _, mt := range f.MetricTypes {
			args = append(args, string(mt))
		}
	}
	if f.Category != "" {
		sb.WriteString(" AND category = ?")
		args = append(args, string(f.Category))
	}
	if !f.Start.IsZero() {
		sb.WriteString(" AND recorded_at >= ?")
		args = append(args, f.Start.UTC().Format(time.RFC3339))
	}
	if !f.End.IsZero() {
		sb.WriteString(" AND recorded_at < ?")
		args = append(args, f.End.UTC().Format(time.RFC3339))
	}
	if len(f.Producers) > 0 {
		sb.WriteString(" AND producer IN (" + placeholders(len(f.Producers)) + ")")
		for _, p := range f.Producers {
			args = append(args, p)
		}
	}
	if !f.IncludeNonCanonical {
		sb.WriteString(" AND is_canonical = 1")
	}
	if !f.IncludeAggregated {
		sb.WriteString(" AND is_aggregated = 0")
	}

	sb.WriteString(" ORDER BY recorded_at ASC")
	if f.Limit > 0 {
		sb.WriteString(" LIMIT ?")
		args = append(args, f.Limit)
	}

	rows, err := d.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// SetCanonicalFlags updates is_canonical for the given record ids, chunked so
// no single statement carries an unbounded id list. Each chunk is one bulk
// statement, so readers never observe a partially flipped chunk. Returns the
// number of rows changed.
func (d *DB) SetCanonicalFlags(ctx context.Context, ids []uuid.UUID, canonical bool) (int, error) {
	updated := 0
	for start := 0; start < len(ids); start += flagUpdateChunkSize {
		end := start + flagUpdateChunkSize
		if end > len(ids) {
			end = len(ids)
		}
		chunk := ids[start:end]

		args := make([]interface{}, 0, len(chunk)+1)
		args = append(args, boolToInt(canonical))
		for _, id := range chunk {
			args = append(args, id.String())
		}

		res, err := d.db.ExecContext(ctx,
			"UPDATE measurement_records SET is_canonical = ? WHERE id IN ("+placeholders(len(chunk))+")",
			args...)
		if err != nil {
			return updated, fmt.Errorf("set canonical flags: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil {
			updated += int(n)
		}
	}
	return updated, nil
}

// SearchRecords matches records whose description contains the query,
// case-insensitive. Only canonical records unless includeNonCanonical.
func (d *DB) SearchRecords(ctx context.Context, userID, query string, includeNonCanonical bool, limit int) ([]*models.MeasurementRecord, error) {
	q := `SELECT ` + recordColumns + ` FROM measurement_records
		WHERE user_id = ? AND description IS NOT NULL
		AND LOWER(description) LIKE '%' || LOWER(?) || '%'`
	if !includeNonCanonical {
		q += " AND is_canonical = 1"
	}
	q += " ORDER BY recorded_at DESC LIMIT ?"

	rows, err := d.db.QueryContext(ctx, q, userID, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search records: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]*models.MeasurementRecord, error) {
	var records []*models.MeasurementRecord

	for rows.Next() {
		var r models.MeasurementRecord
		var idStr, metricType, category, recordedAt, createdAt string
		var sourceDevice, description, metadata sql.NullString
		var isCanonical, isAggregated int

		err := rows.Scan(&idStr, &r.UserID, &metricType, &r.Value, &r.Unit,
			&recordedAt, &r.Producer, &sourceDevice, &r.QualityScore,
			&category, &isCanonical, &isAggregated, &description, &metadata,
			&createdAt)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}

		r.ID, _ = uuid.Parse(idStr)
		r.MetricType = registry.MetricType(metricType)
		r.Category = registry.Category(category)
		r.RecordedAt, _ = time.Parse(time.RFC3339, recordedAt)
		r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		r.IsCanonical = isCanonical != 0
		r.IsAggregated = isAggregated != 0
		if sourceDevice.Valid {
			r.SourceDevice = &sourceDevice.String
		}
		if description.Valid {
			r.Description = &description.String
		}
		if metadata.Valid && metadata.String != "" {
			_ = json.Unmarshal([]byte(metadata.String), &r.Metadata)
		}

		records = append(records, &r)
	}

	return records, rows.Err()
}

// marshalBag serializes an opaque metadata bag. The engine never interprets
// its contents.
func marshalBag(bag map[string]any) (interface{}, error) {
	if len(bag) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(bag)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
