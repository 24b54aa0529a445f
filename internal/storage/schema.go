// ABOUTME: SQLite schema definition and initialization.
// ABOUTME: Defines measurement_records, daily_aggregates, and health_events.
package storage

// initSchema creates or updates the database schema.
func (d *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS measurement_records (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		metric_type TEXT NOT NULL,
		value REAL NOT NULL,
		unit TEXT NOT NULL,
		recorded_at DATETIME NOT NULL,
		producer TEXT NOT NULL,
		source_device TEXT,
		quality_score REAL NOT NULL,
		category TEXT NOT NULL,
		is_canonical INTEGER NOT NULL DEFAULT 1,
		is_aggregated INTEGER NOT NULL DEFAULT 0,
		description TEXT,
		metadata TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (user_id, metric_type, recorded_at, producer)
	);

	CREATE TABLE IF NOT EXISTS daily_aggregates (
		user_id TEXT NOT NULL,
		date DATE NOT NULL,
		steps REAL,
		distance_km REAL,
		active_calories REAL,
		calories_in REAL,
		protein_g REAL,
		carbs_g REAL,
		fat_g REAL,
		sleep_hours REAL,
		resting_heart_rate REAL,
		workout_count INTEGER NOT NULL DEFAULT 0,
		completeness REAL NOT NULL DEFAULT 0,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (user_id, date)
	);

	CREATE TABLE IF NOT EXISTS health_events (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		event_type TEXT NOT NULL,
		start_time DATETIME NOT NULL,
		end_time DATETIME,
		duration_seconds INTEGER,
		title TEXT NOT NULL,
		description TEXT,
		metrics TEXT,
		producer TEXT NOT NULL,
		quality_score REAL NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (user_id, event_type, start_time)
	);

	CREATE INDEX IF NOT EXISTS idx_records_user_type_recorded
		ON measurement_records(user_id, metric_type, recorded_at);
	CREATE INDEX IF NOT EXISTS idx_records_user_category
		ON measurement_records(user_id, category);
	CREATE INDEX IF NOT EXISTS idx_records_canonical
		ON measurement_records(user_id, is_canonical);
	CREATE INDEX IF NOT EXISTS idx_events_user_start
		ON health_events(user_id, start_time DESC);
	`

	_, err := d.db.Exec(schema)
	return err
}
